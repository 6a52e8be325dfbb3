package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/guidepost/launchpad/pkg/structs"
)

const (
	notifyQueue = "launchpad:notify"
	sendTask    = "notify:send"

	defMaxRetry = 3
)

// Queue is a Notifier that hands messages to an asynq (redis) queue.
// The API process enqueues; a worker process Registers channel senders
// and drains the queue.
type Queue struct {
	opts *Options
	cli  *asynq.Client

	// worker side, built lazily when Register is called
	senders map[structs.Channel]Sender
	mux     *asynq.ServeMux
	srv     *asynq.Server
}

func NewQueue(opts *Options) (*Queue, error) {
	cli := asynq.NewClient(opts.redisOpt())
	return &Queue{
		opts:    opts,
		cli:     cli,
		senders: map[structs.Channel]Sender{},
	}, nil
}

// redisOpt accepts both redis:// URIs and bare host:port addresses.
func (o *Options) redisOpt() asynq.RedisClientOpt {
	if parsed, err := asynq.ParseRedisURI(o.URL); err == nil {
		if rco, ok := parsed.(asynq.RedisClientOpt); ok {
			rco.TLSConfig = o.TLSConfig
			return rco
		}
	}
	return asynq.RedisClientOpt{Addr: o.URL, TLSConfig: o.TLSConfig}
}

// Send enqueues the message. A SENT delivery here means "accepted for
// delivery"; the worker's sender does the actual channel send.
func (q *Queue) Send(ctx context.Context, n *structs.Notification) (*structs.Delivery, error) {
	if n.Recipient == "" {
		return &structs.Delivery{Status: structs.DeliveryFailed, Detail: "no recipient"}, nil
	}

	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}

	info, err := q.cli.EnqueueContext(ctx,
		asynq.NewTask(sendTask, data),
		asynq.Queue(notifyQueue),
		asynq.MaxRetry(defMaxRetry),
	)
	if err != nil {
		return &structs.Delivery{Status: structs.DeliveryFailed, Detail: err.Error()}, nil
	}
	return &structs.Delivery{Status: structs.DeliverySent, Detail: "enqueued " + info.ID}, nil
}

// Register installs the sender for one channel (worker side). Channels
// with no registered sender report OFF and are dropped without retry.
func (q *Queue) Register(c structs.Channel, s Sender) {
	if q.mux == nil {
		q.buildServer()
	}
	q.senders[c] = s
}

func (q *Queue) buildServer() {
	q.mux = asynq.NewServeMux()
	q.mux.HandleFunc(sendTask, func(ctx context.Context, t *asynq.Task) error {
		n := &structs.Notification{}
		if err := json.Unmarshal(t.Payload(), n); err != nil {
			return fmt.Errorf("bad notification payload: %v: %w", err, asynq.SkipRetry)
		}
		// normalize so senders registered under the canonical names match
		if ch := structs.ToChannel(string(n.Channel)); ch != "" {
			n.Channel = ch
		}
		sender, ok := q.senders[n.Channel]
		if !ok {
			log.Println("[notify] channel off, dropping", n.Channel, "for job", n.JobID)
			return nil
		}
		return sender.Deliver(ctx, n)
	})
	q.srv = asynq.NewServer(
		q.opts.redisOpt(),
		asynq.Config{Queues: map[string]int{notifyQueue: 1}},
	)
}

// Run drains the queue & delivers via registered senders. Blocks until
// Close is called.
func (q *Queue) Run() error {
	if q.srv == nil {
		return fmt.Errorf("no senders registered")
	}
	return q.srv.Run(q.mux)
}

func (q *Queue) Close() error {
	if q.srv != nil {
		q.srv.Stop()
		q.srv.Shutdown()
	}
	return q.cli.Close()
}
