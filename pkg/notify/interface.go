// Package notify is the outbound notification collaborator. The core hands
// it templated messages; delivery mechanics (SMTP, SMS gateways, WhatsApp)
// live behind the Sender interface on the worker side.
package notify

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/guidepost/launchpad/pkg/structs"
)

// Notifier accepts a message for delivery on one channel.
type Notifier interface {
	// Send hands off a single notification and reports what became of it.
	// A non-nil error means the collaborator itself broke (surface as an
	// internal error); a FAILED / OFF Delivery is a normal outcome.
	Send(ctx context.Context, n *structs.Notification) (*structs.Delivery, error)

	Close() error
}

// Sender performs the actual channel delivery on the worker side.
type Sender interface {
	Deliver(ctx context.Context, n *structs.Notification) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, n *structs.Notification) error

func (f SenderFunc) Deliver(ctx context.Context, n *structs.Notification) error {
	return f(ctx, n)
}

// Dispatch fans one message body out over several channels concurrently and
// collects the per-channel outcome. Notifier errors are folded into FAILED
// deliveries; dispatch is bookkeeping, never a hard failure.
func Dispatch(ctx context.Context, n Notifier, msgs []*structs.Notification) map[structs.Channel]structs.DeliveryStatus {
	out := map[structs.Channel]structs.DeliveryStatus{}
	if len(msgs) == 0 {
		return out
	}

	mu := sync.Mutex{}
	g, ctx := errgroup.WithContext(ctx)
	for _, msg := range msgs {
		msg := msg
		g.Go(func() error {
			d, err := n.Send(ctx, msg)
			status := structs.DeliveryFailed
			if err == nil && d != nil {
				status = d.Status
			}
			mu.Lock()
			out[msg.Channel] = status
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return out
}
