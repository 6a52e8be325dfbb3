package notify

import (
	"context"
	"log/slog"

	"github.com/guidepost/launchpad/pkg/structs"
)

// Log is a Notifier that writes messages to the logger and reports the
// channel as OFF. It stands in when no queue broker is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, n *structs.Notification) (*structs.Delivery, error) {
	l.logger.Info("notification dropped, channel off",
		"channel", n.Channel, "recipient", n.Recipient, "job", n.JobID)
	return &structs.Delivery{Status: structs.DeliveryOff, Detail: "no notifier configured"}, nil
}

func (l *Log) Close() error { return nil }
