package notify

import (
	"context"

	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// LogNotifier writes notifications to a Logger. It never fails.
type LogNotifier struct {
	logger devinfo.Logger
}

func NewLogNotifier(logger devinfo.Logger) *LogNotifier {
	return &LogNotifier{logger: devinfo.OrNop(logger)}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	args := []any{"id", n.ID, "channel", string(n.Channel), "title", n.Title, "body", n.Body}
	if n.hasProgress() {
		args = append(args, "progress", n.Progress)
	}
	if n.Ongoing {
		args = append(args, "ongoing", true)
	}
	l.logger.Info("notification", args...)
	return nil
}

func (l *LogNotifier) Withdraw(_ context.Context, id string) error {
	l.logger.Debug("notification withdrawn", "id", id)
	return nil
}

func (l *LogNotifier) Close() error { return nil }
