// Package notify posts desktop and device notifications through whichever
// backend the host offers: the freedesktop D-Bus service, Android's
// notification shell command, zenity, or the log.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/opd-ai/go-devinfo/internal/platform"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// Channel groups notifications by the service that posts them.
type Channel string

const (
	ChannelBattery   Channel = "battery_monitor"
	ChannelOverlay   Channel = "floating_overlay"
	ChannelBenchmark Channel = "benchmark"
)

// NoProgress marks a notification without a progress bar.
const NoProgress = -1

// Notification is one message. Posting a Notification whose ID was posted
// before replaces the earlier message where the backend supports it.
type Notification struct {
	ID      string
	Channel Channel
	Title   string
	Body    string
	// Ongoing notifications stay until withdrawn.
	Ongoing bool
	// Progress is 0..100, or NoProgress.
	Progress int
}

// New returns a notification with a fresh ID and no progress.
func New(channel Channel, title, body string) Notification {
	return Notification{
		ID:       uuid.NewString(),
		Channel:  channel,
		Title:    title,
		Body:     body,
		Progress: NoProgress,
	}
}

func (n Notification) withID() Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return n
}

func (n Notification) hasProgress() bool {
	return n.Progress >= 0 && n.Progress <= 100
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	// Withdraw removes a posted notification. Backends that cannot
	// remove notifications return nil.
	Withdraw(ctx context.Context, id string) error
	Close() error
}

// fallback tries each notifier in order.
type fallback struct {
	notifiers []Notifier
}

// Fallback returns a Notifier that posts through the first of notifiers
// that succeeds. It fails only when all of them fail.
func Fallback(notifiers ...Notifier) Notifier {
	return &fallback{notifiers: notifiers}
}

func (f *fallback) Notify(ctx context.Context, n Notification) error {
	n = n.withID()
	var errs []error
	for _, nt := range f.notifiers {
		err := nt.Notify(ctx, n)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return errors.New("no notifier configured")
	}
	return fmt.Errorf("posting %q: %w", n.Title, errors.Join(errs...))
}

func (f *fallback) Withdraw(ctx context.Context, id string) error {
	var errs []error
	for _, nt := range f.notifiers {
		if err := nt.Withdraw(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fallback) Close() error {
	var errs []error
	for _, nt := range f.notifiers {
		if err := nt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// counted records delivery results in Metrics.
type counted struct {
	Notifier
	metrics *devinfo.Metrics
}

// WithMetrics counts sent and failed notifications of n.
func WithMetrics(n Notifier, m *devinfo.Metrics) Notifier {
	return &counted{Notifier: n, metrics: devinfo.OrDefault(m)}
}

func (c *counted) Notify(ctx context.Context, n Notification) error {
	if err := c.Notifier.Notify(ctx, n); err != nil {
		c.metrics.IncrementNotificationErrors()
		return err
	}
	c.metrics.IncrementNotificationsSent()
	return nil
}

// Auto picks the backends for the device behind src: the notification
// shell command on Android, otherwise the D-Bus service when a session
// bus is reachable, then zenity. The log notifier is always last.
func Auto(src platform.Source, props platform.Props, logger devinfo.Logger, metrics *devinfo.Metrics) Notifier {
	logger = devinfo.OrNop(logger)
	var chain []Notifier

	if props.IsAndroid() {
		chain = append(chain, NewAndroidNotifier(src))
	} else {
		if d, err := NewDBusNotifier(); err == nil {
			chain = append(chain, d)
		} else {
			logger.Debug("desktop notifications unavailable", "error", err)
		}
		chain = append(chain, NewZenityNotifier())
	}
	chain = append(chain, NewLogNotifier(logger))
	return WithMetrics(Fallback(chain...), metrics)
}
