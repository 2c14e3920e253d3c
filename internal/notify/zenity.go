package notify

import (
	"context"
	"fmt"

	"github.com/ncruces/zenity"
)

// ZenityNotifier posts through zenity's notification support, which
// covers macOS and Windows as well as desktops without D-Bus.
type ZenityNotifier struct {
	notify func(text string, options ...zenity.Option) error
}

// NewZenityNotifier creates a ZenityNotifier.
func NewZenityNotifier() *ZenityNotifier {
	return &ZenityNotifier{notify: zenity.Notify}
}

// Notify posts n. Progress updates of ongoing notifications are skipped
// because zenity cannot replace a notification and would stack them.
func (z *ZenityNotifier) Notify(ctx context.Context, n Notification) error {
	if n.Ongoing && n.hasProgress() && n.Progress > 0 && n.Progress < 100 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := z.notify(n.Body, zenity.Title(n.Title), zenity.InfoIcon); err != nil {
		return fmt.Errorf("zenity notify: %w", err)
	}
	return nil
}

func (z *ZenityNotifier) Withdraw(context.Context, string) error { return nil }

func (z *ZenityNotifier) Close() error { return nil }
