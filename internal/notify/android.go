package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// AndroidNotifier posts with `cmd notification post`. Reposting the same
// tag replaces the notification.
type AndroidNotifier struct {
	src platform.Source
}

// NewAndroidNotifier creates an AndroidNotifier that runs through src.
func NewAndroidNotifier(src platform.Source) *AndroidNotifier {
	return &AndroidNotifier{src: src}
}

func (a *AndroidNotifier) Notify(ctx context.Context, n Notification) error {
	n = n.withID()
	body := n.Body
	if n.hasProgress() {
		body = fmt.Sprintf("%s (%d%%)", body, n.Progress)
	}
	_, err := a.src.Run(ctx, "cmd", "notification", "post",
		"-S", "bigtext",
		"-t", n.Title,
		androidTag(n), body)
	if err != nil {
		return fmt.Errorf("android notification: %w", err)
	}
	return nil
}

// Withdraw is a no-op: the shell command cannot cancel notifications.
func (a *AndroidNotifier) Withdraw(context.Context, string) error { return nil }

func (a *AndroidNotifier) Close() error { return nil }

// androidTag derives a shell-safe tag from the channel and ID.
func androidTag(n Notification) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, n.ID)
	if len(id) > 12 {
		id = id[:12]
	}
	return "devinfo_" + string(n.Channel) + "_" + id
}
