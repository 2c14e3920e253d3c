//go:build !linux

package overlay

// X11 window hints only exist on Linux desktops.
func applyWindowHints() error { return nil }

func closeWindowHints() {}
