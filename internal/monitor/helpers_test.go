package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// writeFile creates root/rel with content, making parent directories.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

// scriptedSource serves files from a fixture tree and canned command
// output keyed by the full command line.
type scriptedSource struct {
	platform.Source
	commands map[string]string
}

func (s *scriptedSource) Run(_ context.Context, name string, args ...string) (string, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	out, ok := s.commands[line]
	if !ok {
		return "", fmt.Errorf("%s: %w", line, platform.ErrUnsupported)
	}
	return out, nil
}

// newTestDevice returns a Device over root with the given properties.
func newTestDevice(root string, props platform.Props, commands map[string]string) *Device {
	return &Device{
		Source: &scriptedSource{Source: platform.NewRootedSource(root), commands: commands},
		Props:  props,
	}
}

// androidProps marks a device as Android.
func androidProps(extra map[string]string) platform.Props {
	p := platform.Props{"ro.build.version.sdk": "34"}
	for k, v := range extra {
		p[k] = v
	}
	return p
}
