package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

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

func nopLogger() devinfo.Logger {
	return devinfo.OrNop(nil)
}
