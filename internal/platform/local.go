package platform

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// localSource reads the host the process runs on.
type localSource struct {
	// root is prepended to every absolute path; empty in production.
	root string
}

// NewLocalSource returns a Source for the local host.
func NewLocalSource() Source {
	return &localSource{}
}

// NewRootedSource returns a local Source whose absolute paths resolve under
// root. Tests use it to serve fixture trees as /proc and /sys.
func NewRootedSource(root string) Source {
	return &localSource{root: root}
}

func (s *localSource) Name() string {
	if s.root != "" {
		return "local:" + s.root
	}
	return "local"
}

func (s *localSource) path(p string) string {
	if s.root == "" {
		return p
	}
	return s.root + p
}

func (s *localSource) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(s.path(path))
}

func (s *localSource) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(s.path(path))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *localSource) Statfs(path string) (DiskUsage, error) {
	return statfs(s.path(path))
}

func (s *localSource) Run(ctx context.Context, name string, args ...string) (string, error) {
	if s.root != "" {
		return "", fmt.Errorf("running %s: %w", name, ErrUnsupported)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w (stderr: %s)", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

func (s *localSource) Close() error {
	return nil
}
