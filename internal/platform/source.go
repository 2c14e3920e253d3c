package platform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupported is returned by operations a Source cannot perform on the
// current host.
var ErrUnsupported = errors.New("operation not supported on this platform")

// Source gives the device readers access to a host's files, filesystems
// and commands. The local host and SSH-reachable hosts both implement it.
type Source interface {
	// Name identifies the source in logs ("local", "ssh://user@host:22").
	Name() string

	// ReadFile returns the content of a file such as /proc/stat.
	ReadFile(path string) ([]byte, error)

	// ReadDir returns the entry names of a directory, sorted.
	ReadDir(path string) ([]string, error)

	// Statfs reports capacity of the filesystem holding path.
	Statfs(path string) (DiskUsage, error)

	// Run executes a command and returns its standard output.
	Run(ctx context.Context, name string, args ...string) (string, error)

	// Close releases any connection held by the source.
	Close() error
}

// DiskUsage holds filesystem capacity in bytes.
type DiskUsage struct {
	Total     uint64
	Free      uint64
	Available uint64
}

// Used returns Total minus Available, never underflowing.
func (d DiskUsage) Used() uint64 {
	if d.Available > d.Total {
		return 0
	}
	return d.Total - d.Available
}

// ReadString reads a file and trims surrounding whitespace.
func ReadString(src Source, path string) (string, error) {
	data, err := src.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadInt reads a file holding a single signed integer.
func ReadInt(src Source, path string) (int64, error) {
	s, err := ReadString(src, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return v, nil
}

// ReadUint64 reads a file holding a single unsigned integer.
func ReadUint64(src Source, path string) (uint64, error) {
	s, err := ReadString(src, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return v, nil
}

// Exists reports whether path can be read or listed through src.
func Exists(src Source, path string) bool {
	if _, err := src.ReadDir(path); err == nil {
		return true
	}
	_, err := src.ReadFile(path)
	return err == nil
}
