// Package profiling writes CPU and heap profiles for a devinfo run and
// serves the debug endpoints (expvar counters and pprof).
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// ErrNotRunning is returned by Stop on a session that already stopped.
var ErrNotRunning = errors.New("profiling session not running")

// Config names the profile outputs. An empty path disables that profile.
type Config struct {
	CPUProfilePath string
	MemProfilePath string
}

// Enabled reports whether any profile is requested.
func (c Config) Enabled() bool {
	return c.CPUProfilePath != "" || c.MemProfilePath != ""
}

// Session is one profiling run, from Start to Stop.
type Session struct {
	cfg Config

	mu      sync.Mutex
	cpuFile *os.File
	running bool
}

// Start begins CPU profiling when configured. The heap profile is written
// by Stop.
func Start(cfg Config) (*Session, error) {
	s := &Session{cfg: cfg, running: true}
	if cfg.CPUProfilePath == "" {
		return s, nil
	}
	f, err := os.Create(cfg.CPUProfilePath)
	if err != nil {
		return nil, fmt.Errorf("creating CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("starting CPU profile: %w", err)
	}
	s.cpuFile = f
	return s, nil
}

// Stop ends CPU profiling and writes the heap profile.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	s.running = false

	var errs []error
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := s.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing CPU profile: %w", err))
		}
		s.cpuFile = nil
	}
	if s.cfg.MemProfilePath != "" {
		if err := WriteHeapProfile(s.cfg.MemProfilePath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteHeapProfile collects garbage and writes a heap profile to path.
func WriteHeapProfile(path string) error {
	runtime.GC()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating heap profile: %w", err)
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("writing heap profile: %w", err)
	}
	return nil
}
