package sensors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/go-devinfo/internal/platform"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// DefaultSampleInterval is how often the Sampler polls its backend.
const DefaultSampleInterval = 100 * time.Millisecond

// Backend lists sensors and reads their current values keyed by Sensor.ID.
type Backend interface {
	List(ctx context.Context) ([]Sensor, error)
	Read(ctx context.Context, sensors []Sensor) (map[string][]float64, error)
}

// NewBackend picks the Android sensor service for Android devices and IIO
// sysfs otherwise.
func NewBackend(src platform.Source, props platform.Props) Backend {
	if props.IsAndroid() {
		return NewAndroidBackend(src)
	}
	return NewIIOBackend(src)
}

// Sampler polls a Backend and keeps the latest values per sensor.
type Sampler struct {
	backend  Backend
	sensors  []Sensor
	interval time.Duration
	logger   devinfo.Logger

	mu      sync.RWMutex
	values  map[string][]float64
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSampler creates a Sampler over sensors. interval defaults to
// DefaultSampleInterval when zero.
func NewSampler(backend Backend, sensors []Sensor, interval time.Duration, logger devinfo.Logger) *Sampler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Sampler{
		backend:  backend,
		sensors:  sensors,
		interval: interval,
		logger:   devinfo.OrNop(logger),
		values:   make(map[string][]float64),
	}
}

// Sensors returns the sampled sensors.
func (s *Sampler) Sensors() []Sensor {
	return s.sensors
}

// Sample performs one poll.
func (s *Sampler) Sample(ctx context.Context) error {
	values, err := s.backend.Read(ctx, s.sensors)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for id, v := range values {
		s.values[id] = v
	}
	s.mu.Unlock()
	return nil
}

// Latest returns a copy of the most recent values of sensor id.
func (s *Sampler) Latest(id string) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[id]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

// Start polls until ctx is done or Stop is called.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sensor sampler: %w", devinfo.ErrAlreadyRunning)
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			if err := s.Sample(ctx); err != nil && ctx.Err() == nil {
				s.logger.Debug("sensor sample failed", "error", err)
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop ends polling and waits for the loop to exit.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
