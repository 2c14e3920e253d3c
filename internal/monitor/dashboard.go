package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// DefaultInterval is the dashboard refresh interval.
const DefaultInterval = time.Second

// DashboardConfig configures a Dashboard.
type DashboardConfig struct {
	// Interval between updates; DefaultInterval when zero.
	Interval time.Duration
	// DataPath overrides the storage partition to report.
	DataPath string
	// ExternalPath is probed for external storage after the defaults.
	ExternalPath string
	// Links supplies WiFi and Bluetooth state. May be nil.
	Links   LinkProvider
	Logger  devinfo.Logger
	Metrics *devinfo.Metrics
}

// Dashboard periodically collects a Snapshot and fans it out to
// subscribers.
type Dashboard struct {
	interval time.Duration
	cpu      *CPUSampler
	freq     *cpuFreqReader
	thermal  *ThermalReader
	memory   *memoryReader
	storage  *storageReader
	battery  *batteryReader
	network  *NetworkReader
	uptime   *uptimeReader
	logger   devinfo.Logger
	metrics  *devinfo.Metrics
	now      func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	subMu sync.Mutex
	subs  []chan Snapshot
}

// NewDashboard creates a Dashboard reading dev.
func NewDashboard(dev *Device, cfg DashboardConfig) *Dashboard {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	var ext []string
	if cfg.ExternalPath != "" {
		ext = append(append(ext, DefaultExternalPaths...), cfg.ExternalPath)
	}
	return &Dashboard{
		interval: interval,
		cpu:      NewCPUSampler(dev),
		freq:     newCPUFreqReader(dev),
		thermal:  NewThermalReader(dev),
		memory:   newMemoryReader(dev),
		storage:  newStorageReader(dev, cfg.DataPath, ext),
		battery:  newBatteryReader(dev),
		network:  NewNetworkReader(dev, cfg.Links),
		uptime:   newUptimeReader(dev),
		logger:   devinfo.OrNop(cfg.Logger),
		metrics:  devinfo.OrDefault(cfg.Metrics),
		now:      time.Now,
	}
}

// Interval returns the refresh interval.
func (d *Dashboard) Interval() time.Duration {
	return d.interval
}

// Start performs an immediate update and then refreshes every interval
// until ctx is done or Stop is called.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("dashboard: %w", devinfo.ErrAlreadyRunning)
	}
	d.running = true
	ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()
	d.metrics.SetDashboardRunning(true)

	d.refresh(ctx)

	d.wg.Add(1)
	go d.loop(ctx)
	return nil
}

// Stop cancels the loop, waits for it to exit and closes every subscriber
// channel.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.mu.Unlock()

	cancel()
	d.wg.Wait()

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
	d.metrics.SetDashboardRunning(false)

	d.subMu.Lock()
	for _, ch := range d.subs {
		close(ch)
	}
	d.subs = nil
	d.subMu.Unlock()
}

// IsRunning reports whether the loop is active.
func (d *Dashboard) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

func (d *Dashboard) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dashboard) refresh(ctx context.Context) {
	snap, err := d.Update(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		d.logger.Debug("dashboard update incomplete", "error", err)
	}
	d.publish(snap)
}

// Subscribe returns a channel that receives every new Snapshot. Slow
// subscribers miss snapshots rather than block the loop. The channel is
// closed by Stop.
func (d *Dashboard) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	d.subMu.Lock()
	d.subs = append(d.subs, ch)
	d.subMu.Unlock()
	return ch
}

func (d *Dashboard) publish(snap Snapshot) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, ch := range d.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Snapshot returns the latest collected Snapshot.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}

// Update collects every reading concurrently. A failing reader leaves its
// fields zero and adds a ComponentError to the returned UpdateError.
func (d *Dashboard) Update(ctx context.Context) (Snapshot, error) {
	start := d.now()
	snap := Snapshot{Time: start}

	var (
		errMu sync.Mutex
		errs  []*ComponentError
	)
	fail := func(source ErrorSource, err error) {
		errMu.Lock()
		errs = append(errs, NewComponentError(source, err))
		errMu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		usage, err := d.cpu.Usage(ctx)
		if err != nil {
			fail(ErrorSourceCPU, err)
		}
		snap.CPUUsage = usage
		return nil
	})
	g.Go(func() error {
		cores, err := d.cpu.CoreCount()
		if err != nil {
			fail(ErrorSourceCPUFreq, err)
			return nil
		}
		snap.CPUMaxFreqKHz = MaxFrequency(d.freq.Frequencies(cores))
		return nil
	})
	g.Go(func() error {
		snap.CPUTemperature = d.thermal.CPUTemperature(ctx)
		return nil
	})
	g.Go(func() error {
		mem, err := d.memory.Read()
		if err != nil {
			fail(ErrorSourceMemory, err)
		}
		snap.Memory = mem
		return nil
	})
	g.Go(func() error {
		st, err := d.storage.Internal()
		if err != nil {
			fail(ErrorSourceStorage, err)
		}
		snap.Storage = st
		return nil
	})
	g.Go(func() error {
		bat, err := d.battery.Read()
		switch {
		case errors.Is(err, ErrNoBattery):
		case err != nil:
			fail(ErrorSourceBattery, err)
		default:
			snap.Battery, snap.HasBattery = bat, true
		}
		return nil
	})
	g.Go(func() error {
		status, err := d.network.Status(ctx)
		if err != nil {
			fail(ErrorSourceNetwork, err)
		}
		snap.Network = status
		return nil
	})
	g.Go(func() error {
		up, err := d.uptime.Read()
		if err != nil {
			fail(ErrorSourceUptime, err)
		}
		snap.Uptime = up
		return nil
	})
	_ = g.Wait()

	d.metrics.IncrementDashboardUpdates()
	d.metrics.RecordUpdateLatency(d.now().Sub(start))

	var err error
	if len(errs) > 0 {
		snap.Err = &UpdateError{Errors: errs}
		err = snap.Err
		d.metrics.IncrementUpdateErrors()
	}

	d.mu.Lock()
	d.snapshot = snap
	d.mu.Unlock()
	return snap, err
}
