package overlay

import (
	"context"
	"errors"

	"github.com/opd-ai/go-devinfo/internal/monitor"
)

// DeviceStats reads overlay values from a device.
type DeviceStats struct {
	dev *monitor.Device
	cpu *monitor.CPUSampler
}

// NewDeviceStats creates a StatsSource for dev.
func NewDeviceStats(dev *monitor.Device) *DeviceStats {
	return &DeviceStats{dev: dev, cpu: monitor.NewCPUSampler(dev)}
}

// Stats samples CPU usage, memory use and battery level. Values that
// cannot be read are 0 (or -1 for the battery) and reported in the
// joined error.
func (d *DeviceStats) Stats(ctx context.Context) (Stats, error) {
	s := Stats{Battery: -1}
	var errs []error

	if cpu, err := d.cpu.Usage(ctx); err == nil {
		s.CPU = int(cpu)
	} else {
		errs = append(errs, err)
	}
	if mem, err := monitor.ReadMemory(d.dev); err == nil {
		s.RAM = int(mem.UsagePercent())
	} else {
		errs = append(errs, err)
	}
	if bat, err := monitor.ReadBattery(d.dev); err == nil {
		s.Battery = bat.Percent()
	} else if !errors.Is(err, monitor.ErrNoBattery) {
		errs = append(errs, err)
	}
	return s, errors.Join(errs...)
}
