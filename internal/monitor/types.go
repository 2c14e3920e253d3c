package monitor

import (
	"fmt"
	"time"

	"github.com/opd-ai/go-devinfo/internal/format"
)

// Snapshot is one dashboard reading. Fields whose reader failed hold
// their zero value; Errors lists the failed sources.
type Snapshot struct {
	Time           time.Time
	CPUUsage       float64
	CPUMaxFreqKHz  int64
	CPUTemperature float64
	Memory         MemoryInfo
	Storage        StorageInfo
	Battery        BatteryInfo
	HasBattery     bool
	Network        NetworkStatus
	Uptime         time.Duration
	// Err is the UpdateError of the collection, or nil.
	Err *UpdateError
}

// CPUText renders the CPU usage, e.g. "42%".
func (s Snapshot) CPUText() string {
	return fmt.Sprintf("%d%%", int(s.CPUUsage))
}

// FrequencyText renders the fastest core frequency.
func (s Snapshot) FrequencyText() string {
	if s.CPUMaxFreqKHz <= 0 {
		return Unknown
	}
	return format.Frequency(s.CPUMaxFreqKHz)
}

// TemperatureText renders the CPU temperature, e.g. "45°C".
func (s Snapshot) TemperatureText() string {
	if s.CPUTemperature <= 0 {
		return NotApplicable
	}
	return fmt.Sprintf("%d°C", int(s.CPUTemperature))
}

// MemoryText renders memory as "used / total".
func (s Snapshot) MemoryText() string {
	return format.UsedOfTotal(int64(s.Memory.Used), int64(s.Memory.Total))
}

// MemoryPercentText renders memory usage, e.g. "63%".
func (s Snapshot) MemoryPercentText() string {
	return fmt.Sprintf("%d%%", format.Percent(s.Memory.Used, s.Memory.Total))
}

// StorageText renders storage as "used / total".
func (s Snapshot) StorageText() string {
	return format.UsedOfTotal(int64(s.Storage.Used), int64(s.Storage.Total))
}

// StoragePercentText renders storage usage, e.g. "12%".
func (s Snapshot) StoragePercentText() string {
	return fmt.Sprintf("%d%%", format.Percent(s.Storage.Used, s.Storage.Total))
}

// BatteryLevelText renders the battery level, e.g. "80%".
func (s Snapshot) BatteryLevelText() string {
	if !s.HasBattery || s.Battery.Percent() < 0 {
		return NotApplicable
	}
	return fmt.Sprintf("%d%%", s.Battery.Percent())
}

// BatteryDetailText renders "temp°C • voltagemV".
func (s Snapshot) BatteryDetailText() string {
	if !s.HasBattery {
		return NotApplicable
	}
	return fmt.Sprintf("%.1f°C • %dmV", s.Battery.TemperatureC, s.Battery.VoltageMV)
}

// UptimeText renders the uptime in the compact form.
func (s Snapshot) UptimeText() string {
	return format.Uptime(s.Uptime)
}
