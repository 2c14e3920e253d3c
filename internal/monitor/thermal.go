package monitor

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// ThermalCacheTTL is how long a CPU temperature reading is reused.
const ThermalCacheTTL = 5 * time.Second

// DefaultThermalPaths are probed in order for a CPU temperature.
var DefaultThermalPaths = []string{
	"/sys/class/thermal/thermal_zone0/temp",
	"/sys/class/thermal/thermal_zone1/temp",
	"/sys/devices/platform/omap/omap_temp_sensor.0/temperature",
	"/sys/devices/system/cpu/cpu0/cpufreq/cpu_temp",
	"/sys/devices/system/cpu/cpu0/cpufreq/FakeShmoo_cpu_temp",
	"/sys/class/i2c-adapter/i2c-4/4-004c/temperature",
	"/sys/devices/platform/tegra-i2c.3/i2c-4/4-004c/temperature",
	"/sys/devices/platform/s5p-tmu/temperature",
}

var thermalStatusRe = regexp.MustCompile(`Thermal Status:\s*(\d+)`)

// ThermalReader reads the CPU temperature in °C.
type ThermalReader struct {
	dev   *Device
	paths []string
	now   func() time.Time

	mu       sync.Mutex
	cached   float64
	cachedAt time.Time
	valid    bool
}

// NewThermalReader creates a reader probing DefaultThermalPaths.
func NewThermalReader(dev *Device) *ThermalReader {
	return &ThermalReader{dev: dev, paths: DefaultThermalPaths, now: time.Now}
}

// CPUTemperature returns the cached value when younger than
// ThermalCacheTTL, otherwise probes the sysfs paths and, on Android,
// estimates from the thermal service status. 0 means unknown.
func (r *ThermalReader) CPUTemperature(ctx context.Context) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.valid && now.Sub(r.cachedAt) < ThermalCacheTTL {
		return r.cached
	}

	temp := r.probe()
	if temp <= 0 && r.dev.IsAndroid() {
		temp = r.estimateFromStatus(ctx)
	}

	r.cached, r.cachedAt, r.valid = temp, now, true
	return temp
}

func (r *ThermalReader) probe() float64 {
	for _, p := range r.paths {
		s, err := platform.ReadString(r.dev.Source, p)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			continue
		}
		if v > 1000 {
			v /= 1000
		}
		return v
	}
	return 0
}

func (r *ThermalReader) estimateFromStatus(ctx context.Context) float64 {
	out, err := r.dev.Source.Run(ctx, "dumpsys", "thermalservice")
	if err != nil {
		return 0
	}
	return estimateFromThermalStatus(out)
}

// estimateFromThermalStatus maps the thermal throttling status to an
// approximate temperature.
func estimateFromThermalStatus(out string) float64 {
	m := thermalStatusRe.FindStringSubmatch(out)
	if m == nil {
		return 0
	}
	status, _ := strconv.Atoi(strings.TrimSpace(m[1]))
	switch status {
	case 0:
		return 35
	case 1:
		return 45
	case 2:
		return 55
	case 3:
		return 65
	case 4:
		return 75
	case 5:
		return 85
	case 6:
		return 95
	default:
		return 40
	}
}
