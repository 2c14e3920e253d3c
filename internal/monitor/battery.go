package monitor

import (
	"context"
	"fmt"
	"strings"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// BatteryStatus is the charging state reported by the kernel.
type BatteryStatus int

const (
	StatusUnknown BatteryStatus = iota
	StatusCharging
	StatusDischarging
	StatusNotCharging
	StatusFull
)

// String returns the text shown on the battery tab.
func (s BatteryStatus) String() string {
	switch s {
	case StatusCharging:
		return "Charging"
	case StatusDischarging:
		return "Discharging"
	case StatusNotCharging:
		return "Not Charging"
	case StatusFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// BatteryHealth is the health state reported by the kernel.
type BatteryHealth int

const (
	HealthUnknown BatteryHealth = iota
	HealthGood
	HealthOverheat
	HealthDead
	HealthOverVoltage
	HealthFailure
	HealthCold
)

// String returns the short label used on the dashboard.
func (h BatteryHealth) String() string {
	switch h {
	case HealthGood:
		return "Good"
	case HealthOverheat:
		return "Overheat"
	case HealthDead:
		return "Dead"
	case HealthOverVoltage:
		return "Over Voltage"
	case HealthFailure:
		return "Failure"
	case HealthCold:
		return "Cold"
	default:
		return "Unknown"
	}
}

// Label returns the long label used on the battery tab.
func (h BatteryHealth) Label() string {
	switch h {
	case HealthOverheat:
		return "Overheating"
	case HealthFailure:
		return "Unspecified Failure"
	default:
		return h.String()
	}
}

// PlugType identifies what is charging the battery.
type PlugType int

const (
	PlugNone PlugType = iota
	PlugAC
	PlugUSB
	PlugWireless
)

// String returns the power source text.
func (p PlugType) String() string {
	switch p {
	case PlugAC:
		return "AC Adapter"
	case PlugUSB:
		return "USB"
	case PlugWireless:
		return "Wireless"
	default:
		return "Battery"
	}
}

// BatteryInfo describes the primary battery.
type BatteryInfo struct {
	// Name is the power supply directory name (e.g. "battery", "BAT0").
	Name string
	// Level is the charge in percent of Scale, or -1 when unknown.
	Level int
	// Scale is the maximum Level, always 100 for sysfs batteries.
	Scale int
	Status BatteryStatus
	Health BatteryHealth
	Plug   PlugType
	// VoltageMV is the voltage in millivolts.
	VoltageMV int
	// TemperatureC is the temperature in degrees Celsius.
	TemperatureC float64
	// Technology is the chemistry, e.g. "Li-ion", or "Unknown".
	Technology string
	// ChargeCounter is the remaining charge in µAh, 0 if unreported.
	ChargeCounter int64
	// CurrentNow is the instantaneous current in µA, 0 if unreported.
	CurrentNow int64
}

// Percent returns Level scaled to 0..100, or -1 when unknown.
func (b BatteryInfo) Percent() int {
	return Percent(b.Level, b.Scale)
}

// IsCharging reports whether external power is keeping the battery up.
func (b BatteryInfo) IsCharging() bool {
	return b.Status == StatusCharging || b.Status == StatusFull
}

// ChargingStatus returns "Charging via <source>" or "Not charging".
func (b BatteryInfo) ChargingStatus() string {
	if b.Status == StatusCharging {
		return "Charging via " + b.Plug.String()
	}
	return "Not charging"
}

// Percent converts a level on scale to percent, or -1 when either is invalid.
func Percent(level, scale int) int {
	if level < 0 || scale <= 0 {
		return -1
	}
	return level * 100 / scale
}

type batteryReader struct {
	src             platform.Source
	powerSupplyPath string
}

func newBatteryReader(dev *Device) *batteryReader {
	return &batteryReader{src: dev.Source, powerSupplyPath: "/sys/class/power_supply"}
}

// Read returns the first supply of type Battery. ErrNoBattery is returned
// when there is none.
func (r *batteryReader) Read() (BatteryInfo, error) {
	entries, err := r.src.ReadDir(r.powerSupplyPath)
	if err != nil {
		return BatteryInfo{}, fmt.Errorf("reading %s: %w", r.powerSupplyPath, ErrNoBattery)
	}

	var (
		info  BatteryInfo
		found bool
		plug  = PlugNone
	)
	for _, name := range entries {
		dir := r.powerSupplyPath + "/" + name
		supplyType, err := platform.ReadString(r.src, dir+"/type")
		if err != nil {
			continue
		}
		switch strings.ToLower(supplyType) {
		case "battery":
			if !found {
				info = r.readBattery(dir, name)
				found = true
			}
		case "mains", "ups":
			if plug == PlugNone && r.online(dir) {
				plug = PlugAC
			}
		case "usb", "usb_dcp", "usb_cdp", "usb_aca", "usb_c", "usb_pd":
			if plug == PlugNone && r.online(dir) {
				plug = PlugUSB
			}
		case "wireless":
			if plug == PlugNone && r.online(dir) {
				plug = PlugWireless
			}
		}
	}
	if !found {
		return BatteryInfo{}, ErrNoBattery
	}
	info.Plug = plug
	return info, nil
}

func (r *batteryReader) online(dir string) bool {
	v, err := platform.ReadInt(r.src, dir+"/online")
	return err == nil && v == 1
}

func (r *batteryReader) readBattery(dir, name string) BatteryInfo {
	info := BatteryInfo{Name: name, Level: -1, Scale: 100, Technology: Unknown}

	if v, err := platform.ReadInt(r.src, dir+"/capacity"); err == nil && v >= 0 && v <= 100 {
		info.Level = int(v)
	}
	if s, err := platform.ReadString(r.src, dir+"/status"); err == nil {
		info.Status = parseBatteryStatus(s)
	}
	if s, err := platform.ReadString(r.src, dir+"/health"); err == nil {
		info.Health = parseBatteryHealth(s)
	}
	if v, err := platform.ReadInt(r.src, dir+"/voltage_now"); err == nil {
		info.VoltageMV = int(v / 1000)
	}
	if v, err := platform.ReadInt(r.src, dir+"/temp"); err == nil {
		info.TemperatureC = float64(v) / 10
	}
	if s, err := platform.ReadString(r.src, dir+"/technology"); err == nil && s != "" {
		info.Technology = s
	}
	if v, err := platform.ReadInt(r.src, dir+"/charge_counter"); err == nil {
		info.ChargeCounter = v
	}
	if v, err := platform.ReadInt(r.src, dir+"/current_now"); err == nil {
		info.CurrentNow = v
	}
	return info
}

func parseBatteryStatus(s string) BatteryStatus {
	switch strings.ToLower(s) {
	case "charging":
		return StatusCharging
	case "discharging":
		return StatusDischarging
	case "not charging":
		return StatusNotCharging
	case "full":
		return StatusFull
	default:
		return StatusUnknown
	}
}

func parseBatteryHealth(s string) BatteryHealth {
	switch strings.ToLower(strings.ReplaceAll(s, " ", "")) {
	case "good":
		return HealthGood
	case "overheat", "hot", "warm":
		return HealthOverheat
	case "dead":
		return HealthDead
	case "overvoltage":
		return HealthOverVoltage
	case "unspecifiedfailure", "failure":
		return HealthFailure
	case "cold", "cool":
		return HealthCold
	default:
		return HealthUnknown
	}
}

// PowerSaveMode returns "Enabled", "Disabled" or "Unknown" from the
// Android low_power global setting.
func PowerSaveMode(ctx context.Context, dev *Device) string {
	if !dev.IsAndroid() {
		return Unknown
	}
	out, err := dev.Source.Run(ctx, "settings", "get", "global", "low_power")
	if err != nil {
		return Unknown
	}
	switch strings.TrimSpace(out) {
	case "1":
		return "Enabled"
	case "0", "null":
		return "Disabled"
	default:
		return Unknown
	}
}

// ReadBattery reads the primary battery of dev. It returns ErrNoBattery
// on hosts without one.
func ReadBattery(dev *Device) (BatteryInfo, error) {
	return newBatteryReader(dev).Read()
}
