package monitor

import (
	"context"
	"errors"
	"testing"
)

func writeBattery(t *testing.T, root string) {
	t.Helper()
	base := "sys/class/power_supply/"
	writeFile(t, root, base+"battery/type", "Battery\n")
	writeFile(t, root, base+"battery/capacity", "76\n")
	writeFile(t, root, base+"battery/status", "Charging\n")
	writeFile(t, root, base+"battery/health", "Good\n")
	writeFile(t, root, base+"battery/voltage_now", "4123000\n")
	writeFile(t, root, base+"battery/temp", "312\n")
	writeFile(t, root, base+"battery/technology", "Li-ion\n")
	writeFile(t, root, base+"battery/charge_counter", "3100000\n")
	writeFile(t, root, base+"battery/current_now", "-250000\n")
	writeFile(t, root, base+"usb/type", "USB\n")
	writeFile(t, root, base+"usb/online", "1\n")
	writeFile(t, root, base+"ac/type", "Mains\n")
	writeFile(t, root, base+"ac/online", "0\n")
}

func TestBatteryRead(t *testing.T) {
	root := t.TempDir()
	writeBattery(t, root)

	got, err := newBatteryReader(newTestDevice(root, nil, nil)).Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := BatteryInfo{
		Name:          "battery",
		Level:         76,
		Scale:         100,
		Status:        StatusCharging,
		Health:        HealthGood,
		Plug:          PlugUSB,
		VoltageMV:     4123,
		TemperatureC:  31.2,
		Technology:    "Li-ion",
		ChargeCounter: 3100000,
		CurrentNow:    -250000,
	}
	if got != want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}
	if s := got.ChargingStatus(); s != "Charging via USB" {
		t.Errorf("ChargingStatus() = %q, want %q", s, "Charging via USB")
	}
	if !got.IsCharging() {
		t.Error("IsCharging() = false, want true")
	}
	if p := got.Percent(); p != 76 {
		t.Errorf("Percent() = %d, want 76", p)
	}
}

func TestBatteryReadDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sys/class/power_supply/BAT0/type", "Battery\n")
	writeFile(t, root, "sys/class/power_supply/BAT0/capacity", "250\n")

	got, err := newBatteryReader(newTestDevice(root, nil, nil)).Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Level != -1 {
		t.Errorf("Level = %d, want -1 for out-of-range capacity", got.Level)
	}
	if got.Technology != Unknown {
		t.Errorf("Technology = %q, want %q", got.Technology, Unknown)
	}
	if got.Plug != PlugNone {
		t.Errorf("Plug = %v, want PlugNone", got.Plug)
	}
	if s := got.ChargingStatus(); s != "Not charging" {
		t.Errorf("ChargingStatus() = %q, want %q", s, "Not charging")
	}
}

func TestBatteryReadNoBattery(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sys/class/power_supply/AC/type", "Mains\n")

	_, err := newBatteryReader(newTestDevice(root, nil, nil)).Read()
	if !errors.Is(err, ErrNoBattery) {
		t.Errorf("Read() error = %v, want ErrNoBattery", err)
	}

	_, err = newBatteryReader(newTestDevice(t.TempDir(), nil, nil)).Read()
	if !errors.Is(err, ErrNoBattery) {
		t.Errorf("Read() without power_supply error = %v, want ErrNoBattery", err)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		level, scale, want int
	}{
		{50, 100, 50},
		{128, 255, 50},
		{-1, 100, -1},
		{50, 0, -1},
	}
	for _, tt := range tests {
		if got := Percent(tt.level, tt.scale); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.level, tt.scale, got, tt.want)
		}
	}
}

func TestBatteryLabels(t *testing.T) {
	statuses := map[BatteryStatus]string{
		StatusCharging:    "Charging",
		StatusDischarging: "Discharging",
		StatusFull:        "Full",
		StatusNotCharging: "Not Charging",
		StatusUnknown:     "Unknown",
	}
	for s, want := range statuses {
		if got := s.String(); got != want {
			t.Errorf("BatteryStatus(%d).String() = %q, want %q", s, got, want)
		}
	}

	health := []struct {
		h            BatteryHealth
		short, label string
	}{
		{HealthGood, "Good", "Good"},
		{HealthOverheat, "Overheat", "Overheating"},
		{HealthDead, "Dead", "Dead"},
		{HealthOverVoltage, "Over Voltage", "Over Voltage"},
		{HealthFailure, "Failure", "Unspecified Failure"},
		{HealthCold, "Cold", "Cold"},
		{HealthUnknown, "Unknown", "Unknown"},
	}
	for _, tt := range health {
		if got := tt.h.String(); got != tt.short {
			t.Errorf("String() = %q, want %q", got, tt.short)
		}
		if got := tt.h.Label(); got != tt.label {
			t.Errorf("Label() = %q, want %q", got, tt.label)
		}
	}

	plugs := map[PlugType]string{PlugAC: "AC Adapter", PlugUSB: "USB", PlugWireless: "Wireless", PlugNone: "Battery"}
	for p, want := range plugs {
		if got := p.String(); got != want {
			t.Errorf("PlugType(%d).String() = %q, want %q", p, got, want)
		}
	}
}

func TestParseBatteryHealth(t *testing.T) {
	tests := map[string]BatteryHealth{
		"Good":                HealthGood,
		"Overheat":            HealthOverheat,
		"Over voltage":        HealthOverVoltage,
		"Unspecified failure": HealthFailure,
		"Cold":                HealthCold,
		"Dead":                HealthDead,
		"whatever":            HealthUnknown,
	}
	for in, want := range tests {
		if got := parseBatteryHealth(in); got != want {
			t.Errorf("parseBatteryHealth(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPowerSaveMode(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]string
		out   map[string]string
		want  string
	}{
		{"enabled", map[string]string{}, map[string]string{"settings get global low_power": "1\n"}, "Enabled"},
		{"disabled", map[string]string{}, map[string]string{"settings get global low_power": "0\n"}, "Disabled"},
		{"unset", map[string]string{}, map[string]string{"settings get global low_power": "null\n"}, "Disabled"},
		{"command fails", map[string]string{}, nil, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newTestDevice(t.TempDir(), androidProps(tt.props), tt.out)
			if got := PowerSaveMode(context.Background(), dev); got != tt.want {
				t.Errorf("PowerSaveMode() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := PowerSaveMode(context.Background(), newTestDevice(t.TempDir(), nil, nil)); got != Unknown {
		t.Errorf("PowerSaveMode() on non-Android = %q, want %q", got, Unknown)
	}
}
