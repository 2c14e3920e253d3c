package monitor

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/opd-ai/go-devinfo/internal/platform"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func dashboardFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "proc/stat", "cpu  100 0 100 800 0 0 0 0\ncpu0 100 0 100 800 0 0 0 0\n")
	writeFile(t, root, "proc/meminfo", "MemTotal: 2097152 kB\nMemAvailable: 1048576 kB\n")
	writeFile(t, root, "proc/uptime", "90061.00 0.00\n")
	writeFile(t, root, "sys/devices/system/cpu/present", "0\n")
	writeFile(t, root, "sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq", "2000000\n")
	writeFile(t, root, "sys/class/thermal/thermal_zone0/temp", "41000\n")
	writeFile(t, root, "sys/class/power_supply/battery/type", "Battery\n")
	writeFile(t, root, "sys/class/power_supply/battery/capacity", "88\n")
	writeFile(t, root, "sys/class/power_supply/battery/voltage_now", "3900000\n")
	writeFile(t, root, "sys/class/power_supply/battery/temp", "295\n")
	writeFile(t, root, "sys/class/net/eth0/operstate", "up\n")
	return root
}

func newTestDashboard(t *testing.T, root string, interval time.Duration) *Dashboard {
	t.Helper()
	d := NewDashboard(newTestDevice(root, nil, nil), DashboardConfig{
		Interval: interval,
		Metrics:  devinfo.NewMetrics(),
	})
	d.cpu.delay = time.Millisecond
	d.network.interfaces = staticInterfaces(platform.Interface{Name: "eth0", IPv4: "10.0.0.5"})
	return d
}

func TestDashboardUpdate(t *testing.T) {
	d := newTestDashboard(t, dashboardFixture(t), time.Hour)

	snap, err := d.Update(context.Background())
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	checks := map[string][2]string{
		"CPUText":           {snap.CPUText(), "0%"},
		"FrequencyText":     {snap.FrequencyText(), "2 GHz"},
		"TemperatureText":   {snap.TemperatureText(), "41°C"},
		"MemoryText":        {snap.MemoryText(), "1 GB / 2 GB"},
		"MemoryPercentText": {snap.MemoryPercentText(), "50%"},
		"BatteryLevelText":  {snap.BatteryLevelText(), "88%"},
		"BatteryDetailText": {snap.BatteryDetailText(), "29.5°C • 3900mV"},
		"UptimeText":        {snap.UptimeText(), "1d 1h 1m"},
		"Network.Text":      {snap.Network.Text(), "Ethernet Connected"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
	if d.Snapshot().Time != snap.Time {
		t.Error("Snapshot() does not return the latest update")
	}
	if got := d.metrics.Snapshot().DashboardUpdates; got != 1 {
		t.Errorf("DashboardUpdates = %d, want 1", got)
	}
}

func TestDashboardUpdatePartialFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proc/meminfo", "MemTotal: 1024 kB\nMemAvailable: 512 kB\n")

	d := newTestDashboard(t, root, time.Hour)
	snap, err := d.Update(context.Background())
	if err == nil {
		t.Fatal("Update() error = nil, want UpdateError")
	}
	ue := AsUpdateError(err)
	if ue == nil {
		t.Fatalf("Update() error = %T, want *UpdateError", err)
	}
	for _, src := range []ErrorSource{ErrorSourceCPU, ErrorSourceUptime} {
		if !ue.HasSource(src) {
			t.Errorf("UpdateError lacks source %q: %v", src, ue)
		}
	}
	if ue.HasSource(ErrorSourceMemory) || ue.HasSource(ErrorSourceBattery) {
		t.Errorf("UpdateError has unexpected sources: %v", ue)
	}
	if snap.Memory.Total != 1024*1024 {
		t.Errorf("Memory.Total = %d, want %d", snap.Memory.Total, 1024*1024)
	}
	if snap.HasBattery || snap.BatteryLevelText() != NotApplicable {
		t.Errorf("battery = %v, %q, want absent", snap.HasBattery, snap.BatteryLevelText())
	}
	if snap.Err != ue {
		t.Error("Snapshot.Err does not match the returned error")
	}
}

func TestDashboardStartStop(t *testing.T) {
	d := newTestDashboard(t, dashboardFixture(t), 10*time.Millisecond)
	ch := d.Subscribe()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := d.Start(context.Background()); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("second Start() error = %v, want already running", err)
	}
	if !d.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	select {
	case snap := <-ch:
		if snap.Memory.Total == 0 {
			t.Error("received snapshot without memory data")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
	}

	d.Stop()
	if d.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	for range ch {
	}
	d.Stop()
}

func TestDashboardSlowSubscriberDoesNotBlock(t *testing.T) {
	d := newTestDashboard(t, dashboardFixture(t), time.Millisecond)
	_ = d.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() blocked on an unread subscriber")
	}
}

func TestDashboardDefaultInterval(t *testing.T) {
	d := NewDashboard(newTestDevice(t.TempDir(), nil, nil), DashboardConfig{})
	if d.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", d.Interval(), DefaultInterval)
	}
}
