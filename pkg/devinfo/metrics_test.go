package devinfo

import (
	"expvar"
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.IncrementDashboardUpdates()
	m.IncrementDashboardUpdates()
	m.IncrementUpdateErrors()
	m.IncrementNotificationsSent()
	m.IncrementBatteryAlerts()
	m.IncrementBenchmarkRuns()
	m.RecordRemoteCommand(10 * time.Millisecond)
	m.RecordRemoteCommand(30 * time.Millisecond)
	m.RecordUpdateLatency(4 * time.Millisecond)
	m.SetDashboardRunning(true)

	s := m.Snapshot()
	if s.DashboardUpdates != 2 {
		t.Errorf("DashboardUpdates = %d, want 2", s.DashboardUpdates)
	}
	if s.UpdateErrors != 1 || s.NotificationsSent != 1 || s.BatteryAlerts != 1 || s.BenchmarkRuns != 1 {
		t.Errorf("unexpected counters %+v", s)
	}
	if s.RemoteCommands != 2 {
		t.Errorf("RemoteCommands = %d, want 2", s.RemoteCommands)
	}
	if s.RemoteLatencyAvg != 20*time.Millisecond {
		t.Errorf("RemoteLatencyAvg = %v, want 20ms", s.RemoteLatencyAvg)
	}
	if s.UpdateLatencyAvg != 4*time.Millisecond {
		t.Errorf("UpdateLatencyAvg = %v, want 4ms", s.UpdateLatencyAvg)
	}
	if !s.DashboardRunning || s.MonitorRunning {
		t.Errorf("gauges = %v/%v, want true/false", s.DashboardRunning, s.MonitorRunning)
	}

	m.Reset()
	if got := m.Snapshot(); got != (MetricsSnapshot{}) {
		t.Errorf("after Reset() snapshot = %+v, want zero", got)
	}
}

func TestMetricsRegisterExpvarTwice(t *testing.T) {
	m := NewMetrics()
	m.RegisterExpvar()
	m.RegisterExpvar()

	m.IncrementConfigReloads()
	v := expvar.Get("devinfo_config_reloads_total")
	if v == nil {
		t.Fatal("devinfo_config_reloads_total not published")
	}
	if v.String() != "1" {
		t.Errorf("devinfo_config_reloads_total = %s, want 1", v.String())
	}
}

func TestSafeDivide(t *testing.T) {
	if got := safeDivide(100, 0); got != 0 {
		t.Errorf("safeDivide(100, 0) = %v, want 0", got)
	}
	if got := avgMillis(0, 0); got != 0 {
		t.Errorf("avgMillis(0, 0) = %v, want 0", got)
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) != DefaultMetrics() {
		t.Error("OrDefault(nil) did not return the default metrics")
	}
	m := NewMetrics()
	if OrDefault(m) != m {
		t.Error("OrDefault(m) did not return m")
	}
}
