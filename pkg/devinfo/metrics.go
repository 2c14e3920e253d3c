package devinfo

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics collects operational counters for go-devinfo and publishes them
// through expvar. All methods are safe for concurrent use.
type Metrics struct {
	dashboardUpdates   atomic.Int64
	updateErrors       atomic.Int64
	notificationsSent  atomic.Int64
	notificationErrors atomic.Int64
	batteryAlerts      atomic.Int64
	benchmarkRuns      atomic.Int64
	benchmarkFailures  atomic.Int64
	remoteCommands     atomic.Int64
	configReloads      atomic.Int64

	updateLatencyNs    atomic.Int64
	updateLatencyCount atomic.Int64
	remoteLatencyNs    atomic.Int64
	remoteLatencyCount atomic.Int64

	dashboardRunning atomic.Int32
	monitorRunning   atomic.Int32

	registered atomic.Bool
}

// NewMetrics creates an empty Metrics. Call RegisterExpvar to publish it.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar publishes the metrics under the devinfo_ prefix.
// Subsequent calls are no-ops.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	publish := func(name string, f func() any) {
		expvar.Publish("devinfo_"+name, expvar.Func(f))
	}

	publish("dashboard_updates_total", func() any { return m.dashboardUpdates.Load() })
	publish("update_errors_total", func() any { return m.updateErrors.Load() })
	publish("notifications_sent_total", func() any { return m.notificationsSent.Load() })
	publish("notification_errors_total", func() any { return m.notificationErrors.Load() })
	publish("battery_alerts_total", func() any { return m.batteryAlerts.Load() })
	publish("benchmark_runs_total", func() any { return m.benchmarkRuns.Load() })
	publish("benchmark_failures_total", func() any { return m.benchmarkFailures.Load() })
	publish("remote_commands_total", func() any { return m.remoteCommands.Load() })
	publish("config_reloads_total", func() any { return m.configReloads.Load() })
	publish("dashboard_running", func() any { return m.dashboardRunning.Load() })
	publish("battery_monitor_running", func() any { return m.monitorRunning.Load() })
	publish("update_latency_avg_ms", func() any {
		return avgMillis(m.updateLatencyNs.Load(), m.updateLatencyCount.Load())
	})
	publish("remote_latency_avg_ms", func() any {
		return avgMillis(m.remoteLatencyNs.Load(), m.remoteLatencyCount.Load())
	})
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	DashboardUpdates   int64
	UpdateErrors       int64
	NotificationsSent  int64
	NotificationErrors int64
	BatteryAlerts      int64
	BenchmarkRuns      int64
	BenchmarkFailures  int64
	RemoteCommands     int64
	ConfigReloads      int64

	DashboardRunning bool
	MonitorRunning   bool

	UpdateLatencyAvg time.Duration
	RemoteLatencyAvg time.Duration
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		DashboardUpdates:   m.dashboardUpdates.Load(),
		UpdateErrors:       m.updateErrors.Load(),
		NotificationsSent:  m.notificationsSent.Load(),
		NotificationErrors: m.notificationErrors.Load(),
		BatteryAlerts:      m.batteryAlerts.Load(),
		BenchmarkRuns:      m.benchmarkRuns.Load(),
		BenchmarkFailures:  m.benchmarkFailures.Load(),
		RemoteCommands:     m.remoteCommands.Load(),
		ConfigReloads:      m.configReloads.Load(),
		DashboardRunning:   m.dashboardRunning.Load() > 0,
		MonitorRunning:     m.monitorRunning.Load() > 0,
		UpdateLatencyAvg:   safeDivide(m.updateLatencyNs.Load(), m.updateLatencyCount.Load()),
		RemoteLatencyAvg:   safeDivide(m.remoteLatencyNs.Load(), m.remoteLatencyCount.Load()),
	}
}

func (m *Metrics) IncrementDashboardUpdates()   { m.dashboardUpdates.Add(1) }
func (m *Metrics) IncrementUpdateErrors()       { m.updateErrors.Add(1) }
func (m *Metrics) IncrementNotificationsSent()  { m.notificationsSent.Add(1) }
func (m *Metrics) IncrementNotificationErrors() { m.notificationErrors.Add(1) }
func (m *Metrics) IncrementBatteryAlerts()      { m.batteryAlerts.Add(1) }
func (m *Metrics) IncrementBenchmarkRuns()      { m.benchmarkRuns.Add(1) }
func (m *Metrics) IncrementBenchmarkFailures()  { m.benchmarkFailures.Add(1) }
func (m *Metrics) IncrementConfigReloads()      { m.configReloads.Add(1) }

// RecordRemoteCommand counts one remote command and its round-trip time.
func (m *Metrics) RecordRemoteCommand(d time.Duration) {
	m.remoteCommands.Add(1)
	m.remoteLatencyNs.Add(d.Nanoseconds())
	m.remoteLatencyCount.Add(1)
}

// RecordUpdateLatency records the duration of one dashboard collection.
func (m *Metrics) RecordUpdateLatency(d time.Duration) {
	m.updateLatencyNs.Add(d.Nanoseconds())
	m.updateLatencyCount.Add(1)
}

// SetDashboardRunning updates the dashboard gauge.
func (m *Metrics) SetDashboardRunning(running bool) {
	m.dashboardRunning.Store(boolGauge(running))
}

// SetMonitorRunning updates the battery monitor gauge.
func (m *Metrics) SetMonitorRunning(running bool) {
	m.monitorRunning.Store(boolGauge(running))
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.dashboardUpdates, &m.updateErrors, &m.notificationsSent,
		&m.notificationErrors, &m.batteryAlerts, &m.benchmarkRuns,
		&m.benchmarkFailures, &m.remoteCommands, &m.configReloads,
		&m.updateLatencyNs, &m.updateLatencyCount,
		&m.remoteLatencyNs, &m.remoteLatencyCount,
	} {
		c.Store(0)
	}
	m.dashboardRunning.Store(0)
	m.monitorRunning.Store(0)
}

func boolGauge(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

func avgMillis(totalNs, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNs) / float64(count) / 1e6
}

var defaultMetrics = NewMetrics()

// DefaultMetrics returns the process-wide Metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}

// OrDefault returns m, or DefaultMetrics when m is nil.
func OrDefault(m *Metrics) *Metrics {
	if m == nil {
		return defaultMetrics
	}
	return m
}
