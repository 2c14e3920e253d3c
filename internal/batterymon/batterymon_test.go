package batterymon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/notify"
	"github.com/opd-ai/go-devinfo/internal/platform"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setBattery rewrites the fixture battery and charger.
func setBattery(t *testing.T, root string, capacity, status string, acOnline bool) {
	t.Helper()
	writeFile(t, root, "sys/class/power_supply/BAT0/type", "Battery\n")
	writeFile(t, root, "sys/class/power_supply/BAT0/capacity", capacity+"\n")
	writeFile(t, root, "sys/class/power_supply/BAT0/status", status+"\n")
	writeFile(t, root, "sys/class/power_supply/AC/type", "Mains\n")
	online := "0"
	if acOnline {
		online = "1"
	}
	writeFile(t, root, "sys/class/power_supply/AC/online", online+"\n")
}

type recorder struct {
	mu        sync.Mutex
	posted    []notify.Notification
	withdrawn []string
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posted = append(r.posted, n)
	return nil
}

func (r *recorder) Withdraw(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.withdrawn = append(r.withdrawn, id)
	return nil
}

func (r *recorder) Close() error { return nil }

// titles returns the titles posted since the previous call.
func (r *recorder) titles(from *int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.posted[*from:] {
		out = append(out, n.Title)
	}
	*from = len(r.posted)
	return out
}

func TestServiceAlerts(t *testing.T) {
	root := t.TempDir()
	setBattery(t, root, "50", "Discharging", false)
	dev := &monitor.Device{Source: platform.NewRootedSource(root)}
	rec := &recorder{}
	metrics := devinfo.NewMetrics()

	s, err := New(dev, rec, Config{PollInterval: time.Hour, Metrics: metrics})
	require.NoError(t, err)
	require.Nil(t, s.events, "fixture sources do not listen for uevents")

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	assert.True(t, metrics.Snapshot().MonitorRunning)
	assert.ErrorIs(t, s.Start(ctx), devinfo.ErrAlreadyRunning)

	var cursor int
	assert.Equal(t, []string{"Battery Monitor Active"}, rec.titles(&cursor))
	assert.True(t, rec.posted[0].Ongoing)

	setBattery(t, root, "10", "Discharging", false)
	s.Check(ctx)
	assert.Equal(t, []string{"Low Battery Warning"}, rec.titles(&cursor))
	assert.Equal(t, "Battery level is 10%. Please charge your device.", rec.posted[1].Body)

	s.Check(ctx)
	assert.Empty(t, rec.titles(&cursor), "the same rule does not fire twice")

	setBattery(t, root, "10", "Charging", true)
	s.Check(ctx)
	assert.Equal(t, []string{"Charging Started"}, rec.titles(&cursor))

	setBattery(t, root, "95", "Charging", true)
	s.Check(ctx)
	assert.Equal(t, []string{"Battery Almost Full"}, rec.titles(&cursor))

	setBattery(t, root, "100", "Full", true)
	s.Check(ctx)
	assert.Empty(t, rec.titles(&cursor))

	setBattery(t, root, "100", "Discharging", false)
	s.Check(ctx)
	assert.Equal(t, []string{"Charging Stopped", "Battery Full"}, rec.titles(&cursor))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Equal(t, []string{ongoingID}, rec.withdrawn)
	assert.Equal(t, int64(3), metrics.Snapshot().BatteryAlerts)
	assert.False(t, metrics.Snapshot().MonitorRunning)
	s.Stop()
}

func TestServiceRestartResetsState(t *testing.T) {
	root := t.TempDir()
	setBattery(t, root, "5", "Discharging", false)
	rec := &recorder{}
	s, err := New(&monitor.Device{Source: platform.NewRootedSource(root)}, rec, Config{PollInterval: time.Hour})
	require.NoError(t, err)

	var cursor int
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"Battery Monitor Active", "Low Battery Warning"}, rec.titles(&cursor))
	s.Stop()

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"Battery Monitor Active", "Low Battery Warning"}, rec.titles(&cursor))
	s.Stop()
}

func TestServiceUevents(t *testing.T) {
	root := t.TempDir()
	setBattery(t, root, "50", "Discharging", false)
	rec := &recorder{}
	s, err := New(&monitor.Device{Source: platform.NewRootedSource(root)}, rec, Config{PollInterval: time.Hour})
	require.NoError(t, err)

	events := make(chan struct{}, 1)
	s.events = func(context.Context) (<-chan struct{}, error) { return events, nil }
	require.NoError(t, s.Start(context.Background()))

	setBattery(t, root, "12", "Discharging", false)
	events <- struct{}{}
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.posted) == 2
	}, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestServiceNoBattery(t *testing.T) {
	rec := &recorder{}
	s, err := New(&monitor.Device{Source: platform.NewRootedSource(t.TempDir())}, rec, Config{})
	require.NoError(t, err)
	s.Check(context.Background())
	assert.Empty(t, rec.posted)
}

func TestNewRejectsBadRules(t *testing.T) {
	_, err := New(&monitor.Device{Source: platform.NewRootedSource(t.TempDir())}, &recorder{}, Config{
		Rules: []Rule{{Name: "bad", When: "level >"}},
	})
	assert.Error(t, err)
}

func TestCompileRules(t *testing.T) {
	_, err := CompileRules([]Rule{{When: "true"}})
	assert.Error(t, err, "missing name")

	_, err = CompileRules([]Rule{{Name: "a", When: "true"}, {Name: "a", When: "false"}})
	assert.Error(t, err, "duplicate name")

	rs, err := CompileRules(DefaultRules())
	require.NoError(t, err)

	tests := []struct {
		level    int
		charging bool
		want     string
	}{
		{15, false, "low"},
		{15, true, ""},
		{16, false, ""},
		{90, true, "almost_full"},
		{100, true, "almost_full"},
		{100, false, "full"},
		{89, true, ""},
	}
	for _, tt := range tests {
		rule, err := rs.Match(tt.level, tt.charging)
		require.NoError(t, err)
		got := ""
		if rule != nil {
			got = rule.Name
		}
		assert.Equal(t, tt.want, got, "Match(%d, %v)", tt.level, tt.charging)
	}
}

func TestCustomRules(t *testing.T) {
	rs, err := CompileRules([]Rule{
		{Name: "mid", When: "between(level, 40, 60)", Title: "Half at {level}%"},
		{Name: "number", When: "level + 1"},
	})
	require.NoError(t, err)

	rule, err := rs.Match(50, false)
	require.NoError(t, err)
	require.NotNil(t, rule)
	title, _ := rule.Render(50)
	assert.Equal(t, "Half at 50%", title)

	_, err = rs.Match(10, false)
	assert.Error(t, err, "a non-boolean result is an error")
}

func TestIsPowerSupplyEvent(t *testing.T) {
	assert.True(t, isPowerSupplyEvent([]byte("change@/devices/BAT0\x00ACTION=change\x00SUBSYSTEM=power_supply\x00POWER_SUPPLY_CAPACITY=40\x00")))
	assert.False(t, isPowerSupplyEvent([]byte("change@/devices/backlight\x00ACTION=change\x00SUBSYSTEM=backlight\x00")))
	assert.False(t, isPowerSupplyEvent(nil))
}

func TestCheckLogsReadErrors(t *testing.T) {
	rec := &recorder{}
	s, err := New(&monitor.Device{Source: platform.NewRootedSource(t.TempDir())}, rec, Config{})
	require.NoError(t, err)
	s.read = func() (monitor.BatteryInfo, error) { return monitor.BatteryInfo{}, errors.New("io") }
	s.Check(context.Background())
	assert.Empty(t, rec.posted)
}
