package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/ncruces/zenity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-devinfo/internal/platform"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// recorder is a Notifier that records calls and fails on demand.
type recorder struct {
	err       error
	posted    []Notification
	withdrawn []string
	closed    bool
}

func (r *recorder) Notify(_ context.Context, n Notification) error {
	if r.err != nil {
		return r.err
	}
	r.posted = append(r.posted, n)
	return nil
}

func (r *recorder) Withdraw(_ context.Context, id string) error {
	r.withdrawn = append(r.withdrawn, id)
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestNew(t *testing.T) {
	a := New(ChannelBattery, "Battery Full", "Battery is fully charged.")
	b := New(ChannelBattery, "Battery Full", "Battery is fully charged.")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, NoProgress, a.Progress)
	assert.False(t, a.hasProgress())
}

func TestFallback(t *testing.T) {
	broken := &recorder{err: errors.New("no bus")}
	working := &recorder{}
	spare := &recorder{}
	f := Fallback(broken, working, spare)

	require.NoError(t, f.Notify(context.Background(), Notification{Title: "t", Progress: NoProgress}))
	require.Len(t, working.posted, 1)
	assert.NotEmpty(t, working.posted[0].ID, "Fallback assigns an ID")
	assert.Empty(t, spare.posted)

	require.NoError(t, f.Withdraw(context.Background(), "x"))
	assert.Equal(t, []string{"x"}, spare.withdrawn)

	require.NoError(t, f.Close())
	assert.True(t, broken.closed && working.closed && spare.closed)
}

func TestFallbackAllFail(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	err := Fallback(&recorder{err: first}, &recorder{err: second}).Notify(context.Background(), Notification{Title: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)

	assert.Error(t, Fallback().Notify(context.Background(), Notification{}))
}

func TestWithMetrics(t *testing.T) {
	m := devinfo.NewMetrics()
	ok := WithMetrics(&recorder{}, m)
	bad := WithMetrics(&recorder{err: errors.New("x")}, m)

	require.NoError(t, ok.Notify(context.Background(), Notification{}))
	require.NoError(t, ok.Notify(context.Background(), Notification{}))
	require.Error(t, bad.Notify(context.Background(), Notification{}))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.NotificationsSent)
	assert.Equal(t, int64(1), snap.NotificationErrors)
}

// fakeBus records method calls. Notify answers with replaces_id when it is
// set and with a new id otherwise, like a freedesktop server.
type fakeBus struct {
	dbus.BusObject
	calls  []string
	args   [][]interface{}
	nextID uint32
}

func (f *fakeBus) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	f.calls = append(f.calls, method)
	f.args = append(f.args, args)
	if strings.HasSuffix(method, ".Notify") {
		if replaces, _ := args[1].(uint32); replaces != 0 {
			return &dbus.Call{Body: []interface{}{replaces}}
		}
		f.nextID++
		return &dbus.Call{Body: []interface{}{f.nextID}}
	}
	return &dbus.Call{}
}

func TestDBusNotifier(t *testing.T) {
	bus := &fakeBus{}
	d := newDBusNotifier(nil, bus)
	ctx := context.Background()

	n := Notification{ID: "bench", Channel: ChannelBenchmark, Title: "CPU Benchmark", Body: "Progress: 10%", Ongoing: true, Progress: 10}
	require.NoError(t, d.Notify(ctx, n))

	args := bus.args[0]
	require.Len(t, args, 8)
	assert.Equal(t, "DevInfo", args[0])
	assert.Equal(t, uint32(0), args[1])
	assert.Equal(t, "CPU Benchmark", args[3])
	hints := args[6].(map[string]dbus.Variant)
	assert.Equal(t, "benchmark", hints["category"].Value())
	assert.Equal(t, int32(10), hints["value"].Value())
	assert.Equal(t, int32(0), args[7])

	n.Progress = 50
	require.NoError(t, d.Notify(ctx, n))
	assert.Equal(t, uint32(1), bus.args[1][1], "repost replaces the first server id")

	other := Notification{ID: "alert", Title: "Low", Progress: NoProgress}
	require.NoError(t, d.Notify(ctx, other))
	assert.Equal(t, uint32(0), bus.args[2][1])
	assert.Equal(t, int32(-1), bus.args[2][7])
	_, hasValue := bus.args[2][6].(map[string]dbus.Variant)["value"]
	assert.False(t, hasValue)

	require.NoError(t, d.Withdraw(ctx, "bench"))
	assert.Equal(t, "org.freedesktop.Notifications.CloseNotification", bus.calls[3])
	assert.Equal(t, uint32(1), bus.args[3][0])

	require.NoError(t, d.Withdraw(ctx, "bench"))
	assert.Len(t, bus.calls, 4, "unknown ids are not closed")
	require.NoError(t, d.Close())
}

func TestDBusNotifierForgetsOneShots(t *testing.T) {
	bus := &fakeBus{}
	d := newDBusNotifier(nil, bus)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, d.Notify(ctx, New(ChannelBattery, "Battery Low", "Battery is at 15%")))
	}
	assert.Empty(t, d.ids)

	ongoing := Notification{ID: "status", Title: "Monitoring", Ongoing: true, Progress: NoProgress}
	require.NoError(t, d.Notify(ctx, ongoing))
	require.Len(t, d.ids, 1)

	ongoing.Ongoing = false
	ongoing.Title = "Done"
	require.NoError(t, d.Notify(ctx, ongoing))
	assert.Equal(t, uint32(6), bus.args[6][1], "final post replaces the ongoing one")
	assert.Empty(t, d.ids)

	require.NoError(t, d.Withdraw(ctx, "status"))
	assert.Len(t, bus.calls, 7)
}

type commandRecorder struct {
	platform.Source
	name string
	args []string
}

func (c *commandRecorder) Run(_ context.Context, name string, args ...string) (string, error) {
	c.name, c.args = name, args
	return "", nil
}

func TestAndroidNotifier(t *testing.T) {
	src := &commandRecorder{}
	a := NewAndroidNotifier(src)

	n := Notification{ID: "3f2a-9c/x y", Channel: ChannelBattery, Title: "Charging Started", Body: "Device is now charging", Progress: NoProgress}
	require.NoError(t, a.Notify(context.Background(), n))
	assert.Equal(t, "cmd", src.name)
	assert.Equal(t, []string{
		"notification", "post", "-S", "bigtext", "-t", "Charging Started",
		"devinfo_battery_monitor_3f2a-9cxy", "Device is now charging",
	}, src.args)

	n.Progress = 40
	require.NoError(t, a.Notify(context.Background(), n))
	assert.Equal(t, "Device is now charging (40%)", src.args[len(src.args)-1])
}

func TestZenityNotifier(t *testing.T) {
	var texts []string
	z := &ZenityNotifier{notify: func(text string, _ ...zenity.Option) error {
		texts = append(texts, text)
		return nil
	}}
	ctx := context.Background()

	require.NoError(t, z.Notify(ctx, Notification{Title: "a", Body: "start", Ongoing: true, Progress: 0}))
	require.NoError(t, z.Notify(ctx, Notification{Title: "a", Body: "mid", Ongoing: true, Progress: 40}))
	require.NoError(t, z.Notify(ctx, Notification{Title: "a", Body: "done", Progress: NoProgress}))
	assert.Equal(t, []string{"start", "done"}, texts)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, z.Notify(cancelled, Notification{Progress: NoProgress}), context.Canceled)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogNotifier(devinfo.TextLogger(&buf, slog.LevelInfo))
	require.NoError(t, l.Notify(context.Background(), Notification{ID: "1", Channel: ChannelOverlay, Title: "Floating Overlay Active", Progress: 70}))
	out := buf.String()
	assert.Contains(t, out, `title="Floating Overlay Active"`)
	assert.Contains(t, out, "channel=floating_overlay")
	assert.Contains(t, out, "progress=70")
}

func TestAutoAndroid(t *testing.T) {
	src := &commandRecorder{}
	n := Auto(src, platform.Props{"ro.build.version.sdk": "34"}, nil, devinfo.NewMetrics())
	require.NoError(t, n.Notify(context.Background(), New(ChannelBattery, "t", "b")))
	assert.Equal(t, "cmd", src.name)
}
