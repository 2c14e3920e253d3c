package sensors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/opd-ai/go-devinfo/internal/platform"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestTypeString(t *testing.T) {
	tests := map[Type]string{
		TypeAccelerometer:      "Accelerometer",
		TypeLinearAcceleration: "Linear Acceleration",
		TypeRotationVector:     "Rotation Vector",
		TypeStepCounter:        "Step Counter",
		TypeHeartRate:          "Heart Rate",
		Type(65536):            "Type 65536",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("Type(%d).String() = %q, want %q", int(typ), got, want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		typ    Type
		values []float64
		want   string
	}{
		{TypeAccelerometer, []float64{0.1, 9.81, -0.456}, "X: 0.10, Y: 9.81, Z: -0.46 m/s²"},
		{TypeGyroscope, []float64{0, 0.5, 1}, "X: 0.00, Y: 0.50, Z: 1.00 rad/s"},
		{TypeMagnetometer, []float64{12.3, -4, 40}, "X: 12.30, Y: -4.00, Z: 40.00 µT"},
		{TypeProximity, []float64{5}, "Distance: 5.00 cm"},
		{TypeLight, []float64{123.456}, "Light: 123.46 lx"},
		{TypePressure, []float64{1013.25}, "Pressure: 1013.25 hPa"},
		{TypeTemperature, []float64{21.5}, "Temperature: 21.50 °C"},
		{TypeHumidity, []float64{45}, "Humidity: 45.00%"},
		{TypeRotationVector, []float64{0.1, 0.2, 0.3, 0.9}, "0.10, 0.20, 0.30, 0.90"},
		{TypeLight, nil, "No data"},
		{TypeAccelerometer, []float64{1}, "--"},
	}
	for _, tt := range tests {
		if got := Format(tt.typ, tt.values); got != tt.want {
			t.Errorf("Format(%v, %v) = %q, want %q", tt.typ, tt.values, got, tt.want)
		}
	}
}

func iioFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dev0 := "sys/bus/iio/devices/iio:device0/"
	writeFile(t, root, dev0+"name", "lsm6dsx_accel\n")
	writeFile(t, root, dev0+"in_accel_x_raw", "100\n")
	writeFile(t, root, dev0+"in_accel_y_raw", "-200\n")
	writeFile(t, root, dev0+"in_accel_z_raw", "4000\n")
	writeFile(t, root, dev0+"in_accel_scale", "0.002\n")
	writeFile(t, root, dev0+"in_temp_raw", "2000\n")
	writeFile(t, root, dev0+"in_temp_offset", "500\n")
	writeFile(t, root, dev0+"in_temp_scale", "10\n")
	writeFile(t, root, dev0+"sampling_frequency", "104\n")

	dev1 := "sys/bus/iio/devices/iio:device1/"
	writeFile(t, root, dev1+"name", "als\n")
	writeFile(t, root, dev1+"in_illuminance0_raw", "999\n")
	writeFile(t, root, dev1+"in_illuminance0_input", "321.5\n")

	writeFile(t, root, "sys/bus/iio/devices/trigger0/name", "t\n")
	return root
}

func TestIIOList(t *testing.T) {
	b := NewIIOBackend(platform.NewRootedSource(iioFixture(t)))

	got, err := b.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []Sensor{
		{ID: "iio:device0/accel", Name: "lsm6dsx_accel", Type: TypeAccelerometer},
		{ID: "iio:device0/temp", Name: "lsm6dsx_accel", Type: TypeTemperature},
		{ID: "iio:device1/illuminance", Name: "als", Type: TypeLight},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(Sensor{})); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if n := len(got[0].channels); n != 3 {
		t.Errorf("accel channels = %d, want 3", n)
	}
	if n := len(got[2].channels); n != 1 || !got[2].channels[0].processed {
		t.Errorf("light channels = %+v, want one processed channel", got[2].channels)
	}
}

func TestIIORead(t *testing.T) {
	b := NewIIOBackend(platform.NewRootedSource(iioFixture(t)))
	sensors, err := b.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	got, err := b.Read(context.Background(), sensors)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := map[string][]float64{
		"iio:device0/accel":       {0.2, -0.4, 8},
		"iio:device0/temp":        {25},
		"iio:device1/illuminance": {321.5},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestIIOListMissing(t *testing.T) {
	b := NewIIOBackend(platform.NewRootedSource(t.TempDir()))
	if _, err := b.List(context.Background()); err == nil {
		t.Error("List() error = nil, want error without IIO bus")
	}
}

func TestChannelName(t *testing.T) {
	tests := []struct {
		file      string
		middle    string
		processed bool
		ok        bool
	}{
		{"in_accel_x_raw", "accel_x", false, true},
		{"in_illuminance0_input", "illuminance0", true, true},
		{"in_accel_scale", "", false, false},
		{"out_voltage0_raw", "", false, false},
	}
	for _, tt := range tests {
		middle, processed, ok := channelName(tt.file)
		if middle != tt.middle || processed != tt.processed || ok != tt.ok {
			t.Errorf("channelName(%q) = %q, %v, %v", tt.file, middle, processed, ok)
		}
	}
	if got := typeToken("proximity0"); got != "proximity" {
		t.Errorf("typeToken(proximity0) = %q", got)
	}
	if got := typeToken("anglvel_z"); got != "anglvel" {
		t.Errorf("typeToken(anglvel_z) = %q", got)
	}
}

const sampleSensorService = `Sensor Device:
Total 3 h/w sensors, 3 running 0 disabled clients:
Sensor List:
0x00000001) LSM6DSO Accelerometer     | STMicro         | ver: 15 | type: android.sensor.accelerometer(1) | perm: n/a | flags: 0x00000000
	continuous | minRate=1.00Hz | maxRate=416.00Hz | FIFO (max,reserved) = (10000, 3000) events | non-wakeUp | power: 0.15 mA | resolution: 0.0023956299 | max range: 78.4532
0x00000005) TMD3702 Light             | AMS             | ver: 1 | type: android.sensor.light(5) | perm: n/a | flags: 0x00000002
	on-change | maxDelay=0us | minDelay=0us | no batching | non-wakeUp |
Fusion States:
Recent Sensor events:
LSM6DSO Accelerometer: last 2 events
	 1 (ts=1000.100, wall=10:00:00.100) 0.10, 9.80, 0.02, 
	 2 (ts=1000.200, wall=10:00:00.200) 0.12, 9.81, 0.03, 
TMD3702 Light: last 1 events
	 1 (ts=1000.300, wall=10:00:00.300) 215.00, 

Active sensors:
`

type scriptedSource struct {
	platform.Source
	out string
	err error
}

func (s scriptedSource) Run(context.Context, string, ...string) (string, error) {
	return s.out, s.err
}

func TestAndroidBackend(t *testing.T) {
	src := scriptedSource{Source: platform.NewRootedSource(t.TempDir()), out: sampleSensorService}
	b := NewAndroidBackend(src)

	sensors, err := b.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []Sensor{
		{ID: "0x00000001", Name: "LSM6DSO Accelerometer", Vendor: "STMicro", Version: "15", Type: TypeAccelerometer},
		{ID: "0x00000005", Name: "TMD3702 Light", Vendor: "AMS", Version: "1", Type: TypeLight},
	}
	if diff := cmp.Diff(want, sensors, cmpopts.IgnoreUnexported(Sensor{})); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	values, err := b.Read(context.Background(), sensors)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	wantValues := map[string][]float64{
		"0x00000001": {0.12, 9.81, 0.03},
		"0x00000005": {215},
	}
	if diff := cmp.Diff(wantValues, values); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestAndroidBackendError(t *testing.T) {
	src := scriptedSource{Source: platform.NewRootedSource(t.TempDir()), err: errors.New("no dumpsys")}
	if _, err := NewAndroidBackend(src).List(context.Background()); err == nil {
		t.Error("List() error = nil, want error")
	}
}

func TestNewBackend(t *testing.T) {
	src := platform.NewRootedSource(t.TempDir())
	if _, ok := NewBackend(src, platform.Props{"ro.build.version.sdk": "33"}).(*AndroidBackend); !ok {
		t.Error("NewBackend() on Android did not return AndroidBackend")
	}
	if _, ok := NewBackend(src, nil).(*IIOBackend); !ok {
		t.Error("NewBackend() on Linux did not return IIOBackend")
	}
}

// fakeBackend returns values set by the test.
type fakeBackend struct {
	mu     sync.Mutex
	values map[string][]float64
	reads  int
}

func (f *fakeBackend) List(context.Context) ([]Sensor, error) { return nil, nil }

func (f *fakeBackend) Read(context.Context, []Sensor) (map[string][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	out := make(map[string][]float64, len(f.values))
	for k, v := range f.values {
		out[k] = append([]float64(nil), v...)
	}
	return out, nil
}

func (f *fakeBackend) set(id string, v ...float64) {
	f.mu.Lock()
	f.values[id] = v
	f.mu.Unlock()
}

func TestThrottleChanged(t *testing.T) {
	backend := &fakeBackend{values: map[string][]float64{}}
	sensors := []Sensor{
		{ID: "light", Type: TypeLight},
		{ID: "prox", Type: TypeProximity},
	}
	sampler := NewSampler(backend, sensors, 0, nil)
	th := NewThrottle(sampler)
	ctx := context.Background()

	backend.set("light", 100)
	if err := sampler.Sample(ctx); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	changed := th.Changed()
	if len(changed) != 1 || changed[0].Text != "Light: 100.00 lx" {
		t.Fatalf("Changed() = %+v, want one light reading", changed)
	}

	if err := sampler.Sample(ctx); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if changed := th.Changed(); len(changed) != 0 {
		t.Errorf("Changed() without new values = %+v, want none", changed)
	}

	backend.set("light", 100.001)
	_ = sampler.Sample(ctx)
	if changed := th.Changed(); len(changed) != 0 {
		t.Errorf("Changed() below display precision = %+v, want none", changed)
	}

	backend.set("prox", 5)
	_ = sampler.Sample(ctx)
	changed = th.Changed()
	if len(changed) != 1 || changed[0].Sensor.ID != "prox" {
		t.Errorf("Changed() = %+v, want prox only", changed)
	}

	current := th.Current()
	if len(current) != 2 {
		t.Fatalf("Current() len = %d, want 2", len(current))
	}
}

func TestThrottleCurrentNoData(t *testing.T) {
	sampler := NewSampler(&fakeBackend{values: map[string][]float64{}}, []Sensor{{ID: "a", Type: TypeLight}}, 0, nil)
	got := NewThrottle(sampler).Current()
	if len(got) != 1 || got[0].Text != NoData {
		t.Errorf("Current() = %+v, want No data", got)
	}
}

func TestValueHash(t *testing.T) {
	if got := valueHash(nil); got != 1 {
		t.Errorf("valueHash(nil) = %d, want 1", got)
	}
	// 31*(31*1 + 150) + (-25) = 5586
	if got := valueHash([]float64{1.5, -0.25}); got != 5586 {
		t.Errorf("valueHash() = %d, want 5586", got)
	}
	if valueHash([]float64{1, 2}) == valueHash([]float64{2, 1}) {
		t.Error("valueHash() ignores order")
	}
}

func TestSamplerStartStop(t *testing.T) {
	backend := &fakeBackend{values: map[string][]float64{"a": {1}}}
	sampler := NewSampler(backend, []Sensor{{ID: "a", Type: TypeLight}}, time.Millisecond, nil)

	if err := sampler.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := sampler.Start(context.Background()); !errors.Is(err, devinfo.ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := sampler.Latest("a"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sampler never stored a value")
		}
		time.Sleep(time.Millisecond)
	}
	sampler.Stop()
	sampler.Stop()
}

func TestThrottleRun(t *testing.T) {
	backend := &fakeBackend{values: map[string][]float64{"a": {7}}}
	sampler := NewSampler(backend, []Sensor{{ID: "a", Type: TypeProximity}}, 0, nil)
	if err := sampler.Sample(context.Background()); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan []Reading, 1)
	done := make(chan struct{})
	go func() {
		NewThrottle(sampler).Run(ctx, time.Millisecond, func(r []Reading) {
			select {
			case got <- r:
			default:
			}
		})
		close(done)
	}()

	select {
	case r := <-got:
		if r[0].Text != "Distance: 7.00 cm" {
			t.Errorf("emitted %q", r[0].Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() emitted nothing")
	}
	cancel()
	<-done
}
