package tui

import (
	"context"
	"sync"
	"time"

	"github.com/opd-ai/go-devinfo/internal/apps"
	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/sensors"
)

// Provider supplies the data behind each tab. Methods are called from
// command goroutines.
type Provider interface {
	Snapshot(ctx context.Context) (monitor.Snapshot, error)
	System(ctx context.Context) monitor.SystemInfo
	Hardware(ctx context.Context) monitor.HardwareInfo
	Battery(ctx context.Context) (BatteryView, error)
	Network(ctx context.Context) (monitor.NetworkDetails, error)
	Camera(ctx context.Context) (monitor.CameraInfo, error)
	// SensorReadings returns every sensor; SensorChanges only those whose
	// display changed since the previous call to either.
	SensorReadings() []sensors.Reading
	SensorChanges() []sensors.Reading
	Apps(ctx context.Context) ([]apps.AppInfo, error)
	AppDetails(ctx context.Context, app apps.AppInfo) (apps.AppInfo, error)
}

// DeviceProvider reads a monitor.Device.
type DeviceProvider struct {
	dev       *monitor.Device
	dashboard *monitor.Dashboard
	system    *monitor.SystemReader
	hardware  *monitor.HardwareReader
	network   *monitor.NetworkReader
	camera    *monitor.CameraReader
	lister    apps.Lister
	now       func() time.Time

	sensorMu sync.Mutex
	throttle *sensors.Throttle
}

// DeviceProviderConfig configures NewDeviceProvider. Throttle and Lister
// may be nil; the tabs then show no sensors or apps.
type DeviceProviderConfig struct {
	Dashboard monitor.DashboardConfig
	Throttle  *sensors.Throttle
	Lister    apps.Lister
}

func NewDeviceProvider(dev *monitor.Device, cfg DeviceProviderConfig) *DeviceProvider {
	return &DeviceProvider{
		dev:       dev,
		dashboard: monitor.NewDashboard(dev, cfg.Dashboard),
		system:    monitor.NewSystemReader(dev),
		hardware:  monitor.NewHardwareReader(dev, cfg.Dashboard.DataPath, cfg.Dashboard.ExternalPath),
		network:   monitor.NewNetworkReader(dev, cfg.Dashboard.Links),
		camera:    monitor.NewCameraReader(dev),
		lister:    cfg.Lister,
		throttle:  cfg.Throttle,
		now:       time.Now,
	}
}

// Interval is the dashboard refresh interval.
func (p *DeviceProvider) Interval() time.Duration {
	return p.dashboard.Interval()
}

func (p *DeviceProvider) Snapshot(ctx context.Context) (monitor.Snapshot, error) {
	return p.dashboard.Update(ctx)
}

func (p *DeviceProvider) System(context.Context) monitor.SystemInfo {
	return p.system.Read()
}

func (p *DeviceProvider) Hardware(ctx context.Context) monitor.HardwareInfo {
	return p.hardware.Read(ctx)
}

func (p *DeviceProvider) Battery(ctx context.Context) (BatteryView, error) {
	info, err := monitor.ReadBattery(p.dev)
	if err != nil {
		return BatteryView{}, err
	}
	return BatteryView{
		Info:      info,
		PowerSave: monitor.PowerSaveMode(ctx, p.dev),
		Updated:   p.now(),
	}, nil
}

func (p *DeviceProvider) Network(ctx context.Context) (monitor.NetworkDetails, error) {
	return p.network.Details(ctx)
}

func (p *DeviceProvider) Camera(ctx context.Context) (monitor.CameraInfo, error) {
	return p.camera.Read(ctx)
}

func (p *DeviceProvider) SensorReadings() []sensors.Reading {
	if p.throttle == nil {
		return nil
	}
	p.sensorMu.Lock()
	defer p.sensorMu.Unlock()
	p.throttle.Changed()
	return p.throttle.Current()
}

func (p *DeviceProvider) SensorChanges() []sensors.Reading {
	if p.throttle == nil {
		return nil
	}
	p.sensorMu.Lock()
	defer p.sensorMu.Unlock()
	return p.throttle.Changed()
}

func (p *DeviceProvider) Apps(ctx context.Context) ([]apps.AppInfo, error) {
	if p.lister == nil {
		return nil, nil
	}
	return p.lister.List(ctx)
}

func (p *DeviceProvider) AppDetails(ctx context.Context, app apps.AppInfo) (apps.AppInfo, error) {
	if p.lister == nil {
		return app, nil
	}
	return p.lister.Details(ctx, app)
}
