// Package batterymon watches the battery in the background and posts
// alerts when configurable level rules match or external power changes.
package batterymon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/notify"
	"github.com/opd-ai/go-devinfo/internal/platform"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// DefaultPollInterval is the polling period used alongside uevents.
const DefaultPollInterval = 30 * time.Second

const ongoingID = "battery-monitor"

// Config configures a Service. Zero values select the defaults.
type Config struct {
	PollInterval time.Duration
	Rules        []Rule
	Logger       devinfo.Logger
	Metrics      *devinfo.Metrics
}

// Service is the battery monitor. It is started once and stopped once;
// a stopped Service may be started again.
type Service struct {
	notifier notify.Notifier
	rules    *RuleSet
	interval time.Duration
	logger   devinfo.Logger
	metrics  *devinfo.Metrics

	read   func() (monitor.BatteryInfo, error)
	events func(ctx context.Context) (<-chan struct{}, error)

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	seen     bool
	online   bool
	lastRule string
}

// New creates a Service for dev. Rules default to DefaultRules and must
// compile.
func New(dev *monitor.Device, notifier notify.Notifier, cfg Config) (*Service, error) {
	rules := cfg.Rules
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	rs, err := CompileRules(rules)
	if err != nil {
		return nil, fmt.Errorf("battery rules: %w", err)
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	s := &Service{
		notifier: notifier,
		rules:    rs,
		interval: interval,
		logger:   devinfo.OrNop(cfg.Logger),
		metrics:  devinfo.OrDefault(cfg.Metrics),
		read:     func() (monitor.BatteryInfo, error) { return monitor.ReadBattery(dev) },
	}
	// Kernel uevents only describe the local machine.
	if platform.IsLocalHost(dev.Source) {
		s.events = watchUevents
	}
	return s, nil
}

// Start posts the ongoing notification, checks the battery once and then
// keeps checking on every power_supply uevent and poll tick until Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("battery monitor: %w", devinfo.ErrAlreadyRunning)
	}
	s.running = true
	s.seen = false
	s.lastRule = ""
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.post(ctx, notify.Notification{
		ID:       ongoingID,
		Channel:  notify.ChannelBattery,
		Title:    "Battery Monitor Active",
		Body:     "Monitoring battery status",
		Ongoing:  true,
		Progress: notify.NoProgress,
	})
	s.metrics.SetMonitorRunning(true)
	s.logger.Info("battery monitor started", "poll_interval", s.interval)

	var events <-chan struct{}
	if s.events != nil {
		ch, err := s.events(ctx)
		if err != nil {
			s.logger.Warn("battery uevents unavailable, polling only", "error", err)
		} else {
			events = ch
		}
	}

	s.Check(ctx)
	go s.loop(ctx, events)
	return nil
}

func (s *Service) loop(ctx context.Context, events <-chan struct{}) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.Check(ctx)
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Stop ends monitoring, waits for the loop and withdraws the ongoing
// notification.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	ctx, cancelWithdraw := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelWithdraw()
	if err := s.notifier.Withdraw(ctx, ongoingID); err != nil {
		s.logger.Warn("withdrawing battery notification failed", "error", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.metrics.SetMonitorRunning(false)
	s.logger.Info("battery monitor stopped")
}

// IsRunning reports whether the service is started.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Check reads the battery once and posts power-change and rule alerts.
// The first reading after Start only records the power state. A rule
// alert fires when the matching rule differs from the previous match.
func (s *Service) Check(ctx context.Context) {
	info, err := s.read()
	if err != nil {
		if errors.Is(err, monitor.ErrNoBattery) {
			s.logger.Debug("no battery present")
		} else {
			s.logger.Warn("reading battery failed", "error", err)
		}
		return
	}

	s.mu.Lock()
	online := info.Plug != monitor.PlugNone
	powerChanged := s.seen && online != s.online
	s.seen = true
	s.online = online
	s.mu.Unlock()

	if powerChanged {
		if online {
			s.post(ctx, notify.New(notify.ChannelBattery, "Charging Started", "Device is now charging"))
		} else {
			s.post(ctx, notify.New(notify.ChannelBattery, "Charging Stopped", "Device disconnected from charger"))
		}
	}

	level := info.Percent()
	if level < 0 {
		return
	}
	rule, err := s.rules.Match(level, info.IsCharging())
	if err != nil {
		s.logger.Warn("evaluating battery rules failed", "error", err)
		return
	}

	name := ""
	if rule != nil {
		name = rule.Name
	}
	s.mu.Lock()
	fire := rule != nil && name != s.lastRule
	s.lastRule = name
	s.mu.Unlock()

	if fire {
		title, body := rule.Render(level)
		s.logger.Info("battery alert", "rule", name, "level", level, "charging", info.IsCharging())
		s.metrics.IncrementBatteryAlerts()
		s.post(ctx, notify.New(notify.ChannelBattery, title, body))
	}
}

func (s *Service) post(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("battery notification failed", "title", n.Title, "error", err)
	}
}
