// Package tui is the tabbed terminal interface of go-devinfo.
//
// Each tab is a Page backed by a bubbles viewport. The Dashboard and
// Sensors tabs refresh on ticks while visible; the other tabs load each
// time they are entered.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/opd-ai/go-devinfo/internal/apps"
	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/sensors"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// Tab identifies a page.
type Tab int

const (
	TabDashboard Tab = iota
	TabSystem
	TabHardware
	TabBattery
	TabNetwork
	TabSensors
	TabApps
	TabCamera
	tabCount
)

var tabTitles = [...]string{"Dashboard", "System", "Hardware", "Battery", "Network", "Sensors", "Apps", "Camera"}

func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return "Unknown"
	}
	return tabTitles[t]
}

// ParseTab accepts a tab title in any case.
func ParseTab(s string) (Tab, bool) {
	for i, title := range tabTitles {
		if strings.EqualFold(title, s) {
			return Tab(i), true
		}
	}
	return 0, false
}

// Options configure a Model.
type Options struct {
	Theme string
	// DashboardInterval defaults to 1s.
	DashboardInterval time.Duration
	// SensorInterval defaults to sensors.DefaultThrottleInterval.
	SensorInterval time.Duration
	// Start is the tab shown first.
	Start  Tab
	Logger devinfo.Logger
	// Preferences delivers changed settings while the UI runs.
	Preferences <-chan Preferences
}

// Preferences are the settings a running Model picks up. Zero fields keep
// the current value.
type Preferences struct {
	Theme             string
	DashboardInterval time.Duration
}

type (
	dashboardTickMsg struct{}
	sensorsTickMsg   struct{}

	snapshotMsg struct {
		snap monitor.Snapshot
	}
	sectionsMsg struct {
		tab      Tab
		sections []Section
	}
	sensorsMsg struct {
		readings []sensors.Reading
		reset    bool
	}
	appsMsg struct {
		apps []apps.AppInfo
		err  error
	}
	appDetailsMsg struct {
		app apps.AppInfo
	}
	preferencesMsg struct {
		prefs Preferences
	}
)

// Model is the root bubbletea model.
type Model struct {
	ctx      context.Context
	provider Provider
	styles   Styles
	keys     keyMap
	logger   devinfo.Logger

	dashInterval   time.Duration
	sensorInterval time.Duration
	prefs          <-chan Preferences

	active  Tab
	info    map[Tab]*InfoPage
	sensors *SensorsPage
	apps    *AppsPage

	width, height int
	fetching      bool
}

// New creates the root model. ctx bounds every provider call.
func New(ctx context.Context, provider Provider, opts Options) *Model {
	styles := NewStyles(ThemeFor(opts.Theme))
	if opts.DashboardInterval <= 0 {
		opts.DashboardInterval = time.Second
	}
	if opts.SensorInterval <= 0 {
		opts.SensorInterval = sensors.DefaultThrottleInterval
	}
	m := &Model{
		ctx:            ctx,
		provider:       provider,
		styles:         styles,
		keys:           defaultKeyMap(),
		logger:         devinfo.OrNop(opts.Logger),
		dashInterval:   opts.DashboardInterval,
		sensorInterval: opts.SensorInterval,
		prefs:          opts.Preferences,
		active:         opts.Start,
		info:           make(map[Tab]*InfoPage),
		sensors:        NewSensorsPage(styles),
		apps:           NewAppsPage(styles),
		width:          80,
		height:         24,
	}
	for _, t := range []Tab{TabDashboard, TabSystem, TabHardware, TabBattery, TabNetwork, TabCamera} {
		m.info[t] = NewInfoPage(styles)
	}
	return m
}

// Active returns the visible tab.
func (m *Model) Active() Tab { return m.active }

func (m *Model) page(t Tab) Page {
	switch t {
	case TabSensors:
		return m.sensors
	case TabApps:
		return m.apps
	default:
		return m.info[t]
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.enter(m.active),
		m.dashboardTick(),
		m.sensorsTick(),
		m.waitPreferences(),
	)
}

// ApplyPreferences restyles every page and sets the dashboard interval
// used from the next tick on.
func (m *Model) ApplyPreferences(p Preferences) {
	if p.DashboardInterval > 0 {
		m.dashInterval = p.DashboardInterval
	}
	if p.Theme != "" {
		m.styles = NewStyles(ThemeFor(p.Theme))
		for t := Tab(0); t < tabCount; t++ {
			m.page(t).SetStyles(m.styles)
		}
	}
	m.logger.Debug("preferences applied", "theme", m.styles.Theme.Name, "dashboard_interval", m.dashInterval)
}

func (m *Model) waitPreferences() tea.Cmd {
	if m.prefs == nil {
		return nil
	}
	ctx, ch := m.ctx, m.prefs
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-ch:
			if !ok {
				return nil
			}
			return preferencesMsg{prefs: p}
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		for t := Tab(0); t < tabCount; t++ {
			m.page(t).SetSize(m.width, m.contentHeight())
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case dashboardTickMsg:
		cmds := []tea.Cmd{m.dashboardTick()}
		if m.active == TabDashboard && !m.fetching {
			cmds = append(cmds, m.fetchSnapshot())
		}
		return m, tea.Batch(cmds...)

	case sensorsTickMsg:
		cmds := []tea.Cmd{m.sensorsTick()}
		if m.active == TabSensors {
			cmds = append(cmds, m.fetchSensors(false))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.fetching = false
		m.info[TabDashboard].UpdateContent(dashboardSections(msg.snap))
		return m, nil

	case sectionsMsg:
		m.info[msg.tab].UpdateContent(msg.sections)
		return m, nil

	case sensorsMsg:
		if msg.reset {
			m.sensors.Reset(msg.readings)
		} else {
			m.sensors.Merge(msg.readings)
		}
		return m, nil

	case appsMsg:
		if msg.err != nil {
			m.logger.Warn("listing apps failed", "error", msg.err)
		}
		m.apps.SetApps(msg.apps, msg.err)
		return m, nil

	case appDetailsRequest:
		return m, m.fetchAppDetails(msg.app)

	case appDetailsMsg:
		m.apps.ShowDetails(msg.app)
		return m, nil

	case preferencesMsg:
		m.ApplyPreferences(msg.prefs)
		return m, m.waitPreferences()
	}

	return m, m.page(m.active).Update(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if m.active == TabApps && m.apps.Searching() {
		return m.apps.Update(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		return m.SwitchTab((m.active + 1) % tabCount)
	case key.Matches(msg, m.keys.PrevTab):
		return m.SwitchTab((m.active + tabCount - 1) % tabCount)
	}
	return m.page(m.active).Update(msg)
}

// SwitchTab shows tab t and returns the command that loads it.
func (m *Model) SwitchTab(t Tab) tea.Cmd {
	m.active = t
	return m.enter(t)
}

func (m *Model) enter(t Tab) tea.Cmd {
	ctx := m.ctx
	p := m.provider
	switch t {
	case TabDashboard:
		if m.fetching {
			return nil
		}
		return m.fetchSnapshot()
	case TabSystem:
		return func() tea.Msg {
			return sectionsMsg{tab: t, sections: systemSections(p.System(ctx))}
		}
	case TabHardware:
		return func() tea.Msg {
			return sectionsMsg{tab: t, sections: hardwareSections(p.Hardware(ctx))}
		}
	case TabBattery:
		return func() tea.Msg {
			v, err := p.Battery(ctx)
			return sectionsMsg{tab: t, sections: batterySections(v, err)}
		}
	case TabNetwork:
		return func() tea.Msg {
			d, err := p.Network(ctx)
			return sectionsMsg{tab: t, sections: networkSections(d, err)}
		}
	case TabCamera:
		return func() tea.Msg {
			info, err := p.Camera(ctx)
			return sectionsMsg{tab: t, sections: cameraSections(info, err)}
		}
	case TabSensors:
		return m.fetchSensors(true)
	case TabApps:
		return func() tea.Msg {
			list, err := p.Apps(ctx)
			return appsMsg{apps: list, err: err}
		}
	}
	return nil
}

func (m *Model) fetchSnapshot() tea.Cmd {
	m.fetching = true
	ctx, p, logger := m.ctx, m.provider, m.logger
	return func() tea.Msg {
		snap, err := p.Snapshot(ctx)
		if err != nil {
			logger.Debug("dashboard update incomplete", "error", err)
		}
		return snapshotMsg{snap: snap}
	}
}

func (m *Model) fetchSensors(reset bool) tea.Cmd {
	p := m.provider
	return func() tea.Msg {
		if reset {
			return sensorsMsg{readings: p.SensorReadings(), reset: true}
		}
		return sensorsMsg{readings: p.SensorChanges()}
	}
}

func (m *Model) fetchAppDetails(app apps.AppInfo) tea.Cmd {
	ctx, p, logger := m.ctx, m.provider, m.logger
	return func() tea.Msg {
		full, err := p.AppDetails(ctx, app)
		if err != nil {
			logger.Debug("app details incomplete", "package", app.PackageName, "error", err)
		}
		return appDetailsMsg{app: full}
	}
}

func (m *Model) dashboardTick() tea.Cmd {
	return tea.Tick(m.dashInterval, func(time.Time) tea.Msg { return dashboardTickMsg{} })
}

func (m *Model) sensorsTick() tea.Cmd {
	return tea.Tick(m.sensorInterval, func(time.Time) tea.Msg { return sensorsTickMsg{} })
}

// contentHeight leaves room for the tab bar and the footer.
func (m *Model) contentHeight() int {
	return max(m.height-3, 1)
}

func (m *Model) tabBar() string {
	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		if t == m.active {
			tabs = append(tabs, m.styles.ActiveTab.Render(t.String()))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(t.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) footer() string {
	return m.styles.Footer.Render("tab/shift+tab switch  ↑/↓ scroll  q quit")
}

func (m *Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.tabBar(),
		m.styles.TabGap.Render(strings.Repeat("─", max(m.width, 1))),
		m.page(m.active).View(),
		m.footer(),
	)
}

// Run starts the UI in the alternate screen and blocks until the user
// quits or ctx is done.
func Run(ctx context.Context, provider Provider, opts Options) error {
	m := New(ctx, provider, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
