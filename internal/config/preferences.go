package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Preference keys.
const (
	KeyTheme           = "theme"
	KeyFloatingOverlay = "floating_overlay"
	KeyBatteryMonitor  = "battery_monitor"
	KeyRefreshInterval = "refresh_interval"
)

// Themes accepted by the theme preference.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

const (
	DefaultRefreshInterval = 1000 * time.Millisecond
	MinRefreshInterval     = 100 * time.Millisecond
)

// PreferenceKeys lists the keys in display order.
var PreferenceKeys = []string{KeyTheme, KeyFloatingOverlay, KeyBatteryMonitor, KeyRefreshInterval}

// ErrUnknownPreference is returned for keys outside PreferenceKeys.
var ErrUnknownPreference = errors.New("unknown preference")

// PreferenceValues are the persisted user preferences.
type PreferenceValues struct {
	Theme           string `yaml:"theme"`
	FloatingOverlay bool   `yaml:"floating_overlay"`
	BatteryMonitor  bool   `yaml:"battery_monitor"`
	// RefreshIntervalMS is the dashboard refresh interval in milliseconds.
	RefreshIntervalMS int `yaml:"refresh_interval"`
}

// DefaultPreferences returns the values used before anything is saved.
func DefaultPreferences() PreferenceValues {
	return PreferenceValues{
		Theme:             ThemeSystem,
		RefreshIntervalMS: int(DefaultRefreshInterval / time.Millisecond),
	}
}

// RefreshInterval returns the refresh interval as a duration.
func (p PreferenceValues) RefreshInterval() time.Duration {
	return time.Duration(p.RefreshIntervalMS) * time.Millisecond
}

// Preferences is a file-backed preference store. It is safe for
// concurrent use.
type Preferences struct {
	path string

	mu     sync.RWMutex
	values PreferenceValues
}

// DefaultPreferencesPath returns $XDG_CONFIG_HOME/devinfo/preferences.yaml,
// falling back to the OS user config directory.
func DefaultPreferencesPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return "", fmt.Errorf("locating config dir: %w", err)
		}
	}
	return filepath.Join(dir, "devinfo", "preferences.yaml"), nil
}

// OpenPreferences loads the preferences at path. A missing file yields
// the defaults; it is created on the first Save.
func OpenPreferences(path string) (*Preferences, error) {
	p := &Preferences{path: path, values: DefaultPreferences()}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Path returns the backing file.
func (p *Preferences) Path() string { return p.path }

// Reload re-reads the file, keeping defaults for absent keys. Invalid
// values are rejected and the previous values kept.
func (p *Preferences) Reload() error {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading preferences: %w", err)
	}

	values := DefaultPreferences()
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing preferences %s: %w", p.path, err)
	}
	if err := values.validate(); err != nil {
		return fmt.Errorf("preferences %s: %w", p.path, err)
	}

	p.mu.Lock()
	p.values = values
	p.mu.Unlock()
	return nil
}

// Values returns a copy of the current preferences.
func (p *Preferences) Values() PreferenceValues {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values
}

// Get returns the value of key formatted as text.
func (p *Preferences) Get(key string) (string, error) {
	v := p.Values()
	switch key {
	case KeyTheme:
		return v.Theme, nil
	case KeyFloatingOverlay:
		return strconv.FormatBool(v.FloatingOverlay), nil
	case KeyBatteryMonitor:
		return strconv.FormatBool(v.BatteryMonitor), nil
	case KeyRefreshInterval:
		return strconv.Itoa(v.RefreshIntervalMS), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreference, key)
	}
}

// Set parses and validates value for key. The change is kept in memory
// until Save.
func (p *Preferences) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.values
	switch key {
	case KeyTheme:
		next.Theme = value
	case KeyFloatingOverlay, KeyBatteryMonitor:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		if key == KeyFloatingOverlay {
			next.FloatingOverlay = b
		} else {
			next.BatteryMonitor = b
		}
	case KeyRefreshInterval:
		ms, err := parseMillis(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		next.RefreshIntervalMS = ms
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPreference, key)
	}

	if err := next.validate(); err != nil {
		return err
	}
	p.values = next
	return nil
}

// Save writes the preferences, creating the directory when needed. The
// file is replaced by rename.
func (p *Preferences) Save() error {
	data, err := yaml.Marshal(p.Values())
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("creating preferences dir: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

func (v PreferenceValues) validate() error {
	switch v.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("%s: must be light, dark or system, got %q", KeyTheme, v.Theme)
	}
	if v.RefreshInterval() < MinRefreshInterval {
		return fmt.Errorf("%s: must be at least %d ms, got %d", KeyRefreshInterval,
			MinRefreshInterval/time.Millisecond, v.RefreshIntervalMS)
	}
	return nil
}

// parseMillis accepts a plain millisecond count or a Go duration.
func parseMillis(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%q is neither milliseconds nor a duration", s)
	}
	return int(d / time.Millisecond), nil
}
