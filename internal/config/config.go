// Package config loads go-devinfo settings.
//
// Application settings come from a YAML or Lua file through viper, with
// DEVINFO_ environment overrides and command-line flag bindings. User
// preferences (theme, overlay, battery monitor, refresh interval) live in
// a separate YAML file edited through Preferences. Watcher reloads either
// file when it changes on disk.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/opd-ai/go-devinfo/internal/batterymon"
	"github.com/opd-ai/go-devinfo/internal/platform"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// EnvPrefix prefixes environment overrides: DEVINFO_LOG_LEVEL sets
// log.level.
const EnvPrefix = "DEVINFO"

// Config is the application configuration.
type Config struct {
	Log          LogConfig       `mapstructure:"log"`
	Remote       RemoteConfig    `mapstructure:"remote"`
	DataPath     string          `mapstructure:"data_path"`
	ExternalPath string          `mapstructure:"external_path"`
	Dashboard    DashboardConfig `mapstructure:"dashboard"`
	Sensors      SensorsConfig   `mapstructure:"sensors"`
	Battery      BatteryConfig   `mapstructure:"battery"`
	Benchmark    BenchmarkConfig `mapstructure:"benchmark"`
	Overlay      OverlayConfig   `mapstructure:"overlay"`
	DebugAddr    string          `mapstructure:"debug_addr"`
}

// LogConfig selects the logger. Format is text, json or zap.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RemoteConfig describes an SSH target. An empty Target reads the local
// host.
type RemoteConfig struct {
	Target     string        `mapstructure:"target"`
	KeyFile    string        `mapstructure:"key_file"`
	Passphrase string        `mapstructure:"passphrase"`
	Password   string        `mapstructure:"password"`
	KnownHosts string        `mapstructure:"known_hosts"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DashboardConfig struct {
	// Interval overrides the refresh_interval preference when non-zero.
	Interval time.Duration `mapstructure:"interval"`
}

type SensorsConfig struct {
	SampleInterval  time.Duration `mapstructure:"sample_interval"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type BatteryConfig struct {
	PollInterval time.Duration     `mapstructure:"poll_interval"`
	Rules        []batterymon.Rule `mapstructure:"rules"`
}

type BenchmarkConfig struct {
	WorkDir   string `mapstructure:"work_dir"`
	HistoryDB string `mapstructure:"history_db"`
	Scale     int    `mapstructure:"scale"`
}

type OverlayConfig struct {
	X int `mapstructure:"x"`
	Y int `mapstructure:"y"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Remote: RemoteConfig{
			Timeout: 5 * time.Second,
		},
		Dashboard: DashboardConfig{},
		Sensors: SensorsConfig{
			SampleInterval:  100 * time.Millisecond,
			RefreshInterval: 400 * time.Millisecond,
		},
		Battery: BatteryConfig{
			PollInterval: 30 * time.Second,
			Rules:        batterymon.DefaultRules(),
		},
		Benchmark: BenchmarkConfig{
			HistoryDB: filepath.Join(dataHome(), "devinfo", "benchmarks.db"),
			Scale:     1,
		},
		Overlay: OverlayConfig{X: 0, Y: 100},
	}
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"remote":        "remote.target",
	"identity":      "remote.key_file",
	"known-hosts":   "remote.known_hosts",
	"data-path":     "data_path",
	"external-path": "external_path",
	"debug-addr":    "debug_addr",
}

// Load reads the configuration. path may be empty, a YAML file or a .lua
// file. Flags present in flags override file and environment values.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	if path != "" {
		if err := readFile(v, path); err != nil {
			return Config{}, err
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := Default()
	if v.IsSet("battery.rules") {
		cfg.Battery.Rules = nil
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("remote.target", "")
	v.SetDefault("remote.key_file", "")
	v.SetDefault("remote.passphrase", "")
	v.SetDefault("remote.password", "")
	v.SetDefault("remote.known_hosts", "")
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("data_path", "")
	v.SetDefault("external_path", "")
	v.SetDefault("dashboard.interval", time.Duration(0))
	v.SetDefault("sensors.sample_interval", d.Sensors.SampleInterval)
	v.SetDefault("sensors.refresh_interval", d.Sensors.RefreshInterval)
	v.SetDefault("battery.poll_interval", d.Battery.PollInterval)
	v.SetDefault("benchmark.work_dir", "")
	v.SetDefault("benchmark.history_db", d.Benchmark.HistoryDB)
	v.SetDefault("benchmark.scale", d.Benchmark.Scale)
	v.SetDefault("overlay.x", d.Overlay.X)
	v.SetDefault("overlay.y", d.Overlay.Y)
	v.SetDefault("debug_addr", "")
	return v
}

func readFile(v *viper.Viper, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".lua") {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		values, err := EvalLua(filepath.Base(path), content)
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		if err := v.MergeConfigMap(values); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// FieldError reports an invalid config value.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks value ranges and compiles the battery rules. All
// problems are reported together.
func (c Config) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		fail("log.level", "unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json", "zap":
	default:
		fail("log.format", "must be text, json or zap, got %q", c.Log.Format)
	}
	if c.Remote.Target != "" {
		if _, _, _, err := platform.ParseTarget(c.Remote.Target); err != nil {
			fail("remote.target", "%v", err)
		}
	}
	if c.Remote.Timeout < 0 {
		fail("remote.timeout", "must not be negative")
	}
	if c.Dashboard.Interval != 0 && c.Dashboard.Interval < MinRefreshInterval {
		fail("dashboard.interval", "must be at least %s", MinRefreshInterval)
	}
	if c.Sensors.SampleInterval < 0 {
		fail("sensors.sample_interval", "must not be negative")
	}
	if c.Sensors.RefreshInterval < 0 {
		fail("sensors.refresh_interval", "must not be negative")
	}
	if c.Battery.PollInterval < 0 {
		fail("battery.poll_interval", "must not be negative")
	}
	if _, err := batterymon.CompileRules(c.Battery.Rules); err != nil {
		fail("battery.rules", "%v", err)
	}
	if c.Benchmark.Scale < 1 {
		fail("benchmark.scale", "must be at least 1")
	}
	return errors.Join(errs...)
}

// PlatformRemote converts the remote settings for platform.NewRemoteSource.
// Authentication prefers the key file, then the password, then the agent.
func (c Config) PlatformRemote(logger devinfo.Logger, metrics *devinfo.Metrics) (platform.RemoteConfig, error) {
	user, host, port, err := platform.ParseTarget(c.Remote.Target)
	if err != nil {
		return platform.RemoteConfig{}, err
	}
	if user == "" {
		user = os.Getenv("USER")
	}

	var auth platform.AuthMethod = platform.AgentAuth{}
	switch {
	case c.Remote.KeyFile != "":
		auth = platform.KeyAuth{PrivateKeyPath: expandHome(c.Remote.KeyFile), Passphrase: c.Remote.Passphrase}
	case c.Remote.Password != "":
		auth = platform.PasswordAuth{Password: c.Remote.Password}
	}

	return platform.RemoteConfig{
		Host:           host,
		Port:           port,
		User:           user,
		AuthMethod:     auth,
		KnownHostsPath: expandHome(c.Remote.KnownHosts),
		CommandTimeout: c.Remote.Timeout,
		Logger:         logger,
		Metrics:        metrics,
	}, nil
}

// Logger builds the logger named by Log.
func (c Config) Logger() (devinfo.Logger, error) {
	level := devinfo.ParseLevel(c.Log.Level)
	switch c.Log.Format {
	case "json":
		return devinfo.JSONLogger(os.Stderr, level), nil
	case "zap":
		zl, err := devinfo.ZapLogger(c.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("building zap logger: %w", err)
		}
		return zl, nil
	default:
		return devinfo.TextLogger(os.Stderr, level), nil
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return os.TempDir()
}
