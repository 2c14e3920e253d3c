package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRemoteSourceValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  RemoteConfig
		wantErr string
	}{
		{"missing host", RemoteConfig{User: "shell", AuthMethod: AgentAuth{}}, "host is required"},
		{"missing user", RemoteConfig{Host: "phone", AuthMethod: AgentAuth{}}, "user is required"},
		{"missing auth", RemoteConfig{Host: "phone", User: "shell"}, "authentication method is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRemoteSource(tt.config)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewRemoteSource() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewRemoteSourceDefaults(t *testing.T) {
	src, err := NewRemoteSource(RemoteConfig{Host: "192.168.1.20", User: "shell", AuthMethod: PasswordAuth{Password: "x"}})
	if err != nil {
		t.Fatalf("NewRemoteSource() error = %v", err)
	}
	if src.config.Port != 22 {
		t.Errorf("Port = %d, want 22", src.config.Port)
	}
	if src.cmdTimeout.Seconds() != 5 {
		t.Errorf("cmdTimeout = %v, want 5s", src.cmdTimeout)
	}
	if got := src.Name(); got != "ssh://shell@192.168.1.20:22" {
		t.Errorf("Name() = %q", got)
	}
	if _, err := src.ReadFile("/proc/stat"); err == nil {
		t.Error("ReadFile() error = nil before Connect")
	}
}

func TestBuildSSHConfig(t *testing.T) {
	src, _ := NewRemoteSource(RemoteConfig{Host: "h", User: "u", AuthMethod: PasswordAuth{Password: "pw"}})
	cfg, err := src.buildSSHConfig()
	if err != nil {
		t.Fatalf("buildSSHConfig() error = %v", err)
	}
	if cfg.User != "u" || len(cfg.Auth) != 1 {
		t.Errorf("unexpected config user=%q auth=%d", cfg.User, len(cfg.Auth))
	}

	src, _ = NewRemoteSource(RemoteConfig{Host: "h", User: "u", AuthMethod: KeyAuth{PrivateKeyPath: filepath.Join(t.TempDir(), "missing")}})
	if _, err := src.buildSSHConfig(); err == nil {
		t.Error("buildSSHConfig() error = nil for missing key file")
	}

	badKey := filepath.Join(t.TempDir(), "id_bad")
	if err := os.WriteFile(badKey, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}
	src, _ = NewRemoteSource(RemoteConfig{Host: "h", User: "u", AuthMethod: KeyAuth{PrivateKeyPath: badKey}})
	if _, err := src.buildSSHConfig(); err == nil || !strings.Contains(err.Error(), "parse private key") {
		t.Errorf("buildSSHConfig() error = %v, want parse failure", err)
	}

	t.Setenv("SSH_AUTH_SOCK", "")
	src, _ = NewRemoteSource(RemoteConfig{Host: "h", User: "u", AuthMethod: AgentAuth{}})
	if _, err := src.buildSSHConfig(); err == nil {
		t.Error("buildSSHConfig() error = nil without SSH_AUTH_SOCK")
	}
}

func TestParseStatfsOutput(t *testing.T) {
	usage, err := parseStatfsOutput("4096 1000 400 300\n")
	if err != nil {
		t.Fatalf("parseStatfsOutput() error = %v", err)
	}
	want := DiskUsage{Total: 4096000, Free: 1638400, Available: 1228800}
	if usage != want {
		t.Errorf("parseStatfsOutput() = %+v, want %+v", usage, want)
	}
	for _, bad := range []string{"", "4096 1000", "4096 x 1 1"} {
		if _, err := parseStatfsOutput(bad); err == nil {
			t.Errorf("parseStatfsOutput(%q) error = nil", bad)
		}
	}
}

func TestParseLsOutput(t *testing.T) {
	got := parseLsOutput("thermal_zone1\nthermal_zone0\n\ncooling_device0\n")
	want := []string{"cooling_device0", "thermal_zone0", "thermal_zone1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("parseLsOutput() = %v, want %v", got, want)
	}
}

func TestShellQuote(t *testing.T) {
	tests := map[string]string{
		"/proc/stat":  "/proc/stat",
		"iio:device0": "iio:device0",
		"":            "''",
		"my file":     "'my file'",
		"it's":        `'it'\''s'`,
		"$(reboot)":   "'$(reboot)'",
		"%S %b %f %a": "'%S %b %f %a'",
	}
	for in, want := range tests {
		if got := shellQuote(in); got != want {
			t.Errorf("shellQuote(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in       string
		user     string
		host     string
		port     int
		wantFail bool
	}{
		{in: "shell@10.0.0.5:8022", user: "shell", host: "10.0.0.5", port: 8022},
		{in: "root@phone", user: "root", host: "phone"},
		{in: "phone", host: "phone"},
		{in: "u@h:99999", wantFail: true},
		{in: "", wantFail: true},
		{in: "u@", wantFail: true},
	}
	for _, tt := range tests {
		user, host, port, err := ParseTarget(tt.in)
		if tt.wantFail {
			if err == nil {
				t.Errorf("ParseTarget(%q) error = nil", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTarget(%q) error = %v", tt.in, err)
			continue
		}
		if user != tt.user || host != tt.host || port != tt.port {
			t.Errorf("ParseTarget(%q) = %q, %q, %d", tt.in, user, host, port)
		}
	}
}
