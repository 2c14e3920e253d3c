package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestRootedSourceReads(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proc/uptime", "123.45 67.89\n")
	writeFile(t, root, "sys/class/power_supply/battery/capacity", " 87\n")
	writeFile(t, root, "sys/class/power_supply/battery/charge_counter", "3000000\n")
	writeFile(t, root, "sys/class/power_supply/usb/online", "1\n")

	src := NewRootedSource(root)

	s, err := ReadString(src, "/proc/uptime")
	if err != nil {
		t.Fatalf("ReadString() error = %v", err)
	}
	if s != "123.45 67.89" {
		t.Errorf("ReadString() = %q, want %q", s, "123.45 67.89")
	}

	level, err := ReadInt(src, "/sys/class/power_supply/battery/capacity")
	if err != nil || level != 87 {
		t.Errorf("ReadInt() = %d, %v; want 87, nil", level, err)
	}

	counter, err := ReadUint64(src, "/sys/class/power_supply/battery/charge_counter")
	if err != nil || counter != 3000000 {
		t.Errorf("ReadUint64() = %d, %v; want 3000000, nil", counter, err)
	}

	names, err := src.ReadDir("/sys/class/power_supply")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(names) != 2 || names[0] != "battery" || names[1] != "usb" {
		t.Errorf("ReadDir() = %v, want [battery usb]", names)
	}

	if !Exists(src, "/sys/class/power_supply/usb") {
		t.Error("Exists() = false for existing directory")
	}
	if Exists(src, "/sys/class/thermal") {
		t.Error("Exists() = true for missing directory")
	}
}

func TestReadIntInvalid(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "value", "not-a-number")
	if _, err := ReadInt(NewRootedSource(root), "/value"); err == nil {
		t.Error("ReadInt() error = nil for non-numeric content")
	}
	if _, err := ReadUint64(NewRootedSource(root), "/missing"); err == nil {
		t.Error("ReadUint64() error = nil for missing file")
	}
}

func TestRootedSourceRunUnsupported(t *testing.T) {
	src := NewRootedSource(t.TempDir())
	_, err := src.Run(context.Background(), "getprop")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Run() error = %v, want ErrUnsupported", err)
	}
}

func TestLocalStatfs(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "freebsd" {
		t.Skip("statfs not supported on", runtime.GOOS)
	}
	usage, err := NewLocalSource().Statfs(t.TempDir())
	if err != nil {
		t.Fatalf("Statfs() error = %v", err)
	}
	if usage.Total == 0 {
		t.Error("Statfs() Total = 0")
	}
	if usage.Available > usage.Total {
		t.Errorf("Available %d > Total %d", usage.Available, usage.Total)
	}
}

func TestDiskUsageUsed(t *testing.T) {
	tests := []struct {
		usage DiskUsage
		want  uint64
	}{
		{DiskUsage{Total: 100, Available: 40}, 60},
		{DiskUsage{Total: 100, Available: 100}, 0},
		{DiskUsage{Total: 10, Available: 40}, 0},
	}
	for _, tt := range tests {
		if got := tt.usage.Used(); got != tt.want {
			t.Errorf("%+v.Used() = %d, want %d", tt.usage, got, tt.want)
		}
	}
}

func TestParseUname(t *testing.T) {
	u, err := parseUname("Linux 5.10.198-android12-9 aarch64\n")
	if err != nil {
		t.Fatalf("parseUname() error = %v", err)
	}
	if u.Sysname != "Linux" || u.Release != "5.10.198-android12-9" || u.Machine != "aarch64" {
		t.Errorf("parseUname() = %+v", u)
	}
	if _, err := parseUname("Linux"); err == nil {
		t.Error("parseUname() error = nil for short output")
	}
}
