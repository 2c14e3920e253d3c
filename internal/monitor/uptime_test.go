package monitor

import (
	"testing"
	"time"
)

func TestUptimeRead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proc/uptime", "93784.50 350000.10\n")

	got, err := newUptimeReader(newTestDevice(root, nil, nil)).Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := 93784*time.Second + 500*time.Millisecond
	if got != want {
		t.Errorf("Read() = %v, want %v", got, want)
	}
}

func TestUptimeReadInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":      "",
		"not number": "abc def\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, "proc/uptime", content)
			if _, err := newUptimeReader(newTestDevice(root, nil, nil)).Read(); err == nil {
				t.Error("Read() error = nil, want error")
			}
		})
	}
}

func TestBootTime(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 500, time.UTC)
	got := BootTime(now, 90*time.Minute)
	want := time.Date(2024, 3, 10, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("BootTime() = %v, want %v", got, want)
	}
}
