package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

type uptimeReader struct {
	src            platform.Source
	procUptimePath string
}

func newUptimeReader(dev *Device) *uptimeReader {
	return &uptimeReader{src: dev.Source, procUptimePath: "/proc/uptime"}
}

// Read returns the time since boot from /proc/uptime.
func (r *uptimeReader) Read() (time.Duration, error) {
	data, err := r.src.ReadFile(r.procUptimePath)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", r.procUptimePath, err)
	}

	fields := strings.Fields(string(data))
	if len(fields) < 1 {
		return 0, fmt.Errorf("invalid format in %s", r.procUptimePath)
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing uptime value: %w", err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// BootTime returns now minus uptime, truncated to the second.
func BootTime(now time.Time, uptime time.Duration) time.Time {
	return now.Add(-uptime).Truncate(time.Second)
}
