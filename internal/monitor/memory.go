package monitor

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

const bytesPerKB = 1024

// MemoryInfo holds RAM figures in bytes.
type MemoryInfo struct {
	Total     uint64
	Available uint64
	Used      uint64
}

// UsagePercent returns Used/Total*100, or 0 when Total is unknown.
func (m MemoryInfo) UsagePercent() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Used) / float64(m.Total) * 100
}

type memoryReader struct {
	src             platform.Source
	procMemInfoPath string
}

func newMemoryReader(dev *Device) *memoryReader {
	return &memoryReader{src: dev.Source, procMemInfoPath: "/proc/meminfo"}
}

// Read parses /proc/meminfo. Kernels without MemAvailable fall back to
// MemFree+Buffers+Cached.
func (r *memoryReader) Read() (MemoryInfo, error) {
	data, err := r.src.ReadFile(r.procMemInfoPath)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("reading %s: %w", r.procMemInfoPath, err)
	}

	values := make(map[string]uint64)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		valueStr := strings.TrimSuffix(strings.TrimSpace(rest), " kB")
		value, err := strconv.ParseUint(valueStr, 10, 64)
		if err != nil {
			continue
		}
		if value > ^uint64(0)/bytesPerKB {
			continue
		}
		values[strings.TrimSpace(key)] = value * bytesPerKB
	}
	if err := scanner.Err(); err != nil {
		return MemoryInfo{}, fmt.Errorf("scanning %s: %w", r.procMemInfoPath, err)
	}

	total, ok := values["MemTotal"]
	if !ok || total == 0 {
		return MemoryInfo{}, fmt.Errorf("MemTotal missing from %s", r.procMemInfoPath)
	}
	avail, ok := values["MemAvailable"]
	if !ok {
		avail = values["MemFree"] + values["Buffers"] + values["Cached"]
	}
	if avail > total {
		avail = total
	}

	return MemoryInfo{Total: total, Available: avail, Used: total - avail}, nil
}

// ReadMemory reads the memory counters of dev.
func ReadMemory(dev *Device) (MemoryInfo, error) {
	return newMemoryReader(dev).Read()
}
