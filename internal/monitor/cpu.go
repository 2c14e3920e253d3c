package monitor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// DefaultSampleDelay separates the two /proc/stat reads of a CPU sample.
const DefaultSampleDelay = 360 * time.Millisecond

// cpuTimes stores the aggregate CPU time counters from /proc/stat.
type cpuTimes struct {
	user    uint64
	nice    uint64
	system  uint64
	idle    uint64
	iowait  uint64
	irq     uint64
	softirq uint64
	steal   uint64
}

func (c cpuTimes) total() uint64 {
	return c.busy() + c.idleTime()
}

func (c cpuTimes) busy() uint64 {
	return c.user + c.nice + c.system + c.irq + c.softirq + c.steal
}

func (c cpuTimes) idleTime() uint64 {
	return c.idle + c.iowait
}

// CPUSampler measures CPU utilisation over a short window.
type CPUSampler struct {
	src          platform.Source
	procStatPath string
	cpuPath      string
	delay        time.Duration
}

// NewCPUSampler creates a sampler using DefaultSampleDelay.
func NewCPUSampler(dev *Device) *CPUSampler {
	return &CPUSampler{
		src:          dev.Source,
		procStatPath: "/proc/stat",
		cpuPath:      "/sys/devices/system/cpu",
		delay:        DefaultSampleDelay,
	}
}

// Usage returns the busy percentage between two reads of /proc/stat taken
// delay apart. It returns 0 alongside any error.
func (s *CPUSampler) Usage(ctx context.Context) (float64, error) {
	first, err := s.readTimes()
	if err != nil {
		return 0, err
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	second, err := s.readTimes()
	if err != nil {
		return 0, err
	}
	return calculateUsage(first, second), nil
}

func (s *CPUSampler) readTimes() (cpuTimes, error) {
	data, err := s.src.ReadFile(s.procStatPath)
	if err != nil {
		return cpuTimes{}, fmt.Errorf("reading %s: %w", s.procStatPath, err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "cpu" {
		return cpuTimes{}, fmt.Errorf("no aggregate cpu line in %s", s.procStatPath)
	}
	return parseCPULine(fields[1:])
}

// parseCPULine parses the counters following the "cpu" label.
// Kernels older than 2.6.11 omit steal, which then reads as zero.
func parseCPULine(fields []string) (cpuTimes, error) {
	if len(fields) < 7 {
		return cpuTimes{}, fmt.Errorf("insufficient fields: got %d, need at least 7", len(fields))
	}

	values := make([]uint64, 8)
	for i := 0; i < len(values) && i < len(fields); i++ {
		v, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return cpuTimes{}, fmt.Errorf("parsing field %d: %w", i, err)
		}
		values[i] = v
	}

	return cpuTimes{
		user:    values[0],
		nice:    values[1],
		system:  values[2],
		idle:    values[3],
		iowait:  values[4],
		irq:     values[5],
		softirq: values[6],
		steal:   values[7],
	}, nil
}

// calculateUsage returns (busy2-busy1)/(total2-total1)*100 clamped to
// [0, 100], or 0 when no time elapsed.
func calculateUsage(prev, curr cpuTimes) float64 {
	if curr.total() <= prev.total() {
		return 0
	}
	totalDelta := curr.total() - prev.total()
	if curr.busy() < prev.busy() {
		return 0
	}
	usage := float64(curr.busy()-prev.busy()) / float64(totalDelta) * 100
	if usage > 100 {
		return 100
	}
	return usage
}

// CoreCount returns the number of possible CPUs from
// /sys/devices/system/cpu/present ("0-7"), falling back to the per-core
// lines of /proc/stat.
func (s *CPUSampler) CoreCount() (int, error) {
	if present, err := platform.ReadString(s.src, s.cpuPath+"/present"); err == nil {
		if n, ok := parseCPURange(present); ok {
			return n, nil
		}
	}

	data, err := s.src.ReadFile(s.procStatPath)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", s.procStatPath, err)
	}
	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		label, _, _ := strings.Cut(scanner.Text(), " ")
		if len(label) > 3 && strings.HasPrefix(label, "cpu") {
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("no per-core lines in %s", s.procStatPath)
	}
	return count, nil
}

// parseCPURange counts CPUs in a kernel cpulist such as "0-3,6,8-9".
func parseCPURange(list string) (int, bool) {
	count := 0
	for _, part := range strings.Split(strings.TrimSpace(list), ",") {
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(lo)
		if err != nil {
			return 0, false
		}
		if !isRange {
			count++
			continue
		}
		b, err := strconv.Atoi(hi)
		if err != nil || b < a {
			return 0, false
		}
		count += b - a + 1
	}
	return count, count > 0
}
