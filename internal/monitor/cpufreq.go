package monitor

import (
	"fmt"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// cpuFreqReader reads the current scaling frequency of each core.
type cpuFreqReader struct {
	src     platform.Source
	cpuPath string
}

func newCPUFreqReader(dev *Device) *cpuFreqReader {
	return &cpuFreqReader{src: dev.Source, cpuPath: "/sys/devices/system/cpu"}
}

// Frequencies returns scaling_cur_freq in kHz for cores 0..cores-1.
// Offline or unreadable cores report 0.
func (r *cpuFreqReader) Frequencies(cores int) []int64 {
	freqs := make([]int64, cores)
	for i := range freqs {
		path := fmt.Sprintf("%s/cpu%d/cpufreq/scaling_cur_freq", r.cpuPath, i)
		if v, err := platform.ReadInt(r.src, path); err == nil && v > 0 {
			freqs[i] = v
		}
	}
	return freqs
}

// MaxFrequency returns the highest value in freqs, or 0.
func MaxFrequency(freqs []int64) int64 {
	var max int64
	for _, f := range freqs {
		if f > max {
			max = f
		}
	}
	return max
}
