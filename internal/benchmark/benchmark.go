// Package benchmark runs the CPU, GPU and storage micro-benchmarks,
// reports their progress through notifications and keeps a history of
// results.
package benchmark

import (
	"fmt"
	"strings"
	"time"
)

// Kind selects a benchmark.
type Kind string

const (
	KindCPU     Kind = "cpu"
	KindGPU     Kind = "gpu"
	KindStorage Kind = "storage"
)

// Kinds lists every benchmark in display order.
var Kinds = []Kind{KindCPU, KindGPU, KindStorage}

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown benchmark %q (want cpu, gpu or storage)", s)
}

// Title is the notification title, e.g. "CPU Benchmark".
func (k Kind) Title() string {
	switch k {
	case KindCPU:
		return "CPU Benchmark"
	case KindGPU:
		return "GPU Benchmark"
	case KindStorage:
		return "Storage Benchmark"
	default:
		return string(k) + " benchmark"
	}
}

func (k Kind) scoreLabel() string {
	switch k {
	case KindGPU:
		return "FPS Score"
	case KindStorage:
		return "Speed Score"
	default:
		return "Score"
	}
}

// Result is one completed run.
type Result struct {
	ID       string
	Kind     Kind
	Started  time.Time
	Duration time.Duration
	Score    int
}

// Summary renders "Duration: 5230ms - Score: 477".
func (r Result) Summary() string {
	return fmt.Sprintf("Duration: %dms - %s: %d", r.Duration.Milliseconds(), r.Kind.scoreLabel(), r.Score)
}

// Score converts a run duration into the kind's score. Shorter runs score
// higher; each kind has a floor.
func Score(kind Kind, d time.Duration) int {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	switch kind {
	case KindCPU:
		return max(1000-int(ms/10), 100)
	case KindGPU:
		return max(int(60000/ms), 10)
	case KindStorage:
		return max(int(100000/ms), 1)
	default:
		return 0
	}
}

// Progress is reported after every benchmark step.
type Progress struct {
	Kind    Kind
	Percent int
	Message string
}
