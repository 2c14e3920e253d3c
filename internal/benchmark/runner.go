package benchmark

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opd-ai/go-devinfo/internal/notify"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// TestFileName is created in the work directory by the storage benchmark
// and removed when it ends.
const TestFileName = "benchmark_test.dat"

const (
	cpuIterations  = 101
	cpuInnerLoop   = 1_000_000
	cpuStepDelay   = 50 * time.Millisecond
	gpuIterations  = 101
	gpuFrames      = 1000
	gpuStepDelay   = 30 * time.Millisecond
	storageSteps   = 51
	storageChunk   = 1024 * 1024
	storageDelay   = 20 * time.Millisecond
	notificationID = "benchmark"
)

// Options configures a Runner.
type Options struct {
	// WorkDir holds the storage test file. Defaults to os.TempDir().
	WorkDir string
	// Scale divides the per-step work and delays; 1 runs the full
	// benchmark.
	Scale    int
	Notifier notify.Notifier
	// OnProgress is called after each step from the benchmark goroutine.
	OnProgress func(Progress)
	// History, when set, records every completed run.
	History *History
	Logger  devinfo.Logger
	Metrics *devinfo.Metrics
}

// Runner runs one benchmark at a time.
type Runner struct {
	opts Options

	mu      sync.Mutex
	running bool
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLogNotifier(opts.Logger)
	}
	opts.Logger = devinfo.OrNop(opts.Logger)
	opts.Metrics = devinfo.OrDefault(opts.Metrics)
	return &Runner{opts: opts}
}

// Running reports whether a benchmark is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Run executes the benchmark of kind and blocks until it finishes. It
// returns ErrAlreadyRunning while another run is active and ctx.Err()
// when ctx is cancelled mid-run.
func (r *Runner) Run(ctx context.Context, kind Kind) (Result, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Result{}, err
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return Result{}, fmt.Errorf("%s: %w", kind.Title(), devinfo.ErrAlreadyRunning)
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	r.opts.Metrics.IncrementBenchmarkRuns()
	r.opts.Logger.Info("benchmark started", "kind", string(kind), "scale", r.opts.Scale)

	res := Result{ID: uuid.NewString(), Kind: kind, Started: time.Now()}
	r.progress(ctx, kind, 0, startMessage(kind))

	var err error
	switch kind {
	case KindCPU:
		err = r.runCPU(ctx)
	case KindGPU:
		err = r.runGPU(ctx)
	case KindStorage:
		err = r.runStorage(ctx)
	}
	res.Duration = time.Since(res.Started)
	r.withdraw()

	if err != nil {
		r.opts.Metrics.IncrementBenchmarkFailures()
		r.opts.Logger.Warn("benchmark failed", "kind", string(kind), "error", err)
		if ctx.Err() == nil {
			r.post(context.Background(), notify.New(notify.ChannelBenchmark, kind.Title()+" Failed", "Error: "+err.Error()))
		}
		return Result{}, err
	}

	res.Score = Score(kind, res.Duration)
	r.opts.Logger.Info("benchmark finished", "kind", string(kind), "duration", res.Duration, "score", res.Score)
	r.post(ctx, notify.New(notify.ChannelBenchmark, kind.Title()+" Complete", res.Summary()))

	if r.opts.History != nil {
		if err := r.opts.History.Record(ctx, res); err != nil {
			r.opts.Logger.Warn("recording benchmark result failed", "error", err)
		}
	}
	return res, nil
}

func startMessage(kind Kind) string {
	switch kind {
	case KindCPU:
		return "Running CPU stress test..."
	case KindGPU:
		return "Running GPU rendering test..."
	default:
		return "Testing storage speed..."
	}
}

func (r *Runner) runCPU(ctx context.Context) error {
	n := cpuInnerLoop / r.opts.Scale
	for i := 0; i < cpuIterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := 0.0
		for j := 0; j <= n; j++ {
			result += math.Sqrt(float64(j)) * math.Sin(float64(j))
		}
		r.progress(ctx, KindCPU, i, fmt.Sprintf("Progress: %d%% - Result: %d", i, int(result)))
		if err := r.sleep(ctx, cpuStepDelay); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runGPU(ctx context.Context) error {
	frames := make([]float32, gpuFrames)
	for i := 0; i < gpuIterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for f := range frames {
			frames[f] = rand.Float32() * 255
		}
		slices.Sort(frames)
		r.progress(ctx, KindGPU, i, fmt.Sprintf("Progress: %d%% - Frames processed: %d", i, len(frames)))
		if err := r.sleep(ctx, gpuStepDelay); err != nil {
			return err
		}
	}
	return nil
}

// runStorage overwrites a 1 MiB file repeatedly, then reads it back the
// same number of times.
func (r *Runner) runStorage(ctx context.Context) (err error) {
	path := filepath.Join(r.opts.WorkDir, TestFileName)
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	data := make([]byte, storageChunk/r.opts.Scale)
	for i := 0; i < storageSteps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return err
		}
		r.progress(ctx, KindStorage, i, fmt.Sprintf("Write test: %d%%", i*2))
		if err := r.sleep(ctx, storageDelay); err != nil {
			return err
		}
	}
	for i := 0; i < storageSteps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := os.ReadFile(path); err != nil {
			return err
		}
		r.progress(ctx, KindStorage, 50+i, fmt.Sprintf("Read test: %d%%", i))
		if err := r.sleep(ctx, storageDelay); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d / time.Duration(r.opts.Scale))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) progress(ctx context.Context, kind Kind, percent int, msg string) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(Progress{Kind: kind, Percent: percent, Message: msg})
	}
	r.post(ctx, notify.Notification{
		ID:       notificationID,
		Channel:  notify.ChannelBenchmark,
		Title:    kind.Title(),
		Body:     msg,
		Ongoing:  true,
		Progress: min(percent, 100),
	})
}

func (r *Runner) post(ctx context.Context, n notify.Notification) {
	if err := r.opts.Notifier.Notify(ctx, n); err != nil {
		r.opts.Logger.Debug("benchmark notification failed", "title", n.Title, "error", err)
	}
}

func (r *Runner) withdraw() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.opts.Notifier.Withdraw(ctx, notificationID); err != nil {
		r.opts.Logger.Debug("withdrawing benchmark notification failed", "error", err)
	}
}
