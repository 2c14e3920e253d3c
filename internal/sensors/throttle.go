package sensors

import (
	"context"
	"math"
	"time"
)

// DefaultThrottleInterval is how often formatted readings are refreshed.
const DefaultThrottleInterval = 400 * time.Millisecond

// Throttle turns the Sampler's continuous values into periodic updates
// that contain only sensors whose display changed.
type Throttle struct {
	sampler *Sampler
	hashes  map[string]int32
	texts   map[string]string
}

// NewThrottle creates a Throttle over sampler.
func NewThrottle(sampler *Sampler) *Throttle {
	return &Throttle{
		sampler: sampler,
		hashes:  make(map[string]int32),
		texts:   make(map[string]string),
	}
}

// Changed returns the readings whose text or value hash differs from the
// previous call. Sensors without data are skipped.
func (t *Throttle) Changed() []Reading {
	var changed []Reading
	for _, s := range t.sampler.Sensors() {
		values, ok := t.sampler.Latest(s.ID)
		if !ok {
			continue
		}
		text := Format(s.Type, values)
		hash := valueHash(values)
		if prev, seen := t.texts[s.ID]; seen && prev == text && t.hashes[s.ID] == hash {
			continue
		}
		t.texts[s.ID] = text
		t.hashes[s.ID] = hash
		changed = append(changed, Reading{Sensor: s, Values: values, Text: text})
	}
	return changed
}

// Current returns a reading for every sensor, with NoData text for
// sensors that have not reported.
func (t *Throttle) Current() []Reading {
	sensors := t.sampler.Sensors()
	readings := make([]Reading, 0, len(sensors))
	for _, s := range sensors {
		values, _ := t.sampler.Latest(s.ID)
		readings = append(readings, Reading{Sensor: s, Values: values, Text: Format(s.Type, values)})
	}
	return readings
}

// Run calls emit with the changed readings every interval until ctx is
// done. Ticks without changes are not emitted.
func (t *Throttle) Run(ctx context.Context, interval time.Duration, emit func([]Reading)) {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if changed := t.Changed(); len(changed) > 0 {
				emit(changed)
			}
		case <-ctx.Done():
			return
		}
	}
}

// valueHash folds values as acc = 31*acc + round(v*100), starting at 1,
// with 32-bit wraparound.
func valueHash(values []float64) int32 {
	acc := int32(1)
	for _, v := range values {
		acc = 31*acc + int32(math.Floor(v*100+0.5))
	}
	return acc
}
