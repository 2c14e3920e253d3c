package sensors

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

var (
	// 0x00000001) LSM6DSO Accelerometer | STMicro | ver: 15 | type: android.sensor.accelerometer(1) | ...
	sensorLineRe = regexp.MustCompile(`^(0x[0-9a-fA-F]+)\)\s*(.+?)\s*\|\s*(.*?)\s*\|\s*ver:\s*(\d+)\s*\|\s*type:\s*[^(|]*\((\d+)\)(.*)$`)
	// LSM6DSO Accelerometer: last 10 events
	eventHeaderRe = regexp.MustCompile(`^(.+?): last \d+ events`)
	powerRe       = regexp.MustCompile(`power[:=]\s*([0-9.]+)\s*mA`)
	resolutionRe  = regexp.MustCompile(`resolution[:=]\s*([0-9.eE+-]+)`)
	maxRangeRe    = regexp.MustCompile(`max(?:imum)?[ _]?range[:=]\s*([0-9.eE+-]+)`)
)

// AndroidBackend reads sensors from `dumpsys sensorservice`. Values come
// from the service's recent event log, so only sensors some client has
// enabled report data.
type AndroidBackend struct {
	src platform.Source
}

// NewAndroidBackend creates an AndroidBackend.
func NewAndroidBackend(src platform.Source) *AndroidBackend {
	return &AndroidBackend{src: src}
}

func (b *AndroidBackend) dump(ctx context.Context) (string, error) {
	out, err := b.src.Run(ctx, "dumpsys", "sensorservice")
	if err != nil {
		return "", fmt.Errorf("querying sensor service: %w", err)
	}
	return out, nil
}

// List parses the sensor list section.
func (b *AndroidBackend) List(ctx context.Context) ([]Sensor, error) {
	out, err := b.dump(ctx)
	if err != nil {
		return nil, err
	}
	return parseSensorList(out), nil
}

// Read parses the most recent event of every listed sensor.
func (b *AndroidBackend) Read(ctx context.Context, sensors []Sensor) (map[string][]float64, error) {
	out, err := b.dump(ctx)
	if err != nil {
		return nil, err
	}
	byName := parseRecentEvents(out)
	values := make(map[string][]float64, len(sensors))
	for _, s := range sensors {
		if v, ok := byName[s.Name]; ok {
			values[s.ID] = v
		}
	}
	return values, nil
}

func parseSensorList(out string) []Sensor {
	var sensors []Sensor
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := sensorLineRe.FindStringSubmatch(line)
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		typ, _ := strconv.Atoi(m[5])
		s := Sensor{
			ID:      m[1],
			Name:    m[2],
			Vendor:  m[3],
			Version: m[4],
			Type:    Type(typ),
		}
		if pm := powerRe.FindStringSubmatch(m[6]); pm != nil {
			s.Power = pm[1] + " mA"
		}
		if rm := resolutionRe.FindStringSubmatch(m[6]); rm != nil {
			s.Resolution = rm[1]
		}
		if mm := maxRangeRe.FindStringSubmatch(m[6]); mm != nil {
			s.MaxRange = mm[1]
		}
		sensors = append(sensors, s)
	}
	return sensors
}

// parseRecentEvents returns the last logged event per sensor name. Event
// lines look like " 3 (ts=1234.56, wall=10:00:00.123) 0.12, 9.81, 0.03, ".
func parseRecentEvents(out string) map[string][]float64 {
	events := make(map[string][]float64)
	var current string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if m := eventHeaderRe.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		if current == "" {
			continue
		}
		if !strings.Contains(line, "(ts=") {
			if line == "" {
				current = ""
			}
			continue
		}
		_, rest, ok := strings.Cut(line, ")")
		if !ok {
			continue
		}
		if vals := parseFloats(rest); len(vals) > 0 {
			events[current] = vals
		}
	}
	return events
}

func parseFloats(s string) []float64 {
	var vals []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return vals
		}
		vals = append(vals, v)
	}
	return vals
}
