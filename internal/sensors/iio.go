package sensors

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// DefaultIIOPath is where the kernel lists Industrial I/O devices.
const DefaultIIOPath = "/sys/bus/iio/devices"

// iioTypes maps an IIO channel type to a sensor type and the factor that
// converts the kernel unit to the one Format prints: gauss to µT, kPa to
// hPa, milli-degrees and milli-percent to whole units.
var iioTypes = map[string]struct {
	typ    Type
	factor float64
}{
	"accel":            {TypeAccelerometer, 1},
	"anglvel":          {TypeGyroscope, 1},
	"magn":             {TypeMagnetometer, 100},
	"proximity":        {TypeProximity, 1},
	"illuminance":      {TypeLight, 1},
	"pressure":         {TypePressure, 10},
	"temp":             {TypeTemperature, 0.001},
	"humidityrelative": {TypeHumidity, 0.001},
	"steps":            {TypeStepCounter, 1},
}

// channel is one value file of an IIO device.
type channel struct {
	path      string
	processed bool
	scale     float64
	offset    float64
	factor    float64
}

// IIOBackend reads sensors exposed through the Linux IIO subsystem.
type IIOBackend struct {
	src  platform.Source
	root string
}

// NewIIOBackend creates a backend rooted at DefaultIIOPath.
func NewIIOBackend(src platform.Source) *IIOBackend {
	return &IIOBackend{src: src, root: DefaultIIOPath}
}

// List discovers one Sensor per channel type per IIO device.
func (b *IIOBackend) List(_ context.Context) ([]Sensor, error) {
	devices, err := b.src.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", b.root, err)
	}

	var sensors []Sensor
	for _, dev := range devices {
		if !strings.HasPrefix(dev, "iio:device") {
			continue
		}
		sensors = append(sensors, b.discover(dev)...)
	}
	return sensors, nil
}

func (b *IIOBackend) discover(dev string) []Sensor {
	dir := b.root + "/" + dev
	files, err := b.src.ReadDir(dir)
	if err != nil {
		return nil
	}
	name, _ := platform.ReadString(b.src, dir+"/name")
	if name == "" {
		name = dev
	}

	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}

	byType := make(map[string]*Sensor)
	var order []string
	for _, f := range files {
		middle, processed, ok := channelName(f)
		if !ok {
			continue
		}
		// Prefer the processed value when the kernel offers both.
		if !processed && present["in_"+middle+"_input"] {
			continue
		}
		token := typeToken(middle)
		info, known := iioTypes[token]
		if !known {
			continue
		}

		s, seen := byType[token]
		if !seen {
			s = &Sensor{
				ID:   dev + "/" + token,
				Name: name,
				Type: info.typ,
			}
			byType[token] = s
			order = append(order, token)
		}
		ch := channel{path: dir + "/" + f, processed: processed, scale: 1, factor: info.factor}
		if !processed {
			ch.scale = b.attr(dir, present, 1, "in_"+middle+"_scale", "in_"+token+"_scale")
			ch.offset = b.attr(dir, present, 0, "in_"+middle+"_offset", "in_"+token+"_offset")
		}
		s.channels = append(s.channels, ch)
	}

	sensors := make([]Sensor, 0, len(order))
	for _, token := range order {
		sensors = append(sensors, *byType[token])
	}
	return sensors
}

// channelName splits "in_accel_x_raw" into "accel_x" and whether the
// file holds a processed (_input) value.
func channelName(file string) (middle string, processed, ok bool) {
	if !strings.HasPrefix(file, "in_") {
		return "", false, false
	}
	rest := strings.TrimPrefix(file, "in_")
	switch {
	case strings.HasSuffix(rest, "_raw"):
		return strings.TrimSuffix(rest, "_raw"), false, true
	case strings.HasSuffix(rest, "_input"):
		return strings.TrimSuffix(rest, "_input"), true, true
	default:
		return "", false, false
	}
}

// typeToken returns the channel type of "accel_x" or "proximity0".
func typeToken(middle string) string {
	token, _, _ := strings.Cut(middle, "_")
	return strings.TrimRight(token, "0123456789")
}

func (b *IIOBackend) attr(dir string, present map[string]bool, def float64, names ...string) float64 {
	for _, n := range names {
		if !present[n] {
			continue
		}
		s, err := platform.ReadString(b.src, dir+"/"+n)
		if err != nil {
			continue
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return def
}

// Read returns the current values of every sensor. Sensors whose files
// cannot be read are omitted.
func (b *IIOBackend) Read(_ context.Context, sensors []Sensor) (map[string][]float64, error) {
	values := make(map[string][]float64, len(sensors))
	for _, s := range sensors {
		if len(s.channels) == 0 {
			continue
		}
		vals := make([]float64, 0, len(s.channels))
		for _, ch := range s.channels {
			v, err := b.readChannel(ch)
			if err != nil {
				vals = nil
				break
			}
			vals = append(vals, v)
		}
		if vals != nil {
			values[s.ID] = vals
		}
	}
	return values, nil
}

// readChannel applies the IIO ABI: value = (raw + offset) * scale.
func (b *IIOBackend) readChannel(ch channel) (float64, error) {
	s, err := platform.ReadString(b.src, ch.path)
	if err != nil {
		return 0, err
	}
	raw, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", ch.path, err)
	}
	if ch.processed {
		return raw * ch.factor, nil
	}
	return (raw + ch.offset) * ch.scale * ch.factor, nil
}
