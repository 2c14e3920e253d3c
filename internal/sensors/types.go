// Package sensors discovers hardware sensors, samples their values and
// throttles the formatted readings for display.
package sensors

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is a sensor type, numbered like the Android sensor framework.
type Type int

const (
	TypeAccelerometer      Type = 1
	TypeMagnetometer       Type = 2
	TypeOrientation        Type = 3
	TypeGyroscope          Type = 4
	TypeLight              Type = 5
	TypePressure           Type = 6
	TypeProximity          Type = 8
	TypeGravity            Type = 9
	TypeLinearAcceleration Type = 10
	TypeRotationVector     Type = 11
	TypeHumidity           Type = 12
	TypeTemperature        Type = 13
	TypeStepDetector       Type = 18
	TypeStepCounter        Type = 19
	TypeHeartRate          Type = 21
)

// String returns the display name of t, or "Type N" for unnamed types.
func (t Type) String() string {
	switch t {
	case TypeAccelerometer:
		return "Accelerometer"
	case TypeGyroscope:
		return "Gyroscope"
	case TypeMagnetometer:
		return "Magnetometer"
	case TypeProximity:
		return "Proximity"
	case TypeLight:
		return "Light"
	case TypePressure:
		return "Pressure"
	case TypeTemperature:
		return "Temperature"
	case TypeHumidity:
		return "Humidity"
	case TypeGravity:
		return "Gravity"
	case TypeLinearAcceleration:
		return "Linear Acceleration"
	case TypeRotationVector:
		return "Rotation Vector"
	case TypeOrientation:
		return "Orientation"
	case TypeStepCounter:
		return "Step Counter"
	case TypeStepDetector:
		return "Step Detector"
	case TypeHeartRate:
		return "Heart Rate"
	default:
		return "Type " + strconv.Itoa(int(t))
	}
}

// Sensor describes one sensor. Descriptive fields are empty when the
// backend does not report them.
type Sensor struct {
	// ID is unique within a backend.
	ID         string
	Name       string
	Vendor     string
	Version    string
	Type       Type
	Power      string
	Resolution string
	MaxRange   string

	channels []channel
}

// Reading is a sensor's latest values with their display text.
type Reading struct {
	Sensor Sensor
	Values []float64
	Text   string
}

// NoData is shown for a sensor that has not reported yet.
const NoData = "No data"

// Format renders values for display. Values too short for the type's
// layout render as "--".
func Format(t Type, values []float64) (s string) {
	if len(values) == 0 {
		return NoData
	}
	defer func() {
		if r := recover(); r != nil {
			s = "--"
		}
	}()

	switch t {
	case TypeAccelerometer:
		return fmt.Sprintf("X: %.2f, Y: %.2f, Z: %.2f m/s²", values[0], values[1], values[2])
	case TypeGyroscope:
		return fmt.Sprintf("X: %.2f, Y: %.2f, Z: %.2f rad/s", values[0], values[1], values[2])
	case TypeMagnetometer:
		return fmt.Sprintf("X: %.2f, Y: %.2f, Z: %.2f µT", values[0], values[1], values[2])
	case TypeProximity:
		return fmt.Sprintf("Distance: %.2f cm", values[0])
	case TypeLight:
		return fmt.Sprintf("Light: %.2f lx", values[0])
	case TypePressure:
		return fmt.Sprintf("Pressure: %.2f hPa", values[0])
	case TypeTemperature:
		return fmt.Sprintf("Temperature: %.2f °C", values[0])
	case TypeHumidity:
		return fmt.Sprintf("Humidity: %.2f%%", values[0])
	default:
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprintf("%.2f", v)
		}
		return strings.Join(parts, ", ")
	}
}
