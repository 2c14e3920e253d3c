// Package monitor reads device information (CPU, memory, storage, battery,
// thermal, network, system, hardware and camera) from a platform.Source
// and runs the periodic dashboard collection.
//
// Every reader degrades to a placeholder string for the field it could
// not read and reports the cause as a ComponentError.
package monitor

import (
	"context"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// Device bundles a Source with the Android properties read from it once.
type Device struct {
	Source platform.Source
	Props  platform.Props
}

// NewDevice loads the system properties of src. Hosts without getprop
// get empty Props.
func NewDevice(ctx context.Context, src platform.Source) *Device {
	props, _ := platform.LoadProps(ctx, src)
	return &Device{Source: src, Props: props}
}

// IsAndroid reports whether the device runs Android.
func (d *Device) IsAndroid() bool {
	return d.Props.IsAndroid()
}
