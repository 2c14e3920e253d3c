package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/opd-ai/go-devinfo/internal/format"
	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/sensors"
)

// TabSections loads the sections of an information tab without a UI.
// The Sensors and Apps tabs are not section based and are rejected.
func TabSections(ctx context.Context, p Provider, t Tab) ([]Section, error) {
	switch t {
	case TabDashboard:
		snap, err := p.Snapshot(ctx)
		return dashboardSections(snap), err
	case TabSystem:
		return systemSections(p.System(ctx)), nil
	case TabHardware:
		return hardwareSections(p.Hardware(ctx)), nil
	case TabBattery:
		v, err := p.Battery(ctx)
		return batterySections(v, err), nil
	case TabNetwork:
		d, err := p.Network(ctx)
		return networkSections(d, err), nil
	case TabCamera:
		info, err := p.Camera(ctx)
		return cameraSections(info, err), nil
	}
	return nil, fmt.Errorf("tab %s has no sections", t)
}

// SnapshotSections returns the Dashboard tab sections of snap.
func SnapshotSections(snap monitor.Snapshot) []Section {
	return dashboardSections(snap)
}

// SensorSections returns the Sensors tab sections of readings.
func SensorSections(readings []sensors.Reading) []Section {
	return sensorSections(readings)
}

// Plain renders sections as unstyled text for non-interactive output.
func Plain(sections []Section) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if s.Title != "" {
			sb.WriteString("== " + s.Title + "\n")
		}
		var t format.Table
		for _, r := range s.Rows {
			t.Row(r[0], r[1])
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}
