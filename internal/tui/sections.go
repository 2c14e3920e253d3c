package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opd-ai/go-devinfo/internal/format"
	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/sensors"
)

// Section is a titled block of label/value rows.
type Section struct {
	Title string
	Rows  [][2]string
}

func (s *Section) add(label, value string) {
	s.Rows = append(s.Rows, [2]string{label, value})
}

// Value returns the value of the first row with label.
func (s Section) Value(label string) (string, bool) {
	for _, r := range s.Rows {
		if r[0] == label {
			return r[1], true
		}
	}
	return "", false
}

func renderSections(styles Styles, sections []Section) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if s.Title != "" {
			sb.WriteString(styles.Section.Render(s.Title))
			sb.WriteString("\n")
		}
		var t format.Table
		for _, r := range s.Rows {
			t.Row(r[0], r[1])
		}
		sb.WriteString(styles.Body.Render(t.String()))
	}
	return sb.String()
}

func dashboardSections(s monitor.Snapshot) []Section {
	cpu := Section{Title: "CPU"}
	cpu.add("Usage", s.CPUText())
	cpu.add("Frequency", s.FrequencyText())
	cpu.add("Temperature", s.TemperatureText())

	mem := Section{Title: "Memory"}
	mem.add("Usage", s.MemoryPercentText())
	mem.add("Used", s.MemoryText())

	storage := Section{Title: "Storage"}
	storage.add("Usage", s.StoragePercentText())
	storage.add("Used", s.StorageText())

	battery := Section{Title: "Battery"}
	battery.add("Level", s.BatteryLevelText())
	battery.add("Details", s.BatteryDetailText())
	health := monitor.NotApplicable
	if s.HasBattery {
		health = s.Battery.Health.String()
	}
	battery.add("Health", health)

	system := Section{Title: "System"}
	system.add("Network", s.Network.Text())
	system.add("Uptime", s.UptimeText())
	if !s.Time.IsZero() {
		system.add("Updated", s.Time.Format(time.TimeOnly))
	}

	sections := []Section{cpu, mem, storage, battery, system}
	if s.Err != nil && len(s.Err.Errors) > 0 {
		failed := Section{Title: "Unavailable"}
		for _, ce := range s.Err.Errors {
			failed.add(string(ce.Source), ce.Err.Error())
		}
		sections = append(sections, failed)
	}
	return sections
}

func systemSections(info monitor.SystemInfo) []Section {
	osSec := Section{Title: "Operating System"}
	osSec.add("OS Version", info.OSVersion)
	osSec.add("API Level", info.APILevel)
	osSec.add("Security Patch", info.SecurityPatch)
	osSec.add("Build Number", info.BuildNumber)

	kernel := Section{Title: "Kernel"}
	kernel.add("Kernel Version", info.Kernel)
	kernel.add("System Uptime", info.Uptime)
	kernel.add("Boot Time", info.BootTime)

	runtime := Section{Title: "Runtime"}
	runtime.add("Go Version", info.RuntimeVersion)
	runtime.add("Heap", info.Heap)

	locale := Section{Title: "Locale"}
	locale.add("Timezone", info.Timezone)
	locale.add("Language", info.Locale)

	return []Section{osSec, kernel, runtime, locale}
}

func hardwareSections(info monitor.HardwareInfo) []Section {
	device := Section{Title: "Device"}
	device.add("Model", info.Model)
	device.add("Manufacturer", info.Manufacturer)
	device.add("Brand", info.Brand)
	device.add("Board", info.Board)

	cpu := Section{Title: "Processor"}
	cpu.add("Architecture", info.Architecture)
	cpu.add("CPU Cores", info.Cores)
	cpu.add("Primary ABI", info.ABI)

	mem := Section{Title: "Memory"}
	mem.add("Total RAM", info.RAMTotal)
	mem.add("Available RAM", info.RAMAvailable)
	mem.add("Used RAM", info.RAMUsed)

	storage := Section{Title: "Storage"}
	storage.add("Internal Storage", info.InternalStorage)
	storage.add("External Storage", info.ExternalStorage)

	return []Section{device, cpu, mem, storage}
}

// BatteryView is the battery tab data.
type BatteryView struct {
	Info      monitor.BatteryInfo
	PowerSave string
	Updated   time.Time
}

func batterySections(v BatteryView, err error) []Section {
	status := Section{Title: "Status"}
	details := Section{Title: "Details"}
	power := Section{Title: "Power"}

	if err != nil {
		status.add("Level", monitor.Unretrievable)
		status.add("Status", monitor.Unknown)
		status.add("Charging Status", monitor.Unknown)
		status.add("Power Source", monitor.Unknown)
		details.add("Health", monitor.Unknown)
		details.add("Temperature", monitor.Unknown)
		details.add("Voltage", monitor.Unknown)
		details.add("Technology", monitor.Unknown)
		details.add("Capacity", monitor.Unknown)
		details.add("Scale", monitor.Unknown)
		power.add("Power Save Mode", monitor.Unknown)
		power.add("Last Update", monitor.ErrorText)
		return []Section{status, details, power}
	}

	b := v.Info
	level := monitor.Unretrievable
	if pct := b.Percent(); pct >= 0 {
		level = strconv.Itoa(pct) + "%"
	}
	status.add("Level", level)
	status.add("Status", b.Status.String())
	status.add("Charging Status", b.ChargingStatus())
	status.add("Power Source", b.Plug.String())

	details.add("Health", b.Health.Label())
	details.add("Temperature", fmt.Sprintf("%.1f°C", b.TemperatureC))
	details.add("Voltage", fmt.Sprintf("%d mV", b.VoltageMV))
	details.add("Technology", b.Technology)
	capacity := "Not available"
	if b.ChargeCounter > 0 {
		capacity = fmt.Sprintf("%d mAh", b.ChargeCounter/1000)
	}
	details.add("Current Capacity", capacity)
	details.add("Scale", strconv.Itoa(b.Scale))

	power.add("Power Save Mode", v.PowerSave)
	updated := monitor.Unknown
	if !v.Updated.IsZero() {
		updated = v.Updated.Format(time.TimeOnly)
	}
	power.add("Last Update", updated)
	return []Section{status, details, power}
}

func networkSections(d monitor.NetworkDetails, err error) []Section {
	conn := Section{Title: "Connection"}
	wifi := Section{Title: "WiFi"}
	cell := Section{Title: "Cellular"}
	addr := Section{Title: "Addresses"}
	other := Section{Title: "Other"}

	if err != nil {
		conn.add("Status", "Error getting status")
		conn.add("Network Type", monitor.ErrorText)
		conn.add("Operator", monitor.ErrorText)
		return []Section{conn}
	}

	if d.Type == monitor.ConnNone {
		conn.add("Status", "No active connection")
	} else {
		conn.add("Status", "Connected")
	}
	conn.add("Network Type", d.Type.String())
	conn.add("Operator", orUnknown(d.Operator))

	switch {
	case !d.WiFiEnabled:
		wifi.add("WiFi Status", "Disabled")
		wifi.add("SSID", "WiFi disabled")
		wifi.add("Signal Strength", "WiFi disabled")
		wifi.add("Frequency", "WiFi disabled")
	case d.Type != monitor.ConnWiFi:
		wifi.add("WiFi Status", "Enabled")
		wifi.add("SSID", "Not connected")
		wifi.add("Signal Strength", "Not connected")
		wifi.add("Frequency", "Not connected")
	default:
		wifi.add("WiFi Status", "Enabled")
		wifi.add("SSID", orUnknown(d.SSID))
		signal := monitor.Unknown
		if d.HasRSSI {
			signal = fmt.Sprintf("%d dBm (Level: %d/%d)", d.RSSI, d.SignalLevel, monitor.SignalLevels-1)
		}
		wifi.add("Signal Strength", signal)
		freq := monitor.NotAvailable
		if d.FrequencyMHz > 0 {
			freq = fmt.Sprintf("%d MHz", d.FrequencyMHz)
		}
		wifi.add("Frequency", freq)
		if d.LinkSpeedMbps > 0 {
			wifi.add("Link Speed", fmt.Sprintf("%d Mbps", d.LinkSpeedMbps))
		}
	}

	cell.add("Type", orUnknown(d.NetworkType))
	cell.add("Carrier", orUnknown(d.Operator))
	cell.add("Data Connection", orUnknown(d.DataState))

	addr.add("Local IP", orUnknown(d.IPAddress))
	addr.add("Gateway", orValue(d.Gateway, monitor.NotAvailable))
	addr.add("Subnet Mask", orValue(d.Netmask, monitor.NotAvailable))
	dns := monitor.Unknown
	if len(d.DNS) > 0 {
		dns = strings.Join(d.DNS, ", ")
	}
	addr.add("DNS Servers", dns)

	other.add("MAC Address", orUnknown(d.MAC))
	other.add("Bluetooth", orUnknown(d.Bluetooth))
	other.add("Data Roaming", enabledText(d.Roaming))

	return []Section{conn, wifi, cell, addr, other}
}

func cameraSections(info monitor.CameraInfo, err error) []Section {
	support := Section{Title: "Camera Support"}
	if err != nil {
		support.add("Camera Support", monitor.ErrorChecking)
		support.add("Number of Cameras", monitor.ErrorChecking)
		return []Section{support}
	}

	support.add("Camera Support", yesNo(info.Supported()))
	support.add("Front Camera", monitor.AvailableText(info.Front))
	support.add("Back Camera", monitor.AvailableText(info.Back))
	support.add("Flash Support", yesNo(info.Flash))
	support.add("Auto Focus", yesNo(info.Autofocus))
	support.add("Number of Cameras", strconv.Itoa(info.Count))
	support.add("Camera API", orUnknown(info.API))
	support.add("Hardware Level", orUnknown(info.HardwareLevel))

	sections := []Section{support}
	for _, cam := range info.Cameras {
		title := cam.Facing + " Camera"
		if cam.Name != "" {
			title += " (" + cam.Name + ")"
		}
		s := Section{Title: title}
		s.add("Max Resolution", orUnknown(cam.Resolution))
		s.add("Aperture", orUnknown(cam.Aperture))
		s.add("Focal Length", orUnknown(cam.FocalLength))
		s.add("ISO Range", orUnknown(cam.ISORange))
		s.add("Special Features", orUnknown(cam.Features))
		sections = append(sections, s)
	}
	return sections
}

func sensorSections(readings []sensors.Reading) []Section {
	if len(readings) == 0 {
		return []Section{{Title: "Sensors", Rows: [][2]string{{"Sensors", "None found"}}}}
	}
	sections := make([]Section, 0, len(readings))
	for _, r := range readings {
		s := Section{Title: r.Sensor.Name}
		s.add("Type", r.Sensor.Type.String())
		if r.Sensor.Vendor != "" {
			s.add("Vendor", r.Sensor.Vendor)
		}
		if r.Sensor.Power != "" {
			s.add("Power", r.Sensor.Power)
		}
		if r.Sensor.Resolution != "" {
			s.add("Resolution", r.Sensor.Resolution)
		}
		if r.Sensor.MaxRange != "" {
			s.add("Max Range", r.Sensor.MaxRange)
		}
		s.add("Value", r.Text)
		sections = append(sections, s)
	}
	return sections
}

func orUnknown(s string) string {
	return orValue(s, monitor.Unknown)
}

func orValue(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func enabledText(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
