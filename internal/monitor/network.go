package monitor

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/opd-ai/go-devinfo/internal/platform"
)

// ConnectionType classifies the active network interface.
type ConnectionType int

const (
	ConnNone ConnectionType = iota
	ConnWiFi
	ConnCellular
	ConnEthernet
	ConnOther
)

func (c ConnectionType) String() string {
	switch c {
	case ConnWiFi:
		return "WiFi"
	case ConnCellular:
		return "Cellular"
	case ConnEthernet:
		return "Ethernet"
	case ConnOther:
		return "Other"
	default:
		return "None"
	}
}

// Signal level bounds in dBm.
const (
	MinRSSI = -100
	MaxRSSI = -55
)

// SignalLevels is the number of bars reported for WiFi signal.
const SignalLevels = 5

// SignalLevel maps rssi onto 0..levels-1.
func SignalLevel(rssi, levels int) int {
	if levels <= 1 {
		return 0
	}
	if rssi <= MinRSSI {
		return 0
	}
	if rssi >= MaxRSSI {
		return levels - 1
	}
	return (rssi - MinRSSI) * (levels - 1) / (MaxRSSI - MinRSSI)
}

// NetworkStatus is the dashboard view of connectivity.
type NetworkStatus struct {
	Interface string
	Type      ConnectionType
}

// Text returns the status line shown on the dashboard.
func (s NetworkStatus) Text() string {
	switch s.Type {
	case ConnWiFi:
		return "WiFi Connected"
	case ConnCellular:
		return "Mobile Data Connected"
	case ConnEthernet:
		return "Ethernet Connected"
	case ConnOther:
		return "Connected"
	default:
		return NoConnection
	}
}

// WiFiLink holds association details of a wireless interface.
type WiFiLink struct {
	SSID         string
	FrequencyMHz int
	BitrateMbps  int
	// Strength is the access point signal quality in percent.
	Strength int
}

// LinkProvider supplies radio state that sysfs does not expose.
type LinkProvider interface {
	WiFiLink(iface string) (WiFiLink, error)
	WirelessEnabled() (bool, error)
	BluetoothPowered() (bool, error)
}

// NetworkDetails is the network tab.
type NetworkDetails struct {
	Type      ConnectionType
	Interface string
	// Operator is the mobile network operator name.
	Operator    string
	WiFiEnabled bool
	SSID        string
	// RSSI is the signal strength in dBm. HasRSSI is false when unknown.
	RSSI          int
	HasRSSI       bool
	SignalLevel   int
	LinkSpeedMbps int
	FrequencyMHz  int
	// NetworkType is the cellular radio technology, e.g. "LTE".
	NetworkType string
	DataState   string
	IPAddress   string
	Gateway     string
	Netmask     string
	DNS         []string
	MAC         string
	Bluetooth   string
	Roaming     bool
}

// NetworkReader reads connectivity from sysfs, procfs and, when set, a
// LinkProvider.
type NetworkReader struct {
	dev              *Device
	sysNetPath       string
	procRoutePath    string
	procWirelessPath string
	resolvConfPath   string
	bluetoothPath    string
	rfkillPath       string
	interfaces       func(ctx context.Context) ([]platform.Interface, error)
	links            LinkProvider
}

// NewNetworkReader creates a reader. links may be nil.
func NewNetworkReader(dev *Device, links LinkProvider) *NetworkReader {
	return &NetworkReader{
		dev:              dev,
		sysNetPath:       "/sys/class/net",
		procRoutePath:    "/proc/net/route",
		procWirelessPath: "/proc/net/wireless",
		resolvConfPath:   "/etc/resolv.conf",
		bluetoothPath:    "/sys/class/bluetooth",
		rfkillPath:       "/sys/class/rfkill",
		interfaces: func(ctx context.Context) ([]platform.Interface, error) {
			return platform.Interfaces(ctx, dev.Source)
		},
		links: links,
	}
}

// Status returns the first non-loopback interface that is up and has an
// IPv4 address.
func (r *NetworkReader) Status(ctx context.Context) (NetworkStatus, error) {
	iface, ok, err := r.active(ctx)
	if err != nil {
		return NetworkStatus{}, err
	}
	if !ok {
		return NetworkStatus{Type: ConnNone}, nil
	}
	return NetworkStatus{Interface: iface.Name, Type: r.classify(iface.Name)}, nil
}

func (r *NetworkReader) active(ctx context.Context) (platform.Interface, bool, error) {
	ifaces, err := r.interfaces(ctx)
	if err != nil {
		return platform.Interface{}, false, fmt.Errorf("listing interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Loopback || iface.IPv4 == "" {
			continue
		}
		state, err := platform.ReadString(r.dev.Source, r.sysNetPath+"/"+iface.Name+"/operstate")
		if err != nil || state != "up" {
			continue
		}
		return iface, true, nil
	}
	return platform.Interface{}, false, nil
}

func (r *NetworkReader) classify(name string) ConnectionType {
	if platform.Exists(r.dev.Source, r.sysNetPath+"/"+name+"/wireless") {
		return ConnWiFi
	}
	return classifyByName(name)
}

func classifyByName(name string) ConnectionType {
	switch {
	case strings.HasPrefix(name, "wlan"), strings.HasPrefix(name, "wl"):
		return ConnWiFi
	case strings.HasPrefix(name, "rmnet"), strings.HasPrefix(name, "ccmni"), strings.HasPrefix(name, "wwan"):
		return ConnCellular
	case strings.HasPrefix(name, "eth"), strings.HasPrefix(name, "en"), strings.HasPrefix(name, "usb"):
		return ConnEthernet
	default:
		return ConnOther
	}
}

// Details collects the network tab. Fields that cannot be read keep their
// zero value; the returned error is from listing interfaces only.
func (r *NetworkReader) Details(ctx context.Context) (NetworkDetails, error) {
	d := NetworkDetails{
		Operator:  r.dev.Props.Get("gsm.operator.alpha"),
		Roaming:   r.dev.Props.Get("gsm.operator.isroaming") == "true",
		DataState: "Disconnected",
	}

	iface, ok, err := r.active(ctx)
	if err != nil {
		return d, err
	}
	if ok {
		d.Interface = iface.Name
		d.Type = r.classify(iface.Name)
		d.IPAddress = iface.IPv4
		d.Netmask = iface.Netmask
		d.MAC = iface.MAC
		if d.MAC == "" {
			d.MAC, _ = platform.ReadString(r.dev.Source, r.sysNetPath+"/"+iface.Name+"/address")
		}
	}

	d.WiFiEnabled = r.wifiEnabled()
	if d.Type == ConnWiFi {
		r.fillWiFi(&d)
	}

	d.NetworkType = CellularNetworkType(r.dev.Props.Get("gsm.network.type"))
	if d.Type == ConnCellular {
		d.DataState = "Connected"
	}

	d.Gateway = r.gateway(d.Interface)
	d.DNS = r.nameservers()
	d.Bluetooth = r.bluetooth()
	return d, nil
}

func (r *NetworkReader) fillWiFi(d *NetworkDetails) {
	if rssi, ok := r.wirelessRSSI(d.Interface); ok {
		d.RSSI, d.HasRSSI = rssi, true
		d.SignalLevel = SignalLevel(rssi, SignalLevels)
	}
	if r.links == nil {
		return
	}
	link, err := r.links.WiFiLink(d.Interface)
	if err != nil {
		return
	}
	d.SSID = link.SSID
	d.FrequencyMHz = link.FrequencyMHz
	d.LinkSpeedMbps = link.BitrateMbps
	if !d.HasRSSI && link.Strength > 0 {
		// NetworkManager reports percent; map back onto the dBm range.
		d.RSSI = MinRSSI + link.Strength*(MaxRSSI-MinRSSI)/100
		d.HasRSSI = true
		d.SignalLevel = SignalLevel(d.RSSI, SignalLevels)
	}
}

func (r *NetworkReader) wifiEnabled() bool {
	if r.links != nil {
		if enabled, err := r.links.WirelessEnabled(); err == nil {
			return enabled
		}
	}
	if state, ok := r.rfkill("wlan"); ok {
		return state
	}
	names, err := r.dev.Source.ReadDir(r.sysNetPath)
	if err != nil {
		return false
	}
	for _, name := range names {
		if platform.Exists(r.dev.Source, r.sysNetPath+"/"+name+"/wireless") {
			return true
		}
	}
	return false
}

func (r *NetworkReader) bluetooth() string {
	names, err := r.dev.Source.ReadDir(r.bluetoothPath)
	if err != nil || len(names) == 0 {
		return NotSupported
	}
	if r.links != nil {
		if powered, err := r.links.BluetoothPowered(); err == nil {
			return enabledText(powered)
		}
	}
	state, ok := r.rfkill("bluetooth")
	return enabledText(ok && state)
}

func enabledText(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}

// rfkill reports whether any switch of the given type is unblocked.
// ok is false when no switch of that type exists.
func (r *NetworkReader) rfkill(kind string) (unblocked, ok bool) {
	names, err := r.dev.Source.ReadDir(r.rfkillPath)
	if err != nil {
		return false, false
	}
	for _, name := range names {
		dir := r.rfkillPath + "/" + name
		t, err := platform.ReadString(r.dev.Source, dir+"/type")
		if err != nil || t != kind {
			continue
		}
		ok = true
		soft, _ := platform.ReadInt(r.dev.Source, dir+"/soft")
		hard, _ := platform.ReadInt(r.dev.Source, dir+"/hard")
		if soft == 0 && hard == 0 {
			return true, true
		}
	}
	return false, ok
}

// wirelessRSSI reads the signal level column of /proc/net/wireless.
func (r *NetworkReader) wirelessRSSI(iface string) (int, bool) {
	data, err := r.dev.Source.ReadFile(r.procWirelessPath)
	if err != nil {
		return 0, false
	}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum <= 2 {
			continue
		}
		name, level, ok := parseWirelessLine(scanner.Text())
		if ok && name == iface {
			return level, true
		}
	}
	return 0, false
}

// parseWirelessLine parses "wlan0: 0000   70.  -40.  -95. ...".
func parseWirelessLine(line string) (string, int, bool) {
	fields := strings.Fields(strings.ReplaceAll(line, ".", " "))
	if len(fields) < 4 {
		return "", 0, false
	}
	level, err := strconv.Atoi(fields[3])
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSuffix(fields[0], ":"), level, true
}

// gateway returns the default route gateway, preferring iface.
func (r *NetworkReader) gateway(iface string) string {
	data, err := r.dev.Source.ReadFile(r.procRoutePath)
	if err != nil {
		return ""
	}
	var fallback string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum == 1 {
			continue
		}
		name, gw, ok := parseRouteLine(scanner.Text())
		if !ok {
			continue
		}
		if name == iface {
			return gw
		}
		if fallback == "" {
			fallback = gw
		}
	}
	return fallback
}

// parseRouteLine returns the gateway of a default route line from
// /proc/net/route. Addresses are little-endian hex.
func parseRouteLine(line string) (iface, gateway string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[1] != "00000000" {
		return "", "", false
	}
	ip, err := hexToIP(fields[2])
	if err != nil {
		return "", "", false
	}
	return fields[0], ip, true
}

func hexToIP(hexStr string) (string, error) {
	if len(hexStr) != 8 {
		return "", fmt.Errorf("invalid hex length: %d", len(hexStr))
	}
	v, err := strconv.ParseUint(hexStr, 16, 32)
	if err != nil {
		return "", fmt.Errorf("parsing hex %s: %w", hexStr, err)
	}
	return net.IPv4(byte(v), byte(v>>8), byte(v>>16), byte(v>>24)).String(), nil
}

// nameservers reads net.dns1..4, falling back to resolv.conf.
func (r *NetworkReader) nameservers() []string {
	var servers []string
	for i := 1; i <= 4; i++ {
		servers = appendServer(servers, r.dev.Props.Get(fmt.Sprintf("net.dns%d", i)))
	}
	if len(servers) > 0 {
		return servers
	}

	data, err := r.dev.Source.ReadFile(r.resolvConfPath)
	if err != nil {
		return nil
	}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "nameserver" {
			servers = appendServer(servers, fields[1])
		}
	}
	return servers
}

func appendServer(servers []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "0.0.0.0" {
		return servers
	}
	return append(servers, s)
}

var cellularCodes = map[string]string{
	"1":  "GPRS",
	"2":  "EDGE",
	"3":  "UMTS",
	"8":  "HSDPA",
	"9":  "HSUPA",
	"10": "HSPA",
	"13": "LTE",
	"20": "5G NR",
}

// CellularNetworkType normalises a gsm.network.type value or numeric
// network type code. Multi-SIM values ("LTE,Unknown") use the first slot.
func CellularNetworkType(v string) string {
	v, _, _ = strings.Cut(v, ",")
	v = strings.ToUpper(strings.TrimSpace(v))
	if name, ok := cellularCodes[v]; ok {
		return name
	}
	switch v {
	case "GPRS", "EDGE", "UMTS", "HSDPA", "HSUPA", "HSPA", "LTE":
		return v
	case "HSPA+", "HSPAP":
		return "HSPA"
	case "NR", "5G", "5G NR":
		return "5G NR"
	default:
		return Unknown
	}
}
