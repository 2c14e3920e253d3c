package monitor

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	nmService  = "org.freedesktop.NetworkManager"
	nmPath     = "/org/freedesktop/NetworkManager"
	bluezName  = "org.bluez"
	propsGet   = "org.freedesktop.DBus.Properties.Get"
	nmWireless = "org.freedesktop.NetworkManager.Device.Wireless"
	nmAP       = "org.freedesktop.NetworkManager.AccessPoint"
)

var errNoAccessPoint = errors.New("no active access point")

// DBusLinkProvider reads WiFi association from NetworkManager and the
// Bluetooth adapter power state from BlueZ over the system bus.
type DBusLinkProvider struct {
	conn *dbus.Conn
}

// NewDBusLinkProvider connects to the system bus.
func NewDBusLinkProvider() (*DBusLinkProvider, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to system bus: %w", err)
	}
	return &DBusLinkProvider{conn: conn}, nil
}

func (p *DBusLinkProvider) prop(service string, path dbus.ObjectPath, iface, name string, out any) error {
	return p.conn.Object(service, path).Call(propsGet, 0, iface, name).Store(out)
}

// WiFiLink looks up iface in NetworkManager and reads its active access
// point.
func (p *DBusLinkProvider) WiFiLink(iface string) (WiFiLink, error) {
	var dev dbus.ObjectPath
	err := p.conn.Object(nmService, nmPath).Call(nmService+".GetDeviceByIpIface", 0, iface).Store(&dev)
	if err != nil {
		return WiFiLink{}, fmt.Errorf("looking up %s: %w", iface, err)
	}

	var ap dbus.ObjectPath
	if err := p.prop(nmService, dev, nmWireless, "ActiveAccessPoint", &ap); err != nil {
		return WiFiLink{}, fmt.Errorf("reading active access point: %w", err)
	}
	if ap == "/" || ap == "" {
		return WiFiLink{}, errNoAccessPoint
	}

	var (
		link     WiFiLink
		ssid     []byte
		freq     uint32
		strength uint8
		bitrate  uint32
	)
	if err := p.prop(nmService, ap, nmAP, "Ssid", &ssid); err == nil {
		link.SSID = string(ssid)
	}
	if err := p.prop(nmService, ap, nmAP, "Frequency", &freq); err == nil {
		link.FrequencyMHz = int(freq)
	}
	if err := p.prop(nmService, ap, nmAP, "Strength", &strength); err == nil {
		link.Strength = int(strength)
	}
	// Bitrate is in Kb/s; prefer the negotiated rate over the AP maximum.
	if err := p.prop(nmService, dev, nmWireless, "Bitrate", &bitrate); err != nil || bitrate == 0 {
		_ = p.prop(nmService, ap, nmAP, "MaxBitrate", &bitrate)
	}
	link.BitrateMbps = int(bitrate / 1000)
	return link, nil
}

// WirelessEnabled reads NetworkManager's WirelessEnabled switch.
func (p *DBusLinkProvider) WirelessEnabled() (bool, error) {
	var enabled bool
	if err := p.prop(nmService, nmPath, nmService, "WirelessEnabled", &enabled); err != nil {
		return false, fmt.Errorf("reading WirelessEnabled: %w", err)
	}
	return enabled, nil
}

// BluetoothPowered reports whether any BlueZ adapter is powered.
func (p *DBusLinkProvider) BluetoothPowered() (bool, error) {
	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	err := p.conn.Object(bluezName, "/").Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&managed)
	if err != nil {
		return false, fmt.Errorf("listing bluez objects: %w", err)
	}
	found := false
	for _, ifaces := range managed {
		adapter, ok := ifaces["org.bluez.Adapter1"]
		if !ok {
			continue
		}
		found = true
		if v, ok := adapter["Powered"]; ok {
			if powered, ok := v.Value().(bool); ok && powered {
				return true, nil
			}
		}
	}
	if !found {
		return false, errors.New("no bluetooth adapter")
	}
	return false, nil
}

