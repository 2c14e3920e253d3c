package platform

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
)

// Interface is a network interface with its first IPv4 address.
type Interface struct {
	Name     string
	IPv4     string
	Netmask  string
	MAC      string
	Loopback bool
}

// IsLocalHost reports whether src reads the real local host.
func IsLocalHost(src Source) bool {
	ls, ok := src.(*localSource)
	return ok && ls.root == ""
}

// Interfaces lists the interfaces of the host behind src. The local host
// is queried through the net package; other sources run ip -o addr.
func Interfaces(ctx context.Context, src Source) ([]Interface, error) {
	if IsLocalHost(src) {
		return localInterfaces()
	}
	out, err := src.Run(ctx, "ip", "-o", "-4", "addr", "show")
	if err != nil {
		return nil, err
	}
	ifaces := parseIPAddrOutput(out)
	if link, err := src.Run(ctx, "ip", "-o", "link", "show"); err == nil {
		macs := parseIPLinkOutput(link)
		for i := range ifaces {
			ifaces[i].MAC = macs[ifaces[i].Name]
		}
	}
	return ifaces, nil
}

func localInterfaces() ([]Interface, error) {
	nifs, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("getting interfaces: %w", err)
	}
	result := make([]Interface, 0, len(nifs))
	for _, nif := range nifs {
		iface := Interface{
			Name:     nif.Name,
			MAC:      nif.HardwareAddr.String(),
			Loopback: nif.Flags&net.FlagLoopback != 0,
		}
		addrs, err := nif.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			iface.IPv4 = ipnet.IP.String()
			iface.Netmask = net.IP(ipnet.Mask).String()
			break
		}
		result = append(result, iface)
	}
	return result, nil
}

// parseIPAddrOutput parses lines such as
// "2: wlan0    inet 192.168.1.5/24 brd 192.168.1.255 scope global wlan0".
func parseIPAddrOutput(out string) []Interface {
	var result []Interface
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[2] != "inet" {
			continue
		}
		name := strings.TrimSuffix(fields[1], ":")
		if seen[name] {
			continue
		}
		ip, ipnet, err := net.ParseCIDR(fields[3])
		if err != nil {
			continue
		}
		seen[name] = true
		result = append(result, Interface{
			Name:     name,
			IPv4:     ip.String(),
			Netmask:  net.IP(ipnet.Mask).String(),
			Loopback: ip.IsLoopback(),
		})
	}
	return result
}

// parseIPLinkOutput maps interface names to MAC addresses from
// "2: wlan0: <...> mtu 1500 ... link/ether aa:bb:cc:dd:ee:ff brd ...".
func parseIPLinkOutput(out string) map[string]string {
	macs := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimSuffix(fields[1], ":")
		if at := strings.IndexByte(name, '@'); at > 0 {
			name = name[:at]
		}
		for i := 2; i < len(fields)-1; i++ {
			if strings.HasPrefix(fields[i], "link/") {
				macs[name] = fields[i+1]
				break
			}
		}
	}
	return macs
}
