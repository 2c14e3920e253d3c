package batterymon

import "strings"

// isPowerSupplyEvent reports whether a NUL-separated uevent message
// concerns the power_supply subsystem.
func isPowerSupplyEvent(msg []byte) bool {
	for _, field := range strings.Split(string(msg), "\x00") {
		if field == "SUBSYSTEM=power_supply" {
			return true
		}
	}
	return false
}
