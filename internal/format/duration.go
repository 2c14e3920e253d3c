package format

import (
	"fmt"
	"time"
)

// Uptime renders d in the compact dashboard form: "3d 4h 5m", "4h 5m",
// "5m 6s" or "6s". Negative durations render as "0s".
func Uptime(d time.Duration) string {
	days, hours, minutes, seconds := split(d)
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// UptimeLong is Uptime with seconds kept in every form.
func UptimeLong(d time.Duration) string {
	days, hours, minutes, seconds := split(d)
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func split(d time.Duration) (days, hours, minutes, seconds int64) {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return total / 86400, total / 3600 % 24, total / 60 % 60, total % 60
}

// Timestamp is the layout used for boot time and other absolute instants.
const Timestamp = "2006-01-02 15:04:05"

// DateTime is the layout used for package install and update times.
const DateTime = "Jan 02, 2006 15:04"
