package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// Bytes renders n with the largest of GB, MB or KB that keeps the value at
// or above 1, using up to two decimals. Values under 1 KB are shown as "n B".
func Bytes(n int64) string {
	kb := float64(n) / 1024
	mb := kb / 1024
	gb := mb / 1024

	switch {
	case gb >= 1:
		return decimal(gb, 2) + " GB"
	case mb >= 1:
		return decimal(mb, 2) + " MB"
	case kb >= 1:
		return decimal(kb, 2) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " B"
	}
}

// BytesUnit renders n in the unit chosen by its base-1024 digit group,
// with up to two decimals. Non-positive sizes render as "0 B".
func BytesUnit(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	group := digitGroup(n)
	return decimal(float64(n)/math.Pow(1024, float64(group)), 2) + " " + byteUnits[group]
}

// BytesShort is BytesUnit with exactly one decimal.
func BytesShort(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	group := digitGroup(n)
	return fmt.Sprintf("%.1f %s", float64(n)/math.Pow(1024, float64(group)), byteUnits[group])
}

// UsedOfTotal renders "used / total" with Bytes.
func UsedOfTotal(used, total int64) string {
	return Bytes(used) + " / " + Bytes(total)
}

// Percent returns part/whole*100 truncated to an int, or 0 when whole is 0.
func Percent(part, whole uint64) int {
	if whole == 0 {
		return 0
	}
	return int(float64(part) / float64(whole) * 100)
}

func digitGroup(n int64) int {
	group := 0
	for v := n; v >= 1024 && group < len(byteUnits)-1; v /= 1024 {
		group++
	}
	return group
}

// decimal formats v with at most places decimals and no trailing zeros.
func decimal(v float64, places int) string {
	s := strconv.FormatFloat(v, 'f', places, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
