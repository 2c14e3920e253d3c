package format

// Frequency renders a clock given in kHz as "x.xx GHz" from 1 GHz upward
// and "x.x MHz" below it.
func Frequency(kHz int64) string {
	mhz := float64(kHz) / 1000
	ghz := mhz / 1000
	if ghz >= 1 {
		return decimal(ghz, 2) + " GHz"
	}
	return decimal(mhz, 1) + " MHz"
}
