package utils

import "math"

func FloatToInt64(num float64) int64 {
	// Round to the nearest even integer
	rounded := math.RoundToEven(num)

	return int64(rounded)
}

// BitsToMbps converts an IF-MIB ifSpeed reading (bits per second) to Mbps.
func BitsToMbps(bits uint64) int64 {
	return int64(bits / 1000000)
}

// ProgressPercent rounds scanned/total to a whole percentage.
func ProgressPercent(scanned int, total int) int {
	if total <= 0 {
		return 100
	}
	return int(FloatToInt64(float64(scanned) / float64(total) * 100))
}
