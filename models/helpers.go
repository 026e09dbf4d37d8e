package models

import (
	"math"
	"strconv"
)

// ─── shared formatting helpers ──────────────────────────────────────────

func ftoa(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// Round rounds v to places decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// AsFloat reports v as a float64 when it is numeric.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// FormatNumber renders v with the shortest representation that round-trips,
// e.g. 1 -> "1", 0.125 -> "0.125".
func FormatNumber(v float64) string {
	return ftoa(v, -1)
}

// FormatFixed renders v with exactly prec decimals.
func FormatFixed(v float64, prec int) string {
	return ftoa(v, prec)
}
