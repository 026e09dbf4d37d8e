package models

// Baselines used by the snapshot Score section.
const (
	ValueDeviationBaseline = 0.75
	StepsDeviationBaseline = 5.0
)

// Score maps a standard deviation to a 0-100 quality score: 100 at zero
// deviation, dropping by 50 points per baseline of deviation, rounded to two
// decimals.
func Score(stdDev, baseline float64) float64 {
	s := 100 - (stdDev/baseline)*50
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return Round(s, 2)
}
