package models

import "math"

// RunningStat is a Welford accumulator: mean and variance updated in O(1)
// per sample without keeping the samples.
type RunningStat struct {
	Count           int
	Mean            float64
	SumSquaredDelta float64
}

// Summary is the finalized view of a RunningStat.
type Summary struct {
	Mean   float64
	StdDev float64
}

// Update folds sample into the accumulator.
func (s *RunningStat) Update(sample float64) {
	s.Count++
	delta := sample - s.Mean
	s.Mean += delta / float64(s.Count)
	s.SumSquaredDelta += delta * (sample - s.Mean)
}

// Finalize returns the mean and sample standard deviation (n-1 divisor).
// With fewer than two samples the deviation is zero.
func (s RunningStat) Finalize() Summary {
	variance := 0.0
	if s.Count > 1 {
		variance = s.SumSquaredDelta / float64(s.Count-1)
	}
	return Summary{Mean: s.Mean, StdDev: math.Sqrt(variance)}
}
