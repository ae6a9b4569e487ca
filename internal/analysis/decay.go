package analysis

import "math"

// HalfLife estimates the half-life of a monotone exponential decay by
// least-squares fitting log(c) against t over the strictly positive prefix
// of the series. Returns 0 when the series is not a usable decay.
func HalfLife(times, data []float64) float64 {
	if len(times) != len(data) || len(data) < 3 {
		return 0
	}

	// Fit ln(c) = a + b*t on positive samples.
	n := 0
	var sumT, sumY, sumTT, sumTY float64
	for i := range data {
		if data[i] <= 0 {
			break
		}
		y := math.Log(data[i])
		sumT += times[i]
		sumY += y
		sumTT += times[i] * times[i]
		sumTY += times[i] * y
		n++
	}
	if n < 3 {
		return 0
	}

	fn := float64(n)
	denom := fn*sumTT - sumT*sumT
	if denom == 0 {
		return 0
	}
	b := (fn*sumTY - sumT*sumY) / denom
	if b >= 0 {
		return 0
	}
	return math.Ln2 / -b
}
