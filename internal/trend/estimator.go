// Package trend classifies the direction of a numeric time series.
package trend

import "math"

// Direction is the classified movement of a series.
type Direction string

const (
	Up       Direction = "up"
	Down     Direction = "down"
	Stagnant Direction = "stagnant"
)

// RelativeThreshold is the slope cutoff as a fraction of the series mean.
// Slopes inside ±threshold*mean are noise, not movement.
const RelativeThreshold = 0.01

// Classify returns the direction of an ordered series of observations.
// The slope is an ordinary least-squares fit of value against sequence
// index rather than wall-clock time, so irregular sampling intervals do
// not bias the result. Fewer than two points, or any non-finite input,
// classifies as Stagnant.
func Classify(series []float64) Direction {
	n := len(series)
	if n < 2 {
		return Stagnant
	}

	var sum float64
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Stagnant
		}
		sum += v
	}
	mean := sum / float64(n)

	slope := olsSlope(series)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return Stagnant
	}

	threshold := math.Abs(mean) * RelativeThreshold
	switch {
	case slope > threshold:
		return Up
	case slope < -threshold:
		return Down
	default:
		return Stagnant
	}
}

// olsSlope computes the least-squares slope of series values against
// their indexes 0..n-1.
func olsSlope(series []float64) float64 {
	n := float64(len(series))

	// Mean of indexes 0..n-1 is (n-1)/2.
	xMean := (n - 1) / 2

	var yMean float64
	for _, v := range series {
		yMean += v
	}
	yMean /= n

	var num, den float64
	for i, v := range series {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}

	if den == 0 {
		return 0
	}
	return num / den
}
