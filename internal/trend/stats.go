package trend

import "math"

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation around mu.
func stddev(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// LinearFit fits y = slope*x + intercept by least squares, with x being
// the sample index 0..n-1. r2 is the squared Pearson correlation; a
// degenerate series (fewer than 2 points, or zero variance on either
// axis) yields r2 = 0.
func LinearFit(ys []float64) (slope, intercept, r2 float64) {
	n := float64(len(ys))
	if n < 2 {
		return 0, 0, 0
	}

	var sx, sy, sxx, syy, sxy float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		syy += y * y
		sxy += x * y
	}

	den := n*sxx - sx*sx
	if den == 0 {
		return 0, 0, 0
	}
	slope = (n*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / n

	rden := math.Sqrt((n*sxx - sx*sx) * (n*syy - sy*sy))
	if rden == 0 {
		return slope, intercept, 0
	}
	r := (n*sxy - sx*sy) / rden
	return slope, intercept, r * r
}
