package trend

import (
	"math"
	"testing"
)

func almostEq(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMeanAndStddev(t *testing.T) {
	if got := mean(nil); got != 0 {
		t.Errorf("mean(nil) = %v, want 0", got)
	}
	if got := mean([]float64{40, 60}); got != 50 {
		t.Errorf("mean = %v, want 50", got)
	}
	if got := stddev([]float64{42}, 42); got != 0 {
		t.Errorf("stddev of single sample = %v, want 0", got)
	}
	if got := stddev([]float64{40, 60}, 50); !almostEq(got, 10, 1e-9) {
		t.Errorf("stddev = %v, want 10", got)
	}
	if got := stddev([]float64{50, 50, 50, 50}, 50); got != 0 {
		t.Errorf("stddev of flat series = %v, want 0", got)
	}
}

func TestLinearFitPerfectLine(t *testing.T) {
	slope, intercept, r2 := LinearFit([]float64{1, 3, 5, 7})
	if !almostEq(slope, 2, 1e-9) {
		t.Errorf("slope = %v, want 2", slope)
	}
	if !almostEq(intercept, 1, 1e-9) {
		t.Errorf("intercept = %v, want 1", intercept)
	}
	if !almostEq(r2, 1, 1e-9) {
		t.Errorf("r2 = %v, want 1", r2)
	}
}

func TestLinearFitDegenerate(t *testing.T) {
	tests := []struct {
		name string
		ys   []float64
	}{
		{"empty", nil},
		{"single point", []float64{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slope, intercept, r2 := LinearFit(tt.ys)
			if slope != 0 || intercept != 0 || r2 != 0 {
				t.Errorf("LinearFit(%v) = (%v, %v, %v), want zeros", tt.ys, slope, intercept, r2)
			}
		})
	}

	// A flat line has a well-defined zero slope but no correlation.
	slope, intercept, r2 := LinearFit([]float64{5, 5, 5})
	if slope != 0 || intercept != 5 {
		t.Errorf("flat fit = (%v, %v), want slope 0, intercept 5", slope, intercept)
	}
	if r2 != 0 {
		t.Errorf("flat fit r2 = %v, want 0", r2)
	}
}

func TestLinearFitNoisySeries(t *testing.T) {
	slope, _, r2 := LinearFit([]float64{0, 2, 1, 3, 2, 4})
	if slope <= 0 {
		t.Errorf("slope = %v, want positive", slope)
	}
	if r2 <= 0 || r2 >= 1 {
		t.Errorf("r2 = %v, want strictly between 0 and 1", r2)
	}
}
