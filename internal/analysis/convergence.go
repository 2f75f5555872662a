package analysis

import "math"

// DefaultWindow is the number of trailing iterations used for estimates.
const DefaultWindow = 10

// Report summarises a residual history.
type Report struct {
	Iterations int
	Final      float64
	// Rate is the estimated per-iteration contraction factor. It is NaN
	// when the history is too short or contains no positive residuals.
	Rate float64
	// Converged reports whether the final residual is zero.
	Converged bool
}

// Rate returns the geometric mean of successive residual ratios over the
// last window iterations. Pairs with a zero residual are skipped.
func Rate(residuals []float64, window int) float64 {
	if window < 1 {
		window = DefaultWindow
	}
	start := max(len(residuals)-window-1, 0)

	var logSum float64
	var n int
	for i := start + 1; i < len(residuals); i++ {
		prev, cur := residuals[i-1], residuals[i]
		if prev <= 0 || cur <= 0 {
			continue
		}
		logSum += math.Log(cur / prev)
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return math.Exp(logSum / float64(n))
}

// IterationsTo estimates how many further iterations reduce the final
// residual below tol at the given rate. It returns 0 when tol is already
// met and -1 when the rate does not contract.
func IterationsTo(final, tol, rate float64) int {
	if final <= tol {
		return 0
	}
	if math.IsNaN(rate) || rate >= 1 || rate <= 0 {
		return -1
	}
	return int(math.Ceil(math.Log(tol/final) / math.Log(rate)))
}

func Analyze(residuals []float64) Report {
	r := Report{Iterations: len(residuals), Rate: math.NaN()}
	if len(residuals) == 0 {
		return r
	}
	r.Final = residuals[len(residuals)-1]
	r.Converged = r.Final == 0
	r.Rate = Rate(residuals, DefaultWindow)
	return r
}
