package metrics

import "math"

const (
	irrMaxIterations = 100
	irrTolerance     = 1e-7
	irrInitialGuess  = 0.1

	// Bisection bounds: -99.99% to +1000% annualized.
	irrLowerBound = -0.9999
	irrUpperBound = 10.0

	daysPerYear = 365.25
)

// solveIRR finds the annualized rate that zeroes the net present
// value of the dated cash flows. Requires at least one negative and
// one positive flow. Returns ok=false for a degenerate timeline or
// when neither Newton's method nor bisection converges.
func solveIRR(flows []cashFlow) (float64, bool) {
	if len(flows) < 2 {
		return 0, false
	}

	hasNegative, hasPositive := false, false
	for _, f := range flows {
		if f.amount < 0 {
			hasNegative = true
		}
		if f.amount > 0 {
			hasPositive = true
		}
	}
	if !hasNegative || !hasPositive {
		return 0, false
	}

	// Years from the first flow, actual/365.25.
	t0 := flows[0].tx.Date
	years := make([]float64, len(flows))
	for i, f := range flows {
		years[i] = f.tx.Date.Sub(t0).Hours() / 24 / daysPerYear
	}

	npv := func(rate float64) float64 {
		total := 0.0
		for i, f := range flows {
			total += f.amount / math.Pow(1+rate, years[i])
		}
		return total
	}

	// Newton's method with a numeric derivative.
	rate := irrInitialGuess
	for i := 0; i < irrMaxIterations; i++ {
		value := npv(rate)
		if math.Abs(value) < irrTolerance {
			return rate, true
		}

		const h = 1e-6
		derivative := (npv(rate+h) - value) / h
		if derivative == 0 || math.IsNaN(derivative) || math.IsInf(derivative, 0) {
			break
		}

		next := rate - value/derivative
		if next <= irrLowerBound || math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		if math.Abs(next-rate) < irrTolerance {
			return next, true
		}
		rate = next
	}

	return bisectIRR(npv)
}

func bisectIRR(npv func(float64) float64) (float64, bool) {
	lo, hi := irrLowerBound, irrUpperBound
	fLo, fHi := npv(lo), npv(hi)
	if math.IsNaN(fLo) || math.IsNaN(fHi) || fLo*fHi > 0 {
		return 0, false
	}

	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fMid := npv(mid)
		if math.Abs(fMid) < irrTolerance || (hi-lo)/2 < irrTolerance {
			return mid, true
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}

	return 0, false
}
