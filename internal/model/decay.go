package model

import (
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
)

// DecayStatus tells whether decay parameters were fitted or defaulted.
type DecayStatus string

const (
	Fitted                   DecayStatus = "fitted"
	FallbackInsufficientData DecayStatus = "fallback_insufficient_data"
	FallbackOptimizerFailure DecayStatus = "fallback_optimizer_failure"
)

// DecayFit is the outcome of fitting the Omori-Utsu law to a daily histogram.
type DecayFit struct {
	Params      DecayParameters
	Status      DecayStatus
	N           int     // events in the histogram
	Evaluations int     // objective evaluations spent by the solver
	Cost        float64 // sum of squared residuals at Params; NaN for fallbacks
}

// Fallback reports whether Params are the configured defaults.
func (f DecayFit) Fallback() bool { return f.Status != Fitted }

// DailyCounts bins the events strictly after origin into integer-day bins
// [0, horizonDays). An event exactly at the horizon counts in the last bin;
// later events are ignored. It returns the histogram and the binned total.
func DailyCounts(events []domain.Event, origin time.Time, horizonDays int) ([]float64, int) {
	counts := make([]float64, horizonDays)
	n := 0
	horizon := float64(horizonDays)
	for _, ev := range events {
		if !ev.Time.After(origin) {
			continue
		}
		days := ev.Time.Sub(origin).Hours() / 24
		if days > horizon {
			continue
		}
		bin := int(math.Floor(days))
		if bin >= horizonDays {
			bin = horizonDays - 1
		}
		counts[bin]++
		n++
	}
	return counts, n
}

// FitDecay fits rate(t) = K/(c+t)^p to the daily aftershock histogram after
// origin by bounded least squares. Bin i is regressed at t = i+1 days so the
// fit never evaluates the t = 0 singularity.
func FitDecay(events []domain.Event, origin time.Time, p Params) DecayFit {
	counts, n := DailyCounts(events, origin, p.DecayHorizonDays)
	if n < p.MinDecaySamples {
		return DecayFit{Params: p.Fallback, Status: FallbackInsufficientData, N: n, Cost: math.NaN()}
	}

	b := p.Bounds
	ranges := [3]Range{b.K, b.C, b.P}
	toParams := func(u []float64) DecayParameters {
		return DecayParameters{
			K: squash(u[0], ranges[0]),
			C: squash(u[1], ranges[1]),
			P: squash(u[2], ranges[2]),
		}
	}
	cost := func(d DecayParameters) float64 {
		var sum float64
		for i, observed := range counts {
			r := d.Rate(float64(i+1)) - observed
			sum += r * r
		}
		return sum
	}

	problem := optimize.Problem{
		Func: func(u []float64) float64 { return cost(toParams(u)) },
	}
	init := make([]float64, 3)
	for i, r := range ranges {
		init[i] = unsquash(initialGuess(r), r)
	}
	settings := &optimize.Settings{
		MajorIterations: p.FitMaxEvaluations,
		FuncEvaluations: p.FitMaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 50,
		},
	}

	res, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if err != nil || res == nil || !converged(res.Status) {
		evals := 0
		if res != nil {
			evals = res.Stats.FuncEvaluations
		}
		return DecayFit{Params: p.Fallback, Status: FallbackOptimizerFailure, N: n, Evaluations: evals, Cost: math.NaN()}
	}

	fitted := toParams(res.X)
	c := cost(fitted)
	if !finite(fitted.K) || !finite(fitted.C) || !finite(fitted.P) || !finite(c) {
		return DecayFit{Params: p.Fallback, Status: FallbackOptimizerFailure, N: n, Evaluations: res.Stats.FuncEvaluations, Cost: math.NaN()}
	}
	return DecayFit{Params: fitted, Status: Fitted, N: n, Evaluations: res.Stats.FuncEvaluations, Cost: c}
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.FunctionThreshold,
		optimize.GradientThreshold, optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}

// initialGuess starts at 1 for every parameter, as the least-squares fit has
// always done, unless 1 lies outside the open interval.
func initialGuess(r Range) float64 {
	if r.Min < 1 && 1 < r.Max {
		return 1
	}
	return (r.Min + r.Max) / 2
}

// squash maps an unconstrained value into the open interval (r.Min, r.Max).
func squash(u float64, r Range) float64 {
	return r.Min + (r.Max-r.Min)/(1+math.Exp(-u))
}

// unsquash is the inverse of squash for values strictly inside the range.
func unsquash(x float64, r Range) float64 {
	return math.Log((x - r.Min) / (r.Max - x))
}
