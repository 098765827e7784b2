package model

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// BValueStatus tells whether a b-value came from data or a fallback.
type BValueStatus string

const (
	BValueEstimated        BValueStatus = "estimated"
	BValueInsufficientData BValueStatus = "fallback_insufficient_data"
	BValueDegenerate       BValueStatus = "fallback_degenerate_sample"
)

// degenerateSpread is the smallest mean excess over M0 the Aki estimator
// accepts; below it the estimate diverges.
const degenerateSpread = 1e-9

// BValue is a Gutenberg-Richter b-value with its provenance.
type BValue struct {
	Value  float64
	N      int
	Status BValueStatus
}

// Fallback reports whether the value is a default rather than an estimate.
func (b BValue) Fallback() bool { return b.Status != BValueEstimated }

// EstimateBValue applies the Aki maximum-likelihood estimator
// b = log10(e) / (mean(M) − M0) to the magnitudes at or above m0.
func EstimateBValue(mags []float64, m0 float64, minSamples int, fallback float64) BValue {
	above := make([]float64, 0, len(mags))
	for _, m := range mags {
		if m >= m0 {
			above = append(above, m)
		}
	}
	if len(above) < minSamples || len(above) == 0 {
		return BValue{Value: fallback, N: len(above), Status: BValueInsufficientData}
	}

	spread := stat.Mean(above, nil) - m0
	if spread <= degenerateSpread {
		return BValue{Value: fallback, N: len(above), Status: BValueDegenerate}
	}
	b := math.Log10E / spread
	if !finite(b) {
		return BValue{Value: fallback, N: len(above), Status: BValueDegenerate}
	}
	return BValue{Value: b, N: len(above), Status: BValueEstimated}
}

// TailFraction is the Gutenberg-Richter fraction of events at or above m
// among those at or above m0: 10^(−b(m−m0)), or 1 when m ≤ m0.
func TailFraction(m, m0, b float64) float64 {
	if m <= m0 {
		return 1
	}
	return math.Pow(10, -b*(m-m0))
}
