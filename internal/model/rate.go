package model

import "math"

// unitExponentTolerance selects the logarithmic antiderivative near p = 1.
const unitExponentTolerance = 1e-6

// DecayParameters are the Omori-Utsu constants of rate(t) = K/(c+t)^p,
// t in days.
type DecayParameters struct {
	K float64 `yaml:"k" json:"k"`
	C float64 `yaml:"c" json:"c"`
	P float64 `yaml:"p" json:"p"`
}

// Rate evaluates the decay law at t days.
func (d DecayParameters) Rate(t float64) float64 {
	return d.K / math.Pow(d.C+t, d.P)
}

// ScaleProductivity rescales K for a mainshock of magnitude mag relative to
// the reference magnitude: K·10^(α(mag−ref)).
func ScaleProductivity(k, mag, alpha, ref float64) float64 {
	return k * math.Pow(10, alpha*(mag-ref))
}

// IntegrateRate returns the expected event count ∫₀ᵀ K/(c+t)^p dt.
func IntegrateRate(d DecayParameters, days float64) float64 {
	if !(days > 0) || !(d.K > 0) {
		return 0
	}
	if math.Abs(d.P-1) < unitExponentTolerance {
		return d.K * math.Log((d.C+days)/d.C)
	}
	q := 1 - d.P
	return d.K / q * (math.Pow(d.C+days, q) - math.Pow(d.C, q))
}
