package model

import "math"

// SaturationPolicy selects where the saturation ceiling applies.
type SaturationPolicy string

const (
	// ClampProbability caps 1−e^(−λ) at the ceiling and leaves λ untouched.
	ClampProbability SaturationPolicy = "probability"
	// ClampIntensity caps λ at the ceiling before converting to a probability.
	ClampIntensity SaturationPolicy = "intensity"
)

// Saturation bounds forecast probabilities. Ceiling is a probability for
// ClampProbability and an expected event count for ClampIntensity.
type Saturation struct {
	Policy  SaturationPolicy `yaml:"policy"`
	Ceiling float64          `yaml:"ceiling"`
}

func (s Saturation) validate() error {
	switch s.Policy {
	case ClampProbability:
		if !(s.Ceiling > 0 && s.Ceiling <= 1) {
			return configErr("saturation.ceiling", "probability ceiling must be in (0, 1], got %g", s.Ceiling)
		}
	case ClampIntensity:
		if !(s.Ceiling > 0) || math.IsInf(s.Ceiling, 0) {
			return configErr("saturation.ceiling", "intensity cap must be positive and finite, got %g", s.Ceiling)
		}
	default:
		return configErr("saturation.policy", "unknown policy %q", s.Policy)
	}
	return nil
}

// Probability converts an expected event count into the probability of at
// least one event, applying the saturation policy. Negative or NaN
// intensities yield 0.
func (s Saturation) Probability(lambda float64) float64 {
	if !(lambda > 0) {
		return 0
	}
	if s.Policy == ClampIntensity {
		return -math.Expm1(-math.Min(lambda, s.Ceiling))
	}
	return math.Min(-math.Expm1(-lambda), s.Ceiling)
}

// MaxProbability is the largest value Probability can return.
func (s Saturation) MaxProbability() float64 {
	if s.Policy == ClampIntensity {
		return -math.Expm1(-s.Ceiling)
	}
	return s.Ceiling
}

// ExceedanceProbability combines an integrated base rate with the
// Gutenberg-Richter tail for threshold m.
func ExceedanceProbability(baseRate, m, m0, b float64, sat Saturation) float64 {
	return sat.Probability(baseRate * TailFraction(m, m0, b))
}
