package model

import "github.com/couchcryptid/aftershock-forecast-service/internal/domain"

// Assessment is the regional model state for one epicenter: the selected
// region, its b-value, the fitted decay and the magnitude-scaled productivity.
// Forecasts and backtests both derive their probabilities from it.
type Assessment struct {
	Region  []domain.Event
	BValue  BValue
	Decay   DecayFit
	ScaledK float64

	params Params
}

// Assess selects the region around ep, estimates b over the whole regional
// subset, fits the decay to the regional events after the origin time, and
// scales the fitted K by the epicenter magnitude.
func Assess(events []domain.Event, ep domain.Epicenter, radiusKm float64, p Params) Assessment {
	region := SelectRegion(events, ep.Lat, ep.Lon, radiusKm)

	mags := make([]float64, len(region))
	for i, ev := range region {
		mags[i] = ev.Magnitude
	}
	b := EstimateBValue(mags, p.CompletenessMag, p.MinBValueSamples, p.DefaultBValue)
	fit := FitDecay(region, ep.OriginTime, p)

	return Assessment{
		Region:  region,
		BValue:  b,
		Decay:   fit,
		ScaledK: ScaleProductivity(fit.Params.K, ep.Magnitude, p.ProductivityAlpha, p.ReferenceMag),
		params:  p,
	}
}

// Scaled returns the decay parameters with K replaced by the scaled K.
func (a Assessment) Scaled() DecayParameters {
	d := a.Decay.Params
	d.K = a.ScaledK
	return d
}

// Intensity is the expected number of events at or above threshold within
// windowDays of the origin, before saturation.
func (a Assessment) Intensity(windowDays, threshold float64) float64 {
	base := IntegrateRate(a.Scaled(), windowDays)
	return base * TailFraction(threshold, a.params.CompletenessMag, a.BValue.Value)
}

// Probability is the saturated probability of at least one event at or
// above threshold within windowDays.
func (a Assessment) Probability(windowDays, threshold float64) float64 {
	return a.params.Saturation.Probability(a.Intensity(windowDays, threshold))
}
