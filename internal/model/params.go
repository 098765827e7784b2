// Package model implements the aggregate Omori-Utsu + Gutenberg-Richter
// aftershock model: regional selection, b-value estimation, decay fitting,
// productivity scaling, rate integration and exceedance probability.
//
// Every function is pure and parameterized by an immutable Params value.
// Modeling fallbacks (too little data, a failed fit, a degenerate sample) are
// reported through status values, never through errors; only an invalid
// Params value produces an error.
package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrConfiguration is wrapped by every ConfigError.
var ErrConfiguration = errors.New("invalid model configuration")

// ConfigError reports a parameter that makes the model meaningless.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

func configErr(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Range is a closed parameter interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Bounds constrains the decay fit.
type Bounds struct {
	K Range `yaml:"k"`
	C Range `yaml:"c"`
	P Range `yaml:"p"`
}

// Params is the complete, immutable model configuration. Pass it by value.
type Params struct {
	Name string `yaml:"name"`

	CompletenessMag   float64 `yaml:"completeness_mag"`
	ProductivityAlpha float64 `yaml:"productivity_alpha"`
	ReferenceMag      float64 `yaml:"reference_mag"`
	RadiusKm          float64 `yaml:"radius_km"`

	WindowsDays   []float64 `yaml:"windows_days"`
	MagThresholds []float64 `yaml:"mag_thresholds"`

	Saturation Saturation `yaml:"saturation"`

	MinBValueSamples int     `yaml:"min_bvalue_samples"`
	DefaultBValue    float64 `yaml:"default_bvalue"`

	MinDecaySamples   int             `yaml:"min_decay_samples"`
	DecayHorizonDays  int             `yaml:"decay_horizon_days"`
	Bounds            Bounds          `yaml:"bounds"`
	FitMaxEvaluations int             `yaml:"fit_max_evaluations"`
	Fallback          DecayParameters `yaml:"fallback"`
}

// Validate rejects parameter sets with no meaningful model interpretation.
func (p Params) Validate() error {
	if !finite(p.CompletenessMag) {
		return configErr("completeness_mag", "must be finite")
	}
	if !finite(p.ProductivityAlpha) || p.ProductivityAlpha < 0 {
		return configErr("productivity_alpha", "must be a non-negative number, got %g", p.ProductivityAlpha)
	}
	if !finite(p.ReferenceMag) {
		return configErr("reference_mag", "must be finite")
	}
	if !finite(p.RadiusKm) || p.RadiusKm <= 0 {
		return configErr("radius_km", "must be positive, got %g", p.RadiusKm)
	}
	if len(p.WindowsDays) == 0 {
		return configErr("windows_days", "at least one window is required")
	}
	for _, w := range p.WindowsDays {
		if !finite(w) || w < 0 {
			return configErr("windows_days", "window %g days is negative", w)
		}
	}
	if len(p.MagThresholds) == 0 {
		return configErr("mag_thresholds", "at least one threshold is required")
	}
	for _, m := range p.MagThresholds {
		if !finite(m) || m < p.CompletenessMag {
			return configErr("mag_thresholds", "threshold %g is below completeness magnitude %g", m, p.CompletenessMag)
		}
	}
	if err := p.Saturation.validate(); err != nil {
		return err
	}
	if p.MinBValueSamples < 1 {
		return configErr("min_bvalue_samples", "must be at least 1")
	}
	if !finite(p.DefaultBValue) || p.DefaultBValue <= 0 {
		return configErr("default_bvalue", "must be positive")
	}
	if p.MinDecaySamples < 1 {
		return configErr("min_decay_samples", "must be at least 1")
	}
	if p.DecayHorizonDays < 1 {
		return configErr("decay_horizon_days", "must be at least 1")
	}
	if p.FitMaxEvaluations < 1 {
		return configErr("fit_max_evaluations", "must be at least 1")
	}
	for name, r := range map[string]Range{"bounds.k": p.Bounds.K, "bounds.c": p.Bounds.C, "bounds.p": p.Bounds.P} {
		if !finite(r.Min) || !finite(r.Max) || r.Min <= 0 || r.Max <= r.Min {
			return configErr(name, "need 0 < min < max, got [%g, %g]", r.Min, r.Max)
		}
	}
	if !p.Bounds.K.Contains(p.Fallback.K) || !p.Bounds.C.Contains(p.Fallback.C) || !p.Bounds.P.Contains(p.Fallback.P) {
		return configErr("fallback", "(%g, %g, %g) lies outside the fit bounds", p.Fallback.K, p.Fallback.C, p.Fallback.P)
	}
	return nil
}

// Clone returns a deep copy so callers cannot share slice storage.
func (p Params) Clone() Params {
	p.WindowsDays = slices.Clone(p.WindowsDays)
	p.MagThresholds = slices.Clone(p.MagThresholds)
	return p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
