package model

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Profile names shipped with the service.
const (
	ProfileForecast = "forecast"
	ProfileBacktest = "backtest"
)

// The two constant sets below disagree on α, the decay fallback, the fit
// bounds and the saturation policy. Which one reflects intended production
// behavior is unresolved, so both stay selectable by name.
var builtinProfiles = map[string]Params{
	ProfileForecast: {
		Name:              ProfileForecast,
		CompletenessMag:   4.5,
		ProductivityAlpha: 0.9,
		ReferenceMag:      6.0,
		RadiusKm:          250,
		WindowsDays:       []float64{1, 7, 30},
		MagThresholds:     []float64{5.0, 5.5, 6.0, 6.5},
		Saturation:        Saturation{Policy: ClampProbability, Ceiling: 0.97},
		MinBValueSamples:  30,
		DefaultBValue:     1.0,
		MinDecaySamples:   20,
		DecayHorizonDays:  30,
		Bounds: Bounds{
			K: Range{Min: 0.05, Max: 10},
			C: Range{Min: 0.01, Max: 5},
			P: Range{Min: 0.8, Max: 1.6},
		},
		FitMaxEvaluations: 20000,
		Fallback:          DecayParameters{K: 0.3, C: 0.3, P: 1.1},
	},
	ProfileBacktest: {
		Name:              ProfileBacktest,
		CompletenessMag:   4.5,
		ProductivityAlpha: 0.6,
		ReferenceMag:      6.0,
		RadiusKm:          250,
		WindowsDays:       []float64{1, 7, 30},
		MagThresholds:     []float64{5.0},
		Saturation:        Saturation{Policy: ClampIntensity, Ceiling: 2.0},
		MinBValueSamples:  20,
		DefaultBValue:     1.0,
		MinDecaySamples:   20,
		DecayHorizonDays:  30,
		Bounds: Bounds{
			K: Range{Min: 0.01, Max: 5},
			C: Range{Min: 0.01, Max: 5},
			P: Range{Min: 0.8, Max: 1.5},
		},
		FitMaxEvaluations: 800,
		Fallback:          DecayParameters{K: 0.3, C: 0.5, P: 1.1},
	},
}

// DefaultParams returns the forecast profile.
func DefaultParams() Params {
	return builtinProfiles[ProfileForecast].Clone()
}

// Profile returns a copy of a built-in profile.
func Profile(name string) (Params, error) {
	p, ok := builtinProfiles[name]
	if !ok {
		return Params{}, configErr("profile", "unknown profile %q (known: %v)", name, ProfileNames())
	}
	return p.Clone(), nil
}

// ProfileNames lists the built-in profile names in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(builtinProfiles))
	for name := range builtinProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// profileFile is the YAML layout accepted by LoadProfiles:
//
//	profiles:
//	  iran-strict:
//	    base: forecast
//	    completeness_mag: 4.0
//	    saturation: {policy: probability, ceiling: 0.9}
type profileFile struct {
	Profiles map[string]yaml.Node `yaml:"profiles"`
}

// LoadProfiles reads profile overrides from a YAML file. Each entry starts
// from its "base" built-in profile (forecast when omitted), applies the
// fields present in the file, and must validate. The returned map also
// contains the built-in profiles that the file does not redefine.
func LoadProfiles(path string) (map[string]Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles is LoadProfiles over an in-memory document.
func ParseProfiles(data []byte) (map[string]Params, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	out := make(map[string]Params, len(builtinProfiles)+len(file.Profiles))
	for name, p := range builtinProfiles {
		out[name] = p.Clone()
	}

	for name, node := range file.Profiles {
		var header struct {
			Base string `yaml:"base"`
		}
		if err := node.Decode(&header); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		if header.Base == "" {
			header.Base = ProfileForecast
		}
		base, err := Profile(header.Base)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		// Decoding into a populated value only overwrites the keys present.
		if err := node.Decode(&base); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		base.Name = name
		if err := base.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		out[name] = base
	}
	return out, nil
}
