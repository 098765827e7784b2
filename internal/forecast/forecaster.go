// Package forecast turns a catalog and an epicenter into an aftershock
// probability table, and replays the same computation over historical
// mainshocks to measure how often it was right.
package forecast

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
	"github.com/couchcryptid/aftershock-forecast-service/internal/model"
	"github.com/couchcryptid/aftershock-forecast-service/internal/observability"
)

// Forecaster computes forecast tables under one set of model parameters.
// It holds no per-call state and is safe for concurrent use.
type Forecaster struct {
	params  model.Params
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New validates params and returns a Forecaster. The returned error wraps
// model.ErrConfiguration.
func New(params model.Params, logger *slog.Logger, metrics *observability.Metrics) (*Forecaster, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Forecaster{
		params:  params.Clone(),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Params returns a copy of the forecaster's model parameters.
func (f *Forecaster) Params() model.Params {
	return f.params.Clone()
}

// Forecast computes the probability table for ep using the events of catalog
// within radiusKm. A zero origin time means "now".
func (f *Forecaster) Forecast(catalog *domain.Catalog, ep domain.Epicenter, radiusKm float64) (domain.ForecastTable, error) {
	if err := checkEpicenter(ep); err != nil {
		return domain.ForecastTable{}, err
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return domain.ForecastTable{}, &model.ConfigError{Field: "radius_km", Reason: "must be finite"}
	}
	if ep.OriginTime.IsZero() {
		ep.OriginTime = domain.Now()
	}

	start := time.Now()
	a := model.Assess(catalog.Events(), ep, radiusKm, f.params)

	cells := make([]domain.ForecastCell, 0, len(f.params.WindowsDays)*len(f.params.MagThresholds))
	for _, w := range f.params.WindowsDays {
		for _, m := range f.params.MagThresholds {
			prob := a.Probability(w, m)
			cells = append(cells, domain.ForecastCell{
				Window:      domain.WindowLabel(w),
				WindowDays:  w,
				Magnitude:   domain.MagnitudeLabel(m),
				Threshold:   m,
				Probability: prob,
				Percent:     domain.Round(prob*100, 1),
			})
		}
	}

	f.observe(a, time.Since(start))
	f.logger.Debug("forecast computed",
		"lat", ep.Lat,
		"lon", ep.Lon,
		"mag", ep.Magnitude,
		"region_events", len(a.Region),
		"b_value", a.BValue.Value,
		"b_value_status", a.BValue.Status,
		"decay_status", a.Decay.Status,
		"scaled_k", a.ScaledK,
	)

	return domain.ForecastTable{
		Epicenter:   ep,
		RadiusKm:    radiusKm,
		Profile:     f.params.Name,
		Model:       summarize(a),
		Cells:       cells,
		GeneratedAt: domain.Now(),
	}, nil
}

func (f *Forecaster) observe(a model.Assessment, elapsed time.Duration) {
	if f.metrics == nil {
		return
	}
	f.metrics.ForecastsTotal.WithLabelValues(f.params.Name).Inc()
	f.metrics.ForecastDuration.Observe(elapsed.Seconds())
	f.metrics.DecayFits.WithLabelValues(string(a.Decay.Status)).Inc()
	f.metrics.BValueEstimates.WithLabelValues(string(a.BValue.Status)).Inc()
}

func summarize(a model.Assessment) domain.ModelSummary {
	return domain.ModelSummary{
		BValue:       a.BValue.Value,
		BValueStatus: string(a.BValue.Status),
		BValueN:      a.BValue.N,
		K:            a.Decay.Params.K,
		C:            a.Decay.Params.C,
		P:            a.Decay.Params.P,
		DecayStatus:  string(a.Decay.Status),
		DecayN:       a.Decay.N,
		ScaledK:      a.ScaledK,
		RegionEvents: len(a.Region),
	}
}

func checkEpicenter(ep domain.Epicenter) error {
	for _, v := range []struct {
		field string
		value float64
	}{
		{"lat", ep.Lat},
		{"lon", ep.Lon},
		{"mag", ep.Magnitude},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return &model.ConfigError{Field: v.field, Reason: fmt.Sprintf("epicenter %s must be finite", v.field)}
		}
	}
	return nil
}
