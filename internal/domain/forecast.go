package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ForecastRequest is the wire form of a mainshock alert. Time is optional;
// an empty time means "now".
type ForecastRequest struct {
	ID       string   `json:"id"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Mag      *float64 `json:"mag"`
	Time     string   `json:"time,omitempty"`
	RadiusKm float64  `json:"radius_km,omitempty"`
}

// ParseForecastRequest decodes a JSON mainshock alert.
func ParseForecastRequest(data []byte) (ForecastRequest, error) {
	var req ForecastRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ForecastRequest{}, fmt.Errorf("parse forecast request: %w", err)
	}
	if req.Lat == nil || req.Lon == nil || req.Mag == nil {
		return ForecastRequest{}, fmt.Errorf("parse forecast request %q: lat, lon and mag are required", req.ID)
	}
	return req, nil
}

// Epicenter converts the request into an epicenter. A zero OriginTime is
// returned when the request carries no time.
func (r ForecastRequest) Epicenter() (Epicenter, error) {
	ep := Epicenter{}
	if r.Lat != nil {
		ep.Lat = *r.Lat
	}
	if r.Lon != nil {
		ep.Lon = *r.Lon
	}
	if r.Mag != nil {
		ep.Magnitude = *r.Mag
	}
	if r.Time != "" {
		t, err := ParseTime(r.Time)
		if err != nil {
			return Epicenter{}, fmt.Errorf("request %q: %w", r.ID, err)
		}
		ep.OriginTime = t
	}
	return ep, nil
}

// ForecastCell is the exceedance probability for one window and threshold.
type ForecastCell struct {
	Window      string  `json:"window"`
	WindowDays  float64 `json:"window_days"`
	Magnitude   string  `json:"magnitude"`
	Threshold   float64 `json:"threshold"`
	Probability float64 `json:"probability"`
	Percent     float64 `json:"percent"`
}

// ModelSummary reports the fitted quantities behind a forecast and whether
// each came from data or from a fallback.
type ModelSummary struct {
	BValue       float64 `json:"b_value"`
	BValueStatus string  `json:"b_value_status"`
	BValueN      int     `json:"b_value_n"`
	K            float64 `json:"k"`
	C            float64 `json:"c"`
	P            float64 `json:"p"`
	DecayStatus  string  `json:"decay_status"`
	DecayN       int     `json:"decay_n"`
	ScaledK      float64 `json:"scaled_k"`
	RegionEvents int     `json:"region_events"`
}

// ForecastTable is the complete forecast for one epicenter query.
type ForecastTable struct {
	ID          string         `json:"id,omitempty"`
	Epicenter   Epicenter      `json:"epicenter"`
	Place       string         `json:"place,omitempty"`
	RadiusKm    float64        `json:"radius_km"`
	Profile     string         `json:"profile"`
	Model       ModelSummary   `json:"model"`
	Cells       []ForecastCell `json:"cells"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Cell returns the cell for the given window and threshold.
func (t ForecastTable) Cell(windowDays, threshold float64) (ForecastCell, bool) {
	for _, c := range t.Cells {
		if c.WindowDays == windowDays && c.Threshold == threshold {
			return c, true
		}
	}
	return ForecastCell{}, false
}

// WindowLabel names a forecast window the way USGS forecasts do.
func WindowLabel(days float64) string {
	switch days {
	case 1:
		return "1 Day"
	case 7:
		return "1 Week"
	case 30:
		return "1 Month"
	}
	return fmt.Sprintf("%g Days", days)
}

// MagnitudeLabel renders a threshold as "M ≥ 5.0".
func MagnitudeLabel(threshold float64) string {
	return fmt.Sprintf("M ≥ %.1f", threshold)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// ValidationRecord is one backtest outcome for a mainshock and window.
type ValidationRecord struct {
	MainshockID    string  `json:"mainshock_id"`
	MainshockMag   float64 `json:"mainshock_mag"`
	WindowDays     float64 `json:"window_days"`
	PredictedProb  float64 `json:"predicted_prob"`
	PredictedEvent bool    `json:"predicted_event"`
	ObservedEvent  bool    `json:"observed_event"`
	Correct        bool    `json:"correct"`
}

// WindowAccuracy aggregates validation records for one window.
type WindowAccuracy struct {
	WindowDays float64 `json:"window_days"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percent    float64 `json:"percent"`
}

// ValidationReport is the output of a backtest run.
type ValidationReport struct {
	Profile  string             `json:"profile"`
	Records  []ValidationRecord `json:"records"`
	Accuracy []WindowAccuracy   `json:"accuracy"`
}
