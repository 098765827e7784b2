package domain

import (
	"context"
	"log/slog"
)

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves coordinates to a human-readable place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// PlaceLabel returns a display name for an epicenter. A nil geocoder, a
// failed lookup, or an empty result yields "" (graceful degradation).
func PlaceLabel(ctx context.Context, ep Epicenter, geocoder Geocoder, logger *slog.Logger) string {
	if geocoder == nil {
		return ""
	}
	result, err := geocoder.ReverseGeocode(ctx, ep.Lat, ep.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", ep.Lat,
			"lon", ep.Lon,
			"error", err,
		)
		return ""
	}
	if result.FormattedAddress != "" {
		return result.FormattedAddress
	}
	return result.PlaceName
}
