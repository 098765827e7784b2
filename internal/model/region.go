package model

import (
	"math"

	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
)

// EarthRadiusKm is the mean radius of the sphere used for distances.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance in km between two points given
// in decimal degrees, using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	// Rounding can push a a hair past 1 for antipodal points.
	a = math.Min(math.Max(a, 0), 1)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// SelectRegion returns the events within radiusKm of (lat, lon), preserving
// input order. A non-positive radius selects nothing.
func SelectRegion(events []domain.Event, lat, lon, radiusKm float64) []domain.Event {
	out := make([]domain.Event, 0)
	if !(radiusKm > 0) {
		return out
	}
	for _, ev := range events {
		if Distance(lat, lon, ev.Lat, ev.Lon) <= radiusKm {
			out = append(out, ev)
		}
	}
	return out
}
