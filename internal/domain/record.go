package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidRecord marks a catalog row that cannot enter the model.
var ErrInvalidRecord = errors.New("invalid catalog record")

// timeLayouts are tried in order; layouts without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseRecord validates a catalog row and converts it to an Event.
// The returned error wraps ErrInvalidRecord.
func ParseRecord(rec CatalogRecord) (Event, error) {
	if rec.Mag == nil || rec.Lat == nil || rec.Lon == nil {
		return Event{}, fmt.Errorf("%w %q: missing mag, lat or lon", ErrInvalidRecord, rec.ID)
	}
	mag, lat, lon := *rec.Mag, *rec.Lat, *rec.Lon
	if !isFinite(mag) || !isFinite(lat) || !isFinite(lon) {
		return Event{}, fmt.Errorf("%w %q: non-finite numeric field", ErrInvalidRecord, rec.ID)
	}
	if lat < -90 || lat > 90 {
		return Event{}, fmt.Errorf("%w %q: latitude %g out of range", ErrInvalidRecord, rec.ID, lat)
	}
	if lon < -180 || lon > 180 {
		return Event{}, fmt.Errorf("%w %q: longitude %g out of range", ErrInvalidRecord, rec.ID, lon)
	}

	t, err := ParseTime(rec.Time)
	if err != nil {
		return Event{}, fmt.Errorf("%w %q: %w", ErrInvalidRecord, rec.ID, err)
	}

	var depth *float64
	if rec.Depth != nil && isFinite(*rec.Depth) {
		d := *rec.Depth
		depth = &d
	}

	return Event{
		ID:        strings.TrimSpace(rec.ID),
		Time:      t,
		Magnitude: mag,
		Lat:       lat,
		Lon:       lon,
		Depth:     depth,
		Place:     strings.TrimSpace(rec.Place),
		Type:      strings.TrimSpace(rec.Type),
	}, nil
}

// ParseTime reads an ISO-8601-like timestamp and normalizes it to UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing time")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// BuildCatalog converts rows into a catalog, dropping rows that fail
// ParseRecord. The drop count is available from Catalog.Dropped.
func BuildCatalog(records []CatalogRecord) *Catalog {
	events := make([]Event, 0, len(records))
	dropped := 0
	for _, rec := range records {
		ev, err := ParseRecord(rec)
		if err != nil {
			dropped++
			continue
		}
		events = append(events, ev)
	}
	c := NewCatalog(events)
	c.dropped = dropped
	return c
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
