package domain

import (
	"context"
	"slices"
	"time"
)

// CatalogRecord is one tabular catalog row as produced by the downloader.
// Numeric columns are pointers so a missing value is distinguishable from zero.
type CatalogRecord struct {
	ID    string   `json:"id"`
	Time  string   `json:"time"`
	Mag   *float64 `json:"mag"`
	Depth *float64 `json:"depth"`
	Lon   *float64 `json:"lon"`
	Lat   *float64 `json:"lat"`
	Place string   `json:"place"`
	Type  string   `json:"type"`
}

// Event is a validated catalog earthquake. Time is always UTC.
type Event struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Magnitude float64   `json:"mag"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Depth     *float64  `json:"depth,omitempty"`
	Place     string    `json:"place,omitempty"`
	Type      string    `json:"type,omitempty"`
}

// Catalog is a time-ordered, read-only snapshot of events. It is safe for
// concurrent readers once constructed.
type Catalog struct {
	events  []Event
	dropped int
}

// NewCatalog copies events into a catalog sorted by origin time. Events with
// equal times keep their input order.
func NewCatalog(events []Event) *Catalog {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int {
		return a.Time.Compare(b.Time)
	})
	return &Catalog{events: sorted}
}

// Events returns the catalog's events in time order. The slice is shared with
// the catalog and must not be modified; its capacity is clipped so appends
// never write into catalog storage.
func (c *Catalog) Events() []Event {
	return slices.Clip(c.events)
}

// Len returns the number of events in the catalog.
func (c *Catalog) Len() int { return len(c.events) }

// Dropped returns the number of input rows rejected by BuildCatalog.
func (c *Catalog) Dropped() int { return c.dropped }

// Epicenter is the query point of a forecast: where and when the mainshock
// happened and how large it was. It need not be a catalog event.
type Epicenter struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Magnitude  float64   `json:"mag"`
	OriginTime time.Time `json:"time"`
}

// EpicenterOf returns the epicenter described by a catalog event.
func EpicenterOf(e Event) Epicenter {
	return Epicenter{Lat: e.Lat, Lon: e.Lon, Magnitude: e.Magnitude, OriginTime: e.Time}
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
