package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestWindowLabel(t *testing.T) {
	assert.Equal(t, "1 Day", WindowLabel(1))
	assert.Equal(t, "1 Week", WindowLabel(7))
	assert.Equal(t, "1 Month", WindowLabel(30))
	assert.Equal(t, "3 Days", WindowLabel(3))
	assert.Equal(t, "0.5 Days", WindowLabel(0.5))
}

func TestMagnitudeLabel(t *testing.T) {
	assert.Equal(t, "M ≥ 5.0", MagnitudeLabel(5))
	assert.Equal(t, "M ≥ 6.5", MagnitudeLabel(6.5))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.3, Round(12.34, 1))
	assert.Equal(t, 0.457, Round(0.4567, 3))
	assert.Equal(t, 97.0, Round(96.99, 1))
}

func TestParseForecastRequest(t *testing.T) {
	t.Run("full request", func(t *testing.T) {
		req, err := ParseForecastRequest([]byte(`{"id":"alert-1","lat":35.69,"lon":51.39,"mag":6.2,"time":"2024-05-01T03:00:00Z","radius_km":150}`))
		require.NoError(t, err)
		assert.Equal(t, "alert-1", req.ID)
		assert.Equal(t, 150.0, req.RadiusKm)

		ep, err := req.Epicenter()
		require.NoError(t, err)
		assert.Equal(t, 35.69, ep.Lat)
		assert.Equal(t, 51.39, ep.Lon)
		assert.Equal(t, 6.2, ep.Magnitude)
		assert.Equal(t, time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC), ep.OriginTime)
	})

	t.Run("time omitted", func(t *testing.T) {
		req, err := ParseForecastRequest([]byte(`{"lat":35.69,"lon":51.39,"mag":6.2}`))
		require.NoError(t, err)
		ep, err := req.Epicenter()
		require.NoError(t, err)
		assert.True(t, ep.OriginTime.IsZero())
	})

	t.Run("missing magnitude", func(t *testing.T) {
		_, err := ParseForecastRequest([]byte(`{"lat":35.69,"lon":51.39}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseForecastRequest([]byte(`{nope`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse forecast request")
	})

	t.Run("bad time", func(t *testing.T) {
		req, err := ParseForecastRequest([]byte(`{"lat":1,"lon":2,"mag":6,"time":"soon"}`))
		require.NoError(t, err)
		_, err = req.Epicenter()
		require.Error(t, err)
	})
}

func TestForecastTable_Cell(t *testing.T) {
	table := ForecastTable{Cells: []ForecastCell{
		{WindowDays: 1, Threshold: 5, Probability: 0.2},
		{WindowDays: 7, Threshold: 5, Probability: 0.4},
	}}

	c, ok := table.Cell(7, 5)
	require.True(t, ok)
	assert.Equal(t, 0.4, c.Probability)

	_, ok = table.Cell(30, 5)
	assert.False(t, ok)
}

func TestPlaceLabel(t *testing.T) {
	ep := Epicenter{Lat: 35.69, Lon: 51.39}

	t.Run("nil geocoder", func(t *testing.T) {
		assert.Empty(t, PlaceLabel(context.Background(), ep, nil, discardLogger()))
	})

	t.Run("formatted address preferred", func(t *testing.T) {
		geo := &mockGeocoder{result: GeocodingResult{FormattedAddress: "Tehran, Tehran Province, Iran", PlaceName: "Tehran"}}
		assert.Equal(t, "Tehran, Tehran Province, Iran", PlaceLabel(context.Background(), ep, geo, discardLogger()))
		assert.Equal(t, 1, geo.calls)
	})

	t.Run("place name fallback", func(t *testing.T) {
		geo := &mockGeocoder{result: GeocodingResult{PlaceName: "Tehran"}}
		assert.Equal(t, "Tehran", PlaceLabel(context.Background(), ep, geo, discardLogger()))
	})

	t.Run("error degrades to empty", func(t *testing.T) {
		geo := &mockGeocoder{err: errors.New("rate limited")}
		assert.Empty(t, PlaceLabel(context.Background(), ep, geo, discardLogger()))
	})
}
