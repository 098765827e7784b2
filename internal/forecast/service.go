package forecast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
)

// CatalogSource returns the catalog snapshot identified by source.
type CatalogSource interface {
	Load(ctx context.Context, source string) (*domain.Catalog, error)
}

// CatalogLoadError reports that the catalog behind a request could not be read.
type CatalogLoadError struct {
	Source string
	Err    error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("load catalog %s: %v", e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// Service answers forecast requests against one catalog source.
type Service struct {
	forecaster *Forecaster
	catalogs   CatalogSource
	source     string
	geocoder   domain.Geocoder
	logger     *slog.Logger
}

// NewService creates a Service. Pass a nil geocoder to leave Place empty.
func NewService(f *Forecaster, catalogs CatalogSource, source string, geocoder domain.Geocoder, logger *slog.Logger) *Service {
	return &Service{
		forecaster: f,
		catalogs:   catalogs,
		source:     source,
		geocoder:   geocoder,
		logger:     logger,
	}
}

// Resolve computes the forecast table for req. A request without a radius
// uses the profile radius.
func (s *Service) Resolve(ctx context.Context, req domain.ForecastRequest) (domain.ForecastTable, error) {
	ep, err := req.Epicenter()
	if err != nil {
		return domain.ForecastTable{}, err
	}

	catalog, err := s.catalogs.Load(ctx, s.source)
	if err != nil {
		return domain.ForecastTable{}, &CatalogLoadError{Source: s.source, Err: err}
	}

	radius := req.RadiusKm
	if radius == 0 {
		radius = s.forecaster.params.RadiusKm
	}

	table, err := s.forecaster.Forecast(catalog, ep, radius)
	if err != nil {
		return domain.ForecastTable{}, fmt.Errorf("forecast %q: %w", req.ID, err)
	}
	table.ID = req.ID
	table.Place = domain.PlaceLabel(ctx, table.Epicenter, s.geocoder, s.logger)
	return table, nil
}
