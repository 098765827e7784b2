package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
)

// Resolver computes the forecast for a decoded request.
type Resolver interface {
	Resolve(ctx context.Context, req domain.ForecastRequest) (domain.ForecastTable, error)
}

// ForecastTransformer implements Transformer by decoding a mainshock alert
// and handing it to a Resolver.
type ForecastTransformer struct {
	resolver Resolver
	logger   *slog.Logger
}

// NewTransformer creates a ForecastTransformer.
func NewTransformer(resolver Resolver, logger *slog.Logger) *ForecastTransformer {
	return &ForecastTransformer{
		resolver: resolver,
		logger:   logger,
	}
}

// Transform decodes raw as a ForecastRequest. An alert without an id takes
// the message key.
func (t *ForecastTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.ForecastTable, error) {
	req, err := domain.ParseForecastRequest(raw.Value)
	if err != nil {
		return domain.ForecastTable{}, err
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}

	table, err := t.resolver.Resolve(ctx, req)
	if err != nil {
		return domain.ForecastTable{}, err
	}
	t.logger.Debug("alert forecast",
		"id", table.ID,
		"profile", table.Profile,
		"region_events", table.Model.RegionEvents,
		"offset", raw.Offset,
	)
	return table, nil
}
