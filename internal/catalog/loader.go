package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
	"github.com/couchcryptid/aftershock-forecast-service/internal/observability"
)

// ReadFunc reads the rows of one catalog source.
type ReadFunc func(source string) ([]domain.CatalogRecord, error)

// Loader memoizes catalogs by source path. Concurrent first loads of the
// same source share one read, and failed reads are not cached.
type Loader struct {
	read    ReadFunc
	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.RWMutex
	catalogs map[string]*domain.Catalog
	group    singleflight.Group
}

// NewLoader creates a Loader that reads files with ReadFile.
func NewLoader(logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return NewLoaderWithReader(ReadFile, logger, metrics)
}

// NewLoaderWithReader creates a Loader with a custom read function.
func NewLoaderWithReader(read ReadFunc, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		read:     read,
		logger:   logger,
		metrics:  metrics,
		catalogs: make(map[string]*domain.Catalog),
	}
}

// Load returns the catalog for source, reading it on first use.
func (l *Loader) Load(ctx context.Context, source string) (*domain.Catalog, error) {
	key := filepath.Clean(source)

	l.mu.RLock()
	c, ok := l.catalogs[key]
	l.mu.RUnlock()
	if ok {
		l.count("hit")
		return c, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		return l.readCatalog(key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			l.count("error")
			return nil, res.Err
		}
		return res.Val.(*domain.Catalog), nil
	}
}

func (l *Loader) readCatalog(key string) (*domain.Catalog, error) {
	l.mu.RLock()
	c, ok := l.catalogs[key]
	l.mu.RUnlock()
	if ok {
		l.count("hit")
		return c, nil
	}

	l.count("miss")
	start := time.Now()
	records, err := l.read(key)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", key, err)
	}
	c = domain.BuildCatalog(records)

	l.mu.Lock()
	l.catalogs[key] = c
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.CatalogEvents.Set(float64(c.Len()))
		l.metrics.CatalogDropped.Add(float64(c.Dropped()))
	}
	l.logger.Info("catalog loaded",
		"source", key,
		"events", c.Len(),
		"dropped", c.Dropped(),
		"duration", time.Since(start),
	)
	return c, nil
}

func (l *Loader) count(result string) {
	if l.metrics != nil {
		l.metrics.CatalogLoads.WithLabelValues(result).Inc()
	}
}

// Invalidate forgets the cached catalog for source.
func (l *Loader) Invalidate(source string) {
	key := filepath.Clean(source)
	l.mu.Lock()
	delete(l.catalogs, key)
	l.mu.Unlock()
	l.group.Forget(key)
}

// Reset forgets every cached catalog.
func (l *Loader) Reset() {
	l.mu.Lock()
	for key := range l.catalogs {
		l.group.Forget(key)
	}
	clear(l.catalogs)
	l.mu.Unlock()
}
