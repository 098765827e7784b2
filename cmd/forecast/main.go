// Command forecast prints the aftershock probability table for one
// epicenter against a local catalog file.
//
// Usage:
//
//	go run ./cmd/forecast -catalog usgs_40yr.csv \
//	  -lat 35.69 -lon 51.39 -mag 6.2 -time 2024-03-10T12:00:00Z
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/aftershock-forecast-service/internal/catalog"
	"github.com/couchcryptid/aftershock-forecast-service/internal/config"
	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
	"github.com/couchcryptid/aftershock-forecast-service/internal/forecast"
	"github.com/couchcryptid/aftershock-forecast-service/internal/model"
	"github.com/couchcryptid/aftershock-forecast-service/internal/observability"
)

func main() {
	catalogPath := flag.String("catalog", "usgs_40yr.csv", "catalog file (.csv, .csv.gz or .parquet)")
	lat := flag.Float64("lat", 35.6892, "epicenter latitude")
	lon := flag.Float64("lon", 51.3890, "epicenter longitude")
	mag := flag.Float64("mag", 6.0, "mainshock magnitude")
	origin := flag.String("time", "", "mainshock origin time, RFC3339 (default now)")
	radius := flag.Float64("radius", 0, "region radius in km (default from profile)")
	profile := flag.String("profile", model.ProfileForecast, "model profile name")
	profiles := flag.String("profiles", "", "YAML file with additional model profiles")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger := observability.NewLogger(observability.LogOptions{Level: *logLevel, Format: "text"})

	params, err := config.ResolveProfile(*profile, *profiles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "profile %q: %v\n", *profile, err)
		os.Exit(2)
	}
	f, err := forecast.New(params, logger, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "profile %q: %v\n", *profile, err)
		os.Exit(2)
	}

	service := forecast.NewService(f, catalog.NewLoader(logger, nil), *catalogPath, nil, logger)
	table, err := service.Resolve(context.Background(), domain.ForecastRequest{
		Lat:      lat,
		Lon:      lon,
		Mag:      mag,
		Time:     *origin,
		RadiusKm: *radius,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := writeSummary(os.Stdout, table); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// writeSummary prints the model parameters and, per window, the chance of
// at least one aftershock above each threshold.
func writeSummary(w io.Writer, table domain.ForecastTable) error {
	ep := table.Epicenter
	m := table.Model

	var windows []string
	byWindow := make(map[string][]domain.ForecastCell)
	for _, c := range table.Cells {
		if _, ok := byWindow[c.Window]; !ok {
			windows = append(windows, c.Window)
		}
		byWindow[c.Window] = append(byWindow[c.Window], c)
	}

	pw := &printer{w: w}
	pw.printf("Mainshock M%.1f at %.4f, %.4f on %s\n", ep.Magnitude, ep.Lat, ep.Lon, ep.OriginTime.UTC().Format("2006-01-02 15:04 MST"))
	if table.Place != "" {
		pw.printf("Place: %s\n", table.Place)
	}
	pw.printf("Region: %d events within %g km (profile %s)\n", m.RegionEvents, table.RadiusKm, table.Profile)
	pw.printf("b-value: %.3f (%s, n=%d)\n", m.BValue, m.BValueStatus, m.BValueN)
	pw.printf("Omori-Utsu: K=%.3f c=%.3f p=%.3f (%s, n=%d), scaled K=%.3f\n", m.K, m.C, m.P, m.DecayStatus, m.DecayN, m.ScaledK)
	pw.printf("\nForecast Summary\n")
	for _, window := range windows {
		pw.printf("\nChance of ≥1 aftershock in the next %s:\n", strings.ToLower(window))
		for _, c := range byWindow[window] {
			pw.printf("- %s: %.1f%%\n", c.Magnitude, c.Percent)
		}
	}
	return pw.err
}

// printer keeps the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
