// Command backtest replays the forecast for the largest events of a catalog
// and reports, per window, how often the predicted outcome matched what the
// catalog recorded afterwards.
//
// Usage:
//
//	go run ./cmd/backtest -catalog usgs_40yr.csv -mainshocks 20 -target-mag 5.0
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/couchcryptid/aftershock-forecast-service/internal/catalog"
	"github.com/couchcryptid/aftershock-forecast-service/internal/config"
	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
	"github.com/couchcryptid/aftershock-forecast-service/internal/forecast"
	"github.com/couchcryptid/aftershock-forecast-service/internal/model"
	"github.com/couchcryptid/aftershock-forecast-service/internal/observability"
)

func main() {
	catalogPath := flag.String("catalog", "usgs_40yr.csv", "catalog file (.csv, .csv.gz or .parquet)")
	profile := flag.String("profile", model.ProfileBacktest, "model profile name")
	profiles := flag.String("profiles", "", "YAML file with additional model profiles")
	mainshocks := flag.Int("mainshocks", forecast.DefaultMainshocks, "number of largest events to replay")
	targetMag := flag.Float64("target-mag", forecast.DefaultTargetMag, "magnitude an aftershock must reach to count")
	threshold := flag.Float64("threshold", forecast.DefaultDecisionThreshold, "probability at or above which an aftershock is predicted")
	radius := flag.Float64("radius", 0, "region radius in km (default from profile)")
	workers := flag.Int("workers", 0, "concurrent mainshock evaluations (default GOMAXPROCS)")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := observability.NewLogger(observability.LogOptions{Level: *logLevel, Format: "text"})

	params, err := config.ResolveProfile(*profile, *profiles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "profile %q: %v\n", *profile, err)
		os.Exit(2)
	}
	if *radius != 0 {
		params.RadiusKm = *radius
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := catalog.NewLoader(logger, nil).Load(ctx, *catalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	h := forecast.NewHarness(params, logger, nil)
	h.Mainshocks = *mainshocks
	h.TargetMag = *targetMag
	h.DecisionThreshold = *threshold
	h.Workers = *workers

	report, err := h.Run(ctx, c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	} else {
		err = writeReport(os.Stdout, report)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// writeReport prints the per-window accuracy followed by every record.
func writeReport(w io.Writer, report domain.ValidationReport) error {
	if _, err := fmt.Fprintf(w, "=== VALIDATION SUMMARY (profile %s) ===\n\n", report.Profile); err != nil {
		return err
	}
	for _, acc := range report.Accuracy {
		if _, err := fmt.Fprintf(w, "%g days → accuracy: %.1f%% (%d/%d)\n", acc.WindowDays, acc.Percent, acc.Correct, acc.Total); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, "\nDetailed results:\n"); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "mainshock_id\tmainshock_mag\twindow_days\tpredicted_prob\tpredicted_event\tobserved_event\tcorrect")
	for _, r := range report.Records {
		fmt.Fprintf(tw, "%s\t%.1f\t%g\t%.3f\t%t\t%t\t%t\n",
			r.MainshockID, r.MainshockMag, r.WindowDays, r.PredictedProb,
			r.PredictedEvent, r.ObservedEvent, r.Correct)
	}
	return tw.Flush()
}
