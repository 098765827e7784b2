package forecast

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
	"github.com/couchcryptid/aftershock-forecast-service/internal/model"
	"github.com/couchcryptid/aftershock-forecast-service/internal/observability"
)

// Harness defaults.
const (
	DefaultMainshocks        = 20
	DefaultTargetMag         = 5.0
	DefaultDecisionThreshold = 0.5
)

// Harness replays the forecast for the largest events of a catalog and
// compares each prediction with what the catalog later recorded.
//
// Mainshock selection, model fitting and ground truth all read the same
// catalog, so the reported accuracy is an in-sample estimate.
type Harness struct {
	Params            model.Params
	Mainshocks        int
	TargetMag         float64
	DecisionThreshold float64
	Workers           int

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewHarness returns a Harness with the default mainshock count, target
// magnitude and decision threshold.
func NewHarness(params model.Params, logger *slog.Logger, metrics *observability.Metrics) *Harness {
	return &Harness{
		Params:            params,
		Mainshocks:        DefaultMainshocks,
		TargetMag:         DefaultTargetMag,
		DecisionThreshold: DefaultDecisionThreshold,
		Logger:            logger,
		Metrics:           metrics,
	}
}

func (h *Harness) validate() error {
	if err := h.Params.Validate(); err != nil {
		return err
	}
	if h.Mainshocks < 1 {
		return &model.ConfigError{Field: "mainshocks", Reason: fmt.Sprintf("must be at least 1, got %d", h.Mainshocks)}
	}
	if h.TargetMag < h.Params.CompletenessMag {
		return &model.ConfigError{
			Field:  "target_mag",
			Reason: fmt.Sprintf("%g is below completeness magnitude %g", h.TargetMag, h.Params.CompletenessMag),
		}
	}
	if h.DecisionThreshold < 0 || h.DecisionThreshold > 1 {
		return &model.ConfigError{Field: "decision_threshold", Reason: fmt.Sprintf("%g is not a probability", h.DecisionThreshold)}
	}
	return nil
}

// Run evaluates the top mainshocks of catalog. Records are ordered by
// mainshock rank, then by window. Only configuration errors and context
// cancellation are returned.
func (h *Harness) Run(ctx context.Context, catalog *domain.Catalog) (domain.ValidationReport, error) {
	if err := h.validate(); err != nil {
		return domain.ValidationReport{}, err
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mainshocks := TopEvents(catalog.Events(), h.Mainshocks)
	windows := h.Params.WindowsDays
	records := make([]domain.ValidationRecord, len(mainshocks)*len(windows))
	events := catalog.Events()

	workers := h.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ms := range mainshocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := records[i*len(windows) : (i+1)*len(windows)]
			h.evaluate(events, ms, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.ValidationReport{}, fmt.Errorf("backtest: %w", err)
	}

	report := domain.ValidationReport{
		Profile:  h.Params.Name,
		Records:  records,
		Accuracy: Accuracy(records, windows),
	}
	h.observe(records)

	logger.Info("backtest complete",
		"profile", h.Params.Name,
		"mainshocks", len(mainshocks),
		"records", len(records),
		"duration", time.Since(start),
	)
	return report, nil
}

// evaluate fills out with one record per window for mainshock ms.
func (h *Harness) evaluate(events []domain.Event, ms domain.Event, out []domain.ValidationRecord) {
	ep := domain.EpicenterOf(ms)
	a := model.Assess(events, ep, h.Params.RadiusKm, h.Params)

	for j, w := range h.Params.WindowsDays {
		prob := a.Probability(w, h.TargetMag)
		predicted := prob >= h.DecisionThreshold
		observed := Observed(a.Region, ms.Time, w, h.TargetMag)
		out[j] = domain.ValidationRecord{
			MainshockID:    ms.ID,
			MainshockMag:   domain.Round(ms.Magnitude, 1),
			WindowDays:     w,
			PredictedProb:  domain.Round(prob, 3),
			PredictedEvent: predicted,
			ObservedEvent:  observed,
			Correct:        predicted == observed,
		}
	}
}

func (h *Harness) observe(records []domain.ValidationRecord) {
	if h.Metrics == nil {
		return
	}
	for _, r := range records {
		h.Metrics.ValidationRecords.WithLabelValues(outcome(r)).Inc()
	}
}

func outcome(r domain.ValidationRecord) string {
	switch {
	case r.PredictedEvent && r.ObservedEvent:
		return "hit"
	case !r.PredictedEvent && r.ObservedEvent:
		return "miss"
	case r.PredictedEvent:
		return "false_alarm"
	default:
		return "correct_negative"
	}
}

// TopEvents returns the n largest-magnitude events. Equal magnitudes are
// ordered by time, then by ID, so the selection is deterministic.
func TopEvents(events []domain.Event, n int) []domain.Event {
	ranked := slices.Clone(events)
	slices.SortFunc(ranked, func(a, b domain.Event) int {
		if c := cmp.Compare(b.Magnitude, a.Magnitude); c != 0 {
			return c
		}
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Observed reports whether region holds an event of at least targetMag in
// (origin, origin+windowDays].
func Observed(region []domain.Event, origin time.Time, windowDays, targetMag float64) bool {
	end := origin.Add(time.Duration(windowDays * float64(24*time.Hour)))
	for _, ev := range region {
		if ev.Time.After(origin) && !ev.Time.After(end) && ev.Magnitude >= targetMag {
			return true
		}
	}
	return false
}

// Accuracy aggregates records per window in the given window order. A
// window with no records reports zero percent.
func Accuracy(records []domain.ValidationRecord, windows []float64) []domain.WindowAccuracy {
	out := make([]domain.WindowAccuracy, len(windows))
	for i, w := range windows {
		out[i].WindowDays = w
		for _, r := range records {
			if r.WindowDays != w {
				continue
			}
			out[i].Total++
			if r.Correct {
				out[i].Correct++
			}
		}
		if out[i].Total > 0 {
			out[i].Percent = domain.Round(100*float64(out[i].Correct)/float64(out[i].Total), 1)
		}
	}
	return out
}
