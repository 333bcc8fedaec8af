package recommend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"nutrisyn/dataset"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedAdvisor records spans and metrics around an Advisor.
type InstrumentedAdvisor struct {
	next   *Advisor
	tracer trace.Tracer

	runs          metric.Int64Counter
	runsFailed    metric.Int64Counter
	genErrors     metric.Int64Counter
	emptyMatches  metric.Int64Counter
	runDuration   metric.Float64Histogram
	matchedRows   metric.Int64Gauge
	enrichedCrops metric.Int64Counter
}

// NewInstrumentedAdvisor creates the advisor metrics on meter and wraps next.
func NewInstrumentedAdvisor(next *Advisor, tracer trace.Tracer, meter metric.Meter) (*InstrumentedAdvisor, error) {
	a := &InstrumentedAdvisor{next: next, tracer: tracer}

	var errs []error
	record := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	a.runs, err = meter.Int64Counter("advisor_runs_total",
		metric.WithDescription("Total number of recommendation runs started"))
	record(err)
	a.runsFailed, err = meter.Int64Counter("advisor_runs_failed_total",
		metric.WithDescription("Total number of runs that failed to load the dataset"))
	record(err)
	a.genErrors, err = meter.Int64Counter("advisor_generation_errors_total",
		metric.WithDescription("Total number of runs whose generation returned an error descriptor"))
	record(err)
	a.emptyMatches, err = meter.Int64Counter("advisor_empty_matches_total",
		metric.WithDescription("Total number of runs with no dataset match"))
	record(err)
	a.enrichedCrops, err = meter.Int64Counter("advisor_enriched_crops_total",
		metric.WithDescription("Total number of nutrient lookups performed"))
	record(err)
	a.runDuration, err = meter.Float64Histogram("advisor_run_duration_seconds",
		metric.WithDescription("Duration of a recommendation run in seconds"))
	record(err)
	a.matchedRows, err = meter.Int64Gauge("advisor_matched_rows",
		metric.WithDescription("Number of dataset rows matched by the latest run"))
	record(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return a, nil
}

func (a *InstrumentedAdvisor) Recommend(ctx context.Context, q dataset.Query) (Recommendation, error) {
	ctx, span := a.tracer.Start(ctx, "InstrumentedAdvisor.Recommend", trace.WithAttributes(
		attribute.String("region", q.Region),
		attribute.String("condition", q.Condition),
		attribute.String("age_group", q.AgeGroup),
	))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("model", a.next.generator.Model()))
	a.runs.Add(ctx, 1, attrs)

	start := time.Now()
	rec, err := a.next.Recommend(ctx, q)
	a.runDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		a.runsFailed.Add(ctx, 1, attrs)
		span.SetStatus(codes.Error, "recommend failed")
		span.RecordError(err)
		return rec, err
	}

	a.matchedRows.Record(ctx, int64(len(rec.Matches)), attrs)
	if !rec.HasMatches() {
		a.emptyMatches.Add(ctx, 1, attrs)
	}

	found := 0
	for _, e := range rec.Enrichment {
		a.enrichedCrops.Add(ctx, 1, metric.WithAttributes(attribute.Bool("found", e.Found)))
		if e.Found {
			found++
		}
	}

	if rec.Result.IsErr() {
		a.genErrors.Add(ctx, 1, attrs)
		span.SetStatus(codes.Error, "generation failed")
		span.RecordError(rec.Result.Err)
	}

	span.AddEvent("Recommendation ready", trace.WithAttributes(
		attribute.Int("matches", len(rec.Matches)),
		attribute.Int("enriched", len(rec.Enrichment)),
		attribute.Int("enriched_found", found),
		attribute.Int("output_len", len(rec.Text())),
	))
	slog.Debug("ADVISOR: Instrumented run recorded", "matches", len(rec.Matches), "generation_failed", rec.Result.IsErr())

	return rec, nil
}
