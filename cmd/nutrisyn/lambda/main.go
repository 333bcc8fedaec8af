package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nutrisyn"
	"nutrisyn/bootstrap"
	"nutrisyn/dataset"
	"nutrisyn/recommend"
)

type Params struct {
	Region    string `json:"region"`
	Condition string `json:"condition"`
	AgeGroup  string `json:"age_group"`
}

type Results struct {
	Matches        []dataset.Row             `json:"matches"`
	Crops          []string                  `json:"crops"`
	Message        string                    `json:"message,omitempty"`
	Enrichment     []recommend.CropNutrients `json:"enrichment,omitempty"`
	Recommendation string                    `json:"recommendation"`
	Error          bool                      `json:"error"`
	Model          string                    `json:"model"`
	Disclaimer     string                    `json:"disclaimer"`
}

// handler is built once per container so the dataset cache survives warm invocations.
type handler struct {
	advisor recommend.Recommender
	tracer  trace.Tracer
}

func newHandler(ctx context.Context) (*handler, func(context.Context) error, error) {
	var (
		modelConfig      nutrisyn.ModelConfig
		datasetConfig    nutrisyn.DatasetConfig
		enrichmentConfig nutrisyn.EnrichmentConfig
	)
	for _, cfg := range []any{&modelConfig, &datasetConfig, &enrichmentConfig} {
		if err := envdecode.Decode(cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to decode: %w", err)
		}
	}

	provider, err := bootstrap.NewDatasetProvider(ctx, datasetConfig)
	if err != nil {
		return nil, nil, err
	}
	if _, err := provider.Table(ctx); err != nil {
		return nil, nil, err
	}
	slog.Info("SETUP: Dataset loaded", "source", datasetConfig.Source)

	generator, err := bootstrap.NewGenerator(ctx, modelConfig)
	if err != nil {
		return nil, nil, err
	}

	lookup, err := bootstrap.NewNutrientLookup(enrichmentConfig)
	if err != nil {
		return nil, nil, err
	}

	tracerProvider, meterProvider, otelShutdown, err := nutrisyn.InitOtel(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	advisor, err := recommend.NewAdvisor(recommend.AdvisorOpts{
		Provider:  provider,
		Generator: generator,
		Nutrients: lookup,
		Logger:    nutrisyn.NewStdoutRunLogger(),
	})
	if err != nil {
		return nil, nil, err
	}

	instrumented, err := recommend.NewInstrumentedAdvisor(
		advisor,
		tracerProvider.Tracer(nutrisyn.TracerNameAdvisor),
		meterProvider.Meter(nutrisyn.TracerNameAdvisor),
	)
	if err != nil {
		return nil, nil, err
	}

	return &handler{advisor: instrumented, tracer: tracerProvider.Tracer(nutrisyn.TracerNameLambda)}, otelShutdown, nil
}

func (h *handler) handle(ctx context.Context, params Params) (Results, error) {
	ctx, span := h.tracer.Start(ctx, nutrisyn.TracerNameLambda, trace.WithAttributes(
		attribute.String("region", params.Region),
		attribute.String("condition", params.Condition),
		attribute.String("age_group", params.AgeGroup),
	))
	defer span.End()

	if params.Region == "" || params.Condition == "" || params.AgeGroup == "" {
		return Results{}, fmt.Errorf("region, condition and age_group are required")
	}

	rec, err := h.advisor.Recommend(ctx, dataset.Query{Region: params.Region, Condition: params.Condition, AgeGroup: params.AgeGroup})
	if err != nil {
		slog.Error("RESULT: Error handling request", "error", err)
		return Results{}, err
	}

	res := Results{
		Matches:        rec.Matches,
		Crops:          rec.Crops,
		Enrichment:     rec.Enrichment,
		Recommendation: rec.Text(),
		Error:          rec.Result.IsErr(),
		Model:          rec.Model,
		Disclaimer:     recommend.Disclaimer,
	}
	if !rec.HasMatches() {
		res.Message = recommend.NoMatchMessage
	}
	return res, nil
}

func main() {
	ctx := context.Background()

	h, otelShutdown, err := newHandler(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize handler", "error", err)
		panic(err)
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	lambda.Start(h.handle)
}
