// Package recommend turns a region, condition and age group selection into
// dataset matches, optional nutrient data and a generated recommendation.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nutrisyn"
	"nutrisyn/dataset"
	"nutrisyn/inference"
	"nutrisyn/nutrients"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// NoMatchMessage is shown in place of dataset matches when none exist.
	NoMatchMessage = "No dataset match found. Using AI agent for recommendations:"
	// Disclaimer follows every rendered recommendation.
	Disclaimer = "This is a prototype using public and synthetic data. For clinical use, consult dietary professionals."
)

// Generator produces displayable text for a prompt. Failures are carried in
// the returned Result.
type Generator interface {
	Generate(ctx context.Context, prompt string) inference.Result
	Model() string
}

// TableProvider supplies the loaded nutrition table.
type TableProvider interface {
	Table(ctx context.Context) (*dataset.Table, error)
}

// Recommender is implemented by Advisor and InstrumentedAdvisor.
type Recommender interface {
	Recommend(ctx context.Context, q dataset.Query) (Recommendation, error)
}

// CropNutrients is the enrichment outcome for one matched crop.
type CropNutrients struct {
	Crop       string               `json:"crop"`
	Found      bool                 `json:"found"`
	Profile    nutrients.Profile    `json:"profile"`
	Highlights []nutrients.Nutrient `json:"highlights,omitempty"`
}

// Recommendation is the outcome of one submit.
type Recommendation struct {
	Query      dataset.Query    `json:"query"`
	Matches    []dataset.Row    `json:"matches"`
	Crops      []string         `json:"crops"`
	Enrichment []CropNutrients  `json:"enrichment,omitempty"`
	Prompt     string           `json:"prompt"`
	Result     inference.Result `json:"-"`
	Model      string           `json:"model"`
	Duration   time.Duration    `json:"duration_ns"`
}

// HasMatches reports whether the dataset had rows for the query.
func (r Recommendation) HasMatches() bool { return len(r.Matches) > 0 }

// Text is the generated recommendation or the error descriptor, ready to display.
func (r Recommendation) Text() string { return r.Result.Display() }

type AdvisorOpts struct {
	Provider  TableProvider
	Generator Generator
	// Nutrients is optional; enrichment is skipped when nil.
	Nutrients nutrients.Lookup
	// Logger is optional; runs are discarded when nil.
	Logger nutrisyn.RunLogger
	// MaxEnriched caps the number of crops looked up per submit. Values
	// outside 1..MaxPromptCrops are replaced with MaxPromptCrops.
	MaxEnriched int
}

// Advisor handles submits for the lifetime of a process. It holds no
// per-submit state and is safe for concurrent use when its dependencies are.
type Advisor struct {
	provider    TableProvider
	generator   Generator
	nutrients   nutrients.Lookup
	logger      nutrisyn.RunLogger
	maxEnriched int
}

func NewAdvisor(opts AdvisorOpts) (*Advisor, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("advisor requires a dataset provider")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("advisor requires a generator")
	}
	if opts.Logger == nil {
		opts.Logger = nutrisyn.NewNoOpRunLogger()
	}
	if opts.MaxEnriched <= 0 || opts.MaxEnriched > MaxPromptCrops {
		opts.MaxEnriched = MaxPromptCrops
	}

	return &Advisor{
		provider:    opts.Provider,
		generator:   opts.Generator,
		nutrients:   opts.Nutrients,
		logger:      opts.Logger,
		maxEnriched: opts.MaxEnriched,
	}, nil
}

// Recommend filters the table, enriches up to three matched crops, builds the
// prompt and generates. Only a dataset load failure is returned as an error;
// generation failures are carried in Recommendation.Result.
func (a *Advisor) Recommend(ctx context.Context, q dataset.Query) (Recommendation, error) {
	ctx, span := otel.Tracer(nutrisyn.TracerNameAdvisor).Start(ctx, "Advisor.Recommend")
	defer span.End()

	start := time.Now()
	slog.Info("ADVISOR: Starting run", "region", q.Region, "condition", q.Condition, "age_group", q.AgeGroup)

	table, err := a.provider.Table(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "dataset load failed")
		span.RecordError(err)
		return Recommendation{}, fmt.Errorf("recommend: %w", err)
	}

	matches := table.Filter(q)
	rec := Recommendation{
		Query:   q,
		Matches: matches,
		Crops:   dataset.UniqueCrops(matches),
		Model:   a.generator.Model(),
	}
	slog.Info("ADVISOR: Dataset filtered", "matches", len(matches), "crops", rec.Crops)

	rec.Enrichment = a.enrich(ctx, rec.Crops)
	rec.Prompt = BuildPrompt(q, NotesFromRows(matches))
	rec.Result = a.generator.Generate(ctx, rec.Prompt)
	rec.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("matches", len(matches)),
		attribute.Int("prompt_size_bytes", len(rec.Prompt)),
		attribute.Bool("generation_failed", rec.Result.IsErr()),
	)
	if rec.Result.IsErr() {
		slog.Warn("ADVISOR: Generation failed", "error", rec.Result.Err, "duration_ms", rec.Duration.Milliseconds())
	} else {
		slog.Info("ADVISOR: Run complete", "output_len", len(rec.Result.Text), "duration_ms", rec.Duration.Milliseconds())
	}

	a.logRun(start, rec)
	return rec, nil
}

// enrich looks up crops one at a time; lookups are not parallelized.
func (a *Advisor) enrich(ctx context.Context, crops []string) []CropNutrients {
	if a.nutrients == nil || len(crops) == 0 {
		return nil
	}
	if len(crops) > a.maxEnriched {
		crops = crops[:a.maxEnriched]
	}

	out := make([]CropNutrients, 0, len(crops))
	for _, crop := range crops {
		p, ok := a.nutrients.Lookup(ctx, crop)
		cn := CropNutrients{Crop: crop, Found: ok}
		if ok {
			cn.Profile = p
			cn.Highlights = nutrients.Highlights(p)
		}
		out = append(out, cn)
	}
	return out
}

func (a *Advisor) logRun(start time.Time, rec Recommendation) {
	run := nutrisyn.RunLog{
		Timestamp: start,
		Region:    rec.Query.Region,
		Condition: rec.Query.Condition,
		AgeGroup:  rec.Query.AgeGroup,
		Matches:   len(rec.Matches),
		Crops:     rec.Crops,
		Model:     rec.Model,
		Prompt:    rec.Prompt,
		Duration:  rec.Duration,
	}
	for _, e := range rec.Enrichment {
		run.Enrichment = append(run.Enrichment, nutrisyn.EnrichLog{Crop: e.Crop, Found: e.Found, Nutrients: len(e.Profile.Nutrients)})
	}
	if rec.Result.IsErr() {
		run.Error = rec.Result.Err.Error()
	} else {
		run.Output = rec.Result.Text
	}

	if err := a.logger.LogRun(run); err != nil {
		slog.Error("ADVISOR: Failed to log run", "error", err)
	}
}
