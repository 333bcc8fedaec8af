package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	_ "github.com/joho/godotenv/autoload"
	"github.com/joeshaw/envdecode"

	"nutrisyn"
	"nutrisyn/bootstrap"
	"nutrisyn/dataset"
	"nutrisyn/recommend"
	"nutrisyn/slack"
)

func main() {
	var (
		region    = flag.String("region", "", "region to recommend for")
		condition = flag.String("condition", "", "health condition to recommend for")
		ageGroup  = flag.String("age", "", "age group to recommend for")
		list      = flag.Bool("list", false, "print the available regions, conditions and age groups, then exit")
		dump      = flag.Bool("dump", false, "dump the full recommendation to stderr")
		raw       = flag.Bool("raw", false, "print markdown without terminal rendering")
		width     = flag.Int("width", 100, "word wrap width for rendered output")
		share     = flag.Bool("share", false, "post the recommendation to the configured Slack webhook")
		logRun    = flag.Bool("log", false, "write the run log to ./logs")
	)
	flag.Parse()

	ctx := context.Background()

	var (
		modelConfig      nutrisyn.ModelConfig
		datasetConfig    nutrisyn.DatasetConfig
		enrichmentConfig nutrisyn.EnrichmentConfig
		slackConfig      nutrisyn.SlackConfig
	)
	for _, cfg := range []any{&modelConfig, &datasetConfig, &enrichmentConfig, &slackConfig} {
		if err := envdecode.Decode(cfg); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}
	}

	provider, err := bootstrap.NewDatasetProvider(ctx, datasetConfig)
	if err != nil {
		log.Fatalf("SETUP: Invalid dataset config: %s", err)
	}
	table, err := provider.Table(ctx)
	if err != nil {
		log.Fatalf("SETUP: Failed to load dataset: %s", err)
	}

	if *list {
		printOptions(table)
		return
	}

	q := dataset.Query{Region: *region, Condition: *condition, AgeGroup: *ageGroup}
	if q.Region == "" || q.Condition == "" || q.AgeGroup == "" {
		fmt.Fprintln(os.Stderr, "usage: nutrisyn -region <region> -condition <condition> -age <age group>")
		printOptions(table)
		os.Exit(2)
	}

	generator, err := bootstrap.NewGenerator(ctx, modelConfig)
	if err != nil {
		log.Fatalf("SETUP: Failed to create model client: %s", err)
	}

	lookup, err := bootstrap.NewNutrientLookup(enrichmentConfig)
	if err != nil {
		log.Fatalf("SETUP: Failed to create nutrient lookup: %s", err)
	}

	var runLogger nutrisyn.RunLogger = nutrisyn.NewNoOpRunLogger()
	if *logRun {
		logger, cleanup, err := newRunLogger(generator.Model())
		if err != nil {
			log.Fatalf("SETUP: Failed to create run logger: %s", err)
		}
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("Failed to flush run log", "error", err)
			}
		}()
		runLogger = logger
	}

	advisor, err := recommend.NewAdvisor(recommend.AdvisorOpts{
		Provider:  provider,
		Generator: generator,
		Nutrients: lookup,
		Logger:    runLogger,
	})
	if err != nil {
		log.Fatalf("SETUP: Failed to create advisor: %s", err)
	}

	rec, err := advisor.Recommend(ctx, q)
	if err != nil {
		slog.Error("RESULT: Error handling request", "error", err)
		return
	}

	if *dump {
		nutrisyn.Dump(os.Stderr, rec)
	}

	md := recommend.Markdown(rec)
	if *raw {
		fmt.Println(md)
	} else {
		fmt.Println(renderMarkdown(md, *width))
	}

	if *share {
		client := slack.NewClient(slackConfig.WebhookURL, &http.Client{Timeout: 10 * time.Second})
		if err := client.PostMessage(ctx, slackConfig.Channel, slack.FormatRecommendation(rec)); err != nil {
			slog.Error("Failed to post result to Slack", "error", err)
		}
	}
}

func printOptions(table *dataset.Table) {
	fmt.Fprintf(os.Stderr, "regions:    %s\n", strings.Join(table.Regions(), ", "))
	fmt.Fprintf(os.Stderr, "conditions: %s\n", strings.Join(table.Conditions(), ", "))
	fmt.Fprintf(os.Stderr, "age groups: %s\n", strings.Join(table.AgeGroups(), ", "))
}

// renderMarkdown falls back to the raw text when the terminal renderer fails.
func renderMarkdown(md string, width int) string {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func newRunLogger(modelID string) (*nutrisyn.FileRunLogger, func() error, error) {
	logFilePath := nutrisyn.NewRunLogFilePath(modelID)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := nutrisyn.NewFileRunLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
