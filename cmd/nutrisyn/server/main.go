package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/joeshaw/envdecode"

	"nutrisyn"
	"nutrisyn/bootstrap"
	"nutrisyn/recommend"
	"nutrisyn/slack"
	"nutrisyn/tools"
	"nutrisyn/web"
)

func main() {
	ctx := context.Background()

	var (
		modelConfig      nutrisyn.ModelConfig
		datasetConfig    nutrisyn.DatasetConfig
		enrichmentConfig nutrisyn.EnrichmentConfig
		serverConfig     nutrisyn.ServerConfig
		slackConfig      nutrisyn.SlackConfig
	)
	for _, cfg := range []any{&modelConfig, &datasetConfig, &enrichmentConfig, &serverConfig, &slackConfig} {
		if err := envdecode.Decode(cfg); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}
	}

	provider, err := bootstrap.NewDatasetProvider(ctx, datasetConfig)
	if err != nil {
		log.Fatalf("SETUP: Invalid dataset config: %s", err)
	}
	if _, err := provider.Table(ctx); err != nil {
		log.Fatalf("SETUP: Failed to load dataset: %s", err)
	}

	generator, err := bootstrap.NewGenerator(ctx, modelConfig)
	if err != nil {
		log.Fatalf("SETUP: Failed to create model client: %s", err)
	}

	lookup, err := bootstrap.NewNutrientLookup(enrichmentConfig)
	if err != nil {
		log.Fatalf("SETUP: Failed to create nutrient lookup: %s", err)
	}

	runLogger, cleanup, err := newRunLogger(serverConfig.RunLogPath)
	if err != nil {
		log.Fatalf("SETUP: Failed to create run logger: %s", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to close run log", "error", err)
		}
	}()

	tracerProvider, meterProvider, otelShutdown, err := nutrisyn.InitOtel(ctx)
	if err != nil {
		log.Fatalf("SETUP: Failed to initialize OpenTelemetry: %s", err)
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	advisor, err := recommend.NewAdvisor(recommend.AdvisorOpts{
		Provider:  provider,
		Generator: generator,
		Nutrients: lookup,
		Logger:    runLogger,
	})
	if err != nil {
		log.Fatalf("SETUP: Failed to create advisor: %s", err)
	}

	instrumented, err := recommend.NewInstrumentedAdvisor(
		advisor,
		tracerProvider.Tracer(nutrisyn.TracerNameAdvisor),
		meterProvider.Meter(nutrisyn.TracerNameAdvisor),
	)
	if err != nil {
		log.Fatalf("SETUP: Failed to create advisor metrics: %s", err)
	}

	var slackClient nutrisyn.SlackClient
	if slackConfig.WebhookURL != "" {
		slackClient = slack.NewClient(slackConfig.WebhookURL, &http.Client{Timeout: 10 * time.Second})
	}

	srv, err := web.NewServer(web.Opts{
		Provider:     provider,
		Advisor:      instrumented,
		Tools:        tools.NewRegistry(provider, lookup),
		Slack:        slackClient,
		SlackChannel: slackConfig.Channel,
	})
	if err != nil {
		log.Fatalf("SETUP: Failed to create web server: %s", err)
	}

	httpServer := srv.HTTPServer(serverConfig.Addr, modelConfig.Timeout)

	done := make(chan bool, 1)
	go gracefulShutdown(httpServer, done)

	slog.Info("SETUP: Listening", "addr", serverConfig.Addr, "provider", modelConfig.Provider, "model", generator.Model())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server error", "error", err)
		return
	}

	<-done
	slog.Info("Graceful shutdown complete")
}

func gracefulShutdown(server *http.Server, done chan<- bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	slog.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	done <- true
}

func newRunLogger(path string) (nutrisyn.RunLogger, func() error, error) {
	if path == "" {
		return nutrisyn.NewNoOpRunLogger(), func() error { return nil }, nil
	}

	// one JSON line per run, appended as it happens
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return nutrisyn.NewLineRunLogger(logFile), logFile.Close, nil
}
