// Package bootstrap builds the advisor's dependencies from environment config.
// It is shared by the server, CLI and Lambda binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"nutrisyn"
	"nutrisyn/dataset"
	"nutrisyn/dataset/storage"
	"nutrisyn/inference/bedrock"
	"nutrisyn/inference/huggingface"
	"nutrisyn/inference/mock"
	"nutrisyn/inference/ollama"
	"nutrisyn/nutrients"
	"nutrisyn/recommend"
)

// NewDatasetProvider validates cfg and returns a provider whose loader reads
// from the configured source. The table is not loaded until first use.
func NewDatasetProvider(ctx context.Context, cfg nutrisyn.DatasetConfig) (*dataset.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var src storage.Source
	var name string
	switch cfg.Source {
	case nutrisyn.DatasetSourceFile:
		src, name = storage.NewFileSource(cfg.Path), cfg.Path
	case nutrisyn.DatasetSourceS3:
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		src, name = storage.NewS3Source(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Key), cfg.S3Key
	case nutrisyn.DatasetSourceSynthetic:
		if cfg.CatalogPath == "" {
			slog.Info("SETUP: Using embedded crop catalog")
			return dataset.NewProvider(dataset.DefaultCatalogLoader()), nil
		}
		slog.Info("SETUP: Using crop catalog", "path", cfg.CatalogPath)
		return dataset.NewProvider(dataset.CatalogLoader(storage.NewFileSource(cfg.CatalogPath))), nil
	}

	slog.Info("SETUP: Using dataset", "source", src)
	return dataset.NewProvider(loaderFor(name, src)), nil
}

// loaderFor picks the catalog loader for YAML objects and the CSV loader otherwise.
func loaderFor(name string, src storage.Source) dataset.Loader {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return dataset.CatalogLoader(src)
	default:
		return dataset.CSVLoader(src)
	}
}

// NewGenerator returns the text generator for cfg.Provider.
func NewGenerator(ctx context.Context, cfg nutrisyn.ModelConfig) (recommend.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case nutrisyn.ProviderBedrock:
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), cfg.ModelID), nil
	case nutrisyn.ProviderOllama:
		return ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: cfg.OllamaEndpoint,
			ModelID:      cfg.ModelID,
			HTTPClient:   &http.Client{Timeout: cfg.Timeout},
		})
	case nutrisyn.ProviderMock:
		return mock.NewClient(), nil
	default:
		return huggingface.NewClient(huggingface.ClientOpts{
			BaseEndpoint: cfg.BaseEndpoint,
			ModelID:      cfg.ModelID,
			APIKey:       cfg.HuggingFaceAPIKey,
			HTTPClient:   &http.Client{Timeout: cfg.Timeout},
		})
	}
}

// NewNutrientLookup returns a cached USDA lookup, or nil when enrichment is disabled.
func NewNutrientLookup(cfg nutrisyn.EnrichmentConfig) (nutrients.Lookup, error) {
	if !cfg.Enabled {
		slog.Info("SETUP: Nutrient enrichment disabled")
		return nil, nil
	}

	client, err := nutrients.NewClient(nutrients.ClientOpts{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize <= 0 {
		return client, nil
	}
	return nutrients.NewCached(client, cfg.CacheSize)
}
