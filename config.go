package nutrisyn

import (
	"fmt"
	"time"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderBedrock     = "bedrock"
	ProviderOllama      = "ollama"
	ProviderMock        = "mock"
)

type ModelConfig struct {
	Provider          string        `env:"MODEL_PROVIDER,default=huggingface"`
	ModelID           string        `env:"MODEL_ID,default=HuggingFaceH4/zephyr-7b-beta"`
	BaseEndpoint      string        `env:"HUGGINGFACE_BASE_ENDPOINT,default=https://api-inference.huggingface.co"`
	HuggingFaceAPIKey string        `env:"HUGGINGFACE_API_KEY"`
	OllamaEndpoint    string        `env:"OLLAMA_BASE_ENDPOINT,default=http://localhost:11434"`
	Timeout           time.Duration `env:"MODEL_TIMEOUT,default=60s"`
}

// Validate fails when the secret required by the selected provider is missing.
// Bedrock relies on the default AWS credential chain and needs no key here.
func (c ModelConfig) Validate() error {
	switch c.Provider {
	case ProviderHuggingFace:
		if c.HuggingFaceAPIKey == "" {
			return fmt.Errorf("HUGGINGFACE_API_KEY must be set when MODEL_PROVIDER=%s", c.Provider)
		}
	case ProviderOllama:
		if c.OllamaEndpoint == "" {
			return fmt.Errorf("OLLAMA_BASE_ENDPOINT must be set when MODEL_PROVIDER=%s", c.Provider)
		}
	case ProviderBedrock, ProviderMock:
	default:
		return fmt.Errorf("unknown MODEL_PROVIDER %q", c.Provider)
	}
	if c.ModelID == "" {
		return fmt.Errorf("MODEL_ID must not be empty")
	}
	return nil
}

const (
	DatasetSourceFile      = "file"
	DatasetSourceS3        = "s3"
	DatasetSourceSynthetic = "synthetic"
)

type DatasetConfig struct {
	Source      string `env:"DATASET_SOURCE,default=file"`
	Path        string `env:"DATASET_PATH,default=data/nutrisyn_mock_data.csv"`
	CatalogPath string `env:"DATASET_CATALOG_PATH"`
	S3Bucket    string `env:"DATASET_S3_BUCKET"`
	S3Key       string `env:"DATASET_S3_KEY"`
}

func (c DatasetConfig) Validate() error {
	switch c.Source {
	case DatasetSourceFile:
		if c.Path == "" {
			return fmt.Errorf("DATASET_PATH must be set when DATASET_SOURCE=file")
		}
	case DatasetSourceS3:
		if c.S3Bucket == "" || c.S3Key == "" {
			return fmt.Errorf("missing S3 config: DATASET_S3_BUCKET and DATASET_S3_KEY must be set")
		}
	case DatasetSourceSynthetic:
	default:
		return fmt.Errorf("unknown DATASET_SOURCE %q", c.Source)
	}
	return nil
}

type EnrichmentConfig struct {
	Enabled   bool          `env:"USDA_ENABLED,default=true"`
	APIKey    string        `env:"USDA_API_KEY,default=DEMO_KEY"`
	Endpoint  string        `env:"USDA_ENDPOINT,default=https://api.nal.usda.gov/fdc/v1/foods/search"`
	Timeout   time.Duration `env:"USDA_TIMEOUT,default=10s"`
	CacheSize int           `env:"USDA_CACHE_SIZE,default=256"`
}

type ServerConfig struct {
	Addr       string `env:"SERVER_ADDR,default=:8080"`
	RunLogPath string `env:"RUN_LOG_PATH"`
}

type SlackConfig struct {
	WebhookURL string `env:"SLACK_WEBHOOK_URL"`
	Channel    string `env:"SLACK_CHANNEL,default=#nutrition"`
}
