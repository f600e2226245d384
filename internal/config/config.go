package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	SearchAPIURL string `envconfig:"SEARCH_API_URL"`
	SearchAPIKey string `envconfig:"SEARCH_API_KEY"`

	// Optional notification webhook for content.statusChanged events
	StatusWebhookURL string `envconfig:"STATUS_WEBHOOK_URL"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"brandforge-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Job orchestration
	WorkerCount         int           `envconfig:"WORKER_COUNT" default:"4"`
	WorkerPollInterval  time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"2s"`
	JobMaxAttempts      int           `envconfig:"JOB_MAX_ATTEMPTS" default:"3"`
	CompletedJobsKept   int           `envconfig:"COMPLETED_JOBS_KEPT" default:"100"`
	ExternalCallTimeout time.Duration `envconfig:"EXTERNAL_CALL_TIMEOUT" default:"60s"`

	// Crawl limits for the brand-knowledge sub-pipeline
	CrawlMaxPages int `envconfig:"CRAWL_MAX_PAGES" default:"10"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("BRANDFORGE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSearch() bool {
	return c.SearchAPIURL != ""
}
