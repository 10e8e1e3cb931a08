package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	CompletionModel     string `envconfig:"COMPLETION_MODEL" default:"gpt-4o-mini"`

	QdrantHost       string `envconfig:"QDRANT_HOST"`
	QdrantPort       int    `envconfig:"QDRANT_PORT" default:"6334"`
	QdrantAPIKey     string `envconfig:"QDRANT_API_KEY"`
	QdrantCollection string `envconfig:"QDRANT_COLLECTION" default:"vantage-items"`
	QdrantUseTLS     bool   `envconfig:"QDRANT_USE_TLS" default:"false"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"vantage-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	WorkerPollSeconds int `envconfig:"WORKER_POLL_SECONDS" default:"5"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("VANTAGE", &cfg); err != nil {
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

func (c *Config) HasQdrant() bool {
	return c.QdrantHost != ""
}
