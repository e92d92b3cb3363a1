package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from environment variables.
// A .env file is honored when present so local development doesn't need
// exported variables.
type Config struct {
	Port        string
	Environment string

	LogLevel string
	LogFile  string

	MongoURI      string
	MongoDatabase string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret []byte

	AWSRegion  string
	S3Bucket   string
	CDNBaseURL string

	ClassifierURL     string
	ClassifierAPIKey  string
	ClassifierTimeout time.Duration

	OTLPEndpoint    string
	TracingEnabled  bool
	TraceSampleRate float64
}

// Load reads configuration from the environment. JWT_SECRET and MONGO_URI are
// required; everything else has a development default.
func Load() (*Config, error) {
	// Missing .env is fine - system environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8790"),
		Environment: getEnv("ENVIRONMENT", "development"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "server.log"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnv("MONGO_DATABASE", "driftboard"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),

		AWSRegion:  getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:   os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		ClassifierURL:     os.Getenv("CLASSIFIER_URL"),
		ClassifierAPIKey:  os.Getenv("CLASSIFIER_API_KEY"),
		ClassifierTimeout: getEnvDuration("CLASSIFIER_TIMEOUT", 5*time.Second),

		OTLPEndpoint:    getEnv("OTLP_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getEnvBool("TRACING_ENABLED", false),
		TraceSampleRate: getEnvFloat("TRACE_SAMPLE_RATE", 0.1),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
