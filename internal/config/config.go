// Package config provides configuration loading for enrichment services.
package config

import (
	"os"
	"strconv"
)

// WorkerConfig holds enrichment worker configuration.
type WorkerConfig struct {
	// Temporal settings
	TemporalHost      string
	TemporalNamespace string
	TemporalTaskQueue string

	// Storage settings
	DatabaseURL string

	// Object store settings
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// Source API settings
	SBIRBaseURL        string
	USASpendingBaseURL string
	SAMBaseURL         string
	SAMAPIKey          string

	// Pipeline settings
	SpendingThreshold float64
	FetchSize         int
}

// LoadWorkerConfig loads configuration from environment.
func LoadWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		TemporalHost:      getEnv("ENRICH_TEMPORAL_HOST", "localhost:7233"),
		TemporalNamespace: getEnv("ENRICH_TEMPORAL_NAMESPACE", "default"),
		TemporalTaskQueue: getEnv("ENRICH_TEMPORAL_TASK_QUEUE", "enrich-workers"),

		DatabaseURL: getEnv("ENRICH_DATABASE_URL", ""),

		MinIOEndpoint:  getEnv("ENRICH_MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("ENRICH_MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("ENRICH_MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("ENRICH_MINIO_BUCKET", "enrichment"),
		MinIOUseSSL:    getEnvBool("ENRICH_MINIO_USE_SSL", false),

		SBIRBaseURL:        getEnv("ENRICH_SBIR_BASE_URL", ""),
		USASpendingBaseURL: getEnv("ENRICH_USASPENDING_BASE_URL", ""),
		SAMBaseURL:         getEnv("ENRICH_SAM_BASE_URL", ""),
		SAMAPIKey:          getEnv("ENRICH_SAM_API_KEY", ""),

		SpendingThreshold: getEnvFloat("ENRICH_SPENDING_THRESHOLD", 0),
		FetchSize:         getEnvInt("ENRICH_FETCH_SIZE", 0),
	}
}

// HasObjectStore reports whether MinIO staging/export can be wired.
func (c *WorkerConfig) HasObjectStore() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
