// Package config loads application configuration from the environment, with
// optional .env support for local development.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/saiteja-tally/taggo/pkg/workflow"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	OCR      OCRConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        int
	CORSOrigins string
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig configures the draft cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	DraftTTL time.Duration
}

// Address renders host:port.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig configures payload storage: one bucket per workflow status,
// falling back to the default bucket.
type StorageConfig struct {
	AWSRegion     string
	DefaultBucket string
	StatusBuckets map[workflow.Status]string
}

// OCRConfig selects the recognition backend.
type OCRConfig struct {
	// Backend is "http", "tesseract" or "" for none.
	Backend   string
	Endpoint  string
	Languages []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:        getEnvInt("PORT", 8080),
			CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "taggo"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "taggo"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			DraftTTL: getEnvDuration("DRAFT_TTL", 24*time.Hour),
		},
		Storage: StorageConfig{
			AWSRegion:     getEnv("AWS_REGION", "ap-south-1"),
			DefaultBucket: getEnv("STORAGE_BUCKET", "taggo-documents"),
			StatusBuckets: loadStatusBuckets(),
		},
		OCR: OCRConfig{
			Backend:   getEnv("OCR_BACKEND", ""),
			Endpoint:  getEnv("OCR_ENDPOINT", ""),
			Languages: getEnvStringSlice("OCR_LANGUAGES", []string{"eng"}),
		},
	}
}

// loadStatusBuckets reads per-status bucket overrides, e.g.
// STORAGE_BUCKET_UPLOADED, STORAGE_BUCKET_ACCEPTED.
func loadStatusBuckets() map[workflow.Status]string {
	statuses := []workflow.Status{
		workflow.StatusUploaded,
		workflow.StatusPreLabelled,
		workflow.StatusLabelled,
		workflow.StatusInReview,
		workflow.StatusAccepted,
		workflow.StatusRejected,
		workflow.StatusDone,
	}
	buckets := make(map[workflow.Status]string)
	for _, st := range statuses {
		key := "STORAGE_BUCKET_" + envSuffix(st)
		if v := getEnv(key, ""); v != "" {
			buckets[st] = v
		}
	}
	return buckets
}

func envSuffix(st workflow.Status) string {
	out := make([]byte, 0, len(st))
	for i := 0; i < len(st); i++ {
		c := st[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-('a'-'A'))
		case c == '-':
			out = append(out, '_')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
