package config

import (
	"os"
	"strconv"
	"time"
)

// Ledger slot backends selectable through LEDGER_BACKEND.
const (
	BackendMemory   = "memory"
	BackendMinIO    = "minio"
	BackendPostgres = "postgres"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LedgerConfig selects where the provenance ledger document is mirrored.
type LedgerConfig struct {
	Backend        string
	Key            string
	PersistTimeout time.Duration
}

// RegistrarConfig points at the gateway that anchors digests on the contract.
type RegistrarConfig struct {
	URL     string
	Timeout time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	Env            string
	Location       string
	UploadMaxBytes int
	Database       DatabaseConfig
	MinIO          MinIOConfig
	Ledger         LedgerConfig
	Registrar      RegistrarConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		Location:       getEnv("TZ_LOCATION", "UTC"),
		UploadMaxBytes: getEnvInt("UPLOAD_MAX_BYTES", 100<<20),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Ledger: LedgerConfig{
			Backend:        getEnv("LEDGER_BACKEND", BackendMemory),
			Key:            getEnv("LEDGER_KEY", "provenance/ledger.json"),
			PersistTimeout: getEnvDuration("LEDGER_PERSIST_TIMEOUT", 5*time.Second),
		},
		Registrar: RegistrarConfig{
			URL:     getEnv("REGISTRAR_URL", ""),
			Timeout: getEnvDuration("REGISTRAR_TIMEOUT", 15*time.Second),
		},
	}
}

// TimeLocation resolves Location, falling back to UTC for unknown zone names.
func (c *AppConfig) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}
