/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from operating system environment variables, optionally seeded from a .env file:
the running environment, port, CORS origins, the bearer-token secret, the S3 bucket and
connection parameters, and the upload worker and rate limits.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvDevelopment is the default running environment.
	EnvDevelopment = "development"

	// MaxUploadConcurrency caps UPLOAD_CONCURRENCY.
	MaxUploadConcurrency = 32

	defaultJWTSecret = "your_default_insecure_secret_key_change_me"
)

// AppConfig contains all configuration parameters required for the application to run.
// It is loaded once at startup and treated as immutable afterwards.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// S3 Storage Settings
	StorageDriver     string
	S3BucketName      string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Upload Settings
	UploadConcurrency int
	UploadRate        float64
	UploadBurst       int
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// LoadDotEnv loads variables from the given .env files into the process environment.
// Variables already set in the environment win. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfig reads and parses the application configuration from environment variables.
// It applies defaults, converts types and validates ranges.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = getEnv("ENVIRONMENT", EnvDevelopment)

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	cfg.AllowedOrigins = []string{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		cfg.JWTSecret = defaultJWTSecret
	}

	// --- S3 Storage Settings ---
	cfg.S3BucketName = strings.TrimSpace(os.Getenv("S3_BUCKET_NAME"))
	if cfg.S3BucketName == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME environment variable is required for S3 storage connection")
	}

	cfg.StorageDriver = getEnv("STORAGE_DRIVER", "s3")
	cfg.S3Region = getEnv("S3_REGION", "us-east-1")
	cfg.S3Endpoint = strings.TrimRight(os.Getenv("S3_ENDPOINT"), "/")

	switch cfg.StorageDriver {
	case "s3":
	case "memory":
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("STORAGE_DRIVER=memory is only allowed in the %s environment", EnvDevelopment)
		}
		if cfg.S3Endpoint == "" {
			cfg.S3Endpoint = fmt.Sprintf("http://localhost:%d/objects", cfg.Port)
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (want s3 or memory)", cfg.StorageDriver)
	}

	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	if (cfg.S3AccessKeyID == "") != (cfg.S3SecretAccessKey == "") {
		return nil, fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	// --- Upload Settings ---
	concurrency, err := getInt("UPLOAD_CONCURRENCY", 1)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 || concurrency > MaxUploadConcurrency {
		return nil, fmt.Errorf("UPLOAD_CONCURRENCY %d is outside the allowed range (1-%d)", concurrency, MaxUploadConcurrency)
	}
	cfg.UploadConcurrency = concurrency

	rateStr := getEnv("UPLOAD_RATE", "1")
	uploadRate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_RATE environment variable: %w", err)
	}
	if uploadRate <= 0 {
		return nil, fmt.Errorf("UPLOAD_RATE must be positive, got %v", uploadRate)
	}
	cfg.UploadRate = uploadRate

	burst, err := getInt("UPLOAD_BURST", 5)
	if err != nil {
		return nil, err
	}
	if burst < 1 {
		return nil, fmt.Errorf("UPLOAD_BURST must be at least 1, got %d", burst)
	}
	cfg.UploadBurst = burst

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}
