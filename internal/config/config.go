package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type MinIO struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
}

type Gemini struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

type Config struct {
	HTTPAddr          string
	DatabaseURL       string
	RedisAddr         string
	UploadDir         string
	WorkerConcurrency int
	Gemini            Gemini
	MinIO             MinIO
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error; variables already set win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("could not load env file", "path", p, "error", err)
		}
	}
}

// Load reads configuration from the environment and applies defaults. It
// does not validate required settings; call Validate for that.
func Load() (*Config, error) {
	temp, err := envFloat("GEMINI_TEMPERATURE", 0.7)
	if err != nil {
		return nil, err
	}
	maxTokens, err := envInt("GEMINI_MAX_OUTPUT_TOKENS", 8192)
	if err != nil {
		return nil, err
	}
	concurrency, err := envInt("WORKER_CONCURRENCY", 5)
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPAddr:          envOr("HTTP_ADDR", ":8000"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         envOr("REDIS_ADDR", "localhost:6379"),
		UploadDir:         envOr("UPLOAD_DIR", "./public/temp"),
		WorkerConcurrency: concurrency,
		Gemini: Gemini{
			APIKey:          os.Getenv("GEMINI_API_KEY"),
			Model:           envOr("GEMINI_MODEL", "gemini-2.0-flash"),
			Temperature:     float32(temp),
			MaxOutputTokens: int32(maxTokens),
		},
		MinIO: MinIO{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			Bucket:    os.Getenv("MINIO_BUCKET"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		},
	}, nil
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		errs = append(errs, fmt.Errorf("GEMINI_TEMPERATURE must be within [0,2], got %v", c.Gemini.Temperature))
	}
	if c.Gemini.MaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("GEMINI_MAX_OUTPUT_TOKENS must be positive, got %d", c.Gemini.MaxOutputTokens))
	}
	if c.WorkerConcurrency < 1 {
		errs = append(errs, fmt.Errorf("WORKER_CONCURRENCY must be >= 1, got %d", c.WorkerConcurrency))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(key string, defaultVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, s, err)
	}
	return v, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, s, err)
	}
	return v, nil
}
