package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir  string `json:"log_dir"`
	DataDir string `json:"data_dir"`

	// Rate limiting
	RateLimit RateLimitConfig `json:"rate_limit"`

	// CORS configuration
	CORS CORSConfig `json:"cors"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Pipeline settings
	Pipeline PipelineConfig `json:"pipeline"`

	// Transcription provider settings
	Deepgram DeepgramConfig `json:"deepgram"`

	// LLM provider settings
	LLM LLMConfig `json:"llm"`

	// Optional S3-compatible artifact mirror
	Spaces SpacesConfig `json:"spaces"`

	// Request and shutdown timeouts
	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers"`
}

type DatabaseConfig struct {
	Path           string `json:"path"`
	MaxConnections int    `json:"max_connections"`
}

type PipelineConfig struct {
	ProcessTimeout time.Duration `json:"process_timeout"`
	DownloaderPath string        `json:"downloader_path"`
}

type DeepgramConfig struct {
	APIKey  string        `json:"-"`
	BaseURL string        `json:"base_url"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
}

type LLMConfig struct {
	APIKey            string        `json:"-"`
	Provider          string        `json:"provider"`
	Model             string        `json:"model"`
	BaseURL           string        `json:"base_url"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	RequestsPerMinute int           `json:"requests_per_minute"`
}

type SpacesConfig struct {
	Enabled   bool   `json:"enabled"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
}

// Load reads configuration from environment variables. Credentials come
// exclusively from the environment; there are no compiled-in fallbacks, and
// a missing key surfaces as an explicit error at the point of use.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		LogDir:  getEnv("LOG_DIR", "./logs"),
		DataDir: getEnv("DATA_DIR", "./data"),

		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
		},

		CORS: CORSConfig{
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsStringSlice(
				"CORS_ALLOWED_METHODS",
				[]string{"GET", "POST", "OPTIONS"},
			),
			AllowedHeaders: getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
		},

		Database: DatabaseConfig{
			Path:           getEnv("DB_PATH", "./data/videos.db"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 10),
		},

		Pipeline: PipelineConfig{
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 30*time.Minute),
			DownloaderPath: getEnv("DOWNLOADER_PATH", "yt-dlp"),
		},

		Deepgram: DeepgramConfig{
			APIKey:  os.Getenv("DEEPGRAM_API_KEY"),
			BaseURL: getEnv("DEEPGRAM_BASE_URL", "https://api.deepgram.com"),
			Model:   getEnv("DEEPGRAM_MODEL", "nova-3"),
			Timeout: getEnvAsDuration("DEEPGRAM_TIMEOUT", 300*time.Second),
		},

		LLM: LLMConfig{
			APIKey:            os.Getenv("GEMINI_API_KEY"),
			Provider:          getEnv("LLM_PROVIDER", "google"),
			Model:             getEnv("LLM_MODEL", "gemini-2.0-flash"),
			BaseURL:           getEnv("LLM_BASE_URL", ""),
			RequestTimeout:    getEnvAsDuration("LLM_REQUEST_TIMEOUT", 2*time.Minute),
			RequestsPerMinute: getEnvAsInt("LLM_RPM", 0),
		},

		Spaces: SpacesConfig{
			Enabled:   getEnvAsBool("SPACES_ENABLED", false),
			AccessKey: os.Getenv("SPACES_ACCESS_KEY"),
			SecretKey: os.Getenv("SPACES_SECRET_KEY"),
			Region:    getEnv("SPACES_REGION", "us-east-1"),
			Endpoint:  getEnv("SPACES_ENDPOINT", ""),
			Bucket:    getEnv("SPACES_BUCKET", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}
	if err := validateTimeouts(c); err != nil {
		return err
	}
	if c.Spaces.Enabled {
		if c.Spaces.Bucket == "" || c.Spaces.Endpoint == "" {
			return fmt.Errorf("spaces mirror enabled but bucket or endpoint missing")
		}
		if c.Spaces.AccessKey == "" || c.Spaces.SecretKey == "" {
			return fmt.Errorf("spaces mirror enabled but credentials missing")
		}
	}
	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{c.DataDir, "data directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return errors.Wrapf(err, "failed to create %s", p.name)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.Pipeline.ProcessTimeout <= 0 {
		return fmt.Errorf("process timeout must be positive")
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			return strings.Split(value, ",")
		}
	}
	return defaultValue
}
