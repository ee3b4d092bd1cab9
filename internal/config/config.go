package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
	ModeTesting     Mode = "testing"
)

const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// RateLimits are requests per minute per client.
type RateLimits struct {
	Predictions int
	Mentorship  int
	Uploads     int
	General     int
}

type Config struct {
	Mode Mode

	Port string

	GCPProjectID   string
	GCPLocation    string
	GeminiAPIKey   string
	ModelName      string
	EmbeddingModel string
	UseMockLLM     bool // true = use mock even when credentials exist

	StorageBackend string // "memory", "sqlite" or "firestore"
	SQLitePath     string

	RedisURL           string
	EnableCaching      bool
	CacheTTL           time.Duration
	PredictionCacheTTL time.Duration

	UploadDir         string
	MaxUploadBytes    int64
	AllowedExtensions []string

	CORSOrigins []string

	LogLevel    string
	LogFile     string
	FileLogging bool

	RateLimits RateLimits
}

// keys are the lower-cased environment variable names; viper resolves them
// against the environment first, then the optional .env file, then defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("prima_mode", string(ModeDevelopment))
	v.SetDefault("prima_port", "8080")
	v.SetDefault("prima_gcp_project", "")
	v.SetDefault("prima_gcp_location", "us-central1")
	v.SetDefault("prima_gemini_api_key", "")
	v.SetDefault("prima_model_name", "gemini-2.5-flash")
	v.SetDefault("prima_embedding_model", "gemini-embedding-001")
	v.SetDefault("prima_storage_backend", BackendMemory)
	v.SetDefault("prima_sqlite_path", "data/prima_scholar.db")
	v.SetDefault("prima_redis_url", "")
	v.SetDefault("prima_enable_caching", true)
	v.SetDefault("prima_cache_ttl", 300)
	v.SetDefault("prima_prediction_cache_ttl", 600)
	v.SetDefault("prima_upload_dir", "./uploads")
	v.SetDefault("prima_max_upload_mb", 50)
	v.SetDefault("prima_allowed_extensions", "txt,md,markdown")
	v.SetDefault("prima_cors_origins", "http://localhost:3000")
	v.SetDefault("prima_log_level", "info")
	v.SetDefault("prima_log_file", "./logs/prima_scholar.log")
	v.SetDefault("prima_file_logging", false)
	v.SetDefault("prima_rate_predictions", 60)
	v.SetDefault("prima_rate_mentorship", 30)
	v.SetDefault("prima_rate_uploads", 10)
	v.SetDefault("prima_rate_general", 100)
}

// Load reads .env (when present) and the environment and builds the config.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path; an empty path skips the file.
func LoadFrom(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", envFile, err)
			}
		}
	}

	mode := parseMode(v.GetString("prima_mode"))

	cfg := &Config{
		Mode: mode,

		Port: v.GetString("prima_port"),

		GCPProjectID:   v.GetString("prima_gcp_project"),
		GCPLocation:    v.GetString("prima_gcp_location"),
		GeminiAPIKey:   v.GetString("prima_gemini_api_key"),
		ModelName:      v.GetString("prima_model_name"),
		EmbeddingModel: v.GetString("prima_embedding_model"),

		StorageBackend: strings.ToLower(v.GetString("prima_storage_backend")),
		SQLitePath:     v.GetString("prima_sqlite_path"),

		RedisURL:           v.GetString("prima_redis_url"),
		EnableCaching:      v.GetBool("prima_enable_caching"),
		CacheTTL:           time.Duration(v.GetInt("prima_cache_ttl")) * time.Second,
		PredictionCacheTTL: time.Duration(v.GetInt("prima_prediction_cache_ttl")) * time.Second,

		UploadDir:         v.GetString("prima_upload_dir"),
		MaxUploadBytes:    int64(v.GetInt("prima_max_upload_mb")) << 20,
		AllowedExtensions: splitList(v.GetString("prima_allowed_extensions")),

		CORSOrigins: splitList(v.GetString("prima_cors_origins")),

		LogLevel:    v.GetString("prima_log_level"),
		LogFile:     v.GetString("prima_log_file"),
		FileLogging: v.GetBool("prima_file_logging"),

		RateLimits: RateLimits{
			Predictions: v.GetInt("prima_rate_predictions"),
			Mentorship:  v.GetInt("prima_rate_mentorship"),
			Uploads:     v.GetInt("prima_rate_uploads"),
			General:     v.GetInt("prima_rate_general"),
		},
	}

	noCredentials := cfg.GeminiAPIKey == "" && cfg.GCPProjectID == ""
	cfg.UseMockLLM = noCredentials
	if v.IsSet("prima_use_mock_llm") {
		cfg.UseMockLLM = v.GetBool("prima_use_mock_llm")
	}

	applyModeOverrides(cfg, v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeProduction:
		return ModeProduction
	case ModeTesting:
		return ModeTesting
	default:
		return ModeDevelopment
	}
}

// explicit reports whether key came from the environment or the .env file.
// IsSet is also true for keys that only have a default.
func explicit(v *viper.Viper, key string) bool {
	if _, ok := os.LookupEnv(strings.ToUpper(key)); ok {
		return true
	}
	return v.InConfig(key)
}

// applyModeOverrides mirrors the per-environment profiles. Explicitly set
// values always win.
func applyModeOverrides(cfg *Config, v *viper.Viper) {
	switch cfg.Mode {
	case ModeDevelopment:
		if !explicit(v, "prima_log_level") {
			cfg.LogLevel = "debug"
		}
	case ModeProduction:
		if !explicit(v, "prima_cache_ttl") {
			cfg.CacheTTL = 10 * time.Minute
		}
		if !explicit(v, "prima_prediction_cache_ttl") {
			cfg.PredictionCacheTTL = 30 * time.Minute
		}
	case ModeTesting:
		cfg.UseMockLLM = true
		cfg.EnableCaching = false
		cfg.CacheTTL = 0
		cfg.PredictionCacheTTL = 0
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageBackend {
	case BackendMemory, BackendSQLite:
	case BackendFirestore:
		if c.GCPProjectID == "" {
			errs = append(errs, errors.New("PRIMA_GCP_PROJECT is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PRIMA_STORAGE_BACKEND %q", c.StorageBackend))
	}

	if c.StorageBackend == BackendSQLite && c.SQLitePath == "" {
		errs = append(errs, errors.New("PRIMA_SQLITE_PATH is required for the sqlite backend"))
	}

	if !c.UseMockLLM && c.GeminiAPIKey == "" && c.GCPProjectID == "" {
		errs = append(errs, errors.New("PRIMA_GEMINI_API_KEY or PRIMA_GCP_PROJECT is required unless PRIMA_USE_MOCK_LLM is set"))
	}

	if c.CacheTTL < 0 || c.PredictionCacheTTL < 0 {
		errs = append(errs, errors.New("cache TTLs must not be negative"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("PRIMA_MAX_UPLOAD_MB must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(errs...))
	}
	return nil
}

// ExtensionAllowed reports whether ext (with or without the dot) may be uploaded.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range c.AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
