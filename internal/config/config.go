package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"finsight/internal/fundamental"
	"finsight/internal/indicator"
)

// Config is the application configuration. Defaults come from
// DefaultConfig; a .env file and environment variables override them.
type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataCacheDir string `json:"data_cache_dir"`
	DatabasePath string `json:"database_path"`

	// LLM settings. APIKey is read from OPENAI_API_KEY (or the
	// provider-specific variable) and never written to disk.
	LLMProvider    string  `json:"llm_provider"`
	LLMModel       string  `json:"llm_model"`
	LLMBaseURL     string  `json:"llm_base_url"`
	LLMTemperature float64 `json:"llm_temperature"`
	LLMMaxTokens   int     `json:"llm_max_tokens"`

	FinnhubAPIKey string `json:"-"`

	DefaultPeriod string `json:"default_period"` // 6mo, 1y, 2y, 5y
	CacheEnabled  bool   `json:"cache_enabled"`
	Debug         bool   `json:"debug"`

	Indicators  indicator.Config   `json:"indicators"`
	Fundamental fundamental.Config `json:"fundamental"`
}

// DefaultConfig builds the default configuration, then applies .env and
// environment overrides.
func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "reports"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),
		DatabasePath: filepath.Join(currentDir, "data", "finsight.db"),

		LLMProvider:    "openai",
		LLMModel:       "gpt-4",
		LLMBaseURL:     "https://api.openai.com/v1",
		LLMTemperature: 0.2,
		LLMMaxTokens:   1500,

		DefaultPeriod: "1y",
		CacheEnabled:  true,

		Indicators:  indicator.DefaultConfig(),
		Fundamental: fundamental.DefaultConfig(),
	}

	// Load environment variables from .env file if present.
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("FINSIGHT_RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("FINSIGHT_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}
	if val := os.Getenv("FINSIGHT_DB_PATH"); val != "" {
		c.DatabasePath = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.LLMModel = val
	}
	if val := os.Getenv("LLM_BASE_URL"); val != "" {
		c.LLMBaseURL = val
	}
	if val := os.Getenv("LLM_MAX_TOKENS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.LLMMaxTokens = v
		}
	}

	if val := os.Getenv("FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	}

	if val := os.Getenv("FINSIGHT_PERIOD"); val != "" {
		c.DefaultPeriod = val
	}
	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("FINSIGHT_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

// APIKey returns the LLM API key for the configured provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "deepseek":
		return os.Getenv("DEEPSEEK_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// Validate checks that the configuration can support an analysis run.
func (c *Config) Validate() error {
	if c.APIKey() == "" {
		return fmt.Errorf("no API key set for LLM provider %q", c.LLMProvider)
	}
	switch c.DefaultPeriod {
	case "1mo", "3mo", "6mo", "1y", "2y", "5y":
	default:
		return fmt.Errorf("invalid period %q: must be one of 1mo, 3mo, 6mo, 1y, 2y, 5y", c.DefaultPeriod)
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("llm_max_tokens must be positive, got %d", c.LLMMaxTokens)
	}
	return nil
}

// EnsureDirectories creates the output and cache directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ResultsDir, c.DataCacheDir, filepath.Dir(c.DatabasePath)}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
