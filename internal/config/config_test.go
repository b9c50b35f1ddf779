package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DefaultPeriod != "1y" {
		t.Errorf("expected default period 1y, got %s", cfg.DefaultPeriod)
	}
	if cfg.Indicators.ShortWindow != 20 || cfg.Indicators.LongWindow != 50 {
		t.Errorf("unexpected default MA windows: %d/%d", cfg.Indicators.ShortWindow, cfg.Indicators.LongWindow)
	}
	if cfg.Fundamental.PEUndervalued != 15 {
		t.Errorf("unexpected default P/E band: %v", cfg.Fundamental.PEUndervalued)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FINSIGHT_PERIOD", "6mo")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("CACHE_ENABLED", "false")

	cfg := DefaultConfig()
	if cfg.DefaultPeriod != "6mo" {
		t.Errorf("expected period override 6mo, got %s", cfg.DefaultPeriod)
	}
	if cfg.LLMModel != "gpt-4o-mini" {
		t.Errorf("expected model override, got %s", cfg.LLMModel)
	}
	if cfg.CacheEnabled {
		t.Error("expected cache disabled via env")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.DefaultPeriod = "fortnight"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid period")
	}

	cfg = DefaultConfig()
	cfg.LLMMaxTokens = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max tokens")
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")

	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when no API key is set")
	}
}

func TestEnsureDirectories(t *testing.T) {
	t.Setenv("FINSIGHT_RESULTS_DIR", filepath.Join(t.TempDir(), "reports"))
	t.Setenv("FINSIGHT_CACHE_DIR", filepath.Join(t.TempDir(), "cache"))
	t.Setenv("FINSIGHT_DB_PATH", filepath.Join(t.TempDir(), "db", "finsight.db"))

	cfg := DefaultConfig()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
}
