package dataflows

import (
	"errors"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Hour, true)

	type payload struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	want := payload{Symbol: "AAPL", Price: 182.5}

	if err := cm.Set("yahoo", "quote", "AAPL", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if !cm.Get("yahoo", "quote", "AAPL", &got) {
		t.Fatal("expected cache hit")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCacheMiss(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Hour, true)

	var got string
	if cm.Get("yahoo", "quote", "MSFT", &got) {
		t.Error("expected cache miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), -time.Second, true)

	if err := cm.Set("yahoo", "quote", "AAPL", "stale"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got string
	if cm.Get("yahoo", "quote", "AAPL", &got) {
		t.Error("expected expired entry to miss")
	}
}

func TestCacheDisabled(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Hour, false)

	if err := cm.Set("yahoo", "quote", "AAPL", "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got string
	if cm.Get("yahoo", "quote", "AAPL", &got) {
		t.Error("disabled cache must never hit")
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}

	attempts := 0
	err := WithRetry(cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryExhausted(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}

	sentinel := errors.New("down")
	err := WithRetry(cfg, func() error { return sentinel })
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel error, got %v", err)
	}
}

func TestValidateSymbol(t *testing.T) {
	if err := ValidateSymbol("aapl"); err != nil {
		t.Errorf("lower-case symbol should validate: %v", err)
	}
	if err := ValidateSymbol(""); err == nil {
		t.Error("empty symbol should fail")
	}
	if err := ValidateSymbol("TOOLONGSYMBOL"); err == nil {
		t.Error("over-long symbol should fail")
	}
	if got := NormalizeSymbol("  brk.b "); got != "BRK.B" {
		t.Errorf("NormalizeSymbol: got %s", got)
	}
}

func TestParsePubDate(t *testing.T) {
	got := parsePubDate("Mon, 02 Jan 2006 15:04:05 -0700")
	if got.IsZero() {
		t.Error("RFC1123Z date should parse")
	}
	if !parsePubDate("not a date").IsZero() {
		t.Error("garbage date should yield zero time")
	}
}
