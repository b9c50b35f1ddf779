package storage

import (
	"path/filepath"
	"testing"
	"time"

	"finsight/internal/fundamental"
	"finsight/internal/indicator"
	"finsight/internal/pipeline"
	"finsight/internal/processing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "finsight.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testState(symbols ...string) *pipeline.State {
	state := &pipeline.State{
		Symbols:        symbols,
		Period:         "1y",
		RunDate:        time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
		Technical:      make(map[string]*indicator.Result),
		Fundamental:    make(map[string]fundamental.Assessment),
		Sentiment:      make(map[string]string),
		Recommendation: make(map[string]processing.Recommendation),
		Errors:         make(map[string]string),
	}
	for _, sym := range symbols {
		state.Technical[sym] = &indicator.Result{Symbol: sym, TrendSignal: indicator.Bullish}
		state.Fundamental[sym] = fundamental.Assessment{Valuation: "undervalued"}
		state.Recommendation[sym] = processing.Recommendation{Action: "BUY", Confidence: 0.7}
	}
	return state
}

func TestSaveAndListRuns(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveRun(testState("AAPL", "MSFT"), "/tmp/report.md"); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	records, err := store.ListRuns("", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.TrendSignal != "bullish" || first.Valuation != "undervalued" || first.Recommendation != "BUY" {
		t.Errorf("unexpected record: %+v", first)
	}
	if first.ReportPath != "/tmp/report.md" {
		t.Errorf("report path not recorded: %s", first.ReportPath)
	}
}

func TestListRunsFiltersBySymbol(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveRun(testState("AAPL", "MSFT"), ""); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	records, err := store.ListRuns("aapl", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(records) != 1 || records[0].Symbol != "AAPL" {
		t.Errorf("filter failed: %+v", records)
	}
}

func TestSaveRunSkipsFailedSymbols(t *testing.T) {
	store := openTestStore(t)

	state := testState("AAPL")
	state.Symbols = append(state.Symbols, "BAD")
	state.Errors["BAD"] = "profile fetch failed"

	if err := store.SaveRun(state, ""); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	records, err := store.ListRuns("", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("failed symbol must not be recorded, got %d rows", len(records))
	}
}

func TestGetRunIncludesResultJSON(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveRun(testState("AAPL"), ""); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	records, err := store.ListRuns("", 1)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}

	rec, err := store.GetRun(records[0].ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec.ResultJSON == "" {
		t.Error("expected stored result JSON")
	}

	if _, err := store.GetRun(99999); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Error("expected error for empty db path")
	}
}
