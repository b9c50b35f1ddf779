package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finsight/internal/fundamental"
	"finsight/internal/indicator"
	"finsight/internal/models"
)

type stubSource struct {
	failProfile map[string]bool
	failHistory map[string]bool
	failNews    bool
	bars        int
}

func (s *stubSource) Profile(symbol string) (models.CompanyProfile, error) {
	if s.failProfile[symbol] {
		return models.CompanyProfile{}, errors.New("symbol not found")
	}
	return models.CompanyProfile{
		Symbol:       symbol,
		CompanyName:  symbol + " Inc",
		CurrentPrice: 100,
		Fundamentals: models.FundamentalSnapshot{
			PERatio:      models.Float(12),
			ProfitMargin: models.Float(0.25),
			DebtToEquity: models.Float(0.3),
		},
	}, nil
}

func (s *stubSource) PriceHistory(symbol, period string) (models.PriceSeries, error) {
	if s.failHistory[symbol] {
		return models.PriceSeries{}, errors.New("upstream down")
	}
	n := s.bars
	if n == 0 {
		n = 60
	}
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = models.PriceBar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
		}
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

func (s *stubSource) News(symbol string, limit int) ([]models.NewsArticle, error) {
	if s.failNews {
		return nil, errors.New("feed unreachable")
	}
	return []models.NewsArticle{
		{Title: symbol + " beats earnings expectations", Source: "Newswire"},
	}, nil
}

type stubModel struct {
	calls []string
	fail  bool
	reply func(system, user string) string
}

func (m *stubModel) Complete(_ context.Context, system, user string) (string, error) {
	m.calls = append(m.calls, system)
	if m.fail {
		return "", errors.New("rate limited")
	}
	if m.reply != nil {
		return m.reply(system, user), nil
	}
	return "The outlook is bullish with growth potential.", nil
}

func newTestPipeline(source DataSource, model *stubModel) *Pipeline {
	return New(source, model, indicator.DefaultConfig(), fundamental.DefaultConfig())
}

func TestRunHappyPath(t *testing.T) {
	model := &stubModel{reply: func(system, user string) string {
		if strings.Contains(system, "investment advisor") {
			return "## AAPL\nRecommendation: BUY\nUndervalued with strong growth. Price target $130.\n"
		}
		return "Momentum is strong and sentiment is bullish."
	}}
	p := newTestPipeline(&stubSource{}, model)

	state, err := p.Run(context.Background(), []string{"AAPL"}, "1y")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	r := state.Technical["AAPL"]
	if r == nil {
		t.Fatal("expected technical result")
	}
	if r.MA20 == nil || r.MA50 == nil {
		t.Error("expected both moving averages on a 60-bar series")
	}
	if state.Fundamental["AAPL"].Valuation != "undervalued" {
		t.Errorf("expected undervalued, got %s", state.Fundamental["AAPL"].Valuation)
	}
	if state.Sentiment["AAPL"] == "" {
		t.Error("expected sentiment text")
	}
	if state.Insights == "" {
		t.Error("expected insights text")
	}
	rec := state.Recommendation["AAPL"]
	if rec.Action != "BUY" {
		t.Errorf("expected BUY recommendation, got %s", rec.Action)
	}
	if rec.TargetPrice != 130 {
		t.Errorf("expected target 130, got %v", rec.TargetPrice)
	}
}

func TestRunSkipsFailedSymbol(t *testing.T) {
	source := &stubSource{failHistory: map[string]bool{"BAD": true}}
	p := newTestPipeline(source, &stubModel{})

	state, err := p.Run(context.Background(), []string{"AAPL", "BAD"}, "1y")
	if err != nil {
		t.Fatalf("Run should continue past one failed symbol: %v", err)
	}

	if _, ok := state.Errors["BAD"]; !ok {
		t.Error("expected BAD recorded in Errors")
	}
	if _, ok := state.Technical["BAD"]; ok {
		t.Error("failed symbol must not reach technical step")
	}
	if _, ok := state.Technical["AAPL"]; !ok {
		t.Error("healthy symbol should still be analyzed")
	}
	if got := state.Analyzed(); len(got) != 1 || got[0] != "AAPL" {
		t.Errorf("Analyzed() = %v", got)
	}
}

func TestRunAllSymbolsFail(t *testing.T) {
	source := &stubSource{failProfile: map[string]bool{"X": true, "Y": true}}
	p := newTestPipeline(source, &stubModel{})

	if _, err := p.Run(context.Background(), []string{"X", "Y"}, "1y"); err == nil {
		t.Fatal("expected error when every symbol fails collection")
	}
}

func TestRunLLMFailureFallsBack(t *testing.T) {
	model := &stubModel{fail: true}
	p := newTestPipeline(&stubSource{}, model)

	state, err := p.Run(context.Background(), []string{"AAPL"}, "1y")
	if err != nil {
		t.Fatalf("Run should survive model failures: %v", err)
	}

	if !strings.Contains(state.Sentiment["AAPL"], "neutral") {
		t.Errorf("expected neutral sentiment fallback, got %q", state.Sentiment["AAPL"])
	}
	if state.Insights != "" {
		t.Error("insights should stay empty on model failure")
	}
	if state.Recommendation["AAPL"].Action != "HOLD" {
		t.Errorf("expected HOLD fallback, got %s", state.Recommendation["AAPL"].Action)
	}
	if len(state.Messages) == 0 {
		t.Error("fallbacks should be recorded in Messages")
	}
}

func TestRunNewsFailureIsNonFatal(t *testing.T) {
	p := newTestPipeline(&stubSource{failNews: true}, &stubModel{})

	state, err := p.Run(context.Background(), []string{"AAPL"}, "1y")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, failed := state.Errors["AAPL"]; failed {
		t.Error("news failure must not fail the symbol")
	}
	found := false
	for _, m := range state.Messages {
		if strings.Contains(m, "news unavailable") {
			found = true
		}
	}
	if !found {
		t.Error("expected a news-unavailable message")
	}
}

func TestTechnicalNotesMentionZones(t *testing.T) {
	model := &stubModel{}
	p := newTestPipeline(&stubSource{}, model)

	state, err := p.Run(context.Background(), []string{"AAPL"}, "1y")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	notes := state.TechnicalNotes["AAPL"]
	// A steadily rising series is overbought by RSI.
	if !strings.Contains(notes, "overbought") {
		t.Errorf("expected overbought note, got %q", notes)
	}
	if !strings.Contains(notes, "Support") {
		t.Errorf("expected support/resistance note, got %q", notes)
	}
}

func TestSymbolSection(t *testing.T) {
	reply := "## AAPL\nRecommendation: BUY\nStrong.\n## MSFT\nRecommendation: HOLD\nWait.\n"

	aapl := symbolSection(reply, "AAPL")
	if !strings.Contains(aapl, "BUY") || strings.Contains(aapl, "MSFT") {
		t.Errorf("AAPL section wrong: %q", aapl)
	}
	msft := symbolSection(reply, "MSFT")
	if !strings.Contains(msft, "HOLD") {
		t.Errorf("MSFT section wrong: %q", msft)
	}
	if got := symbolSection(reply, "TSLA"); got != reply {
		t.Errorf("missing symbol should fall back to full reply, got %q", got)
	}
}

func TestShortSeriesProducesDiagnostics(t *testing.T) {
	p := newTestPipeline(&stubSource{bars: 30}, &stubModel{})

	state, err := p.Run(context.Background(), []string{"AAPL"}, "1y")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := state.Technical["AAPL"]
	if r.MA50 != nil {
		t.Error("MA50 should be absent on 30 bars")
	}
	if len(r.Diagnostics) == 0 {
		t.Error("expected diagnostics for skipped indicators")
	}
	if !strings.Contains(state.TechnicalNotes["AAPL"], "skipped") {
		t.Errorf("notes should surface skipped indicators: %q", state.TechnicalNotes["AAPL"])
	}
}
