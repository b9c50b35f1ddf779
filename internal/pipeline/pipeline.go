package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"finsight/internal/fundamental"
	"finsight/internal/indicator"
	"finsight/internal/llm"
	"finsight/internal/models"
	"finsight/internal/processing"
)

// DataSource is the upstream surface the pipeline pulls from. Implemented
// by dataflows.Provider; tests substitute a stub.
type DataSource interface {
	PriceHistory(symbol, period string) (models.PriceSeries, error)
	Profile(symbol string) (models.CompanyProfile, error)
	News(symbol string, limit int) ([]models.NewsArticle, error)
}

// State carries everything an analysis run accumulates. Each step reads
// the fields of the previous ones and fills in its own.
type State struct {
	Symbols []string  `json:"symbols"`
	Period  string    `json:"period"`
	RunDate time.Time `json:"run_date"`

	Profiles map[string]models.CompanyProfile `json:"profiles"`
	Series   map[string]models.PriceSeries    `json:"-"`

	Technical      map[string]*indicator.Result         `json:"technical"`
	TechnicalNotes map[string]string                    `json:"technical_notes"`
	Fundamental    map[string]fundamental.Assessment    `json:"fundamental"`
	News           map[string][]models.NewsArticle      `json:"news"`
	Sentiment      map[string]string                    `json:"sentiment"`
	Insights       string                               `json:"insights"`
	Recommendation map[string]processing.Recommendation `json:"recommendation"`

	// Messages records step-level notes (skips, fallbacks) for the report.
	Messages []string `json:"messages"`
	// Errors holds per-symbol failures; a failed symbol is skipped by
	// later steps but never aborts the run.
	Errors map[string]string `json:"errors"`
}

// Analyzed returns the symbols that survived data collection, in input order.
func (s *State) Analyzed() []string {
	out := make([]string, 0, len(s.Symbols))
	for _, sym := range s.Symbols {
		if _, failed := s.Errors[sym]; !failed {
			out = append(out, sym)
		}
	}
	return out
}

func (s *State) addMessage(format string, args ...interface{}) {
	s.Messages = append(s.Messages, fmt.Sprintf(format, args...))
}

// Pipeline runs the analysis steps in sequence: collect, technical,
// fundamental, sentiment, insights, recommendations.
type Pipeline struct {
	source  DataSource
	model   llm.ChatModel
	engine  *indicator.Engine
	fundCfg fundamental.Config
	parser  *processing.Parser

	newsLimit int
}

// New builds a pipeline over the given source and chat model.
func New(source DataSource, model llm.ChatModel, indCfg indicator.Config, fundCfg fundamental.Config) *Pipeline {
	return &Pipeline{
		source:    source,
		model:     model,
		engine:    indicator.NewEngine(indCfg),
		fundCfg:   fundCfg,
		parser:    processing.NewParser(),
		newsLimit: 10,
	}
}

// Run executes the full workflow for the given symbols. It returns an error
// only when no symbol could be analyzed at all.
func (p *Pipeline) Run(ctx context.Context, symbols []string, period string) (*State, error) {
	state := &State{
		Symbols: symbols,
		Period:  period,
		RunDate: time.Now(),

		Profiles:       make(map[string]models.CompanyProfile),
		Series:         make(map[string]models.PriceSeries),
		Technical:      make(map[string]*indicator.Result),
		TechnicalNotes: make(map[string]string),
		Fundamental:    make(map[string]fundamental.Assessment),
		News:           make(map[string][]models.NewsArticle),
		Sentiment:      make(map[string]string),
		Recommendation: make(map[string]processing.Recommendation),
		Errors:         make(map[string]string),
	}

	p.collect(state)
	if len(state.Analyzed()) == 0 {
		return state, fmt.Errorf("no symbol could be analyzed: %v", state.Errors)
	}

	p.technical(state)
	p.fundamentalStep(state)
	p.sentiment(ctx, state)
	p.insights(ctx, state)
	p.recommendations(ctx, state)

	return state, nil
}

// collect fetches profile, price history and news per symbol. A symbol that
// fails here is recorded and skipped downstream; the run continues.
func (p *Pipeline) collect(state *State) {
	for _, symbol := range state.Symbols {
		profile, err := p.source.Profile(symbol)
		if err != nil {
			state.Errors[symbol] = fmt.Sprintf("profile fetch: %v", err)
			log.Printf("collect %s: %v", symbol, err)
			continue
		}
		series, err := p.source.PriceHistory(symbol, state.Period)
		if err != nil {
			state.Errors[symbol] = fmt.Sprintf("price history: %v", err)
			log.Printf("collect %s: %v", symbol, err)
			continue
		}
		state.Profiles[symbol] = profile
		state.Series[symbol] = series

		news, err := p.source.News(symbol, p.newsLimit)
		if err != nil {
			// News is optional input; sentiment degrades gracefully.
			state.addMessage("news unavailable for %s: %v", symbol, err)
		} else {
			state.News[symbol] = news
		}
	}
}

func (p *Pipeline) technical(state *State) {
	for _, symbol := range state.Analyzed() {
		result, err := p.engine.Compute(state.Series[symbol])
		if err != nil {
			state.Errors[symbol] = fmt.Sprintf("technical analysis: %v", err)
			continue
		}
		state.Technical[symbol] = result
		state.TechnicalNotes[symbol] = technicalNotes(result)
	}
}

// technicalNotes renders the indicator result as analyst shorthand for the
// LLM prompts and the report.
func technicalNotes(r *indicator.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Trend signal: %s.", r.TrendSignal)

	if r.RSI14 != nil {
		zone := "neutral"
		switch {
		case *r.RSI14 > 70:
			zone = "overbought"
		case *r.RSI14 < 30:
			zone = "oversold"
		}
		fmt.Fprintf(&b, " RSI(14) at %.1f (%s).", *r.RSI14, zone)
	}

	if r.MA20 != nil && r.MA50 != nil {
		rel := "above"
		if *r.MA20 < *r.MA50 {
			rel = "below"
		}
		fmt.Fprintf(&b, " MA20 %.2f is %s MA50 %.2f.", *r.MA20, rel, *r.MA50)
	}

	if r.Volatility != nil {
		band := "moderate"
		switch {
		case *r.Volatility > 30:
			band = "high"
		case *r.Volatility < 15:
			band = "low"
		}
		fmt.Fprintf(&b, " Annualized volatility %.1f%% (%s).", *r.Volatility, band)
	}

	if r.Support != nil && r.Resistance != nil {
		fmt.Fprintf(&b, " Support %.2f, resistance %.2f over %d bars.", *r.Support, *r.Resistance, r.RangeBars)
	}

	fmt.Fprintf(&b, " Volume trend: %s.", r.VolumeTrend)

	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, " [%s skipped: %s]", d.Indicator, d.Reason)
	}

	return b.String()
}

func (p *Pipeline) fundamentalStep(state *State) {
	for _, symbol := range state.Analyzed() {
		profile := state.Profiles[symbol]
		state.Fundamental[symbol] = fundamental.Assess(profile.Fundamentals, p.fundCfg)
	}
}

const sentimentRole = "You are a market sentiment analyst. Given recent headlines and price moves, summarize the prevailing sentiment for the stock in 2-3 sentences and label it bullish, bearish or neutral."

// sentiment asks the model per symbol; an LLM failure records a neutral
// fallback rather than failing the symbol.
func (p *Pipeline) sentiment(ctx context.Context, state *State) {
	for _, symbol := range state.Analyzed() {
		var b strings.Builder
		fmt.Fprintf(&b, "Symbol: %s (%s)\n", symbol, state.Profiles[symbol].CompanyName)
		if r := state.Technical[symbol]; r != nil {
			if r.PriceChange1D != nil {
				fmt.Fprintf(&b, "1-day change: %.2f%%\n", *r.PriceChange1D)
			}
			if r.PriceChange1W != nil {
				fmt.Fprintf(&b, "1-week change: %.2f%%\n", *r.PriceChange1W)
			}
			if r.PriceChange1M != nil {
				fmt.Fprintf(&b, "1-month change: %.2f%%\n", *r.PriceChange1M)
			}
		}
		if articles := state.News[symbol]; len(articles) > 0 {
			b.WriteString("Recent headlines:\n")
			for _, a := range articles {
				fmt.Fprintf(&b, "- %s (%s)\n", a.Title, a.Source)
			}
		} else {
			b.WriteString("No recent headlines available.\n")
		}

		reply, err := p.model.Complete(ctx, sentimentRole, b.String())
		if err != nil {
			state.Sentiment[symbol] = "Sentiment unavailable; treating as neutral."
			state.addMessage("sentiment model failed for %s: %v", symbol, err)
			continue
		}
		state.Sentiment[symbol] = strings.TrimSpace(reply)
	}
}

const insightsRole = "You are a senior equity analyst. Synthesize the technical, fundamental and sentiment findings below into key insights an investor should know. Be specific and reference the data."

func (p *Pipeline) insights(ctx context.Context, state *State) {
	reply, err := p.model.Complete(ctx, insightsRole, p.combinedAnalysis(state))
	if err != nil {
		state.addMessage("insights model failed: %v", err)
		return
	}
	state.Insights = strings.TrimSpace(reply)
}

const recommendationsRole = "You are an investment advisor. For each symbol below, give a recommendation section starting with a '## SYMBOL' heading and containing a line 'Recommendation: BUY', 'Recommendation: SELL' or 'Recommendation: HOLD', followed by a short rationale and, when sensible, a price target."

// recommendations makes one model call covering every symbol, then parses
// each symbol's section into a structured recommendation.
func (p *Pipeline) recommendations(ctx context.Context, state *State) {
	reply, err := p.model.Complete(ctx, recommendationsRole, p.combinedAnalysis(state))
	if err != nil {
		state.addMessage("recommendation model failed: %v", err)
		for _, symbol := range state.Analyzed() {
			state.Recommendation[symbol] = processing.Recommendation{
				Action:     "HOLD",
				Confidence: 0.1,
				Rationale:  "Model unavailable; defaulting to hold.",
			}
		}
		return
	}

	for _, symbol := range state.Analyzed() {
		section := symbolSection(reply, symbol)
		state.Recommendation[symbol] = p.parser.Parse(section)
	}
}

// symbolSection extracts the block of text belonging to one symbol from a
// multi-symbol model reply; the whole reply is the fallback.
func symbolSection(text, symbol string) string {
	upper := strings.ToUpper(text)
	idx := strings.Index(upper, strings.ToUpper(symbol))
	if idx < 0 {
		return text
	}
	rest := text[idx:]
	if next := strings.Index(rest[1:], "\n## "); next >= 0 {
		return rest[:next+1]
	}
	return rest
}

// combinedAnalysis renders the per-symbol findings as one prompt body.
func (p *Pipeline) combinedAnalysis(state *State) string {
	var b strings.Builder
	for _, symbol := range state.Analyzed() {
		profile := state.Profiles[symbol]
		fmt.Fprintf(&b, "## %s — %s (current price %.2f)\n", symbol, profile.CompanyName, profile.CurrentPrice)
		fmt.Fprintf(&b, "Technical: %s\n", state.TechnicalNotes[symbol])

		a := state.Fundamental[symbol]
		fmt.Fprintf(&b, "Fundamental: valuation=%s profitability=%s health=%s growth=%s risk=%s\n",
			a.Valuation, a.Profitability, a.FinancialHealth, a.Growth, a.Risk)

		if s := state.Sentiment[symbol]; s != "" {
			fmt.Fprintf(&b, "Sentiment: %s\n", s)
		}
		b.WriteString("\n")
	}
	return b.String()
}
