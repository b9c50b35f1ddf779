package report

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finsight/internal/llm"
	"finsight/internal/pipeline"
)

// Writer turns a completed analysis run into a markdown report. Each
// section is one model call with its own system role; a section whose
// input data is missing is skipped with a note instead of failing.
type Writer struct {
	model      llm.ChatModel
	resultsDir string
}

// NewWriter creates a report writer that saves under resultsDir.
func NewWriter(model llm.ChatModel, resultsDir string) *Writer {
	return &Writer{model: model, resultsDir: resultsDir}
}

type section struct {
	title string
	role  string
	// input renders the section's prompt body; empty means skip.
	input func(*pipeline.State) string
}

func sections() []section {
	return []section{
		{
			title: "Executive Summary",
			role:  "You are writing the executive summary of an equity research report. Summarize the overall picture across all symbols in one or two tight paragraphs.",
			input: combinedInput,
		},
		{
			title: "Market Analysis",
			role:  "You are writing the market analysis section of an equity research report. Discuss recent price action, momentum and volume for each symbol.",
			input: func(s *pipeline.State) string {
				return notesInput(s, s.TechnicalNotes)
			},
		},
		{
			title: "Technical Analysis",
			role:  "You are writing the technical analysis section of an equity research report. Interpret the indicators for each symbol: moving averages, RSI, volatility, support and resistance.",
			input: technicalInput,
		},
		{
			title: "Fundamental Analysis",
			role:  "You are writing the fundamental analysis section of an equity research report. Interpret the valuation, profitability, financial health, growth and risk ratings for each symbol.",
			input: fundamentalInput,
		},
		{
			title: "Risk Assessment",
			role:  "You are writing the risk assessment section of an equity research report. Weigh volatility, leverage, beta and sentiment into the key risks for each symbol.",
			input: combinedInput,
		},
		{
			title: "Recommendations",
			role:  "You are writing the recommendations section of an equity research report. Present each symbol's recommendation with its rationale and confidence.",
			input: recommendationInput,
		},
	}
}

// Generate builds the full report text for a run.
func (w *Writer) Generate(ctx context.Context, state *pipeline.State) string {
	return w.generate(ctx, state, sections())
}

// GenerateSummary builds a short report: executive summary and
// recommendations only.
func (w *Writer) GenerateSummary(ctx context.Context, state *pipeline.State) string {
	var short []section
	for _, sec := range sections() {
		if sec.title == "Executive Summary" || sec.title == "Recommendations" {
			short = append(short, sec)
		}
	}
	return w.generate(ctx, state, short)
}

func (w *Writer) generate(ctx context.Context, state *pipeline.State, secs []section) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Investment Analysis Report\n\n")
	fmt.Fprintf(&b, "- Symbols: %s\n", strings.Join(state.Analyzed(), ", "))
	fmt.Fprintf(&b, "- Period: %s\n", state.Period)
	fmt.Fprintf(&b, "- Generated: %s\n\n", state.RunDate.Format("2006-01-02 15:04 MST"))

	if len(state.Errors) > 0 {
		b.WriteString("## Skipped Symbols\n\n")
		for _, symbol := range state.Symbols {
			if reason, ok := state.Errors[symbol]; ok {
				fmt.Fprintf(&b, "- %s: %s\n", symbol, reason)
			}
		}
		b.WriteString("\n")
	}

	for _, sec := range secs {
		fmt.Fprintf(&b, "## %s\n\n", sec.title)

		input := sec.input(state)
		if input == "" {
			b.WriteString("*Section skipped: required analysis data is not available.*\n\n")
			continue
		}

		text, err := w.model.Complete(ctx, sec.role, input)
		if err != nil {
			log.Printf("report section %q failed: %v", sec.title, err)
			b.WriteString("*Section unavailable: the language model could not be reached.*\n\n")
			continue
		}
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n\n")
	}

	if len(state.Messages) > 0 {
		b.WriteString("## Notes\n\n")
		for _, m := range state.Messages {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Save writes the report to the results directory and returns its path.
func (w *Writer) Save(state *pipeline.State, content string) (string, error) {
	if err := os.MkdirAll(w.resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.md",
		strings.ToLower(strings.Join(state.Analyzed(), "_")),
		time.Now().Format("20060102_150405"))
	path := filepath.Join(w.resultsDir, name)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func combinedInput(s *pipeline.State) string {
	var b strings.Builder
	for _, symbol := range s.Analyzed() {
		profile := s.Profiles[symbol]
		fmt.Fprintf(&b, "## %s — %s (price %.2f)\n", symbol, profile.CompanyName, profile.CurrentPrice)
		if n := s.TechnicalNotes[symbol]; n != "" {
			fmt.Fprintf(&b, "Technical: %s\n", n)
		}
		a := s.Fundamental[symbol]
		fmt.Fprintf(&b, "Fundamental: valuation=%s profitability=%s health=%s growth=%s risk=%s\n",
			a.Valuation, a.Profitability, a.FinancialHealth, a.Growth, a.Risk)
		if sent := s.Sentiment[symbol]; sent != "" {
			fmt.Fprintf(&b, "Sentiment: %s\n", sent)
		}
		if rec, ok := s.Recommendation[symbol]; ok {
			fmt.Fprintf(&b, "Recommendation: %s (confidence %.2f)\n", rec.Action, rec.Confidence)
		}
		b.WriteString("\n")
	}
	if s.Insights != "" {
		fmt.Fprintf(&b, "Key insights:\n%s\n", s.Insights)
	}
	return strings.TrimSpace(b.String())
}

func notesInput(s *pipeline.State, notes map[string]string) string {
	var b strings.Builder
	for _, symbol := range s.Analyzed() {
		if n := notes[symbol]; n != "" {
			fmt.Fprintf(&b, "%s: %s\n", symbol, n)
		}
	}
	return strings.TrimSpace(b.String())
}

func technicalInput(s *pipeline.State) string {
	var b strings.Builder
	for _, symbol := range s.Analyzed() {
		r := s.Technical[symbol]
		if r == nil {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", symbol)
		fmt.Fprintf(&b, "Current price: %.2f\n", r.CurrentPrice)
		if r.MA20 != nil {
			fmt.Fprintf(&b, "MA20: %.2f\n", *r.MA20)
		}
		if r.MA50 != nil {
			fmt.Fprintf(&b, "MA50: %.2f\n", *r.MA50)
		}
		if r.RSI14 != nil {
			fmt.Fprintf(&b, "RSI(14): %.1f\n", *r.RSI14)
		}
		if r.Volatility != nil {
			fmt.Fprintf(&b, "Annualized volatility: %.1f%%\n", *r.Volatility)
		}
		if r.Support != nil && r.Resistance != nil {
			fmt.Fprintf(&b, "Support: %.2f  Resistance: %.2f (%d bars)\n", *r.Support, *r.Resistance, r.RangeBars)
		}
		fmt.Fprintf(&b, "Volume trend: %s\n", r.VolumeTrend)
		fmt.Fprintf(&b, "Trend signal: %s\n\n", r.TrendSignal)
	}
	return strings.TrimSpace(b.String())
}

func fundamentalInput(s *pipeline.State) string {
	var b strings.Builder
	for _, symbol := range s.Analyzed() {
		a, ok := s.Fundamental[symbol]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: valuation=%s profitability=%s health=%s growth=%s risk=%s",
			symbol, a.Valuation, a.Profitability, a.FinancialHealth, a.Growth, a.Risk)
		if a.Industry != "" {
			fmt.Fprintf(&b, " industry=%s", a.Industry)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func recommendationInput(s *pipeline.State) string {
	var b strings.Builder
	for _, symbol := range s.Analyzed() {
		rec, ok := s.Recommendation[symbol]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s (confidence %.2f)", symbol, rec.Action, rec.Confidence)
		if rec.TargetPrice > 0 {
			fmt.Fprintf(&b, " target %.2f", rec.TargetPrice)
		}
		fmt.Fprintf(&b, "\nRationale: %s\n\n", rec.Rationale)
	}
	return strings.TrimSpace(b.String())
}
