package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"finsight/internal/pipeline"
	"finsight/internal/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	summaryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)

	buyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	sellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	holdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))
)

// DisplayWelcomeBanner shows the startup banner.
func DisplayWelcomeBanner() {
	banner := `
███████╗██╗███╗   ██╗███████╗██╗ ██████╗ ██╗  ██╗████████╗
██╔════╝██║████╗  ██║██╔════╝██║██╔════╝ ██║  ██║╚══██╔══╝
█████╗  ██║██╔██╗ ██║███████╗██║██║  ███╗███████║   ██║
██╔══╝  ██║██║╚██╗██║╚════██║██║██║   ██║██╔══██║   ██║
██║     ██║██║ ╚████║███████║██║╚██████╔╝██║  ██║   ██║
╚═╝     ╚═╝╚═╝  ╚═══╝╚══════╝╚═╝ ╚═════╝ ╚═╝  ╚═╝   ╚═╝
`
	welcomeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	fmt.Print(welcomeStyle.Render(banner))
	fmt.Println(infoStyle.Render("  Stock analysis with technical indicators, fundamentals and LLM insight"))
	fmt.Println()
}

func actionStyle(action string) lipgloss.Style {
	switch action {
	case "BUY":
		return buyStyle
	case "SELL":
		return sellStyle
	default:
		return holdStyle
	}
}

// DisplayRunSummary renders the per-symbol outcome of a finished run.
func DisplayRunSummary(state *pipeline.State, reportPath string) {
	var content strings.Builder

	content.WriteString("Analysis Summary\n\n")
	for _, symbol := range state.Analyzed() {
		profile := state.Profiles[symbol]
		rec := state.Recommendation[symbol]
		assessment := state.Fundamental[symbol]

		var trend string
		if r := state.Technical[symbol]; r != nil {
			trend = string(r.TrendSignal)
		}

		content.WriteString(fmt.Sprintf("%s  %s  (%.2f)\n", symbol, profile.CompanyName, profile.CurrentPrice))
		content.WriteString(fmt.Sprintf("  Trend: %s | Valuation: %s | Risk: %s\n",
			trend, assessment.Valuation, assessment.Risk))
		content.WriteString(fmt.Sprintf("  %s (confidence %.0f%%)\n\n",
			actionStyle(rec.Action).Render(rec.Action), rec.Confidence*100))
	}

	for _, symbol := range state.Symbols {
		if reason, failed := state.Errors[symbol]; failed {
			content.WriteString(errorStyle.Render(fmt.Sprintf("%s skipped: %s", symbol, reason)) + "\n")
		}
	}

	if reportPath != "" {
		content.WriteString(fmt.Sprintf("\nReport saved to %s", reportPath))
	}

	fmt.Println(summaryStyle.Render(strings.TrimRight(content.String(), "\n")))
}

// DisplayRunRecords renders stored run history.
func DisplayRunRecords(records []storage.RunRecord) {
	if len(records) == 0 {
		fmt.Println(infoStyle.Render("No recorded runs yet. Run `finsight analyze SYMBOL` first."))
		return
	}

	fmt.Println(titleStyle.Render("Recorded Runs"))
	for _, r := range records {
		line := fmt.Sprintf("#%-4d %-8s %-12s trend=%-14s valuation=%-17s %s",
			r.ID, r.Symbol, r.RunDate[:10], r.TrendSignal, r.Valuation,
			actionStyle(r.Recommendation).Render(r.Recommendation))
		fmt.Println(line)
		if r.ReportPath != "" {
			fmt.Println(infoStyle.Render("      report: " + r.ReportPath))
		}
	}
}

// DisplayError shows an error message.
func DisplayError(err error) {
	fmt.Println(errorStyle.Render("Error: " + err.Error()))
}

// DisplayInfo shows an info message.
func DisplayInfo(message string) {
	fmt.Println(infoStyle.Render(message))
}

// DisplaySuccess shows a success message.
func DisplaySuccess(message string) {
	fmt.Println(successStyle.Render(message))
}
