package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

var symbolRe = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// PromptForSymbols asks for one or more ticker symbols, comma separated.
func PromptForSymbols() ([]string, error) {
	var input string
	prompt := &survey.Input{
		Message: "Enter stock symbols (comma separated, e.g. AAPL, MSFT):",
		Help:    "One or more ticker symbols to analyze",
	}

	err := survey.AskOne(prompt, &input, survey.WithValidator(func(val interface{}) error {
		symbols := splitSymbols(val.(string))
		if len(symbols) == 0 {
			return fmt.Errorf("enter at least one symbol")
		}
		for _, s := range symbols {
			if len(s) > 10 {
				return fmt.Errorf("symbol too long: %s", s)
			}
			if !symbolRe.MatchString(s) {
				return fmt.Errorf("invalid symbol format: %s (use letters, numbers, dots, hyphens)", s)
			}
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	return splitSymbols(input), nil
}

func splitSymbols(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		s := strings.TrimSpace(strings.ToUpper(part))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PromptForPeriod asks which price history window to analyze.
func PromptForPeriod(defaultPeriod string) (string, error) {
	var period string
	prompt := &survey.Select{
		Message: "Select the price history period:",
		Options: []string{"1mo", "3mo", "6mo", "1y", "2y", "5y"},
		Default: defaultPeriod,
	}
	if err := survey.AskOne(prompt, &period); err != nil {
		return "", err
	}
	return period, nil
}

// PromptForReport asks whether to generate the full markdown report.
func PromptForReport() (bool, error) {
	wantReport := true
	prompt := &survey.Confirm{
		Message: "Generate a full markdown report?",
		Default: true,
	}
	if err := survey.AskOne(prompt, &wantReport); err != nil {
		return false, err
	}
	return wantReport, nil
}

// PromptContinue asks whether to analyze another batch.
func PromptContinue() (bool, error) {
	again := false
	prompt := &survey.Confirm{
		Message: "Analyze more symbols?",
		Default: false,
	}
	if err := survey.AskOne(prompt, &again); err != nil {
		return false, err
	}
	return again, nil
}
