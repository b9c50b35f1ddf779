package cli

import (
	"context"
	"fmt"
	"log"
	"strings"

	"finsight/internal/config"
	"finsight/internal/dataflows"
	"finsight/internal/llm"
	"finsight/internal/pipeline"
	"finsight/internal/report"
	"finsight/internal/storage"
)

// runAnalysis wires the data provider, pipeline, report writer and run
// store together and executes one analysis.
func runAnalysis(cfg *config.Config, symbols []string, period string, reportType string, wantReport bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	switch reportType {
	case "full", "summary":
	default:
		return fmt.Errorf("invalid report type %q: must be full or summary", reportType)
	}

	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		normalized = append(normalized, dataflows.NormalizeSymbol(s))
	}

	DisplayInfo(fmt.Sprintf("Analyzing %s over %s...", strings.Join(normalized, ", "), period))

	ctx := context.Background()
	provider := dataflows.NewProvider(cfg)
	model := llm.NewClient(cfg)

	p := pipeline.New(provider, model, cfg.Indicators, cfg.Fundamental)
	state, err := p.Run(ctx, normalized, period)
	if err != nil {
		return err
	}

	reportPath := ""
	if wantReport {
		writer := report.NewWriter(model, cfg.ResultsDir)
		var content string
		if reportType == "summary" {
			content = writer.GenerateSummary(ctx, state)
		} else {
			content = writer.Generate(ctx, state)
		}
		reportPath, err = writer.Save(state, content)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		// Recording is best effort; the analysis already succeeded.
		log.Printf("open run database: %v", err)
	} else {
		defer store.Close()
		if err := store.SaveRun(state, reportPath); err != nil {
			log.Printf("record run: %v", err)
		}
	}

	DisplayRunSummary(state, reportPath)
	return nil
}
