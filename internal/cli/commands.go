package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"finsight/internal/config"
	"finsight/internal/storage"
)

const version = "0.3.0"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "finsight",
		Short: "finsight - LLM-assisted stock analysis",
		Long: `finsight analyzes stocks by combining technical indicators, fundamental
ratios and news sentiment, then uses a language model to produce insights,
recommendations and a markdown research report.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveMode(cfg)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newResultsCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")

	return rootCmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL [SYMBOL...]",
		Short: "Analyze one or more stock symbols",
		Long: `Run the full analysis workflow for the given ticker symbols.
Example: finsight analyze AAPL MSFT --period=6mo`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, _ := cmd.Flags().GetString("period")
			reportType, _ := cmd.Flags().GetString("report-type")
			noReport, _ := cmd.Flags().GetBool("no-report")

			if period == "" {
				period = cfg.DefaultPeriod
			}
			return runAnalysis(cfg, args, period, reportType, !noReport)
		},
	}

	cmd.Flags().String("period", "", "Price history period: 1mo, 3mo, 6mo, 1y, 2y, 5y (default from config)")
	cmd.Flags().String("report-type", "full", "Report type: full or summary")
	cmd.Flags().Bool("no-report", false, "Skip markdown report generation")

	return cmd
}

func newResultsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results [SYMBOL]",
		Short: "List recorded analysis runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := storage.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open run database: %w", err)
			}
			defer store.Close()

			symbol := ""
			if len(args) > 0 {
				symbol = args[0]
			}
			records, err := store.ListRuns(symbol, limit)
			if err != nil {
				return err
			}
			DisplayRunRecords(records)
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	return cmd
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cfg)
		},
	})

	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("finsight v%s\n", version)
			fmt.Println("Stock analysis with technical indicators, fundamentals and LLM insight")
		},
	}
}

func showConfig(cfg *config.Config) {
	fmt.Println("Current finsight configuration:")
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("Project Directory:    %s\n", cfg.ProjectDir)
	fmt.Printf("Results Directory:    %s\n", cfg.ResultsDir)
	fmt.Printf("Cache Directory:      %s\n", cfg.DataCacheDir)
	fmt.Printf("Database Path:        %s\n", cfg.DatabasePath)
	fmt.Println()
	fmt.Printf("LLM Provider:         %s\n", cfg.LLMProvider)
	fmt.Printf("LLM Model:            %s\n", cfg.LLMModel)
	fmt.Printf("LLM Base URL:         %s\n", cfg.LLMBaseURL)
	fmt.Printf("Temperature:          %.2f\n", cfg.LLMTemperature)
	fmt.Printf("Max Tokens:           %d\n", cfg.LLMMaxTokens)
	fmt.Println()
	fmt.Printf("Default Period:       %s\n", cfg.DefaultPeriod)
	fmt.Printf("Cache Enabled:        %t\n", cfg.CacheEnabled)
	fmt.Printf("Debug Mode:           %t\n", cfg.Debug)
	fmt.Println()
	fmt.Printf("MA Windows:           %d/%d\n", cfg.Indicators.ShortWindow, cfg.Indicators.LongWindow)
	fmt.Printf("RSI Period:           %d\n", cfg.Indicators.RSIPeriod)
	fmt.Printf("Range Lookback:       %d bars\n", cfg.Indicators.RangeLookback)
	fmt.Println()

	fmt.Println("API configuration:")
	fmt.Println("─────────────────────")
	if cfg.APIKey() != "" {
		fmt.Printf("LLM API key:          configured (%s)\n", cfg.LLMProvider)
	} else {
		fmt.Println("LLM API key:          NOT configured")
	}
	if cfg.FinnhubAPIKey != "" {
		fmt.Println("Finnhub API:          configured")
	} else {
		fmt.Println("Finnhub API:          not configured (fundamentals limited, RSS news fallback)")
	}
}

func validateConfig(cfg *config.Config) error {
	fmt.Println("Validating finsight configuration...")

	fmt.Print("Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Println("FAIL")
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Println("ok")

	fmt.Print("Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Println("FAIL")
		return err
	}
	fmt.Println("ok")

	if cfg.FinnhubAPIKey == "" {
		fmt.Println()
		fmt.Println("Warning: FINNHUB_API_KEY is not set.")
		fmt.Println("  Fundamental ratios will be reported as insufficient_data and")
		fmt.Println("  news sentiment falls back to the Google News RSS feed.")
	}

	fmt.Println()
	DisplaySuccess("Configuration is valid.")
	return nil
}

// runInteractiveMode drives the survey-based analysis loop.
func runInteractiveMode(cfg *config.Config) error {
	DisplayWelcomeBanner()

	if err := cfg.Validate(); err != nil {
		DisplayError(err)
		DisplayInfo("Fix the configuration (see `finsight config validate`) and try again.")
		return nil
	}

	for {
		symbols, err := PromptForSymbols()
		if err != nil {
			return err
		}
		period, err := PromptForPeriod(cfg.DefaultPeriod)
		if err != nil {
			return err
		}
		wantReport, err := PromptForReport()
		if err != nil {
			return err
		}

		if err := runAnalysis(cfg, symbols, period, "full", wantReport); err != nil {
			DisplayError(err)
		}

		again, err := PromptContinue()
		if err != nil || !again {
			return err
		}
		fmt.Println()
	}
}
