package cli

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyike/NexusGo/config"
	"github.com/dyike/NexusGo/internal/storage"
	"github.com/dyike/NexusGo/internal/trading"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	// Initialize configuration early
	cfg := config.DefaultConfig()
	var mgr *config.Manager

	rootCmd := &cobra.Command{
		Use:   "nexusgo",
		Short: "NexusGo - AI-Powered Trading Analysis",
		Long: `NexusGo is a multi-agent trading analysis system powered by Large Language Models.
Analyst, research, and risk agents debate a symbol and converge on a structured trading decision.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Ensure directories exist
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			// Layer the persisted config file over defaults and env;
			// run with the in-memory config if the file is unusable.
			m, err := config.NewManager(cfg)
			if err != nil {
				log.Printf("[Config] persisted config unavailable: %v", err)
			} else {
				mgr = m
				*cfg = *mgr.Get()
			}
			// The flag wins over the persisted file.
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: start interactive mode
			return runInteractiveMode(cfg, mgr)
		},
	}

	// Add subcommands
	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg, &mgr))
	rootCmd.AddCommand(newVersionCmd())

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")

	return rootCmd
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run trading analysis for a stock symbol",
		Long: `Run a full multi-agent trading analysis for a given stock ticker symbol.
Example: nexusgo analyze AAPL --date=2025-03-14`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := ""
			if len(args) == 1 {
				symbol = args[0]
			} else {
				var err error
				symbol, err = PromptForTicker()
				if err != nil {
					return err
				}
			}

			date, _ := cmd.Flags().GetString("date")
			stream, _ := cmd.Flags().GetBool("stream")

			if horizon, _ := cmd.Flags().GetString("horizon"); horizon != "" {
				cfg.Horizon = horizon
			}
			if rounds, _ := cmd.Flags().GetInt("debate-rounds"); rounds > 0 {
				cfg.MaxDebateRounds = rounds
			}
			if rounds, _ := cmd.Flags().GetInt("risk-rounds"); rounds > 0 {
				cfg.MaxRiskRounds = rounds
			}
			if noGate, _ := cmd.Flags().GetBool("no-risk-gate"); noGate {
				cfg.RiskOn = false
			}
			if noMemory, _ := cmd.Flags().GetBool("no-memory"); noMemory {
				cfg.MemoryOn = false
			}
			if noSocial, _ := cmd.Flags().GetBool("no-social"); noSocial {
				cfg.SocialOn = false
			}

			return runAnalyzeCommand(cfg, symbol, date, stream)
		},
	}

	// Analyze command flags
	cmd.Flags().String("date", "", "Analysis date in YYYY-MM-DD format (today if not provided)")
	cmd.Flags().String("horizon", "", "Trading horizon: short, medium or long")
	cmd.Flags().Int("debate-rounds", 0, "Bull/bear debate rounds")
	cmd.Flags().Int("risk-rounds", 0, "Risk discussion rounds")
	cmd.Flags().Bool("stream", true, "Show per-step progress while the workflow runs")
	cmd.Flags().Bool("no-risk-gate", false, "Skip the position sizing risk gate")
	cmd.Flags().Bool("no-memory", false, "Skip recall of past run lessons")
	cmd.Flags().Bool("no-social", false, "Skip the sentiment analyst")

	return cmd
}

// newHistoryCmd creates the history command
func newHistoryCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [SYMBOL]",
		Short: "Show past run decisions",
		Long: `List decisions from completed runs, most recent first.
Example: nexusgo history AAPL --limit=5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := ""
			if len(args) == 1 {
				ticker = args[0]
			}
			limit, _ := cmd.Flags().GetInt("limit")

			return runHistoryCommand(cfg, ticker, limit)
		},
	}

	cmd.Flags().Int("limit", 10, "Maximum number of runs to show")

	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("NexusGo v1.0.0")
			fmt.Println("AI-Powered Trading Analysis System")
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(cfg *config.Config, mgr **config.Manager) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Manage NexusGo configuration settings",
	}

	// config show subcommand
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			path := ""
			if *mgr != nil {
				path = (*mgr).Path()
			}
			showConfig(cfg, path)
		},
	})

	// config validate subcommand
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cfg)
		},
	})

	return configCmd
}

// runAnalyzeCommand executes the main analysis workflow
func runAnalyzeCommand(cfg *config.Config, symbol, date string, stream bool) error {
	ctx := context.Background()

	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	// Use current date if not provided
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Printf("🚀 Starting analysis for %s on %s\n", strings.ToUpper(symbol), date)

	session := trading.NewSession(cfg, symbol, date, stream)
	if err := session.Execute(ctx); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fmt.Println("✅ Analysis completed successfully!")
	return nil
}

// runHistoryCommand lists persisted run decisions
func runHistoryCommand(cfg *config.Config, ticker string, limit int) error {
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), ticker, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		line := fmt.Sprintf("#%d  %s  %s  %s  %.2f%%", run.ID, run.SimulatedDate, run.Ticker, run.Action, run.PositionSizePct)
		if run.EntryPrice != nil {
			line += fmt.Sprintf("  entry=%.2f", *run.EntryPrice)
		}
		if run.Overrode {
			line += fmt.Sprintf("  (judge overrode %s)", run.OriginalAction)
		}
		fmt.Println(line)
	}
	return nil
}

// showConfig displays the current configuration
func showConfig(cfg *config.Config, configPath string) {
	fmt.Println("📋 Current NexusGo Configuration:")
	fmt.Println("═══════════════════════════════════════")
	if configPath != "" {
		fmt.Printf("Config File:          %s\n", configPath)
	}
	fmt.Printf("Project Directory:    %s\n", cfg.ProjectDir)
	fmt.Printf("Results Directory:    %s\n", cfg.ResultsDir)
	fmt.Printf("Data Directory:       %s\n", cfg.DataDir)
	fmt.Printf("Database Path:        %s\n", cfg.DBPath)
	fmt.Println()
	fmt.Printf("LLM Provider:         %s\n", cfg.LLMProvider)
	fmt.Printf("Deep Think Model:     %s\n", cfg.DeepThinkLLM)
	fmt.Printf("Quick Think Model:    %s\n", cfg.QuickThinkLLM)
	fmt.Println()
	fmt.Printf("Max Debate Rounds:    %d\n", cfg.MaxDebateRounds)
	fmt.Printf("Max Risk Rounds:      %d\n", cfg.MaxRiskRounds)
	fmt.Printf("Horizon:              %s\n", cfg.Horizon)
	fmt.Println()
	fmt.Printf("Risk Gate:            %t\n", cfg.RiskOn)
	fmt.Printf("Memory Recall:        %t\n", cfg.MemoryOn)
	fmt.Printf("Sentiment Analyst:    %t\n", cfg.SocialOn)
	fmt.Printf("Debug Mode:           %t\n", cfg.Debug)
	fmt.Println()

	fmt.Println("🔌 API Configuration:")
	fmt.Println("─────────────────────")
	if cfg.FinnhubAPIKey != "" {
		fmt.Println("Finnhub API:          ✅ Configured")
	} else {
		fmt.Println("Finnhub API:          ❌ Not configured (Google News RSS fallback)")
	}
	if cfg.LongportAppKey != "" && cfg.LongportAppSecret != "" && cfg.LongportAccessToken != "" {
		fmt.Println("Longport API:         ✅ Configured")
	} else {
		fmt.Println("Longport API:         ❌ Not configured (HK quotes unavailable)")
	}
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey != "" {
			fmt.Println("OpenAI API:           ✅ Configured")
		} else {
			fmt.Println("OpenAI API:           ❌ Not configured")
		}
	default:
		if cfg.DeepSeekAPIKey != "" {
			fmt.Println("DeepSeek API:         ✅ Configured")
		} else {
			fmt.Println("DeepSeek API:         ❌ Not configured")
		}
	}
}

// validateConfig validates the configuration and dependencies
func validateConfig(cfg *config.Config) error {
	fmt.Println("🔍 Validating NexusGo Configuration...")
	fmt.Println("═══════════════════════════════════════")

	fmt.Print("📁 Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Println("❌")
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Println("✅")

	fmt.Print("⚙️  Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Println("❌")
		return err
	}
	fmt.Println("✅")

	fmt.Print("🔑 Checking API keys... ")
	var warnings []string
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			warnings = append(warnings, "OpenAI API key not configured")
		}
	default:
		if cfg.DeepSeekAPIKey == "" {
			warnings = append(warnings, "DeepSeek API key not configured")
		}
	}
	if cfg.FinnhubAPIKey == "" {
		warnings = append(warnings, "Finnhub API key not configured, news falls back to Google News RSS")
	}
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		warnings = append(warnings, "Longport credentials not configured, .HK symbols will lack quotes")
	}

	if len(warnings) > 0 {
		fmt.Println("⚠️")
		for _, warning := range warnings {
			fmt.Printf("  ⚠️  %s\n", warning)
		}
	} else {
		fmt.Println("✅")
	}

	fmt.Println()
	fmt.Println("✅ Configuration is valid!")
	return nil
}

// runInteractiveMode starts the interactive trading analysis mode
func runInteractiveMode(cfg *config.Config, mgr *config.Manager) error {
	fmt.Println("🚀 Welcome to NexusGo - AI-Powered Trading Analysis")
	fmt.Println(strings.Repeat("=", 59))
	fmt.Println()

	// Pick up edits to the persisted config file between analyses.
	if mgr != nil {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		err := mgr.Watch(ctx, func(_ *config.Config) {
			fmt.Printf("♻️  Configuration reloaded from %s\n", mgr.Path())
		})
		if err != nil {
			log.Printf("[Config] watch unavailable: %v", err)
		}
	}

	debug := cfg.Debug
	for {
		if mgr != nil {
			cfg = mgr.Get()
			cfg.Debug = debug
		}

		symbol, err := PromptForTicker()
		if err != nil {
			return err
		}

		date, err := PromptForAnalysisDate()
		if err != nil {
			return err
		}

		horizon, err := PromptForHorizon(cfg.Horizon)
		if err != nil {
			return err
		}
		if horizon != cfg.Horizon {
			cfg.Horizon = horizon
			if mgr != nil {
				if err := mgr.Save(cfg); err != nil {
					log.Printf("[Config] save failed: %v", err)
				}
			}
		}

		if err := runAnalyzeCommand(cfg, symbol, date, true); err != nil {
			fmt.Printf("❌ %v\n", err)
		}

		again, err := PromptForAnotherRun()
		if err != nil {
			return err
		}
		if !again {
			fmt.Println("👋 Thank you for using NexusGo!")
			return nil
		}
		fmt.Println()
	}
}
