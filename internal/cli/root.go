// Package cli provides the command-line interface for the harvester.
package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bluzername/telegram-financial-harvester/internal/config"
	"github.com/bluzername/telegram-financial-harvester/internal/extract"
	"github.com/bluzername/telegram-financial-harvester/internal/logging"
	"github.com/bluzername/telegram-financial-harvester/internal/pipeline"
	"github.com/bluzername/telegram-financial-harvester/internal/state"
	"github.com/bluzername/telegram-financial-harvester/internal/telegram"
	"github.com/bluzername/telegram-financial-harvester/internal/webhook"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-06-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     state.Store
	Source    pipeline.MessageSource
	Extractor pipeline.Extractor
	Deliverer pipeline.Deliverer
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize the message source if credentials are available
	creds := cfg.Credentials
	if creds.Telegram.APIID != "" && creds.Telegram.APIHash != "" {
		app.Source = telegram.NewSource(creds.Telegram.APIID, creds.Telegram.APIHash, logger)
		logger.Debug().Msg("Telegram source initialized")
	}

	// Initialize the extractor if the OpenAI API key is available
	if creds.OpenAI.APIKey != "" {
		llm := extract.NewOpenAIClient(creds.OpenAI.APIKey, cfg.Extract.Model, cfg.Extract.MaxTokens)
		app.Extractor = extract.New(llm, logger)
		logger.Debug().Str("model", cfg.Extract.Model).Msg("Extractor initialized")
	}

	// Initialize the webhook client if the endpoint is configured
	if creds.Webhook.URL != "" {
		timeout := time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second
		app.Deliverer = webhook.NewClient(creds.Webhook.URL, creds.Webhook.APIKey, timeout, logger)
		logger.Debug().Msg("Webhook client initialized")
	}

	// Initialize the watermark store
	store, err := state.Open(cfg.State.Backend, cfg.State.Path, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize state store, some commands may be unavailable")
	} else {
		app.Store = store
		logger.Debug().Str("backend", cfg.State.Backend).Msg("State store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "harvester",
		Short: "Telegram Financial Harvester - politician trade signals to webhook",
		Long: `Telegram Financial Harvester watches a Telegram channel that reports stock
trades made by US politicians, extracts structured trading signals from the
posts using an LLM, and forwards each signal to a trading webhook.

Runs are incremental: a watermark records the last processed message per
channel, so each invocation only handles new posts.

Use 'harvester run --dry-run' to preview signals without sending them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/harvester)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addPipelineCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addHelpCommands(rootCmd)
}

// addPipelineCommands adds the harvesting commands.
func addPipelineCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newStateCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Telegram Financial Harvester v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open configuration file in editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			configPath := config.DefaultConfigDir() + "/config.toml"
			output.Info("Configuration file: %s", configPath)
			output.Println("Edit this file to change settings.")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Telegram")
	output.Printf("  Channel ID:      %d\n", cfg.Telegram.ChannelID)
	output.Println()

	output.Bold("Extraction")
	output.Printf("  Model:           %s\n", cfg.Extract.Model)
	output.Printf("  Max Tokens:      %d\n", cfg.Extract.MaxTokens)
	output.Printf("  Workers:         %d\n", cfg.Extract.Workers)
	output.Println()

	output.Bold("Webhook")
	output.Printf("  Timeout:         %ds\n", cfg.Webhook.TimeoutSeconds)
	output.Println()

	output.Bold("State")
	output.Printf("  Backend:         %s\n", cfg.State.Backend)
	output.Printf("  Path:            %s\n", cfg.State.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Log.Level)
	output.Println()

	output.Bold("Credentials")
	output.Printf("  Telegram API ID: %s\n", maskedOrUnset(cfg.Credentials.Telegram.APIID))
	output.Printf("  Telegram Hash:   %s\n", maskedOrUnset(cfg.Credentials.Telegram.APIHash))
	output.Printf("  OpenAI Key:      %s\n", maskedOrUnset(cfg.Credentials.OpenAI.APIKey))
	output.Printf("  Webhook URL:     %s\n", valueOrUnset(cfg.Credentials.Webhook.URL))
	output.Printf("  Webhook Key:     %s\n", maskedOrUnset(cfg.Credentials.Webhook.APIKey))

	return nil
}

func maskedOrUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return logging.MaskSecret(value)
}

func valueOrUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}
