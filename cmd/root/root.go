// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"yamo/treasury/internal/config"
	"yamo/treasury/internal/container"
	"yamo/treasury/internal/logging"

	"github.com/spf13/cobra"
)

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigFile   string
	LogLevel     string
	BaseURL      string
	SectionsFile string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// AppContainer holds the wired dependencies once the configuration is loaded
	AppContainer *container.Container

	// Flags holds the persistent flag values
	Flags = GlobalFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "yamo",
		Short: "Search and filter the YAMO treasury data.",
		Long: `yamo browses the treasury data of the YAMO backend: cash registers and bank
accounts, clients and suppliers, operations and categories. Every section can be
narrowed with facets and a free-text search, with counts and totals kept in sync.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return Setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer != nil {
				if err := AppContainer.Close(); err != nil {
					Log.WithError(err).Warn("Failed to close container")
				}
			}
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&Flags.ConfigFile, "config", "", "Configuration file (default: config.yaml in $HOME/.yamo, ./.yamo or .)")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&Flags.BaseURL, "base-url", "", "Backend base URL, or file:// directory of JSON exports")
	Cmd.PersistentFlags().StringVar(&Flags.SectionsFile, "sections", "", "Section definitions file (default: embedded sections)")
}

// Setup loads .env and the configuration, applies flag overrides and wires the container.
func Setup() error {
	config.LoadEnv(Log)

	cfg, err := config.InitializeConfig(Flags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	ApplyFlags(cfg)

	Log = config.ConfigureLoggingFromConfig(cfg)
	c, err := container.NewContainer(cfg, container.WithLogger(Log))
	if err != nil {
		return err
	}
	AppContainer = c
	return nil
}

// ApplyFlags overrides configuration values with the flags that were set.
func ApplyFlags(cfg *config.Config) {
	if Flags.LogLevel != "" {
		cfg.Log.Level = Flags.LogLevel
	}
	if Flags.BaseURL != "" {
		cfg.Backend.BaseURL = Flags.BaseURL
	}
	if Flags.SectionsFile != "" {
		cfg.Filter.SectionsFile = Flags.SectionsFile
	}
}

// GetContainer returns the wired container or an error when setup did not run.
func GetContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	return AppContainer, nil
}

// Context returns the command context, or a background context outside Execute.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
