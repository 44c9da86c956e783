package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igtracker/pkg/auth"
	"igtracker/pkg/config"
	"igtracker/pkg/logger"
	"igtracker/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	dbPath     string
	quiet      bool

	// Loaded by PersistentPreRunE for commands that need it
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igtracker",
	Short: "Track Instagram profiles and their engagement over time",
	Long: `igtracker fetches Instagram profiles, enriches them with AI analysis,
and keeps an append-only history of follower and post statistics.

Features:
  - Snapshot history stored in a local SQLite database
  - Engagement, growth and top-post analytics
  - Optional Gemini image and audience analysis
  - Scheduled refresh of every tracked profile
  - Secure credential storage using system keychain`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if quiet {
			ui.SetQuietMode(true)
		}
		if skipConfig(cmd) {
			return nil
		}

		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Initialize(&cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if !cfg.HasSession() {
			if manager, err := auth.NewManager(); err == nil && auth.ResolveSession(manager, cfg) {
				logger.GetLogger().Debug("using stored Instagram session")
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/igtracker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`igtracker {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// skipConfig reports whether cmd runs without a loaded configuration
func skipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == authCmd || c == configCmd {
			return true
		}
	}
	return cmd == versionCmd || cmd.Name() == "help"
}

// loadConfig loads the configuration with the flags cmd defines merged on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := map[string]interface{}{
		"db":        dbPath,
		"log-level": logLevel,
	}
	set := cmd.Flags()
	if f := set.Lookup("no-ai"); f != nil {
		v, _ := set.GetBool("no-ai")
		flags["no-ai"] = v
	}
	if f := set.Lookup("schedule"); f != nil {
		flags["schedule"], _ = set.GetString("schedule")
	}
	if f := set.Lookup("workers"); f != nil {
		flags["workers"], _ = set.GetInt("workers")
	}
	if f := set.Lookup("metrics-addr"); f != nil {
		flags["metrics-addr"], _ = set.GetString("metrics-addr")
	}

	loaded, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return loaded, nil
}
