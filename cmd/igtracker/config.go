package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igtracker/internal/scheduler"
	"igtracker/pkg/config"
	"igtracker/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igtracker configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGTRACKER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.igtracker.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Sensitive values like cookies and API keys are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value ranges
  - Cron schedule syntax
  - Database and log directory accessibility`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# igtracker configuration file
#
# Every option can also be set with an IGTRACKER_ environment variable,
# e.g. IGTRACKER_SESSION_ID, IGTRACKER_DB_PATH, IGTRACKER_SCHEDULE.

# Instagram browser session
instagram:
  # Cookies from a logged-in browser; prefer 'igtracker auth login'
  session_id: ""
  csrf_token: ""
  ds_user_id: ""

  # Leave empty to use the built-in browser user agent
  user_agent: ""

  # Recent feed items kept per fetch
  max_items: 5
  timeout: 30s

# Gemini image and audience analysis
inference:
  enabled: true
  # Or set GEMINI_API_KEY; enrichment is skipped without a key
  api_key: ""
  model: "gemini-2.0-flash"
  call_timeout: 45s
  concurrency: 3
  requests_per_minute: 30
  caption_sample_limit: 500
  failure_threshold: 5
  breaker_timeout: 60s

# Snapshot database
storage:
  # Default: $HOME/.local/share/igtracker/igtracker.db
  # path: "/var/lib/igtracker/igtracker.db"
  busy_timeout: 5s

# Requests to Instagram
rate_limit:
  requests_per_minute: 30
  burst_size: 2

# Periodic refresh used by 'igtracker watch'
schedule:
  # Standard cron format or a descriptor such as "@every 6h"
  cron: "0 */6 * * *"
  # Range: 1-10
  workers: 2
  max_attempts: 3
  retry_delay: 10s
  job_timeout: 30m

# Prometheus exporter used by 'igtracker watch'
metrics:
  enabled: false
  address: ":9464"

logging:
  # Log level: debug, info, warn, error
  level: "info"
  # Optional JSON log file in addition to stderr
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".igtracker.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'igtracker auth login' to store your Instagram session")
	fmt.Println("2. Run 'igtracker config validate' to check the configuration")
	fmt.Println("3. Start tracking with 'igtracker track <username>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	display := *loaded
	display.Instagram.SessionID = maskSecret(display.Instagram.SessionID)
	display.Instagram.CSRFToken = maskSecret(display.Instagram.CSRFToken)
	display.Inference.APIKey = maskSecret(display.Inference.APIKey)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (IGTRACKER_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (default locations)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	loaded, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings []string
	var problems []error

	if !loaded.HasSession() {
		warnings = append(warnings, "Instagram session not configured, run 'igtracker auth login'")
	}
	if loaded.Inference.Enabled && loaded.Inference.APIKey == "" {
		warnings = append(warnings, "inference enabled without an API key, enrichment will be skipped")
	}

	if err := scheduler.ValidateSchedule(loaded.Schedule.Cron); err != nil {
		problems = append(problems, err)
	}
	if err := os.MkdirAll(filepath.Dir(loaded.Storage.Path), 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create database directory: %w", err))
	}
	if loaded.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(loaded.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration has errors:\n%w", errors.Join(problems...))
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Database: %s\n", loaded.Storage.Path)
	fmt.Printf("  Rate limit: %d requests/minute\n", loaded.RateLimit.RequestsPerMinute)
	fmt.Printf("  Schedule: %s (%d workers)\n", loaded.Schedule.Cron, loaded.Schedule.Workers)
	fmt.Printf("  AI enrichment: %t\n", loaded.Inference.Enabled && loaded.Inference.APIKey != "")
	fmt.Printf("  Log level: %s\n", loaded.Logging.Level)
	return nil
}

// maskSecret masks all but the first 4 and last 4 characters
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}
