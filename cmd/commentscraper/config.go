package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"commentscraper/pkg/config"
	"commentscraper/pkg/models"
	"commentscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Comment Scraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (COMMENTSCRAPER_*)
  - Configuration file
  - Default values (lowest priority)

Credentials are never part of the configuration file; they live in the
system keychain or in environment variables.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.commentscraper.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Half-configured rate limit rules`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".commentscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# Comment Scraper Configuration File
#
# Every value here can also be set through environment variables prefixed
# with COMMENTSCRAPER_, for example COMMENTSCRAPER_LOG_LEVEL=debug.
#
# Credentials do NOT belong in this file. Store them with
# 'commentscraper auth set <platform>' or use environment variables.

# Per-platform request budgets. A platform with requests_per_window and
# window set never makes more than that many requests inside any trailing
# window of that length. daily_cap of 0 means no calendar-day ceiling.
rate_limits:
  youtube:
    requests_per_window: 100
    window: 1m
    # The YouTube Data API grants 10,000 quota units per day by default.
    daily_cap: 10000
  instagram:
    # The Graph API allows roughly 200 calls per rolling hour.
    requests_per_window: 200
    window: 1h
    daily_cap: 0
  tiktok:
    requests_per_window: 60
    window: 1m
    daily_cap: 1000
  facebook:
    requests_per_window: 200
    window: 1h
    daily_cap: 0

# Scraper behavior shared by all platforms.
scraper:
  # Timeout for a single API request
  request_timeout: 30s

  # Comments requested per page (platforms cap this server-side)
  page_size: 50

  # Retries for transient failures (network errors, 5xx responses)
  max_retries: 3
  retry_base_delay: 1s
  retry_max_delay: 30s

  # Minimum spacing between consecutive requests to one platform
  request_spacing: 500ms

  user_agent: "commentscraper/1.0"

# Orchestration behavior.
orchestrator:
  # Scrape jobs running at the same time, across all platforms
  max_concurrent_scrapes: 3

  # Timeout for health check probes
  probe_timeout: 10s

# Logging configuration.
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log format: console, json
  format: "console"

  # Log file path (optional). Empty logs to stdout only.
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the limits to match the quotas your API projects have")
	fmt.Println("2. Run 'commentscraper config validate' to check the configuration")
	fmt.Println("3. Store credentials with 'commentscraper auth set <platform>'")
	fmt.Println("4. Start scraping with 'commentscraper scrape <platform> <content-id>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	// cfg was loaded in PersistentPreRun with every source merged.
	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (COMMENTSCRAPER_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (standard locations)")
	}
	fmt.Println("4. Default values")
	fmt.Println("\nCredentials live in the system keychain; inspect them with")
	fmt.Println("'commentscraper auth list'.")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		// Mirror the loader's standard locations so the report names the
		// file that is actually in effect.
		locations := []string{
			".commentscraper.yaml",
			".commentscraper.yml",
			filepath.Join(os.Getenv("HOME"), ".config", "commentscraper", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "commentscraper", "config.yml"),
			filepath.Join(os.Getenv("HOME"), ".commentscraper.yaml"),
			filepath.Join(os.Getenv("HOME"), ".commentscraper.yml"),
		}
		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
		if path == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", path)

	validated, err := config.Load(path, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Max concurrent scrapes: %d\n", validated.Orchestrator.MaxConcurrentScrapes)
	fmt.Printf("  Page size: %d\n", validated.Scraper.PageSize)
	fmt.Printf("  Max retries: %d\n", validated.Scraper.MaxRetries)
	fmt.Printf("  Request timeout: %s\n", validated.Scraper.RequestTimeout)
	fmt.Printf("  Log level: %s\n", validated.Logging.Level)
	for _, platform := range models.AllPlatforms() {
		limits := validated.RateLimits.ForPlatform(platform)
		if !limits.Configured() {
			fmt.Printf("  %s: unconstrained\n", platform)
			continue
		}
		line := fmt.Sprintf("  %s: %d requests per %s", platform, limits.RequestsPerWindow, limits.Window)
		if limits.DailyCap > 0 {
			line += fmt.Sprintf(", %d per day", limits.DailyCap)
		}
		fmt.Println(line)
	}
}
