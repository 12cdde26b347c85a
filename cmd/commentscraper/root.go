package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"commentscraper/pkg/config"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFormat  string

	// cfg is loaded once in PersistentPreRun and shared by every command.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "commentscraper",
	Short: "Scrape public comments from YouTube, Instagram, TikTok, and Facebook",
	Long: `Comment Scraper collects public comments from social media platforms
through their official APIs and normalizes them into a single record shape.

Features:
  - YouTube Data API, Instagram/Facebook Graph API, TikTok Research API
  - Per-platform rate limiting with trailing windows and daily quotas
  - Secure credential storage using the system keychain
  - Concurrent batch scraping with bounded parallelism
  - Automatic retry with exponential backoff
  - JSON and NDJSON output for piping into other tools

Credentials never live in the config file: store them with
'commentscraper auth set <platform>' or export the COMMENTSCRAPER_*
environment variables.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(configFile, globalFlagOverrides())
		if err != nil {
			ui.PrintError("Failed to load configuration", err.Error())
			os.Exit(1)
		}
		cfg = loaded

		if err := logger.Initialize(&cfg.Logging); err != nil {
			ui.PrintError("Failed to initialize logger", err.Error())
			os.Exit(1)
		}

		// The logo belongs to the interactive commands. scrape, batch and
		// status pipe data through stdout and must stay clean.
		switch cmd.Name() {
		case "set", "list", "delete", "init", "show", "validate":
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.commentscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error; overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json; overrides config)")

	// Version template
	rootCmd.SetVersionTemplate(`Comment Scraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlagOverrides collects the persistent flags that were actually set,
// so they only override the config file when the user asked for it.
func globalFlagOverrides() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if logFormat != "" {
		flags["log-format"] = logFormat
	}
	return flags
}

// quietLogs re-initializes the global logger at error level. Commands that
// stream records to stdout call this so log lines never mix with data.
func quietLogs() {
	if logLevel != "" {
		return
	}
	quiet := cfg.Logging
	quiet.Level = "error"
	if err := logger.Initialize(&quiet); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
}
