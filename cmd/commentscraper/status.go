package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"commentscraper/pkg/models"
	"commentscraper/pkg/ui"
)

var statusJSON bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show platform health and rate limit usage",
	Long: `Check every platform's credentials and API connectivity, and show
current rate limit usage.

A platform is available when a valid credential is stored and a probe
request against its API succeeds. Probes never spend rate limit budget.

The command exits non-zero when no platform is available.`,
	Example: `  # Human-readable status
  commentscraper status

  # Machine-readable status for scripts
  commentscraper status --json | jq .status`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the full health report as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	if statusJSON {
		ui.SetQuietMode(true)
		quietLogs()
	}

	orch := newOrchestrator()
	defer orch.Shutdown()

	ctx, stop := signalContext()
	defer stop()

	report := orch.Health(ctx)

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			ui.PrintError("Failed to encode health report", err.Error())
			os.Exit(1)
		}
		if report.Status != models.HealthStatusHealthy {
			os.Exit(1)
		}
		return
	}

	ui.PrintHighlight("Platform Status")
	fmt.Println()
	for _, platform := range models.AllPlatforms() {
		health := report.Platforms[platform]
		switch {
		case health.Available():
			fmt.Printf("   %-11s %s\n", platform, ui.Green("available"))
		case health.CredentialValid:
			fmt.Printf("   %-11s %s   %s\n", platform, ui.Red("unreachable"), ui.Dim(health.Detail))
		default:
			fmt.Printf("   %-11s %s   %s\n", platform, ui.Yellow("no credentials"), ui.Dim(health.Detail))
		}
	}

	fmt.Println()
	ui.PrintHighlight("Rate Limits")
	fmt.Println()
	for _, platform := range models.AllPlatforms() {
		usage := report.RateLimits[platform]
		if len(usage.Endpoints) == 0 && usage.DailyCap == 0 {
			continue
		}
		fmt.Printf("   %s\n", ui.Cyan(platform.String()))
		for _, ep := range usage.Endpoints {
			fmt.Printf("      %-16s %d/%d per %s\n", ep.Endpoint, ep.Used, ep.Capacity, ep.Window)
		}
		if usage.DailyCap > 0 {
			fmt.Printf("      %-16s %d/%d (resets %s)\n", "daily quota", usage.DailyUsed, usage.DailyCap,
				usage.DailyReset.UTC().Format("15:04 MST"))
		}
		if usage.Hits429 > 0 {
			fmt.Printf("      %-16s %d\n", "429 responses", usage.Hits429)
		}
	}

	fmt.Println()
	if report.Status == models.HealthStatusHealthy {
		ui.PrintSuccess(fmt.Sprintf("Overall: healthy (%d of %d platforms available)",
			len(report.AvailablePlatforms), len(report.Platforms)))
		return
	}

	ui.PrintWarning("Overall: degraded", "no platform is currently available")
	fmt.Println("\nStore credentials with 'commentscraper auth set <platform>' or set")
	fmt.Println("the COMMENTSCRAPER_* environment variables.")
	os.Exit(1)
}
