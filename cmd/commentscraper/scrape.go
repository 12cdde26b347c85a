package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"commentscraper/pkg/auth"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
	"commentscraper/pkg/orchestrator"
	"commentscraper/pkg/ui"
)

var (
	// Scrape command flags
	maxComments    int
	includeReplies bool
	contentType    string
	languages      []string
	sinceFlag      string
	untilFlag      string
	outputPath     string
	outputFormat   string
	scrapeTimeout  time.Duration
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <platform> <content-id>",
	Short: "Scrape comments from a single piece of content",
	Long: `Scrape public comments from one video or post.

The platform must be one of: youtube, instagram, tiktok, facebook.
The content id is platform specific: a YouTube video id, an Instagram
media id, a TikTok video id, or a Facebook pageid_postid pair.

Results are written to stdout as JSON unless --output names a file.
With stdout output the command stays quiet so the data can be piped:

  commentscraper scrape youtube dQw4w9WgXcQ | jq '.comments | length'`,
	Example: `  # Scrape every comment on a YouTube video to stdout
  commentscraper scrape youtube dQw4w9WgXcQ

  # First 500 top-level comments only, one record per line
  commentscraper scrape youtube dQw4w9WgXcQ --max 500 --replies=false --format ndjson

  # English and Spanish comments from January, written to a file
  commentscraper scrape tiktok 7123456789012345678 \
    --languages en,es --since 2026-01-01 --until 2026-02-01 -o comments.json`,
	Args: cobra.ExactArgs(2),
	Run:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	// Local flags for scrape command
	scrapeCmd.Flags().IntVarP(&maxComments, "max", "m", 0, "maximum comments to scrape (0 scrapes everything)")
	scrapeCmd.Flags().BoolVar(&includeReplies, "replies", true, "include reply comments")
	scrapeCmd.Flags().StringVar(&contentType, "content-type", "", "content type (video, post, reel; default depends on platform)")
	scrapeCmd.Flags().StringSliceVarP(&languages, "languages", "l", nil, "keep only comments in these ISO 639-1 languages")
	scrapeCmd.Flags().StringVar(&sinceFlag, "since", "", "keep only comments published at or after this time (2006-01-02 or RFC3339)")
	scrapeCmd.Flags().StringVar(&untilFlag, "until", "", "keep only comments published before this time (2006-01-02 or RFC3339)")
	scrapeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write results to a file instead of stdout")
	scrapeCmd.Flags().StringVar(&outputFormat, "format", "json", "output format (json, ndjson)")
	scrapeCmd.Flags().DurationVar(&scrapeTimeout, "timeout", 0, "abort the scrape after this long (0 waits indefinitely)")
}

func runScrape(cmd *cobra.Command, args []string) {
	platform, err := models.ParsePlatform(strings.TrimSpace(args[0]))
	if err != nil {
		ui.PrintError("Unknown platform", args[0])
		fmt.Println("\nSupported platforms: youtube, instagram, tiktok, facebook")
		os.Exit(1)
	}
	contentID := strings.TrimSpace(args[1])

	if outputFormat != "json" && outputFormat != "ndjson" {
		ui.PrintError("Unknown output format", outputFormat)
		os.Exit(1)
	}

	since, err := parseTimeFlag(sinceFlag)
	if err != nil {
		ui.PrintError("Invalid --since value", err.Error())
		os.Exit(1)
	}
	until, err := parseTimeFlag(untilFlag)
	if err != nil {
		ui.PrintError("Invalid --until value", err.Error())
		os.Exit(1)
	}

	// Stdout is the data sink by default; silence everything else.
	if outputPath == "" {
		ui.SetQuietMode(true)
		quietLogs()
	}

	req := models.ScrapeRequest{
		Platform:       platform,
		ContentID:      contentID,
		ContentType:    models.ContentType(contentType),
		MaxComments:    maxComments,
		IncludeReplies: includeReplies,
		Languages:      languages,
		Since:          since,
		Until:          until,
	}

	ui.PrintInfo("Target", fmt.Sprintf("%s/%s", platform, contentID))

	orch := newOrchestrator()
	defer orch.Shutdown()

	ctx, stop := signalContext()
	defer stop()
	if scrapeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scrapeTimeout)
		defer cancel()
	}

	snap, err := orch.ScrapeComments(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			ui.PrintError("Scrape aborted", err.Error())
		} else {
			ui.PrintError("Scrape failed", err.Error())
		}
		os.Exit(1)
	}

	out := io.Writer(os.Stdout)
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			ui.PrintError("Failed to create output file", err.Error())
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := writeSnapshot(out, outputFormat, snap); err != nil {
		ui.PrintError("Failed to write results", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Scraped %d comments across %d pages", snap.CommentsScraped, snap.PagesFetched))
	ui.PrintInfo("Job", snap.ID)
	if outputPath != "" {
		ui.PrintInfo("Output", outputPath)
	}
}

// writeSnapshot encodes a finished job: the whole snapshot as one JSON
// document, or one comment record per line for ndjson.
func writeSnapshot(w io.Writer, format string, snap models.JobSnapshot) error {
	enc := json.NewEncoder(w)
	if format == "ndjson" {
		for _, record := range snap.Comments {
			if err := enc.Encode(record); err != nil {
				return err
			}
		}
		return nil
	}
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// parseTimeFlag accepts a plain date or a full RFC3339 timestamp.
func parseTimeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// newOrchestrator wires the orchestrator from the loaded config with the
// standard credential chain (keychain, then environment variables).
func newOrchestrator() *orchestrator.Orchestrator {
	return orchestrator.New(cfg, auth.NewManager(), logger.GetLogger())
}

// signalContext returns a context cancelled by Ctrl-C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
