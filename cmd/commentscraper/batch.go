package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"commentscraper/pkg/models"
	"commentscraper/pkg/ui"
)

var (
	// Batch command flags
	batchFile   string
	batchOutput string
)

// batchRequestFile is the YAML shape the batch command reads.
type batchRequestFile struct {
	Requests []models.ScrapeRequest `yaml:"requests"`
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scrape many pieces of content from a request file",
	Long: `Run a batch of scrape requests with bounded concurrency.

The request file is YAML with one entry per piece of content:

  requests:
    - platform: youtube
      content_id: dQw4w9WgXcQ
      max_comments: 500
    - platform: tiktok
      content_id: "7123456789012345678"
      include_replies: true
      languages: [en]

Each request becomes its own job; one failing item never aborts the
others. The command exits non-zero when any item failed.`,
	Example: `  # Run a batch and print a per-item summary
  commentscraper batch --file requests.yaml

  # Also write the full results, comments included, to a file
  commentscraper batch --file requests.yaml --output results.json`,
	Run: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "YAML file with the scrape requests (required)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write full results as JSON to a file")
	_ = batchCmd.MarkFlagRequired("file")
}

func runBatch(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(batchFile)
	if err != nil {
		ui.PrintError("Failed to read request file", err.Error())
		os.Exit(1)
	}

	var file batchRequestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		ui.PrintError("Failed to parse request file", err.Error())
		os.Exit(1)
	}
	if len(file.Requests) == 0 {
		ui.PrintError("Request file contains no requests", batchFile)
		os.Exit(1)
	}

	ui.PrintInfo("Batch", fmt.Sprintf("%d requests from %s", len(file.Requests), batchFile))

	orch := newOrchestrator()
	defer orch.Shutdown()

	ctx, stop := signalContext()
	defer stop()

	result, batchErr := orch.BatchScrape(ctx, file.Requests)

	fmt.Println()
	for i, item := range result.Items {
		target := fmt.Sprintf("%s/%s", item.Request.Platform, item.Request.ContentID)
		if item.Err != nil {
			ui.PrintWarning(fmt.Sprintf("[%d] %s failed", i+1, target), item.ErrMsg)
		} else {
			ui.PrintSuccess(fmt.Sprintf("[%d] %s: %d comments", i+1, target, len(item.Comments)))
		}
	}
	fmt.Println()
	ui.PrintInfo("Batch result", fmt.Sprintf("%d succeeded, %d failed", result.Succeeded, result.Failed))

	if batchOutput != "" {
		if err := writeBatchResult(batchOutput, result); err != nil {
			ui.PrintError("Failed to write results", err.Error())
			os.Exit(1)
		}
		ui.PrintInfo("Output", batchOutput)
	}

	if batchErr != nil {
		ui.PrintWarning("Batch finished with failures", batchErr.Error())
		os.Exit(1)
	}
}

func writeBatchResult(path string, result *models.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
