// Package logger provides structured logging for the comment scraper.
//
// It wraps the zerolog library to provide a clean API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors, or raw JSON for log shipping
// - Optional file output mirrored to the console
// - Global logger instance for easy access
// - A capturing TestLogger for assertions in tests
//
// Basic Usage:
//
//	import "commentscraper/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level:  "info",
//	    Format: "console",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Scraper started")
//	logger.WithField("platform", "youtube").Info("Scraper initialized")
//	logger.WithError(err).Error("Page fetch failed")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "orchestrator").
//	    WithField("job_id", jobID)
//
//	// Use structured logging
//	log.InfoWithFields("Job finished", map[string]interface{}{
//	    "comments": 1250,
//	    "pages":    13,
//	    "duration": time.Second * 42,
//	})
//
// Configuration options:
// - Level: log level (debug, info, warn, error, fatal, disabled)
// - Format: "console" for pretty output, "json" for machine-readable lines
// - File: path to a log file (empty for console only)
package logger
