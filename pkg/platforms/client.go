package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"commentscraper/pkg/config"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
	"commentscraper/pkg/ratelimit"
	"commentscraper/pkg/retry"
)

// httpClient is the HTTP core shared by every platform scraper. It owns the
// per-page pipeline: daily-quota check, capacity wait, request spacing,
// bounded retries, status mapping, and JSON decoding.
type httpClient struct {
	client  *http.Client
	spacing *rate.Limiter
	limits  *ratelimit.Registry
	stats   *models.StatsCounter
	cfg     config.ScraperConfig
	headers map[string]string
	log     logger.Logger
}

func newHTTPClient(cfg config.ScraperConfig, limits *ratelimit.Registry, stats *models.StatsCounter, log logger.Logger) *httpClient {
	spacing := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestSpacing > 0 {
		spacing = rate.NewLimiter(rate.Every(cfg.RequestSpacing), 1)
	}

	return &httpClient{
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		spacing: spacing,
		limits:  limits,
		stats:   stats,
		cfg:     cfg,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": cfg.UserAgent,
		},
		log: log,
	}
}

// buildFunc constructs a fresh request for one attempt. A new request per
// attempt keeps POST bodies replayable across retries.
type buildFunc func(ctx context.Context) (*http.Request, error)

// fetchJSON runs the full page pipeline for (platform, endpoint). On 429 the
// Retry-After value is honored exactly once per call; a second 429 surfaces
// as a rate-limit error. 5xx and transport failures are retried up to
// MaxRetries times with exponential backoff. The returned status code is the
// last one received (0 when no response arrived).
func (h *httpClient) fetchJSON(ctx context.Context, platform models.Platform, endpoint string, build buildFunc, out interface{}) (int, error) {
	p := platform.String()

	if ok, resetAt := h.limits.CanMakeDailyRequest(platform); !ok {
		return 0, errs.Newf(errs.ErrorTypeDailyQuota,
			"daily quota spent, resets at %s", resetAt.UTC().Format(time.RFC3339)).WithPlatform(p)
	}

	waited, err := h.limits.WaitForCapacity(ctx, platform, endpoint)
	if err != nil {
		return 0, err
	}
	if waited > 0 {
		h.stats.RecordRateLimitWait()
		logger.LogRateLimitWait(p, endpoint, waited)
	}

	backoff := &retry.ExponentialBackoff{
		BaseDelay:    h.cfg.RetryBaseDelay,
		MaxDelay:     h.cfg.RetryMaxDelay,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	var honored429 bool
	retries := 0
	for {
		status, retryAfter, err := h.attempt(ctx, platform, build, out)
		if err == nil {
			return status, nil
		}

		switch {
		case errs.IsType(err, errs.ErrorTypeRateLimit):
			h.stats.RecordRateLimitHit()
			h.limits.RecordHit(platform, endpoint)
			if honored429 {
				return status, err
			}
			honored429 = true
			logger.LogRateLimitHit(p, endpoint, retryAfter)
			if werr := retry.Wait(ctx, time.Duration(retryAfter)*time.Second); werr != nil {
				return status, werr
			}

		case errs.IsType(err, errs.ErrorTypeServerError), errs.IsType(err, errs.ErrorTypeNetwork):
			if retries >= h.cfg.MaxRetries {
				h.log.ErrorWithFields("retry budget exhausted", map[string]interface{}{
					"platform": p,
					"endpoint": endpoint,
					"retries":  retries,
					"error":    err.Error(),
				})
				return status, err
			}
			retries++
			delay := backoff.NextDelay(retries)
			h.log.WarnWithFields("retrying page fetch", map[string]interface{}{
				"platform": p,
				"endpoint": endpoint,
				"attempt":  retries,
				"delay":    delay.String(),
				"error":    err.Error(),
			})
			if werr := retry.Wait(ctx, delay); werr != nil {
				return status, werr
			}

		default:
			return status, err
		}
	}
}

// attempt issues one spaced HTTP request and maps the outcome to a typed
// error. The request runs on a timeout-only context so an in-flight page
// completes even when the caller's context is cancelled.
func (h *httpClient) attempt(ctx context.Context, platform models.Platform, build buildFunc, out interface{}) (int, int, error) {
	p := platform.String()

	if err := h.spacing.Wait(ctx); err != nil {
		return 0, 0, err
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.cfg.RequestTimeout)
	defer cancel()

	req, err := build(reqCtx)
	if err != nil {
		// Build funcs can fail with typed errors of their own, token mints
		// in particular. Those keep their type.
		var typed *errs.Error
		if errors.As(err, &typed) {
			return 0, 0, err
		}
		return 0, 0, errs.Wrap(err, errs.ErrorTypeConfiguration, "failed to build request").WithPlatform(p)
	}
	for key, value := range h.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	h.stats.RecordRequest()
	start := time.Now()
	h.log.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"host":   req.URL.Host,
		"path":   req.URL.Path,
	})

	resp, err := h.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		h.log.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"host":     req.URL.Host,
			"path":     req.URL.Path,
			"error":    err.Error(),
			"duration": duration.String(),
		})
		return 0, 0, errs.Wrap(err, errs.ErrorTypeNetwork, "request failed").WithPlatform(p)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, 0, errs.Wrap(err, errs.ErrorTypeNetwork, "failed to read response body").
			WithPlatform(p).WithCode(resp.StatusCode)
	}

	h.log.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"host":     req.URL.Host,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": duration.String(),
	})

	if resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After")),
			errs.FromStatusCode(p, resp.StatusCode, bodyPreview(body))
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, 0, errs.FromStatusCode(p, resp.StatusCode, bodyPreview(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			h.log.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
				"path":         req.URL.Path,
				"status":       resp.StatusCode,
				"error":        err.Error(),
				"body_preview": bodyPreview(body),
			})
			return resp.StatusCode, 0, errs.Wrap(err, errs.ErrorTypeParsing,
				fmt.Sprintf("failed to parse JSON: %s", bodyPreview(body))).
				WithPlatform(p).WithCode(resp.StatusCode)
		}
	}

	return resp.StatusCode, 0, nil
}

// getRequest builds a plain GET for the given URL.
func getRequest(url string) buildFunc {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

// getJSON fetches a GET page through the full pipeline.
func (h *httpClient) getJSON(ctx context.Context, platform models.Platform, endpoint, url string, out interface{}) (int, error) {
	return h.fetchJSON(ctx, platform, endpoint, getRequest(url), out)
}

// probeJSON performs one unretried request outside the page pipeline.
// Probes are cheap connectivity checks and do not consume window capacity.
func (h *httpClient) probeJSON(ctx context.Context, platform models.Platform, build buildFunc, out interface{}) error {
	_, _, err := h.attempt(ctx, platform, build, out)
	return err
}

// parseRetryAfter reads a Retry-After header in seconds form. A missing or
// unparsable header falls back to one second, which still counts as the
// single honored wait.
func parseRetryAfter(header string) int {
	if header == "" {
		return 1
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 1
	}
	return seconds
}

// bodyPreview truncates a response body for error messages and logs.
func bodyPreview(body []byte) string {
	const max = 200
	preview := string(body)
	if len(preview) > max {
		preview = preview[:max] + "..."
	}
	return preview
}
