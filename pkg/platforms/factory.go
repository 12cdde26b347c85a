package platforms

import (
	"commentscraper/pkg/auth"
	"commentscraper/pkg/config"
	errs "commentscraper/pkg/errors"
	"commentscraper/pkg/logger"
	"commentscraper/pkg/models"
	"commentscraper/pkg/ratelimit"
	"commentscraper/pkg/scraper"
)

// commentEndpoints maps each platform to the endpoint key its scraper
// spends window capacity on.
var commentEndpoints = map[models.Platform]string{
	models.PlatformYouTube:   EndpointYouTubeComments,
	models.PlatformInstagram: EndpointInstagramComments,
	models.PlatformTikTok:    EndpointTikTokComments,
	models.PlatformFacebook:  EndpointFacebookComments,
}

// New builds the scraper for a platform. The credential may be nil; the
// scraper then fails at Initialize rather than here, so callers surface
// missing credentials the same way as invalid ones.
func New(platform models.Platform, cfg *config.Config, cred *auth.Credential, limits *ratelimit.Registry, log logger.Logger) (scraper.Scraper, error) {
	switch platform {
	case models.PlatformYouTube:
		return newYouTubeScraper(cfg, cred, limits, log), nil
	case models.PlatformInstagram:
		return newInstagramScraper(cfg, cred, limits, log), nil
	case models.PlatformTikTok:
		return newTikTokScraper(cfg, cred, limits, log), nil
	case models.PlatformFacebook:
		return newFacebookScraper(cfg, cred, limits, log), nil
	default:
		return nil, errs.Newf(errs.ErrorTypeValidation, "unsupported platform %q", platform)
	}
}

// RateLimitRules converts the configured per-platform budgets into window
// rules keyed by each platform's comment endpoint, plus the daily caps.
func RateLimitRules(cfg config.RateLimitsConfig) (map[ratelimit.Key]ratelimit.Rule, map[models.Platform]int) {
	rules := make(map[ratelimit.Key]ratelimit.Rule)
	daily := make(map[models.Platform]int)

	for _, platform := range models.AllPlatforms() {
		limits := cfg.ForPlatform(platform)
		if limits.Configured() {
			rules[ratelimit.Key{Platform: platform, Endpoint: commentEndpoints[platform]}] = ratelimit.Rule{
				Requests: limits.RequestsPerWindow,
				Window:   limits.Window,
			}
		}
		if limits.DailyCap > 0 {
			daily[platform] = limits.DailyCap
		}
	}
	return rules, daily
}

// NewRegistry builds the process-wide limiter from config.
func NewRegistry(cfg config.RateLimitsConfig, log logger.Logger) *ratelimit.Registry {
	rules, daily := RateLimitRules(cfg)
	return ratelimit.NewRegistry(rules, daily, log)
}
