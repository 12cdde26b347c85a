package models

import "fmt"

// Platform identifies a supported comment source.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
)

// ParsePlatform converts a string to a Platform, rejecting unknown values.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformYouTube, PlatformInstagram, PlatformTikTok, PlatformFacebook:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// AllPlatforms returns the supported platforms in a stable order.
func AllPlatforms() []Platform {
	return []Platform{PlatformYouTube, PlatformInstagram, PlatformTikTok, PlatformFacebook}
}

func (p Platform) String() string {
	return string(p)
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	_, err := ParsePlatform(string(p))
	return err == nil
}

// ContentType classifies the parent content a comment belongs to.
type ContentType string

const (
	ContentTypeVideo ContentType = "video"
	ContentTypePost  ContentType = "post"
	ContentTypeReel  ContentType = "reel"
)

// DefaultContentType returns the content type assumed for a platform when a
// request leaves it unset.
func DefaultContentType(p Platform) ContentType {
	switch p {
	case PlatformYouTube, PlatformTikTok:
		return ContentTypeVideo
	default:
		return ContentTypePost
	}
}
