package auth

import (
	"os"
	"time"

	"commentscraper/pkg/models"
)

// Environment variable names checked per platform.
const (
	envYouTubeAPIKey        = "COMMENTSCRAPER_YOUTUBE_API_KEY"
	envInstagramAccessToken = "COMMENTSCRAPER_INSTAGRAM_ACCESS_TOKEN"
	envTikTokClientKey      = "COMMENTSCRAPER_TIKTOK_CLIENT_KEY"
	envTikTokClientSecret   = "COMMENTSCRAPER_TIKTOK_CLIENT_SECRET"
	envFacebookAccessToken  = "COMMENTSCRAPER_FACEBOOK_ACCESS_TOKEN"
)

// EnvironmentStore implements Store using environment variables. It is
// read-only and mainly useful in CI and container deployments where a
// keychain is not available.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve builds the platform's credential from environment variables
func (e *EnvironmentStore) Retrieve(platform models.Platform) (*Credential, error) {
	cred := &Credential{Platform: platform, UpdatedAt: time.Now()}

	switch platform {
	case models.PlatformYouTube:
		cred.APIKey = os.Getenv(envYouTubeAPIKey)
	case models.PlatformInstagram:
		cred.AccessToken = os.Getenv(envInstagramAccessToken)
	case models.PlatformTikTok:
		cred.ClientKey = os.Getenv(envTikTokClientKey)
		cred.ClientSecret = os.Getenv(envTikTokClientSecret)
	case models.PlatformFacebook:
		cred.AccessToken = os.Getenv(envFacebookAccessToken)
	default:
		return nil, ErrInvalidCredentials
	}

	if cred.Validate() != nil {
		return nil, ErrCredentialsNotFound
	}

	return cred, nil
}

// List returns credentials for every platform with complete environment
// variables set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	var creds []*Credential
	for _, platform := range models.AllPlatforms() {
		cred, err := e.Retrieve(platform)
		if err != nil {
			continue
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(platform models.Platform) error {
	return ErrStoreUnavailable
}

// Exists checks if complete environment credentials exist for the platform
func (e *EnvironmentStore) Exists(platform models.Platform) bool {
	_, err := e.Retrieve(platform)
	return err == nil
}
