package auth

import (
	"errors"
	"fmt"
	"time"

	"commentscraper/pkg/models"
)

// Credential holds the API credentials for a single platform. Which fields
// are required depends on the platform: YouTube authenticates with an API
// key, Instagram and Facebook with a Graph API access token, and TikTok with
// a research client key and secret.
type Credential struct {
	Platform     models.Platform `json:"platform"`
	APIKey       string          `json:"api_key,omitempty"`
	AccessToken  string          `json:"access_token,omitempty"`
	ClientKey    string          `json:"client_key,omitempty"`
	ClientSecret string          `json:"client_secret,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validate checks that the credential carries the fields its platform needs.
func (c *Credential) Validate() error {
	if c == nil {
		return ErrInvalidCredentials
	}
	if !c.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidCredentials, c.Platform)
	}

	switch c.Platform {
	case models.PlatformYouTube:
		if c.APIKey == "" {
			return fmt.Errorf("%w: youtube requires an API key", ErrInvalidCredentials)
		}
	case models.PlatformInstagram:
		if c.AccessToken == "" {
			return fmt.Errorf("%w: instagram requires an access token", ErrInvalidCredentials)
		}
	case models.PlatformFacebook:
		if c.AccessToken == "" {
			return fmt.Errorf("%w: facebook requires an access token", ErrInvalidCredentials)
		}
	case models.PlatformTikTok:
		if c.ClientKey == "" || c.ClientSecret == "" {
			return fmt.Errorf("%w: tiktok requires a client key and secret", ErrInvalidCredentials)
		}
	}

	return nil
}

// Store is the interface for storing and retrieving platform credentials
type Store interface {
	// Store saves the credential for its platform
	Store(cred *Credential) error

	// Retrieve gets the credential for a specific platform
	Retrieve(platform models.Platform) (*Credential, error)

	// List returns all stored credentials
	List() ([]*Credential, error)

	// Delete removes the credential for a specific platform
	Delete(platform models.Platform) error

	// Exists checks if a credential exists for a platform
	Exists(platform models.Platform) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []Store
}

// NewManager creates a credential manager backed by the system keychain when
// it is available, with environment variables as a read-only fallback.
func NewManager() *Manager {
	var stores []Store

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}
}

// Store validates the credential and saves it using the first writable store
func (m *Manager) Store(cred *Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}

	cred.UpdatedAt = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the credential from the first store that has it
func (m *Manager) Retrieve(platform models.Platform) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(platform); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for platform %s", ErrCredentialsNotFound, platform)
}

// HasValidCredential reports whether a usable credential exists for the
// platform in any store.
func (m *Manager) HasValidCredential(platform models.Platform) bool {
	cred, err := m.Retrieve(platform)
	if err != nil {
		return false
	}
	return cred.Validate() == nil
}

// List returns all stored credentials from all stores, one per platform. When
// the same platform appears in more than one store the most recently updated
// copy wins.
func (m *Manager) List() ([]*Credential, error) {
	credMap := make(map[models.Platform]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := credMap[cred.Platform]; !ok || cred.UpdatedAt.After(existing.UpdatedAt) {
				credMap[cred.Platform] = cred
			}
		}
	}

	var result []*Credential
	for _, platform := range models.AllPlatforms() {
		if cred, ok := credMap[platform]; ok {
			result = append(result, cred)
		}
	}

	return result, nil
}

// Delete removes the platform's credential from all stores
func (m *Manager) Delete(platform models.Platform) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(platform); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for platform %s", ErrCredentialsNotFound, platform)
	}

	return nil
}

// DeleteAll removes all stored credentials
func (m *Manager) DeleteAll() error {
	creds, err := m.List()
	if err != nil {
		return err
	}

	for _, cred := range creds {
		_ = m.Delete(cred.Platform) // Ignore individual errors
	}

	return nil
}

// Sanitize creates a copy of the credential with secrets masked. The TikTok
// client key is left intact since it already travels in request URLs.
func Sanitize(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}

	return &Credential{
		Platform:     cred.Platform,
		APIKey:       maskString(cred.APIKey),
		AccessToken:  maskString(cred.AccessToken),
		ClientKey:    cred.ClientKey,
		ClientSecret: maskString(cred.ClientSecret),
		UpdatedAt:    cred.UpdatedAt,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
