package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"

	"commentscraper/pkg/models"
)

const (
	keyringService = "commentscraper"
	keyringPrefix  = "platform_"
)

// KeyringStore implements Store using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available
	testKey := "test_availability"
	err := keyring.Set(keyringService, testKey, "test")
	if err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// KeyringAvailable reports whether the system keychain accepts writes.
func KeyringAvailable() bool {
	_, err := NewKeyringStore()
	return err == nil
}

// Store saves the credential to the system keychain
func (k *KeyringStore) Store(cred *Credential) error {
	if cred == nil || !cred.Platform.Valid() {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	key := keyringPrefix + cred.Platform.String()
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return nil
}

// Retrieve gets the platform's credential from the system keychain
func (k *KeyringStore) Retrieve(platform models.Platform) (*Credential, error) {
	if !platform.Valid() {
		return nil, ErrInvalidCredentials
	}

	key := keyringPrefix + platform.String()
	data, err := keyring.Get(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}

	return &cred, nil
}

// List returns the stored credentials for every known platform. go-keyring
// cannot enumerate keys, so each platform is probed individually.
func (k *KeyringStore) List() ([]*Credential, error) {
	var creds []*Credential
	for _, platform := range models.AllPlatforms() {
		cred, err := k.Retrieve(platform)
		if err != nil {
			continue
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// Delete removes the platform's credential from the system keychain
func (k *KeyringStore) Delete(platform models.Platform) error {
	if !platform.Valid() {
		return ErrInvalidCredentials
	}

	key := keyringPrefix + platform.String()
	err := keyring.Delete(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return nil
}

// Exists checks if a credential exists in the keychain
func (k *KeyringStore) Exists(platform models.Platform) bool {
	if !platform.Valid() {
		return false
	}

	key := keyringPrefix + platform.String()
	_, err := keyring.Get(keyringService, key)
	return err == nil
}
