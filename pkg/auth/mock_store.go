package auth

import (
	"fmt"
	"sync"

	"commentscraper/pkg/models"
)

// MockStore implements Store for testing purposes
type MockStore struct {
	creds map[models.Platform]*Credential
	mu    sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{
		creds: make(map[models.Platform]*Credential),
	}
}

// Store saves the credential to the mock store
func (m *MockStore) Store(cred *Credential) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cred == nil || !cred.Platform.Valid() {
		return ErrInvalidCredentials
	}

	// Create a copy to avoid external modifications
	credCopy := *cred
	m.creds[cred.Platform] = &credCopy

	return nil
}

// Retrieve gets the platform's credential from the mock store
func (m *MockStore) Retrieve(platform models.Platform) (*Credential, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !platform.Valid() {
		return nil, ErrInvalidCredentials
	}

	cred, exists := m.creds[platform]
	if !exists {
		return nil, ErrCredentialsNotFound
	}

	// Return a copy to avoid external modifications
	credCopy := *cred
	return &credCopy, nil
}

// List returns all stored credentials from the mock store
func (m *MockStore) List() ([]*Credential, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var creds []*Credential
	for _, cred := range m.creds {
		credCopy := *cred
		creds = append(creds, &credCopy)
	}

	return creds, nil
}

// Delete removes the platform's credential from the mock store
func (m *MockStore) Delete(platform models.Platform) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !platform.Valid() {
		return ErrInvalidCredentials
	}

	if _, exists := m.creds[platform]; !exists {
		return ErrCredentialsNotFound
	}

	delete(m.creds, platform)
	return nil
}

// Exists checks if a credential exists in the mock store
func (m *MockStore) Exists(platform models.Platform) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.creds[platform]
	return exists
}

// Clear removes all credentials from the mock store (useful for test cleanup)
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds = make(map[models.Platform]*Credential)
}

// Count returns the number of credentials in the mock store (useful for testing)
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.creds)
}

// GetCredential returns a copy of the stored credential for inspection
// (useful for testing)
func (m *MockStore) GetCredential(platform models.Platform) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, exists := m.creds[platform]
	if !exists {
		return nil, fmt.Errorf("credential not found: %s", platform)
	}

	credCopy := *cred
	return &credCopy, nil
}

// NewMockManager creates a Manager with a mock store for testing
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	manager := &Manager{
		stores: []Store{mockStore},
	}
	return manager, mockStore
}

// NewMockManagerWithStores creates a Manager with the given stores for testing
func NewMockManagerWithStores(stores ...Store) *Manager {
	return &Manager{
		stores: stores,
	}
}
