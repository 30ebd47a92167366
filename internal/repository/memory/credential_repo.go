package memory

import (
	"alcyxob/gym-console/internal/domain"
	"alcyxob/gym-console/internal/repository"
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// CredentialRepository is a map-backed repository.CredentialRepository.
type CredentialRepository struct {
	mu      sync.RWMutex
	byEmail map[string]domain.Credential
}

// NewCredentialRepository creates an empty credential store.
func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{byEmail: make(map[string]domain.Credential)}
}

// Create stores cred. Emails are unique, compared case-insensitively.
func (r *CredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	if cred.ID == "" || cred.Email == "" || cred.PasswordHash == "" {
		return errors.New("credential id, email, and password hash are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(cred.Email)
	if _, exists := r.byEmail[key]; exists {
		return repository.ErrDuplicateKey
	}
	now := time.Now().UTC()
	cred.CreatedAt = now
	cred.UpdatedAt = now
	r.byEmail[key] = *cred
	return nil
}

// GetByEmail retrieves a credential by email.
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cred, nil
}

// GetByID retrieves a credential by id.
func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cred := range r.byEmail {
		if cred.ID == id {
			c := cred
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}
