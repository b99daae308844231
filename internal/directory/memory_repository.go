package directory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory user store for testing.
type MemoryRepository struct {
	mu      sync.RWMutex
	byPhone map[string]User
	byID    map[string]string
}

// NewMemoryRepository builds an empty in-memory user store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byPhone: make(map[string]User),
		byID:    make(map[string]string),
	}
}

func (r *MemoryRepository) FindByPhone(_ context.Context, phoneNumber string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byPhone[phoneNumber]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepository) CreatePending(_ context.Context, phoneNumber string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPhone[phoneNumber]; exists {
		return User{}, ErrAlreadyExists
	}
	user := User{
		ID:          uuid.NewString(),
		PhoneNumber: phoneNumber,
		State:       StatePending,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	r.byPhone[phoneNumber] = user
	r.byID[user.ID] = phoneNumber
	return user, nil
}

func (r *MemoryRepository) MarkVerified(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	phone, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	user := r.byPhone[phone]
	user.State = StatePhoneVerified
	r.byPhone[phone] = user
	return user, nil
}

// SetBlocked flips the administrative block flag. Test helper: in production
// the flag is mutated by external tooling only.
func (r *MemoryRepository) SetBlocked(phoneNumber string, blocked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.byPhone[phoneNumber]; ok {
		user.IsBlocked = blocked
		r.byPhone[phoneNumber] = user
	}
}
