package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// Purpose namespaces stored codes so a user can hold at most one active code
// per flow.
type Purpose string

const (
	// PurposeLogin is the short-lived code verified during login.
	PurposeLogin Purpose = "login_otp"
)

var (
	// ErrNotFound is returned when no unexpired code exists for the key.
	ErrNotFound = errors.New("verification code not found")
	// ErrStoreUnavailable is returned when the backing cache cannot be
	// reached. It is never folded into ErrNotFound: callers must be able to
	// tell "retry later" from "wrong code".
	ErrStoreUnavailable = errors.New("verification code store unavailable")
)

const (
	codeDigits = 6
	opTimeout  = 2 * time.Second
)

// Store keeps one-time verification codes in Redis. Entries expire via TTL;
// issuing a new code overwrites the previous one for the same (key, purpose).
type Store struct {
	cache *redis.Client
	ttl   map[Purpose]time.Duration
}

// NewStore builds a code store. loginTTL bounds the login-purpose codes.
func NewStore(cache *redis.Client, loginTTL time.Duration) *Store {
	return &Store{
		cache: cache,
		ttl: map[Purpose]time.Duration{
			PurposeLogin: loginTTL,
		},
	}
}

// IssueCode generates a fresh numeric code and stores it under the key with
// the purpose TTL, replacing any previous code.
func (s *Store) IssueCode(ctx context.Context, userKey string, purpose Purpose) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, storageKey(userKey, purpose), code, s.ttl[purpose]).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return code, nil
}

// Fetch returns the stored code without consuming it. A missing or expired
// entry yields ErrNotFound.
func (s *Store) Fetch(ctx context.Context, userKey string, purpose Purpose) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	code, err := s.cache.Get(ctx, storageKey(userKey, purpose)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return code, nil
}

// Consume deletes the stored code and reports whether this call removed it.
// Delete-and-check-result keeps consumption atomic: of two racing
// verifications only one observes consumed=true.
func (s *Store) Consume(ctx context.Context, userKey string, purpose Purpose) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	removed, err := s.cache.Del(ctx, storageKey(userKey, purpose)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return removed > 0, nil
}

func storageKey(userKey string, purpose Purpose) string {
	return fmt.Sprintf("%s:%s", purpose, userKey)
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
