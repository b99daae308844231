package verification

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNoPreview is returned when no pending preview exists for the user.
	ErrNoPreview = errors.New("no pending personal info preview")
	// ErrInvalidToken is returned when the confirmation token does not match.
	ErrInvalidToken = errors.New("invalid confirmation token")
	// ErrStoreUnavailable is returned when the preview store cannot be reached.
	ErrStoreUnavailable = errors.New("preview store unavailable")
)

const (
	previewKeyPrefix  = "personal_info:"
	confirmTokenChars = 10
	opTimeout         = 2 * time.Second
)

// PersonalInfo is the identity data a user submits for verification.
type PersonalInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// preview is the Redis-resident blob held until the user confirms it.
type preview struct {
	PersonalInfo      PersonalInfo `json:"personal_info"`
	PhoneNumber       string       `json:"phone_number"`
	Count             int          `json:"count"`
	IdentityNumber    string       `json:"identity_number"`
	ConfirmationToken string       `json:"confirmation_token"`
}

// Service manages the personal-info verification flow: submitted data is
// parked in the preview store for a bounded window, then copied to the
// profile once confirmed.
type Service struct {
	cache    *redis.Client
	profiles ProfileRepository
	ttl      time.Duration
	logger   *slog.Logger
}

// NewService wires the verification service. ttl bounds how long a preview
// stays confirmable.
func NewService(cache *redis.Client, profiles ProfileRepository, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{cache: cache, profiles: profiles, ttl: ttl, logger: logger}
}

// Submit stores the submitted personal info as a pending preview and returns
// the confirmation token. Resubmitting replaces the preview and bumps the
// attempt count.
func (s *Service) Submit(ctx context.Context, userID, phoneNumber, identityNumber string, info PersonalInfo) (string, error) {
	count := 1
	if existing, err := s.fetch(ctx, userID); err == nil {
		count = existing.Count + 1
	} else if errors.Is(err, ErrStoreUnavailable) {
		return "", err
	}

	confirmToken, err := randomDigits(confirmTokenChars)
	if err != nil {
		return "", err
	}

	blob, err := json.Marshal(preview{
		PersonalInfo:      info,
		PhoneNumber:       phoneNumber,
		Count:             count,
		IdentityNumber:    identityNumber,
		ConfirmationToken: confirmToken,
	})
	if err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.cache.Set(opCtx, previewKeyPrefix+userID, blob, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Info("personal info preview stored", "user_id", userID, "attempt", count)
	return confirmToken, nil
}

// Preview returns the pending personal info for the user.
func (s *Service) Preview(ctx context.Context, userID string) (PersonalInfo, error) {
	p, err := s.fetch(ctx, userID)
	if err != nil {
		return PersonalInfo{}, err
	}
	return p.PersonalInfo, nil
}

// Confirm checks the confirmation token against the pending preview, writes
// the verified data to the profile and drops the preview.
func (s *Service) Confirm(ctx context.Context, userID, confirmToken string) error {
	p, err := s.fetch(ctx, userID)
	if err != nil {
		return err
	}
	if p.ConfirmationToken != confirmToken {
		return ErrInvalidToken
	}

	profile := Profile{
		UserID:         userID,
		FirstName:      p.PersonalInfo.FirstName,
		LastName:       p.PersonalInfo.LastName,
		IdentityNumber: p.IdentityNumber,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.cache.Del(opCtx, previewKeyPrefix+userID).Err(); err != nil {
		// Profile is already updated; the preview will age out by TTL.
		s.logger.Warn("drop preview", "user_id", userID, "error", err)
	}

	s.logger.Info("personal info confirmed", "user_id", userID)
	return nil
}

func (s *Service) fetch(ctx context.Context, userID string) (preview, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	blob, err := s.cache.Get(opCtx, previewKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return preview{}, ErrNoPreview
		}
		return preview{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var p preview
	if err := json.Unmarshal(blob, &p); err != nil {
		return preview{}, fmt.Errorf("decode preview: %w", err)
	}
	return p, nil
}

func randomDigits(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate confirmation token: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
