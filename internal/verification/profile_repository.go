package verification

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProfileNotFound is returned when no profile row exists for the user.
var ErrProfileNotFound = errors.New("profile not found")

// Profile holds the verified identity fields of a user.
type Profile struct {
	UserID         string
	FirstName      string
	LastName       string
	IdentityNumber string
}

// ProfileRepository persists profiles.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile Profile) error
	Find(ctx context.Context, userID string) (Profile, error)
}

// PostgresProfileRepository implements ProfileRepository using PostgreSQL.
type PostgresProfileRepository struct {
	db *pgxpool.Pool
}

// NewPostgresProfileRepository builds a Postgres-backed profile repository.
func NewPostgresProfileRepository(db *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// Upsert inserts or replaces the profile row for the user.
func (r *PostgresProfileRepository) Upsert(ctx context.Context, profile Profile) error {
	_, err := r.db.Exec(ctx, `INSERT INTO profiles (user_id, first_name, last_name, identity_number)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE
        SET first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            identity_number = EXCLUDED.identity_number`,
		profile.UserID, profile.FirstName, profile.LastName, profile.IdentityNumber)
	return err
}

// Find fetches the profile for the user.
func (r *PostgresProfileRepository) Find(ctx context.Context, userID string) (Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT user_id, first_name, last_name, identity_number
        FROM profiles WHERE user_id = $1`, userID)

	var profile Profile
	if err := row.Scan(&profile.UserID, &profile.FirstName, &profile.LastName, &profile.IdentityNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, err
	}
	return profile, nil
}

// MemoryProfileRepository is an in-memory profile store for testing.
type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryProfileRepository builds an empty in-memory profile store.
func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{profiles: make(map[string]Profile)}
}

func (r *MemoryProfileRepository) Upsert(_ context.Context, profile Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *MemoryProfileRepository) Find(_ context.Context, userID string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return profile, nil
}
