package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned when the unique phone constraint rejects a create.
	ErrAlreadyExists = errors.New("user already exists")
)

// Repository persists user records.
type Repository interface {
	FindByPhone(ctx context.Context, phoneNumber string) (User, error)
	CreatePending(ctx context.Context, phoneNumber string) (User, error)
	MarkVerified(ctx context.Context, id string) (User, error)
}

const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByPhone fetches a user by normalized phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phoneNumber string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, phone_number, state, is_active, is_blocked, created_at
        FROM users WHERE phone_number = $1`, phoneNumber)
	return scanUser(row)
}

// CreatePending inserts a new user in the pending state. The unique index on
// phone_number backstops the existence check done by the caller.
func (r *PostgresRepository) CreatePending(ctx context.Context, phoneNumber string) (User, error) {
	user := User{
		ID:          uuid.NewString(),
		PhoneNumber: phoneNumber,
		State:       StatePending,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx, `INSERT INTO users (id, phone_number, state, is_active, is_blocked, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.PhoneNumber, user.State, user.IsActive, user.IsBlocked, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrAlreadyExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// MarkVerified transitions the user to the phone-verified state.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRow(ctx, `UPDATE users SET state = $1 WHERE id = $2
        RETURNING id, phone_number, state, is_active, is_blocked, created_at`,
		StatePhoneVerified, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.PhoneNumber, &user.State, &user.IsActive, &user.IsBlocked, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}
