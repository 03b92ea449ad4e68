package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"swapyard/internal/app/db"
	"swapyard/internal/app/market"
)

// NewUser is the input for CreateUser. The password must already be hashed.
type NewUser struct {
	Username     string
	FullName     string
	Phone        string
	Email        string
	PasswordHash string
	Address      string
}

const userColumns = `id, username, full_name, phone, email, password_hash, address, created_at`

func scanUser(row pgx.Row) (market.User, error) {
	var u market.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Phone, &u.Email, &u.PasswordHash, &u.Address, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.User{}, market.ErrNotFound
	}
	if err != nil {
		return market.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new account. It returns market.ErrDuplicate when the
// username, phone, or email is already taken.
func (s *Store) CreateUser(ctx context.Context, in NewUser) (market.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, full_name, phone, email, password_hash, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		in.Username, in.FullName, in.Phone, in.Email, in.PasswordHash, in.Address)

	u, err := scanUser(row)
	if db.IsUniqueViolation(err) {
		return market.User{}, market.ErrDuplicate
	}
	return u, err
}

// GetUserByID fetches an account by id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (market.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByPhone fetches an account by phone number. Login identifies
// accounts by phone.
func (s *Store) GetUserByPhone(ctx context.Context, phone string) (market.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

// GetUserByUsername fetches an account by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (market.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// UpdateProfile updates the mutable profile fields of an account and returns
// the updated record. It returns market.ErrDuplicate on an email/phone
// conflict with another account.
func (s *Store) UpdateProfile(ctx context.Context, id int64, fullName, phone, email, address string) (market.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET full_name = $2, phone = $3, email = $4, address = $5
		WHERE id = $1
		RETURNING `+userColumns,
		id, fullName, phone, email, address)

	u, err := scanUser(row)
	if db.IsUniqueViolation(err) {
		return market.User{}, market.ErrDuplicate
	}
	return u, err
}
