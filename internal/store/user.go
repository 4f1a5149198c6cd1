package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cookshare/apiserver/types"
)

// AccountRepository handles persistence for accounts.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (types.Account, error) {
	const query = `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	const query = `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE lower(email) = lower($1)`
	return r.get(ctx, query, email)
}

func (r *AccountRepository) get(ctx context.Context, query string, arg any) (types.Account, error) {
	var account types.Account
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if err != nil {
		return types.Account{}, translateError(err)
	}
	return account, nil
}

// CreateWithProfile inserts the account and its profile in one transaction.
// The profile id is taken from the new account. A duplicate email or
// username yields ErrConflict and leaves nothing behind.
func (r *AccountRepository) CreateWithProfile(ctx context.Context, account types.Account, profile types.Profile) (types.Account, types.Profile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Account{}, types.Profile{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const accountQuery = `
		INSERT INTO accounts (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`
	if err := tx.QueryRowContext(ctx, accountQuery, account.Email, account.PasswordHash).
		Scan(&account.ID, &account.CreatedAt); err != nil {
		return types.Account{}, types.Profile{}, fmt.Errorf("insert account: %w", translateError(err))
	}

	const profileQuery = `
		INSERT INTO profiles (id, username, fullname, bio)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, fullname, bio, created_at, updated_at`
	if err := tx.QueryRowContext(ctx, profileQuery, account.ID, profile.Username, profile.FullName, profile.Bio).Scan(
		&profile.ID,
		&profile.Username,
		&profile.FullName,
		&profile.Bio,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return types.Account{}, types.Profile{}, fmt.Errorf("insert profile: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return types.Account{}, types.Profile{}, err
	}
	return account, profile, nil
}
