package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianhq/meridian/internal/platform/db"
	"github.com/meridianhq/meridian/internal/shared"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, account *Account) (*Account, error)
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, email string) error
	List(ctx context.Context, page, size int) ([]Account, int, error)
	SetCurrentToken(ctx context.Context, email, token string) error
	ClearCurrentToken(ctx context.Context, email string) error
	CurrentToken(ctx context.Context, email string) (string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, username, email, password_hash, first_name, last_name, phone_number, age, city, roles, COALESCE(current_token, ''), created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var roles []string
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.PhoneNumber, &a.Age, &a.City, &roles, &a.CurrentToken, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Roles = make([]shared.Role, 0, len(roles))
	for _, r := range roles {
		a.Roles = append(a.Roles, shared.Role(r))
	}
	return &a, nil
}

func roleNames(roles []shared.Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return names
}

// FindByEmail fetches an account by its unique email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, email)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStorageError("find user by email", err)
	}
	return account, nil
}

// Create inserts a new account. A unique violation on email maps to
// ErrDuplicateAccount so races between the pre-check and the insert still
// surface as a conflict.
func (r *PGRepository) Create(ctx context.Context, account *Account) (*Account, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name, phone_number, age, city, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id`,
		account.Username, account.Email, account.PasswordHash, account.FirstName, account.LastName,
		account.PhoneNumber, account.Age, account.City, roleNames(account.Roles), now)
	if err := row.Scan(&account.ID); err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicateAccount
		}
		return nil, shared.NewStorageError("save user", err)
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	return account, nil
}

// Update persists mutable profile fields and the password hash.
func (r *PGRepository) Update(ctx context.Context, account *Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, phone_number = $3, age = $4, city = $5, roles = $6, updated_at = $7
		WHERE email = $1`,
		account.Email, account.PasswordHash, account.PhoneNumber, account.Age, account.City,
		roleNames(account.Roles), time.Now().UTC())
	if err != nil {
		return shared.NewStorageError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the account row.
func (r *PGRepository) Delete(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return shared.NewStorageError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns a page of accounts ordered by id, plus the total count. Count
// and page run in one transaction so they describe the same table state.
func (r *PGRepository) List(ctx context.Context, page, size int) ([]Account, int, error) {
	var accounts []Account
	var total int
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
			return shared.NewStorageError("count users", err)
		}
		rows, err := tx.Query(ctx, `SELECT `+accountColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`,
			size, page*size)
		if err != nil {
			return shared.NewStorageError("list users", err)
		}
		defer rows.Close()
		for rows.Next() {
			account, err := scanAccount(rows)
			if err != nil {
				return shared.NewStorageError("scan user", err)
			}
			accounts = append(accounts, *account)
		}
		if err := rows.Err(); err != nil {
			return shared.NewStorageError("list users", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// SetCurrentToken overwrites the single token slot, implicitly revoking any
// previously issued token for the account.
func (r *PGRepository) SetCurrentToken(ctx context.Context, email, token string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET current_token = $2, updated_at = $3 WHERE email = $1`,
		email, token, time.Now().UTC())
	if err != nil {
		return shared.NewStorageError("set current token", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearCurrentToken empties the token slot. Clearing an already empty slot
// is not an error.
func (r *PGRepository) ClearCurrentToken(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET current_token = NULL, updated_at = $2 WHERE email = $1`,
		email, time.Now().UTC())
	if err != nil {
		return shared.NewStorageError("clear current token", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CurrentToken returns the stored token slot, empty when no token is
// active. It implements auth.TokenStore for the gate.
func (r *PGRepository) CurrentToken(ctx context.Context, email string) (string, error) {
	var token string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(current_token, '') FROM users WHERE email = $1`, email).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", shared.NewStorageError("read current token", err)
	}
	return token, nil
}

var _ Repository = (*PGRepository)(nil)
