package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/lockout-auth/internal/errs"
	"github.com/and161185/lockout-auth/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, password_hash, last_failed_login_at, failed_login_attempts, login_blocked_until, created_at`

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, username, password_hash, last_failed_login_at, failed_login_attempts, login_blocked_until)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Username, u.PwdHash, u.LastFailedAt, u.FailedAttempts, u.BlockedUntil)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, username))
}

// WithUserLocked runs fn on the user row held with SELECT ... FOR UPDATE and
// writes back the hash and lockout columns in the same transaction.
func (r *UserRepo) WithUserLocked(ctx context.Context, username string, fn func(u *model.User) error) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `SELECT ` + userColumns + ` FROM users WHERE username=$1 FOR UPDATE`
	u, err := scanUser(tx.QueryRow(ctx, sel, username))
	if err != nil {
		return err
	}

	if err = fn(u); err != nil {
		return err
	}

	const upd = `
UPDATE users
SET password_hash=$2, last_failed_login_at=$3, failed_login_attempts=$4, login_blocked_until=$5
WHERE id=$1`
	_, err = tx.Exec(ctx, upd, u.ID, u.PwdHash, u.LastFailedAt, u.FailedAttempts, u.BlockedUntil)
	return err
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.PwdHash, &u.LastFailedAt, &u.FailedAttempts, &u.BlockedUntil, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
