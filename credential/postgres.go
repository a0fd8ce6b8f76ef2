package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/veloryn/authcore/internal/dbx"
)

// PostgresStore persists accounts in a Postgres accounts table.
// Lockout accounting runs as single conditional UPDATE statements so
// concurrent failures for the same account serialize on the row.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const pgUniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, handle, password_hash, failed_logins, created_at)
		VALUES ($1, $2, $3, 0, $4)`

	_, err := s.db.ExecContext(ctx, query,
		account.ID, account.Handle, account.PasswordHash, account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("credential: insert account: %w", err)
	}

	return nil
}

func (s *PostgresStore) FindByHandle(ctx context.Context, handle string) (*Account, error) {
	return s.findBy(ctx, "handle", handle)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Account, error) {
	return s.findBy(ctx, "id", id)
}

func (s *PostgresStore) findBy(ctx context.Context, column, value string) (*Account, error) {
	query := fmt.Sprintf(`
		SELECT id, handle, password_hash, failed_logins, locked_until, last_login_at, created_at
		FROM accounts
		WHERE %s = $1`, column)

	return scanAccount(s.db.QueryRowContext(ctx, query, value))
}

func (s *PostgresStore) RecordFailedLogin(ctx context.Context, id string, threshold int, lockUntil time.Time) (*Account, error) {
	// The expiry moves only when the counter lands exactly on the
	// threshold. Failures during an active lock keep counting without
	// extending it.
	query := `
		UPDATE accounts
		SET failed_logins = failed_logins + 1,
		    locked_until = CASE
		        WHEN failed_logins + 1 = $2 THEN $3
		        ELSE locked_until
		    END
		WHERE id = $1
		RETURNING id, handle, password_hash, failed_logins, locked_until, last_login_at, created_at`

	return scanAccount(s.db.QueryRowContext(ctx, query, id, threshold, lockUntil))
}

func (s *PostgresStore) RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE accounts
		SET failed_logins = 0, locked_until = NULL, last_login_at = $2
		WHERE id = $1`

	return s.exec(ctx, query, id, at)
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	return s.exec(ctx, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, hash)
}

// Delete removes the account and its refresh records in one
// transaction. The refresh_tokens foreign key has no ON DELETE CASCADE
// so the ordering here is explicit.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE account_id = $1`, id); err != nil {
			return fmt.Errorf("credential: delete refresh tokens: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("credential: delete account: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("credential: delete account: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("credential: update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credential: update account: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (*Account, error) {
	var (
		acc         Account
		lockedUntil sql.NullTime
		lastLogin   sql.NullTime
	)

	err := row.Scan(&acc.ID, &acc.Handle, &acc.PasswordHash, &acc.FailedLogins,
		&lockedUntil, &lastLogin, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("credential: query account: %w", err)
	}

	if lockedUntil.Valid {
		t := lockedUntil.Time
		acc.LockedUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		acc.LastLoginAt = &t
	}
	return &acc, nil
}
