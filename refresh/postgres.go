package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veloryn/authcore/internal/dbx"
)

// PostgresStore persists refresh records in a refresh_tokens table.
// Deactivation is a conditional UPDATE on the active flag, which gives
// the first-writer-wins rotation guarantee at the row level.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, rec *Record, maxPerAccount int) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// Serialize evict-plus-insert per account. Without the lock two
		// concurrent appends under READ COMMITTED each see the same
		// survivors and the cap can be exceeded by one.
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`, rec.AccountID); err != nil {
			return fmt.Errorf("refresh: lock account: %w", err)
		}

		if maxPerAccount > 0 {
			// Evict oldest rows so the account ends up with at most
			// maxPerAccount records including the new one.
			evict := `
				DELETE FROM refresh_tokens
				WHERE id IN (
					SELECT id FROM refresh_tokens
					WHERE account_id = $1
					ORDER BY created_at DESC
					OFFSET $2
				)`
			if _, err := tx.ExecContext(ctx, evict, rec.AccountID, maxPerAccount-1); err != nil {
				return fmt.Errorf("refresh: evict oldest: %w", err)
			}
		}

		insert := `
			INSERT INTO refresh_tokens
				(id, account_id, token_hash, token_cipher, nonce, device, origin_address,
				 created_at, last_used_at, expires_at, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err := tx.ExecContext(ctx, insert,
			rec.ID, rec.AccountID, rec.TokenHash, rec.TokenCipher, rec.Nonce,
			rec.Device, rec.OriginAddress, rec.CreatedAt, rec.LastUsedAt,
			rec.ExpiresAt, rec.Active)
		if err != nil {
			return fmt.Errorf("refresh: insert record: %w", err)
		}
		return nil
	})
}

const recordColumns = `id, account_id, token_hash, token_cipher, nonce, device,
	origin_address, created_at, last_used_at, expires_at, active`

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM refresh_tokens WHERE token_hash = $1`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, hash))
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET active = FALSE WHERE id = $1 AND active`, id)
	if err != nil {
		return false, fmt.Errorf("refresh: deactivate record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("refresh: deactivate record: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	// Lost the race or the row never existed. Tell those apart.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("refresh: deactivate record: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *PostgresStore) DeactivateAll(ctx context.Context, accountID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET active = FALSE WHERE account_id = $1 AND active`, accountID)
	if err != nil {
		return 0, fmt.Errorf("refresh: deactivate all: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("refresh: deactivate all: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) MarkUsed(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("refresh: mark used: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("refresh: mark used: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context, accountID string, now time.Time) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM refresh_tokens
		WHERE account_id = $1 AND active AND expires_at > $2
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("refresh: list active: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("refresh: list active: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.AccountID, &rec.TokenHash, &rec.TokenCipher,
		&rec.Nonce, &rec.Device, &rec.OriginAddress, &rec.CreatedAt,
		&rec.LastUsedAt, &rec.ExpiresAt, &rec.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("refresh: scan record: %w", err)
	}
	return &rec, nil
}
