// Package pgstore keeps two-factor credentials and attempts in PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/twofactor/pkg/pg"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements twofactor.Store.
type Store struct {
	db DBTX
}

var _ twofactor.Store = (*Store)(nil)

// New returns a Store running its queries on db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

const credentialColumns = `user_id, secret, backup_codes, enabled, created_at, verified_at, last_used_at, last_counter, version`

const getCredential = `SELECT ` + credentialColumns + ` FROM two_factor_credentials WHERE user_id = $1`

func (s *Store) GetCredential(ctx context.Context, userID string) (*twofactor.Credential, error) {
	cred, err := scanCredential(s.db.QueryRow(ctx, getCredential, userID))
	if pg.IsNotFoundError(err) {
		return nil, twofactor.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get two-factor credential: %w", err)
	}
	return cred, nil
}

// The WHERE clause turns the upsert into a no-op for enabled rows, which
// then return no version.
const createPending = `
INSERT INTO two_factor_credentials (user_id, secret, backup_codes, enabled, created_at, last_counter, version)
VALUES ($1, $2, $3, FALSE, $4, 0, 1)
ON CONFLICT (user_id) DO UPDATE SET
    secret       = EXCLUDED.secret,
    backup_codes = EXCLUDED.backup_codes,
    created_at   = EXCLUDED.created_at,
    verified_at  = NULL,
    last_used_at = NULL,
    last_counter = 0,
    version      = two_factor_credentials.version + 1
WHERE two_factor_credentials.enabled = FALSE
RETURNING version`

func (s *Store) CreatePending(ctx context.Context, cred *twofactor.Credential) error {
	var version int64
	err := s.db.QueryRow(ctx, createPending,
		cred.UserID,
		cred.SecretCiphertext,
		backupCodes(cred.BackupCodes),
		cred.CreatedAt,
	).Scan(&version)
	if pg.IsNotFoundError(err) {
		return twofactor.ErrAlreadyEnabled
	}
	if err != nil {
		return fmt.Errorf("create pending two-factor credential: %w", err)
	}

	cred.Version = version
	return nil
}

const updateCredential = `
UPDATE two_factor_credentials SET
    secret       = $2,
    backup_codes = $3,
    enabled      = $4,
    verified_at  = $5,
    last_used_at = $6,
    last_counter = $7,
    version      = version + 1
WHERE user_id = $1 AND version = $8
RETURNING version`

func (s *Store) UpdateCredential(ctx context.Context, cred *twofactor.Credential, expectedVersion int64) error {
	var version int64
	err := s.db.QueryRow(ctx, updateCredential,
		cred.UserID,
		cred.SecretCiphertext,
		backupCodes(cred.BackupCodes),
		cred.Enabled,
		cred.VerifiedAt,
		cred.LastUsedAt,
		int64(cred.LastCounter),
		expectedVersion,
	).Scan(&version)
	if pg.IsNotFoundError(err) {
		return twofactor.ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("update two-factor credential: %w", err)
	}

	cred.Version = version
	return nil
}

const deleteCredential = `DELETE FROM two_factor_credentials WHERE user_id = $1 AND version = $2`

func (s *Store) DeleteCredential(ctx context.Context, userID string, expectedVersion int64) error {
	tag, err := s.db.Exec(ctx, deleteCredential, userID, expectedVersion)
	if err != nil {
		return fmt.Errorf("delete two-factor credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return twofactor.ErrVersionConflict
	}
	return nil
}

const insertAttempt = `
INSERT INTO two_factor_attempts (id, user_id, attempt_type, success, ip, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *Store) RecordAttempt(ctx context.Context, a twofactor.Attempt) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		id = uuid.New()
	}

	_, err = s.db.Exec(ctx, insertAttempt, id, a.UserID, string(a.Type), a.Success, a.IP, a.UserAgent, a.CreatedAt)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("record two-factor attempt %s: already recorded", id)
	}
	if err != nil {
		return fmt.Errorf("record two-factor attempt: %w", err)
	}
	return nil
}

const listAttempts = `
SELECT id, user_id, attempt_type, success, ip, user_agent, created_at
FROM two_factor_attempts
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

// ListAttempts returns the newest attempts of userID first.
func (s *Store) ListAttempts(ctx context.Context, userID string, limit int) ([]twofactor.Attempt, error) {
	rows, err := s.db.Query(ctx, listAttempts, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list two-factor attempts: %w", err)
	}

	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (twofactor.Attempt, error) {
		var (
			a   twofactor.Attempt
			id  uuid.UUID
			typ string
		)
		err := row.Scan(&id, &a.UserID, &typ, &a.Success, &a.IP, &a.UserAgent, &a.CreatedAt)
		a.ID, a.Type = id.String(), twofactor.AttemptType(typ)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("list two-factor attempts: %w", err)
	}
	return attempts, nil
}

// PruneAttempts deletes attempts created before cutoff and returns how many
// were removed.
func (s *Store) PruneAttempts(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM two_factor_attempts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune two-factor attempts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanCredential(row pgx.Row) (*twofactor.Credential, error) {
	var (
		c       twofactor.Credential
		counter int64
	)
	err := row.Scan(
		&c.UserID,
		&c.SecretCiphertext,
		&c.BackupCodes,
		&c.Enabled,
		&c.CreatedAt,
		&c.VerifiedAt,
		&c.LastUsedAt,
		&counter,
		&c.Version,
	)
	if err != nil {
		return nil, err
	}
	if counter < 0 {
		return nil, errors.New("negative last_counter")
	}
	c.LastCounter = uint64(counter)
	return &c, nil
}

// backupCodes never sends NULL for the NOT NULL array column.
func backupCodes(codes [][]byte) [][]byte {
	if codes == nil {
		return [][]byte{}
	}
	return codes
}
