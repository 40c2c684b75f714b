package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/librus-hub/librus-notify/internal/domain/librus"
	"github.com/librus-hub/librus-notify/internal/domain/shared"
	"github.com/librus-hub/librus-notify/pkg/logger"
)

// Compile-time interface check.
var _ librus.SnapshotRepository = (*SnapshotRepository)(nil)

// SnapshotRepository stores one JSONB snapshot row per account key.
type SnapshotRepository struct {
	conn *Connection
	log  *logger.Logger
}

// NewSnapshotRepository creates the repository and ensures the schema exists.
func NewSnapshotRepository(ctx context.Context, conn *Connection, log *logger.Logger) (*SnapshotRepository, error) {
	if err := migrate(ctx, conn); err != nil {
		return nil, err
	}
	return &SnapshotRepository{conn: conn, log: log}, nil
}

// Load returns the stored snapshot for an account. Same fail-open policy as
// the file backend: a missing row or an undecodable payload yields the empty
// snapshot so the run proceeds.
func (r *SnapshotRepository) Load(ctx context.Context, accountKey string) (*librus.AccountSnapshot, error) {
	var payload []byte
	err := r.conn.QueryRow(ctx,
		`SELECT payload FROM account_snapshots WHERE account_key = $1`,
		accountKey,
	).Scan(&payload)
	if err != nil {
		if IsNoRows(err) {
			r.log.Info("no previous snapshot, starting fresh",
				logger.Account(accountKey), logger.SnapshotBackend("postgres"))
			return librus.EmptySnapshot(), nil
		}
		r.log.Warn("failed to load snapshot, starting fresh",
			logger.Account(accountKey), logger.Err(err))
		return librus.EmptySnapshot(), nil
	}

	var snapshot librus.AccountSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		r.log.Warn("snapshot payload corrupted, starting fresh",
			logger.Account(accountKey), logger.Err(err))
		return librus.EmptySnapshot(), nil
	}

	return &snapshot, nil
}

// Save upserts the account's snapshot row, replacing the entire payload.
func (r *SnapshotRepository) Save(ctx context.Context, accountKey string, snapshot *librus.AccountSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return shared.WrapError("snapshot", "Save", shared.ErrExternalService,
			"failed to encode snapshot", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO account_snapshots (account_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account_key)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, accountKey, payload)
	if err != nil {
		return shared.WrapError("snapshot", "Save", shared.ErrExternalService,
			fmt.Sprintf("failed to upsert snapshot for %s", accountKey), err)
	}

	return nil
}

// migrate creates the snapshot table. Single table, no version tracking
// needed yet.
func migrate(ctx context.Context, conn *Connection) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS account_snapshots (
			account_key TEXT PRIMARY KEY,
			payload     JSONB NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: account_snapshots: %v", ErrMigrationFailed, err)
	}
	return nil
}
