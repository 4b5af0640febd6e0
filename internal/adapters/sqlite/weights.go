package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fieldwise/dispatch/internal/domain/model"
	"github.com/fieldwise/dispatch/pkg/metrics"
	"github.com/mattn/go-sqlite3"
)

// maxVersionRetries bounds the optimistic retry loop on version-claim races.
const maxVersionRetries = 3

// GetActiveWeights returns the single active config, or ErrNotFound when the
// store has never been seeded.
func (db *DB) GetActiveWeights(ctx context.Context) (*model.WeightsConfig, error) {
	row := db.QueryRowContext(ctx, `
		SELECT version, availability, rating, distance, tie_breakers,
		       rotation_enabled, rotation_boost, rotation_threshold,
		       active, created_by, created_at, rolled_back_from
		FROM weights_config WHERE active = 1
	`)
	return scanConfig(row)
}

// GetWeightsByVersion returns one version or ErrNotFound.
func (db *DB) GetWeightsByVersion(ctx context.Context, version int64) (*model.WeightsConfig, error) {
	row := db.QueryRowContext(ctx, `
		SELECT version, availability, rating, distance, tie_breakers,
		       rotation_enabled, rotation_boost, rotation_threshold,
		       active, created_by, created_at, rolled_back_from
		FROM weights_config WHERE version = ?
	`, version)
	return scanConfig(row)
}

// GetWeightsHistory returns every version, newest first.
func (db *DB) GetWeightsHistory(ctx context.Context) ([]model.WeightsConfig, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT version, availability, rating, distance, tie_breakers,
		       rotation_enabled, rotation_boost, rotation_threshold,
		       active, created_by, created_at, rolled_back_from
		FROM weights_config ORDER BY version DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.WeightsConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *cfg)
	}
	return history, rows.Err()
}

// CreateWeightsVersion installs cfg as a new active version. Version numbers
// are claimed inside the transaction; a concurrent writer racing for the same
// number loses on the primary key and is retried with a fresh number, up to
// maxVersionRetries. Exactly one row is active at every point in time.
func (db *DB) CreateWeightsVersion(ctx context.Context, cfg model.WeightsConfig) (*model.WeightsConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		created, err := db.tryCreateVersion(ctx, cfg)
		if err == nil {
			return created, nil
		}
		if !isVersionConflict(err) {
			return nil, err
		}
		metrics.RecordConfigConflict()
		lastErr = err
	}
	return nil, fmt.Errorf("claim version after %d attempts: %w (%v)", maxVersionRetries, ErrConflict, lastErr)
}

func (db *DB) tryCreateVersion(ctx context.Context, cfg model.WeightsConfig) (*model.WeightsConfig, error) {
	tieBreakers, err := json.Marshal(cfg.TieBreakers)
	if err != nil {
		return nil, fmt.Errorf("encode tie breakers: %w", err)
	}

	out := cfg
	err = db.Transaction(ctx, func(tx *sql.Tx) error {
		var next int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(version), 0) + 1 FROM weights_config`,
		).Scan(&next); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE weights_config SET active = 0 WHERE active = 1`,
		); err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO weights_config (
				version, availability, rating, distance, tie_breakers,
				rotation_enabled, rotation_boost, rotation_threshold,
				active, created_by, created_at, rolled_back_from
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
		`,
			next, cfg.Weights.Availability, cfg.Weights.Rating, cfg.Weights.Distance,
			string(tieBreakers), boolInt(cfg.Rotation.Enabled), cfg.Rotation.BoostPoints,
			cfg.Rotation.UnderUtilizationThreshold, cfg.CreatedBy, now, cfg.RolledBackFrom,
		); err != nil {
			return err
		}

		out.Version = next
		out.Active = true
		out.CreatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RollbackWeights creates a new version copying target's values. Old rows are
// never reactivated, keeping the history strictly append-only.
func (db *DB) RollbackWeights(ctx context.Context, targetVersion int64, actor string) (*model.WeightsConfig, error) {
	target, err := db.GetWeightsByVersion(ctx, targetVersion)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("rollback target %d: %w", targetVersion, ErrInvalidRollback)
		}
		return nil, err
	}

	copied := *target
	copied.CreatedBy = actor
	copied.RolledBackFrom = targetVersion
	return db.CreateWeightsVersion(ctx, copied)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*model.WeightsConfig, error) {
	var (
		cfg         model.WeightsConfig
		tieBreakers string
		enabled     int
		active      int
	)
	err := row.Scan(
		&cfg.Version, &cfg.Weights.Availability, &cfg.Weights.Rating, &cfg.Weights.Distance,
		&tieBreakers, &enabled, &cfg.Rotation.BoostPoints, &cfg.Rotation.UnderUtilizationThreshold,
		&active, &cfg.CreatedBy, &cfg.CreatedAt, &cfg.RolledBackFrom,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tieBreakers), &cfg.TieBreakers); err != nil {
		return nil, fmt.Errorf("decode tie breakers: %w", err)
	}
	cfg.Rotation.Enabled = enabled == 1
	cfg.Active = active == 1
	cfg.CreatedAt = cfg.CreatedAt.UTC()
	return &cfg, nil
}

// isVersionConflict reports whether err is a version-claim race: either the
// primary key rejected a duplicate version or the single writer slot was
// busy.
func isVersionConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint || sqliteErr.Code == sqlite3.ErrBusy
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
