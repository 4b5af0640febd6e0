package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// WriteAudit appends one recommendation audit record. Records are immutable
// once written.
func (db *DB) WriteAudit(ctx context.Context, rec model.AuditRecord) error {
	request, err := json.Marshal(rec.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	candidates, err := json.Marshal(rec.Candidates)
	if err != nil {
		return fmt.Errorf("encode candidates: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO audit_recommendations (
			id, job_id, request, candidates, config_used,
			empty_reason, actor, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.JobID, string(request), string(candidates), rec.ConfigUsed,
		rec.EmptyReason, rec.Actor, rec.CreatedAt.UTC(),
	)
	return err
}

// GetAudit returns one audit record by id, or ErrNotFound.
func (db *DB) GetAudit(ctx context.Context, id string) (*model.AuditRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, job_id, request, candidates, config_used,
		       empty_reason, actor, created_at
		FROM audit_recommendations WHERE id = ?
	`, id)
	rec, err := scanAudit(row)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// AuditForJob returns every audit record for a job, newest first.
func (db *DB) AuditForJob(ctx context.Context, jobID string) ([]model.AuditRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, job_id, request, candidates, config_used,
		       empty_reason, actor, created_at
		FROM audit_recommendations WHERE job_id = ? ORDER BY created_at DESC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AuditRecord
	for rows.Next() {
		rec, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanAudit(row rowScanner) (*model.AuditRecord, error) {
	var (
		rec        model.AuditRecord
		request    string
		candidates string
	)
	err := row.Scan(
		&rec.ID, &rec.JobID, &request, &candidates, &rec.ConfigUsed,
		&rec.EmptyReason, &rec.Actor, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(request), &rec.Request); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if err := json.Unmarshal([]byte(candidates), &rec.Candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}
