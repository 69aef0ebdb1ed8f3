package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/healthscan-ai/internal/domain/scans"
)

type ScanRepository struct{ db *sql.DB }

func NewScanRepository(db *sql.DB) *ScanRepository { return &ScanRepository{db: db} }

func (r *ScanRepository) Insert(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO health_scan_results
  (file_id, storage_path, status, risks_json, confidence_json,
   ai_summary, recommendations, failure_reason, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`
	risks, confs, err := marshalResultArrays(s.RisksDetected, s.ConfidenceScores)
	if err != nil {
		return err
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err = r.db.ExecContext(ctx, q,
		s.FileID, s.StoragePath, s.Status, risks, confs,
		s.AISummary, s.Recommendations, s.FailureReason, created, updated,
	)
	return err
}

func (r *ScanRepository) Get(ctx context.Context, id domain.FileID) (*domain.Scan, error) {
	const q = `
SELECT file_id, storage_path, status, risks_json, confidence_json,
       ai_summary, recommendations, failure_reason, created_at, updated_at
FROM health_scan_results
WHERE file_id=$1
LIMIT 1;`
	return scanRow(r.db.QueryRowContext(ctx, q, id))
}

func (r *ScanRepository) Latest(ctx context.Context, limit int) ([]*domain.Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT file_id, storage_path, status, risks_json, confidence_json,
       ai_summary, recommendations, failure_reason, created_at, updated_at
FROM health_scan_results
ORDER BY created_at DESC, file_id DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Scan
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScanRepository) Complete(ctx context.Context, id domain.FileID, res domain.Result, at time.Time) error {
	const q = `
UPDATE health_scan_results
SET status = $1,
    risks_json = $2,
    confidence_json = $3,
    ai_summary = $4,
    recommendations = $5,
    failure_reason = '',
    updated_at = $6
WHERE file_id = $7;`
	risks, confs, err := marshalResultArrays(res.RisksDetected, res.ConfidenceScores)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		domain.StatusCompleted, risks, confs,
		res.AISummary, res.Recommendations, at, id,
	)
	return err
}

func (r *ScanRepository) MarkFailed(ctx context.Context, id domain.FileID, reason string, at time.Time) error {
	const q = `
UPDATE health_scan_results
SET status = $1, failure_reason = $2, updated_at = $3
WHERE file_id = $4;`
	_, err := r.db.ExecContext(ctx, q, domain.StatusFailed, reason, at, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*domain.Scan, error) {
	var s domain.Scan
	var risks, confs string
	if err := row.Scan(
		&s.FileID, &s.StoragePath, &s.Status, &risks, &confs,
		&s.AISummary, &s.Recommendations, &s.FailureReason, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalResultArrays(risks, confs, &s); err != nil {
		return nil, fmt.Errorf("decoding result arrays for %s: %w", s.FileID, err)
	}
	return &s, nil
}

func marshalResultArrays(risks []string, confs []float64) (string, string, error) {
	if risks == nil {
		risks = []string{}
	}
	if confs == nil {
		confs = []float64{}
	}
	rb, err := json.Marshal(risks)
	if err != nil {
		return "", "", err
	}
	cb, err := json.Marshal(confs)
	if err != nil {
		return "", "", err
	}
	return string(rb), string(cb), nil
}

func unmarshalResultArrays(risks, confs string, s *domain.Scan) error {
	if risks == "" {
		risks = "[]"
	}
	if confs == "" {
		confs = "[]"
	}
	if err := json.Unmarshal([]byte(risks), &s.RisksDetected); err != nil {
		return err
	}
	return json.Unmarshal([]byte(confs), &s.ConfidenceScores)
}
