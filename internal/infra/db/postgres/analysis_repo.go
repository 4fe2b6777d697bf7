package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	domain "github.com/validideahq/valididea/internal/domain/analyses"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

// Save inserts an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses
  (id, idea_id, user_id, report_json, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  report_json = EXCLUDED.report_json;`

	report, err := json.Marshal(a.Report)
	if err != nil {
		return err
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.IdeaID), stringOrDash(a.UserID), string(report), created,
	)
	return err
}

// Get by ID + owning user
func (r *AnalysisRepository) Get(ctx context.Context, userID string, id domain.AnalysisID) (*domain.Analysis, error) {
	const q = `
SELECT id, idea_id, user_id, report_json, created_at
FROM analyses
WHERE user_id=$1 AND id=$2
LIMIT 1;`
	return r.one(ctx, q, userID, string(id))
}

// LatestByIdea returns the canonical (most recent) analysis for an idea
func (r *AnalysisRepository) LatestByIdea(ctx context.Context, userID string, ideaID string) (*domain.Analysis, error) {
	const q = `
SELECT id, idea_id, user_id, report_json, created_at
FROM analyses
WHERE user_id=$1 AND idea_id=$2
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	return r.one(ctx, q, userID, ideaID)
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, userID string, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, idea_id, user_id, report_json, created_at
FROM analyses
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		var a domain.Analysis
		var report string
		if err := rows.Scan(&a.ID, &a.IdeaID, &a.UserID, &report, &a.CreatedAt); err != nil {
			return nil, err
		}
		if decoded, derr := domain.DecodeReport([]byte(report)); derr == nil {
			a.Report = decoded
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) one(ctx context.Context, q string, args ...any) (*domain.Analysis, error) {
	row := r.db.QueryRowContext(ctx, q, args...)
	var a domain.Analysis
	var report string
	if err := row.Scan(&a.ID, &a.IdeaID, &a.UserID, &report, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if decoded, err := domain.DecodeReport([]byte(report)); err == nil {
		a.Report = decoded
	}
	return &a, nil
}
