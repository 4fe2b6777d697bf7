package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	domain "github.com/validideahq/valididea/internal/domain/analyses"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save inserts an analysis record. Analyses are immutable; the upsert only
// covers replayed writes of the same row.
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses
  (id, idea_id, user_id, report_json, created_at)
VALUES (?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  report_json=VALUES(report_json);
`
	report, err := json.Marshal(a.Report)
	if err != nil {
		return err
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.IdeaID), stringOrDash(a.UserID),
		jsonOrEmpty(string(report), "{}"), created,
	)
	return err
}

// Get by ID + owning user
func (r *AnalysisRepository) Get(ctx context.Context, userID string, id domain.AnalysisID) (*domain.Analysis, error) {
	const q = `
SELECT id, idea_id, user_id, report_json, created_at
FROM analyses
WHERE user_id=? AND id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, userID, id)
	a, err := scanAnalysis(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// LatestByIdea returns the canonical (most recent) analysis for an idea
func (r *AnalysisRepository) LatestByIdea(ctx context.Context, userID string, ideaID string) (*domain.Analysis, error) {
	const q = `
SELECT id, idea_id, user_id, report_json, created_at
FROM analyses
WHERE user_id=? AND idea_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, userID, ideaID)
	a, err := scanAnalysis(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
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
WHERE user_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAnalysis(scan func(dest ...any) error) (*domain.Analysis, error) {
	var a domain.Analysis
	var report string
	if err := scan(&a.ID, &a.IdeaID, &a.UserID, &report, &a.CreatedAt); err != nil {
		return nil, err
	}
	// a corrupted report column degrades to an empty report, not an error
	if decoded, err := domain.DecodeReport([]byte(report)); err == nil {
		a.Report = decoded
	}
	return &a, nil
}
