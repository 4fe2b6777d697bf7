package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/validideahq/valididea/internal/domain/generrors"
)

type GenErrorRepository struct {
	db *sql.DB
}

func NewGenErrorRepository(db *sql.DB) *GenErrorRepository { return &GenErrorRepository{db: db} }

func (r *GenErrorRepository) Save(ctx context.Context, e *domain.GenError) error {
	const q = `
INSERT INTO generation_errors
  (user_id, idea_id, phase, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	details := e.DetailsJSON
	if strings.TrimSpace(details) == "" {
		details = "{}"
	} else {
		// ensure valid json; if invalid, wrap as string field
		var js any
		if json.Unmarshal([]byte(details), &js) != nil {
			b, _ := json.Marshal(map[string]string{"raw": details})
			details = string(b)
		}
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(e.UserID), stringOrDash(e.IdeaID), stringOrDash(e.Phase),
		msg, details, created,
	)
	return err
}

func (r *GenErrorRepository) ListByIdea(ctx context.Context, userID string, ideaID string, limit int) ([]*domain.GenError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, user_id, idea_id, phase, message, details_json, created_at
FROM generation_errors
WHERE user_id = $1 AND idea_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $3;`
	rows, err := r.db.QueryContext(ctx, q, userID, ideaID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.GenError
	for rows.Next() {
		var e domain.GenError
		if err := rows.Scan(&e.ID, &e.UserID, &e.IdeaID, &e.Phase, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
