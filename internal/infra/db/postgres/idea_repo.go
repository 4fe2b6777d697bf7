package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/validideahq/valididea/internal/domain/ideas"
)

type IdeaRepository struct{ db *sql.DB }

func NewIdeaRepository(db *sql.DB) *IdeaRepository { return &IdeaRepository{db: db} }

// Connect opens a Postgres pool with the same tuning as the MySQL side.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// Save insert/update Idea record
func (r *IdeaRepository) Save(ctx context.Context, i *domain.Idea) error {
	const q = `
INSERT INTO ideas
(id, user_id, title, one_liner, description, status, attachments_json, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
 title = EXCLUDED.title,
 one_liner = EXCLUDED.one_liner,
 description = EXCLUDED.description,
 status = EXCLUDED.status,
 attachments_json = EXCLUDED.attachments_json,
 updated_at = EXCLUDED.updated_at;`

	attachments := "[]"
	if len(i.Attachments) > 0 {
		b, err := json.Marshal(i.Attachments)
		if err != nil {
			return fmt.Errorf("encoding attachments: %w", err)
		}
		attachments = string(b)
	}
	created := i.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := i.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err := r.db.ExecContext(ctx, q,
		i.ID, stringOrDash(i.UserID), i.Title, i.OneLiner, i.Description,
		stringOrDash(string(i.Status)), attachments, created, updated,
	)
	return err
}

// Get by ID + owning user
func (r *IdeaRepository) Get(ctx context.Context, userID string, id domain.IdeaID) (*domain.Idea, error) {
	const q = `
SELECT id, user_id, title, one_liner, description, status, attachments_json, created_at, updated_at
FROM ideas
WHERE user_id=$1 AND id=$2
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, userID, id)

	var i domain.Idea
	var attachments string
	if err := row.Scan(
		&i.ID, &i.UserID, &i.Title, &i.OneLiner, &i.Description, &i.Status,
		&attachments, &i.CreatedAt, &i.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal([]byte(attachments), &i.Attachments)
	return &i, nil
}

// Paginate idea history for a user, newest first
func (r *IdeaRepository) Paginate(ctx context.Context, userID string, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, user_id, title, one_liner, description, status, attachments_json, created_at, updated_at
FROM ideas
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, offset)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying ideas: %w", err)
	}
	defer rows.Close()

	var out []*domain.Idea
	for rows.Next() {
		var i domain.Idea
		var attachments string
		if err := rows.Scan(
			&i.ID, &i.UserID, &i.Title, &i.OneLiner, &i.Description, &i.Status,
			&attachments, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		_ = json.Unmarshal([]byte(attachments), &i.Attachments)
		out = append(out, &i)
	}
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ideas WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       out,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// UpdateStatus hanya update kolom status
func (r *IdeaRepository) UpdateStatus(ctx context.Context, userID string, id domain.IdeaID, status domain.Status) error {
	const q = `
UPDATE ideas
SET status = $1, updated_at = $2
WHERE user_id = $3 AND id = $4;`
	res, err := r.db.ExecContext(ctx, q, status, time.Now(), userID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the idea. Missing rows are treated as already deleted.
func (r *IdeaRepository) Delete(ctx context.Context, userID string, id domain.IdeaID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ideas WHERE user_id = $1 AND id = $2;`, userID, id)
	return err
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
