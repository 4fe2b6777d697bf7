package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	domain "github.com/validideahq/valididea/internal/domain/ideas"
)

type IdeaRepository struct {
	db *sql.DB
}

func NewIdeaRepository(db *sql.DB) *IdeaRepository {
	return &IdeaRepository{db: db}
}

// Save insert/update Idea record
func (r *IdeaRepository) Save(ctx context.Context, i *domain.Idea) error {
	const q = `
INSERT INTO ideas
(id, user_id, title, one_liner, description, status, attachments_json, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 title=VALUES(title), one_liner=VALUES(one_liner), description=VALUES(description),
 status=VALUES(status), attachments_json=VALUES(attachments_json), updated_at=VALUES(updated_at);
`
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
WHERE user_id=? AND id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, userID, id)
	i, err := scanIdea(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return i, err
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
WHERE user_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, offset)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying ideas: %w", err)
	}
	defer rows.Close()

	var out []*domain.Idea
	for rows.Next() {
		i, err := scanIdea(rows.Scan)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ideas WHERE user_id=?`, userID).Scan(&total); err != nil {
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
SET status = ?, updated_at = ?
WHERE user_id = ? AND id = ?;`
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
	const q = `DELETE FROM ideas WHERE user_id = ? AND id = ?;`
	_, err := r.db.ExecContext(ctx, q, userID, id)
	return err
}

func scanIdea(scan func(dest ...any) error) (*domain.Idea, error) {
	var i domain.Idea
	var attachments string
	if err := scan(
		&i.ID, &i.UserID, &i.Title, &i.OneLiner, &i.Description, &i.Status,
		&attachments, &i.CreatedAt, &i.UpdatedAt,
	); err != nil {
		return nil, err
	}
	// attachment decode failures degrade to no attachments
	_ = json.Unmarshal([]byte(attachments), &i.Attachments)
	return &i, nil
}
