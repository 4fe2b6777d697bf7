package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/validideahq/valididea/internal/domain/users"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, role, credits, credits_reset_at, verified, notify_by_email, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	const q = `
INSERT INTO users
  (id, email, name, password_hash, role, credits, credits_reset_at, verified, notify_by_email, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);
`
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.Email, u.Name, u.PasswordHash, stringOrDash(string(u.Role)),
		u.Credits, u.CreditsResetAt, u.Verified, u.NotifyByEmail, created, created,
	)
	return err
}

func (r *UserRepository) Save(ctx context.Context, u *domain.User) error {
	const q = `
UPDATE users
SET email=$1, name=$2, password_hash=$3, role=$4, credits=$5, credits_reset_at=$6,
    verified=$7, notify_by_email=$8, updated_at=$9
WHERE id=$10;`
	_, err := r.db.ExecContext(ctx, q,
		u.Email, u.Name, u.PasswordHash, u.Role, u.Credits, u.CreditsResetAt,
		u.Verified, u.NotifyByEmail, time.Now(), u.ID,
	)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1 LIMIT 1;`, id)
	return scanUser(row.Scan)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1 LIMIT 1;`, email)
	return scanUser(row.Scan)
}

// ConsumeCredit decrements one credit inside a transaction, refilling the
// daily quota first when the reset stamp is from a previous UTC day. Same
// row-lock discipline as the MySQL side.
func (r *UserRepository) ConsumeCredit(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var credits int
	var resetAt time.Time
	row := tx.QueryRowContext(ctx,
		`SELECT credits, credits_reset_at FROM users WHERE id=$1 FOR UPDATE;`, id)
	if err := row.Scan(&credits, &resetAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	now := time.Now().UTC()
	if resetAt.UTC().Truncate(24*time.Hour).Before(now.Truncate(24 * time.Hour)) {
		credits = domain.DailyCredits
		resetAt = now
	}
	if credits <= 0 {
		return domain.ErrQuotaExceeded
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET credits=$1, credits_reset_at=$2, updated_at=$3 WHERE id=$4;`,
		credits-1, resetAt, now, id,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func scanUser(scan func(dest ...any) error) (*domain.User, error) {
	var u domain.User
	if err := scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Credits,
		&u.CreditsResetAt, &u.Verified, &u.NotifyByEmail, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
