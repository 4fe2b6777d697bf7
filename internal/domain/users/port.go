package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrQuotaExceeded = errors.New("daily credit quota exceeded")
)

// Repository port (interface untuk persistence)
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error

	// ConsumeCredit atomically decrements one credit, refilling the daily
	// quota first when the reset stamp is from a previous day. Returns
	// ErrQuotaExceeded when no credit is available.
	ConsumeCredit(ctx context.Context, id string) error
}
