package generrors

import (
	"context"
)

// Repository defines persistence for generation errors
type Repository interface {
	Save(ctx context.Context, e *GenError) error
	ListByIdea(ctx context.Context, userID string, ideaID string, limit int) ([]*GenError, error)
}
