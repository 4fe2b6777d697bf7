package ideas

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an idea does not exist or is not visible to the
// requesting user.
var ErrNotFound = errors.New("idea not found")

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, i *Idea) error
	Get(ctx context.Context, userID string, id IdeaID) (*Idea, error)
	Paginate(ctx context.Context, userID string, page, pageSize int) (PaginatedResult, error)
	UpdateStatus(ctx context.Context, userID string, id IdeaID, status Status) error

	// Delete is idempotent: removing a missing id is not an error.
	Delete(ctx context.Context, userID string, id IdeaID) error
}
