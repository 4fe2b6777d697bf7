package analyses

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("analysis not found")

// Repository port for persisting and querying analyses
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, userID string, id AnalysisID) (*Analysis, error)
	LatestByIdea(ctx context.Context, userID string, ideaID string) (*Analysis, error)
	Paginate(ctx context.Context, userID string, page, pageSize int) ([]*Analysis, error)
}
