package chat

import "context"

// Repository port for chat history
type Repository interface {
	Save(ctx context.Context, m *Message) error
	ListByAnalysis(ctx context.Context, userID string, analysisID string, limit int) ([]*Message, error)
}
