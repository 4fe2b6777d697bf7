package chat

import "time"

// MessageID identifier type
type MessageID string

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation about an analysis. History is
// append-only; messages are never edited.
type Message struct {
	ID         MessageID `json:"id"`
	AnalysisID string    `json:"analysis_id"`
	UserID     string    `json:"user_id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
