package generrors

import "time"

// GenError represents a persisted generation failure entry. The latest entry
// per idea backs the retry affordance shown for FAILED ideas.
type GenError struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	IdeaID      string    `json:"idea_id"`
	Phase       string    `json:"phase,omitempty"` // generate | retry | chat
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
