package ideas

import (
	"time"
)

// ID tipe untuk Idea
type IdeaID string

// Attachment is a user-supplied reference (link or uploaded file) kept in
// submission order.
type Attachment struct {
	Kind string `json:"kind"` // link | file
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// Aggregate Root: Idea
type Idea struct {
	ID          IdeaID       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	OneLiner    string       `json:"one_liner"`
	Description string       `json:"description"`
	Status      Status       `json:"status"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
