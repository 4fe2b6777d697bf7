package users

import "time"

// Role enum
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// DailyCredits is the metered quota refilled at the start of each UTC day.
// One credit is consumed per accepted generate call; drafts are free.
const DailyCredits = 3

// User entity. Password is accepted on register only and never stored; only
// the Argon2id hash persists.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	Credits        int       `json:"credits"`
	CreditsResetAt time.Time `json:"credits_reset_at"`
	Verified       bool      `json:"verified"`
	NotifyByEmail  bool      `json:"notify_by_email"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
