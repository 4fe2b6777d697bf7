package ideas

import "fmt"

// Status enum
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusAnalyzing Status = "ANALYZING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ErrInvalidTransition is returned when a status change would break the
// lifecycle machine.
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid idea status transition: %s -> %s", e.From, e.To)
}

// Terminal reports whether no automatic transition leaves this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known lifecycle statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusAnalyzing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition encodes the lifecycle machine:
// DRAFT -> ANALYZING -> {COMPLETED, FAILED}; FAILED -> ANALYZING via retry;
// COMPLETED -> ANALYZING only through a new explicit generate call.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusAnalyzing
	case StatusAnalyzing:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted:
		return to == StatusAnalyzing
	case StatusFailed:
		return to == StatusAnalyzing
	}
	return false
}

// Transition validates and returns the target status.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, &ErrInvalidTransition{From: from, To: to}
	}
	return to, nil
}
