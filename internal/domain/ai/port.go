package ai

import "context"

// Generator turns an idea into a structured feasibility report and answers
// follow-up questions about a finished report.
type Generator interface {
	// GenerateReport returns the raw report JSON produced by the model.
	// Partial output is allowed; callers decode leniently.
	GenerateReport(ctx context.Context, title, oneLiner, description string) (string, error)

	// Chat answers a question grounded in the report JSON and prior turns.
	Chat(ctx context.Context, reportJSON string, history []Turn, question string) (string, error)
}

// Turn is one prior exchange passed back to the model as context.
type Turn struct {
	Role    string
	Content string
}
