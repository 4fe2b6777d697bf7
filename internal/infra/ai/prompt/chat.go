package prompt

import "fmt"

// GetChatSystemPrompt grounds the assistant in one finished report.
func GetChatSystemPrompt(reportJSON string) string {
	return fmt.Sprintf(`You are a startup analyst answering follow-up questions about a feasibility report you produced earlier. Answer in plain prose, concisely. If the report does not cover the question, say so instead of inventing figures.

Report JSON:
%s`, reportJSON)
}
