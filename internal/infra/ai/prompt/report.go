package prompt

import (
	"fmt"
	"strings"
)

// GetReportSystemPrompt provides strict directions and schema for JSON output.
func GetReportSystemPrompt() string {
	return `You are a senior startup analyst producing a feasibility report. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Every top-level key is optional: omit a section entirely rather than inventing data you cannot support.
- validation.score is an integer 0-100.
- Keep list items concise; prefer 3-6 entries per list.
- severity values are lowercase: low, medium, high.
- priority values are lowercase: must, should, could.

Schema (example with empty values):
{
  "summary": {"verdict": "<string>", "overview": "<string>"},
  "validation": {"score": 0, "reasoning": "<string>"},
  "market_size": {"tam": "<string>", "sam": "<string>", "som": "<string>", "growth": "<string>", "analysis": "<string>"},
  "competitors": [{"name": "<string>", "strengths": "<string>", "weaknesses": "<string>", "pricing": "<string>"}],
  "swot": {"strengths": [], "weaknesses": [], "opportunities": [], "threats": []},
  "marketing_channels": [{"name": "<string>", "strategy": "<string>", "priority": "<string>"}],
  "revenue_streams": [{"name": "<string>", "description": "<string>"}],
  "roadmap": [{"phase": "<string>", "duration": "<string>", "milestones": []}],
  "risks": [{"title": "<string>", "severity": "<low|medium|high>", "mitigation": "<string>"}],
  "pricing": {"model": "<string>", "tiers": [{"name": "<string>", "price": "<string>", "features": []}]},
  "unit_economics": {"cac": "<string>", "ltv": "<string>", "gross_margin": "<string>", "break_even": "<string>", "assumptions": "<string>"},
  "mvp_features": [{"name": "<string>", "description": "<string>", "priority": "<string>"}],
  "tech_stack": [{"layer": "<string>", "choice": "<string>", "rationale": "<string>"}],
  "checklist": [{"task": "<string>", "phase": "<string>", "done": false}],
  "recommendations": [{"title": "<string>", "detail": "<string>"}]
}`
}

// GetReportUserPrompt builds a compact user message from the idea fields.
func GetReportUserPrompt(title, oneLiner, description string) string {
	var b strings.Builder
	b.WriteString("Analyze this startup idea and respond with the JSON per schema.\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", title))
	if strings.TrimSpace(oneLiner) != "" {
		b.WriteString(fmt.Sprintf("Pitch: %s\n", oneLiner))
	}
	b.WriteString(fmt.Sprintf("Description: %s\n", description))
	return b.String()
}
