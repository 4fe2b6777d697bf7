package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/validideahq/valididea/internal/application"
	domain "github.com/validideahq/valididea/internal/domain/analyses"
)

// Format enum
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Store port (interface untuk penyimpanan dokumen)
type Store interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}

// Service renders an analysis to a downloadable document and uploads it.
// Export is fire-and-forget from the lifecycle's perspective: it never
// touches idea status.
type Service struct {
	Analyses domain.Repository
	Store    Store
	Clock    application.Clock
}

// Result describes one generated document.
type Result struct {
	AnalysisID string `json:"analysis_id"`
	Format     Format `json:"format"`
	URL        string `json:"url"`
}

// Export renders the analysis in the requested format, writes it to a temp
// file, and uploads it keyed by analysis id. The temp file is removed on
// every path.
func (s *Service) Export(ctx context.Context, userID string, analysisID domain.AnalysisID, format Format) (Result, error) {
	var render func(*domain.Analysis) ([]byte, error)
	var ext string
	switch format {
	case FormatJSON:
		render, ext = renderJSON, "json"
	case FormatCSV:
		render, ext = renderCSV, "csv"
	case FormatMarkdown:
		render, ext = renderMarkdown, "md"
	default:
		return Result{}, ErrUnsupportedFormat
	}

	analysis, err := s.Analyses.Get(ctx, userID, analysisID)
	if err != nil {
		return Result{}, err
	}

	data, err := render(analysis)
	if err != nil {
		return Result{}, err
	}

	f, err := os.CreateTemp("", fmt.Sprintf("analysis-*.%s", ext))
	if err != nil {
		return Result{}, err
	}
	local := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(local)
		return Result{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(local)
		return Result{}, err
	}

	key := fmt.Sprintf("%s/%s/%s", userID, analysisID, filepath.Base(local))
	url, err := s.Store.UploadAndCleanup(ctx, local, key)
	if err != nil {
		os.Remove(local)
		return Result{}, err
	}

	return Result{AnalysisID: string(analysisID), Format: format, URL: url}, nil
}

func renderJSON(a *domain.Analysis) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// renderCSV flattens the report into section,field,value rows. Absent
// sub-reports simply contribute no rows.
func renderCSV(a *domain.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	row := func(section, field, value string) {
		if value != "" {
			w.Write([]string{section, field, value})
		}
	}

	w.Write([]string{"section", "field", "value"})
	r := a.Report

	if r.Summary != nil {
		row("summary", "verdict", r.Summary.Verdict)
		row("summary", "overview", r.Summary.Overview)
	}
	if r.Validation != nil {
		row("validation", "score", fmt.Sprintf("%d", r.Validation.Score))
		row("validation", "reasoning", r.Validation.Reasoning)
	}
	if r.MarketSize != nil {
		row("market_size", "tam", r.MarketSize.TAM)
		row("market_size", "sam", r.MarketSize.SAM)
		row("market_size", "som", r.MarketSize.SOM)
		row("market_size", "growth", r.MarketSize.Growth)
	}
	for _, c := range r.Competitors {
		row("competitors", c.Name, c.Strengths)
	}
	for _, p := range r.Roadmap {
		row("roadmap", p.Phase, p.Duration)
	}
	for _, rk := range r.Risks {
		row("risks", rk.Title, rk.Severity)
	}
	if r.UnitEconomics != nil {
		row("unit_economics", "cac", r.UnitEconomics.CAC)
		row("unit_economics", "ltv", r.UnitEconomics.LTV)
		row("unit_economics", "gross_margin", r.UnitEconomics.GrossMargin)
	}
	for _, item := range r.Checklist {
		row("checklist", item.Task, item.Phase)
	}
	for _, rec := range r.Recommendations {
		row("recommendations", rec.Title, rec.Detail)
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderMarkdown(a *domain.Analysis) ([]byte, error) {
	var b strings.Builder
	r := a.Report

	b.WriteString(fmt.Sprintf("# Feasibility Report\n\nAnalysis `%s` for idea `%s`\n\n", a.ID, a.IdeaID))

	if r.Summary != nil {
		b.WriteString("## Summary\n\n")
		if r.Summary.Verdict != "" {
			b.WriteString(fmt.Sprintf("**Verdict:** %s\n\n", r.Summary.Verdict))
		}
		b.WriteString(r.Summary.Overview + "\n\n")
	}
	if r.Validation != nil {
		b.WriteString(fmt.Sprintf("## Validation\n\nScore: **%d/100**\n\n%s\n\n", r.Validation.Score, r.Validation.Reasoning))
	}
	if r.MarketSize != nil {
		b.WriteString("## Market Size\n\n")
		b.WriteString(fmt.Sprintf("- TAM: %s\n- SAM: %s\n- SOM: %s\n\n", r.MarketSize.TAM, r.MarketSize.SAM, r.MarketSize.SOM))
	}
	if len(r.Competitors) > 0 {
		b.WriteString("## Competitors\n\n")
		for _, c := range r.Competitors {
			b.WriteString(fmt.Sprintf("- **%s** — strengths: %s; weaknesses: %s\n", c.Name, c.Strengths, c.Weaknesses))
		}
		b.WriteString("\n")
	}
	if r.SWOT != nil {
		b.WriteString("## SWOT\n\n")
		writeList := func(title string, items []string) {
			if len(items) == 0 {
				return
			}
			b.WriteString("### " + title + "\n\n")
			for _, it := range items {
				b.WriteString("- " + it + "\n")
			}
			b.WriteString("\n")
		}
		writeList("Strengths", r.SWOT.Strengths)
		writeList("Weaknesses", r.SWOT.Weaknesses)
		writeList("Opportunities", r.SWOT.Opportunities)
		writeList("Threats", r.SWOT.Threats)
	}
	if len(r.Roadmap) > 0 {
		b.WriteString("## Roadmap\n\n")
		for _, p := range r.Roadmap {
			b.WriteString(fmt.Sprintf("### %s (%s)\n\n", p.Phase, p.Duration))
			for _, m := range p.Milestones {
				b.WriteString("- " + m + "\n")
			}
			b.WriteString("\n")
		}
	}
	if len(r.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			b.WriteString(fmt.Sprintf("- **%s** %s\n", rec.Title, rec.Detail))
		}
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}
