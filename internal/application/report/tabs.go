// Package report maps a result tab key to a renderable view descriptor over
// an analysis. The mapping is pure: switching tabs never touches a repository
// and a missing or malformed sub-report only omits its own section.
package report

import (
	"errors"

	"github.com/validideahq/valididea/internal/domain/analyses"
	"github.com/validideahq/valididea/internal/domain/ideas"
)

// TabKey is the closed set of result tabs.
type TabKey string

const (
	TabOverview        TabKey = "overview"
	TabMarket          TabKey = "market"
	TabStrategy        TabKey = "strategy"
	TabExecution       TabKey = "execution"
	TabDevelopment     TabKey = "development"
	TabChat            TabKey = "chat"
	TabChecklist       TabKey = "checklist"
	TabRecommendations TabKey = "recommendations"
)

var ErrUnknownTab = errors.New("unknown result tab")

// Tabs lists every valid tab key in display order.
func Tabs() []TabKey {
	return []TabKey{
		TabOverview, TabMarket, TabStrategy, TabExecution,
		TabDevelopment, TabChat, TabChecklist, TabRecommendations,
	}
}

// Valid reports whether k names a known tab.
func (k TabKey) Valid() bool {
	switch k {
	case TabOverview, TabMarket, TabStrategy, TabExecution,
		TabDevelopment, TabChat, TabChecklist, TabRecommendations:
		return true
	}
	return false
}

// Section is one renderable block inside a tab.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Data  any    `json:"data"`
}

// View is the descriptor handed to the renderer. Sections contains only the
// blocks for which data is present; LazyData names tab-local resources the
// client fetches on first selection (chat history, checklist state).
type View struct {
	Tab      TabKey    `json:"tab"`
	IdeaID   string    `json:"idea_id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
	LazyData []string  `json:"lazy_data,omitempty"`
}

// Resolve builds the view for one tab. Every section carries its own
// presence check so any slice of the report may be absent without error.
func Resolve(tab TabKey, idea *ideas.Idea, analysis *analyses.Analysis) (*View, error) {
	if !tab.Valid() {
		return nil, ErrUnknownTab
	}

	v := &View{Tab: tab}
	if idea != nil {
		v.IdeaID = string(idea.ID)
		v.Title = idea.Title
	}

	var r analyses.Report
	if analysis != nil {
		r = analysis.Report
	}

	add := func(key, title string, data any, present bool) {
		if present {
			v.Sections = append(v.Sections, Section{Key: key, Title: title, Data: data})
		}
	}

	switch tab {
	case TabOverview:
		add("summary", "Summary", r.Summary, r.Summary != nil)
		add("validation", "Validation Score", r.Validation, r.Validation != nil)
	case TabMarket:
		add("market_size", "Market Size", r.MarketSize, r.MarketSize != nil)
		add("competitors", "Competitors", r.Competitors, len(r.Competitors) > 0)
	case TabStrategy:
		add("swot", "SWOT", r.SWOT, r.SWOT != nil)
		add("marketing_channels", "Marketing Channels", r.MarketingChannels, len(r.MarketingChannels) > 0)
		add("revenue_streams", "Revenue Streams", r.RevenueStreams, len(r.RevenueStreams) > 0)
	case TabExecution:
		add("roadmap", "Roadmap", r.Roadmap, len(r.Roadmap) > 0)
		add("risks", "Risk Assessment", r.Risks, len(r.Risks) > 0)
		add("pricing", "Pricing", r.Pricing, r.Pricing != nil)
		add("unit_economics", "Unit Economics", r.UnitEconomics, r.UnitEconomics != nil)
	case TabDevelopment:
		add("mvp_features", "MVP Features", r.MVPFeatures, len(r.MVPFeatures) > 0)
		add("tech_stack", "Tech Stack", r.TechStack, len(r.TechStack) > 0)
	case TabChat:
		// history is loaded lazily on first selection
		v.LazyData = append(v.LazyData, "chat_history")
	case TabChecklist:
		add("checklist", "Launch Checklist", r.Checklist, len(r.Checklist) > 0)
		v.LazyData = append(v.LazyData, "checklist_state")
	case TabRecommendations:
		add("recommendations", "Recommendations", r.Recommendations, len(r.Recommendations) > 0)
	}

	return v, nil
}
