package analyses

import "time"

// AnalysisID identifier type
type AnalysisID string

// Analysis is one AI-generated feasibility report for an idea. It is immutable
// once stored; re-running generation creates a new Analysis and the most recent
// one per idea is canonical for display.
type Analysis struct {
	ID        AnalysisID `json:"id"`
	IdeaID    string     `json:"idea_id"`
	UserID    string     `json:"user_id"`
	Report    Report     `json:"report"`
	CreatedAt time.Time  `json:"created_at"`
}

// Report holds the structured sub-reports. Every field is independently
// optional because generation may produce partial output; consumers must
// tolerate any of them being nil.
type Report struct {
	Summary           *Summary         `json:"summary,omitempty"`
	Validation        *Validation      `json:"validation,omitempty"`
	MarketSize        *MarketSize      `json:"market_size,omitempty"`
	Competitors       []Competitor     `json:"competitors,omitempty"`
	SWOT              *SWOT            `json:"swot,omitempty"`
	MarketingChannels []Channel        `json:"marketing_channels,omitempty"`
	RevenueStreams    []RevenueStream  `json:"revenue_streams,omitempty"`
	Roadmap           []RoadmapPhase   `json:"roadmap,omitempty"`
	Risks             []Risk           `json:"risks,omitempty"`
	Pricing           *Pricing         `json:"pricing,omitempty"`
	UnitEconomics     *UnitEconomics   `json:"unit_economics,omitempty"`
	MVPFeatures       []Feature        `json:"mvp_features,omitempty"`
	TechStack         []TechChoice     `json:"tech_stack,omitempty"`
	Checklist         []ChecklistItem  `json:"checklist,omitempty"`
	Recommendations   []Recommendation `json:"recommendations,omitempty"`
}

type Summary struct {
	Verdict  string `json:"verdict"`
	Overview string `json:"overview"`
}

// Validation scores overall feasibility on a 0-100 scale.
type Validation struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning,omitempty"`
}

type MarketSize struct {
	TAM      string `json:"tam,omitempty"`
	SAM      string `json:"sam,omitempty"`
	SOM      string `json:"som,omitempty"`
	Growth   string `json:"growth,omitempty"`
	Analysis string `json:"analysis,omitempty"`
}

type Competitor struct {
	Name       string `json:"name"`
	Strengths  string `json:"strengths,omitempty"`
	Weaknesses string `json:"weaknesses,omitempty"`
	Pricing    string `json:"pricing,omitempty"`
}

type SWOT struct {
	Strengths     []string `json:"strengths,omitempty"`
	Weaknesses    []string `json:"weaknesses,omitempty"`
	Opportunities []string `json:"opportunities,omitempty"`
	Threats       []string `json:"threats,omitempty"`
}

type Channel struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy,omitempty"`
	Priority string `json:"priority,omitempty"`
}

type RevenueStream struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type RoadmapPhase struct {
	Phase      string   `json:"phase"`
	Duration   string   `json:"duration,omitempty"`
	Milestones []string `json:"milestones,omitempty"`
}

type Risk struct {
	Title      string `json:"title"`
	Severity   string `json:"severity,omitempty"` // low | medium | high
	Mitigation string `json:"mitigation,omitempty"`
}

type Pricing struct {
	Model string        `json:"model,omitempty"`
	Tiers []PricingTier `json:"tiers,omitempty"`
}

type PricingTier struct {
	Name     string   `json:"name"`
	Price    string   `json:"price,omitempty"`
	Features []string `json:"features,omitempty"`
}

type UnitEconomics struct {
	CAC           string `json:"cac,omitempty"`
	LTV           string `json:"ltv,omitempty"`
	GrossMargin   string `json:"gross_margin,omitempty"`
	BreakEven     string `json:"break_even,omitempty"`
	Assumptions   string `json:"assumptions,omitempty"`
	MonthlyBurn   string `json:"monthly_burn,omitempty"`
	PaybackPeriod string `json:"payback_period,omitempty"`
}

type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"` // must | should | could
}

type TechChoice struct {
	Layer     string `json:"layer"`
	Choice    string `json:"choice"`
	Rationale string `json:"rationale,omitempty"`
}

type ChecklistItem struct {
	Task  string `json:"task"`
	Phase string `json:"phase,omitempty"`
	Done  bool   `json:"done"`
}

type Recommendation struct {
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}
