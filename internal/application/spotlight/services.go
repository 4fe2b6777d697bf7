package spotlight

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/validideahq/valididea/internal/application"
	appideas "github.com/validideahq/valididea/internal/application/ideas"
	domain "github.com/validideahq/valididea/internal/domain/ideas"
	"github.com/validideahq/valididea/internal/poller"
)

// seeds rotated by day of year for the showcase idea.
var seeds = []appideas.CreateDraftCommand{
	{Title: "Forklift fleet telemetry", OneLiner: "Predictive maintenance for warehouse forklifts", Description: "Retrofit IoT sensors on forklift fleets and sell downtime-prevention alerts to 3PL operators on a per-vehicle subscription."},
	{Title: "Menu margin optimizer", OneLiner: "Dynamic menu pricing for independent restaurants", Description: "Ingest POS sales and ingredient cost feeds to recommend weekly menu price adjustments that protect gross margin."},
	{Title: "Locum credential wallet", OneLiner: "Portable credential verification for locum clinicians", Description: "A verified, shareable credential wallet that cuts hospital onboarding for temporary clinical staff from weeks to days."},
	{Title: "Job-site concrete sensing", OneLiner: "Cure-strength monitoring for concrete pours", Description: "Wireless maturity sensors plus a scheduling dashboard so contractors strip formwork as early as safely possible."},
	{Title: "Returns resale rail", OneLiner: "Instant resale channel for apparel returns", Description: "Route returned apparel directly into a managed resale marketplace instead of liquidation pallets, splitting recovered value with the brand."},
}

var ErrGenerationFailed = errors.New("spotlight generation failed")

// Service produces the "idea of the day": one showcase idea analyzed under a
// system account, polled to completion at the slower spotlight cadence and
// cached for the calendar day.
type Service struct {
	Ideas        *appideas.Service
	Clock        application.Clock
	SystemUserID string

	// PollInterval overrides the 5s spotlight cadence in tests.
	PollInterval time.Duration

	mu      sync.Mutex
	current *appideas.IdeaView
	day     string // YYYY-MM-DD of the cached entry
}

// Today returns the cached spotlight for the current day, generating it on
// first call. Concurrent callers share one generation.
func (s *Service) Today(ctx context.Context) (*appideas.IdeaView, error) {
	today := s.Clock.Now().UTC().Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.day == today {
		return s.current, nil
	}

	view, err := s.generate(ctx)
	if err != nil {
		return nil, err
	}
	s.current, s.day = view, today
	return view, nil
}

func (s *Service) generate(ctx context.Context) (*appideas.IdeaView, error) {
	seed := seeds[s.Clock.Now().UTC().YearDay()%len(seeds)]
	seed.UserID = s.SystemUserID

	idea, err := s.Ideas.CreateDraft(ctx, seed)
	if err != nil {
		return nil, err
	}
	if _, err := s.Ideas.RunAnalysis(ctx, s.SystemUserID, idea.ID); err != nil {
		return nil, err
	}

	interval := s.PollInterval
	if interval <= 0 {
		interval = poller.SpotlightInterval
	}

	p := &poller.Poller[*appideas.IdeaView]{
		Interval: interval,
		Fetch: func(ctx context.Context) (*appideas.IdeaView, error) {
			return s.Ideas.Get(ctx, s.SystemUserID, idea.ID)
		},
		KeepPolling: func(v *appideas.IdeaView) bool {
			return !v.Idea.Status.Terminal()
		},
		Terminal: func(err error) bool {
			return errors.Is(err, domain.ErrNotFound)
		},
	}

	view, err := poller.WatchUntil(ctx, p)
	if err != nil {
		return nil, err
	}
	if view.Idea.Status != domain.StatusCompleted {
		return nil, ErrGenerationFailed
	}
	return view, nil
}
