package ideas

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/validideahq/valididea/internal/application"
	domai "github.com/validideahq/valididea/internal/domain/ai"
	domanalyses "github.com/validideahq/valididea/internal/domain/analyses"
	domgen "github.com/validideahq/valididea/internal/domain/generrors"
	domain "github.com/validideahq/valididea/internal/domain/ideas"
	domusers "github.com/validideahq/valididea/internal/domain/users"
)

// Service implements use-cases for the idea lifecycle. It is the single
// writer of idea status; background generation goroutines go through the
// same guarded transition paths as user actions.
type Service struct {
	Ideas     domain.Repository
	Analyses  domanalyses.Repository
	Users     domusers.Repository
	GenErrors domgen.Repository
	Generator domai.Generator
	Clock     application.Clock
	Log       *logrus.Logger

	// running guards against a double-trigger racing the status read: only
	// one in-flight generation per idea id.
	mu      sync.Mutex
	running map[domain.IdeaID]bool

	// wg tracks background generations so tests and shutdown can wait.
	wg sync.WaitGroup
}

// Command untuk create draft
type CreateDraftCommand struct {
	UserID      string
	Title       string
	OneLiner    string
	Description string
	Attachments []domain.Attachment
}

// IdeaView bundles an idea with its canonical (most recent) analysis and the
// last recorded generation error, if any.
type IdeaView struct {
	Idea      *domain.Idea          `json:"idea"`
	Analysis  *domanalyses.Analysis `json:"analysis,omitempty"`
	LastError string                `json:"last_error,omitempty"`
}

var ErrValidation = errors.New("invalid idea payload")

// CreateDraft stores a new idea as DRAFT. Drafts are free: no credit is
// consumed and no generation is started.
func (s *Service) CreateDraft(ctx context.Context, cmd CreateDraftCommand) (*domain.Idea, error) {
	if strings.TrimSpace(cmd.Title) == "" || strings.TrimSpace(cmd.Description) == "" {
		return nil, ErrValidation
	}

	now := s.Clock.Now()
	idea := &domain.Idea{
		ID:          domain.IdeaID(uuid.New().String()),
		UserID:      cmd.UserID,
		Title:       cmd.Title,
		OneLiner:    cmd.OneLiner,
		Description: cmd.Description,
		Status:      domain.StatusDraft,
		Attachments: cmd.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Ideas.Save(ctx, idea); err != nil {
		return nil, err
	}
	return idea, nil
}

// Get returns the idea plus its latest analysis. A missing analysis is normal
// for DRAFT/ANALYZING/FAILED ideas and is not an error.
func (s *Service) Get(ctx context.Context, userID string, id domain.IdeaID) (*IdeaView, error) {
	idea, err := s.Ideas.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	view := &IdeaView{Idea: idea}

	a, err := s.Analyses.LatestByIdea(ctx, userID, string(id))
	if err != nil && !errors.Is(err, domanalyses.ErrNotFound) {
		return nil, err
	}
	view.Analysis = a

	if idea.Status == domain.StatusFailed && s.GenErrors != nil {
		if errs, gerr := s.GenErrors.ListByIdea(ctx, userID, string(id), 1); gerr == nil && len(errs) > 0 {
			view.LastError = errs[0].Message
		}
	}
	return view, nil
}

// List returns paginated idea history for the user.
func (s *Service) List(ctx context.Context, userID string, page, pageSize int) (domain.PaginatedResult, error) {
	return s.Ideas.Paginate(ctx, userID, page, pageSize)
}

// Delete removes an idea. Deleting an id that no longer exists is treated as
// already deleted, never an error.
func (s *Service) Delete(ctx context.Context, userID string, id domain.IdeaID) error {
	err := s.Ideas.Delete(ctx, userID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// RunAnalysis is the generate command: guard the transition, consume one
// credit, flip to ANALYZING, and hand off to a background generation. The
// credit check is authoritative; a quota rejection leaves the idea status
// untouched.
func (s *Service) RunAnalysis(ctx context.Context, userID string, id domain.IdeaID) (*domain.Idea, error) {
	return s.run(ctx, userID, id, "generate", nil)
}

// Retry re-invokes generation on a FAILED idea. A retry while the idea is in
// any other state is rejected so generation can never double-trigger.
func (s *Service) Retry(ctx context.Context, userID string, id domain.IdeaID) (*domain.Idea, error) {
	guard := func(st domain.Status) error {
		if st != domain.StatusFailed {
			return &domain.ErrInvalidTransition{From: st, To: domain.StatusAnalyzing}
		}
		return nil
	}
	return s.run(ctx, userID, id, "retry", guard)
}

func (s *Service) run(ctx context.Context, userID string, id domain.IdeaID, phase string, guard func(domain.Status) error) (*domain.Idea, error) {
	idea, err := s.Ideas.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(idea.Status); err != nil {
			return nil, err
		}
	}
	if _, err := domain.Transition(idea.Status, domain.StatusAnalyzing); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.running == nil {
		s.running = make(map[domain.IdeaID]bool)
	}
	if s.running[id] {
		s.mu.Unlock()
		return nil, &domain.ErrInvalidTransition{From: domain.StatusAnalyzing, To: domain.StatusAnalyzing}
	}
	s.running[id] = true
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.running, id)
		s.mu.Unlock()
	}

	// Authoritative quota check. Per-transition ordering matters: credit
	// first, status second, so a rejection leaves no partial transition.
	if err := s.Users.ConsumeCredit(ctx, userID); err != nil {
		release()
		return nil, err
	}

	if err := s.Ideas.UpdateStatus(ctx, userID, id, domain.StatusAnalyzing); err != nil {
		release()
		return nil, err
	}
	idea.Status = domain.StatusAnalyzing
	idea.UpdatedAt = s.Clock.Now()

	snapshot := *idea
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer release()
		s.generateUntilDone(&snapshot, phase)
	}()

	return idea, nil
}

// Wait blocks until all in-flight generations finish. Used by graceful
// shutdown and by tests.
func (s *Service) Wait() { s.wg.Wait() }

// generateUntilDone runs with context.Background() so the generation survives
// the triggering request, same as a queued job.
func (s *Service) generateUntilDone(idea *domain.Idea, phase string) {
	ctx := context.Background()

	raw, err := s.Generator.GenerateReport(ctx, idea.Title, idea.OneLiner, idea.Description)
	if err != nil {
		s.markFailed(ctx, idea, phase, "model call failed: "+err.Error())
		return
	}

	report, err := domanalyses.DecodeReport([]byte(raw))
	if err != nil {
		s.markFailed(ctx, idea, phase, "model returned non-JSON output")
		return
	}

	analysis := &domanalyses.Analysis{
		ID:        domanalyses.AnalysisID(uuid.New().String()),
		IdeaID:    string(idea.ID),
		UserID:    idea.UserID,
		Report:    report,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Analyses.Save(ctx, analysis); err != nil {
		s.markFailed(ctx, idea, phase, "failed to store analysis: "+err.Error())
		return
	}

	if err := s.Ideas.UpdateStatus(ctx, idea.UserID, idea.ID, domain.StatusCompleted); err != nil {
		s.logf().WithError(err).WithField("idea", idea.ID).Error("could not mark idea completed")
		// the poll must still reach a terminal state
		s.markFailed(ctx, idea, phase, "failed to record completion: "+err.Error())
		return
	}
	s.logf().WithFields(logrus.Fields{
		"idea": idea.ID, "analysis": analysis.ID, "phase": phase,
	}).Info("analysis completed")
}

// markFailed flips the idea to FAILED and records the reason. Failure to
// record is logged, never propagated: FAILED is a renderable end state, not
// an exception.
func (s *Service) markFailed(ctx context.Context, idea *domain.Idea, phase, msg string) {
	if err := s.Ideas.UpdateStatus(ctx, idea.UserID, idea.ID, domain.StatusFailed); err != nil {
		s.logf().WithError(err).WithField("idea", idea.ID).Error("could not mark idea failed")
	}
	if s.GenErrors != nil {
		_ = s.GenErrors.Save(ctx, &domgen.GenError{
			UserID:    idea.UserID,
			IdeaID:    string(idea.ID),
			Phase:     phase,
			Message:   msg,
			CreatedAt: s.Clock.Now(),
		})
	}
	s.logf().WithFields(logrus.Fields{"idea": idea.ID, "phase": phase}).Warn(msg)
}

func (s *Service) logf() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}
