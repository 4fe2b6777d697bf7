package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/validideahq/valididea/internal/application"
	domai "github.com/validideahq/valididea/internal/domain/ai"
	domanalyses "github.com/validideahq/valididea/internal/domain/analyses"
	domain "github.com/validideahq/valididea/internal/domain/chat"
)

var ErrEmptyQuestion = errors.New("question is required")

// historyWindow caps how many prior turns are replayed to the model.
const historyWindow = 20

// Service answers questions about a finished analysis. Chat is a one-shot
// user action: errors surface at the point of invocation and nothing is
// persisted on failure.
type Service struct {
	Messages  domain.Repository
	Analyses  domanalyses.Repository
	Generator domai.Generator
	Clock     application.Clock
}

// Send asks the model a question grounded in the analysis report and stores
// both sides of the exchange.
func (s *Service) Send(ctx context.Context, userID string, analysisID domanalyses.AnalysisID, question string) (*domain.Message, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	analysis, err := s.Analyses.Get(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}

	history, err := s.Messages.ListByAnalysis(ctx, userID, string(analysisID), historyWindow)
	if err != nil {
		return nil, err
	}

	turns := make([]domai.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, domai.Turn{Role: string(m.Role), Content: m.Content})
	}

	reportJSON, err := json.Marshal(analysis.Report)
	if err != nil {
		return nil, err
	}

	answer, err := s.Generator.Chat(ctx, string(reportJSON), turns, question)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	userMsg := &domain.Message{
		ID:         domain.MessageID(uuid.New().String()),
		AnalysisID: string(analysisID),
		UserID:     userID,
		Role:       domain.RoleUser,
		Content:    question,
		CreatedAt:  now,
	}
	if err := s.Messages.Save(ctx, userMsg); err != nil {
		return nil, err
	}

	reply := &domain.Message{
		ID:         domain.MessageID(uuid.New().String()),
		AnalysisID: string(analysisID),
		UserID:     userID,
		Role:       domain.RoleAssistant,
		Content:    answer,
		CreatedAt:  now,
	}
	if err := s.Messages.Save(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// History returns prior turns, oldest first.
func (s *Service) History(ctx context.Context, userID string, analysisID domanalyses.AnalysisID, limit int) ([]*domain.Message, error) {
	return s.Messages.ListByAnalysis(ctx, userID, string(analysisID), limit)
}
