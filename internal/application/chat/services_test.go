package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/validideahq/valididea/internal/application"
	domai "github.com/validideahq/valididea/internal/domain/ai"
	domanalyses "github.com/validideahq/valididea/internal/domain/analyses"
	domain "github.com/validideahq/valididea/internal/domain/chat"
)

type memMessages struct {
	mu    sync.Mutex
	items []*domain.Message
}

func (m *memMessages) Save(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.items = append(m.items, &cp)
	return nil
}

func (m *memMessages) ListByAnalysis(_ context.Context, userID, analysisID string, limit int) ([]*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Message
	for _, msg := range m.items {
		if msg.UserID == userID && msg.AnalysisID == analysisID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type oneAnalysis struct{ a *domanalyses.Analysis }

func (r oneAnalysis) Save(context.Context, *domanalyses.Analysis) error { return nil }

func (r oneAnalysis) Get(_ context.Context, userID string, id domanalyses.AnalysisID) (*domanalyses.Analysis, error) {
	if r.a != nil && r.a.ID == id && r.a.UserID == userID {
		return r.a, nil
	}
	return nil, domanalyses.ErrNotFound
}

func (r oneAnalysis) LatestByIdea(context.Context, string, string) (*domanalyses.Analysis, error) {
	return nil, domanalyses.ErrNotFound
}

func (r oneAnalysis) Paginate(context.Context, string, int, int) ([]*domanalyses.Analysis, error) {
	return nil, nil
}

type scriptedChat struct {
	answer string
	err    error

	gotReport  string
	gotHistory []domai.Turn
}

func (g *scriptedChat) GenerateReport(context.Context, string, string, string) (string, error) {
	return "", errors.New("not used")
}

func (g *scriptedChat) Chat(_ context.Context, reportJSON string, history []domai.Turn, question string) (string, error) {
	g.gotReport = reportJSON
	g.gotHistory = history
	return g.answer, g.err
}

func newTestService(gen *scriptedChat) (*Service, *memMessages) {
	msgs := &memMessages{}
	analysis := &domanalyses.Analysis{
		ID:     "an-1",
		IdeaID: "idea-1",
		UserID: "u1",
		Report: domanalyses.Report{
			Summary: &domanalyses.Summary{Verdict: "promising"},
		},
	}
	return &Service{
		Messages:  msgs,
		Analyses:  oneAnalysis{a: analysis},
		Generator: gen,
		Clock:     application.SystemClock{},
	}, msgs
}

func TestSendPersistsBothTurns(t *testing.T) {
	gen := &scriptedChat{answer: "The verdict is promising."}
	svc, msgs := newTestService(gen)

	reply, err := svc.Send(context.Background(), "u1", "an-1", "What was the verdict?")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, reply.Role)
	assert.Equal(t, "The verdict is promising.", reply.Content)

	history, err := svc.History(context.Background(), "u1", "an-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "What was the verdict?", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)

	// the model is grounded in the stored report
	assert.Contains(t, gen.gotReport, `"verdict":"promising"`)
	assert.Len(t, msgs.items, 2)
}

func TestSendEmptyQuestion(t *testing.T) {
	svc, msgs := newTestService(&scriptedChat{})

	_, err := svc.Send(context.Background(), "u1", "an-1", "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, msgs.items)
}

func TestSendUnknownAnalysis(t *testing.T) {
	svc, _ := newTestService(&scriptedChat{})
	_, err := svc.Send(context.Background(), "u1", "missing", "hello?")
	assert.ErrorIs(t, err, domanalyses.ErrNotFound)
}

func TestSendModelFailureStoresNothing(t *testing.T) {
	gen := &scriptedChat{err: errors.New("rate limited")}
	svc, msgs := newTestService(gen)

	_, err := svc.Send(context.Background(), "u1", "an-1", "Will it work?")
	require.Error(t, err)
	assert.Empty(t, msgs.items, "failed exchanges are not persisted")
}

func TestSendReplaysPriorTurns(t *testing.T) {
	gen := &scriptedChat{answer: "ok"}
	svc, _ := newTestService(gen)

	_, err := svc.Send(context.Background(), "u1", "an-1", "first question")
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), "u1", "an-1", "second question")
	require.NoError(t, err)

	require.Len(t, gen.gotHistory, 2)
	assert.Equal(t, "first question", gen.gotHistory[0].Content)
	assert.Equal(t, string(domain.RoleAssistant), gen.gotHistory[1].Role)
}
