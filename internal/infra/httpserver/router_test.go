package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/validideahq/valididea/internal/application"
	appauth "github.com/validideahq/valididea/internal/application/auth"
	appchat "github.com/validideahq/valididea/internal/application/chat"
	appexport "github.com/validideahq/valididea/internal/application/export"
	appideas "github.com/validideahq/valididea/internal/application/ideas"
	appspotlight "github.com/validideahq/valididea/internal/application/spotlight"
	domai "github.com/validideahq/valididea/internal/domain/ai"
	domanalyses "github.com/validideahq/valididea/internal/domain/analyses"
	domchat "github.com/validideahq/valididea/internal/domain/chat"
	domgen "github.com/validideahq/valididea/internal/domain/generrors"
	domain "github.com/validideahq/valididea/internal/domain/ideas"
	domusers "github.com/validideahq/valididea/internal/domain/users"
)

// --- in-memory fakes ---

type memIdeas struct {
	mu    sync.Mutex
	items map[domain.IdeaID]*domain.Idea
}

func (m *memIdeas) Save(_ context.Context, i *domain.Idea) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[domain.IdeaID]*domain.Idea{}
	}
	cp := *i
	m.items[i.ID] = &cp
	return nil
}

func (m *memIdeas) Get(_ context.Context, userID string, id domain.IdeaID) (*domain.Idea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[id]
	if !ok || i.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (m *memIdeas) Paginate(_ context.Context, userID string, page, pageSize int) (domain.PaginatedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Idea
	for _, i := range m.items {
		if i.UserID == userID {
			cp := *i
			out = append(out, &cp)
		}
	}
	return domain.PaginatedResult{Data: out, Page: page, PageSize: pageSize, Total: int64(len(out)), TotalPages: 1}, nil
}

func (m *memIdeas) UpdateStatus(_ context.Context, userID string, id domain.IdeaID, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[id]
	if !ok || i.UserID != userID {
		return domain.ErrNotFound
	}
	i.Status = status
	return nil
}

func (m *memIdeas) Delete(_ context.Context, userID string, id domain.IdeaID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[id]
	if !ok || i.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memAnalyses struct {
	mu    sync.Mutex
	items []*domanalyses.Analysis
}

func (m *memAnalyses) Save(_ context.Context, a *domanalyses.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.items = append(m.items, &cp)
	return nil
}

func (m *memAnalyses) Get(_ context.Context, userID string, id domanalyses.AnalysisID) (*domanalyses.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.ID == id && a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domanalyses.ErrNotFound
}

func (m *memAnalyses) LatestByIdea(_ context.Context, userID, ideaID string) (*domanalyses.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].IdeaID == ideaID && m.items[i].UserID == userID {
			cp := *m.items[i]
			return &cp, nil
		}
	}
	return nil, domanalyses.ErrNotFound
}

func (m *memAnalyses) Paginate(_ context.Context, userID string, page, pageSize int) ([]*domanalyses.Analysis, error) {
	return nil, nil
}

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*domusers.User
	byEml map[string]*domusers.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domusers.User{}, byEml: map[string]*domusers.User{}}
}

func (m *memUsers) Create(_ context.Context, u *domusers.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEml[u.Email]; ok {
		return domusers.ErrEmailTaken
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byEml[u.Email] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domusers.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domusers.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domusers.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEml[email]
	if !ok {
		return nil, domusers.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Save(_ context.Context, u *domusers.User) error { return nil }

func (m *memUsers) ConsumeCredit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domusers.ErrNotFound
	}
	if u.Credits <= 0 {
		return domusers.ErrQuotaExceeded
	}
	u.Credits--
	return nil
}

func (m *memUsers) setCredits(id string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].Credits = n
}

type memMessages struct {
	mu    sync.Mutex
	items []*domchat.Message
}

func (m *memMessages) Save(_ context.Context, msg *domchat.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.items = append(m.items, &cp)
	return nil
}

func (m *memMessages) ListByAnalysis(_ context.Context, userID, analysisID string, limit int) ([]*domchat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domchat.Message
	for _, msg := range m.items {
		if msg.UserID == userID && msg.AnalysisID == analysisID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memGenErrors struct {
	mu    sync.Mutex
	items []*domgen.GenError
}

func (m *memGenErrors) Save(_ context.Context, e *domgen.GenError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.items = append(m.items, &cp)
	return nil
}

func (m *memGenErrors) ListByIdea(_ context.Context, userID, ideaID string, limit int) ([]*domgen.GenError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domgen.GenError
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		if m.items[i].UserID == userID && m.items[i].IdeaID == ideaID {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

type stubGenerator struct{}

func (stubGenerator) GenerateReport(context.Context, string, string, string) (string, error) {
	return `{"summary":{"verdict":"promising","overview":"viable"},"validation":{"score":68},"competitors":[{"name":"Incumbent Inc"}]}`, nil
}

func (stubGenerator) Chat(_ context.Context, _ string, _ []domai.Turn, question string) (string, error) {
	return "answer to: " + question, nil
}

type nullStore struct{}

func (nullStore) Upload(_ context.Context, _, key string) (string, error) {
	return "https://exports.test/" + key, nil
}

func (nullStore) UploadAndCleanup(_ context.Context, localPath, key string) (string, error) {
	os.Remove(localPath)
	return "https://exports.test/" + key, nil
}

// --- harness ---

type env struct {
	handler  http.Handler
	ideasSvc *appideas.Service
	users    *memUsers
	token    string
	userID   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithOptions(t, Options{AccessSecret: []byte("access-secret")})
}

func newEnvWithOptions(t *testing.T, opts Options) *env {
	t.Helper()

	ideas := &memIdeas{}
	analyses := &memAnalyses{}
	users := newMemUsers()
	messages := &memMessages{}
	genErrs := &memGenErrors{}
	clock := application.SystemClock{}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	access := opts.AccessSecret
	refresh := []byte("refresh-secret")

	authSvc := &appauth.Service{Users: users, Clock: clock, AccessSecret: access, RefreshSecret: refresh}
	ideasSvc := &appideas.Service{
		Ideas: ideas, Analyses: analyses, Users: users,
		GenErrors: genErrs, Generator: stubGenerator{}, Clock: clock, Log: log,
	}
	chatSvc := &appchat.Service{Messages: messages, Analyses: analyses, Generator: stubGenerator{}, Clock: clock}
	exportSvc := &appexport.Service{Analyses: analyses, Store: nullStore{}, Clock: clock}

	systemUser := &domusers.User{ID: "system", Email: "system@internal", Credits: 100}
	require.NoError(t, users.Create(context.Background(), systemUser))
	spotlightSvc := &appspotlight.Service{
		Ideas: ideasSvc, Clock: clock,
		SystemUserID: systemUser.ID,
		PollInterval: 5 * time.Millisecond,
	}

	handler := NewRouter(authSvc, ideasSvc, chatSvc, exportSvc, spotlightSvc, opts)

	e := &env{handler: handler, ideasSvc: ideasSvc, users: users}

	// register a user through the API so the token is real
	rec := e.do(t, http.MethodPost, "/v1/auth/register", map[string]any{
		"email": "ana@example.com", "name": "Ana", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	e.token = reg.Tokens.AccessToken
	e.userID = reg.User.ID
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *env) createIdea(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/ideas", map[string]any{
		"title":       "Plant subscription box",
		"one_liner":   "Monthly rare houseplants",
		"description": "Curated subscription for rare and low-maintenance houseplants.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var idea struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &idea))
	return idea.ID
}

// --- tests ---

func TestUnauthenticatedRequestRejected(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/ideas", nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthIsPublic(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/v1/auth/login", map[string]any{
		"email": "ana@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/v1/auth/register", map[string]any{
		"email": "ana@example.com", "password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIdeaLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	id := e.createIdea(t)

	rec := e.do(t, http.MethodPost, "/v1/ideas/"+id+"/generate", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"ANALYZING"`)

	e.ideasSvc.Wait()

	rec = e.do(t, http.MethodGet, "/v1/ideas/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Idea struct {
			Status string `json:"status"`
		} `json:"idea"`
		Analysis *json.RawMessage `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "COMPLETED", view.Idea.Status)
	assert.NotNil(t, view.Analysis)
}

func TestGenerateQuotaExceeded(t *testing.T) {
	e := newEnv(t)
	id := e.createIdea(t)
	e.users.setCredits(e.userID, 0)

	rec := e.do(t, http.MethodPost, "/v1/ideas/"+id+"/generate", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// status unchanged: still a draft
	rec = e.do(t, http.MethodGet, "/v1/ideas/"+id, nil)
	assert.Contains(t, rec.Body.String(), `"DRAFT"`)
}

func TestRetryNonFailedConflict(t *testing.T) {
	e := newEnv(t)
	id := e.createIdea(t)

	rec := e.do(t, http.MethodPost, "/v1/ideas/"+id+"/retry", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetUnknownIdeaNotFound(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/v1/ideas/norwegian-blue", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteIdeaIdempotent(t *testing.T) {
	e := newEnv(t)
	id := e.createIdea(t)

	rec := e.do(t, http.MethodDelete, "/v1/ideas/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodDelete, "/v1/ideas/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, "second delete is still a success")
}

func TestCreateIdeaValidation(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/v1/ideas", map[string]any{
		"title": "", "description": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/ideas", map[string]any{
		"title":       "ok",
		"description": "ok description",
		"attachments": []map[string]string{{"url": "ftp://nope"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportTabs(t *testing.T) {
	e := newEnv(t)
	id := e.createIdea(t)

	rec := e.do(t, http.MethodPost, "/v1/ideas/"+id+"/generate", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	e.ideasSvc.Wait()

	rec = e.do(t, http.MethodGet, "/v1/ideas/"+id+"/report/market", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incumbent Inc")
	assert.NotContains(t, rec.Body.String(), "market_size", "absent section stays absent")

	rec = e.do(t, http.MethodGet, "/v1/ideas/"+id+"/report/finance", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// tabs resolve even before any analysis exists
	draft := e.createIdea(t)
	rec = e.do(t, http.MethodGet, "/v1/ideas/"+draft+"/report/overview", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatOverHTTP(t *testing.T) {
	e := newEnv(t)
	id := e.createIdea(t)
	rec := e.do(t, http.MethodPost, "/v1/ideas/"+id+"/generate", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	e.ideasSvc.Wait()

	rec = e.do(t, http.MethodGet, "/v1/ideas/"+id, nil)
	var view struct {
		Analysis struct {
			ID string `json:"id"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotEmpty(t, view.Analysis.ID)

	rec = e.do(t, http.MethodPost, "/v1/analyses/"+view.Analysis.ID+"/chat", map[string]any{
		"question": "Is the market big enough?",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "answer to: Is the market big enough?")

	rec = e.do(t, http.MethodGet, "/v1/analyses/"+view.Analysis.ID+"/chat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 2)

	rec = e.do(t, http.MethodPost, "/v1/analyses/"+view.Analysis.ID+"/chat", map[string]any{"question": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportOverHTTP(t *testing.T) {
	e := newEnv(t)
	id := e.createIdea(t)
	rec := e.do(t, http.MethodPost, "/v1/ideas/"+id+"/generate", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	e.ideasSvc.Wait()

	rec = e.do(t, http.MethodGet, "/v1/ideas/"+id, nil)
	var view struct {
		Analysis struct {
			ID string `json:"id"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = e.do(t, http.MethodPost, "/v1/analyses/"+view.Analysis.ID+"/export?format=markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "https://exports.test/")

	rec = e.do(t, http.MethodPost, "/v1/analyses/"+view.Analysis.ID+"/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpotlightOverHTTP(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/v1/spotlight", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"COMPLETED"`)

	var first struct {
		Idea struct {
			ID string `json:"id"`
		} `json:"idea"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	// second call is served from the day cache
	rec = e.do(t, http.MethodGet, "/v1/spotlight", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), first.Idea.ID)
}

func TestOwnershipIsolation(t *testing.T) {
	e := newEnv(t)
	id := e.createIdea(t)

	// a second account cannot read the first account's idea
	rec := e.do(t, http.MethodPost, "/v1/auth/register", map[string]any{
		"email": "bob@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	e.token = reg.Tokens.AccessToken

	rec = e.do(t, http.MethodGet, "/v1/ideas/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ana@example.com"))
}

func TestMeRequiresToken(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "me is not a public auth route")
}

func TestCORSAllowedOrigin(t *testing.T) {
	e := newEnvWithOptions(t, Options{
		AccessSecret:  []byte("access-secret"),
		AllowedOrigin: "https://app.valididea.test",
	})

	req := httptest.NewRequest(http.MethodOptions, "/v1/ideas", nil)
	req.Header.Set("Origin", "https://app.valididea.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.valididea.test",
		rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/ideas", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsIsPublic(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "generations_total")
}
