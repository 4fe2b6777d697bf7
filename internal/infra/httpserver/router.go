package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appauth "github.com/validideahq/valididea/internal/application/auth"
	appchat "github.com/validideahq/valididea/internal/application/chat"
	appexport "github.com/validideahq/valididea/internal/application/export"
	appideas "github.com/validideahq/valididea/internal/application/ideas"
	"github.com/validideahq/valididea/internal/application/report"
	appspotlight "github.com/validideahq/valididea/internal/application/spotlight"
	domai "github.com/validideahq/valididea/internal/domain/ai"
	domanalyses "github.com/validideahq/valididea/internal/domain/analyses"
	domain "github.com/validideahq/valididea/internal/domain/ideas"
	domusers "github.com/validideahq/valididea/internal/domain/users"
	"github.com/validideahq/valididea/internal/middleware"
)

type Router struct {
	authSvc      *appauth.Service
	ideasSvc     *appideas.Service
	chatSvc      *appchat.Service
	exportSvc    *appexport.Service
	spotlightSvc *appspotlight.Service
}

// Options carries the cross-cutting wiring the router mounts around the
// handlers.
type Options struct {
	AccessSecret  []byte
	RateLimit     float64
	RateBurst     int
	HealthChecks  map[string]middleware.HealthChecker
	AllowedOrigin string
}

func NewRouter(
	authSvc *appauth.Service,
	ideasSvc *appideas.Service,
	chatSvc *appchat.Service,
	exportSvc *appexport.Service,
	spotlightSvc *appspotlight.Service,
	opts Options,
) http.Handler {
	r := &Router{
		authSvc:      authSvc,
		ideasSvc:     ideasSvc,
		chatSvc:      chatSvc,
		exportSvc:    exportSvc,
		spotlightSvc: spotlightSvc,
	}

	mux := chi.NewRouter()

	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.BearerAuth(opts.AccessSecret))
	if opts.RateLimit > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimit, opts.RateBurst))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthChecks))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/auth/register", r.wrap(r.handleRegister))
		rt.Post("/auth/login", r.wrap(r.handleLogin))
		rt.Post("/auth/refresh", r.wrap(r.handleRefresh))
		rt.Get("/auth/me", r.wrap(r.handleMe))

		rt.Post("/ideas", r.wrap(r.handleCreateIdea))
		rt.Get("/ideas", r.wrap(r.handleListIdeas))
		rt.Get("/ideas/{id}", r.wrap(r.handleGetIdea))
		rt.Delete("/ideas/{id}", r.wrap(r.handleDeleteIdea))
		rt.Post("/ideas/{id}/generate", r.wrap(r.handleGenerate))
		rt.Post("/ideas/{id}/retry", r.wrap(r.handleRetry))
		rt.Get("/ideas/{id}/report/{tab}", r.wrap(r.handleReportTab))

		rt.Get("/analyses/{id}/chat", r.wrap(r.handleChatHistory))
		rt.Post("/analyses/{id}/chat", r.wrap(r.handleChatSend))
		rt.Post("/analyses/{id}/export", r.wrap(r.handleExport))

		rt.Get("/spotlight", r.wrap(r.handleSpotlight))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// errBadRequest marks validation failures for the wrap mapping.
var errBadRequest = errors.New("bad request")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domanalyses.ErrNotFound),
			errors.Is(err, domusers.ErrNotFound),
			errors.Is(err, sql.ErrNoRows):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domusers.ErrQuotaExceeded),
			errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, err.Error(), http.StatusTooManyRequests)
		case errors.Is(err, appauth.ErrInvalidCredentials):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, domusers.ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, errBadRequest),
			errors.Is(err, appideas.ErrValidation),
			errors.Is(err, appchat.ErrEmptyQuestion),
			errors.Is(err, appexport.ErrUnsupportedFormat),
			errors.Is(err, report.ErrUnknownTab):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			var transition *domain.ErrInvalidTransition
			if errors.As(err, &transition) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

//
// ==== auth ====
//

// POST /v1/auth/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	user, tokens, err := r.authSvc.Register(req.Context(), appauth.RegisterCommand{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"user": user, "tokens": tokens})
}

// POST /v1/auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	user, tokens, err := r.authSvc.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"user": user, "tokens": tokens})
}

// POST /v1/auth/refresh
func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	tokens, err := r.authSvc.Refresh(req.Context(), body.RefreshToken)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, tokens)
}

// GET /v1/auth/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	user, err := r.authSvc.Me(req.Context(), middleware.GetUserID(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

//
// ==== ideas ====
//

// POST /v1/ideas
func (r *Router) handleCreateIdea(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Title       string              `json:"title"`
		OneLiner    string              `json:"one_liner"`
		Description string              `json:"description"`
		Attachments []domain.Attachment `json:"attachments"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := middleware.ValidateIdeaPayload(body.Title, body.OneLiner, body.Description); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	for _, a := range body.Attachments {
		if err := middleware.ValidateAttachmentURL(a.URL); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}

	idea, err := r.ideasSvc.CreateDraft(req.Context(), appideas.CreateDraftCommand{
		UserID:      middleware.GetUserID(req.Context()),
		Title:       middleware.SanitizeString(body.Title),
		OneLiner:    middleware.SanitizeString(body.OneLiner),
		Description: middleware.SanitizeString(body.Description),
		Attachments: body.Attachments,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, idea)
}

// GET /v1/ideas?page=&page_size=
func (r *Router) handleListIdeas(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.ideasSvc.List(req.Context(), middleware.GetUserID(req.Context()),
		middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/ideas/{id} — idea plus its latest analysis
func (r *Router) handleGetIdea(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	view, err := r.ideasSvc.Get(req.Context(), middleware.GetUserID(req.Context()), domain.IdeaID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

// DELETE /v1/ideas/{id} — idempotent from the client's perspective
func (r *Router) handleDeleteIdea(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := r.ideasSvc.Delete(req.Context(), middleware.GetUserID(req.Context()), domain.IdeaID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/ideas/{id}/generate
func (r *Router) handleGenerate(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	idea, err := r.ideasSvc.RunAnalysis(req.Context(), middleware.GetUserID(req.Context()), domain.IdeaID(id))
	if err != nil {
		return err
	}
	middleware.IncrementGenerations()

	// generation continues in background; client polls GET /ideas/{id}
	return writeJSON(w, http.StatusAccepted, map[string]any{
		"id":      idea.ID,
		"status":  idea.Status,
		"message": "analysis started in background",
	})
}

// POST /v1/ideas/{id}/retry
func (r *Router) handleRetry(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	idea, err := r.ideasSvc.Retry(req.Context(), middleware.GetUserID(req.Context()), domain.IdeaID(id))
	if err != nil {
		return err
	}
	middleware.IncrementGenerations()

	return writeJSON(w, http.StatusAccepted, map[string]any{
		"id":      idea.ID,
		"status":  idea.Status,
		"message": "analysis restarted in background",
	})
}

// GET /v1/ideas/{id}/report/{tab}
func (r *Router) handleReportTab(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	tab := report.TabKey(chi.URLParam(req, "tab"))

	view, err := r.ideasSvc.Get(req.Context(), middleware.GetUserID(req.Context()), domain.IdeaID(id))
	if err != nil {
		return err
	}

	rendered, err := report.Resolve(tab, view.Idea, view.Analysis)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rendered)
}

//
// ==== chat / export / spotlight ====
//

// GET /v1/analyses/{id}/chat?limit=
func (r *Router) handleChatHistory(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	history, err := r.chatSvc.History(req.Context(), middleware.GetUserID(req.Context()),
		domanalyses.AnalysisID(id), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, history)
}

// POST /v1/analyses/{id}/chat
func (r *Router) handleChatSend(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	reply, err := r.chatSvc.Send(req.Context(), middleware.GetUserID(req.Context()),
		domanalyses.AnalysisID(id), body.Question)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, reply)
}

// POST /v1/analyses/{id}/export?format=json|csv|markdown
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	format := appexport.Format(req.URL.Query().Get("format"))

	result, err := r.exportSvc.Export(req.Context(), middleware.GetUserID(req.Context()),
		domanalyses.AnalysisID(id), format)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// GET /v1/spotlight — idea of the day
func (r *Router) handleSpotlight(w http.ResponseWriter, req *http.Request) error {
	view, err := r.spotlightSvc.Today(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}
