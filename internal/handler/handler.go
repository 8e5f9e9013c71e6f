package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/examsys/internal/exam"
	"github.com/pavelanni/examsys/internal/handler/views"
	appI18n "github.com/pavelanni/examsys/internal/i18n"
	"github.com/pavelanni/examsys/internal/insights"
	"github.com/pavelanni/examsys/internal/llm"
	"github.com/pavelanni/examsys/internal/model"
	"github.com/pavelanni/examsys/internal/store"
)

// Flash kinds.
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashError   = "error"
)

// flashCookieName carries flashes for visitors without a session.
const flashCookieName = "flash"

// Advisor writes a study-advice paragraph for the insights page.
// *llm.Client satisfies it.
type Advisor interface {
	Advise(ctx context.Context, req llm.AdviceRequest) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	workflow *exam.Workflow
	insights *insights.Service
	advisor  Advisor
	validate *validator.Validate
	config   model.AppConfig
}

// New creates a new Handler. advisor may be nil, in which case the insights
// page shows only the rule-based recommendations.
func New(s *store.Store, advisor Advisor, cfg model.AppConfig) *Handler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = store.DefaultSessionTTL
	}
	return &Handler{
		store:    s,
		workflow: exam.NewWorkflow(s),
		insights: insights.NewService(s),
		advisor:  advisor,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		config:   cfg,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.csrfMiddleware)
	r.Use(h.loadSession)

	r.Get("/", h.handleIndex)
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", h.handleLoginPage)
		r.Post("/login", h.handleLogin)
		r.Get("/logout", h.handleLogout)
	})

	r.Route("/student", func(r chi.Router) {
		r.Use(h.requireRole(model.RoleStudent))
		r.Get("/dashboard", h.handleStudentDashboard)
		r.Get("/exam/{examID}", h.handleTakeExam)
		r.Post("/exam/answer", h.handleSaveAnswer)
		r.Post("/exam/submit", h.handleSubmitExam)
		r.Get("/insights", h.handleInsights)
	})

	r.Route("/instructor", func(r chi.Router) {
		r.Use(h.requireRole(model.RoleInstructor))
		r.Get("/dashboard", h.handleInstructorDashboard)
		r.Post("/exam/create", h.handleCreateExam)
		r.Get("/exam/{examID}/students", h.handleExamStudents)
		r.Post("/exam/{examID}/questions", h.handleAddQuestion)
	})

	r.Route("/manager", func(r chi.Router) {
		r.Use(h.requireRole(model.RoleManager))
		r.Get("/dashboard", h.handleManagerDashboard)
		r.Get("/students", h.handleManagerStudents)
		r.Get("/instructors", h.handleManagerInstructors)
		r.Get("/courses", h.handleManagerCourses)
		r.Get("/exams", h.handleManagerExams)
		r.Get("/analytics", h.handleManagerAnalytics)
		r.Get("/users", h.handleUsersPage)
		r.Post("/users", h.handleCreateUser)
		r.Get("/import", h.handleImportPage)
		r.Post("/import", h.handleImport)
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// render writes a page, attaching the pending flash message.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	h.renderStatus(w, r, http.StatusOK, c)
}

func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	ctx := views.WithFlash(r.Context(), h.popFlash(w, r))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(ctx, w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// flash queues a localized one-shot message for the next rendered page.
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, kind, msgID string, data map[string]any) {
	msg := appI18n.Td(r.Context(), msgID, data)
	if sess := model.SessionFromContext(r.Context()); sess != nil {
		if err := h.store.SetFlash(r.Context(), sess.ID, kind, msg); err != nil {
			slog.Error("failed to set flash", "error", err)
		}
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(kind + "\n" + msg)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// redirectFlash queues a flash and redirects with 303.
func (h *Handler) redirectFlash(w http.ResponseWriter, r *http.Request, to, kind, msgID string) {
	h.flash(w, r, kind, msgID, nil)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) views.Flash {
	if sess := model.SessionFromContext(r.Context()); sess != nil {
		kind, msg, err := h.store.PopFlash(r.Context(), sess.ID)
		if err != nil {
			slog.Error("failed to pop flash", "error", err)
		}
		if msg != "" {
			return views.Flash{Kind: kind, Message: msg}
		}
	}
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return views.Flash{}
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return views.Flash{}
	}
	kind, msg, ok := strings.Cut(string(raw), "\n")
	if !ok {
		return views.Flash{}
	}
	return views.Flash{Kind: kind, Message: msg}
}

// serverError logs err and sends the user back to to with a generic message.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, to, what string, err error) {
	slog.Error(what, "path", r.URL.Path, "error", err)
	h.redirectFlash(w, r, to, flashError, "GenericError")
}

// internalError is for pages that have nowhere safe to redirect to.
func internalError(w http.ResponseWriter, r *http.Request, what string, err error) {
	slog.Error(what, "path", r.URL.Path, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func dashboardPath(role model.Role) string {
	switch role {
	case model.RoleStudent:
		return "/student/dashboard"
	case model.RoleInstructor:
		return "/instructor/dashboard"
	case model.RoleManager:
		return "/manager/dashboard"
	}
	return "/auth/login"
}

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
