package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examsys/internal/handler/views"
	appI18n "github.com/pavelanni/examsys/internal/i18n"
	"github.com/pavelanni/examsys/internal/model"
	"github.com/pavelanni/examsys/internal/store"
)

const (
	sessionCookieName = "session"
	csrfCookieName    = "csrf_token"
)

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *Handler) setCSRFCookie(w http.ResponseWriter, r *http.Request, next http.Handler) {
	token, err := generateCSRFToken()
	if err != nil {
		slog.Error("failed to generate CSRF token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	ctx := model.ContextWithCSRFToken(r.Context(), token)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// csrfMiddleware implements the double-submit cookie pattern: every form
// carries csrf_token, which must match the cookie of the same name.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			h.setCSRFCookie(w, r, next)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			slog.Warn("CSRF cookie missing", "path", r.URL.Path)
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		formToken := r.FormValue("csrf_token")
		if formToken == "" {
			slog.Warn("CSRF form token missing", "path", r.URL.Path)
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
			slog.Warn("CSRF token mismatch", "path", r.URL.Path)
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		h.setCSRFCookie(w, r, next)
	})
}

// loadSession attaches the server-side session, if any, to the request
// context. Unknown or expired tokens are treated as anonymous.
func (h *Handler) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := h.store.GetAuthSession(r.Context(), cookie.Value)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
		}
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(model.ContextWithSession(r.Context(), sess)))
	})
}

// requireRole returns middleware that admits only sessions with one of the
// allowed roles. Everyone else goes back to the login page with a flash;
// signed-in users are then bounced on to their own dashboard.
func (h *Handler) requireRole(allowed ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := model.SessionFromContext(r.Context())
			if sess == nil {
				h.redirectFlash(w, r, "/auth/login", flashWarning, "LoginRequired")
				return
			}
			for _, role := range allowed {
				if sess.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			slog.Warn("access denied", "person_id", sess.PersonID, "role", sess.Role, "path", r.URL.Path)
			h.redirectFlash(w, r, "/auth/login", flashError, "AccessDenied")
		})
	}
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := model.SessionFromContext(r.Context()); sess != nil {
		http.Redirect(w, r, dashboardPath(sess.Role), http.StatusSeeOther)
		return
	}
	h.render(w, r, views.LoginPage(""))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	form := loginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.loginFailed(w, r, form.Email)
		return
	}

	person, err := h.store.GetPersonByEmail(r.Context(), form.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("failed to get person", "error", err)
		}
		h.loginFailed(w, r, form.Email)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(person.PasswordHash), []byte(form.Password)); err != nil {
		h.loginFailed(w, r, form.Email)
		return
	}

	profileID, err := h.store.ProfileID(r.Context(), person.ID, person.Role)
	if err != nil {
		slog.Error("person without role profile", "person_id", person.ID, "role", person.Role, "error", err)
		h.loginFailed(w, r, form.Email)
		return
	}

	sess, err := h.store.CreateAuthSession(r.Context(), person, profileID, h.config.SessionTTL)
	if err != nil {
		h.serverError(w, r, "/auth/login", "failed to create auth session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	slog.Info("login", "person_id", person.ID, "role", person.Role)
	http.Redirect(w, r, dashboardPath(person.Role), http.StatusSeeOther)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, email string) {
	ctx := views.WithFlash(r.Context(), views.Flash{Kind: flashError, Message: appI18n.T(r.Context(), "LoginError")})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	if err := views.LoginPage(email).Render(ctx, w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := model.SessionFromContext(r.Context()); sess != nil {
		if err := h.store.DeleteAuthSession(r.Context(), sess.ID); err != nil {
			slog.Error("failed to delete auth session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	ctx := model.ContextWithSession(r.Context(), nil)
	h.redirectFlash(w, r.WithContext(ctx), "/auth/login", flashInfo, "LoggedOut")
}
