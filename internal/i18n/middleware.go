package i18n

import "net/http"

// LangCookie remembers the language a user picked with ?lang=.
const LangCookie = "lang"

// Middleware selects the request language from ?lang=, the lang cookie or
// Accept-Language, falling back to the configured default.
func Middleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieLang string
			if c, err := r.Cookie(LangCookie); err == nil {
				cookieLang = c.Value
			}
			lang := Match(r.URL.Query().Get("lang"), cookieLang, r.Header.Get("Accept-Language"))
			if q := r.URL.Query().Get("lang"); q != "" && Supported(q) {
				http.SetCookie(w, &http.Cookie{
					Name:     LangCookie,
					Value:    lang,
					Path:     "/",
					MaxAge:   365 * 24 * 3600,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), lang)))
		})
	}
}
