package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLocalizer(context.Background(), lang)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		lang string
		id   string
		want string
	}{
		{"en", "AppTitle", "Exam System"},
		{"en", "StartExam", "Start exam"},
		{"ar", "AppTitle", "نظام الامتحانات"},
		{"ar", "StartExam", "ابدأ الامتحان"},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.id, func(t *testing.T) {
			ctx := initLang(t, tt.lang)
			if got := T(ctx, tt.id); got != tt.want {
				t.Errorf("T(%s) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestPluralTranslation(t *testing.T) {
	tests := []struct {
		lang  string
		count int
		want  string
	}{
		{"en", 1, "1 question"},
		{"en", 5, "5 questions"},
		{"ar", 1, "سؤال واحد"},
		{"ar", 2, "سؤالان"},
		{"ar", 3, "3 أسئلة"},
		{"ar", 11, "11 سؤالا"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			ctx := initLang(t, tt.lang)
			if got := Tp(ctx, "QuestionCount", tt.count); got != tt.want {
				t.Errorf("Tp(QuestionCount, %d) = %q, want %q", tt.count, got, tt.want)
			}
		})
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	got := Td(ctx, "AnsweredOf", map[string]any{"Answered": 3, "Total": 4})
	if got != "3 of 4" {
		t.Errorf("Td(AnsweredOf) = %q, want '3 of 4'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")
	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestUnknownLanguageFallsBack(t *testing.T) {
	ctx := initLang(t, "fr")
	if got := T(ctx, "AppTitle"); got != "Exam System" {
		t.Errorf("T(AppTitle) = %q, want English fallback", got)
	}
}

func TestMatch(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"empty", nil, "en"},
		{"arabic", []string{"ar"}, "ar"},
		{"accept header", []string{"", "ar-EG,ar;q=0.9,en;q=0.5"}, "ar"},
		{"first wins", []string{"en", "ar"}, "en"},
		{"unsupported", []string{"fr"}, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.prefs...); got != tt.want {
				t.Errorf("Match(%v) = %q, want %q", tt.prefs, got, tt.want)
			}
		})
	}
}

func TestDir(t *testing.T) {
	if got := Dir(initLang(t, "ar")); got != "rtl" {
		t.Errorf("Dir(ar) = %q, want rtl", got)
	}
	if got := Dir(initLang(t, "en")); got != "ltr" {
		t.Errorf("Dir(en) = %q, want ltr", got)
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var lang string
	h := Middleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = Lang(r.Context())
	}))

	t.Run("query sets cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?lang=ar", nil))
		if lang != "ar" {
			t.Errorf("lang = %q, want ar", lang)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != LangCookie || cookies[0].Value != "ar" {
			t.Errorf("cookies = %v, want lang=ar", cookies)
		}
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: LangCookie, Value: "ar"})
		h.ServeHTTP(httptest.NewRecorder(), req)
		if lang != "ar" {
			t.Errorf("lang = %q, want ar", lang)
		}
	})

	t.Run("accept-language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "ar")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if lang != "ar" {
			t.Errorf("lang = %q, want ar", lang)
		}
	})

	t.Run("default", func(t *testing.T) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if lang != "en" {
			t.Errorf("lang = %q, want en", lang)
		}
	})
}
