package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

type localeCtx struct {
	lang string
	loc  *i18n.Localizer
}

var (
	bundle      *i18n.Bundle
	defaultLang = "en"
	matcher     language.Matcher
	supported   []language.Tag
)

// Init loads the translation bundle with lang as the fallback language.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	bundle = i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
		slog.Debug("loaded locale file", "file", e.Name())
	}

	// The configured language goes first so the matcher falls back to it.
	supported = []language.Tag{tag}
	for _, t := range bundle.LanguageTags() {
		if t != tag {
			supported = append(supported, t)
		}
	}
	matcher = language.NewMatcher(supported)
	defaultLang = tag.String()
	return nil
}

// Supported reports whether a translation file exists for lang.
func Supported(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	for _, t := range supported {
		if t == tag {
			return true
		}
	}
	return false
}

// Match picks the best supported language for the given preferences,
// e.g. a cookie value followed by an Accept-Language header.
func Match(prefs ...string) string {
	if matcher == nil {
		return defaultLang
	}
	for _, p := range prefs {
		if p == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := matcher.Match(tags...)
		if conf != language.No {
			base, _ := supported[idx].Base()
			return base.String()
		}
	}
	return defaultLang
}

// NewLocalizer creates a localizer for the given language.
func NewLocalizer(lang string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, lang, defaultLang)
}

// WithLocalizer stores a localizer for lang in the context.
func WithLocalizer(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, localeCtx{lang: lang, loc: NewLocalizer(lang)})
}

func fromCtx(ctx context.Context) localeCtx {
	if lc, ok := ctx.Value(ctxKey{}).(localeCtx); ok {
		return lc
	}
	return localeCtx{lang: defaultLang, loc: NewLocalizer(defaultLang)}
}

// Lang returns the language selected for the request.
func Lang(ctx context.Context) string {
	return fromCtx(ctx).lang
}

// Dir returns the text direction of the request language.
func Dir(ctx context.Context) string {
	if Lang(ctx) == "ar" {
		return "rtl"
	}
	return "ltr"
}

// T translates a message by ID.
func T(ctx context.Context, msgID string) string {
	s, err := fromCtx(ctx).loc.Localize(&i18n.LocalizeConfig{MessageID: msgID})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}

// Td translates a message by ID with template data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	s, err := fromCtx(ctx).loc.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}

// Tp translates a pluralized message by ID.
func Tp(ctx context.Context, msgID string, count int) string {
	s, err := fromCtx(ctx).loc.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}
