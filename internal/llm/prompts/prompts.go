// Package prompts renders the study-advice prompt sent to the language model.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed advice_*.txt
var files embed.FS

var recordTagRegex = regexp.MustCompile(`(?i)</?\s*student-record\b[^>]*>`)

// DefaultLang is used for languages without a dedicated template.
const DefaultLang = "en"

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

// AdviceData holds template data for the advice prompt.
type AdviceData struct {
	StudentName   string
	Count         int
	Mean          float64
	Max           float64
	Min           float64
	StdDev        float64
	Level         string
	Consistency   string
	Trend         string
	HasPrediction bool
	Predicted     float64
	Confidence    float64
	RecentExams   []string
}

func load() error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template)
		for _, lang := range []string{"en", "ar"} {
			name := "advice_" + lang + ".txt"
			content, err := files.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(name).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[lang] = tmpl
		}
	})
	return loadErr
}

// BuildAdvicePrompt renders the advice prompt in lang, falling back to English.
func BuildAdvicePrompt(lang string, data AdviceData) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[lang]
	if !ok {
		tmpl = templates[DefaultLang]
	}

	data.StudentName = sanitize(data.StudentName, 200)
	exams := make([]string, len(data.RecentExams))
	for i, e := range data.RecentExams {
		exams[i] = sanitize(e, 200)
	}
	data.RecentExams = exams

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitize strips record delimiters and caps free text at limit runes.
func sanitize(s string, limit int) string {
	s = recordTagRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if utf8.RuneCountInString(s) > limit {
		s = string([]rune(s)[:limit]) + "..."
	}
	return s
}
