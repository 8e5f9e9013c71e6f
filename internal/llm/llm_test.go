package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/examsys/internal/insights"
	"github.com/pavelanni/examsys/internal/model"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"TrendImproving", "improving"},
		{"LevelVeryGood", "very good"},
		{"Plain", "plain"},
	}
	for _, tt := range tests {
		if got := label(tt.in); got != tt.want {
			t.Errorf("label(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAdviceData(t *testing.T) {
	grade := "B"
	req := AdviceRequest{
		StudentName: "Omar",
		Insights:    insights.Summarize([]float64{85, 80, 75}),
		Prediction:  insights.Predict([]float64{85, 80, 75}),
		RecentExams: []model.CompletedExam{{CourseName: "Databases", Score: 85, Grade: &grade}, {CourseName: "Networks", Score: 0}},
	}
	d := adviceData(req)
	if !d.HasPrediction || d.Predicted != 70 {
		t.Errorf("expected prediction 70, got %+v", d)
	}
	if d.Level != "very good" || d.Trend != "improving" {
		t.Errorf("unexpected labels: level %q trend %q", d.Level, d.Trend)
	}
	if len(d.RecentExams) != 2 || d.RecentExams[0] != "Databases: 85.0 (B)" || d.RecentExams[1] != "Networks: 0.0 (-)" {
		t.Errorf("unexpected exams: %v", d.RecentExams)
	}

	req.Prediction = insights.Predict(nil)
	if adviceData(req).HasPrediction {
		t.Error("insufficient data should not produce a prediction line")
	}
}

func newFakeServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data":   []map[string]any{{"id": "test-model", "object": "model"}},
			})
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "test-model") {
				t.Errorf("request should name the model: %s", body)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "cmpl-1",
				"object": "chat.completion",
				"choices": []map[string]any{{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAdvise(t *testing.T) {
	ctx := context.Background()
	req := AdviceRequest{Lang: "en", StudentName: "Omar", Insights: insights.Summarize([]float64{70, 60})}

	t.Run("ok", func(t *testing.T) {
		srv := newFakeServer(t, `{"advice": "  Keep a weekly review slot.  "}`)
		c := New(srv.URL+"/v1", "key", "test-model")
		got, err := c.Advise(ctx, req)
		if err != nil {
			t.Fatalf("Advise: %v", err)
		}
		if got != "Keep a weekly review slot." {
			t.Errorf("Advise = %q", got)
		}
		if err := c.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})

	t.Run("not json", func(t *testing.T) {
		srv := newFakeServer(t, `sure, here is advice`)
		c := New(srv.URL+"/v1", "key", "test-model")
		if _, err := c.Advise(ctx, req); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("empty advice", func(t *testing.T) {
		srv := newFakeServer(t, `{"advice": ""}`)
		c := New(srv.URL+"/v1", "key", "test-model")
		if _, err := c.Advise(ctx, req); err == nil {
			t.Error("expected error for empty advice")
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		srv := newFakeServer(t, `{}`)
		c := New(srv.URL+"/v1", "key", "other-model")
		if err := c.Ping(ctx); err == nil {
			t.Error("expected error for missing model")
		}
	})
}
