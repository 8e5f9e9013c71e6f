// Package llm talks to an OpenAI-compatible endpoint to turn a student's
// performance summary into a short study-advice paragraph.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/examsys/internal/insights"
	"github.com/pavelanni/examsys/internal/llm/prompts"
	"github.com/pavelanni/examsys/internal/model"
)

// AdviceRequest is everything the advisor knows about a student.
type AdviceRequest struct {
	Lang        string
	StudentName string
	Insights    insights.Insights
	Prediction  insights.Prediction
	RecentExams []model.CompletedExam
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping checks that the endpoint answers and the configured model is listed.
func (c *Client) Ping(ctx context.Context) error {
	models, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	for _, m := range models.Models {
		if m.ID == c.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not served by endpoint", c.model)
}

// Advise asks the model for one paragraph of study advice.
func (c *Client) Advise(ctx context.Context, req AdviceRequest) (string, error) {
	prompt, err := prompts.BuildAdvicePrompt(req.Lang, adviceData(req))
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var out adviceResponse
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	advice := strings.TrimSpace(out.Advice)
	if advice == "" {
		return "", fmt.Errorf("LLM returned empty advice")
	}
	return advice, nil
}

func adviceData(req AdviceRequest) prompts.AdviceData {
	in := req.Insights
	d := prompts.AdviceData{
		StudentName: req.StudentName,
		Count:       in.Count,
		Mean:        in.Mean,
		Max:         in.Max,
		Min:         in.Min,
		StdDev:      in.StdDev,
		Level:       label(in.Level),
		Consistency: label(in.Consistency),
		Trend:       label(in.Trend),
	}
	if req.Prediction.Status == insights.StatusOK {
		d.HasPrediction = true
		d.Predicted = req.Prediction.Predicted
		d.Confidence = req.Prediction.Confidence
	}
	for i, e := range req.RecentExams {
		if i == 10 {
			break
		}
		grade := "-"
		if e.Grade != nil {
			grade = *e.Grade
		}
		d.RecentExams = append(d.RecentExams, fmt.Sprintf("%s: %.1f (%s)", e.CourseName, e.Score, grade))
	}
	return d
}

// label turns a message ID such as "TrendImproving" into "improving".
func label(id string) string {
	var words []string
	start := 0
	for i, r := range id {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, strings.ToLower(id[start:i]))
			start = i
		}
	}
	words = append(words, strings.ToLower(id[start:]))
	if len(words) > 1 {
		words = words[1:]
	}
	return strings.Join(words, " ")
}
