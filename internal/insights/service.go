package insights

import (
	"context"
	"fmt"
)

// ScoreSource provides a student's graded scores, newest first.
// *store.Store satisfies it.
type ScoreSource interface {
	ScoreHistory(ctx context.Context, studentID int64, limit int) ([]float64, error)
}

// Service computes insights for students stored in a ScoreSource.
type Service struct {
	scores ScoreSource
}

// NewService returns a Service reading from src.
func NewService(src ScoreSource) *Service {
	return &Service{scores: src}
}

// StudentInsights summarizes all graded scores of a student.
func (s *Service) StudentInsights(ctx context.Context, studentID int64) (Insights, error) {
	scores, err := s.scores.ScoreHistory(ctx, studentID, 0)
	if err != nil {
		return Insights{}, fmt.Errorf("score history for student %d: %w", studentID, err)
	}
	return Summarize(scores), nil
}

// StudentPrediction forecasts a student's next score from the newest ones.
func (s *Service) StudentPrediction(ctx context.Context, studentID int64) (Prediction, error) {
	scores, err := s.scores.ScoreHistory(ctx, studentID, trendWindow)
	if err != nil {
		return Prediction{}, fmt.Errorf("score history for student %d: %w", studentID, err)
	}
	return Predict(scores), nil
}
