package store

import (
	"context"
	"time"

	"github.com/pavelanni/examsys/internal/model"
)

// UpsertAnswer stores the answer of an attempt to a question, replacing any
// earlier answer to the same question.
func (s *Store) UpsertAnswer(ctx context.Context, a model.StudentAnswer) error {
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO student_answers (attempt_id, question_id, choice_id, answer_text, submitted_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE SET
			choice_id = excluded.choice_id,
			answer_text = excluded.answer_text,
			submitted_at = excluded.submitted_at`,
		a.AttemptID, a.QuestionID, a.ChoiceID, a.Text, a.SubmittedAt,
	)
	return err
}

// AnswersForAttempt returns the stored answers of an attempt ordered by question.
func (s *Store) AnswersForAttempt(ctx context.Context, attemptID int64) ([]model.StudentAnswer, error) {
	rows, err := s.query(ctx, `
		SELECT id, attempt_id, question_id, choice_id, answer_text, submitted_at
		FROM student_answers WHERE attempt_id = ? ORDER BY question_id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.StudentAnswer
	for rows.Next() {
		var a model.StudentAnswer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.ChoiceID, &a.Text, &a.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
