package store

import (
	"context"
	"time"

	"github.com/pavelanni/examsys/internal/model"
)

const attemptColumns = `id, student_id, exam_id, score, grade, taken_at`

func scanAttempt(sc interface{ Scan(...any) error }) (model.Attempt, error) {
	var a model.Attempt
	err := sc.Scan(&a.ID, &a.StudentID, &a.ExamID, &a.Score, &a.Grade, &a.TakenAt)
	return a, err
}

// FindAttempt returns the student's attempt at an exam, or ErrNotFound.
func (s *Store) FindAttempt(ctx context.Context, studentID, examID int64) (model.Attempt, error) {
	a, err := scanAttempt(s.queryRow(ctx,
		`SELECT `+attemptColumns+` FROM takes WHERE student_id = ? AND exam_id = ? ORDER BY id LIMIT 1`,
		studentID, examID))
	return a, notFound(err)
}

// GetAttempt returns an attempt by ID.
func (s *Store) GetAttempt(ctx context.Context, id int64) (model.Attempt, error) {
	a, err := scanAttempt(s.queryRow(ctx, `SELECT `+attemptColumns+` FROM takes WHERE id = ?`, id))
	return a, notFound(err)
}

// CreateAttempt inserts an in-progress attempt (score 0, no grade).
func (s *Store) CreateAttempt(ctx context.Context, studentID, examID int64, now time.Time) (int64, error) {
	return s.insertID(ctx,
		`INSERT INTO takes (student_id, exam_id, score, grade, taken_at) VALUES (?, ?, 0, NULL, ?)`,
		studentID, examID, now,
	)
}

// FinalizeAttempt stores the score and grade of a submitted attempt.
func (s *Store) FinalizeAttempt(ctx context.Context, id int64, score float64, grade string, now time.Time) error {
	res, err := s.exec(ctx,
		`UPDATE takes SET score = ?, grade = ?, taken_at = ? WHERE id = ?`,
		score, grade, now, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AttemptCount returns the number of attempts recorded.
func (s *Store) AttemptCount(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM takes`)
}
