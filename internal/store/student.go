package store

import (
	"context"

	"github.com/pavelanni/examsys/internal/model"
)

const studentSelect = `SELECT s.id, s.person_id, s.graduated, p.first_name, p.last_name, p.email
	FROM students s JOIN persons p ON p.id = s.person_id`

func scanStudent(sc interface{ Scan(...any) error }) (model.Student, error) {
	var st model.Student
	err := sc.Scan(&st.ID, &st.PersonID, &st.Graduated, &st.FirstName, &st.LastName, &st.Email)
	return st, err
}

// GetStudent returns a student profile joined with its person.
func (s *Store) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	st, err := scanStudent(s.queryRow(ctx, studentSelect+` WHERE s.id = ?`, id))
	return st, notFound(err)
}

// ListStudents returns all students ordered by ID.
func (s *Store) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.query(ctx, studentSelect+` ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// AvailableExams returns exams the student has not attempted and that have
// at least one linked question.
func (s *Store) AvailableExams(ctx context.Context, studentID int64) ([]model.Exam, error) {
	return s.listExams(ctx, examSelect+`
		WHERE e.id NOT IN (SELECT exam_id FROM takes WHERE student_id = ?)
		AND EXISTS (SELECT 1 FROM exam_questions eq WHERE eq.exam_id = e.id)
		ORDER BY e.year DESC, e.semester DESC, e.id`, studentID)
}

// CompletedExams returns every attempt of the student, newest first.
// In-progress attempts are included with a nil grade.
func (s *Store) CompletedExams(ctx context.Context, studentID int64) ([]model.CompletedExam, error) {
	rows, err := s.query(ctx, `
		SELECT t.id, t.exam_id, c.name, t.score, e.total_marks, t.grade, t.taken_at
		FROM takes t
		JOIN exams e ON e.id = t.exam_id
		JOIN courses c ON c.id = e.course_id
		WHERE t.student_id = ?
		ORDER BY t.taken_at DESC, t.id DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CompletedExam
	for rows.Next() {
		var ce model.CompletedExam
		if err := rows.Scan(&ce.AttemptID, &ce.ExamID, &ce.CourseName, &ce.Score, &ce.TotalMarks, &ce.Grade, &ce.TakenAt); err != nil {
			return nil, err
		}
		out = append(out, ce)
	}
	return out, rows.Err()
}

// AverageScore returns the mean of the student's graded scores, or 0.
func (s *Store) AverageScore(ctx context.Context, studentID int64) (float64, error) {
	var avg *float64
	err := s.queryRow(ctx,
		`SELECT AVG(score) FROM takes WHERE student_id = ? AND grade IS NOT NULL`, studentID,
	).Scan(&avg)
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

// ScoreHistory returns the student's graded scores, newest first.
// In-progress attempts have no grade and are left out.
// A limit <= 0 returns all of them.
func (s *Store) ScoreHistory(ctx context.Context, studentID int64, limit int) ([]float64, error) {
	q := `SELECT score FROM takes WHERE student_id = ? AND grade IS NOT NULL ORDER BY taken_at DESC, id DESC`
	args := []any{studentID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
