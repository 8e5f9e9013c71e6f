package store

import (
	"context"

	"github.com/pavelanni/examsys/internal/model"
)

// Overview returns the counters shown on the manager dashboard.
func (s *Store) Overview(ctx context.Context) (model.Overview, error) {
	var o model.Overview
	var avg *float64
	err := s.queryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM instructors),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM exams),
			(SELECT COUNT(*) FROM takes),
			(SELECT AVG(score) FROM takes WHERE grade IS NOT NULL)`,
	).Scan(&o.Students, &o.Instructors, &o.Courses, &o.Exams, &o.Attempts, &avg)
	if avg != nil {
		o.AverageScore = *avg
	}
	return o, err
}

// studentAverages returns the average graded score per student, best first.
func (s *Store) studentAverages(ctx context.Context, limit int) ([]model.TopStudent, error) {
	q := `
		SELECT s.id, p.first_name, p.last_name, p.email, AVG(t.score), COUNT(t.id)
		FROM takes t
		JOIN students s ON s.id = t.student_id
		JOIN persons p ON p.id = s.person_id
		WHERE t.grade IS NOT NULL
		GROUP BY s.id, p.first_name, p.last_name, p.email
		ORDER BY AVG(t.score) DESC, s.id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TopStudent
	for rows.Next() {
		var ts model.TopStudent
		if err := rows.Scan(&ts.StudentID, &ts.FirstName, &ts.LastName, &ts.Email, &ts.Average, &ts.Exams); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// TopStudents returns the n students with the highest average score.
func (s *Store) TopStudents(ctx context.Context, n int) ([]model.TopStudent, error) {
	return s.studentAverages(ctx, n)
}

// GradeBands counts students by the band of their average score.
func (s *Store) GradeBands(ctx context.Context) (model.GradeBands, error) {
	var b model.GradeBands
	avgs, err := s.studentAverages(ctx, 0)
	if err != nil {
		return b, err
	}
	for _, a := range avgs {
		switch {
		case a.Average >= 90:
			b.Excellent++
		case a.Average >= 80:
			b.VeryGood++
		case a.Average >= 70:
			b.Good++
		case a.Average >= 60:
			b.Acceptable++
		default:
			b.Weak++
		}
	}
	return b, nil
}
