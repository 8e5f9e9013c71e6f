package store

import (
	"context"
	"time"

	"github.com/pavelanni/examsys/internal/model"
)

const examSelect = `SELECT e.id, e.course_id, e.instructor_id, c.name, e.semester, e.year,
	e.total_marks, e.duration_seconds
	FROM exams e JOIN courses c ON c.id = e.course_id`

func scanExam(sc interface{ Scan(...any) error }) (model.Exam, error) {
	var e model.Exam
	var secs int64
	err := sc.Scan(&e.ID, &e.CourseID, &e.InstructorID, &e.CourseName, &e.Semester, &e.Year, &e.TotalMarks, &secs)
	e.Duration = time.Duration(secs) * time.Second
	return e, err
}

func (s *Store) listExams(ctx context.Context, query string, args ...any) ([]model.Exam, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateExam inserts an exam and returns its ID. A zero Duration is stored
// as the default allotted time.
func (s *Store) CreateExam(ctx context.Context, e model.Exam) (int64, error) {
	if e.Duration <= 0 {
		e.Duration = model.DefaultExamDuration
	}
	return s.insertID(ctx,
		`INSERT INTO exams (course_id, instructor_id, semester, year, total_marks, duration_seconds)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.CourseID, e.InstructorID, e.Semester, e.Year, e.TotalMarks, int64(e.Duration/time.Second),
	)
}

// GetExam returns an exam by ID.
func (s *Store) GetExam(ctx context.Context, id int64) (model.Exam, error) {
	e, err := scanExam(s.queryRow(ctx, examSelect+` WHERE e.id = ?`, id))
	return e, notFound(err)
}

// ListExams returns all exams, newest term first.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	return s.listExams(ctx, examSelect+` ORDER BY e.year DESC, e.semester DESC, e.id`)
}

// ListExamSummaries returns all exams with their question and attempt counts.
func (s *Store) ListExamSummaries(ctx context.Context) ([]model.ExamSummary, error) {
	rows, err := s.query(ctx, `
		SELECT e.id, e.course_id, e.instructor_id, c.name, e.semester, e.year,
			e.total_marks, e.duration_seconds,
			(SELECT COUNT(*) FROM exam_questions eq WHERE eq.exam_id = e.id),
			(SELECT COUNT(*) FROM takes t WHERE t.exam_id = e.id)
		FROM exams e JOIN courses c ON c.id = e.course_id
		ORDER BY e.year DESC, e.semester DESC, e.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ExamSummary
	for rows.Next() {
		var es model.ExamSummary
		var secs int64
		if err := rows.Scan(&es.ID, &es.CourseID, &es.InstructorID, &es.CourseName, &es.Semester, &es.Year,
			&es.TotalMarks, &secs, &es.QuestionCount, &es.AttemptCount); err != nil {
			return nil, err
		}
		es.Duration = time.Duration(secs) * time.Second
		out = append(out, es)
	}
	return out, rows.Err()
}
