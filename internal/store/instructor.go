package store

import (
	"context"

	"github.com/pavelanni/examsys/internal/model"
)

const instructorSelect = `SELECT i.id, i.person_id, i.salary, p.first_name, p.last_name, p.email
	FROM instructors i JOIN persons p ON p.id = i.person_id`

func scanInstructor(sc interface{ Scan(...any) error }) (model.Instructor, error) {
	var in model.Instructor
	err := sc.Scan(&in.ID, &in.PersonID, &in.Salary, &in.FirstName, &in.LastName, &in.Email)
	return in, err
}

// GetInstructor returns an instructor profile joined with its person.
func (s *Store) GetInstructor(ctx context.Context, id int64) (model.Instructor, error) {
	in, err := scanInstructor(s.queryRow(ctx, instructorSelect+` WHERE i.id = ?`, id))
	return in, notFound(err)
}

// GetInstructorByEmail looks an instructor up by the person's email.
func (s *Store) GetInstructorByEmail(ctx context.Context, email string) (model.Instructor, error) {
	p, err := s.GetPersonByEmail(ctx, email)
	if err != nil {
		return model.Instructor{}, err
	}
	in, err := scanInstructor(s.queryRow(ctx, instructorSelect+` WHERE i.person_id = ?`, p.ID))
	return in, notFound(err)
}

// ListInstructors returns all instructors ordered by ID.
func (s *Store) ListInstructors(ctx context.Context) ([]model.Instructor, error) {
	rows, err := s.query(ctx, instructorSelect+` ORDER BY i.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Instructor
	for rows.Next() {
		in, err := scanInstructor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// AssignCourse records that an instructor teaches a course. Repeats are ignored.
func (s *Store) AssignCourse(ctx context.Context, instructorID, courseID int64) error {
	_, err := s.exec(ctx,
		`INSERT INTO teaching (instructor_id, course_id) VALUES (?, ?)
		 ON CONFLICT (instructor_id, course_id) DO NOTHING`,
		instructorID, courseID,
	)
	return err
}

// Teaches reports whether the instructor is assigned to the course.
func (s *Store) Teaches(ctx context.Context, instructorID, courseID int64) (bool, error) {
	n, err := s.count(ctx,
		`SELECT COUNT(*) FROM teaching WHERE instructor_id = ? AND course_id = ?`, instructorID, courseID)
	return n > 0, err
}

// InstructorCourses returns the courses an instructor teaches, by name.
func (s *Store) InstructorCourses(ctx context.Context, instructorID int64) ([]model.Course, error) {
	return s.listCourses(ctx, courseSelect+`
		JOIN teaching te ON te.course_id = c.id
		WHERE te.instructor_id = ?
		ORDER BY c.name`, instructorID)
}

// InstructorExams returns the exams owned by an instructor.
func (s *Store) InstructorExams(ctx context.Context, instructorID int64) ([]model.Exam, error) {
	return s.listExams(ctx, examSelect+` WHERE e.instructor_id = ? ORDER BY e.year DESC, e.semester DESC, e.id`, instructorID)
}

// ExamResults lists the students who attempted an exam, newest first.
func (s *Store) ExamResults(ctx context.Context, examID int64) ([]model.ExamResult, error) {
	rows, err := s.query(ctx, `
		SELECT s.id, p.first_name, p.last_name, p.email, t.score, t.grade, t.taken_at
		FROM takes t
		JOIN students s ON s.id = t.student_id
		JOIN persons p ON p.id = s.person_id
		WHERE t.exam_id = ?
		ORDER BY t.taken_at DESC, t.id DESC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ExamResult
	for rows.Next() {
		var r model.ExamResult
		if err := rows.Scan(&r.StudentID, &r.FirstName, &r.LastName, &r.Email, &r.Score, &r.Grade, &r.TakenAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
