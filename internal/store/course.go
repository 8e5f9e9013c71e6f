package store

import (
	"context"
	"strings"

	"github.com/pavelanni/examsys/internal/model"
)

const courseSelect = `SELECT c.id, c.name, c.hours, c.topic_id, c.department_id,
	COALESCE(t.name, ''), COALESCE(d.name, '')
	FROM courses c
	LEFT JOIN topics t ON t.id = c.topic_id
	LEFT JOIN departments d ON d.id = c.department_id`

func (s *Store) listCourses(ctx context.Context, query string, args ...any) ([]model.Course, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Hours, &c.TopicID, &c.DepartmentID, &c.TopicName, &c.DepartmentName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCourses returns all courses by name.
func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.listCourses(ctx, courseSelect+` ORDER BY c.name`)
}

// GetCourse returns a course by ID.
func (s *Store) GetCourse(ctx context.Context, id int64) (model.Course, error) {
	cs, err := s.listCourses(ctx, courseSelect+` WHERE c.id = ?`, id)
	if err != nil {
		return model.Course{}, err
	}
	if len(cs) == 0 {
		return model.Course{}, ErrNotFound
	}
	return cs[0], nil
}

// FindCourseByName returns the first course with the given name.
func (s *Store) FindCourseByName(ctx context.Context, name string) (model.Course, error) {
	cs, err := s.listCourses(ctx, courseSelect+` WHERE c.name = ? ORDER BY c.id LIMIT 1`, strings.TrimSpace(name))
	if err != nil {
		return model.Course{}, err
	}
	if len(cs) == 0 {
		return model.Course{}, ErrNotFound
	}
	return cs[0], nil
}

// CreateCourse inserts a course. Empty topic or department names leave the
// soft reference unset.
func (s *Store) CreateCourse(ctx context.Context, name string, hours int, topic, department string) (int64, error) {
	var topicID, deptID *int64
	if topic = strings.TrimSpace(topic); topic != "" {
		id, err := s.ensureNamed(ctx, "topics", topic)
		if err != nil {
			return 0, err
		}
		topicID = &id
	}
	if department = strings.TrimSpace(department); department != "" {
		id, err := s.ensureNamed(ctx, "departments", department)
		if err != nil {
			return 0, err
		}
		deptID = &id
	}
	return s.insertID(ctx,
		`INSERT INTO courses (name, hours, topic_id, department_id) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(name), hours, topicID, deptID,
	)
}

// ensureNamed returns the ID of the named row in a name-keyed lookup table,
// creating it when missing.
func (s *Store) ensureNamed(ctx context.Context, table, name string) (int64, error) {
	var id int64
	err := s.queryRow(ctx, `SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if notFound(err) != ErrNotFound {
		return 0, err
	}
	return s.insertID(ctx, `INSERT INTO `+table+` (name) VALUES (?)`, name)
}
