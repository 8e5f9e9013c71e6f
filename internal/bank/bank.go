// Package bank imports courses, exams and questions from JSON question banks.
package bank

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/examsys/internal/model"
	"github.com/pavelanni/examsys/internal/store"
)

// ErrUnchanged is returned when the same file content was already imported.
var ErrUnchanged = errors.New("question bank already imported")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Result counts what an import created.
type Result struct {
	Courses   int
	Exams     int
	Questions int
	Choices   int
}

// Parse decodes and validates a question bank document.
func Parse(data []byte) (model.BankImport, error) {
	var b model.BankImport
	if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parse JSON: %w", err)
	}
	if err := validate.Struct(b); err != nil {
		return b, fmt.Errorf("validate: %w", err)
	}
	for i, e := range b.Exams {
		if _, err := model.ParseClock(e.Time); err != nil {
			return b, fmt.Errorf("exam %d: %w", i+1, err)
		}
	}
	return b, nil
}

// Import loads a question bank file into the store. A file whose name and
// SHA-256 match a previous import is skipped with ErrUnchanged. Rows are
// inserted one by one; a failure part-way leaves earlier rows in place.
func Import(ctx context.Context, st *store.Store, name string, data []byte) (Result, error) {
	var res Result
	sum := sha256sum(data)
	stored, err := st.ImportedHash(ctx, name)
	if err != nil {
		return res, fmt.Errorf("check import status for %s: %w", name, err)
	}
	if stored == sum {
		return res, ErrUnchanged
	}

	b, err := Parse(data)
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}

	for _, ci := range b.Courses {
		courseID, created, err := ensureCourse(ctx, st, ci)
		if err != nil {
			return res, err
		}
		if created {
			res.Courses++
		}
		for _, email := range ci.Instructors {
			in, err := st.GetInstructorByEmail(ctx, email)
			if err != nil {
				return res, fmt.Errorf("course %q: instructor %s: %w", ci.Name, email, err)
			}
			if err := st.AssignCourse(ctx, in.ID, courseID); err != nil {
				return res, fmt.Errorf("assign %s to %q: %w", email, ci.Name, err)
			}
		}
	}

	for _, ei := range b.Exams {
		n, err := importExam(ctx, st, ei)
		if err != nil {
			return res, err
		}
		res.Exams++
		res.Questions += n.Questions
		res.Choices += n.Choices
	}

	if err := st.RecordImport(ctx, name, sum); err != nil {
		return res, fmt.Errorf("record import for %s: %w", name, err)
	}
	slog.Info("imported question bank", "file", name,
		"courses", res.Courses, "exams", res.Exams, "questions", res.Questions, "choices", res.Choices)
	return res, nil
}

func ensureCourse(ctx context.Context, st *store.Store, ci model.CourseImport) (int64, bool, error) {
	c, err := st.FindCourseByName(ctx, ci.Name)
	if err == nil {
		return c.ID, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, false, fmt.Errorf("find course %q: %w", ci.Name, err)
	}
	id, err := st.CreateCourse(ctx, ci.Name, ci.Hours, ci.Topic, ci.Department)
	if err != nil {
		return 0, false, fmt.Errorf("create course %q: %w", ci.Name, err)
	}
	return id, true, nil
}

func importExam(ctx context.Context, st *store.Store, ei model.ExamImport) (Result, error) {
	var res Result
	course, err := st.FindCourseByName(ctx, ei.Course)
	if err != nil {
		return res, fmt.Errorf("exam for %q: course: %w", ei.Course, err)
	}
	in, err := st.GetInstructorByEmail(ctx, ei.Instructor)
	if err != nil {
		return res, fmt.Errorf("exam for %q: instructor %s: %w", ei.Course, ei.Instructor, err)
	}
	dur, _ := model.ParseClock(ei.Time)
	examID, err := st.CreateExam(ctx, model.Exam{
		CourseID:     course.ID,
		InstructorID: in.ID,
		Semester:     strings.TrimSpace(ei.Semester),
		Year:         ei.Year,
		TotalMarks:   ei.TotalMarks,
		Duration:     dur,
	})
	if err != nil {
		return res, fmt.Errorf("create exam for %q: %w", ei.Course, err)
	}

	for i, qi := range ei.Questions {
		typ := model.ParseQuestionType(qi.Type)
		qid, err := st.CreateQuestion(ctx, model.Question{Type: typ, Text: qi.Text, Difficulty: qi.Difficulty})
		if err != nil {
			return res, fmt.Errorf("exam %d question %d: %w", examID, i+1, err)
		}
		res.Questions++
		if err := st.LinkQuestion(ctx, model.ExamQuestion{ExamID: examID, QuestionID: qid, Marks: qi.Marks, Position: i + 1}); err != nil {
			return res, err
		}
		if typ != model.QuestionMultipleChoice {
			continue
		}
		for _, ch := range qi.Choices {
			if _, err := st.CreateChoice(ctx, model.Choice{QuestionID: qid, Text: ch.Text, Correct: ch.Correct}); err != nil {
				return res, fmt.Errorf("question %d choice: %w", qid, err)
			}
			res.Choices++
		}
	}
	return res, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
