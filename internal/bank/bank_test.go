package bank

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/examsys/internal/model"
	"github.com/pavelanni/examsys/internal/store"
)

const sampleBank = `{
  "courses": [
    {"name": "Databases", "hours": 45, "topic": "Data", "department": "CS", "instructors": ["ida@example.com"]}
  ],
  "exams": [
    {
      "course": "Databases",
      "instructor": "ida@example.com",
      "semester": "Fall",
      "year": 2024,
      "total_marks": 100,
      "time": "01:30:00",
      "questions": [
        {"type": "Multiple Choice", "text": "Which is a join?", "marks": 40,
         "choices": [{"text": "INNER", "correct": true}, {"text": "OUTER LOOP"}]},
        {"type": "True/False", "text": "SQL is declarative.", "marks": 20,
         "choices": [{"text": "ignored", "correct": true}]},
        {"type": "essay", "text": "Explain normalization."}
      ]
    }
  ]
}`

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(context.Background(), store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if _, _, err := st.CreatePerson(context.Background(), model.Person{
		FirstName: "Ida", Email: "ida@example.com", PasswordHash: "x", Role: model.RoleInstructor,
	}); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	return st
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	res, err := Import(ctx, st, "bank.json", []byte(sampleBank))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Courses != 1 || res.Exams != 1 || res.Questions != 3 || res.Choices != 2 {
		t.Errorf("unexpected result %+v", res)
	}

	exams, err := st.ListExamSummaries(ctx)
	if err != nil || len(exams) != 1 {
		t.Fatalf("ListExamSummaries = %+v, %v", exams, err)
	}
	if exams[0].QuestionCount != 3 || model.FormatClock(exams[0].Duration) != "01:30:00" {
		t.Errorf("unexpected exam %+v", exams[0])
	}

	qs, err := st.ExamQuestions(ctx, exams[0].ID)
	if err != nil {
		t.Fatalf("ExamQuestions: %v", err)
	}
	wantTypes := []model.QuestionType{model.QuestionMultipleChoice, model.QuestionTrueFalse, model.QuestionEssay}
	for i, q := range qs {
		if q.Type != wantTypes[i] {
			t.Errorf("question %d type = %q, want %q", i, q.Type, wantTypes[i])
		}
	}
	if qs[2].Marks != 1 {
		t.Errorf("missing marks should default to 1, got %v", qs[2].Marks)
	}

	if _, err := Import(ctx, st, "bank.json", []byte(sampleBank)); !errors.Is(err, ErrUnchanged) {
		t.Errorf("second import: expected ErrUnchanged, got %v", err)
	}
}

func TestImportUnknownInstructor(t *testing.T) {
	st := newTestStore(t)
	doc := strings.ReplaceAll(sampleBank, "ida@example.com", "ghost@example.com")
	_, err := Import(context.Background(), st, "ghost.json", []byte(doc))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown instructor, got %v", err)
	}
	sum, _ := st.ImportedHash(context.Background(), "ghost.json")
	if sum != "" {
		t.Error("failed import must not be recorded")
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing course name", `{"courses":[{"hours":1}]}`},
		{"bad instructor email", `{"exams":[{"course":"X","instructor":"nope","semester":"Fall","year":2024,"total_marks":10}]}`},
		{"zero total marks", `{"exams":[{"course":"X","instructor":"a@b.co","semester":"Fall","year":2024,"total_marks":0}]}`},
		{"bad time", `{"exams":[{"course":"X","instructor":"a@b.co","semester":"Fall","year":2024,"total_marks":10,"time":"1h"}]}`},
		{"blank question", `{"exams":[{"course":"X","instructor":"a@b.co","semester":"Fall","year":2024,"total_marks":10,"questions":[{"type":"MCQ"}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Parse([]byte(sampleBank)); err != nil {
		t.Errorf("sample bank should be valid: %v", err)
	}
}
