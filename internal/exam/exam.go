// Package exam implements the exam attempt workflow: starting an attempt,
// loading the question sheet, recording answers and grading a submission.
package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/examsys/internal/model"
	"github.com/pavelanni/examsys/internal/store"
)

var (
	// ErrAlreadyTaken is returned when the student already has an attempt at the exam.
	ErrAlreadyTaken = errors.New("exam already taken")
	// ErrNotReady is returned when the exam has no loadable questions.
	ErrNotReady = errors.New("exam has no questions")
	// ErrExamNotFound is returned when the exam does not exist.
	ErrExamNotFound = errors.New("exam not found")
	// ErrNoActiveAttempt is returned when an answer or submission has no attempt to attach to.
	ErrNoActiveAttempt = errors.New("no active attempt")
)

// Repository is the data access the workflow needs. *store.Store satisfies it.
type Repository interface {
	GetExam(ctx context.Context, id int64) (model.Exam, error)
	FindAttempt(ctx context.Context, studentID, examID int64) (model.Attempt, error)
	GetAttempt(ctx context.Context, id int64) (model.Attempt, error)
	CreateAttempt(ctx context.Context, studentID, examID int64, now time.Time) (int64, error)
	FinalizeAttempt(ctx context.Context, id int64, score float64, grade string, now time.Time) error
	ExamQuestions(ctx context.Context, examID int64) ([]model.LoadedQuestion, error)
	Choices(ctx context.Context, questionID int64) ([]model.Choice, error)
	ChoiceCorrect(ctx context.Context, questionID, choiceID int64) (bool, error)
	UpsertAnswer(ctx context.Context, a model.StudentAnswer) error
}

// Result is the outcome of a graded submission.
type Result struct {
	Score      float64
	TotalMarks float64
	Percentage float64
	Grade      string
	Answered   int
	Questions  int
}

// Workflow runs the attempt lifecycle against a Repository.
type Workflow struct {
	repo Repository
	now  func() time.Time
}

// NewWorkflow returns a Workflow backed by repo.
func NewWorkflow(repo Repository) *Workflow {
	return &Workflow{repo: repo, now: time.Now}
}

// StartAttempt creates an in-progress attempt for the student and returns its ID.
// The one-attempt rule is a check followed by an insert; two concurrent
// starts for the same pair can both succeed.
func (w *Workflow) StartAttempt(ctx context.Context, studentID, examID int64) (int64, error) {
	if _, err := w.repo.GetExam(ctx, examID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrExamNotFound
		}
		return 0, fmt.Errorf("get exam %d: %w", examID, err)
	}

	_, err := w.repo.FindAttempt(ctx, studentID, examID)
	switch {
	case err == nil:
		return 0, ErrAlreadyTaken
	case !errors.Is(err, store.ErrNotFound):
		return 0, fmt.Errorf("find attempt: %w", err)
	}

	questions, err := w.LoadQuestions(ctx, examID)
	if err != nil {
		return 0, err
	}
	if len(questions) == 0 {
		return 0, ErrNotReady
	}

	id, err := w.repo.CreateAttempt(ctx, studentID, examID, w.now())
	if err != nil {
		return 0, fmt.Errorf("create attempt: %w", err)
	}
	slog.Info("attempt started", "attempt_id", id, "student_id", studentID, "exam_id", examID)
	return id, nil
}

// LoadQuestions returns the exam's question sheet in position order.
// Multiple-choice questions carry their choices. An exam with nothing linked
// yields an empty slice.
func (w *Workflow) LoadQuestions(ctx context.Context, examID int64) ([]model.LoadedQuestion, error) {
	questions, err := w.repo.ExamQuestions(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load questions for exam %d: %w", examID, err)
	}
	out := make([]model.LoadedQuestion, 0, len(questions))
	for _, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		if q.Type == model.QuestionMultipleChoice {
			choices, err := w.repo.Choices(ctx, q.ID)
			if err != nil {
				return nil, fmt.Errorf("load choices for question %d: %w", q.ID, err)
			}
			for _, c := range choices {
				if strings.TrimSpace(c.Text) != "" {
					q.Choices = append(q.Choices, c)
				}
			}
		}
		out = append(out, q)
	}
	return out, nil
}

// RecordAnswer stores the selection for one question of an attempt,
// overwriting any earlier answer. Empty selections are ignored.
func (w *Workflow) RecordAnswer(ctx context.Context, attemptID, questionID int64, sel model.Selection) error {
	if attemptID == 0 {
		return ErrNoActiveAttempt
	}
	if sel.Empty() {
		return nil
	}
	a := model.StudentAnswer{
		AttemptID:   attemptID,
		QuestionID:  questionID,
		ChoiceID:    sel.ChoiceID,
		SubmittedAt: w.now(),
	}
	if text := strings.TrimSpace(sel.Text); text != "" {
		a.Text = &text
	}
	if err := w.repo.UpsertAnswer(ctx, a); err != nil {
		return fmt.Errorf("record answer for question %d: %w", questionID, err)
	}
	return nil
}

// SubmitAttempt records every submitted answer, scores multiple-choice
// questions and writes the score and letter grade onto the attempt.
// True-false and essay answers are stored but earn nothing automatically.
// Submitting the same attempt again regrades and overwrites it.
func (w *Workflow) SubmitAttempt(ctx context.Context, attemptID, examID int64, answers map[int64]model.Selection) (Result, error) {
	if attemptID == 0 {
		return Result{}, ErrNoActiveAttempt
	}
	if _, err := w.repo.GetAttempt(ctx, attemptID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, ErrNoActiveAttempt
		}
		return Result{}, fmt.Errorf("get attempt %d: %w", attemptID, err)
	}
	exam, err := w.repo.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, ErrExamNotFound
		}
		return Result{}, fmt.Errorf("get exam %d: %w", examID, err)
	}
	questions, err := w.LoadQuestions(ctx, examID)
	if err != nil {
		return Result{}, err
	}

	res := Result{TotalMarks: exam.TotalMarks, Questions: len(questions)}
	for _, q := range questions {
		sel, ok := answers[q.ID]
		if !ok || sel.Empty() {
			continue
		}
		res.Answered++
		if err := w.RecordAnswer(ctx, attemptID, q.ID, sel); err != nil {
			return Result{}, err
		}
		if q.Type != model.QuestionMultipleChoice || sel.ChoiceID == nil {
			continue
		}
		correct, err := w.repo.ChoiceCorrect(ctx, q.ID, *sel.ChoiceID)
		if err != nil {
			return Result{}, fmt.Errorf("check choice %d: %w", *sel.ChoiceID, err)
		}
		if correct {
			res.Score += q.Marks
		}
	}

	res.Percentage = Percentage(res.Score, exam.TotalMarks)
	res.Grade = LetterGrade(res.Percentage)
	if err := w.repo.FinalizeAttempt(ctx, attemptID, res.Score, res.Grade, w.now()); err != nil {
		return Result{}, fmt.Errorf("finalize attempt %d: %w", attemptID, err)
	}
	slog.Info("attempt submitted",
		"attempt_id", attemptID, "exam_id", examID,
		"score", res.Score, "percentage", res.Percentage, "grade", res.Grade,
		"answered", res.Answered, "questions", res.Questions,
	)
	return res, nil
}

// Percentage converts a score to a percentage of totalMarks. An exam with no
// total set is scored out of 100; a negative total yields 0.
func Percentage(score, totalMarks float64) float64 {
	switch {
	case totalMarks == 0:
		totalMarks = 100
	case totalMarks < 0:
		return 0
	}
	return score / totalMarks * 100
}

// LetterGrade maps a percentage to A-F. Lower bounds are inclusive.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}
