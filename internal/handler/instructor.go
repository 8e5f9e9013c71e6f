package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pavelanni/examsys/internal/handler/views"
	"github.com/pavelanni/examsys/internal/model"
	"github.com/pavelanni/examsys/internal/store"
)

const instructorDashboard = "/instructor/dashboard"

type examForm struct {
	CourseID   int64   `validate:"required,gt=0"`
	Semester   string  `validate:"required,max=50"`
	Year       int     `validate:"required,gte=2000,lte=2100"`
	TotalMarks float64 `validate:"required,gt=0"`
}

type questionForm struct {
	Type       model.QuestionType `validate:"required,oneof=MCQ TRUE_FALSE ESSAY"`
	Text       string             `validate:"required"`
	Difficulty string             `validate:"max=20"`
	Marks      float64            `validate:"gte=0"`
	Position   int                `validate:"gte=0"`
}

func (h *Handler) handleInstructorDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := model.SessionFromContext(ctx)

	courses, err := h.store.InstructorCourses(ctx, sess.ProfileID)
	if err != nil {
		internalError(w, r, "failed to list instructor courses", err)
		return
	}
	all, err := h.store.ListExamSummaries(ctx)
	if err != nil {
		internalError(w, r, "failed to list exams", err)
		return
	}
	var exams []model.ExamSummary
	for _, e := range all {
		if e.InstructorID == sess.ProfileID {
			exams = append(exams, e)
		}
	}
	h.render(w, r, views.InstructorDashboard(views.InstructorDashboardData{Courses: courses, Exams: exams}))
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := model.SessionFromContext(ctx)

	courseID, _ := strconv.ParseInt(r.PostFormValue("course_id"), 10, 64)
	year, _ := strconv.Atoi(r.PostFormValue("year"))
	marks, _ := strconv.ParseFloat(r.PostFormValue("total_marks"), 64)
	form := examForm{
		CourseID:   courseID,
		Semester:   strings.TrimSpace(r.PostFormValue("semester")),
		Year:       year,
		TotalMarks: marks,
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirectFlash(w, r, instructorDashboard, flashError, "InvalidForm")
		return
	}
	duration, err := model.ParseClock(r.PostFormValue("time"))
	if err != nil {
		h.redirectFlash(w, r, instructorDashboard, flashError, "InvalidForm")
		return
	}

	teaches, err := h.store.Teaches(ctx, sess.ProfileID, form.CourseID)
	if err != nil {
		h.serverError(w, r, instructorDashboard, "failed to check course assignment", err)
		return
	}
	if !teaches {
		h.redirectFlash(w, r, instructorDashboard, flashError, "NotYourCourse")
		return
	}

	id, err := h.store.CreateExam(ctx, model.Exam{
		CourseID:     form.CourseID,
		InstructorID: sess.ProfileID,
		Semester:     form.Semester,
		Year:         form.Year,
		TotalMarks:   form.TotalMarks,
		Duration:     duration,
	})
	if err != nil {
		h.serverError(w, r, instructorDashboard, "failed to create exam", err)
		return
	}
	h.flash(w, r, flashSuccess, "ExamCreated", nil)
	http.Redirect(w, r, fmt.Sprintf("/instructor/exam/%d/students", id), http.StatusSeeOther)
}

// ownExam loads an exam from the URL and checks it belongs to the session's
// instructor. On failure it has already responded.
func (h *Handler) ownExam(w http.ResponseWriter, r *http.Request) (model.Exam, bool) {
	sess := model.SessionFromContext(r.Context())
	examID, ok := urlID(r, "examID")
	if !ok {
		h.redirectFlash(w, r, instructorDashboard, flashError, "ExamNotFound")
		return model.Exam{}, false
	}
	e, err := h.store.GetExam(r.Context(), examID)
	if errors.Is(err, store.ErrNotFound) {
		h.redirectFlash(w, r, instructorDashboard, flashError, "ExamNotFound")
		return model.Exam{}, false
	}
	if err != nil {
		h.serverError(w, r, instructorDashboard, "failed to get exam", err)
		return model.Exam{}, false
	}
	if e.InstructorID != sess.ProfileID {
		h.redirectFlash(w, r, instructorDashboard, flashError, "AccessDenied")
		return model.Exam{}, false
	}
	return e, true
}

func (h *Handler) handleExamStudents(w http.ResponseWriter, r *http.Request) {
	e, ok := h.ownExam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	results, err := h.store.ExamResults(ctx, e.ID)
	if err != nil {
		h.serverError(w, r, instructorDashboard, "failed to list exam results", err)
		return
	}
	questions, err := h.workflow.LoadQuestions(ctx, e.ID)
	if err != nil {
		h.serverError(w, r, instructorDashboard, "failed to load questions", err)
		return
	}
	next, err := h.store.NextPosition(ctx, e.ID)
	if err != nil {
		h.serverError(w, r, instructorDashboard, "failed to get next position", err)
		return
	}
	h.render(w, r, views.ExamStudentsPage(views.ExamStudentsData{
		Exam:         e,
		Results:      results,
		Questions:    questions,
		NextPosition: next,
	}))
}

// handleAddQuestion links an existing question by ID, or creates a new one.
// Choices are given one per line; a leading "*" marks the correct ones.
func (h *Handler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	e, ok := h.ownExam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	back := fmt.Sprintf("/instructor/exam/%d/students", e.ID)

	marks, _ := strconv.ParseFloat(r.PostFormValue("marks"), 64)
	position, _ := strconv.Atoi(r.PostFormValue("position"))
	if position <= 0 {
		next, err := h.store.NextPosition(ctx, e.ID)
		if err != nil {
			h.serverError(w, r, back, "failed to get next position", err)
			return
		}
		position = next
	}

	var questionID int64
	if raw := strings.TrimSpace(r.PostFormValue("question_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.redirectFlash(w, r, back, flashError, "InvalidForm")
			return
		}
		if _, err := h.store.GetQuestion(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				h.redirectFlash(w, r, back, flashError, "InvalidForm")
				return
			}
			h.serverError(w, r, back, "failed to get question", err)
			return
		}
		questionID = id
	} else {
		form := questionForm{
			Type:       model.ParseQuestionType(r.PostFormValue("type")),
			Text:       strings.TrimSpace(r.PostFormValue("text")),
			Difficulty: strings.TrimSpace(r.PostFormValue("difficulty")),
			Marks:      marks,
			Position:   position,
		}
		if err := h.validate.Struct(form); err != nil {
			h.redirectFlash(w, r, back, flashError, "InvalidForm")
			return
		}
		choices := parseChoices(r.PostFormValue("choices"))
		if form.Type == model.QuestionMultipleChoice && len(choices) < 2 {
			h.redirectFlash(w, r, back, flashError, "InvalidForm")
			return
		}
		_, err := h.store.AddQuestion(ctx,
			model.Question{Type: form.Type, Text: form.Text, Difficulty: form.Difficulty},
			choices,
			model.ExamQuestion{ExamID: e.ID, Marks: marks, Position: position},
		)
		if err != nil {
			h.serverError(w, r, back, "failed to create question", err)
			return
		}
		h.redirectFlash(w, r, back, flashSuccess, "QuestionAdded")
		return
	}

	if err := h.store.LinkQuestion(ctx, model.ExamQuestion{
		ExamID:     e.ID,
		QuestionID: questionID,
		Marks:      marks,
		Position:   position,
	}); err != nil {
		h.serverError(w, r, back, "failed to link question", err)
		return
	}
	h.redirectFlash(w, r, back, flashSuccess, "QuestionAdded")
}

func parseChoices(raw string) []model.Choice {
	var out []model.Choice
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		correct := strings.HasPrefix(line, "*")
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line == "" {
			continue
		}
		out = append(out, model.Choice{Text: line, Correct: correct})
	}
	return out
}
