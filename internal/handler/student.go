package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/examsys/internal/exam"
	"github.com/pavelanni/examsys/internal/handler/views"
	appI18n "github.com/pavelanni/examsys/internal/i18n"
	"github.com/pavelanni/examsys/internal/llm"
	"github.com/pavelanni/examsys/internal/model"
)

const (
	studentDashboard = "/student/dashboard"
	adviceTimeout    = 20 * time.Second
)

func (h *Handler) handleStudentDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := model.SessionFromContext(ctx)

	available, err := h.store.AvailableExams(ctx, sess.ProfileID)
	if err != nil {
		internalError(w, r, "failed to list available exams", err)
		return
	}
	completed, err := h.store.CompletedExams(ctx, sess.ProfileID)
	if err != nil {
		internalError(w, r, "failed to list completed exams", err)
		return
	}
	avg, err := h.store.AverageScore(ctx, sess.ProfileID)
	if err != nil {
		internalError(w, r, "failed to compute average score", err)
		return
	}
	_, activeExam, _ := sess.ActiveExam()
	h.render(w, r, views.StudentDashboard(views.StudentDashboardData{
		Available:    available,
		Completed:    completed,
		AverageScore: avg,
		ActiveExamID: activeExam,
	}))
}

// handleTakeExam starts an attempt, or resumes the one held by the session,
// and renders the exam sheet with any answers saved so far.
func (h *Handler) handleTakeExam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := model.SessionFromContext(ctx)
	examID, ok := urlID(r, "examID")
	if !ok {
		h.redirectFlash(w, r, studentDashboard, flashError, "ExamNotFound")
		return
	}

	attemptID, activeExam, active := sess.ActiveExam()
	switch {
	case active && activeExam == examID:
	case active:
		h.redirectFlash(w, r, studentDashboard, flashWarning, "FinishActiveExam")
		return
	default:
		id, err := h.workflow.StartAttempt(ctx, sess.ProfileID, examID)
		if err != nil {
			h.startFailed(w, r, examID, err)
			return
		}
		if err := h.store.SetActiveExam(ctx, sess.ID, id, examID); err != nil {
			h.serverError(w, r, studentDashboard, "failed to store active exam", err)
			return
		}
		attemptID = id
	}

	e, err := h.store.GetExam(ctx, examID)
	if err != nil {
		h.serverError(w, r, studentDashboard, "failed to get exam", err)
		return
	}
	sheet, err := h.examSheet(ctx, attemptID, examID)
	if err != nil {
		slog.Error("failed to load exam sheet", "exam_id", examID, "error", err)
		h.redirectFlash(w, r, studentDashboard, flashError, "ExamNotReady")
		return
	}
	h.render(w, r, views.ExamPage(views.ExamPageData{Exam: e, Questions: sheet}))
}

func (h *Handler) startFailed(w http.ResponseWriter, r *http.Request, examID int64, err error) {
	switch {
	case errors.Is(err, exam.ErrAlreadyTaken):
		h.redirectFlash(w, r, studentDashboard, flashWarning, "ExamAlreadyTaken")
	case errors.Is(err, exam.ErrNotReady):
		h.redirectFlash(w, r, studentDashboard, flashWarning, "ExamNotReady")
	case errors.Is(err, exam.ErrExamNotFound):
		h.redirectFlash(w, r, studentDashboard, flashError, "ExamNotFound")
	default:
		h.serverError(w, r, studentDashboard, fmt.Sprintf("failed to start exam %d", examID), err)
	}
}

// examSheet loads the questions of an exam and fills in saved answers.
func (h *Handler) examSheet(ctx context.Context, attemptID, examID int64) ([]views.SheetQuestion, error) {
	questions, err := h.workflow.LoadQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, exam.ErrNotReady
	}
	saved, err := h.store.AnswersForAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("answers for attempt %d: %w", attemptID, err)
	}
	byQuestion := make(map[int64]model.StudentAnswer, len(saved))
	for _, a := range saved {
		byQuestion[a.QuestionID] = a
	}

	sheet := make([]views.SheetQuestion, len(questions))
	for i, q := range questions {
		sq := views.SheetQuestion{LoadedQuestion: q, Number: i + 1}
		if a, ok := byQuestion[q.ID]; ok {
			if a.ChoiceID != nil {
				sq.SelectedChoice = *a.ChoiceID
			}
			if a.Text != nil {
				sq.Answer = *a.Text
			}
		}
		sheet[i] = sq
	}
	return sheet, nil
}

// selection reads the form value q_<id> according to the question type.
func selection(r *http.Request, q model.LoadedQuestion) model.Selection {
	v := strings.TrimSpace(r.PostFormValue("q_" + strconv.FormatInt(q.ID, 10)))
	if v == "" {
		return model.Selection{}
	}
	if q.Type == model.QuestionMultipleChoice {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return model.Selection{}
		}
		return model.Selection{ChoiceID: &id}
	}
	return model.Selection{Text: v}
}

// handleSaveAnswer stores the answers of the active attempt without
// submitting it and returns to the question whose button was pressed.
func (h *Handler) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := model.SessionFromContext(ctx)
	attemptID, examID, ok := sess.ActiveExam()
	if !ok {
		h.redirectFlash(w, r, studentDashboard, flashWarning, "NoActiveAttempt")
		return
	}
	back := fmt.Sprintf("/student/exam/%d", examID)

	questionID, err := strconv.ParseInt(r.PostFormValue("question_id"), 10, 64)
	if err != nil {
		h.redirectFlash(w, r, back, flashError, "InvalidForm")
		return
	}
	questions, err := h.workflow.LoadQuestions(ctx, examID)
	if err != nil {
		h.serverError(w, r, back, "failed to load questions", err)
		return
	}
	found := false
	for _, q := range questions {
		if q.ID == questionID {
			found = true
			break
		}
	}
	if !found {
		h.redirectFlash(w, r, back, flashError, "InvalidForm")
		return
	}

	// Every Save button posts the whole sheet, so keep all filled-in answers.
	for _, q := range questions {
		sel := selection(r, q)
		if sel.Empty() {
			continue
		}
		if err := h.workflow.RecordAnswer(ctx, attemptID, q.ID, sel); err != nil {
			h.serverError(w, r, back, "failed to record answer", err)
			return
		}
	}
	h.flash(w, r, flashSuccess, "AnswerSaved", nil)
	http.Redirect(w, r, fmt.Sprintf("%s#q%d", back, questionID), http.StatusSeeOther)
}

func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := model.SessionFromContext(ctx)
	attemptID, examID, ok := sess.ActiveExam()
	if !ok {
		h.redirectFlash(w, r, studentDashboard, flashWarning, "NoActiveAttempt")
		return
	}

	questions, err := h.workflow.LoadQuestions(ctx, examID)
	if err != nil {
		h.serverError(w, r, studentDashboard, "failed to load questions", err)
		return
	}
	answers := make(map[int64]model.Selection, len(questions))
	for _, q := range questions {
		if sel := selection(r, q); !sel.Empty() {
			answers[q.ID] = sel
		}
	}

	res, err := h.workflow.SubmitAttempt(ctx, attemptID, examID, answers)
	if err != nil {
		if errors.Is(err, exam.ErrNoActiveAttempt) || errors.Is(err, exam.ErrExamNotFound) {
			if cerr := h.store.ClearActiveExam(ctx, sess.ID); cerr != nil {
				slog.Error("failed to clear active exam", "error", cerr)
			}
			h.redirectFlash(w, r, studentDashboard, flashWarning, "NoActiveAttempt")
			return
		}
		h.serverError(w, r, fmt.Sprintf("/student/exam/%d", examID), "failed to submit attempt", err)
		return
	}
	if err := h.store.ClearActiveExam(ctx, sess.ID); err != nil {
		slog.Error("failed to clear active exam", "error", err)
	}

	e, err := h.store.GetExam(ctx, examID)
	if err != nil {
		h.serverError(w, r, studentDashboard, "failed to get exam", err)
		return
	}
	h.flash(w, r, flashSuccess, "ExamSubmitted", nil)
	h.render(w, r, views.ExamResultPage(views.ExamResultData{Exam: e, Result: res}))
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := model.SessionFromContext(ctx)

	ins, err := h.insights.StudentInsights(ctx, sess.ProfileID)
	if err != nil {
		h.serverError(w, r, studentDashboard, "failed to compute insights", err)
		return
	}
	pred, err := h.insights.StudentPrediction(ctx, sess.ProfileID)
	if err != nil {
		h.serverError(w, r, studentDashboard, "failed to compute prediction", err)
		return
	}
	history, err := h.store.CompletedExams(ctx, sess.ProfileID)
	if err != nil {
		h.serverError(w, r, studentDashboard, "failed to list completed exams", err)
		return
	}

	data := views.InsightsData{Insights: ins, Prediction: pred, History: history}
	if h.advisor != nil && data.HasData() {
		actx, cancel := context.WithTimeout(ctx, adviceTimeout)
		advice, err := h.advisor.Advise(actx, llm.AdviceRequest{
			Lang:        appI18n.Lang(ctx),
			StudentName: sess.DisplayName,
			Insights:    ins,
			Prediction:  pred,
			RecentExams: history,
		})
		cancel()
		if err != nil {
			slog.Warn("advisor unavailable", "student_id", sess.ProfileID, "error", err)
		} else {
			data.Advice = advice
		}
	}
	h.render(w, r, views.InsightsPage(data))
}
