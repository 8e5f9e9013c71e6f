package handler

import (
	"net/http"

	"github.com/pavelanni/examsys/internal/handler/views"
)

const topStudentsLimit = 10

func (h *Handler) handleManagerDashboard(w http.ResponseWriter, r *http.Request) {
	ov, err := h.store.Overview(r.Context())
	if err != nil {
		internalError(w, r, "failed to compute overview", err)
		return
	}
	top, err := h.store.TopStudents(r.Context(), 5)
	if err != nil {
		internalError(w, r, "failed to list top students", err)
		return
	}
	h.render(w, r, views.ManagerDashboard(views.ManagerDashboardData{Overview: ov, Top: top}))
}

func (h *Handler) handleManagerStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents(r.Context())
	if err != nil {
		h.serverError(w, r, "/manager/dashboard", "failed to list students", err)
		return
	}
	h.render(w, r, views.StudentsList(students))
}

func (h *Handler) handleManagerInstructors(w http.ResponseWriter, r *http.Request) {
	instructors, err := h.store.ListInstructors(r.Context())
	if err != nil {
		h.serverError(w, r, "/manager/dashboard", "failed to list instructors", err)
		return
	}
	h.render(w, r, views.InstructorsList(instructors))
}

func (h *Handler) handleManagerCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses(r.Context())
	if err != nil {
		h.serverError(w, r, "/manager/dashboard", "failed to list courses", err)
		return
	}
	h.render(w, r, views.CoursesList(courses))
}

func (h *Handler) handleManagerExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExamSummaries(r.Context())
	if err != nil {
		h.serverError(w, r, "/manager/dashboard", "failed to list exams", err)
		return
	}
	h.render(w, r, views.ExamsList(exams))
}

func (h *Handler) handleManagerAnalytics(w http.ResponseWriter, r *http.Request) {
	bands, err := h.store.GradeBands(r.Context())
	if err != nil {
		h.serverError(w, r, "/manager/dashboard", "failed to compute grade bands", err)
		return
	}
	top, err := h.store.TopStudents(r.Context(), topStudentsLimit)
	if err != nil {
		h.serverError(w, r, "/manager/dashboard", "failed to list top students", err)
		return
	}
	h.render(w, r, views.AnalyticsPage(views.AnalyticsData{Bands: bands, Top: top}))
}
