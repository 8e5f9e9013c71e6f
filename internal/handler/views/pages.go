package views

import (
	"github.com/a-h/templ"

	"github.com/pavelanni/examsys/internal/exam"
	"github.com/pavelanni/examsys/internal/insights"
	"github.com/pavelanni/examsys/internal/model"
)

// LoginPage renders the sign-in form.
func LoginPage(email string) templ.Component {
	return page("login", struct{ Email string }{email})
}

// StudentDashboardData feeds the student dashboard.
type StudentDashboardData struct {
	Available    []model.Exam
	Completed    []model.CompletedExam
	AverageScore float64
	ActiveExamID int64
}

// StudentDashboard renders the student's available and completed exams.
func StudentDashboard(d StudentDashboardData) templ.Component {
	return page("student_dashboard", d)
}

// SheetQuestion is a question on the exam sheet with any saved answer.
type SheetQuestion struct {
	model.LoadedQuestion
	Number         int
	SelectedChoice int64
	Answer         string
}

// IsMultipleChoice reports whether the question is answered by picking a choice.
func (q SheetQuestion) IsMultipleChoice() bool { return q.Type == model.QuestionMultipleChoice }

// IsTrueFalse reports whether the question is a true-false item.
func (q SheetQuestion) IsTrueFalse() bool { return q.Type == model.QuestionTrueFalse }

// ExamPageData feeds the exam sheet.
type ExamPageData struct {
	Exam      model.Exam
	Questions []SheetQuestion
}

// ExamPage renders the exam sheet of an in-progress attempt.
func ExamPage(d ExamPageData) templ.Component {
	return page("exam", d)
}

// ExamResultData feeds the submission result page.
type ExamResultData struct {
	Exam   model.Exam
	Result exam.Result
}

// ExamResultPage renders the graded outcome of a submission.
func ExamResultPage(d ExamResultData) templ.Component {
	return page("exam_result", d)
}

// InsightsData feeds the student insights page.
type InsightsData struct {
	Insights   insights.Insights
	Prediction insights.Prediction
	History    []model.CompletedExam
	Advice     string
}

// HasData reports whether there is anything to analyze.
func (d InsightsData) HasData() bool { return d.Insights.Status == insights.StatusOK }

// HasPrediction reports whether a forecast could be made.
func (d InsightsData) HasPrediction() bool { return d.Prediction.Status == insights.StatusOK }

// InsightsPage renders performance statistics and the forecast.
func InsightsPage(d InsightsData) templ.Component {
	return page("insights", d)
}

// InstructorDashboardData feeds the instructor dashboard.
type InstructorDashboardData struct {
	Courses []model.Course
	Exams   []model.ExamSummary
}

// InstructorDashboard renders the instructor's courses and exams.
func InstructorDashboard(d InstructorDashboardData) templ.Component {
	return page("instructor_dashboard", d)
}

// ExamStudentsData feeds the per-exam results page.
type ExamStudentsData struct {
	Exam         model.Exam
	Results      []model.ExamResult
	Questions    []model.LoadedQuestion
	NextPosition int
}

// ExamStudentsPage renders who took an exam and its question sheet.
func ExamStudentsPage(d ExamStudentsData) templ.Component {
	return page("exam_students", d)
}

// ManagerDashboardData feeds the manager dashboard.
type ManagerDashboardData struct {
	Overview model.Overview
	Top      []model.TopStudent
}

// ManagerDashboard renders the aggregate counters.
func ManagerDashboard(d ManagerDashboardData) templ.Component {
	return page("manager_dashboard", d)
}

// StudentsList renders all students.
func StudentsList(students []model.Student) templ.Component {
	return page("manager_students", students)
}

// InstructorsList renders all instructors.
func InstructorsList(instructors []model.Instructor) templ.Component {
	return page("manager_instructors", instructors)
}

// CoursesList renders all courses.
func CoursesList(courses []model.Course) templ.Component {
	return page("manager_courses", courses)
}

// ExamsList renders all exams with question and attempt counts.
func ExamsList(exams []model.ExamSummary) templ.Component {
	return page("manager_exams", exams)
}

// AnalyticsData feeds the manager analytics page.
type AnalyticsData struct {
	Bands model.GradeBands
	Top   []model.TopStudent
}

// AnalyticsPage renders the grade distribution and top students.
func AnalyticsPage(d AnalyticsData) templ.Component {
	return page("manager_analytics", d)
}

// UsersPage renders the account creation form.
func UsersPage(roles []model.Role) templ.Component {
	return page("manager_users", roles)
}

// ImportPage renders the question bank upload form.
func ImportPage() templ.Component {
	return page("manager_import", nil)
}
