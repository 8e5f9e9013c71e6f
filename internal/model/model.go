package model

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Role is the role tag carried by a Person.
type Role string

const (
	// RoleStudent takes exams.
	RoleStudent Role = "Student"
	// RoleInstructor creates exams and reviews results.
	RoleInstructor Role = "Instructor"
	// RoleManager views aggregate statistics.
	RoleManager Role = "Manager"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleManager:
		return true
	}
	return false
}

// ParseRole matches a role tag case-insensitively.
func ParseRole(s string) (Role, error) {
	for _, r := range []Role{RoleStudent, RoleInstructor, RoleManager} {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Person is an identity record.
type Person struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// FullName joins first and last name.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Student is the role profile of a Person who takes exams.
type Student struct {
	ID        int64
	PersonID  int64
	Graduated bool
	FirstName string
	LastName  string
	Email     string
}

// Instructor is the role profile of a Person who owns exams.
type Instructor struct {
	ID        int64
	PersonID  int64
	Salary    float64
	FirstName string
	LastName  string
	Email     string
}

// Manager is the role profile of a Person with read access to statistics.
type Manager struct {
	ID       int64
	PersonID int64
	Salary   float64
}

// Course is a subject, optionally attached to a topic and a department.
type Course struct {
	ID             int64
	Name           string
	Hours          int
	TopicID        *int64
	DepartmentID   *int64
	TopicName      string
	DepartmentName string
}

// DefaultExamDuration is used when an exam is created without an allotted time.
const DefaultExamDuration = 90 * time.Minute

// Exam belongs to one course and one instructor.
type Exam struct {
	ID           int64
	CourseID     int64
	InstructorID int64
	CourseName   string
	Semester     string
	Year         int
	TotalMarks   float64
	Duration     time.Duration
}

// QuestionType tags how a question is answered and graded.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MCQ"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionEssay          QuestionType = "ESSAY"
)

// ParseQuestionType normalizes the loose type tags found in question banks
// ("MCQ", "Multiple Choice", "True/False", "essay", ...). Anything that is
// neither multiple-choice nor true-false is treated as an essay.
func ParseQuestionType(s string) QuestionType {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.Contains(u, "MCQ"), strings.Contains(u, "MULTIPLE"):
		return QuestionMultipleChoice
	case strings.Contains(u, "TRUE"):
		return QuestionTrueFalse
	default:
		return QuestionEssay
	}
}

// Question is a reusable exam item.
type Question struct {
	ID         int64
	Type       QuestionType
	Text       string
	Difficulty string
}

// ExamQuestion assigns a question to an exam with a mark weight and position.
type ExamQuestion struct {
	ExamID     int64
	QuestionID int64
	Marks      float64
	Position   int
}

// Choice is one selectable option of a multiple-choice question.
type Choice struct {
	ID         int64
	QuestionID int64
	Text       string
	Correct    bool
}

// Attempt is one student's single recorded instance of taking one exam.
// A nil Grade means the attempt is still in progress.
type Attempt struct {
	ID        int64
	StudentID int64
	ExamID    int64
	Score     float64
	Grade     *string
	TakenAt   time.Time
}

// Graded reports whether the attempt has been submitted.
func (a Attempt) Graded() bool { return a.Grade != nil }

// StudentAnswer is the stored answer of one attempt to one question.
type StudentAnswer struct {
	ID          int64
	AttemptID   int64
	QuestionID  int64
	ChoiceID    *int64
	Text        *string
	SubmittedAt time.Time
}

// Selection is a submitted answer: a choice reference or free text.
type Selection struct {
	ChoiceID *int64
	Text     string
}

// Empty reports whether nothing was selected or typed.
func (s Selection) Empty() bool {
	return s.ChoiceID == nil && strings.TrimSpace(s.Text) == ""
}

// LoadedQuestion is a question as it appears on an exam sheet.
type LoadedQuestion struct {
	Question
	Marks    float64
	Position int
	Choices  []Choice
}

// Session is the server-side state behind the session cookie.
// AttemptID and ExamID are only set while an exam is in progress.
type Session struct {
	ID           string
	PersonID     int64
	Role         Role
	ProfileID    int64
	DisplayName  string
	AttemptID    *int64
	ExamID       *int64
	FlashKind    string
	FlashMessage string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// ActiveExam returns the in-progress attempt and exam IDs, if any.
func (s *Session) ActiveExam() (attemptID, examID int64, ok bool) {
	if s == nil || s.AttemptID == nil || s.ExamID == nil {
		return 0, 0, false
	}
	return *s.AttemptID, *s.ExamID, true
}

// CompletedExam is a row of a student's exam history.
type CompletedExam struct {
	AttemptID  int64
	ExamID     int64
	CourseName string
	Score      float64
	TotalMarks float64
	Grade      *string
	TakenAt    time.Time
}

// ExamResult is one student's attempt as seen by the instructor.
type ExamResult struct {
	StudentID int64
	FirstName string
	LastName  string
	Email     string
	Score     float64
	Grade     *string
	TakenAt   time.Time
}

// ExamSummary is an exam with the number of linked questions.
type ExamSummary struct {
	Exam
	QuestionCount int
	AttemptCount  int
}

// Overview holds the manager dashboard counters.
type Overview struct {
	Students     int
	Instructors  int
	Courses      int
	Exams        int
	Attempts     int
	AverageScore float64
}

// GradeBands counts students by the band their average score falls in.
type GradeBands struct {
	Excellent  int // >= 90
	VeryGood   int // 80..90
	Good       int // 70..80
	Acceptable int // 60..70
	Weak       int // < 60
}

// TopStudent is a row of the manager's top-performers table.
type TopStudent struct {
	StudentID int64
	FirstName string
	LastName  string
	Email     string
	Average   float64
	Exams     int
}

// AppConfig holds runtime parameters set via flags, env or config file.
type AppConfig struct {
	Lang          string
	SecureCookies bool
	SessionTTL    time.Duration
}

type sessionCtxKey struct{}

// ContextWithSession stores the authenticated session in the request context.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext retrieves the authenticated session from context, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return s
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
