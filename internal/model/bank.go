package model

import (
	"fmt"
	"strings"
	"time"
)

// BankImport is the JSON document accepted by the import command.
type BankImport struct {
	Courses []CourseImport `json:"courses" validate:"dive"`
	Exams   []ExamImport   `json:"exams" validate:"dive"`
}

// CourseImport describes a course and the instructors teaching it.
type CourseImport struct {
	Name        string   `json:"name" validate:"required"`
	Hours       int      `json:"hours" validate:"gte=0"`
	Topic       string   `json:"topic"`
	Department  string   `json:"department"`
	Instructors []string `json:"instructors" validate:"dive,email"`
}

// ExamImport describes an exam with its questions in sheet order.
type ExamImport struct {
	Course     string           `json:"course" validate:"required"`
	Instructor string           `json:"instructor" validate:"required,email"`
	Semester   string           `json:"semester" validate:"required"`
	Year       int              `json:"year" validate:"required,gte=2000,lte=2100"`
	TotalMarks float64          `json:"total_marks" validate:"required,gt=0"`
	Time       string           `json:"time"`
	Questions  []QuestionImport `json:"questions" validate:"dive"`
}

// QuestionImport describes a question and its per-exam weight.
type QuestionImport struct {
	Type       string         `json:"type" validate:"required"`
	Text       string         `json:"text" validate:"required"`
	Difficulty string         `json:"difficulty"`
	Marks      float64        `json:"marks" validate:"gte=0"`
	Choices    []ChoiceImport `json:"choices" validate:"dive"`
}

// ChoiceImport describes one multiple-choice option.
type ChoiceImport struct {
	Text    string `json:"text" validate:"required"`
	Correct bool   `json:"correct"`
}

// ParseClock parses an allotted time in HH:MM:SS or HH:MM form.
// An empty string yields DefaultExamDuration.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultExamDuration, nil
	}
	var h, m, sec int
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("parse time %q: %w", s, err)
		}
	case 3:
		if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
			return 0, fmt.Errorf("parse time %q: %w", s, err)
		}
	default:
		return 0, fmt.Errorf("parse time %q: want HH:MM:SS", s)
	}
	if h < 0 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("parse time %q: out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

// FormatClock renders a duration as HH:MM:SS.
func FormatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, int(d/time.Second))
}
