package model

import "time"

// ExamExport is the top-level JSON structure for exam result export.
type ExamExport struct {
	ExamID     int64           `json:"exam_id"`
	Course     string          `json:"course"`
	Semester   string          `json:"semester"`
	Year       int             `json:"year"`
	TotalMarks float64         `json:"total_marks"`
	Results    []AttemptExport `json:"results"`
}

// AttemptExport holds one student's attempt for export.
type AttemptExport struct {
	AttemptID int64          `json:"attempt_id"`
	StudentID int64          `json:"student_id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Score     float64        `json:"score"`
	Grade     *string        `json:"grade"`
	TakenAt   time.Time      `json:"taken_at"`
	Answers   []AnswerExport `json:"answers"`
}

// AnswerExport holds one stored answer for export.
type AnswerExport struct {
	QuestionID int64        `json:"question_id"`
	Type       QuestionType `json:"type"`
	Text       string       `json:"text"`
	Marks      float64      `json:"marks"`
	Choice     string       `json:"choice,omitempty"`
	Correct    *bool        `json:"correct,omitempty"`
	Answer     string       `json:"answer,omitempty"`
}
