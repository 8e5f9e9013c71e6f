package store

import (
	"context"
	"fmt"

	"github.com/pavelanni/examsys/internal/model"
)

// ExportExam builds export-ready results for every attempt at an exam.
func (s *Store) ExportExam(ctx context.Context, examID int64) (model.ExamExport, error) {
	exam, err := s.GetExam(ctx, examID)
	if err != nil {
		return model.ExamExport{}, fmt.Errorf("get exam %d: %w", examID, err)
	}
	out := model.ExamExport{
		ExamID:     exam.ID,
		Course:     exam.CourseName,
		Semester:   exam.Semester,
		Year:       exam.Year,
		TotalMarks: exam.TotalMarks,
		Results:    []model.AttemptExport{},
	}

	questions, err := s.ExamQuestions(ctx, examID)
	if err != nil {
		return out, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[int64]model.LoadedQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	rows, err := s.query(ctx, `
		SELECT t.id, t.student_id, p.first_name, p.last_name, p.email, t.score, t.grade, t.taken_at
		FROM takes t
		JOIN students st ON st.id = t.student_id
		JOIN persons p ON p.id = st.person_id
		WHERE t.exam_id = ?
		ORDER BY t.id`, examID)
	if err != nil {
		return out, err
	}
	var attempts []model.AttemptExport
	for rows.Next() {
		var a model.AttemptExport
		var first, last string
		if err := rows.Scan(&a.AttemptID, &a.StudentID, &first, &last, &a.Email, &a.Score, &a.Grade, &a.TakenAt); err != nil {
			rows.Close()
			return out, err
		}
		a.Name = model.Person{FirstName: first, LastName: last}.FullName()
		attempts = append(attempts, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return out, err
	}

	// Choice lookups run after the attempts cursor is closed; sqlite runs on a single connection.
	choiceCache := make(map[int64][]model.Choice)
	for i := range attempts {
		answers, err := s.AnswersForAttempt(ctx, attempts[i].AttemptID)
		if err != nil {
			return out, fmt.Errorf("answers for attempt %d: %w", attempts[i].AttemptID, err)
		}
		attempts[i].Answers = []model.AnswerExport{}
		for _, ans := range answers {
			q := byID[ans.QuestionID]
			ae := model.AnswerExport{
				QuestionID: ans.QuestionID,
				Type:       q.Type,
				Text:       q.Text,
				Marks:      q.Marks,
			}
			if ans.Text != nil {
				ae.Answer = *ans.Text
			}
			if ans.ChoiceID != nil {
				choices, ok := choiceCache[ans.QuestionID]
				if !ok {
					if choices, err = s.Choices(ctx, ans.QuestionID); err != nil {
						return out, err
					}
					choiceCache[ans.QuestionID] = choices
				}
				for _, c := range choices {
					if c.ID == *ans.ChoiceID {
						correct := c.Correct
						ae.Choice = c.Text
						ae.Correct = &correct
					}
				}
			}
			attempts[i].Answers = append(attempts[i].Answers, ae)
		}
		out.Results = append(out.Results, attempts[i])
	}
	return out, nil
}
