package store

import (
	"context"
	"fmt"

	"github.com/pavelanni/examsys/internal/model"
)

// CreateQuestion inserts a question and returns its ID.
func (s *Store) CreateQuestion(ctx context.Context, q model.Question) (int64, error) {
	if q.Type == "" {
		q.Type = model.QuestionEssay
	}
	if q.Difficulty == "" {
		q.Difficulty = "3"
	}
	return s.insertID(ctx,
		`INSERT INTO questions (type, text, difficulty) VALUES (?, ?, ?)`,
		q.Type, q.Text, q.Difficulty,
	)
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(ctx context.Context, id int64) (model.Question, error) {
	var q model.Question
	err := s.queryRow(ctx,
		`SELECT id, type, text, difficulty FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.Type, &q.Text, &q.Difficulty)
	return q, notFound(err)
}

// CreateChoice inserts a choice for a question and returns its ID.
func (s *Store) CreateChoice(ctx context.Context, c model.Choice) (int64, error) {
	return s.insertID(ctx,
		`INSERT INTO choices (question_id, text, is_correct) VALUES (?, ?, ?)`,
		c.QuestionID, c.Text, c.Correct,
	)
}

// LinkQuestion attaches a question to an exam, or updates its marks and
// position if already attached.
func (s *Store) LinkQuestion(ctx context.Context, eq model.ExamQuestion) error {
	if eq.Marks <= 0 {
		eq.Marks = 1
	}
	_, err := s.exec(ctx, linkQuestionSQL, eq.ExamID, eq.QuestionID, eq.Marks, eq.Position)
	if err != nil {
		return fmt.Errorf("link question %d to exam %d: %w", eq.QuestionID, eq.ExamID, err)
	}
	return nil
}

const linkQuestionSQL = `INSERT INTO exam_questions (exam_id, question_id, marks, position) VALUES (?, ?, ?, ?)
	 ON CONFLICT (exam_id, question_id) DO UPDATE SET marks = excluded.marks, position = excluded.position`

// AddQuestion creates a question with its choices and links it to an exam in
// one transaction. Choices are only stored for multiple-choice questions. It
// returns ErrNotFound if the exam does not exist.
func (s *Store) AddQuestion(ctx context.Context, q model.Question, choices []model.Choice, eq model.ExamQuestion) (int64, error) {
	if q.Type == "" {
		q.Type = model.QuestionEssay
	}
	if q.Difficulty == "" {
		q.Difficulty = "3"
	}
	if eq.Marks <= 0 {
		eq.Marks = 1
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM exams WHERE id = ?`), eq.ExamID).Scan(&one)
	if err != nil {
		return 0, notFound(err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, s.rebind(
		`INSERT INTO questions (type, text, difficulty) VALUES (?, ?, ?) RETURNING id`),
		q.Type, q.Text, q.Difficulty,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create question: %w", err)
	}

	if q.Type == model.QuestionMultipleChoice {
		for _, c := range choices {
			_, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO choices (question_id, text, is_correct) VALUES (?, ?, ?)`),
				id, c.Text, c.Correct,
			)
			if err != nil {
				return 0, fmt.Errorf("create choice for question %d: %w", id, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, s.rebind(linkQuestionSQL), eq.ExamID, id, eq.Marks, eq.Position)
	if err != nil {
		return 0, fmt.Errorf("link question %d to exam %d: %w", id, eq.ExamID, err)
	}
	return id, tx.Commit()
}

// NextPosition returns the position after the last linked question of an exam.
func (s *Store) NextPosition(ctx context.Context, examID int64) (int, error) {
	return s.count(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM exam_questions WHERE exam_id = ?`, examID)
}

// QuestionCount returns the number of questions linked to an exam.
func (s *Store) QuestionCount(ctx context.Context, examID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM exam_questions WHERE exam_id = ?`, examID)
}

// ExamQuestions returns the exam's questions in position order with their
// per-exam marks. Questions whose text is blank are left out.
func (s *Store) ExamQuestions(ctx context.Context, examID int64) ([]model.LoadedQuestion, error) {
	rows, err := s.query(ctx, `
		SELECT q.id, q.type, q.text, q.difficulty, eq.marks, eq.position
		FROM exam_questions eq
		JOIN questions q ON q.id = eq.question_id
		WHERE eq.exam_id = ? AND TRIM(q.text) <> ''
		ORDER BY eq.position, q.id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.LoadedQuestion
	for rows.Next() {
		var lq model.LoadedQuestion
		if err := rows.Scan(&lq.ID, &lq.Type, &lq.Text, &lq.Difficulty, &lq.Marks, &lq.Position); err != nil {
			return nil, err
		}
		out = append(out, lq)
	}
	return out, rows.Err()
}

// Choices returns the non-blank choices of a question ordered by ID.
func (s *Store) Choices(ctx context.Context, questionID int64) ([]model.Choice, error) {
	rows, err := s.query(ctx, `
		SELECT id, question_id, text, is_correct FROM choices
		WHERE question_id = ? AND TRIM(text) <> ''
		ORDER BY id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Choice
	for rows.Next() {
		var c model.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.Correct); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ChoiceCorrect reports whether choiceID belongs to questionID and is flagged
// correct. A choice of another question is never correct.
func (s *Store) ChoiceCorrect(ctx context.Context, questionID, choiceID int64) (bool, error) {
	n, err := s.count(ctx,
		`SELECT COUNT(*) FROM choices WHERE id = ? AND question_id = ? AND is_correct = ?`,
		choiceID, questionID, true)
	return n > 0, err
}
