package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/examsys/internal/model"
)

// DefaultSessionTTL is used when CreateAuthSession is given a zero TTL.
const DefaultSessionTTL = 24 * time.Hour

const sessionColumns = `id, person_id, role, profile_id, display_name, attempt_id, exam_id,
	flash_kind, flash_message, created_at, expires_at`

// CreateAuthSession creates a session for an authenticated person and returns it.
func (s *Store) CreateAuthSession(ctx context.Context, p model.Person, profileID int64, ttl time.Duration) (*model.Session, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := time.Now()
	sess := &model.Session{
		ID:          uuid.NewString(),
		PersonID:    p.ID,
		Role:        p.Role,
		ProfileID:   profileID,
		DisplayName: p.FullName(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	_, err := s.exec(ctx,
		`INSERT INTO auth_sessions (id, person_id, role, profile_id, display_name, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.PersonID, sess.Role, sess.ProfileID, sess.DisplayName, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetAuthSession returns the session for the given token, or nil if not found/expired.
func (s *Store) GetAuthSession(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	var sess model.Session
	err := s.queryRow(ctx, `SELECT `+sessionColumns+` FROM auth_sessions WHERE id = ?`, token).Scan(
		&sess.ID, &sess.PersonID, &sess.Role, &sess.ProfileID, &sess.DisplayName,
		&sess.AttemptID, &sess.ExamID, &sess.FlashKind, &sess.FlashMessage,
		&sess.CreatedAt, &sess.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.DeleteAuthSession(ctx, token)
		return nil, nil
	}
	return &sess, nil
}

// DeleteAuthSession removes a session token.
func (s *Store) DeleteAuthSession(ctx context.Context, token string) error {
	_, err := s.exec(ctx, `DELETE FROM auth_sessions WHERE id = ?`, token)
	return err
}

// SetActiveExam records the in-progress attempt on the session.
func (s *Store) SetActiveExam(ctx context.Context, token string, attemptID, examID int64) error {
	_, err := s.exec(ctx,
		`UPDATE auth_sessions SET attempt_id = ?, exam_id = ? WHERE id = ?`, attemptID, examID, token)
	return err
}

// ClearActiveExam forgets the in-progress attempt of the session.
func (s *Store) ClearActiveExam(ctx context.Context, token string) error {
	_, err := s.exec(ctx,
		`UPDATE auth_sessions SET attempt_id = NULL, exam_id = NULL WHERE id = ?`, token)
	return err
}

// SetFlash stores a one-shot message on the session, replacing any pending one.
func (s *Store) SetFlash(ctx context.Context, token, kind, message string) error {
	_, err := s.exec(ctx,
		`UPDATE auth_sessions SET flash_kind = ?, flash_message = ? WHERE id = ?`, kind, message, token)
	return err
}

// PopFlash returns and clears the pending flash message of the session.
func (s *Store) PopFlash(ctx context.Context, token string) (kind, message string, err error) {
	err = s.queryRow(ctx,
		`SELECT flash_kind, flash_message FROM auth_sessions WHERE id = ?`, token,
	).Scan(&kind, &message)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil || message == "" {
		return "", "", err
	}
	_, err = s.exec(ctx, `UPDATE auth_sessions SET flash_kind = '', flash_message = '' WHERE id = ?`, token)
	return kind, message, err
}

// CleanupExpiredSessions removes all expired auth sessions.
func (s *Store) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM auth_sessions WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
