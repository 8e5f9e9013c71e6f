package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/examsys/internal/model"
)

const personColumns = `id, first_name, last_name, email, password_hash, role, created_at`

func scanPerson(sc interface{ Scan(...any) error }) (model.Person, error) {
	var p model.Person
	err := sc.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.PasswordHash, &p.Role, &p.CreatedAt)
	return p, err
}

// CreatePerson inserts a person together with the role profile matching p.Role.
// It returns the person ID and the profile ID.
func (s *Store) CreatePerson(ctx context.Context, p model.Person) (personID, profileID int64, err error) {
	if !p.Role.Valid() {
		return 0, 0, fmt.Errorf("create person: invalid role %q", p.Role)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, s.rebind(
		`INSERT INTO persons (first_name, last_name, email, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		p.FirstName, p.LastName, strings.ToLower(strings.TrimSpace(p.Email)), p.PasswordHash, p.Role, time.Now(),
	).Scan(&personID)
	if err != nil {
		slog.Error("failed to create person", "email", p.Email, "error", err)
		return 0, 0, err
	}

	var table string
	switch p.Role {
	case model.RoleStudent:
		table = "students"
	case model.RoleInstructor:
		table = "instructors"
	case model.RoleManager:
		table = "managers"
	}
	err = tx.QueryRowContext(ctx, s.rebind(
		`INSERT INTO `+table+` (person_id) VALUES (?) RETURNING id`), personID,
	).Scan(&profileID)
	if err != nil {
		return 0, 0, fmt.Errorf("create %s profile: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	slog.Info("created person", "id", personID, "email", p.Email, "role", p.Role, "profile_id", profileID)
	return personID, profileID, nil
}

// GetPersonByEmail returns a person by email (case-insensitive).
func (s *Store) GetPersonByEmail(ctx context.Context, email string) (model.Person, error) {
	p, err := scanPerson(s.queryRow(ctx,
		`SELECT `+personColumns+` FROM persons WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	))
	return p, notFound(err)
}

// GetPersonByID returns a person by ID.
func (s *Store) GetPersonByID(ctx context.Context, id int64) (model.Person, error) {
	p, err := scanPerson(s.queryRow(ctx, `SELECT `+personColumns+` FROM persons WHERE id = ?`, id))
	return p, notFound(err)
}

// ProfileID returns the role-specific profile ID of a person.
func (s *Store) ProfileID(ctx context.Context, personID int64, role model.Role) (int64, error) {
	var table string
	switch role {
	case model.RoleStudent:
		table = "students"
	case model.RoleInstructor:
		table = "instructors"
	case model.RoleManager:
		table = "managers"
	default:
		return 0, fmt.Errorf("profile for role %q: %w", role, ErrNotFound)
	}
	var id int64
	err := s.queryRow(ctx, `SELECT id FROM `+table+` WHERE person_id = ?`, personID).Scan(&id)
	return id, notFound(err)
}

// PersonCount returns the number of persons, optionally filtered by role.
func (s *Store) PersonCount(ctx context.Context, role model.Role) (int, error) {
	if role == "" {
		return s.count(ctx, `SELECT COUNT(*) FROM persons`)
	}
	return s.count(ctx, `SELECT COUNT(*) FROM persons WHERE role = ?`, role)
}

// SetPassword replaces a person's password hash.
func (s *Store) SetPassword(ctx context.Context, personID int64, hash string) error {
	_, err := s.exec(ctx, `UPDATE persons SET password_hash = ? WHERE id = ?`, hash, personID)
	return err
}
