package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Driver selects the SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Store wraps the relational database behind the examination system.
type Store struct {
	db     *sql.DB
	driver Driver
}

// New opens the database for the given driver and ensures the schema exists.
func New(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		drvName = "sqlite"
		if dsn == "" {
			dsn = "examsys.db"
		}
		if dsn != ":memory:" && !strings.Contains(dsn, "?") {
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/examsys?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// A single connection keeps :memory: databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// rebind rewrites ? placeholders into $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// insertID runs an INSERT ... RETURNING id and returns the new key.
func (s *Store) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := s.queryRow(ctx, query, args...).Scan(&n)
	return n, err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS persons (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS students (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	person_id INTEGER NOT NULL UNIQUE REFERENCES persons(id),
	graduated BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS instructors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	person_id INTEGER NOT NULL UNIQUE REFERENCES persons(id),
	salary REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS managers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	person_id INTEGER NOT NULL UNIQUE REFERENCES persons(id),
	salary REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS departments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS topics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS courses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	hours INTEGER NOT NULL DEFAULT 0,
	topic_id INTEGER REFERENCES topics(id),
	department_id INTEGER REFERENCES departments(id)
);

CREATE TABLE IF NOT EXISTS teaching (
	instructor_id INTEGER NOT NULL REFERENCES instructors(id),
	course_id INTEGER NOT NULL REFERENCES courses(id),
	PRIMARY KEY (instructor_id, course_id)
);

CREATE TABLE IF NOT EXISTS exams (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	course_id INTEGER NOT NULL REFERENCES courses(id),
	instructor_id INTEGER NOT NULL REFERENCES instructors(id),
	semester TEXT NOT NULL,
	year INTEGER NOT NULL,
	total_marks REAL NOT NULL,
	duration_seconds INTEGER NOT NULL DEFAULT 5400
);

CREATE TABLE IF NOT EXISTS questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL DEFAULT 'ESSAY',
	text TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL DEFAULT '3'
);

CREATE TABLE IF NOT EXISTS exam_questions (
	exam_id INTEGER NOT NULL REFERENCES exams(id),
	question_id INTEGER NOT NULL REFERENCES questions(id),
	marks REAL NOT NULL DEFAULT 1,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (exam_id, question_id)
);

CREATE TABLE IF NOT EXISTS choices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question_id INTEGER NOT NULL REFERENCES questions(id),
	text TEXT NOT NULL DEFAULT '',
	is_correct BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS takes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id INTEGER NOT NULL REFERENCES students(id),
	exam_id INTEGER NOT NULL REFERENCES exams(id),
	score REAL NOT NULL DEFAULT 0,
	grade TEXT,
	taken_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS takes_student_exam ON takes(student_id, exam_id);

CREATE TABLE IF NOT EXISTS student_answers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	attempt_id INTEGER NOT NULL REFERENCES takes(id),
	question_id INTEGER NOT NULL REFERENCES questions(id),
	choice_id INTEGER REFERENCES choices(id),
	answer_text TEXT,
	submitted_at DATETIME NOT NULL,
	UNIQUE (attempt_id, question_id)
);

CREATE TABLE IF NOT EXISTS auth_sessions (
	id TEXT PRIMARY KEY,
	person_id INTEGER NOT NULL REFERENCES persons(id),
	role TEXT NOT NULL,
	profile_id INTEGER NOT NULL DEFAULT 0,
	display_name TEXT NOT NULL DEFAULT '',
	attempt_id INTEGER,
	exam_id INTEGER,
	flash_kind TEXT NOT NULL DEFAULT '',
	flash_message TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	sha256 TEXT NOT NULL,
	imported_at DATETIME NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS persons (
	id BIGSERIAL PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS students (
	id BIGSERIAL PRIMARY KEY,
	person_id BIGINT NOT NULL UNIQUE REFERENCES persons(id),
	graduated BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS instructors (
	id BIGSERIAL PRIMARY KEY,
	person_id BIGINT NOT NULL UNIQUE REFERENCES persons(id),
	salary DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS managers (
	id BIGSERIAL PRIMARY KEY,
	person_id BIGINT NOT NULL UNIQUE REFERENCES persons(id),
	salary DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS departments (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS topics (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS courses (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	hours INTEGER NOT NULL DEFAULT 0,
	topic_id BIGINT REFERENCES topics(id),
	department_id BIGINT REFERENCES departments(id)
);

CREATE TABLE IF NOT EXISTS teaching (
	instructor_id BIGINT NOT NULL REFERENCES instructors(id),
	course_id BIGINT NOT NULL REFERENCES courses(id),
	PRIMARY KEY (instructor_id, course_id)
);

CREATE TABLE IF NOT EXISTS exams (
	id BIGSERIAL PRIMARY KEY,
	course_id BIGINT NOT NULL REFERENCES courses(id),
	instructor_id BIGINT NOT NULL REFERENCES instructors(id),
	semester TEXT NOT NULL,
	year INTEGER NOT NULL,
	total_marks DOUBLE PRECISION NOT NULL,
	duration_seconds INTEGER NOT NULL DEFAULT 5400
);

CREATE TABLE IF NOT EXISTS questions (
	id BIGSERIAL PRIMARY KEY,
	type TEXT NOT NULL DEFAULT 'ESSAY',
	text TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL DEFAULT '3'
);

CREATE TABLE IF NOT EXISTS exam_questions (
	exam_id BIGINT NOT NULL REFERENCES exams(id),
	question_id BIGINT NOT NULL REFERENCES questions(id),
	marks DOUBLE PRECISION NOT NULL DEFAULT 1,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (exam_id, question_id)
);

CREATE TABLE IF NOT EXISTS choices (
	id BIGSERIAL PRIMARY KEY,
	question_id BIGINT NOT NULL REFERENCES questions(id),
	text TEXT NOT NULL DEFAULT '',
	is_correct BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS takes (
	id BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL REFERENCES students(id),
	exam_id BIGINT NOT NULL REFERENCES exams(id),
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	grade TEXT,
	taken_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS takes_student_exam ON takes(student_id, exam_id);

CREATE TABLE IF NOT EXISTS student_answers (
	id BIGSERIAL PRIMARY KEY,
	attempt_id BIGINT NOT NULL REFERENCES takes(id),
	question_id BIGINT NOT NULL REFERENCES questions(id),
	choice_id BIGINT REFERENCES choices(id),
	answer_text TEXT,
	submitted_at TIMESTAMPTZ NOT NULL,
	UNIQUE (attempt_id, question_id)
);

CREATE TABLE IF NOT EXISTS auth_sessions (
	id TEXT PRIMARY KEY,
	person_id BIGINT NOT NULL REFERENCES persons(id),
	role TEXT NOT NULL,
	profile_id BIGINT NOT NULL DEFAULT 0,
	display_name TEXT NOT NULL DEFAULT '',
	attempt_id BIGINT,
	exam_id BIGINT,
	flash_kind TEXT NOT NULL DEFAULT '',
	flash_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	sha256 TEXT NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL
);
`
