package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ImportedHash returns the SHA-256 recorded for a previously imported file.
// Returns empty string and nil error if the file was never imported.
func (s *Store) ImportedHash(ctx context.Context, path string) (string, error) {
	var sum string
	err := s.queryRow(ctx, `SELECT sha256 FROM imported_files WHERE path = ?`, path).Scan(&sum)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return sum, err
}

// RecordImport upserts the hash of an imported file.
func (s *Store) RecordImport(ctx context.Context, path, sum string) error {
	_, err := s.exec(ctx,
		`INSERT INTO imported_files (path, sha256, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET sha256 = excluded.sha256, imported_at = excluded.imported_at`,
		path, sum, time.Now(),
	)
	return err
}
