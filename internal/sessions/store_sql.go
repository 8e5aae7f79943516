package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"resume-wizard/internal/resume"
)

// PGStore implements Store on Postgres. The wizard_sessions table comes from
// the embedded goose migrations.
type PGStore struct {
	DB *sql.DB
}

func (s *PGStore) Load(ctx context.Context, id string) (resume.Document, bool, error) {
	const query = `
SELECT document
FROM wizard_sessions
WHERE session_id = $1`
	return loadRow(ctx, s.DB, query, id)
}

func (s *PGStore) Save(ctx context.Context, id string, doc resume.Document) error {
	const query = `
INSERT INTO wizard_sessions (session_id, document, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (session_id) DO UPDATE
SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	return saveRow(ctx, s.DB, query, id, doc)
}

// SQLiteStore implements Store on a local SQLite file. The CLI uses it so a
// wizard can be resumed across runs.
type SQLiteStore struct {
	DB *sql.DB
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (resume.Document, bool, error) {
	const query = `
SELECT document
FROM wizard_sessions
WHERE session_id = ?`
	return loadRow(ctx, s.DB, query, id)
}

func (s *SQLiteStore) Save(ctx context.Context, id string, doc resume.Document) error {
	const query = `
INSERT INTO wizard_sessions (session_id, document, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (session_id) DO UPDATE
SET document = excluded.document, updated_at = excluded.updated_at`
	return saveRow(ctx, s.DB, query, id, doc)
}

func loadRow(ctx context.Context, db *sql.DB, query, id string) (resume.Document, bool, error) {
	id, err := validateID(id)
	if err != nil {
		return resume.Document{}, false, err
	}
	var raw []byte
	if err := db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resume.Document{}, false, nil
		}
		return resume.Document{}, false, unavailable("load", err)
	}
	var doc resume.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return resume.Document{}, false, unavailable("decode", err)
	}
	return doc, true, nil
}

func saveRow(ctx context.Context, db *sql.DB, query, id string, doc resume.Document) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return unavailable("encode", err)
	}
	if _, err := db.ExecContext(ctx, query, id, string(raw), time.Now().UTC()); err != nil {
		return unavailable("save", err)
	}
	return nil
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
