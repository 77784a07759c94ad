package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"inherit/internal/report"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			scope TEXT NOT NULL,
			policy TEXT,
			generated_at TEXT,
			supertypes INTEGER,
			requirements INTEGER,
			subtypes INTEGER,
			checked INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS missing (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			type TEXT,
			function TEXT,
			expected TEXT,
			required TEXT,
			declared_by TEXT,
			doc TEXT,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_scope ON runs(scope);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- RunStore Implementation ---

func (s *SQLiteStore) SaveRun(ctx context.Context, rep *report.Report) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, scope, policy, generated_at, supertypes, requirements, subtypes, checked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, rep.Scope, string(rep.Policy), rep.GeneratedAt, rep.Supertypes, rep.Requirements, rep.Subtypes, rep.Checked); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO missing (run_id, position, type, function, expected, required, declared_by, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, m := range rep.Missing {
		if _, err := stmt.ExecContext(ctx, id, i, m.Type, m.Function, m.Expected, m.Required, m.DeclaredBy, m.Doc); err != nil {
			return "", fmt.Errorf("failed to insert missing method: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, scope string, limit int) ([]Run, error) {
	var where []string
	var args []interface{}
	if scope != "" {
		where = append(where, "scope = ?")
		args = append(args, scope)
	}
	query := "SELECT id, scope, policy, generated_at, supertypes, requirements, subtypes, checked FROM runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var policy string
		rep := &report.Report{}
		if err := rows.Scan(&run.ID, &rep.Scope, &policy, &rep.GeneratedAt, &rep.Supertypes, &rep.Requirements, &rep.Subtypes, &rep.Checked); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rep.Policy = report.Policy(policy)
		run.Report = rep
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range runs {
		missing, err := s.loadMissing(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Report.Missing = missing
	}
	return runs, nil
}

func (s *SQLiteStore) LastRun(ctx context.Context, scope string) (*Run, error) {
	runs, err := s.ListRuns(ctx, scope, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w for scope %s", ErrNoRuns, scope)
	}
	return &runs[0], nil
}

func (s *SQLiteStore) loadMissing(ctx context.Context, runID string) ([]report.MissingMethod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, function, expected, required, declared_by, doc
		FROM missing WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing methods: %w", err)
	}
	defer rows.Close()

	var out []report.MissingMethod
	for rows.Next() {
		var m report.MissingMethod
		if err := rows.Scan(&m.Type, &m.Function, &m.Expected, &m.Required, &m.DeclaredBy, &m.Doc); err != nil {
			return nil, fmt.Errorf("failed to scan missing method: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
