// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records docfill runs and their sections in SQLite so
// placeholder sections can be found and revised after a run.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docfill/pkg/types"
)

const dbFile = "docfill.db"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded generation run.
type Run struct {
	ID         string             `json:"id" yaml:"id"`
	Source     string             `json:"source" yaml:"source"`
	Output     string             `json:"output" yaml:"output"`
	Format     types.OutputFormat `json:"format" yaml:"format"`
	Model      string             `json:"model" yaml:"model"`
	StartedAt  time.Time          `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time          `json:"finished_at" yaml:"finished_at"`
	Generated  int                `json:"generated" yaml:"generated"`
	Failed     int                `json:"failed" yaml:"failed"`
}

// Section is one outline node of a run, in pre-order sequence.
type Section struct {
	Seq       int    `json:"seq" yaml:"seq"`
	Title     string `json:"title" yaml:"title"`
	Level     int    `json:"level" yaml:"level"`
	WordCount int    `json:"word_count,omitempty" yaml:"word_count,omitempty"`
	Content   string `json:"content" yaml:"content"`
	Sentinel  bool   `json:"sentinel" yaml:"sentinel"`
}

// Records rebuilds the heading/paragraph records of sections.
func Records(sections []Section) []types.Record {
	records := make([]types.Record, 0, 2*len(sections))
	for _, s := range sections {
		records = append(records, types.HeadingRecord(s.Title, s.Level), types.ParagraphRecord(s.Content))
	}
	return records
}

// Ledger manages the run ledger database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates dir/docfill.db and its schema.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			output TEXT NOT NULL,
			format TEXT NOT NULL,
			model TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			generated INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			title TEXT NOT NULL,
			level INTEGER NOT NULL,
			word_count INTEGER,
			content TEXT NOT NULL,
			sentinel INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_sentinel ON sections(run_id, sentinel)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores run and its sections in one transaction.
func (l *Ledger) RecordRun(ctx context.Context, run Run, sections []Section) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, output, format, model, started_at, finished_at, generated, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Output, string(run.Format), run.Model,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.Generated, run.Failed,
	); err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (run_id, seq, title, level, word_count, content, sentinel) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing section insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range sections {
		if _, err := stmt.ExecContext(ctx, run.ID, s.Seq, s.Title, s.Level, s.WordCount, s.Content, s.Sentinel); err != nil {
			return fmt.Errorf("inserting section %q: %w", s.Title, err)
		}
	}
	return tx.Commit()
}

// Runs returns up to limit runs, newest first.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, source, output, format, model, started_at, finished_at, generated, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Latest returns the most recent run.
func (l *Ledger) Latest(ctx context.Context) (Run, error) {
	runs, err := l.Runs(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("no runs recorded: %w", types.ErrNotFound)
	}
	return runs[0], nil
}

// Run returns the run with id and its sections in sequence order.
func (l *Ledger) Run(ctx context.Context, id string) (Run, []Section, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, source, output, format, model, started_at, finished_at, generated, failed
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("run %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return Run{}, nil, err
	}

	sections, err := l.sections(ctx, `WHERE run_id = ?`, id)
	if err != nil {
		return Run{}, nil, err
	}
	return run, sections, nil
}

// Pending returns the sentinel sections of a run in sequence order.
func (l *Ledger) Pending(ctx context.Context, runID string) ([]Section, error) {
	return l.sections(ctx, `WHERE run_id = ? AND sentinel = 1`, runID)
}

// UpdateSection replaces the content of one section and refreshes the
// run's generated/failed counters.
func (l *Ledger) UpdateSection(ctx context.Context, runID string, seq int, content string, sentinel bool) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE sections SET content = ?, sentinel = ? WHERE run_id = ? AND seq = ?`,
		content, sentinel, runID, seq)
	if err != nil {
		return fmt.Errorf("updating section: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("section %d of run %s: %w", seq, runID, types.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET
			failed = (SELECT count(*) FROM sections WHERE run_id = ? AND sentinel = 1),
			generated = (SELECT count(*) FROM sections WHERE run_id = ? AND sentinel = 0)
		 WHERE id = ?`, runID, runID, runID); err != nil {
		return fmt.Errorf("updating run counters: %w", err)
	}
	return tx.Commit()
}

// ExportYAML writes a run and its sections as YAML to w.
func (l *Ledger) ExportYAML(ctx context.Context, runID string, w io.Writer) error {
	run, sections, err := l.Run(ctx, runID)
	if err != nil {
		return err
	}
	doc := struct {
		Run      Run       `yaml:"run"`
		Sections []Section `yaml:"sections"`
	}{run, sections}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

func (l *Ledger) sections(ctx context.Context, where string, args ...any) ([]Section, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT seq, title, level, COALESCE(word_count, 0), content, sentinel FROM sections `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var s Section
		if err := rows.Scan(&s.Seq, &s.Title, &s.Level, &s.WordCount, &s.Content, &s.Sentinel); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                 Run
		format            string
		model             sql.NullString
		started, finished string
	)
	if err := s.Scan(&r.ID, &r.Source, &r.Output, &format, &model, &started, &finished, &r.Generated, &r.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	r.Format = types.OutputFormat(format)
	r.Model = model.String
	var err error
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("run %s: parsing started_at: %w", r.ID, err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Run{}, fmt.Errorf("run %s: parsing finished_at: %w", r.ID, err)
	}
	return r, nil
}
