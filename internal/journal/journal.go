package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/namnv2496/gameforge/internal/model"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("run not found")

const (
	StatusRunning   = "running"
	StatusSucceeded = "success"
	StatusExhausted = "exhausted_failure"
	StatusAborted   = "aborted"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	prompt TEXT NOT NULL,
	status TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	artifact_path TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	finished_at INTEGER
);
CREATE TABLE IF NOT EXISTS checks (
	run_id TEXT NOT NULL,
	attempt INTEGER NOT NULL,
	stage TEXT NOT NULL,
	passed INTEGER NOT NULL,
	detail TEXT NOT NULL,
	diagnostic TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, attempt, stage)
);
`

// Run is one pipeline run as recorded in the journal. Program sources are
// never stored; only the artifact path is.
type Run struct {
	ID           string     `json:"id"`
	Prompt       string     `json:"prompt"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	ArtifactPath string     `json:"artifactPath"`
	Message      string     `json:"message,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	Checks       []Check    `json:"checks,omitempty"`
}

// Check is the verdict of one check within an attempt.
type Check struct {
	Attempt    int           `json:"attempt"`
	Stage      model.Stage   `json:"stage"`
	Passed     bool          `json:"passed"`
	Detail     string        `json:"detail"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Journal records runs and check verdicts in a SQLite database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// Events arrive from one goroutine per run; a single connection keeps
	// SQLite writes serialized.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on error
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) CreateRun(ctx context.Context, id, prompt string, at time.Time) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO runs (id, prompt, status, created_at) VALUES (?, ?, ?, ?)",
		id, prompt, StatusRunning, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", id, err)
	}
	return nil
}

func (j *Journal) RecordCheck(ctx context.Context, runID string, c Check) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO checks (run_id, attempt, stage, passed, detail, diagnostic, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, c.Attempt, string(c.Stage), c.Passed, c.Detail, c.Diagnostic, c.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record check for run %s: %w", runID, err)
	}
	return nil
}

// FinishRun stores the terminal status. The attempt count is derived from the
// recorded checks.
func (j *Journal) FinishRun(ctx context.Context, id, status, artifactPath, message string, at time.Time) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, artifact_path = ?, message = ?, finished_at = ?,
		 attempts = (SELECT COALESCE(MAX(attempt), 0) FROM checks WHERE run_id = ?)
		 WHERE id = ?`,
		status, artifactPath, message, at.UnixMilli(), id, id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// GetRun returns the run with its checks in attempt order.
func (j *Journal) GetRun(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx,
		"SELECT id, prompt, status, attempts, artifact_path, message, created_at, finished_at FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT attempt, stage, passed, detail, diagnostic, duration_ms FROM checks
		 WHERE run_id = ? ORDER BY attempt, CASE stage WHEN 'basic' THEN 0 ELSE 1 END`, id)
	if err != nil {
		return Run{}, fmt.Errorf("get checks for run %s: %w", id, err)
	}
	defer rows.Close() //nolint:errcheck // best-effort cleanup
	for rows.Next() {
		var (
			c     Check
			stage string
			ms    int64
		)
		if err := rows.Scan(&c.Attempt, &stage, &c.Passed, &c.Detail, &c.Diagnostic, &ms); err != nil {
			return Run{}, fmt.Errorf("scan check: %w", err)
		}
		c.Stage = model.Stage(stage)
		c.Duration = time.Duration(ms) * time.Millisecond
		run.Checks = append(run.Checks, c)
	}
	return run, rows.Err()
}

// ListRuns returns the most recent runs first, without their checks.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, prompt, status, attempts, artifact_path, message, created_at, finished_at FROM runs
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // best-effort cleanup
	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run      Run
		created  int64
		finished sql.NullInt64
	)
	if err := s.Scan(&run.ID, &run.Prompt, &run.Status, &run.Attempts, &run.ArtifactPath, &run.Message, &created, &finished); err != nil {
		return Run{}, err
	}
	run.CreatedAt = time.UnixMilli(created)
	if finished.Valid {
		t := time.UnixMilli(finished.Int64)
		run.FinishedAt = &t
	}
	return run, nil
}
