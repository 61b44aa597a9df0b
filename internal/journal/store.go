package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"rekogexport/internal/services"
)

// Store persists export run history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a run in the running state. StartedAt defaults to now.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("begin run: id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project, destination, label_format, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		nullableString(run.Project),
		run.Destination,
		run.LabelFormat,
		StatusRunning,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordSplit stores the summary for one split of a run, replacing any
// previous summary for the same split.
func (s *Store) RecordSplit(ctx context.Context, rec SplitRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO splits (run_id, split, dataset_arn, entries, records, images, labels, boxes, classes)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Split, rec.DatasetARN,
		rec.Entries, rec.Records, rec.Images, rec.Labels, rec.Boxes,
		strings.Join(rec.Classes, "\n"),
	)
	if err != nil {
		return fmt.Errorf("insert split %s: %w", rec.Split, err)
	}
	return nil
}

// RecordFiles stores the per-image file mapping in a single transaction.
func (s *Store) RecordFiles(ctx context.Context, files []FileRecord) error {
	if len(files) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin files tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO files (run_id, split, source_uri, image_path, label_path, boxes)
         VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare files insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, f.RunID, f.Split, f.SourceURI, f.ImagePath, nullableString(f.LabelPath), f.Boxes); err != nil {
			return fmt.Errorf("insert file %s: %w", f.SourceURI, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit files: %w", err)
	}
	return nil
}

// FinishRun marks a run succeeded when runErr is nil and failed otherwise,
// recording the failure kind for history listings.
func (s *Store) FinishRun(ctx context.Context, id string, runErr error) error {
	status := StatusSucceeded
	var kind, message any
	if runErr != nil {
		status = StatusFailed
		kind = services.FailureKind(runErr)
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, failure_kind = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, kind, message, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", id)
	}
	return nil
}

// GetRun fetches a run by identifier. A missing run returns nil, nil.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Splits returns the split summaries recorded for a run, TRAIN before TEST.
func (s *Store) Splits(ctx context.Context, runID string) ([]SplitRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, split, dataset_arn, entries, records, images, labels, boxes, classes
         FROM splits WHERE run_id = ? ORDER BY CASE split WHEN 'TRAIN' THEN 0 ELSE 1 END, split`, runID)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	defer rows.Close()

	var out []SplitRecord
	for rows.Next() {
		var (
			rec     SplitRecord
			classes string
		)
		if err := rows.Scan(&rec.RunID, &rec.Split, &rec.DatasetARN, &rec.Entries, &rec.Records, &rec.Images, &rec.Labels, &rec.Boxes, &classes); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		if classes != "" {
			rec.Classes = strings.Split(classes, "\n")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RunFiles returns the file mapping recorded for a run ordered by split and source.
func (s *Store) RunFiles(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, split, source_uri, image_path, label_path, boxes
         FROM files WHERE run_id = ? ORDER BY split, source_uri`, runID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var (
			rec   FileRecord
			label sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.Split, &rec.SourceURI, &rec.ImagePath, &label, &rec.Boxes); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		rec.LabelPath = label.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
