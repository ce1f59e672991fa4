package stores

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/data/db"
	"github.com/sethvargo/go-retry"
)

// busyRetries bounds the extra inserts attempted while another process (the mailbox
// loop, usually) holds the write lock past the busy timeout.
const busyRetries = 3

// HistoryStore implements history.Store using SQLite.
type HistoryStore struct {
	db *db.DB
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore creates a new SQLite-backed history store.
func NewHistoryStore(db *db.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record saves an entry. Missing IDs and start times are filled in.
func (s *HistoryStore) Record(ctx context.Context, e history.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	backoff := retry.WithMaxRetries(busyRetries, retry.NewExponential(50*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.db.Conn().ExecContext(ctx, `
			INSERT INTO operations (id, stage, status, session_dir, detail, branch, files, started_at, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Stage, string(e.Status), e.SessionDir, e.Detail, e.Branch,
			strings.Join(e.Files, "\n"), e.StartedAt.UnixNano(), e.Duration.Milliseconds(),
		)
		if IsBusyError(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

// List returns entries newest first.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]history.Entry, error) {
	query := `SELECT id, stage, status, session_dir, detail, branch, files, started_at, duration_ms
		FROM operations ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []history.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes all entries.
func (s *HistoryStore) Clear(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM operations"); err != nil {
			return fmt.Errorf("clear operations: %w", err)
		}
		return nil
	})
}

func scanEntry(rows *sql.Rows) (history.Entry, error) {
	var (
		e         history.Entry
		status    string
		files     string
		startedAt int64
		duration  int64
	)
	if err := rows.Scan(&e.ID, &e.Stage, &status, &e.SessionDir, &e.Detail, &e.Branch, &files, &startedAt, &duration); err != nil {
		return history.Entry{}, err
	}
	e.Status = history.Status(status)
	if files != "" {
		e.Files = strings.Split(files, "\n")
	}
	e.StartedAt = time.Unix(0, startedAt)
	e.Duration = time.Duration(duration) * time.Millisecond
	return e, nil
}
