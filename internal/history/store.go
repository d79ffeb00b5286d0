// Package history persists finished generation runs to SQLite so operators
// can inspect recent activity and failure causes.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/clipscholar/video-study-generator/internal/study"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Record is one persisted generation run.
type Record struct {
	RunID          string    `json:"run_id"`
	VideoID        string    `json:"video_id"`
	Strategy       string    `json:"strategy"`
	TopicCount     int       `json:"topic_count"`
	FlashcardCount int       `json:"flashcard_count"`
	QuizCount      int       `json:"quiz_count"`
	DurationMS     int64     `json:"duration_ms"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is a SQLite-backed run log. Single writer; safe for concurrent use.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "0001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// Append implements study.Recorder.
func (s *Store) Append(ctx context.Context, rec study.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO generation_runs
		(run_id, video_id, strategy, topic_count, flashcard_count, quiz_count, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.VideoID, rec.Strategy,
		rec.TopicCount, rec.FlashcardCount, rec.QuizCount,
		rec.DurationMS, rec.Error, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert generation run: %w", err)
	}
	return nil
}

// Recent returns the newest runs, most recent first, optionally filtered by
// video. limit <= 0 falls back to 50.
func (s *Store) Recent(ctx context.Context, videoID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT run_id, video_id, strategy, topic_count, flashcard_count, quiz_count, duration_ms, error, created_at
		FROM generation_runs`
	args := []any{}
	if videoID != "" {
		query += ` WHERE video_id = ?`
		args = append(args, videoID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generation runs: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.RunID, &rec.VideoID, &rec.Strategy,
			&rec.TopicCount, &rec.FlashcardCount, &rec.QuizCount,
			&rec.DurationMS, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes runs older than the retention window and reports how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx, `DELETE FROM generation_runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune generation runs: %w", err)
	}
	return res.RowsAffected()
}
