// Package store handles SQLite persistence of the review journal.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/wfdrill/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for review sessions and attempts.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			dataset TEXT NOT NULL,
			mode TEXT NOT NULL,
			graded INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			terminated INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			fingerprint TEXT NOT NULL,
			content TEXT NOT NULL,
			attempted_at TEXT NOT NULL,
			correct INTEGER NOT NULL,
			input TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_fingerprint ON attempts(fingerprint);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished session and its graded attempts in one transaction.
func (s *Store) InsertSession(ctx context.Context, stats model.SessionStats, attempts []model.AttemptStats) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, ended_at, dataset, mode, graded, correct, terminated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.ID,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Dataset,
		stats.Mode,
		stats.Graded,
		stats.Correct,
		boolInt(stats.Terminated),
	)
	if err != nil {
		return err
	}

	if len(attempts) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO attempts (session_id, seq, fingerprint, content, attempted_at, correct, input)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, a := range attempts {
			if _, err = stmt.ExecContext(ctx, stats.ID, i, a.Fingerprint, a.Content,
				a.AttemptedAt.Format(time.RFC3339Nano), boolInt(a.Correct), a.Input); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

// ListSessions returns journal sessions filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionStats, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, dataset, mode, graded, correct, terminated
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionStats
	for rows.Next() {
		var st model.SessionStats
		var startedAt, endedAt string
		var terminated int
		if err := rows.Scan(&st.ID, &startedAt, &endedAt, &st.Dataset, &st.Mode, &st.Graded, &st.Correct, &terminated); err != nil {
			return nil, err
		}
		if st.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if st.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		st.Terminated = terminated != 0
		sessions = append(sessions, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

// ListQuestionAggregates aggregates attempts per fingerprint across sessions,
// most-missed first.
func (s *Store) ListQuestionAggregates(ctx context.Context, sessionIDs []string) ([]model.QuestionAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT fingerprint, MAX(content), COUNT(*) AS attempts,
		SUM(CASE WHEN correct = 0 THEN 1 ELSE 0 END) AS wrong
		FROM attempts
		WHERE session_id IN (%s)
		GROUP BY fingerprint
		ORDER BY wrong DESC, attempts DESC, fingerprint ASC`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.QuestionAggregate
	for rows.Next() {
		var agg model.QuestionAggregate
		if err := rows.Scan(&agg.Fingerprint, &agg.Content, &agg.Attempts, &agg.Wrong); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Journal adapts a Store to the review journal interface.
type Journal struct {
	Store *Store
}

// InsertSession implements review.Journal.
func (j Journal) InsertSession(ctx context.Context, stats model.SessionStats, attempts []model.AttemptStats) error {
	return j.Store.InsertSession(ctx, stats, attempts)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
