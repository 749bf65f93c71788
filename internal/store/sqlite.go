package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/askbox/internal/domain"
	"github.com/ashureev/askbox/internal/shared"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS chat_history (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_history_created ON chat_history(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertChat stores one question/answer exchange. A missing chat_history
// table is self-healed: the schema is created once and the write retried
// exactly once. A busy/locked conflict likewise gets a single retry.
func (s *SQLiteStore) InsertChat(ctx context.Context, rec *domain.ChatRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	err := s.insertChat(ctx, rec)
	switch {
	case err == nil:
		return nil
	case shared.IsSQLiteMissingTableError(err):
		if schemaErr := s.initSchema(); schemaErr != nil {
			return fmt.Errorf("recreate schema: %w", schemaErr)
		}
	case shared.IsSQLiteConflictError(err):
		// One more try after the busy timeout did its work.
	default:
		return err
	}

	if err := s.insertChat(ctx, rec); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) insertChat(ctx context.Context, rec *domain.ChatRecord) error {
	query := `INSERT INTO chat_history (id, question, answer, created_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Question, rec.Answer, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert chat record: %w", err)
	}
	return nil
}

// ListChats returns all stored exchanges in insertion order.
func (s *SQLiteStore) ListChats(ctx context.Context) ([]*domain.ChatRecord, error) {
	query := `SELECT id, question, answer, created_at FROM chat_history ORDER BY rowid ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	var records []*domain.ChatRecord
	for rows.Next() {
		var rec domain.ChatRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Answer, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat row: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat rows: %w", err)
	}

	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
