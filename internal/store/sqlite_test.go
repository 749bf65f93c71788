package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/askbox/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	repo, err := NewSQLite(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	return repo.(*SQLiteStore)
}

func TestInsertAndListChats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pairs := [][2]string{
		{"Q1", "A1"},
		{"Q2", "A2 with **bold**"},
		{"Q3", "A3 with <script>alert(1)</script>"},
	}
	for _, p := range pairs {
		rec := &domain.ChatRecord{Question: p[0], Answer: p[1]}
		if err := s.InsertChat(ctx, rec); err != nil {
			t.Fatalf("InsertChat(%q): %v", p[0], err)
		}
		if rec.ID == "" {
			t.Error("InsertChat did not assign an ID")
		}
		if rec.CreatedAt.IsZero() {
			t.Error("InsertChat did not assign a timestamp")
		}
	}

	records, err := s.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(records) != len(pairs) {
		t.Fatalf("expected %d records, got %d", len(pairs), len(records))
	}
	// Insertion order is preserved; answers are stored verbatim.
	for i, rec := range records {
		if rec.Question != pairs[i][0] || rec.Answer != pairs[i][1] {
			t.Errorf("record %d = (%q, %q), want (%q, %q)",
				i, rec.Question, rec.Answer, pairs[i][0], pairs[i][1])
		}
	}
}

func TestListChatsEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.ListChats(context.Background())
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d records", len(records))
	}
}

func TestInsertChatSelfHealsMissingTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.db.Exec("DROP TABLE chat_history"); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	rec := &domain.ChatRecord{Question: "Q", Answer: "A"}
	if err := s.InsertChat(ctx, rec); err != nil {
		t.Fatalf("InsertChat after table drop: %v", err)
	}

	records, err := s.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(records) != 1 || records[0].Question != "Q" {
		t.Fatalf("self-healed insert missing: %+v", records)
	}
}

func TestInsertChatKeepsCallerFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := &domain.ChatRecord{
		ID:        "fixed-id",
		Question:  "Q",
		Answer:    "A",
		CreatedAt: created,
	}
	if err := s.InsertChat(ctx, rec); err != nil {
		t.Fatalf("InsertChat: %v", err)
	}

	records, err := s.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if records[0].ID != "fixed-id" {
		t.Errorf("ID = %q, want fixed-id", records[0].ID)
	}
	if !records[0].CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", records[0].CreatedAt, created)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
