package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	entries := []Entry{
		{RequestID: "a", Frame: "F1", Original: "first", Instruction: "fix", Rewritten: "First.", Success: true, Strategy: "plain-splice", CreatedAt: base},
		{RequestID: "b", Frame: "F2", Original: "second", Instruction: "fix", Rewritten: "Second.", Reason: "strategy_exhausted", CreatedAt: base.Add(time.Minute)},
		{RequestID: "c", Frame: "F1", Original: "third", Instruction: "fix", Rewritten: "Third.", Success: true, Provider: "gemini", Model: "gemini-2.0-flash", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s): %v", e.RequestID, err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].RequestID != "c" || got[1].RequestID != "b" {
		t.Errorf("order = %s,%s; want newest first", got[0].RequestID, got[1].RequestID)
	}
	if got[0].Provider != "gemini" || !got[0].Success {
		t.Errorf("entry c not round-tripped: %+v", got[0])
	}
	if got[1].Success || got[1].Reason != "strategy_exhausted" || got[1].Strategy != "" {
		t.Errorf("entry b not round-tripped: %+v", got[1])
	}
	if !got[1].CreatedAt.Equal(base.Add(time.Minute).Truncate(time.Millisecond)) {
		t.Errorf("CreatedAt = %v", got[1].CreatedAt)
	}
}

func TestRecordDefaultsCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	before := time.Now().Add(-time.Second)

	if err := s.Record(ctx, Entry{RequestID: "x", Frame: "F", Original: "o", Rewritten: "r"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].CreatedAt.Before(before) {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Record(context.Background(), Entry{RequestID: "keep", Frame: "F", Original: "o", Rewritten: "r"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Recent(context.Background(), 10)
	if err != nil || len(got) != 1 || got[0].RequestID != "keep" {
		t.Fatalf("entries after reopen: %+v, %v", got, err)
	}
}
