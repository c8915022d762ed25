package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finsphere/internal/core"
	"finsphere/internal/storage"
)

func TestMemoryStoreUpsertAndQuery(t *testing.T) {
	now := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return now })
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		{ID: "a", Date: now.AddDate(0, 0, -1), Amount: core.Money{Cents: 100}, Type: core.Expense},
		{ID: "b", Date: now.AddDate(0, 0, -40), Amount: core.Money{Cents: 100}, Type: core.Expense},
		{ID: "c", Date: now, Amount: core.Money{Cents: 100}, Type: core.Income},
	} {
		if err := s.Upsert(ctx, tx); err != nil {
			t.Fatalf("upsert %s: %v", tx.ID, err)
		}
	}

	got, err := s.Query(ctx, 30)
	if err != nil || len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("unexpected query result: %+v err=%v", got, err)
	}
	if got[0].Account != core.DefaultAccount {
		t.Fatalf("expected default account, got %q", got[0].Account)
	}

	if err := s.Upsert(ctx, core.Transaction{ID: "a", Date: now, Type: core.Expense, Category: "food"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	tx, err := s.Get(ctx, "a")
	if err != nil || tx.Category != "food" || tx.Amount.Cents != 0 {
		t.Fatalf("expected full replace, got %+v err=%v", tx, err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", s.Len())
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	err := s.Upsert(context.Background(), core.Transaction{ID: "x", Date: time.Now(), Type: "bogus"})
	if !errors.Is(err, core.ErrInvalidType) || !errors.Is(err, core.ErrInvalidTransaction) {
		t.Fatalf("expected invalid transaction type error, got %v", err)
	}
	if _, err := s.Get(context.Background(), "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	now := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.csv"), now)
	if err != nil || s.Len() != 0 {
		t.Fatalf("expected empty store for missing file, len=%d err=%v", s.Len(), err)
	}

	path := filepath.Join(dir, "seed.csv")
	content := "# days_ago,amount,type,description,merchant\n0,4.50,expense,iced coffee,starbucks\n\n3,3000,income,salary\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path, now)
	if err != nil || s.Len() != 2 {
		t.Fatalf("expected 2 seeded items, len=%d err=%v", s.Len(), err)
	}
	tx, _ := s.Get(context.Background(), "seed-001")
	if tx.Merchant != "starbucks" || tx.Amount.Cents != 450 {
		t.Fatalf("unexpected seed row: %+v", tx)
	}

	bad := filepath.Join(dir, "bad.csv")
	_ = os.WriteFile(bad, []byte("x,1,expense,oops\n"), 0o644)
	if _, err := NewFromFile(bad, now); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewFromFileQueriesUseLiveClock(t *testing.T) {
	seededAt := time.Now().AddDate(0, 0, -40)
	path := filepath.Join(t.TempDir(), "seed.csv")
	if err := os.WriteFile(path, []byte("0,10,expense,lunch\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err := NewFromFile(path, seededAt)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	ctx := context.Background()
	old := core.Transaction{ID: "old", Date: time.Now().AddDate(0, 0, -35), Amount: core.Money{Cents: 500}, Type: core.Expense}
	if err := s.Upsert(ctx, old); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Query(ctx, 30)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 30-day window measured from now to be empty, got %+v", got)
	}

	got, _ = s.Query(ctx, 45)
	if len(got) != 2 {
		t.Fatalf("expected both transactions in a 45-day window, got %d", len(got))
	}
}
