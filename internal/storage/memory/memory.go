package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"finsphere/internal/core"
	"finsphere/internal/storage"
)

// Store keeps transactions in memory keyed by ID.
type Store struct {
	mu    sync.RWMutex
	items map[string]core.Transaction
	now   func() time.Time
}

func New(txs ...core.Transaction) *Store {
	s := &Store{items: make(map[string]core.Transaction, len(txs)), now: time.Now}
	for _, tx := range txs {
		s.items[tx.ID] = tx
	}
	return s
}

// NewFromFile seeds the store from a CSV-like file with lines of
// "days_ago,amount,type,description,merchant". Seed dates are relative to
// seededAt; queries still use the live clock. Missing or unreadable files
// yield an empty store.
func NewFromFile(path string, seededAt time.Time) (*Store, error) {
	s := New()
	for i, line := range readLines(path) {
		tx, err := parseSeedLine(line, seededAt)
		if err != nil {
			return nil, fmt.Errorf("seed line %d: %w", i+1, err)
		}
		tx.ID = fmt.Sprintf("seed-%03d", i+1)
		s.items[tx.ID] = tx
	}
	return s, nil
}

// WithClock replaces the clock used to compute query windows.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Upsert implements storage.TransactionWriter.
func (s *Store) Upsert(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	tx.Account = tx.AccountOrDefault()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[tx.ID] = tx
	return nil
}

// Query implements storage.TransactionReader.
func (s *Store) Query(_ context.Context, sinceDays int) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-time.Duration(sinceDays) * 24 * time.Hour)
	out := make([]core.Transaction, 0, len(s.items))
	for _, tx := range s.items {
		if !tx.Date.Before(cutoff) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.items[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, storage.ErrNotFound)
	}
	return tx, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func parseSeedLine(line string, now time.Time) (core.Transaction, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 4 {
		return core.Transaction{}, fmt.Errorf("expected at least 4 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	var daysAgo int
	if _, err := fmt.Sscanf(fields[0], "%d", &daysAgo); err != nil {
		return core.Transaction{}, fmt.Errorf("parse days ago %q: %w", fields[0], err)
	}
	cents, err := core.ParseDecimalToCents(fields[1])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", fields[1], err)
	}
	tx := core.Transaction{
		Date:        now.AddDate(0, 0, -daysAgo),
		Amount:      core.Money{Cents: cents},
		Type:        core.TransactionType(fields[2]),
		Description: fields[3],
		Account:     core.DefaultAccount,
	}
	if len(fields) > 4 {
		tx.Merchant = fields[4]
	}
	if !tx.Type.Valid() {
		return core.Transaction{}, core.ErrInvalidType
	}
	return tx, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

var _ storage.TransactionStore = (*Store)(nil)
