package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsphere/internal/core"
)

func newTestRepository(t *testing.T, now time.Time) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "finsphere.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo.WithClock(func() time.Time { return now })
}

func TestSQLiteRepository_UpsertAndQuery(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	repo := newTestRepository(t, now)
	ctx := context.Background()

	txs := []core.Transaction{
		{ID: "old", Date: now.AddDate(0, 0, -10), Amount: core.Money{Cents: 500}, Type: core.Expense},
		{ID: "mid", Date: now.AddDate(0, 0, -3), Amount: core.Money{Cents: 700}, Type: core.Expense, Description: "Pizza"},
		{ID: "new", Date: now.Add(-time.Hour), Amount: core.Money{Cents: 900}, Type: core.Income, Account: "savings"},
	}
	for _, tx := range txs {
		require.NoError(t, repo.Upsert(ctx, tx))
	}

	got, err := repo.Query(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "savings", got[0].Account)
	assert.Equal(t, core.DefaultAccount, got[1].Account)
	assert.Empty(t, got[1].Category)
	assert.True(t, got[1].Date.Equal(now.AddDate(0, 0, -3)))

	all, err := repo.Query(ctx, 30)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteRepository_UpsertReplacesRow(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	repo := newTestRepository(t, now)
	ctx := context.Background()

	tx := core.Transaction{ID: "t1", Date: now, Amount: core.Money{Cents: 100}, Type: core.Expense, Description: "Uber"}
	require.NoError(t, repo.Upsert(ctx, tx))

	tx.Category = "transport"
	tx.Amount = core.Money{Cents: 250}
	require.NoError(t, repo.Upsert(ctx, tx))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "transport", got.Category)
	assert.Equal(t, int64(250), got.Amount.Cents)

	all, err := repo.Query(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo := newTestRepository(t, time.Now())
	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRepository_ErrorsPropagate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepositoryWithDB(db)
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	mock.ExpectExec("INSERT INTO transactions").WillReturnError(boom)
	err = repo.Upsert(ctx, core.Transaction{ID: "x", Date: time.Now(), Type: core.Expense})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "upsert transaction x")

	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE occurred_at").WillReturnError(boom)
	_, err = repo.Query(ctx, 30)
	assert.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRepository_UpsertValidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepositoryWithDB(db)
	err = repo.Upsert(context.Background(), core.Transaction{ID: "x", Date: time.Now(), Type: "refund"})
	assert.ErrorIs(t, err, core.ErrInvalidTransaction)
	assert.ErrorIs(t, err, core.ErrInvalidType)

	zero := core.Transaction{ID: "z", Date: time.Now(), Type: core.Transfer}
	mock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Upsert(context.Background(), zero))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRepository_QueryScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	repo := NewRepositoryWithDB(db).WithClock(func() time.Time { return now })

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "amount_cents", "description", "merchant", "category", "type", "account"}).
		AddRow("a", now.UnixNano(), int64(1200), "Netflix", "", "entertainment", "expense", "default").
		AddRow("b", now.Add(-time.Hour).UnixNano(), int64(300), "Coffee", "cafe", nil, "expense", "default")
	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE occurred_at").
		WithArgs(now.AddDate(0, 0, -7).UnixNano()).
		WillReturnRows(rows)

	got, err := repo.Query(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "entertainment", got[0].Category)
	assert.Equal(t, "", got[1].Category)
	assert.Equal(t, core.Expense, got[1].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}
