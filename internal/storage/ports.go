package storage

import (
	"context"
	"errors"

	"finsphere/internal/core"
)

var ErrNotFound = errors.New("transaction not found")

// Ports implemented by the SQLite repository and the in-memory store.
type (
	TransactionWriter interface {
		// Upsert inserts the transaction or fully replaces the row with the same ID.
		// Invalid transactions are refused with an error wrapping
		// core.ErrInvalidTransaction.
		Upsert(ctx context.Context, tx core.Transaction) error
	}

	TransactionReader interface {
		// Query returns transactions dated within the last sinceDays days,
		// newest first.
		Query(ctx context.Context, sinceDays int) ([]core.Transaction, error)
	}

	TransactionStore interface {
		TransactionWriter
		TransactionReader
	}
)
