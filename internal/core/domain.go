package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Expense  TransactionType = "expense"
	Income   TransactionType = "income"
	Transfer TransactionType = "transfer"
)

// DefaultAccount is used when a transaction does not name an account.
const DefaultAccount = "default"

type (
	TransactionType string

	// Transaction is one money movement. Amount is a magnitude; the
	// direction is carried by Type. Category is the only field agents mutate.
	Transaction struct {
		ID          string
		Date        time.Time
		Amount      Money
		Description string
		Merchant    string
		Category    string
		Type        TransactionType
		Account     string
	}

	// Budget is the target allocation for one category. Spent is derived
	// from transaction sums and never stored.
	Budget struct {
		Category  string
		Allocated Money
		Spent     Money
		Period    string
	}
)

var (
	// ErrInvalidTransaction wraps every error returned by Transaction.Validate.
	ErrInvalidTransaction = errors.New("invalid transaction")

	ErrEmptyID         = errors.New("empty transaction id")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrDescriptionSize = errors.New("description too long (max 200 characters)")
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case Expense, Income, Transfer:
		return true
	}
	return false
}

// Validate is enforced by every TransactionStore on Upsert.
func (t Transaction) Validate() error {
	var err error
	switch {
	case strings.TrimSpace(t.ID) == "":
		err = ErrEmptyID
	case t.Date.IsZero():
		err = ErrZeroDate
	case t.Amount.Cents < 0:
		err = ErrNegativeAmount
	case !t.Type.Valid():
		err = ErrInvalidType
	case len(t.Description) > 200:
		err = ErrDescriptionSize
	default:
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
}

// HasCategory reports whether an agent or importer already assigned a category.
func (t Transaction) HasCategory() bool {
	return strings.TrimSpace(t.Category) != ""
}

// AccountOrDefault returns the account name, falling back to DefaultAccount.
func (t Transaction) AccountOrDefault() string {
	if strings.TrimSpace(t.Account) == "" {
		return DefaultAccount
	}
	return t.Account
}
