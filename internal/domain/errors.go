package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Validation errors
	ErrDuplicateName        = errors.New("a customer with this name already exists")
	ErrInvalidName          = errors.New("customer name is required")
	ErrInvalidAmount        = errors.New("amount must be a whole number from 0 to 1,000,000,000,000,000")
	ErrNoOutstandingDebt    = errors.New("customer has no outstanding debt")
	ErrAmountExceedsBalance = errors.New("amount exceeds outstanding balance")
	ErrInvalidDate          = errors.New("date must be YYYY-MM-DD")
	ErrBalanceLimit         = errors.New("balance would exceed 1,000,000,000,000,000")

	// Lookup errors
	ErrNotFound = errors.New("record not found")

	// Persistence errors
	ErrPersistenceRead  = errors.New("malformed persisted collection")
	ErrPersistenceWrite = errors.New("persist snapshot failed")
	ErrKeyNotFound      = errors.New("key not found")
)

// BalanceError reports a write that would take a customer below zero.
// It matches ErrAmountExceedsBalance under errors.Is.
type BalanceError struct {
	CustomerID string
	Balance    Amount
	Amount     Amount
}

func (e *BalanceError) Error() string {
	return "amount " + strconv.FormatInt(int64(e.Amount), 10) +
		" exceeds outstanding balance " + strconv.FormatInt(int64(e.Balance), 10)
}

func (e *BalanceError) Unwrap() error { return ErrAmountExceedsBalance }

// CollectionReadError reports a collection that could not be loaded.
// The collection is treated as empty; the others are unaffected.
type CollectionReadError struct {
	Collection string
	Err        error
}

func (e *CollectionReadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Collection, e.Err)
}

func (e *CollectionReadError) Unwrap() []error { return []error{ErrPersistenceRead, e.Err} }
