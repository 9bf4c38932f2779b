package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for pricing requests.
var (
	ErrNegativeTotal = errors.New("total amount must not be negative")
	ErrEmptyBatch    = errors.New("orders required")
)

// InvalidInputError reports a rejected request field.
type InvalidInputError struct {
	Field string
	Err   error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// BatchItemError identifies the batch entry that failed to price.
type BatchItemError struct {
	Index int
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("order %d: %v", e.Index, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}
