package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow is returned by Load when a row cannot be converted into a Transaction.
	ErrMalformedRow = errors.New("malformed ledger row")

	// ErrNoLedgerLoaded is returned when a computation is requested without a loaded ledger.
	ErrNoLedgerLoaded = errors.New("no ledger loaded")
)

// RowError describes which row and field failed to parse.
// It matches both ErrMalformedRow and the underlying parse error.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: row %d: invalid %s %q: %v", ErrMalformedRow, e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() []error {
	return []error{ErrMalformedRow, e.Err}
}
