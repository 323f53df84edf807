package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/statgen/pkg/calendar"
)

// Ledger is an immutable, input-ordered collection of transactions.
// A Ledger is safe for concurrent reads.
type Ledger struct {
	txns []Transaction
}

// Load converts raw rows into a Ledger, preserving their order.
// A row without a parseable date, or with an unparseable amount, fails the whole load.
func Load(rows []RawRow) (*Ledger, error) {
	txns := make([]Transaction, 0, len(rows))
	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 1
		}

		txn, err := parseRow(row, line)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return &Ledger{txns: txns}, nil
}

// New builds a Ledger from already typed transactions.
func New(txns []Transaction) (*Ledger, error) {
	for i, t := range txns {
		if t.Date.IsZero() {
			return nil, &RowError{Row: i + 1, Field: "date", Err: errors.New("date is required")}
		}
	}
	return &Ledger{txns: append([]Transaction(nil), txns...)}, nil
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.txns)
}

// Transactions returns a copy of the transactions in input order.
func (l *Ledger) Transactions() []Transaction {
	if l == nil {
		return nil
	}
	return append([]Transaction(nil), l.txns...)
}

// FilteredSum sums column over the transactions of group inside w.
// Rows whose subcode or remark contains exclude are skipped when exclude is non-empty.
// Matching is case-sensitive. An empty match, or a non-numeric column, yields zero.
func (l *Ledger) FilteredSum(w calendar.Window, group string, column Column, exclude string) decimal.Decimal {
	sum := decimal.Zero
	if l == nil {
		return sum
	}
	for _, t := range l.txns {
		if t.Group != group || !w.Contains(t.Date) {
			continue
		}
		if exclude != "" && (strings.Contains(t.Subcode, exclude) || strings.Contains(t.Remark, exclude)) {
			continue
		}
		f, ok := t.lookup(column)
		if !ok || !f.numeric {
			continue
		}
		sum = sum.Add(f.num)
	}
	return sum
}

// LastBalanceOnOrBefore returns the balance of the last transaction, in input order,
// dated on or before date. It returns zero when there is none.
func (l *Ledger) LastBalanceOnOrBefore(date time.Time) decimal.Decimal {
	if l == nil {
		return decimal.Zero
	}
	cutoff := calendar.Day(date)
	for i := len(l.txns) - 1; i >= 0; i-- {
		if !calendar.Day(l.txns[i].Date).After(cutoff) {
			return l.txns[i].Balance
		}
	}
	return decimal.Zero
}

// FilteredCount counts transactions inside w, restricted to group when group is non-empty,
// that satisfy every condition.
func (l *Ledger) FilteredCount(w calendar.Window, group string, conds ...Condition) int {
	if l == nil {
		return 0
	}
	n := 0
	for _, t := range l.txns {
		if !w.Contains(t.Date) {
			continue
		}
		if group != "" && t.Group != group {
			continue
		}
		if !matchAll(t, conds) {
			continue
		}
		n++
	}
	return n
}
