package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order. Slash and dash forms are day-first, as bank statements print them.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2/1/2006",
	"2-1-2006",
	"2-Jan-2006",
	"2 Jan 2006",
}

// ParseDate parses a ledger date cell into midnight UTC of that day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.New("unrecognised date format")
}

// ParseAmount parses an amount cell. Empty, "-" and "nan" cells are zero.
// Thousands separators are stripped.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	switch strings.ToLower(value) {
	case "", "-", "nan":
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func parseRow(row RawRow, line int) (Transaction, error) {
	date, err := ParseDate(row.Date)
	if err != nil {
		return Transaction{}, &RowError{Row: line, Field: "date", Value: row.Date, Err: err}
	}

	txn := Transaction{Date: date, Group: row.Group, Subcode: row.Subcode, Remark: row.Remark}
	if txn.Debit, err = ParseAmount(row.Debit); err != nil {
		return Transaction{}, &RowError{Row: line, Field: "debit", Value: row.Debit, Err: err}
	}
	if txn.Credit, err = ParseAmount(row.Credit); err != nil {
		return Transaction{}, &RowError{Row: line, Field: "credit", Value: row.Credit, Err: err}
	}
	if txn.Balance, err = ParseAmount(row.Balance); err != nil {
		return Transaction{}, &RowError{Row: line, Field: "balance", Value: row.Balance, Err: err}
	}
	return txn, nil
}
