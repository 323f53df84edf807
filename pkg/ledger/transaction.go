// Package ledger holds the in-memory SRT transaction ledger and the filtered queries run against it.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/statgen/pkg/calendar"
)

// Column names a transaction field that queries can filter on.
type Column string

const (
	ColumnDate    Column = "date"
	ColumnGroup   Column = "group"
	ColumnSubcode Column = "subcode"
	ColumnRemark  Column = "remark"
	ColumnDebit   Column = "debit"
	ColumnCredit  Column = "credit"
	ColumnBalance Column = "balance"
)

// Transaction is one SRT row.
// Debit and Credit are zero when the source cell was empty.
type Transaction struct {
	Date    time.Time
	Group   string // category code, e.g. "BT", "EXP", "ecs pvt"
	Subcode string // free-text descriptor, e.g. "Cash Deposit", "Cheque RTN"
	Remark  string // secondary descriptor; statements often mark returns here
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal
}

// RawRow is an untyped SRT row as read from a tabular container.
type RawRow struct {
	Line    int // source row number, used in error messages
	Date    string
	Group   string
	Subcode string
	Remark  string
	Debit   string
	Credit  string
	Balance string
}

// field is a column value in both its textual and numeric forms.
type field struct {
	text    string
	num     decimal.Decimal
	numeric bool
}

// lookup returns the value of column c, or false when c is not a known column.
func (t Transaction) lookup(c Column) (field, bool) {
	switch c {
	case ColumnDate:
		return field{text: t.Date.Format(calendar.Layout)}, true
	case ColumnGroup:
		return field{text: t.Group}, true
	case ColumnSubcode:
		return field{text: t.Subcode}, true
	case ColumnRemark:
		return field{text: t.Remark}, true
	case ColumnDebit:
		return field{text: t.Debit.String(), num: t.Debit, numeric: true}, true
	case ColumnCredit:
		return field{text: t.Credit.String(), num: t.Credit, numeric: true}, true
	case ColumnBalance:
		return field{text: t.Balance.String(), num: t.Balance, numeric: true}, true
	}
	return field{}, false
}
