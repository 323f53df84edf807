package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Condition is a column-level filter used by FilteredCount.
// The set of conditions is closed: Equals, GreaterThan and ExcludesSubstring.
type Condition interface {
	condition()
}

// Equals matches rows whose column equals Value.
// Numeric columns compare by decimal value, so "100" equals "100.00".
type Equals struct {
	Column Column
	Value  string
}

// GreaterThan matches rows whose numeric column is strictly greater than Threshold.
// It never matches a text column.
type GreaterThan struct {
	Column    Column
	Threshold decimal.Decimal
}

// ExcludesSubstring matches rows whose column does not contain Text.
type ExcludesSubstring struct {
	Column Column
	Text   string
}

func (Equals) condition()            {}
func (GreaterThan) condition()       {}
func (ExcludesSubstring) condition() {}

func matchAll(t Transaction, conds []Condition) bool {
	for _, c := range conds {
		if !evaluate(c, t) {
			return false
		}
	}
	return true
}

// evaluate applies c to t. Conditions on unknown columns are ignored.
func evaluate(c Condition, t Transaction) bool {
	switch c := c.(type) {
	case Equals:
		f, ok := t.lookup(c.Column)
		if !ok {
			return true
		}
		if f.numeric {
			want, err := decimal.NewFromString(strings.TrimSpace(c.Value))
			return err == nil && f.num.Equal(want)
		}
		return f.text == c.Value
	case GreaterThan:
		f, ok := t.lookup(c.Column)
		if !ok {
			return true
		}
		return f.numeric && f.num.GreaterThan(c.Threshold)
	case ExcludesSubstring:
		f, ok := t.lookup(c.Column)
		if !ok {
			return true
		}
		return !strings.Contains(f.text, c.Text)
	}
	return true
}

// ParseCondition builds a Condition from the spreadsheet-style criterion syntax:
// ">N" is GreaterThan, "<>text" is ExcludesSubstring, anything else is Equals.
func ParseCondition(column Column, expr string) (Condition, error) {
	switch {
	case strings.HasPrefix(expr, ">"):
		threshold, err := decimal.NewFromString(strings.TrimSpace(expr[1:]))
		if err != nil {
			return nil, fmt.Errorf("invalid threshold in %q: %w", expr, err)
		}
		return GreaterThan{Column: column, Threshold: threshold}, nil
	case strings.HasPrefix(expr, "<>"):
		return ExcludesSubstring{Column: column, Text: expr[2:]}, nil
	default:
		return Equals{Column: column, Value: expr}, nil
	}
}

// ParseFilter parses "column=expr", e.g. "subcode=Cash Deposit" or "debit=>100".
func ParseFilter(s string) (Condition, error) {
	column, expr, ok := strings.Cut(s, "=")
	column = strings.ToLower(strings.TrimSpace(column))
	if !ok || column == "" {
		return nil, fmt.Errorf("invalid filter %q: expected column=expr", s)
	}
	return ParseCondition(Column(column), expr)
}
