package report

import (
	"math"
	"strconv"
)

// CellKind distinguishes the values a report cell can hold.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	// CellUnimplemented marks a figure the report layout reserves but the ledger cannot back yet.
	CellUnimplemented
)

// Cell is one typed report value.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
}

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: CellText, Text: s} }

// Unimplemented returns a placeholder cell.
func Unimplemented() Cell { return Cell{Kind: CellUnimplemented} }

// Number returns a numeric cell. Infinities become "inf"/"-inf" text and NaN becomes a placeholder,
// since neither can be stored in a spreadsheet number cell.
func Number(v float64) Cell {
	switch {
	case math.IsNaN(v):
		return Unimplemented()
	case math.IsInf(v, 1):
		return Text("inf")
	case math.IsInf(v, -1):
		return Text("-inf")
	}
	return Cell{Kind: CellNumber, Number: v}
}

// IsEmpty reports whether the cell renders as nothing in a spreadsheet.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || c.Kind == CellUnimplemented
}

// String renders the cell for text and CSV output. Unimplemented cells render empty.
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText:
		return c.Text
	}
	return ""
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
