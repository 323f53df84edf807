// Package workbook reads SRT ledgers from spreadsheet containers and writes STAT reports back.
package workbook

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shunichi-ikebuchi/statgen/pkg/ledger"
	"github.com/shunichi-ikebuchi/statgen/pkg/report"
)

var (
	// ErrSheetNotFound is returned when the SRT sheet is missing from the input workbook.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrUnsupportedFormat is returned for file extensions other than .xlsx and .csv.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Default sheet and column names.
const (
	DefaultSRTSheet      = "SRT"
	DefaultSTATSheet     = "STAT"
	DefaultSubcodeColumn = "C1"
	DefaultRemarkColumn  = "C2"
)

// Format is a spreadsheet container type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat derives the container type from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Workbook reads and writes SRT/STAT spreadsheets.
type Workbook struct {
	// SRTSheet names the input sheet holding the ledger.
	SRTSheet string
	// STATSheet names the output sheet that receives the report.
	STATSheet string
	// SubcodeColumn is the header of the subcode column. It is optional in the input.
	SubcodeColumn string
	// RemarkColumn is the header of the secondary descriptor column, where
	// returned cheques are usually marked. It is optional in the input.
	RemarkColumn string
}

// New returns a Workbook with default sheet and column names.
func New() *Workbook {
	return &Workbook{
		SRTSheet:      DefaultSRTSheet,
		STATSheet:     DefaultSTATSheet,
		SubcodeColumn: DefaultSubcodeColumn,
		RemarkColumn:  DefaultRemarkColumn,
	}
}

// ReadLedger loads the SRT rows from path.
func (w *Workbook) ReadLedger(path string) ([]ledger.RawRow, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return w.readCSV(path)
	default:
		return w.readXLSX(path)
	}
}

// WriteReport writes r to output. An .xlsx output keeps every sheet of an .xlsx
// input and replaces or adds the STAT sheet; for any other input the SRT rows
// are written to a fresh workbook alongside the report. A .csv output receives
// only the report grid.
func (w *Workbook) WriteReport(input, output string, rows []ledger.RawRow, r *report.Report) error {
	format, err := DetectFormat(output)
	if err != nil {
		return err
	}
	switch format {
	case FormatCSV:
		return writeCSV(output, r.Grid())
	default:
		return w.writeXLSX(input, output, rows, r)
	}
}

// srtHeaders lists the SRT column headers in write order.
func (w *Workbook) srtHeaders() []string {
	if w.RemarkColumn == "" {
		return []string{"Date", "GRP", w.SubcodeColumn, "Debit", "Credit", "Balance"}
	}
	return []string{"Date", "GRP", w.SubcodeColumn, w.RemarkColumn, "Debit", "Credit", "Balance"}
}

// srtValues returns row in srtHeaders order.
func (w *Workbook) srtValues(row ledger.RawRow) []any {
	if w.RemarkColumn == "" {
		return []any{row.Date, row.Group, row.Subcode, row.Debit, row.Credit, row.Balance}
	}
	return []any{row.Date, row.Group, row.Subcode, row.Remark, row.Debit, row.Credit, row.Balance}
}

// columnIndex maps ledger fields to positions in a header row.
type columnIndex struct {
	date, group, subcode, remark, debit, credit, balance int
}

func (w *Workbook) indexHeader(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	find := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := pos[strings.ToLower(name)]; ok {
			return i
		}
		return -1
	}

	idx := columnIndex{
		date:    find("Date"),
		group:   find("GRP"),
		subcode: find(w.SubcodeColumn),
		remark:  find(w.RemarkColumn),
		debit:   find("Debit"),
		credit:  find("Credit"),
		balance: find("Balance"),
	}

	var missing []string
	for name, i := range map[string]int{"Date": idx.date, "GRP": idx.group, "Debit": idx.debit, "Credit": idx.credit, "Balance": idx.balance} {
		if i < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return idx, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// rawRows converts data records into ledger rows. Blank records are skipped;
// firstLine is the sheet line number of records[0].
func (idx columnIndex) rawRows(records [][]string, firstLine int, date func(string) string) []ledger.RawRow {
	rows := make([]ledger.RawRow, 0, len(records))
	for i, rec := range records {
		if blank(rec) {
			continue
		}
		rows = append(rows, ledger.RawRow{
			Line:    firstLine + i,
			Date:    date(cell(rec, idx.date)),
			Group:   cell(rec, idx.group),
			Subcode: cell(rec, idx.subcode),
			Remark:  cell(rec, idx.remark),
			Debit:   cell(rec, idx.debit),
			Credit:  cell(rec, idx.credit),
			Balance: cell(rec, idx.balance),
		})
	}
	return rows
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
