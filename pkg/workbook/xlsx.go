package workbook

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shunichi-ikebuchi/statgen/pkg/calendar"
	"github.com/shunichi-ikebuchi/statgen/pkg/ledger"
	"github.com/shunichi-ikebuchi/statgen/pkg/report"
)

// Column widths of the STAT sheet.
const (
	labelColumnWidth  = 32
	metricColumnWidth = 40
	valueColumnWidth  = 14
)

func (w *Workbook) readXLSX(path string) ([]ledger.RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(w.SRTSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sheet: %w", err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrSheetNotFound, w.SRTSheet, path)
	}

	records, err := f.GetRows(w.SRTSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", w.SRTSheet, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrMissingColumn, w.SRTSheet)
	}

	header, err := w.indexHeader(records[0])
	if err != nil {
		return nil, err
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	rows := header.rawRows(records[1:], 2, func(v string) string { return serialDate(v, date1904) })
	slog.Debug("Read SRT sheet", "path", path, "sheet", w.SRTSheet, "rows", len(rows))
	return rows, nil
}

// serialDate converts an Excel serial date cell to YYYY-MM-DD. Textual dates pass through.
func serialDate(v string, date1904 bool) string {
	v = strings.TrimSpace(v)
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return v
	}
	return t.Format(calendar.Layout)
}

func (w *Workbook) writeXLSX(input, output string, rows []ledger.RawRow, r *report.Report) error {
	f, err := w.openBase(input, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(w.STATSheet); err == nil && idx >= 0 {
		if err := f.DeleteSheet(w.STATSheet); err != nil {
			return fmt.Errorf("failed to remove sheet %q: %w", w.STATSheet, err)
		}
	}
	if _, err := f.NewSheet(w.STATSheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", w.STATSheet, err)
	}

	grid := r.Grid()
	for i, row := range grid {
		for j, c := range row {
			if c.IsEmpty() {
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			var v any = c.Text
			if c.Kind == report.CellNumber {
				v = c.Number
			}
			if err := f.SetCellValue(w.STATSheet, name, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", name, err)
			}
		}
	}

	if err := w.styleSTAT(f, r.Months(), len(grid)); err != nil {
		return err
	}

	if err := f.SaveAs(output); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	slog.Info("Wrote STAT sheet", "path", output, "sheet", w.STATSheet, "rows", len(grid))
	return nil
}

// openBase opens input when it is a workbook, otherwise builds a new one holding the SRT rows.
func (w *Workbook) openBase(input string, rows []ledger.RawRow) (*excelize.File, error) {
	if format, err := DetectFormat(input); err == nil && format == FormatXLSX {
		f, err := excelize.OpenFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		return f, nil
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", w.SRTSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet %q: %w", w.SRTSheet, err)
	}
	header := w.srtHeaders()
	if err := f.SetSheetRow(w.SRTSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	for i, row := range rows {
		values := w.srtValues(row)
		if err := f.SetSheetRow(w.SRTSheet, "A"+strconv.Itoa(i+2), &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

type styledRange struct {
	from, to string
	style    int
}

// styleSTAT applies bold headers, a bold label column, a bold metric-name column,
// right-aligned metric values and centered scores.
func (w *Workbook) styleSTAT(f *excelize.File, months, rows int) error {
	width := months + 5
	col := func(i int) string {
		name, _ := excelize.ColumnNumberToName(i + 1)
		return name
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	right, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "right"}})
	if err != nil {
		return err
	}
	center, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}})
	if err != nil {
		return err
	}

	styles := []styledRange{{col(0) + "1", col(width-1) + "1", header}}
	if rows > 1 {
		for _, s := range []struct{ column, style int }{
			{0, bold},
			{months + 2, bold},
			{months + 3, right},
			{months + 4, center},
		} {
			styles = append(styles, styledRange{col(s.column) + "2", col(s.column) + strconv.Itoa(rows), s.style})
		}
	}
	for _, s := range styles {
		if err := f.SetCellStyle(w.STATSheet, s.from, s.to, s.style); err != nil {
			return fmt.Errorf("failed to style %s:%s: %w", s.from, s.to, err)
		}
	}

	for _, cw := range []struct {
		column int
		width  float64
	}{
		{0, labelColumnWidth},
		{months + 1, valueColumnWidth},
		{months + 2, metricColumnWidth},
	} {
		if err := f.SetColWidth(w.STATSheet, col(cw.column), col(cw.column), cw.width); err != nil {
			return err
		}
	}
	return nil
}
