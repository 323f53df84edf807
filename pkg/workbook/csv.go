package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shunichi-ikebuchi/statgen/pkg/ledger"
	"github.com/shunichi-ikebuchi/statgen/pkg/report"
)

func (w *Workbook) readCSV(path string) ([]ledger.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	rows, err := w.ReadCSV(f)
	if err != nil {
		return nil, err
	}
	slog.Debug("Read SRT CSV", "path", path, "rows", len(rows))
	return rows, nil
}

// ReadCSV reads SRT rows from a CSV stream whose first record is the header.
func (w *Workbook) ReadCSV(r io.Reader) ([]ledger.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: CSV has no header row", ErrMissingColumn)
	}

	header, err := w.indexHeader(records[0])
	if err != nil {
		return nil, err
	}
	return header.rawRows(records[1:], 2, func(v string) string { return v }), nil
}

func writeCSV(path string, grid [][]report.Cell) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV: %w", err)
	}
	if err := WriteGridCSV(f, grid); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close CSV: %w", err)
	}
	slog.Info("Wrote STAT CSV", "path", path, "rows", len(grid))
	return nil
}

// WriteGridCSV serialises a report grid. Placeholder cells are written empty.
func WriteGridCSV(w io.Writer, grid [][]report.Cell) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	for _, row := range grid {
		record := make([]string, len(row))
		for i, c := range row {
			record[i] = c.String()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
