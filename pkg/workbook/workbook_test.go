package workbook

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/shunichi-ikebuchi/statgen/pkg/ledger"
	"github.com/shunichi-ikebuchi/statgen/pkg/report"
	"github.com/shunichi-ikebuchi/statgen/pkg/stats"
)

// writeInput builds a workbook with an SRT sheet and an unrelated Notes sheet.
func writeInput(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "SRT"))
	rows := [][]any{
		{"Date", "GRP", "C1", "Debit", "Credit", "Balance"},
		{45717.0, "BT", "Cash Deposit", nil, 100, 100}, // 2025-03-01
		{"15/03/2025", "BT", "", nil, 200, 300},
		{"2025-03-31", "BT", "", nil, 300, 600},
		{},
		{"2025-03-20", "ecs", "Cheque RTN", 50, nil, 550},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("SRT", cell, &row))
	}

	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "keep me"))

	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func generate(t *testing.T, rows []ledger.RawRow) *report.Report {
	t.Helper()
	l, err := ledger.Load(rows)
	require.NoError(t, err)
	cfg, err := report.NewRunConfig("2025-03-15", 1)
	require.NoError(t, err)
	r, err := report.Generate(context.Background(), l, cfg, report.Options{})
	require.NoError(t, err)
	return r
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.xlsx", FormatXLSX},
		{"dir/B.XLSX", FormatXLSX},
		{"c.csv", FormatCSV},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := DetectFormat("report.ods")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadLedgerXLSX(t *testing.T) {
	rows, err := New().ReadLedger(writeInput(t))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, ledger.RawRow{Line: 2, Date: "2025-03-01", Group: "BT", Subcode: "Cash Deposit", Credit: "100", Balance: "100"}, rows[0])
	assert.Equal(t, "15/03/2025", rows[1].Date)
	assert.Equal(t, 6, rows[3].Line)
	assert.Equal(t, "Cheque RTN", rows[3].Subcode)
	assert.Equal(t, "50", rows[3].Debit)
}

func TestReadLedgerXLSXErrors(t *testing.T) {
	input := writeInput(t)

	w := New()
	w.SRTSheet = "Missing"
	_, err := w.ReadLedger(input)
	assert.ErrorIs(t, err, ErrSheetNotFound)

	w = New()
	w.SRTSheet = "Notes"
	_, err = w.ReadLedger(input)
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = New().ReadLedger(filepath.Join(t.TempDir(), "ledger.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteReportXLSXPreservesSheets(t *testing.T) {
	input := writeInput(t)
	w := New()
	rows, err := w.ReadLedger(input)
	require.NoError(t, err)
	r := generate(t, rows)

	output := filepath.Join(t.TempDir(), "output.xlsx")
	require.NoError(t, w.WriteReport(input, output, rows, r))

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"SRT", "Notes", "STAT"}, f.GetSheetList())

	note, err := f.GetCellValue("Notes", "A1")
	require.NoError(t, err)
	assert.Equal(t, "keep me", note)

	header, err := f.GetCellValue("STAT", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", header)

	label, err := f.GetCellValue("STAT", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Credit (BT)", label)

	credit, err := f.GetCellValue("STAT", "B3")
	require.NoError(t, err)
	assert.Equal(t, "600", credit)

	ecs, err := f.GetCellValue("STAT", "B12")
	require.NoError(t, err)
	assert.Equal(t, "0", ecs, "returned ECS debit is excluded")

	top2, err := f.GetCellValue("STAT", "B6")
	require.NoError(t, err)
	assert.Empty(t, top2)

	// Writing twice replaces the STAT sheet instead of adding another.
	require.NoError(t, w.WriteReport(output, output, rows, r))
	again, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer again.Close()
	assert.Len(t, again.GetSheetList(), 3)
}

func TestWriteReportFromCSVInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ledger.csv")
	require.NoError(t, os.WriteFile(input, []byte("Date,GRP,C1,Debit,Credit,Balance\n2025-03-02,BT,,,250,250\n"), 0o644))

	w := New()
	rows, err := w.ReadLedger(input)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	r := generate(t, rows)

	output := filepath.Join(dir, "out.xlsx")
	require.NoError(t, w.WriteReport(input, output, rows, r))

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"SRT", "STAT"}, f.GetSheetList())

	srt, err := f.GetRows("SRT")
	require.NoError(t, err)
	require.Len(t, srt, 2)
	assert.Equal(t, []string{"Date", "GRP", "C1", "C2", "Debit", "Credit", "Balance"}, srt[0])
	assert.Equal(t, "250", srt[1][5])
}

func TestReadCSV(t *testing.T) {
	in := strings.NewReader("date, grp, Debit, Credit, Balance, Memo\n2025-03-01,BT,,\"1,000\",1000,x\n,,,,,\n")
	rows, err := New().ReadCSV(in)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ledger.RawRow{Line: 2, Date: "2025-03-01", Group: "BT", Credit: "1,000", Balance: "1000"}, rows[0])

	_, err = New().ReadCSV(strings.NewReader("Date,GRP,Debit\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.ErrorContains(t, err, "Balance, Credit")

	_, err = New().ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCSVRemarkColumn(t *testing.T) {
	in := "Date,GRP,C1,C2,Debit,Credit,Balance\n" +
		"2025-03-03,ecs,Cheque,RTN,50,,950\n" +
		"2025-03-04,BT,Cash Deposit,,,100,1050\n"

	rows, err := New().ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cheque", rows[0].Subcode)
	assert.Equal(t, "RTN", rows[0].Remark)

	agg := generate(t, rows).Aggregates[0]
	assert.True(t, agg.Get(stats.KeyECSDebit).IsZero(), "returned cheque marked in C2 is excluded")
	assert.True(t, agg.Get(stats.KeyCashCount).Equal(decimal.NewFromInt(1)))

	w := New()
	w.RemarkColumn = ""
	rows, err = w.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Empty(t, rows[0].Remark)
}

func TestWriteReportCSV(t *testing.T) {
	rows := []ledger.RawRow{{Date: "2025-03-02", Group: "BT", Credit: "100", Balance: "100"}}
	r := generate(t, rows)

	output := filepath.Join(t.TempDir(), "stat.csv")
	require.NoError(t, New().WriteReport("input.csv", output, rows, r))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, len(r.Grid()))
	assert.Equal(t, []string{"", "2025-03-15", "", "", "", ""}, records[0])
	assert.Equal(t, []string{"Credit (BT)", "100", "", "", "", ""}, records[2])
	assert.Equal(t, []string{"Top 2 Credit (BT)", "", "", "", "", ""}, records[5])
}
