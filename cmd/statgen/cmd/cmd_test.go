package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/statgen/pkg/config"
	"github.com/shunichi-ikebuchi/statgen/pkg/ledger"
	"github.com/shunichi-ikebuchi/statgen/pkg/pathutil"
	"github.com/shunichi-ikebuchi/statgen/pkg/report"
	"github.com/shunichi-ikebuchi/statgen/pkg/rules"
	"github.com/shunichi-ikebuchi/statgen/pkg/workbook"
)

const ledgerCSV = `Date,GRP,C1,Debit,Credit,Balance
01/03/2025,BT,Cash Deposit,,100,100
15/03/2025,BT,,,200,300
31/03/2025,BT,,,300,600
20/03/2025,ecs,Cheque RTN,50,,550
05/04/2025,BT,Cash Withdrawal,120,,430
`

func writeLedger(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte(ledgerCSV), 0o644))
	return path
}

func baseOptions(dir string) generateOptions {
	return generateOptions{
		Input:         "ledger.csv",
		StartDate:     "2025-03-15",
		Months:        2,
		SRTSheet:      "SRT",
		STATSheet:     "STAT",
		SubcodeColumn: "C1",
		Workers:       2,
		Root:          dir,
	}
}

func TestGenerateWritesCSV(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir)

	opts := baseOptions(dir)
	opts.Output = "out/stat.csv"

	res, err := generate(context.Background(), opts, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "stat.csv"), res.Output)
	assert.Equal(t, 5, res.Transactions)
	assert.Nil(t, res.Run)

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"", "2025-03-15", "2025-04-15", "", "", "", ""}, records[0])
	assert.Equal(t, []string{"Credit (BT)", "600", "0", "", "", "", ""}, records[2])
	assert.Equal(t, []string{"Monthly Loan payments Bank", "0", "0", "", "", "", ""}, records[11])
	assert.Equal(t, []string{"Count of Cash Trn", "1", "1", "", "", "", ""}, records[22])
}

func TestGenerateDefaultOutputAndHistory(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir)

	opts := baseOptions(dir)
	opts.HistoryDB = "runs.db"

	first, err := generate(context.Background(), opts, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ledger"+pathutil.OutputSuffix+".xlsx"), first.Output)
	assert.FileExists(t, first.Output)
	require.NotNil(t, first.Run)

	second, err := generate(context.Background(), opts, &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, second.Run)
	assert.NotEqual(t, first.Run.ID, second.Run.ID)
	assert.Equal(t, first.Run.Checksum, second.Run.Checksum)

	var out bytes.Buffer
	paths := pathutil.New(pathutil.Config{Root: dir, HistoryDB: "runs.db"})
	require.NoError(t, showHistory(context.Background(), paths, historyOptions{Limit: 1}, &out))
	assert.Contains(t, out.String(), "Total runs:      2")
	assert.Contains(t, out.String(), "Last run:        ")
	assert.Contains(t, out.String(), second.Run.ID)
	assert.NotContains(t, out.String(), first.Run.ID)

	out.Reset()
	require.NoError(t, showHistory(context.Background(), paths, historyOptions{Checksum: shortChecksum(first.Run.Checksum)}, &out))
	assert.Contains(t, out.String(), first.Run.ID)
	assert.Contains(t, out.String(), second.Run.ID)

	out.Reset()
	require.NoError(t, showHistory(context.Background(), paths, historyOptions{Delete: first.Run.ID}, &out))
	assert.Contains(t, out.String(), "Deleted run "+first.Run.ID)

	err = showHistory(context.Background(), paths, historyOptions{Delete: first.Run.ID}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "not found")

	out.Reset()
	require.NoError(t, showHistory(context.Background(), paths, historyOptions{}, &out))
	assert.Contains(t, out.String(), "Total runs:      1")
	assert.NotContains(t, out.String(), first.Run.ID)
}

func TestGenerateDryRun(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir)

	opts := baseOptions(dir)
	opts.DryRun = true
	opts.Output = "never.xlsx"

	var out bytes.Buffer
	res, err := generate(context.Background(), opts, &out)
	require.NoError(t, err)
	assert.Empty(t, res.Output)
	assert.NoFileExists(t, filepath.Join(dir, "never.xlsx"))
	assert.Contains(t, out.String(), "Credit (BT)")
	assert.Contains(t, out.String(), "n/a")
}

func TestGenerateRejectsMissingInput(t *testing.T) {
	dir := t.TempDir()

	opts := baseOptions(dir)
	opts.Input = "absent.csv"
	_, err := generate(context.Background(), opts, &bytes.Buffer{})
	assert.ErrorContains(t, err, "input file not found")

	q := queryOptions{Input: "absent.csv", Month: "2025-03-01", Group: "BT", Column: "credit", Root: dir}
	assert.ErrorContains(t, query(q, &bytes.Buffer{}), "input file not found")
}

func TestGenerateValidatesEffectiveOptions(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir)

	opts := baseOptions(dir)
	opts.STATSheet = opts.SRTSheet
	opts.Output = "stat.csv"
	_, err := generate(context.Background(), opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
	assert.NoFileExists(t, filepath.Join(dir, "stat.csv"))
}

func TestMonthsFlagOverridesInvalidEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir)
	t.Chdir(dir)
	t.Setenv("STATGEN_MONTHS", "0")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"generate", "ledger.csv", "stat.csv", "--start-date", "2025-03-01", "--months", "3"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "3 months")

	data, err := os.ReadFile(filepath.Join(dir, "stat.csv"))
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records[0], 3+5)
}

func TestCommandsKeepTheirOwnFlagValues(t *testing.T) {
	require.NoError(t, generateCmd.Flags().Set("subcode-column", "Detail"))
	t.Cleanup(func() { generateCmd.Flags().Set("subcode-column", workbook.DefaultSubcodeColumn) })

	assert.Equal(t, "Detail", subcodeColumn)
	assert.Equal(t, workbook.DefaultSubcodeColumn, querySubcodeColumn)
	assert.Empty(t, historyDBPath)
}

func TestUnknownRuleMetrics(t *testing.T) {
	set, err := rules.Parse([]byte("metrics:\n" +
		"  \"Sales trend\": [{threshold: 1, score: 2}]\n" +
		"  \"Sales Trend\": [{threshold: 1, score: 2}]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Sales Trend"}, unknownRuleMetrics(set))
	assert.Empty(t, unknownRuleMetrics(nil))
}

func TestGenerateFailsBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir)

	opts := baseOptions(dir)
	opts.Months = 0
	opts.Output = "stat.csv"
	_, err := generate(context.Background(), opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, report.ErrInvalidConfiguration)
	assert.NoFileExists(t, filepath.Join(dir, "stat.csv"))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Date,GRP,Debit,Credit,Balance\nnot a date,BT,,1,1\n"), 0o644))
	opts = baseOptions(dir)
	opts.Input = "bad.csv"
	opts.Output = "stat.csv"
	_, err = generate(context.Background(), opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, ledger.ErrMalformedRow)
	assert.NoFileExists(t, filepath.Join(dir, "stat.csv"))
}

func TestQuery(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir)

	base := queryOptions{Input: "ledger.csv", Month: "2025-03-01", SRTSheet: "SRT", SubcodeColumn: "C1", Root: dir}

	tests := []struct {
		name   string
		modify func(*queryOptions)
		want   string
	}{
		{"credit sum", func(o *queryOptions) { o.Group, o.Column = "BT", "credit" }, "2025-03-31\tcredit\t600\n"},
		{"excluded debit", func(o *queryOptions) { o.Group, o.Column, o.Exclude = "ecs", "debit", "RTN" }, "2025-03-31\tdebit\t0\n"},
		{"raw debit", func(o *queryOptions) { o.Group, o.Column = "ecs", "Debit" }, "2025-03-31\tdebit\t50\n"},
		{"count all", func(o *queryOptions) { o.Count = true }, "2025-03-31\tcount\t4\n"},
		{"count where", func(o *queryOptions) {
			o.Count, o.Group, o.Where = true, "BT", []string{"credit=>150", "subcode=<>Cash"}
		}, "2025-03-31\tcount\t2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			opts.Column = "credit"
			tt.modify(&opts)

			var out bytes.Buffer
			require.NoError(t, query(opts, &out))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestQueryRejectsBadOptions(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir)
	base := queryOptions{Input: "ledger.csv", Month: "2025-03-01", Group: "BT", Column: "credit", SRTSheet: "SRT", SubcodeColumn: "C1", Root: dir}

	tests := []struct {
		name   string
		modify func(*queryOptions)
		want   string
	}{
		{"bad month", func(o *queryOptions) { o.Month = "March" }, "--month"},
		{"where without count", func(o *queryOptions) { o.Where = []string{"debit=>1"} }, "--count"},
		{"missing group", func(o *queryOptions) { o.Group = "" }, "--group"},
		{"bad column", func(o *queryOptions) { o.Column = "balance" }, "--column"},
		{"bad filter", func(o *queryOptions) { o.Count, o.Where = true, []string{"nonsense"} }, "column=expr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.modify(&opts)
			err := query(opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestShowHistoryDisabled(t *testing.T) {
	err := showHistory(context.Background(), pathutil.New(pathutil.Config{Root: t.TempDir()}), historyOptions{Limit: 10}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "disabled")
}
