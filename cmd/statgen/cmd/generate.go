package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/statgen/pkg/calendar"
	"github.com/shunichi-ikebuchi/statgen/pkg/config"
	"github.com/shunichi-ikebuchi/statgen/pkg/db"
	"github.com/shunichi-ikebuchi/statgen/pkg/ledger"
	"github.com/shunichi-ikebuchi/statgen/pkg/pathutil"
	"github.com/shunichi-ikebuchi/statgen/pkg/report"
	"github.com/shunichi-ikebuchi/statgen/pkg/rules"
	"github.com/shunichi-ikebuchi/statgen/pkg/workbook"
)

var (
	startDate     string
	months        int
	srtSheet      string
	statSheet     string
	subcodeColumn string
	remarkColumn  string
	rulesFile     string
	workers       int
	historyDB     string
	dryRun        bool
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate INPUT [OUTPUT]",
	Short: "Generate the STAT report for a ledger",
	Long: `Generate the STAT report from the SRT ledger in INPUT.

This command:
1. Reads the SRT rows from an .xlsx sheet or a .csv file
2. Aggregates each requested month
3. Computes summary figures and scored metrics
4. Writes the STAT sheet into OUTPUT (.xlsx keeps the input's other sheets, .csv gets the grid)
5. Records the run in the history database when one is configured

OUTPUT defaults to INPUT's name with a _STAT.xlsx suffix.

Example:
  statgen generate statement.xlsx out.xlsx --start-date 2025-02-01 --months 6
  statgen generate statement.csv --rules scoring.yaml --dry-run`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&startDate, "start-date", report.DefaultStartDate, "first month anchor (YYYY-MM-DD)")
	generateCmd.Flags().IntVar(&months, "months", report.DefaultMonths, "number of months to report")
	generateCmd.Flags().StringVar(&srtSheet, "srt-sheet", workbook.DefaultSRTSheet, "input sheet holding the ledger")
	generateCmd.Flags().StringVar(&statSheet, "stat-sheet", workbook.DefaultSTATSheet, "output sheet receiving the report")
	generateCmd.Flags().StringVar(&subcodeColumn, "subcode-column", workbook.DefaultSubcodeColumn, "header of the subcode column")
	generateCmd.Flags().StringVar(&remarkColumn, "remark-column", workbook.DefaultRemarkColumn, "header of the remark column checked for returns (empty to ignore)")
	generateCmd.Flags().StringVar(&rulesFile, "rules", "", "YAML scoring rules file")
	generateCmd.Flags().IntVar(&workers, "workers", 4, "months aggregated concurrently")
	generateCmd.Flags().StringVar(&historyDB, "history-db", "", "SQLite run history file (disabled when empty)")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the report instead of writing it")
}

// generateOptions is one fully resolved generate invocation.
type generateOptions struct {
	Input         string
	Output        string
	StartDate     string
	Months        int
	SRTSheet      string
	STATSheet     string
	SubcodeColumn string
	RemarkColumn  string
	RulesFile     string
	Workers       int
	HistoryDB     string
	Root          string
	DryRun        bool
}

// generateResult summarises a completed run.
type generateResult struct {
	Output       string
	Transactions int
	Report       *report.Report
	Run          *db.RunRecord
}

func runGenerate(cmd *cobra.Command, args []string) {
	opts := generateOptionsFrom(cmd, args, appConfig)
	slog.Info("Starting generate", "input", opts.Input, "start", opts.StartDate, "months", opts.Months, "dry_run", opts.DryRun)

	res, err := generate(cmd.Context(), opts, cmd.OutOrStdout())
	exitOnError(err, "failed to generate report")

	if opts.DryRun {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d months, %d transactions, checksum %s)\n",
		res.Output, res.Report.Months(), res.Transactions, res.Report.Checksum())
	if res.Run != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded run %s\n", res.Run.ID)
	}
}

func generateOptionsFrom(cmd *cobra.Command, args []string, cfg *config.Config) generateOptions {
	if cfg == nil {
		cfg = &config.Config{
			StartDate:     report.DefaultStartDate,
			Months:        report.DefaultMonths,
			SRTSheet:      workbook.DefaultSRTSheet,
			STATSheet:     workbook.DefaultSTATSheet,
			SubcodeColumn: workbook.DefaultSubcodeColumn,
			RemarkColumn:  workbook.DefaultRemarkColumn,
			Workers:       4,
		}
	}

	opts := generateOptions{
		Input:         args[0],
		StartDate:     stringFlag(cmd, "start-date", startDate, cfg.StartDate),
		Months:        intFlag(cmd, "months", months, cfg.Months),
		SRTSheet:      stringFlag(cmd, "srt-sheet", srtSheet, cfg.SRTSheet),
		STATSheet:     stringFlag(cmd, "stat-sheet", statSheet, cfg.STATSheet),
		SubcodeColumn: stringFlag(cmd, "subcode-column", subcodeColumn, cfg.SubcodeColumn),
		RemarkColumn:  stringFlag(cmd, "remark-column", remarkColumn, cfg.RemarkColumn),
		RulesFile:     stringFlag(cmd, "rules", rulesFile, cfg.RulesFile),
		Workers:       intFlag(cmd, "workers", workers, cfg.Workers),
		HistoryDB:     stringFlag(cmd, "history-db", historyDB, cfg.HistoryDB),
		Root:          cfg.Root,
		DryRun:        dryRun,
	}
	if len(args) > 1 {
		opts.Output = args[1]
	}
	return opts
}

// generate runs the whole pipeline. Nothing is written unless every step before the write succeeds.
func generate(ctx context.Context, opts generateOptions, out io.Writer) (*generateResult, error) {
	runCfg, err := report.NewRunConfig(opts.StartDate, opts.Months)
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	paths := pathutil.New(pathutil.Config{Root: opts.Root, HistoryDB: opts.HistoryDB})
	input := paths.Resolve(opts.Input)
	if !paths.FileExists(input) {
		return nil, fmt.Errorf("input file not found: %s", input)
	}

	var set *rules.Set
	if opts.RulesFile != "" {
		set, err = rules.Load(paths.Resolve(opts.RulesFile))
		if err != nil {
			return nil, err
		}
		slog.Debug("Loaded scoring rules", "metrics", set.Metrics())
		if unknown := unknownRuleMetrics(set); len(unknown) > 0 {
			slog.Warn("Scoring rules name metrics the report does not compute", "metrics", unknown)
		}
	}

	wb := &workbook.Workbook{
		SRTSheet:      opts.SRTSheet,
		STATSheet:     opts.STATSheet,
		SubcodeColumn: opts.SubcodeColumn,
		RemarkColumn:  opts.RemarkColumn,
	}
	raw, err := wb.ReadLedger(input)
	if err != nil {
		return nil, err
	}
	l, err := ledger.Load(raw)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded ledger", "path", input, "transactions", l.Len())

	rep, err := report.Generate(ctx, l, runCfg, report.Options{Rules: set, Workers: opts.Workers})
	if err != nil {
		return nil, err
	}

	res := &generateResult{Transactions: l.Len(), Report: rep}
	if opts.DryRun {
		fmt.Fprint(out, rep.Format())
	} else {
		res.Output = paths.Resolve(opts.Output)
		if res.Output == "" {
			res.Output = paths.DefaultOutputPath(opts.Input)
		}
		if err := paths.EnsureParentDir(res.Output); err != nil {
			return nil, err
		}
		if err := wb.WriteReport(input, res.Output, raw, rep); err != nil {
			return nil, err
		}
	}

	if dbPath, ok := paths.HistoryPath(); ok {
		run, err := recordRun(ctx, dbPath, db.RunRecord{
			InputPath:    input,
			OutputPath:   res.Output,
			StartDate:    runCfg.Start.Format(calendar.Layout),
			Months:       runCfg.Months,
			Transactions: l.Len(),
			GridRows:     len(rep.Grid()),
			Checksum:     rep.Checksum(),
		})
		if err != nil {
			return nil, err
		}
		res.Run = run
	}
	return res, nil
}

// validate checks the effective options, after flags have overridden configuration.
func (o generateOptions) validate() error {
	cfg := config.Config{
		StartDate:     o.StartDate,
		Months:        o.Months,
		SRTSheet:      o.SRTSheet,
		STATSheet:     o.STATSheet,
		SubcodeColumn: o.SubcodeColumn,
		RemarkColumn:  o.RemarkColumn,
		Workers:       o.Workers,
	}
	return cfg.ValidateRun()
}

// unknownRuleMetrics lists configured rule metrics that no scoring row can use.
func unknownRuleMetrics(set *rules.Set) []string {
	scored := make(map[string]bool)
	for _, name := range report.ScoringMetrics() {
		scored[name] = true
	}
	var unknown []string
	for _, name := range set.Metrics() {
		if !scored[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

func recordRun(ctx context.Context, dbPath string, record db.RunRecord) (*db.RunRecord, error) {
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	run, err := db.NewRunHistory(conn).Record(ctx, record)
	if err != nil {
		return nil, err
	}
	slog.Info("Recorded run", "id", run.ID, "checksum", run.Checksum)
	return &run, nil
}
