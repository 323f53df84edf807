package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/statgen/pkg/calendar"
	"github.com/shunichi-ikebuchi/statgen/pkg/ledger"
	"github.com/shunichi-ikebuchi/statgen/pkg/pathutil"
	"github.com/shunichi-ikebuchi/statgen/pkg/workbook"
)

var (
	queryMonth   string
	queryGroup   string
	queryColumn  string
	queryExclude string
	queryWhere   []string
	queryCount   bool

	querySRTSheet      string
	querySubcodeColumn string
	queryRemarkColumn  string
)

// queryCmd represents the query command.
var queryCmd = &cobra.Command{
	Use:   "query INPUT",
	Short: "Sum or count ledger rows for one month",
	Long: `Query the SRT ledger in INPUT for the month containing --month.

Without --count, prints the sum of --column over --group, skipping rows whose
subcode or remark contains --exclude. With --count, prints the number of matching rows;
--where adds conditions in spreadsheet criterion syntax:
  subcode=Cash Deposit   equals
  debit=>100             greater than
  subcode=<>RTN          does not contain

Example:
  statgen query statement.xlsx --month 2025-03-01 --group ecs --column debit --exclude RTN
  statgen query statement.xlsx --month 2025-03-01 --group BT --count --where "subcode=Cash Deposit"`,
	Args: cobra.ExactArgs(1),
	Run:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryMonth, "month", "", "any date in the month to query (YYYY-MM-DD) (required)")
	queryCmd.Flags().StringVar(&queryGroup, "group", "", "group code, e.g. BT (required for sums)")
	queryCmd.Flags().StringVar(&queryColumn, "column", string(ledger.ColumnCredit), "column to sum: debit or credit")
	queryCmd.Flags().StringVar(&queryExclude, "exclude", "", "skip rows whose subcode or remark contains this text")
	queryCmd.Flags().StringArrayVar(&queryWhere, "where", nil, "count condition column=expr (repeatable)")
	queryCmd.Flags().BoolVar(&queryCount, "count", false, "count rows instead of summing")
	queryCmd.Flags().StringVar(&querySRTSheet, "srt-sheet", workbook.DefaultSRTSheet, "input sheet holding the ledger")
	queryCmd.Flags().StringVar(&querySubcodeColumn, "subcode-column", workbook.DefaultSubcodeColumn, "header of the subcode column")
	queryCmd.Flags().StringVar(&queryRemarkColumn, "remark-column", workbook.DefaultRemarkColumn, "header of the remark column checked by --exclude (empty to ignore)")

	queryCmd.MarkFlagRequired("month")
}

type queryOptions struct {
	Input         string
	Month         string
	Group         string
	Column        string
	Exclude       string
	Where         []string
	Count         bool
	SRTSheet      string
	SubcodeColumn string
	RemarkColumn  string
	Root          string
}

func runQuery(cmd *cobra.Command, args []string) {
	opts := queryOptions{
		Input:   args[0],
		Month:   queryMonth,
		Group:   queryGroup,
		Column:  queryColumn,
		Exclude: queryExclude,
		Where:   queryWhere,
		Count:   queryCount,
	}
	opts.SRTSheet, opts.SubcodeColumn, opts.RemarkColumn = querySRTSheet, querySubcodeColumn, queryRemarkColumn
	if appConfig != nil {
		opts.SRTSheet = stringFlag(cmd, "srt-sheet", querySRTSheet, appConfig.SRTSheet)
		opts.SubcodeColumn = stringFlag(cmd, "subcode-column", querySubcodeColumn, appConfig.SubcodeColumn)
		opts.RemarkColumn = stringFlag(cmd, "remark-column", queryRemarkColumn, appConfig.RemarkColumn)
		opts.Root = appConfig.Root
	}

	exitOnError(query(opts, cmd.OutOrStdout()), "query failed")
}

func query(opts queryOptions, out io.Writer) error {
	anchor, err := calendar.Parse(opts.Month)
	if err != nil {
		return fmt.Errorf("invalid --month: %w", err)
	}

	conds := make([]ledger.Condition, 0, len(opts.Where))
	for _, w := range opts.Where {
		c, err := ledger.ParseFilter(w)
		if err != nil {
			return err
		}
		conds = append(conds, c)
	}
	if !opts.Count {
		if len(conds) > 0 {
			return fmt.Errorf("--where applies only with --count")
		}
		if opts.Group == "" {
			return fmt.Errorf("--group is required for sums")
		}
	}

	column := ledger.Column(strings.ToLower(opts.Column))
	if column != ledger.ColumnDebit && column != ledger.ColumnCredit {
		return fmt.Errorf("--column must be debit or credit, got %q", opts.Column)
	}

	paths := pathutil.New(pathutil.Config{Root: opts.Root})
	input := paths.Resolve(opts.Input)
	if !paths.FileExists(input) {
		return fmt.Errorf("input file not found: %s", input)
	}
	wb := &workbook.Workbook{SRTSheet: opts.SRTSheet, SubcodeColumn: opts.SubcodeColumn, RemarkColumn: opts.RemarkColumn}
	raw, err := wb.ReadLedger(input)
	if err != nil {
		return err
	}
	l, err := ledger.Load(raw)
	if err != nil {
		return err
	}

	window := calendar.MonthWindow(anchor)
	slog.Debug("Querying ledger", "window", window.String(), "group", opts.Group, "conditions", len(conds))

	if opts.Count {
		fmt.Fprintf(out, "%s\tcount\t%d\n", window.MonthEnd.Format(calendar.Layout), l.FilteredCount(window, opts.Group, conds...))
		return nil
	}
	sum := l.FilteredSum(window, opts.Group, column, opts.Exclude)
	fmt.Fprintf(out, "%s\t%s\t%s\n", window.MonthEnd.Format(calendar.Layout), column, sum.String())
	return nil
}
