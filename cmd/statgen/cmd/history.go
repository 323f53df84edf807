package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/statgen/pkg/db"
	"github.com/shunichi-ikebuchi/statgen/pkg/pathutil"
)

var (
	historyDBPath   string
	historyLimit    int
	historyChecksum string
	historyDelete   string
)

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display recorded report runs",
	Long: `Display statistics and the most recent runs from the run history database.

Shows:
- Total number of runs and distinct inputs
- The last recorded run
- Recent runs with their grid checksum

Identical ledgers and configurations produce identical checksums; --checksum
lists every run that produced a given grid. --delete removes one run.

Example:
  statgen history --history-db runs.db --limit 5
  statgen history --history-db runs.db --checksum 3f2a9c01b4de
  statgen history --history-db runs.db --delete 7b0e...`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDBPath, "history-db", "", "SQLite run history file")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of runs to list (0 for all)")
	historyCmd.Flags().StringVar(&historyChecksum, "checksum", "", "list runs whose grid checksum starts with this value")
	historyCmd.Flags().StringVar(&historyDelete, "delete", "", "delete the run with this id")
	historyCmd.MarkFlagsMutuallyExclusive("checksum", "delete")
}

type historyOptions struct {
	Limit    int
	Checksum string
	Delete   string
}

func runHistory(cmd *cobra.Command, args []string) {
	dbPath, root := historyDBPath, "."
	if appConfig != nil {
		dbPath = stringFlag(cmd, "history-db", historyDBPath, appConfig.HistoryDB)
		root = appConfig.Root
	}

	opts := historyOptions{Limit: historyLimit, Checksum: historyChecksum, Delete: historyDelete}
	err := showHistory(cmd.Context(), pathutil.New(pathutil.Config{Root: root, HistoryDB: dbPath}), opts, cmd.OutOrStdout())
	exitOnError(err, "failed to show history")
}

func showHistory(ctx context.Context, paths *pathutil.PathResolver, opts historyOptions, out io.Writer) error {
	dbPath, ok := paths.HistoryPath()
	if !ok {
		return errors.New("run history is disabled: set --history-db or STATGEN_HISTORY_DB")
	}

	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	history := db.NewRunHistory(conn)
	switch {
	case opts.Delete != "":
		return deleteRun(ctx, history, opts.Delete, out)
	case opts.Checksum != "":
		return listByChecksum(ctx, history, opts.Checksum, out)
	}

	stats, err := history.GetStats(ctx)
	if err != nil {
		return err
	}
	last, err := history.Last(ctx)
	if err != nil {
		return err
	}
	runs, err := history.List(ctx, opts.Limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n=== Run History ===")
	fmt.Fprintf(out, "Total runs:      %d\n", stats.TotalRuns)
	fmt.Fprintf(out, "Distinct inputs: %d\n", stats.DistinctInputs)
	if last != nil {
		fmt.Fprintf(out, "Last run:        %s (%s, checksum %s)\n",
			last.CreatedAt.Format(time.RFC3339), last.ID, shortChecksum(last.Checksum))
	} else {
		fmt.Fprintf(out, "Last run:        (never)\n")
	}

	if len(runs) > 0 {
		fmt.Fprintln(out)
	}
	printRuns(out, runs)
	fmt.Fprintln(out)

	slog.Info("History displayed", "runs", len(runs))
	return nil
}

// listByChecksum prints the runs that produced the grid identified by checksum.
// A shortened checksum, as printed in listings, is matched as a prefix.
func listByChecksum(ctx context.Context, history *db.RunHistory, checksum string, out io.Writer) error {
	runs, err := history.FindByChecksum(ctx, checksum)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== Runs with checksum %s ===\n", checksum)
	if len(runs) == 0 {
		fmt.Fprintln(out, "(none)")
	}
	printRuns(out, runs)
	fmt.Fprintln(out)

	slog.Info("Checksum lookup", "checksum", checksum, "runs", len(runs))
	return nil
}

func deleteRun(ctx context.Context, history *db.RunHistory, id string, out io.Writer) error {
	deleted, err := history.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("run %s not found", id)
	}
	fmt.Fprintf(out, "Deleted run %s\n", id)
	slog.Info("Deleted run", "id", id)
	return nil
}

func printRuns(out io.Writer, runs []db.RunRecord) {
	for _, run := range runs {
		output := run.OutputPath
		if output == "" {
			output = "(dry run)"
		}
		fmt.Fprintf(out, "%s  %s  %s  start=%s months=%d txns=%d -> %s  %s\n",
			run.CreatedAt.Format(time.RFC3339), run.ID, run.InputPath,
			run.StartDate, run.Months, run.Transactions, output, shortChecksum(run.Checksum))
	}
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
