// Package stats turns a ledger into monthly aggregates and the cross-month statistics derived from them.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/shunichi-ikebuchi/statgen/pkg/calendar"
	"github.com/shunichi-ikebuchi/statgen/pkg/ledger"
)

// MetricKey names one value of a MonthlyAggregate.
type MetricKey string

const (
	KeyEODBalance   MetricKey = "eod_balance"
	KeyBTCredit     MetricKey = "bt_credit"
	KeyBTDebit      MetricKey = "bt_debit"
	KeyExpense      MetricKey = "expense"
	KeyZIHCredit    MetricKey = "zih_credit"
	KeyZIHDebit     MetricKey = "zih_debit"
	KeyDBTCredit    MetricKey = "dbt_credit"
	KeyDBTDebit     MetricKey = "dbt_debit"
	KeyECSDebit     MetricKey = "ecs_debit"
	KeyECSPvtDebit  MetricKey = "ecs_pvt_debit"
	KeyECSCredit    MetricKey = "ecs_credit"
	KeyECSPvtCredit MetricKey = "ecs_pvt_credit"
	KeyBTCount      MetricKey = "bt_count"
	KeyCashCount    MetricKey = "cash_count"
)

// Category group codes.
const (
	GroupBT     = "BT"
	GroupEXP    = "EXP"
	GroupZIH    = "ZIH"
	GroupDBT    = "DBT"
	GroupECS    = "ecs"
	GroupECSPvt = "ecs pvt"
)

// Returned marks returned or dishonoured transactions in the subcode.
const Returned = "RTN"

// Cash subcodes counted by KeyCashCount.
const (
	SubcodeCashDeposit    = "Cash Deposit"
	SubcodeCashWithdrawal = "Cash Withdrawal"
)

// SumRule is one row of the category taxonomy.
type SumRule struct {
	Key     MetricKey
	Group   string
	Column  ledger.Column
	Exclude string
}

// Taxonomy lists the per-month sums. Only the ECS debit sums drop returned rows.
var Taxonomy = []SumRule{
	{KeyBTCredit, GroupBT, ledger.ColumnCredit, ""},
	{KeyBTDebit, GroupBT, ledger.ColumnDebit, ""},
	{KeyExpense, GroupEXP, ledger.ColumnDebit, ""},
	{KeyZIHCredit, GroupZIH, ledger.ColumnCredit, ""},
	{KeyZIHDebit, GroupZIH, ledger.ColumnDebit, ""},
	{KeyDBTCredit, GroupDBT, ledger.ColumnCredit, ""},
	{KeyDBTDebit, GroupDBT, ledger.ColumnDebit, ""},
	{KeyECSDebit, GroupECS, ledger.ColumnDebit, Returned},
	{KeyECSPvtDebit, GroupECSPvt, ledger.ColumnDebit, Returned},
	{KeyECSCredit, GroupECS, ledger.ColumnCredit, ""},
	{KeyECSPvtCredit, GroupECSPvt, ledger.ColumnCredit, ""},
}

// MonthlyAggregate holds the values computed for one requested month.
type MonthlyAggregate struct {
	Anchor time.Time
	Window calendar.Window
	Values map[MetricKey]decimal.Decimal
}

// Get returns the value for key, or zero when absent.
func (a MonthlyAggregate) Get(key MetricKey) decimal.Decimal {
	if v, ok := a.Values[key]; ok {
		return v
	}
	return decimal.Zero
}

// Float returns the value for key as a float64.
func (a MonthlyAggregate) Float(key MetricKey) float64 {
	return a.Get(key).InexactFloat64()
}

// Aggregate computes the MonthlyAggregate of the month containing anchor.
func Aggregate(l *ledger.Ledger, anchor time.Time) (MonthlyAggregate, error) {
	if l == nil {
		return MonthlyAggregate{}, ledger.ErrNoLedgerLoaded
	}

	w := calendar.MonthWindow(anchor)
	values := make(map[MetricKey]decimal.Decimal, len(Taxonomy)+3)

	values[KeyEODBalance] = l.LastBalanceOnOrBefore(w.MonthEnd)
	for _, rule := range Taxonomy {
		values[rule.Key] = l.FilteredSum(w, rule.Group, rule.Column, rule.Exclude)
	}

	values[KeyBTCount] = decimal.NewFromInt(int64(l.FilteredCount(w, GroupBT)))
	cash := l.FilteredCount(w, GroupBT, ledger.Equals{Column: ledger.ColumnSubcode, Value: SubcodeCashDeposit}) +
		l.FilteredCount(w, GroupBT, ledger.Equals{Column: ledger.ColumnSubcode, Value: SubcodeCashWithdrawal})
	values[KeyCashCount] = decimal.NewFromInt(int64(cash))

	return MonthlyAggregate{Anchor: anchor, Window: w, Values: values}, nil
}

// AggregateMonths aggregates every anchor, running up to workers months concurrently.
// The result is in anchor order regardless of completion order.
func AggregateMonths(ctx context.Context, l *ledger.Ledger, anchors []time.Time, workers int) ([]MonthlyAggregate, error) {
	if l == nil {
		return nil, ledger.ErrNoLedgerLoaded
	}
	if workers < 1 {
		workers = 1
	}

	out := make([]MonthlyAggregate, len(anchors))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, anchor := range anchors {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			agg, err := Aggregate(l, anchor)
			if err != nil {
				return err
			}
			out[i] = agg
			slog.Debug("Aggregated month", "month", agg.Window.MonthEnd.Format(calendar.Layout))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
