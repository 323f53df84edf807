package report

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/statgen/pkg/calendar"
	"github.com/shunichi-ikebuchi/statgen/pkg/ledger"
	"github.com/shunichi-ikebuchi/statgen/pkg/stats"
)

// monthlyValue extracts one month's figure. ok=false marks a figure the ledger cannot back.
type monthlyValue func(a stats.MonthlyAggregate, d stats.Derived) (v decimal.Decimal, ok bool)

func key(k stats.MetricKey) monthlyValue {
	return func(a stats.MonthlyAggregate, _ stats.Derived) (decimal.Decimal, bool) {
		return a.Get(k), true
	}
}

func derived(pick func(stats.Derived) decimal.Decimal) monthlyValue {
	return func(_ stats.MonthlyAggregate, d stats.Derived) (decimal.Decimal, bool) {
		return pick(d), true
	}
}

func unimplemented(stats.MonthlyAggregate, stats.Derived) (decimal.Decimal, bool) {
	return decimal.Zero, false
}

var monthlyLayout = []struct {
	label string
	value monthlyValue
}{
	{"EOD monthly balance", key(stats.KeyEODBalance)},
	{"Credit (BT)", key(stats.KeyBTCredit)},
	{"Debit (BT)", key(stats.KeyBTDebit)},
	{"Expense", key(stats.KeyExpense)},
	{"Top 2 Credit (BT)", unimplemented},
	{"Top 2 Debit (BT)", unimplemented},
	{"ZIH Cr", key(stats.KeyZIHCredit)},
	{"ZIH Dr", key(stats.KeyZIHDebit)},
	{"DBT (Cr)", key(stats.KeyDBTCredit)},
	{"DBT (Dr)", key(stats.KeyDBTDebit)},
	{"Monthly Loan payments Bank", key(stats.KeyECSDebit)},
	{"Monthly Loan payments Pvt", key(stats.KeyECSPvtDebit)},
	{"Loan received Bank", key(stats.KeyECSCredit)},
	{"Loan received Pvt", key(stats.KeyECSPvtCredit)},
	{"Net ZIH Cr", derived(func(d stats.Derived) decimal.Decimal { return d.NetZIH })},
	{"Cash Flow", derived(func(d stats.Derived) decimal.Decimal { return d.CashFlow })},
	{"Net ECS Cr", derived(func(d stats.Derived) decimal.Decimal { return d.NetECS })},
	{"Net ECS Pvt Cr", derived(func(d stats.Derived) decimal.Decimal { return d.NetECSPvt })},
	{"Net DBT", derived(func(d stats.Derived) decimal.Decimal { return d.NetDBT })},
	{"Net flow", derived(func(d stats.Derived) decimal.Decimal { return d.NetFlow })},
	{"Loan rollover ratio", unimplemented},
	{"Count of Cash Trn", key(stats.KeyCashCount)},
	{"Count of Transactions", key(stats.KeyBTCount)},
}

// MonthlyLabels returns the fixed monthly row labels in report order.
func MonthlyLabels() []string {
	labels := make([]string, len(monthlyLayout))
	for i, row := range monthlyLayout {
		labels[i] = row.label
	}
	return labels
}

// Generate aggregates every requested month of l and lays out the report.
// It fails before any computation when cfg is invalid or no ledger is loaded.
func Generate(ctx context.Context, l *ledger.Ledger, cfg RunConfig, opts Options) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ledger.ErrNoLedgerLoaded
	}

	slog.Info("Generating STAT data", "months", cfg.Months, "start", cfg.Start.Format(calendar.Layout))

	anchors := cfg.Anchors()
	workers := opts.Workers
	if workers < 1 {
		workers = len(anchors)
	}
	aggs, err := stats.AggregateMonths(ctx, l, anchors, workers)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Config:     cfg,
		Aggregates: aggs,
		Header:     make([]Cell, len(anchors)),
	}
	for i, anchor := range anchors {
		r.Header[i] = Text(anchor.Format(calendar.Layout))
	}
	r.Monthly = buildMonthly(aggs)

	m := newPeriodMetrics(aggs)
	r.Summary = buildSummary(m)
	r.Scoring = buildScoring(m, opts)

	slog.Info("STAT data generation completed",
		"monthly_rows", len(r.Monthly), "summary_rows", len(r.Summary), "scoring_rows", len(r.Scoring))
	return r, nil
}

func buildMonthly(aggs []stats.MonthlyAggregate) []MonthlyRow {
	derivedByMonth := make([]stats.Derived, len(aggs))
	for i, a := range aggs {
		derivedByMonth[i] = stats.Derive(a)
	}

	rows := make([]MonthlyRow, len(monthlyLayout))
	for i, layout := range monthlyLayout {
		values := make([]Cell, len(aggs))
		for j, a := range aggs {
			v, ok := layout.value(a, derivedByMonth[j])
			if !ok {
				values[j] = Unimplemented()
				continue
			}
			values[j] = Number(v.InexactFloat64())
		}
		rows[i] = MonthlyRow{Label: layout.label, Values: values}
	}
	return rows
}

// periodMetrics holds the whole-period series every summary and scoring row draws on.
type periodMetrics struct {
	months  int
	credits []float64
	debits  []float64
	credit  decimal.Decimal
	debit   decimal.Decimal
	avgEOD  float64
}

func newPeriodMetrics(aggs []stats.MonthlyAggregate) periodMetrics {
	m := periodMetrics{
		months:  len(aggs),
		credits: stats.Series(aggs, stats.KeyBTCredit),
		debits:  stats.Series(aggs, stats.KeyBTDebit),
		avgEOD:  stats.Mean(stats.Series(aggs, stats.KeyEODBalance)),
	}
	for _, a := range aggs {
		m.credit = m.credit.Add(a.Get(stats.KeyBTCredit))
		m.debit = m.debit.Add(a.Get(stats.KeyBTDebit))
	}
	return m
}

// annualized projects a period total to twelve months.
func (m periodMetrics) annualized(total decimal.Decimal) decimal.Decimal {
	return total.Mul(decimal.NewFromInt(12)).Div(decimal.NewFromInt(int64(m.months)))
}

func buildSummary(m periodMetrics) []SummaryRow {
	totalRow := func(label string, total decimal.Decimal) SummaryRow {
		return SummaryRow{
			Label:      label,
			Value:      Number(total.Round(0).InexactFloat64()),
			Projection: Number(m.annualized(total).Round(0).InexactFloat64()),
		}
	}

	return []SummaryRow{
		{Label: "Available Months", Value: Number(float64(m.months))},
		{Label: "Average EOD monthly balance", Value: Number(round(m.avgEOD, 2))},
		{Label: "OD Limit", Value: Text("-")},
		{Label: "Available Balance / Limit", Value: Number(round(m.avgEOD, 2))},
		{Label: "SALES/PURCHASES"},
		totalRow("Credit (BT)", m.credit),
		totalRow("Debit (BT)", m.debit),
	}
}
