package report

import (
	"github.com/shunichi-ikebuchi/statgen/pkg/stats"
)

// slot describes what a scoring row carries in its value or score cell.
type slot int

const (
	blank   slot = iota // nothing in the reference layout
	pending             // a fixed figure that no ledger formula backs yet
	dash                // literal "-", the metric does not apply
	computed
)

// Scoring metric names that have a formula.
const (
	MetricDailyCreditToBalance = "Dy. BT. Cr/Avg .Dy.Bal"
	MetricCreditVolatility     = "Credit (BT) Volatality"
	MetricDebitVolatility      = "Debit (BT) Volatality"
	MetricSalesTrend           = "Sales trend"
	MetricPurchaseTrend        = "Purchase trend"
)

var scoringLayout = []struct {
	metric string
	header bool
	value  slot
	score  slot
}{
	{metric: "SALES/PURCHASES", header: true},
	{metric: "OD vs Credit (BT)", value: dash, score: dash},
	{metric: "OD Consumption"},
	{metric: MetricDailyCreditToBalance, value: computed, score: pending},
	{metric: MetricCreditVolatility, value: computed},
	{metric: MetricDebitVolatility, value: computed},
	{metric: "In house Ratio", value: pending},
	{metric: "ITA (Cr) Ratio", score: pending},
	{metric: MetricSalesTrend, value: computed, score: pending},
	{metric: MetricPurchaseTrend, value: computed, score: pending},
	{metric: "Cash Trn Ratio (Deposit)"},
	{metric: "Cash Trn Ratio (Withdrawal)"},
	{metric: "Cheque Trn ratio (BT/ECS)", value: pending, score: pending},
	{metric: "Cheque Rtn count (BT/ECS)"},
	{metric: "Cheque Dishonor/Penalty ratio (BT/ECS)"},
	{metric: "LOANS", header: true},
	{metric: "EMI Pvt Trend", value: pending},
	{metric: "EMI to Inflow (BT) ratio - Pvt", value: pending, score: pending},
	{metric: "EMI to Inflow (BT) ratio - Bank", value: pending, score: pending},
	{metric: "Liquidity stress indicator (LSI)", value: pending, score: pending},
	{metric: "Loan Trend Bank", value: pending},
	{metric: "Loan Trend Pvt", value: pending},
	{metric: "Debt Dependence Ratio (DDR Bank)", value: pending, score: pending},
	{metric: "Debt Dependence Ratio Pvt (DDR Pvt)", value: pending, score: pending},
	{metric: "EMI pvt vs Cheque pmt", score: pending},
	{metric: "ECS vs ECS pmt", value: pending},
	{metric: "ECS return count"},
	{metric: "Cheque Rtn count (ECS Pvt)"},
	{metric: "Cheque Dishonor/Penalty ratio (ECS PVT)"},
	{metric: "Loan Roll Over Ratio", value: pending},
	{metric: "OTHERS", header: true},
	{metric: "GST Volatality"},
	{metric: "Utility Volatality"},
	{metric: "Transaction volatality", value: pending},
	{metric: "Max. Loan repayment to Net inflow"},
	{metric: "Top 2 Credit ratio", value: pending},
}

// ScoringMetrics returns the scoring metric names in report order, section headers included.
func ScoringMetrics() []string {
	names := make([]string, len(scoringLayout))
	for i, row := range scoringLayout {
		names[i] = row.metric
	}
	return names
}

func (m periodMetrics) compute(metric string) float64 {
	switch metric {
	case MetricDailyCreditToBalance:
		if mean := stats.Mean(m.credits); mean > 0 {
			return m.avgEOD / mean
		}
		return 0
	case MetricCreditVolatility:
		return stats.Volatility(m.credits)
	case MetricDebitVolatility:
		return stats.Volatility(m.debits)
	case MetricSalesTrend:
		return stats.TrendRatio(m.credits)
	case MetricPurchaseTrend:
		return stats.TrendRatio(m.debits)
	}
	panic("report: no formula for scoring metric " + metric)
}

func buildScoring(m periodMetrics, opts Options) []ScoringRow {
	rows := make([]ScoringRow, len(scoringLayout))
	for i, layout := range scoringLayout {
		row := ScoringRow{Metric: layout.metric}
		if layout.header {
			rows[i] = row
			continue
		}

		var value float64
		switch layout.value {
		case computed:
			value = m.compute(layout.metric)
			row.Value = Number(round(value, 2))
		case pending:
			row.Value = Unimplemented()
		case dash:
			row.Value = Text("-")
		}

		list, scored := opts.Rules.Lookup(layout.metric)
		switch {
		case layout.value == computed && scored:
			row.Score = Number(float64(stats.Score(value, list)))
		case layout.score == pending:
			row.Score = Unimplemented()
		case layout.score == dash:
			row.Score = Text("-")
		}
		rows[i] = row
	}
	return rows
}
