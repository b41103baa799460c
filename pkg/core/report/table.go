package report

import "statement_analyst/pkg/core/calc"

// StatementColumns is the header of the decorated statement table.
var StatementColumns = []string{
	"Line item",
	"Prior year",
	"Current year",
	"Growth (%)",
	"Prior-year share (%)",
	"Current-year share (%)",
}

// RowCells formats one decorated line item in StatementColumns order.
func RowCells(item calc.LineItem) []string {
	return []string{
		item.Label,
		FormatAmount(item.Prior),
		FormatAmount(item.Current),
		FormatPercent(item.GrowthPct),
		FormatPercent(item.PriorSharePct),
		FormatPercent(item.CurrentSharePct),
	}
}

// StatementRows formats every row of the table.
func StatementRows(t *calc.FinancialTable) [][]string {
	rows := t.Rows()
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, RowCells(r))
	}
	return out
}

// Metric is one liquidity display tile.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"` // empty when not determinable
}

// LiquidityMetrics returns the prior- and current-year current ratio tiles.
// The delta is only attached to the current-year tile.
func LiquidityMetrics(l calc.Liquidity) []Metric {
	current := Metric{
		Label: "Current ratio (current year)",
		Value: FormatRatioTimes(l.Current),
	}
	if d, ok := FormatDelta(l); ok {
		current.Delta = d
	}
	return []Metric{
		{Label: "Current ratio (prior year)", Value: FormatRatioTimes(l.Prior)},
		current,
	}
}
