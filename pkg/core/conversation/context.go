// Package conversation turns a derived statement into LLM requests and keeps
// the per-upload chat transcript.
package conversation

import (
	"strings"

	"statement_analyst/pkg/core/calc"
	"statement_analyst/pkg/core/report"
)

var indicatorColumns = []string{"Indicator", "Value"}

// BuildContext serializes the decorated table and the liquidity figures into
// the markdown blob embedded in every request. Output is deterministic for a
// given table.
func BuildContext(table *calc.FinancialTable, liquidity calc.Liquidity) string {
	var b strings.Builder

	b.WriteString("## Decorated statement\n\n")
	b.WriteString(report.MarkdownTable(report.StatementColumns, report.StatementRows(table)))

	growth, ok := calc.CurrentAssetsGrowth(table)
	indicators := [][]string{
		{"Current assets growth (%)", report.FormatGrowth(growth, ok)},
		{"Current ratio (prior year)", report.FormatRatio(liquidity.Prior)},
		{"Current ratio (current year)", report.FormatRatio(liquidity.Current)},
	}

	b.WriteString("\n## Key indicators\n\n")
	b.WriteString(report.MarkdownTable(indicatorColumns, indicators))
	return b.String()
}
