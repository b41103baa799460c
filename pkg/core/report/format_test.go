package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statement_analyst/pkg/core/calc"
)

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{50, "50.00%"},
		{49.999999999, "50.00%"},
		{-12.345, "-12.35%"},
		{0, "0.00%"},
		{-0.001, "0.00%"},
		{100, "100.00%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPercent(tt.in), "input %v", tt.in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,200", FormatAmount(1200))
	assert.Equal(t, "1,234,567", FormatAmount(1234567))
	assert.Equal(t, "-400", FormatAmount(-400))
	assert.Equal(t, "0", FormatAmount(0))
}

func TestFormatFixed_NonFinite(t *testing.T) {
	assert.NotPanics(t, func() { FormatFixed(math.Inf(1)) })
	assert.NotPanics(t, func() { FormatAmount(math.NaN()) })
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "2.00", FormatRatio(calc.Determined(2)))
	assert.Equal(t, calc.NotDeterminable, FormatRatio(calc.Ratio{}))
	assert.Equal(t, "1.50 times", FormatRatioTimes(calc.Determined(1.5)))
}

func TestLiquidityMetrics(t *testing.T) {
	metrics := LiquidityMetrics(calc.Liquidity{Prior: calc.Determined(2), Current: calc.Determined(2)})
	require.Len(t, metrics, 2)
	assert.Equal(t, "2.00 times", metrics[0].Value)
	assert.Equal(t, "0.00", metrics[1].Delta)

	metrics = LiquidityMetrics(calc.Liquidity{Prior: calc.Determined(2)})
	assert.Equal(t, calc.NotDeterminable, metrics[1].Value)
	assert.Empty(t, metrics[1].Delta)
}

func TestMarkdownTable(t *testing.T) {
	got := MarkdownTable([]string{"A", "B"}, [][]string{{"x\ny", "1"}, {"a|b\r\nc", "2"}})
	assert.Equal(t, "| A | B |\n| --- | --- |\n| x<br>y | 1 |\n| a\\|b<br>c | 2 |\n", got)
}

func TestEscapeCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"TOTAL ASSETS", "TOTAL ASSETS"},
		{"Cash and\ncash equivalents", "Cash and<br>cash equivalents"},
		{"Receivables | net", `Receivables \| net`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeCell(tt.in))
	}
}
