// Package report formats derived statement metrics for people and models.
// Every surface (context blob, CLI, HTTP) goes through these helpers so the
// same number always renders the same way.
package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"statement_analyst/pkg/core/calc"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a raw statement value with thousands separators and
// no decimals (1234567.8 -> "1,234,568").
func FormatAmount(v float64) string {
	if !finite(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return amountPrinter.Sprintf("%.0f", v)
}

// FormatFixed renders v with two decimals.
func FormatFixed(v float64) string {
	if !finite(v) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatPercent renders a percentage value (50 -> "50.00%").
func FormatPercent(v float64) string {
	return FormatFixed(v) + "%"
}

// FormatRatio renders a ratio with two decimals or the not-determinable marker.
func FormatRatio(r calc.Ratio) string {
	if !r.Determinable {
		return calc.NotDeterminable
	}
	return FormatFixed(r.Value)
}

// FormatRatioTimes renders a ratio for metric displays ("2.00 times").
func FormatRatioTimes(r calc.Ratio) string {
	if !r.Determinable {
		return calc.NotDeterminable
	}
	return FormatFixed(r.Value) + " times"
}

// FormatDelta renders the year-over-year change of the current ratio.
// ok is false when either year is not determinable; no delta is shown then.
func FormatDelta(l calc.Liquidity) (string, bool) {
	d, ok := l.Delta()
	if !ok {
		return "", false
	}
	return FormatFixed(d), true
}

// FormatGrowth renders an optional growth figure.
func FormatGrowth(v float64, ok bool) string {
	if !ok {
		return calc.NotDeterminable
	}
	return FormatPercent(v)
}

// cellEscaper keeps a cell on one table row without losing characters:
// line breaks become <br> (the GFM in-cell break) and pipes are escaped.
var cellEscaper = strings.NewReplacer("\r\n", "<br>", "\n", "<br>", "|", `\|`)

// EscapeCell returns s as it appears inside a MarkdownTable cell.
func EscapeCell(s string) string {
	return cellEscaper.Replace(s)
}

// MarkdownTable renders a GitHub-flavoured markdown table. Cell text is kept
// whole; see EscapeCell.
func MarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(EscapeCell(c))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, r := range rows {
		writeRow(r)
	}
	return b.String()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
