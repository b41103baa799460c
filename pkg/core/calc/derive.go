package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Derive decorates raw statement rows (label, prior, current) with growth and
// composition share. rows must not include the header.
//
// A row with a column count other than three, or a statement without a
// total-assets line item, fails with *SchemaError. Non-numeric values are
// coerced to 0. Missing current assets / current liabilities rows do not fail
// the derivation; see ComputeLiquidity.
func Derive(rows [][]string, markers Markers) (*FinancialTable, error) {
	markers = markers.withDefaults()

	items := make([]LineItem, 0, len(rows))
	for i, raw := range rows {
		if len(raw) != RawColumns {
			return nil, &SchemaError{
				Row:    i + 1,
				Reason: fmt.Sprintf("expected %d columns (line item, prior year, current year), found %d", RawColumns, len(raw)),
			}
		}
		prior := coerceNumber(raw[1])
		current := coerceNumber(raw[2])
		items = append(items, LineItem{
			Label:     raw[0],
			Prior:     prior,
			Current:   current,
			GrowthPct: GrowthPct(prior, current),
		})
	}

	totalIdx, matches := findFirst(items, markers.TotalAssets)
	if totalIdx < 0 {
		return nil, &SchemaError{Reason: ErrMissingTotalAssets}
	}

	applyCommonSize(items, totalIdx)

	table := &FinancialTable{
		rows:        items,
		totalAssets: totalIdx,
		markers:     markers,
	}
	if matches > 1 {
		table.warnings = append(table.warnings, ambiguousWarning(markers.TotalAssets, items[totalIdx].Label, matches))
	}
	return table, nil
}

// Find returns the first row whose label contains any of the aliases,
// compared case-insensitively.
func (t *FinancialTable) Find(aliases ...string) (LineItem, bool) {
	idx, _ := findFirst(t.rows, aliases)
	if idx < 0 {
		return LineItem{}, false
	}
	return t.rows[idx], true
}

// findFirst returns the index of the first matching row and the total number
// of matching rows.
func findFirst(rows []LineItem, aliases []string) (int, int) {
	first, count := -1, 0
	for i, row := range rows {
		if labelMatches(row.Label, aliases) {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	return first, count
}

// labelMatches compares NFC-normalized lower-case text, so precomposed and
// decomposed Vietnamese diacritics match each other.
func labelMatches(label string, aliases []string) bool {
	l := fold(label)
	for _, a := range aliases {
		if a == "" {
			continue
		}
		if strings.Contains(l, fold(a)) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

func ambiguousWarning(aliases []string, used string, matches int) LookupWarning {
	return LookupWarning{
		Marker:  markerName(aliases),
		Message: fmt.Sprintf("%d line items match; using the first (%q)", matches, used),
	}
}

func markerName(aliases []string) string {
	if len(aliases) == 0 {
		return ""
	}
	return aliases[0]
}

// coerceNumber parses a cell value; anything that is not a finite number is 0.
func coerceNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
