// Package calc provides deterministic financial calculations for a two-year
// financial statement: growth rates, composition shares, and the current ratio.
// This file defines the core data types shared by the deriver and its callers.
package calc

// =============================================================================
// STATEMENT DATA STRUCTURES
// Matches: uploaded sheet layout (Line item | Prior year | Current year)
// =============================================================================

// Epsilon replaces a zero denominator so growth and share stay finite and keep
// the sign of the numerator.
const Epsilon = 1e-9

// RawColumns is the number of columns every statement row must carry.
const RawColumns = 3

// LineItem is one labeled row of the statement plus its derived columns.
type LineItem struct {
	Label   string  `json:"label"`
	Prior   float64 `json:"prior"`   // Prior fiscal year (N-1)
	Current float64 `json:"current"` // Current fiscal year (N)

	// DERIVED (percentages, 100 = 100%)
	GrowthPct       float64 `json:"growth_pct"`
	PriorSharePct   float64 `json:"prior_share_pct"`   // Share of prior-year total assets
	CurrentSharePct float64 `json:"current_share_pct"` // Share of current-year total assets
}

// FinancialTable is the decorated statement produced by Derive.
// It is never mutated after construction; accessors hand out copies.
type FinancialTable struct {
	rows        []LineItem
	totalAssets int // index of the row matched by the total-assets marker
	markers     Markers
	warnings    []LookupWarning
}

// Markers lists the label fragments used to locate key line items.
// Each concern accepts several aliases; a row matches when its label contains
// any alias (case-insensitive). The first matching row wins.
type Markers struct {
	TotalAssets        []string `yaml:"total_assets" json:"total_assets"`
	CurrentAssets      []string `yaml:"current_assets" json:"current_assets"`
	CurrentLiabilities []string `yaml:"current_liabilities" json:"current_liabilities"`
}

// DefaultMarkers returns English markers plus the Vietnamese statement labels
// (Bảng cân đối kế toán) the tool has always accepted.
func DefaultMarkers() Markers {
	return Markers{
		TotalAssets:        []string{"total assets", "tổng cộng tài sản"},
		CurrentAssets:      []string{"current assets", "tài sản ngắn hạn"},
		CurrentLiabilities: []string{"current liabilities", "nợ ngắn hạn"},
	}
}

// withDefaults fills empty alias lists from DefaultMarkers.
func (m Markers) withDefaults() Markers {
	d := DefaultMarkers()
	if len(m.TotalAssets) == 0 {
		m.TotalAssets = d.TotalAssets
	}
	if len(m.CurrentAssets) == 0 {
		m.CurrentAssets = d.CurrentAssets
	}
	if len(m.CurrentLiabilities) == 0 {
		m.CurrentLiabilities = d.CurrentLiabilities
	}
	return m
}

// Rows returns a copy of the decorated rows in source order.
func (t *FinancialTable) Rows() []LineItem {
	out := make([]LineItem, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of line items.
func (t *FinancialTable) Len() int {
	return len(t.rows)
}

// TotalAssets returns the row used as the composition base.
func (t *FinancialTable) TotalAssets() LineItem {
	return t.rows[t.totalAssets]
}

// Markers returns the markers the table was derived with.
func (t *FinancialTable) Markers() Markers {
	return t.markers
}

// Warnings returns soft lookup problems found during derivation.
func (t *FinancialTable) Warnings() []LookupWarning {
	out := make([]LookupWarning, len(t.warnings))
	copy(out, t.warnings)
	return out
}
