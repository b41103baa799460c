package calc

// Common-size (vertical) analysis: every line item expressed as a share of
// total assets for the same year. Prior and current year use their own base.

// safeDivisor substitutes Epsilon for a zero denominator.
func safeDivisor(v float64) float64 {
	if v == 0 {
		return Epsilon
	}
	return v
}

// SharePct returns value as a percentage of base.
func SharePct(value, base float64) float64 {
	return value / safeDivisor(base) * 100
}

// GrowthPct returns the year-over-year change of a line item in percent.
// A zero prior value yields a very large but finite result with the sign of
// the change.
func GrowthPct(prior, current float64) float64 {
	return (current - prior) / safeDivisor(prior) * 100
}

// applyCommonSize fills the share columns of every row from the total-assets row.
func applyCommonSize(rows []LineItem, totalIdx int) {
	priorBase := rows[totalIdx].Prior
	currentBase := rows[totalIdx].Current

	for i := range rows {
		rows[i].PriorSharePct = SharePct(rows[i].Prior, priorBase)
		rows[i].CurrentSharePct = SharePct(rows[i].Current, currentBase)
	}
}
