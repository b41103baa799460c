package calc

import "encoding/json"

// NotDeterminable is how an undefined ratio is rendered to users and models.
const NotDeterminable = "not determinable"

// Ratio is a metric that may be undefined (zero denominator or missing input).
type Ratio struct {
	Value        float64
	Determinable bool
}

// Determined wraps a computed ratio value.
func Determined(v float64) Ratio {
	return Ratio{Value: v, Determinable: true}
}

// MarshalJSON renders an undefined ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Determinable {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts the forms MarshalJSON writes: null or a number.
func (r *Ratio) UnmarshalJSON(b []byte) error {
	var v *float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		*r = Ratio{}
		return nil
	}
	*r = Determined(*v)
	return nil
}

// Liquidity holds the current ratio (current assets / current liabilities)
// for both years.
type Liquidity struct {
	Prior    Ratio           `json:"prior"`
	Current  Ratio           `json:"current"`
	Warnings []LookupWarning `json:"warnings,omitempty"`
}

// Delta returns Current - Prior. ok is false when either side is undefined.
func (l Liquidity) Delta() (delta float64, ok bool) {
	if !l.Prior.Determinable || !l.Current.Determinable {
		return 0, false
	}
	return l.Current.Value - l.Prior.Value, true
}

// ComputeLiquidity derives the current ratio for both years.
// Missing current assets or current liabilities rows are soft failures: both
// years report as not determinable and a LookupWarning is attached. A zero
// liabilities value makes only that year not determinable.
func ComputeLiquidity(t *FinancialTable) Liquidity {
	var liq Liquidity

	caIdx, caMatches := findFirst(t.rows, t.markers.CurrentAssets)
	clIdx, clMatches := findFirst(t.rows, t.markers.CurrentLiabilities)

	if caIdx < 0 {
		liq.Warnings = append(liq.Warnings, LookupWarning{
			Marker:  markerName(t.markers.CurrentAssets),
			Message: "current assets line item missing; current ratio not determinable",
		})
	} else if caMatches > 1 {
		liq.Warnings = append(liq.Warnings, ambiguousWarning(t.markers.CurrentAssets, t.rows[caIdx].Label, caMatches))
	}
	if clIdx < 0 {
		liq.Warnings = append(liq.Warnings, LookupWarning{
			Marker:  markerName(t.markers.CurrentLiabilities),
			Message: "current liabilities line item missing; current ratio not determinable",
		})
	} else if clMatches > 1 {
		liq.Warnings = append(liq.Warnings, ambiguousWarning(t.markers.CurrentLiabilities, t.rows[clIdx].Label, clMatches))
	}
	if caIdx < 0 || clIdx < 0 {
		return liq
	}

	ca, cl := t.rows[caIdx], t.rows[clIdx]
	liq.Prior = ratio(ca.Prior, cl.Prior)
	liq.Current = ratio(ca.Current, cl.Current)
	return liq
}

func ratio(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Determined(num / den)
}

// CurrentAssetsGrowth returns the growth rate of the current assets row.
func CurrentAssetsGrowth(t *FinancialTable) (float64, bool) {
	row, ok := t.Find(t.markers.CurrentAssets...)
	if !ok {
		return 0, false
	}
	return row.GrowthPct, true
}
