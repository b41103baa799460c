package calc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func scenarioRows() [][]string {
	return [][]string{
		{"TOTAL ASSETS", "1000", "1200"},
		{"CURRENT ASSETS", "400", "600"},
		{"CURRENT LIABILITIES", "200", "300"},
	}
}

func TestDerive_Scenario(t *testing.T) {
	table, err := Derive(scenarioRows(), DefaultMarkers())
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	ca, ok := table.Find("current assets")
	require.True(t, ok)
	assert.InDelta(t, 50.0, ca.GrowthPct, 1e-9)
	assert.InDelta(t, 40.0, ca.PriorSharePct, 1e-9)
	assert.InDelta(t, 50.0, ca.CurrentSharePct, 1e-9)

	total := table.TotalAssets()
	assert.Equal(t, "TOTAL ASSETS", total.Label)
	assert.InDelta(t, 20.0, total.GrowthPct, 1e-9)
	assert.Empty(t, table.Warnings())
}

func TestDerive_TotalAssetsShareIsHundred(t *testing.T) {
	cases := [][2]string{{"1000", "1200"}, {"0.5", "7"}, {"-300", "-20"}, {"123456789", "1"}}
	for _, c := range cases {
		rows := [][]string{
			{"Cash", "10", "20"},
			{"Total assets", c[0], c[1]},
		}
		table, err := Derive(rows, DefaultMarkers())
		require.NoError(t, err)

		total := table.TotalAssets()
		assert.Equal(t, 100.0, total.PriorSharePct, "prior share for %v", c)
		assert.Equal(t, 100.0, total.CurrentSharePct, "current share for %v", c)
	}
}

func TestDerive_GrowthZeroWhenUnchanged(t *testing.T) {
	rows := [][]string{
		{"TOTAL ASSETS", "500", "500"},
		{"Inventory", "0", "0"},
		{"Receivables", "-40", "-40"},
	}
	table, err := Derive(rows, DefaultMarkers())
	require.NoError(t, err)

	for _, row := range table.Rows() {
		assert.Equal(t, 0.0, row.GrowthPct, row.Label)
	}
}

func TestDerive_ZeroPriorUsesEpsilon(t *testing.T) {
	rows := [][]string{
		{"TOTAL ASSETS", "0", "100"},
		{"New line", "0", "5"},
		{"Closed line", "0", "-5"},
	}
	table, err := Derive(rows, DefaultMarkers())
	require.NoError(t, err)

	got := table.Rows()
	assert.False(t, math.IsInf(got[1].GrowthPct, 0))
	assert.Greater(t, got[1].GrowthPct, 0.0)
	assert.Less(t, got[2].GrowthPct, 0.0)
	assert.InDelta(t, 5/Epsilon*100, got[1].GrowthPct, 1)

	// zero prior total assets: shares fall back to epsilon as well
	assert.InDelta(t, 0.0, got[1].PriorSharePct, 1e-9)
	assert.InDelta(t, 5.0, got[1].CurrentSharePct, 1e-9)
}

func TestDerive_NonNumericCoercesToZero(t *testing.T) {
	rows := [][]string{
		{"TOTAL ASSETS", "1000", "1000"},
		{"Goodwill", "n/a", ""},
		{"Other", "NaN", " 25 "},
	}
	table, err := Derive(rows, DefaultMarkers())
	require.NoError(t, err)

	got := table.Rows()
	assert.Equal(t, 0.0, got[1].Prior)
	assert.Equal(t, 0.0, got[1].Current)
	assert.Equal(t, 0.0, got[2].Prior)
	assert.Equal(t, 25.0, got[2].Current)
}

func TestDerive_MissingTotalAssetsIsSchemaError(t *testing.T) {
	inputs := [][][]string{
		nil,
		{{"CURRENT ASSETS", "400", "600"}},
		{{"Total current assets", "1", "2"}, {"CURRENT LIABILITIES", "200", "0"}},
	}
	for _, rows := range inputs {
		_, err := Derive(rows, DefaultMarkers())
		require.Error(t, err)

		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr), "got %T", err)
		assert.Equal(t, ErrMissingTotalAssets, schemaErr.Reason)
	}
}

func TestDerive_ColumnCountIsSchemaError(t *testing.T) {
	rows := [][]string{
		{"TOTAL ASSETS", "1000", "1200"},
		{"Cash", "1", "2", "3"},
	}
	_, err := Derive(rows, DefaultMarkers())

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, 2, schemaErr.Row)
	assert.Contains(t, err.Error(), "found 4")
}

func TestDerive_FirstMatchWinsAndWarns(t *testing.T) {
	rows := [][]string{
		{"Total assets (restated)", "900", "1000"},
		{"TOTAL ASSETS", "1000", "1200"},
	}
	table, err := Derive(rows, DefaultMarkers())
	require.NoError(t, err)

	assert.Equal(t, "Total assets (restated)", table.TotalAssets().Label)
	warnings := table.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "2 line items match")
}

func TestDerive_VietnameseMarkers(t *testing.T) {
	rows := [][]string{
		{"A. TÀI SẢN NGẮN HẠN", "400", "600"},
		{"TỔNG CỘNG TÀI SẢN", "1000", "1200"},
		{"I. Nợ ngắn hạn", "200", "300"},
	}
	table, err := Derive(rows, DefaultMarkers())
	require.NoError(t, err)
	assert.Equal(t, "TỔNG CỘNG TÀI SẢN", table.TotalAssets().Label)

	liq := ComputeLiquidity(table)
	assert.True(t, liq.Current.Determinable)
	assert.InDelta(t, 2.0, liq.Current.Value, 1e-9)
}

func TestDerive_DecomposedDiacriticsMatch(t *testing.T) {
	label := norm.NFD.String("TỔNG CỘNG TÀI SẢN")
	require.NotEqual(t, "TỔNG CỘNG TÀI SẢN", label)

	table, err := Derive([][]string{{label, "1000", "1200"}}, DefaultMarkers())
	require.NoError(t, err)
	assert.Equal(t, label, table.TotalAssets().Label)
}

func TestDerive_IsIdempotent(t *testing.T) {
	a, err := Derive(scenarioRows(), DefaultMarkers())
	require.NoError(t, err)
	b, err := Derive(scenarioRows(), DefaultMarkers())
	require.NoError(t, err)
	assert.Equal(t, a.Rows(), b.Rows())
}

func TestFinancialTable_RowsIsACopy(t *testing.T) {
	table, err := Derive(scenarioRows(), DefaultMarkers())
	require.NoError(t, err)

	rows := table.Rows()
	rows[0].Label = "mutated"
	assert.Equal(t, "TOTAL ASSETS", table.Rows()[0].Label)
}
