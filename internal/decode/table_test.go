package decode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodline/hazard-etl/internal/domain"
)

const riverTable = `LOCATION        FLD.STG  OBS     THU  FRI  SAT  SUN  MON

Ripley 22.0 18.93 18.4 17.0 15.7 15.0 14.3
Clinton 18 20.0 19.1 18.3 17.2 16.3
`

func values(row domain.ForecastRow) []float64 {
	out := make([]float64, len(row.Values))
	for i, v := range row.Values {
		out[i] = v.Value
	}
	return out
}

func TestDecodeForecastTable(t *testing.T) {
	res, ok := DecodeForecastTable(riverTable, 0)
	require.True(t, ok)
	require.Empty(t, res.Diagnostics)

	table := res.Table
	assert.Equal(t, []string{"THU", "FRI", "SAT", "SUN", "MON"}, table.Columns)
	require.Len(t, table.Rows, 2)

	// Seven values against five columns: the two surplus leading values are
	// flood stage and latest observed.
	ripley := table.Rows[0]
	assert.Equal(t, "Ripley", ripley.Location)
	require.NotNil(t, ripley.FloodStage)
	assert.Equal(t, 22.0, *ripley.FloodStage)
	require.NotNil(t, ripley.Observed)
	assert.Equal(t, 18.93, *ripley.Observed)
	assert.Equal(t, []float64{18.4, 17.0, 15.7, 15.0, 14.3}, values(ripley))

	// Six values against five columns: flood stage only, no observed.
	clinton := table.Rows[1]
	assert.Equal(t, "Clinton", clinton.Location)
	require.NotNil(t, clinton.FloodStage)
	assert.Equal(t, 18.0, *clinton.FloodStage)
	assert.Nil(t, clinton.Observed)
	assert.Equal(t, []float64{20.0, 19.1, 18.3, 17.2, 16.3}, values(clinton))
}

func TestDecodeForecastTableStructure(t *testing.T) {
	res, ok := DecodeForecastTable("LOCATION FLD OBS THU FRI\nRipley 22.0 18.93 18.4 17.0\n", 0)
	require.True(t, ok)

	f := func(v float64) *float64 { return &v }
	want := &domain.ForecastTable{
		Columns: []string{"THU", "FRI"},
		Rows: []domain.ForecastRow{{
			Location:   "Ripley",
			FloodStage: f(22.0),
			Observed:   f(18.93),
			Values:     []domain.ForecastValue{{Value: 18.4}, {Value: 17.0}},
		}},
	}
	if diff := cmp.Diff(want, res.Table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeForecastTableMissingPlaceholder(t *testing.T) {
	res, ok := DecodeForecastTable("LOCATION FLD OBS THU FRI SAT\nClinton 18 M 20.0 M 18.3\n", 0)
	require.True(t, ok)
	require.Len(t, res.Table.Rows, 1)

	row := res.Table.Rows[0]
	require.NotNil(t, row.FloodStage)
	assert.Equal(t, 18.0, *row.FloodStage)
	// The observed slot held the placeholder: explicitly missing, not zero.
	assert.Nil(t, row.Observed)

	require.Len(t, row.Values, 3)
	assert.False(t, row.Values[0].Missing)
	assert.True(t, row.Values[1].Missing)
	assert.Equal(t, 0.0, row.Values[1].Value)
	assert.False(t, row.Values[2].Missing)
}

func TestDecodeForecastTableObservedTimeLabel(t *testing.T) {
	res, ok := DecodeForecastTable("LOCATION FLD OBS TIME THU FRI SAT\nRipley 22.0 18.93 7AM 18.4 17.0 15.7\n", 0)
	require.True(t, ok)
	require.Len(t, res.Table.Rows, 1)

	row := res.Table.Rows[0]
	require.NotNil(t, row.Observed)
	assert.Equal(t, 18.93, *row.Observed)
	assert.Equal(t, "7AM", row.ObservedAt)
	assert.Equal(t, []float64{18.4, 17.0, 15.7}, values(row))
}

func TestDecodeForecastTableCrest(t *testing.T) {
	res, ok := DecodeForecastTable(
		"LOCATION FLD OBS THU FRI SAT SUN MON\n"+
			"Marble Hill 30.0 25.1 26.0 27.5 28.2 28.0 27.1 28.4 7/25\n", 0)
	require.True(t, ok)
	require.Len(t, res.Table.Rows, 1)

	row := res.Table.Rows[0]
	assert.Equal(t, "Marble Hill", row.Location)
	require.NotNil(t, row.Crest)
	assert.Equal(t, 28.4, *row.Crest)
	assert.Equal(t, "7/25", row.CrestAt)
	assert.Equal(t, []float64{26.0, 27.5, 28.2, 28.0, 27.1}, values(row))
}

func TestDecodeForecastTableRaggedRow(t *testing.T) {
	// Fewer values than columns is legal: the trailing columns carry no
	// forecast.
	res, ok := DecodeForecastTable("LOCATION FLD THU FRI SAT SUN MON\nRipley 22.0 18.4 17.0\n", 0)
	require.True(t, ok)
	require.Len(t, res.Table.Rows, 1)

	row := res.Table.Rows[0]
	assert.Nil(t, row.FloodStage)
	assert.Equal(t, []float64{22.0, 18.4, 17.0}, values(row))
	assert.LessOrEqual(t, len(row.Values), len(res.Table.Columns))
}

func TestDecodeForecastTableBadToken(t *testing.T) {
	res, ok := DecodeForecastTable("LOCATION FLD THU FRI SAT\nRipley 18.4 N/A 15.7\n", 0)
	require.True(t, ok)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.DiagTable, res.Diagnostics[0].Kind)
	assert.Equal(t, domain.SeverityDefect, res.Diagnostics[0].Severity)

	row := res.Table.Rows[0]
	require.Len(t, row.Values, 3)
	assert.True(t, row.Values[1].Missing)
}

func TestDecodeForecastTableAbsent(t *testing.T) {
	_, ok := DecodeForecastTable("PROSE ONLY SEGMENT\nNO TABLE HERE\n", 0)
	assert.False(t, ok)
}

func TestDecodeForecastTableStopsAtBlankLine(t *testing.T) {
	seg := "LOCATION FLD THU FRI SAT\nRipley 22.0 18.4 17.0 15.7\n\nPROSE AFTER THE TABLE\n"
	res, ok := DecodeForecastTable(seg, 0)
	require.True(t, ok)
	assert.Len(t, res.Table.Rows, 1)
	assert.NotContains(t, res.Raw, "PROSE")
}
