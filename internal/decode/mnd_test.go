package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodline/hazard-etl/internal/domain"
)

func TestDecodeMNDIssuance(t *testing.T) {
	tests := []struct {
		name string
		line string
		tz   string
		want time.Time
	}{
		{
			name: "evening central",
			line: "945 PM CDT WED JUL 22 2015",
			tz:   "CDT",
			want: time.Date(2015, 7, 23, 2, 45, 0, 0, time.UTC),
		},
		{
			name: "four digit clock",
			line: "402 PM CDT WED JUN 11 2008",
			tz:   "CDT",
			want: time.Date(2008, 6, 11, 21, 2, 0, 0, time.UTC),
		},
		{
			name: "noon",
			line: "1200 PM EST MON JAN 5 2015",
			tz:   "EST",
			want: time.Date(2015, 1, 5, 17, 0, 0, 0, time.UTC),
		},
		{
			name: "midnight",
			line: "1200 AM PST SAT DEC 31 2016",
			tz:   "PST",
			want: time.Date(2016, 12, 31, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "east of the dateline",
			line: "800 AM CHST THU JUL 23 2015",
			tz:   "CHST",
			want: time.Date(2015, 7, 22, 22, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text := "FLASH FLOOD WARNING\nNATIONAL WEATHER SERVICE SPRINGFIELD MO\n" +
				tc.line + "\n"
			res, ok := DecodeMNDIssuance(text)
			require.True(t, ok)
			require.Empty(t, res.Diagnostics)

			assert.Equal(t, tc.want, res.IssuedAt)
			assert.Equal(t, tc.tz, res.Timezone)
			assert.Equal(t, tc.line, res.Raw)
		})
	}
}

func TestDecodeMNDIssuanceUnknownTimezone(t *testing.T) {
	res, ok := DecodeMNDIssuance("945 PM XST WED JUL 22 2015\n")
	require.True(t, ok)

	assert.True(t, res.IssuedAt.IsZero())
	assert.Equal(t, "XST", res.Timezone)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.DiagHeader, res.Diagnostics[0].Kind)
	assert.Equal(t, domain.SeverityWarning, res.Diagnostics[0].Severity)
	assert.Contains(t, res.Diagnostics[0].Detail, "timezone")
}

func TestDecodeMNDIssuanceAbsent(t *testing.T) {
	_, ok := DecodeMNDIssuance("FLASH FLOOD WARNING\nNO DATE LINE HERE\n")
	assert.False(t, ok)
}
