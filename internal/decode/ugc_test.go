package decode

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodline/hazard-etl/internal/domain"
)

var ugcRef = domain.NewTimeResolver(time.Date(2015, 7, 23, 2, 45, 0, 0, time.UTC))

func TestDecodeUGCSingleCounty(t *testing.T) {
	res, ok := DecodeUGC("MOC077-231500-\nSEGMENT BODY\n", 0, ugcRef)
	require.True(t, ok)
	require.Empty(t, res.Diagnostics)

	require.Len(t, res.Codes, 1)
	assert.Equal(t, domain.GeoCode{State: "MO", Type: domain.GeoCounty, Code: 77}, res.Codes[0])
	assert.Equal(t, "MOC077", res.Codes[0].String())
	assert.Equal(t, time.Date(2015, 7, 23, 15, 0, 0, 0, time.UTC), res.Expires)
	assert.False(t, res.Partial)
	assert.Equal(t, "MOC077-231500-", res.Raw)
}

func TestDecodeUGCPrefixReuseAndRanges(t *testing.T) {
	res, ok := DecodeUGC("GAZ087-088-099>101-SCZ040-042-242200-\n", 0, ugcRef)
	require.True(t, ok)
	require.Empty(t, res.Diagnostics)

	want := []domain.GeoCode{
		{State: "GA", Type: domain.GeoZone, Code: 87},
		{State: "GA", Type: domain.GeoZone, Code: 88},
		{State: "GA", Type: domain.GeoZone, Code: 99},
		{State: "GA", Type: domain.GeoZone, Code: 100},
		{State: "GA", Type: domain.GeoZone, Code: 101},
		{State: "SC", Type: domain.GeoZone, Code: 40},
		{State: "SC", Type: domain.GeoZone, Code: 42},
	}
	assert.Equal(t, want, res.Codes)
	assert.Equal(t, time.Date(2015, 7, 24, 22, 0, 0, 0, time.UTC), res.Expires)
}

func TestDecodeUGCWrappedBlock(t *testing.T) {
	block := "GAZ087-088-099>101-114>119-137>141-SCZ040-\n042>045-047>052-242200-\n"
	res, ok := DecodeUGC(block, 0, ugcRef)
	require.True(t, ok)
	require.Empty(t, res.Diagnostics)

	// 2 + 3 + 6 + 5 zones in Georgia, 1 + 4 + 6 in South Carolina.
	assert.Len(t, res.Codes, 27)
	assert.Equal(t, domain.GeoCode{State: "SC", Type: domain.GeoZone, Code: 42}, res.Codes[17])
	assert.Equal(t, time.Date(2015, 7, 24, 22, 0, 0, 0, time.UTC), res.Expires)
}

func TestDecodeUGCInvertedRange(t *testing.T) {
	res, ok := DecodeUGC("GAZ099>087-231500-\n", 0, ugcRef)
	require.True(t, ok)

	assert.Empty(t, res.Codes)
	assert.True(t, res.Partial)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.DiagUGC, res.Diagnostics[0].Kind)
	assert.Equal(t, domain.SeverityDefect, res.Diagnostics[0].Severity)
}

func TestDecodeUGCBareLeadingCode(t *testing.T) {
	res, ok := DecodeUGC("077-231500-\nSEGMENT BODY\n", 0, ugcRef)
	require.True(t, ok)

	// No prefix has been set when the first code arrives: the token is
	// dropped, not guessed, and the block is marked partial.
	assert.Empty(t, res.Codes)
	assert.True(t, res.Partial)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.DiagUGC, res.Diagnostics[0].Kind)
	assert.Equal(t, domain.SeverityDefect, res.Diagnostics[0].Severity)
	assert.Contains(t, res.Diagnostics[0].Detail, "no state prefix")

	// The purge group still resolves.
	assert.Equal(t, time.Date(2015, 7, 23, 15, 0, 0, 0, time.UTC), res.Expires)
}

func TestDecodeUGCBareLeadingCodeThenPrefix(t *testing.T) {
	// Decoding recovers once a prefix appears: only the prefixless token is
	// lost.
	res, ok := DecodeUGC("077-SCZ040-042-231500-\n", 0, ugcRef)
	require.True(t, ok)

	assert.True(t, res.Partial)
	require.Len(t, res.Diagnostics, 1)
	want := []domain.GeoCode{
		{State: "SC", Type: domain.GeoZone, Code: 40},
		{State: "SC", Type: domain.GeoZone, Code: 42},
	}
	assert.Equal(t, want, res.Codes)
}

func TestDecodeUGCCountyRangeWarns(t *testing.T) {
	res, ok := DecodeUGC("MOC077>079-231500-\n", 0, ugcRef)
	require.True(t, ok)

	assert.Len(t, res.Codes, 3)
	assert.False(t, res.Partial)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.SeverityWarning, res.Diagnostics[0].Severity)
}

func TestDecodeUGCAbsent(t *testing.T) {
	_, ok := DecodeUGC("...A HEADLINE-ONLY SEGMENT...\nWITH PROSE\n", 0, ugcRef)
	assert.False(t, ok)
}

func TestEncodeUGCRoundTrip(t *testing.T) {
	// Decoding an encoded line reproduces the original codes.
	lines := []string{
		"MOC077-231500-",
		"GAZ087-088-099>101-SCZ040-042-242200-",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			res, ok := DecodeUGC(line+"\n", 0, ugcRef)
			require.True(t, ok)
			require.False(t, res.Partial)

			encoded := strings.Join(EncodeUGC(res.Codes), "-")
			back, ok := DecodeUGC(encoded+"-231500-\n", 0, ugcRef)
			require.True(t, ok)
			assert.Equal(t, res.Codes, back.Codes)
		})
	}
}
