package decode

import (
	"regexp"
	"strconv"
	"time"

	"github.com/floodline/hazard-etl/internal/domain"
)

// wmoHeadingRe matches the WMO abbreviated heading plus the AWIPS
// identifier on the following line, e.g.
//
//	WGUS53 KSGF 231503
//	FFWSGF
//
// The heading is TT AA ii: data designator, geographic designator, and a
// two-digit distinguishing numeral, then the 4-character originating office
// and the day/hour/minute issuance group. An optional 3-character
// retransmission tag (RRx, CCx, AAx) may trail the group.
var wmoHeadingRe = regexp.MustCompile(
	`(?m)^([A-Z]{2})([A-Z]{2})(\d{2}) ([A-Z0-9]{4}) (\d{2})(\d{2})(\d{2})(?: ([A-Z]{3}))?[ \t]*\n+([A-Z]{3})([A-Z0-9]\w{0,2})[ \t]*$`)

// Header is the decoded top-of-product identification block.
type Header struct {
	WMO   domain.WMOHeading
	AWIPS domain.AWIPSID

	// IssuedAt is the day/hour/minute group resolved against the
	// reference instant; zero when resolution failed.
	IssuedAt time.Time

	// Raw is the exact matched heading text.
	Raw string
}

// DecodeHeader parses the WMO abbreviated heading and AWIPS identifier from
// the top of a bulletin. A missing or malformed heading yields a header
// defect; the caller still attempts segment-level decoding, which does not
// depend on the header.
func DecodeHeader(text string, rz domain.TimeResolver) (Header, []domain.Diagnostic) {
	m := wmoHeadingRe.FindStringSubmatch(text)
	if m == nil {
		return Header{}, []domain.Diagnostic{
			domain.Defect(domain.DiagHeader, -1, "header-unparsable: no WMO abbreviated heading found", firstLines(text, 2)),
		}
	}

	idx, _ := strconv.Atoi(m[3])
	day, _ := strconv.Atoi(m[5])
	hour, _ := strconv.Atoi(m[6])
	minute, _ := strconv.Atoi(m[7])

	h := Header{
		WMO: domain.WMOHeading{
			DataType: m[1],
			Region:   m[2],
			Index:    idx,
			Office:   m[4],
			Day:      day,
			Hour:     hour,
			Minute:   minute,
			Retrans:  m[8],
		},
		AWIPS: domain.AWIPSID{Category: m[9], Office: m[10]},
		Raw:   m[0],
	}

	var diags []domain.Diagnostic
	issued, ok := rz.ResolvePast(day, hour, minute)
	if !ok {
		diags = append(diags, domain.Defect(domain.DiagHeader, -1,
			"issuance group does not resolve to a calendar instant", m[0]))
	} else {
		h.IssuedAt = issued
	}
	return h, diags
}

// firstLines returns up to n leading lines of text, for diagnostics.
func firstLines(text string, n int) string {
	end := 0
	for i := 0; i < n; i++ {
		next := indexByteFrom(text, end, '\n')
		if next < 0 {
			return text
		}
		end = next + 1
	}
	return text[:end]
}

func indexByteFrom(s string, from int, b byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
