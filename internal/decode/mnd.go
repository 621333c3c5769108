package decode

import (
	"regexp"
	"strconv"
	"time"

	"github.com/floodline/hazard-etl/internal/domain"
)

// tzOffsetHours maps the timezone abbreviations offices print on the MND
// date/time line to their UTC offsets in hours. Guam (CHST) is the one
// positive offset in the service area.
var tzOffsetHours = map[string]int{
	"AST": -4,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
	"AKST": -9, "AKDT": -8,
	"HST": -10, "HAST": -10, "HADT": -9,
	"SST": -11, "SDT": -10,
	"CHST": 10,
}

var monthAbbrev = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// mndIssuanceRe matches the Mass News Disseminator date/time line, e.g.
//
//	945 PM CDT WED JUL 22 2015
var mndIssuanceRe = regexp.MustCompile(
	`(?m)^(\d{1,2})(\d{2}) ([AP])M ([A-Z]{3,4}) (?:SUN|MON|TUE|WED|THU|FRI|SAT) ([A-Z]{3}) (\d{1,2}) (\d{4})[ \t]*$`)

// MNDIssuance is the decoded office-local issuance line from the MND block.
type MNDIssuance struct {
	// IssuedAt is the printed local time converted to UTC via the timezone
	// abbreviation. Zero when the abbreviation or month is unrecognized.
	IssuedAt time.Time
	Timezone string
	Raw      string

	Diagnostics []domain.Diagnostic
}

// DecodeMNDIssuance parses the MND date/time line. The second return is
// false when no such line is present; many short products omit the MND
// block entirely. Findings here are warnings, not defects: the WMO
// issuance group remains the authoritative product time.
func DecodeMNDIssuance(text string) (MNDIssuance, bool) {
	m := mndIssuanceRe.FindStringSubmatch(text)
	if m == nil {
		return MNDIssuance{}, false
	}

	res := MNDIssuance{Timezone: m[4], Raw: m[0]}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	hour %= 12
	if m[3] == "P" {
		hour += 12
	}

	month, ok := monthAbbrev[m[5]]
	if !ok {
		res.Diagnostics = append(res.Diagnostics, domain.Warning(domain.DiagHeader, -1,
			"unrecognized month on issuance line", m[0]))
		return res, true
	}
	day, _ := strconv.Atoi(m[6])
	year, _ := strconv.Atoi(m[7])

	offset, ok := tzOffsetHours[res.Timezone]
	if !ok {
		res.Diagnostics = append(res.Diagnostics, domain.Warning(domain.DiagHeader, -1,
			"unrecognized timezone abbreviation on issuance line", m[0]))
		return res, true
	}

	local := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	res.IssuedAt = local.Add(-time.Duration(offset) * time.Hour)
	return res, true
}
