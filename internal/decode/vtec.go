package decode

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/floodline/hazard-etl/internal/domain"
)

// vtecPrimaryRe matches a primary VTEC line, e.g.
//
//	/O.CON.KSGF.FF.W.0071.000000T0000Z-150723T1500Z/
//
// product class, action, office, phenomena, significance, event tracking
// number, begin-end window.
var vtecPrimaryRe = regexp.MustCompile(
	`/([OTEX])\.([A-Z]{3})\.([A-Z0-9]{4})\.([A-Z]{2})\.([A-Z])\.(\d{4})\.(\d{6}T\d{4}Z)-(\d{6}T\d{4}Z)/`)

// vtecHydroRe matches the hydrologic VTEC line that may accompany a flood
// product's primary line, e.g.
//
//	/00071.2.ER.150723T0245Z.150723T0800Z.150723T1200Z.NO/
//
// location id, flood severity, immediate cause, begin-crest-end, flood
// record status.
var vtecHydroRe = regexp.MustCompile(
	`/([A-Z0-9]{5})\.([0-9NU])\.([A-Z]{2})\.(\d{6}T\d{4}Z)\.(\d{6}T\d{4}Z)\.(\d{6}T\d{4}Z)\.([A-Z]{2})/`)

// vtecCandidateRe loosely matches anything VTEC-shaped so malformed lines
// can be reported instead of silently ignored.
var vtecCandidateRe = regexp.MustCompile(`(?m)^/[A-Z0-9]{1,5}\.[^/\n]*/[ \t]*$`)

// vtecOpenSentinel marks an unbounded begin or end instant.
const vtecOpenSentinel = "000000T0000Z"

// actionCodes maps wire action tokens to their lifecycle classification.
// EXT, EXA and EXB all extend an open event (in time, area, or both).
var actionCodes = map[string]domain.Action{
	"NEW": domain.ActionNew,
	"CON": domain.ActionContinue,
	"EXT": domain.ActionExtend,
	"EXA": domain.ActionExtend,
	"EXB": domain.ActionExtend,
	"UPG": domain.ActionUpgrade,
	"CAN": domain.ActionCancel,
	"EXP": domain.ActionExpire,
	"COR": domain.ActionCorrect,
	"ROU": domain.ActionRoutine,
}

// significanceCodes are the published significance levels.
var significanceCodes = map[string]string{
	"W": "Warning",
	"A": "Watch",
	"Y": "Advisory",
	"S": "Statement",
	"F": "Forecast",
}

// phenomenaCodes are the published phenomena assignments. The list grows as
// offices add hazards; an unknown code is flagged, never rejected.
var phenomenaCodes = map[string]string{
	"AF": "Volcanic Ashfall", "AS": "Air Stagnation", "AV": "Avalanche",
	"BS": "Blowing/Drifting Snow", "BZ": "Blizzard", "CF": "Coastal Flood",
	"DS": "Dust Storm", "DU": "Blowing Dust", "EC": "Extreme Cold",
	"EH": "Excessive Heat", "FA": "Areal Flood", "FF": "Flash Flood",
	"FG": "Dense Fog", "FL": "Flood", "FR": "Frost", "FW": "Fire Weather",
	"FZ": "Freeze", "GL": "Gale", "HF": "Hurricane Force Winds",
	"HS": "Heavy Snow", "HT": "Heat", "HU": "Hurricane", "HW": "High Wind",
	"IP": "Sleet", "IS": "Ice Storm", "LE": "Lake Effect Snow",
	"LO": "Low Water", "LS": "Lakeshore Flood", "LW": "Lake Wind",
	"MA": "Marine", "SC": "Small Craft", "SM": "Dense Smoke", "SN": "Snow",
	"SR": "Storm", "SU": "High Surf", "SV": "Severe Thunderstorm",
	"TO": "Tornado", "TR": "Tropical Storm", "TS": "Tsunami", "TY": "Typhoon",
	"UP": "Ice Accretion", "WC": "Wind Chill", "WI": "Wind",
	"WS": "Winter Storm", "WW": "Winter Weather", "ZF": "Freezing Fog",
	"ZR": "Freezing Rain",
}

// VtecResult is the decoded event-tracking content of one segment.
type VtecResult struct {
	Events []domain.VtecEvent

	// Raws holds every matched line so the assembler can strip them from
	// the segment body.
	Raws []string

	Diagnostics []domain.Diagnostic
}

// DecodeVtec parses all primary VTEC lines in a segment and, when the
// segment carries a hydrologic line, enriches the matching event. A
// segment holds at most one hydrologic line by construction, so enrichment
// is only performed when the primary event is unambiguous.
func DecodeVtec(segment string, segIdx int) VtecResult {
	var res VtecResult

	for _, m := range vtecPrimaryRe.FindAllStringSubmatch(segment, -1) {
		etn, _ := strconv.Atoi(m[6])
		ev := domain.VtecEvent{
			Raw:          m[0],
			Class:        m[1],
			RawAction:    m[2],
			Office:       m[3],
			Phenomena:    m[4],
			Significance: m[5],
			ETN:          etn,
			Begin:        parseVtecInstant(m[7]),
			End:          parseVtecInstant(m[8]),
		}

		action, known := actionCodes[m[2]]
		if !known {
			action = domain.ActionUnclassified
			res.Diagnostics = append(res.Diagnostics, domain.Warning(domain.DiagVtec, segIdx,
				"unclassified action code "+m[2], m[0]))
		}
		ev.Action = action

		if _, known := phenomenaCodes[m[4]]; !known {
			res.Diagnostics = append(res.Diagnostics, domain.Warning(domain.DiagVtec, segIdx,
				"unclassified phenomena code "+m[4], m[0]))
		}
		if _, known := significanceCodes[m[5]]; !known {
			res.Diagnostics = append(res.Diagnostics, domain.Warning(domain.DiagVtec, segIdx,
				"unclassified significance code "+m[5], m[0]))
		}

		res.Events = append(res.Events, ev)
		res.Raws = append(res.Raws, m[0])
	}

	if hm := vtecHydroRe.FindStringSubmatch(segment); hm != nil {
		hydro := &domain.HydroVtec{
			Raw:            hm[0],
			LocationID:     hm[1],
			Severity:       hm[2],
			ImmediateCause: hm[3],
			Begin:          parseVtecInstant(hm[4]),
			Crest:          parseVtecInstant(hm[5]),
			End:            parseVtecInstant(hm[6]),
			FloodRecord:    hm[7],
		}
		res.Raws = append(res.Raws, hm[0])

		switch len(res.Events) {
		case 1:
			res.Events[0].Hydro = hydro
		case 0:
			res.Diagnostics = append(res.Diagnostics, domain.Defect(domain.DiagVtec, segIdx,
				"hydrologic line without a primary VTEC line", hm[0]))
		default:
			res.Diagnostics = append(res.Diagnostics, domain.Warning(domain.DiagVtec, segIdx,
				"hydrologic line ambiguous across multiple events, not attached", hm[0]))
		}
	}

	// Report VTEC-shaped lines neither pattern accepted.
	for _, cand := range vtecCandidateRe.FindAllString(segment, -1) {
		cand = strings.TrimSpace(cand)
		if vtecPrimaryRe.MatchString(cand) || vtecHydroRe.MatchString(cand) {
			continue
		}
		res.Diagnostics = append(res.Diagnostics, domain.Defect(domain.DiagVtec, segIdx,
			"malformed VTEC line", cand))
	}

	return res
}

// parseVtecInstant decodes a yymmddThhmmZ group, honoring the all-zero
// sentinel as an explicit open bound. Years are offset from 2000; VTEC
// predates no product this decoder will ever see.
func parseVtecInstant(s string) domain.EventInstant {
	if s == vtecOpenSentinel {
		return domain.EventInstant{Open: true}
	}
	year, _ := strconv.Atoi(s[0:2])
	month, _ := strconv.Atoi(s[2:4])
	day, _ := strconv.Atoi(s[4:6])
	hour, _ := strconv.Atoi(s[7:9])
	minute, _ := strconv.Atoi(s[9:11])
	return domain.EventInstant{
		Time: time.Date(2000+year, time.Month(month), day, hour, minute, 0, 0, time.UTC),
	}
}
