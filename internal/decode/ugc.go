package decode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/floodline/hazard-etl/internal/domain"
)

// ugcBlockRe matches a complete UGC block: hyphen-delimited geography
// tokens, wrapping across lines, terminated by a 6-digit purge group and a
// final hyphen. Examples:
//
//	MOC077-231500-
//	GAZ087-088-099>101-114>119-137>141-SCZ040-042>045-047>052-242200-
//
// A wrapped line ends in a hyphen; the standard does not admit it, but a
// stray space before the line break occurs in the wild. The leading prefix
// is optional so that a block opening with a bare code (a transmission that
// lost its state prefix) is still recognized and reaches the tokenizer,
// which flags the prefixless token.
var ugcBlockRe = regexp.MustCompile(
	`(?m)^(?:[A-Z]{2}[CZ])?\d{3}[->](?:[0-9>-]|[A-Z]{2}[CZ]|[ \t]*\n)*?(\d{6})-[ \t]*$`)

var (
	ugcPrefixedTokenRe = regexp.MustCompile(`^([A-Z]{2})([CZ])(\d{3})(?:>(\d{3}))?$`)
	ugcBareTokenRe     = regexp.MustCompile(`^(\d{3})(?:>(\d{3}))?$`)
)

// UGCResult is the decoded geography block of one segment.
type UGCResult struct {
	Codes   []domain.GeoCode
	Expires time.Time

	// Partial marks a block where some tokens were dropped rather than
	// guessed at.
	Partial bool

	// Raw is the matched block text, used by the assembler to strip the
	// block from the segment body.
	Raw string

	Diagnostics []domain.Diagnostic
}

// DecodeUGC parses the first UGC block of a segment. The second return is
// false when the segment carries no UGC line, which is not itself a defect
// (headline-only segments exist).
//
// Token grammar: "SSTNNN" sets the state+type prefix and emits a code;
// a bare "NNN" reuses the prefix in force; "NNN>NNN" expands to the
// inclusive range. A bare code before any prefix is a defect: the token is
// dropped, not guessed. The trailing 6-digit group is the purge time.
func DecodeUGC(segment string, segIdx int, rz domain.TimeResolver) (UGCResult, bool) {
	m := ugcBlockRe.FindStringSubmatch(segment)
	if m == nil {
		return UGCResult{}, false
	}

	res := UGCResult{Raw: m[0]}

	// Undo line wrapping before tokenizing.
	joined := strings.NewReplacer("\n", "", " ", "", "\t", "").Replace(m[0])
	tokens := strings.Split(strings.TrimSuffix(joined, "-"), "-")

	// The final token is the purge group, already captured by the regex.
	purge := m[1]
	tokens = tokens[:len(tokens)-1]

	var state string
	var typ domain.GeoType
	for _, tok := range tokens {
		switch {
		case ugcPrefixedTokenRe.MatchString(tok):
			sub := ugcPrefixedTokenRe.FindStringSubmatch(tok)
			state = sub[1]
			typ = domain.GeoZone
			if sub[2] == "C" {
				typ = domain.GeoCounty
			}
			res.appendRange(segIdx, state, typ, sub[3], sub[4])
		case ugcBareTokenRe.MatchString(tok):
			if state == "" {
				res.Diagnostics = append(res.Diagnostics, domain.Defect(domain.DiagUGC, segIdx,
					"bare geography code with no state prefix in scope", tok))
				res.Partial = true
				continue
			}
			sub := ugcBareTokenRe.FindStringSubmatch(tok)
			res.appendRange(segIdx, state, typ, sub[1], sub[2])
		default:
			res.Diagnostics = append(res.Diagnostics, domain.Defect(domain.DiagUGC, segIdx,
				"unrecognized geography token", tok))
			res.Partial = true
		}
	}

	day, _ := strconv.Atoi(purge[0:2])
	hour, _ := strconv.Atoi(purge[2:4])
	minute, _ := strconv.Atoi(purge[4:6])
	expires, ok := rz.ResolveFuture(day, hour, minute)
	if !ok {
		res.Diagnostics = append(res.Diagnostics, domain.Defect(domain.DiagUGC, segIdx,
			"purge group does not resolve to a calendar instant", purge))
		res.Partial = true
	} else {
		res.Expires = expires
	}

	return res, true
}

// appendRange emits one code, or the inclusive expansion of a "NNN>NNN"
// range. Ranges are a zone construct; a county range is expanded anyway but
// flagged, since dropping data helps nobody.
func (r *UGCResult) appendRange(segIdx int, state string, typ domain.GeoType, from, to string) {
	lo, _ := strconv.Atoi(from)
	if to == "" {
		r.Codes = append(r.Codes, domain.GeoCode{State: state, Type: typ, Code: lo})
		return
	}
	hi, _ := strconv.Atoi(to)
	if hi < lo {
		r.Diagnostics = append(r.Diagnostics, domain.Defect(domain.DiagUGC, segIdx,
			"inverted geography range", fmt.Sprintf("%s>%s", from, to)))
		r.Partial = true
		return
	}
	if typ == domain.GeoCounty {
		r.Diagnostics = append(r.Diagnostics, domain.Warning(domain.DiagUGC, segIdx,
			"range used with county-type prefix", fmt.Sprintf("%s>%s", from, to)))
	}
	for c := lo; c <= hi; c++ {
		r.Codes = append(r.Codes, domain.GeoCode{State: state, Type: typ, Code: c})
	}
}

// EncodeUGC re-serializes geocodes using the prefix reuse rule: a full
// token whenever state or type changes, a bare 3-digit token otherwise.
// Joining the result with hyphens and appending the purge group reproduces
// an unwrapped UGC line; consumers use it to key cache entries the same way
// offices transmit them.
func EncodeUGC(codes []domain.GeoCode) []string {
	var out []string
	var state string
	var typ domain.GeoType
	for _, c := range codes {
		if c.State != state || c.Type != typ {
			out = append(out, c.String())
			state, typ = c.State, c.Type
			continue
		}
		out = append(out, fmt.Sprintf("%03d", c.Code))
	}
	return out
}
