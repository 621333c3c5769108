package decode

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/floodline/hazard-etl/internal/domain"
)

// testDisclaimerRe matches the disclaimer offices stamp on drills. Matching
// is case-insensitive because practice products are typed by hand.
var testDisclaimerRe = regexp.MustCompile(`(?i)THIS IS A TEST MESSAGE`)

// headlineRe matches a headline paragraph: an ellipsis-wrapped block of
// text standing alone between blank lines, possibly wrapping across lines.
var headlineRe = regexp.MustCompile(`(?m)^\.\.\.((?:[^\n]|\n(?:[^\n.]|\.[^\n.]|\.\.[^\n.]))+?)\.\.\.[ \t]*$`)

var headlineFoldRe = regexp.MustCompile(`[ \t]*\n[ \t]*`)

// Communication control characters framing some distribution channels.
const (
	ctrlSOH = "\x01"
	ctrlETX = "\x03"
)

// Options configures product assembly.
type Options struct {
	// Strict fails a product on any defect-severity diagnostic instead of
	// emitting it with diagnostics attached.
	Strict bool

	// Resolver anchors two-digit day/hour/minute groups. The zero value
	// resolves against the wall clock at decode time.
	Resolver domain.TimeResolver

	// Clock supplies DecodedAt; nil means the real clock.
	Clock clockwork.Clock
}

// DecodeProduct assembles one bulletin into a Product: header, segment
// split, then the per-segment sub-decoders. Decoding is best-effort; every
// finding lands in the product's diagnostics and only strict mode converts
// defects into an error.
func DecodeProduct(raw domain.RawBulletin, opts Options) (*domain.Product, error) {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	rz := opts.Resolver
	if rz.Ref.IsZero() {
		rz.Ref = clock.Now().UTC()
	}

	text := strings.NewReplacer(ctrlSOH, "", ctrlETX, "").Replace(raw.Text)

	p := &domain.Product{
		IngestID:    raw.IngestID,
		ByteLength:  raw.DeclaredLength,
		Raw:         text,
		Test:        testDisclaimerRe.MatchString(text),
		DecodedAt:   clock.Now().UTC(),
		Diagnostics: append([]domain.Diagnostic(nil), raw.Diagnostics...),
	}

	header, hdrDiags := DecodeHeader(text, rz)
	p.Diagnostics = append(p.Diagnostics, hdrDiags...)
	body := text
	if header.Raw != "" {
		p.WMO = header.WMO
		p.AWIPS = header.AWIPS
		p.IssuedAt = header.IssuedAt
		// The issuance is the anchor for every relative timestamp below it.
		if !header.IssuedAt.IsZero() {
			rz = domain.TimeResolver{Ref: header.IssuedAt}
		}
		if i := strings.Index(body, header.Raw); i >= 0 {
			body = body[i+len(header.Raw):]
		}
	}

	if mnd, ok := DecodeMNDIssuance(body); ok {
		p.MNDIssuedAt = mnd.IssuedAt
		p.Diagnostics = append(p.Diagnostics, mnd.Diagnostics...)
	}

	rawSegments, trailer := SplitSegments(body)
	p.Trailer = trailer

	for i, seg := range rawSegments {
		decoded, diags := decodeSegment(seg, i, rz)
		p.Segments = append(p.Segments, decoded)
		p.Diagnostics = append(p.Diagnostics, diags...)
	}

	p.ID = domain.ProductID(p.WMO.Office, p.AWIPS.Category+p.AWIPS.Office, p.IssuedAt, p.ByteLength)

	if opts.Strict {
		if defects := p.Defects(); len(defects) > 0 {
			return p, fmt.Errorf("product %s: %d decode defect(s), first: %s",
				p.ID, len(defects), defects[0])
		}
	}
	return p, nil
}

// decodeSegment runs the sub-decoders over one segment and strips their
// matched text out of the free-form body.
func decodeSegment(seg string, idx int, rz domain.TimeResolver) (domain.Segment, []domain.Diagnostic) {
	var out domain.Segment
	var diags []domain.Diagnostic
	consumed := make([]string, 0, 4)

	if ugc, ok := DecodeUGC(seg, idx, rz); ok {
		out.GeoCodes = ugc.Codes
		out.Expires = ugc.Expires
		diags = append(diags, ugc.Diagnostics...)
		consumed = append(consumed, ugc.Raw)
	}

	vtec := DecodeVtec(seg, idx)
	out.Vtec = vtec.Events
	diags = append(diags, vtec.Diagnostics...)
	consumed = append(consumed, vtec.Raws...)

	poly := DecodePolygons(seg, idx, rz)
	out.Polygons = poly.Polygons
	out.Motion = poly.Motion
	diags = append(diags, poly.Diagnostics...)
	consumed = append(consumed, poly.Raws...)

	if table, ok := DecodeForecastTable(seg, idx); ok {
		out.Table = table.Table
		diags = append(diags, table.Diagnostics...)
		consumed = append(consumed, table.Raw)
	} else {
		diags = append(diags, table.Diagnostics...)
	}

	body := seg
	for _, raw := range consumed {
		body = strings.Replace(body, raw, "", 1)
	}

	if hm := headlineRe.FindStringSubmatch(body); hm != nil {
		out.Headline = headlineFoldRe.ReplaceAllString(strings.TrimSpace(hm[1]), " ")
		body = strings.Replace(body, hm[0], "", 1)
	}

	out.Body = tidyBody(body)
	return out, diags
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// tidyBody collapses the blank-line holes left by stripped blocks.
func tidyBody(body string) string {
	body = blankRunRe.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}
