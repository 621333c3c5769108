package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
// Value holds one framed feed (one or more concatenated bulletins).
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// RawBulletin is one bulletin cut out of a framed feed, before decoding.
type RawBulletin struct {
	// IngestID identifies this extraction; it is carried through to the
	// decoded Product so downstream consumers can correlate retries.
	IngestID string `json:"ingest_id,omitempty"`

	// DeclaredLength is the byte count from the framing line.
	DeclaredLength int `json:"declared_length"`

	// Text is the bulletin body with line endings normalized to LF.
	Text string `json:"text"`

	// Diagnostics holds framing defects (e.g. length mismatch). The
	// bulletin is still emitted; segmentation is best-effort.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Product is one fully decoded bulletin.
type Product struct {
	ID       string `json:"id"`
	IngestID string `json:"ingest_id,omitempty"`

	ByteLength int        `json:"byte_length"`
	WMO        WMOHeading `json:"wmo"`
	AWIPS      AWIPSID    `json:"awips"`

	// IssuedAt is the WMO day/hour/minute group resolved to an absolute
	// UTC instant. Zero when the header was unparsable.
	IssuedAt time.Time `json:"issued_at,omitempty"`

	// MNDIssuedAt is the Mass News Disseminator date/time line ("945 PM
	// CDT WED JUL 22 2015") converted to UTC via its timezone
	// abbreviation. Zero when the line is absent or unresolvable; it
	// carries no two-digit ambiguity, so it cross-checks IssuedAt.
	MNDIssuedAt time.Time `json:"mnd_issued_at,omitempty"`

	Segments []Segment `json:"segments"`

	// Trailer is the signature/office-initials text after the last
	// segment terminator, preserved verbatim.
	Trailer string `json:"trailer,omitempty"`

	// Test marks products carrying the NWS test-message disclaimer.
	Test bool `json:"test,omitempty"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`

	Raw       string    `json:"-"`
	DecodedAt time.Time `json:"decoded_at"`
}

// Defects returns the diagnostics with defect severity, product-level and
// segment-level combined.
func (p *Product) Defects() []Diagnostic {
	var out []Diagnostic
	for _, d := range p.Diagnostics {
		if d.Severity == SeverityDefect {
			out = append(out, d)
		}
	}
	return out
}

// WMOHeading is the abbreviated heading from the first line of a bulletin,
// e.g. "WGUS53 KSGF 231503".
type WMOHeading struct {
	DataType string `json:"data_type"` // 2-letter data type/form designator
	Region   string `json:"region"`    // 2-letter geographic designator
	Index    int    `json:"index"`     // 2-digit distinguishing numeral
	Office   string `json:"office"`    // 4-character originating office
	Day      int    `json:"day"`
	Hour     int    `json:"hour"`
	Minute   int    `json:"minute"`
	Retrans  string `json:"retrans,omitempty"` // RRx/CCx/AAx retransmission tag
}

// Designator reassembles the TTAAii token.
func (w WMOHeading) Designator() string {
	return fmt.Sprintf("%s%s%02d", w.DataType, w.Region, w.Index)
}

// AWIPSID is the local product identifier from the second line of a
// bulletin, e.g. "FFWSGF" → category FFW issued by SGF.
type AWIPSID struct {
	Category string `json:"category"`
	Office   string `json:"office"`
}

// Segment is one area-scoped part of a product, terminated by the "$$"
// marker line.
type Segment struct {
	GeoCodes []GeoCode `json:"geocodes,omitempty"`

	// Expires is the UGC purge instant; zero when no UGC line was present.
	Expires time.Time `json:"expires,omitempty"`

	Vtec     []VtecEvent    `json:"vtec,omitempty"`
	Polygons []Polygon      `json:"polygons,omitempty"`
	Motion   *StormMotion   `json:"motion,omitempty"`
	Table    *ForecastTable `json:"table,omitempty"`

	Headline string `json:"headline,omitempty"`

	// Body is the unparsed remainder of the segment, preserved verbatim.
	Body string `json:"body,omitempty"`
}

// GeoType distinguishes county codes from forecast-zone codes in a UGC line.
type GeoType string

const (
	GeoCounty GeoType = "county"
	GeoZone   GeoType = "zone"
)

// GeoCode is one Universal Geographic Code entry: state, county-or-zone
// flag, and the 3-digit code. Immutable once produced by the UGC decoder.
type GeoCode struct {
	State string  `json:"state"`
	Type  GeoType `json:"type"`
	Code  int     `json:"code"`
}

// String renders the code in UGC wire form, e.g. "MOC077".
func (g GeoCode) String() string {
	t := "Z"
	if g.Type == GeoCounty {
		t = "C"
	}
	return fmt.Sprintf("%s%s%03d", g.State, t, g.Code)
}

// EventInstant is a VTEC timestamp that may be the "open" sentinel
// (000000T0000Z): the bound is not yet determined. Open instants are never
// coerced to an epoch value.
type EventInstant struct {
	Time time.Time `json:"time,omitzero"`
	Open bool      `json:"open,omitempty"`
}

// Action classifies the VTEC action code over an event's lifecycle.
type Action string

const (
	ActionNew          Action = "NEW"
	ActionContinue     Action = "CONTINUE"
	ActionExtend       Action = "EXTEND"
	ActionUpgrade      Action = "UPGRADE"
	ActionCancel       Action = "CANCEL"
	ActionExpire       Action = "EXPIRE"
	ActionCorrect      Action = "CORRECT"
	ActionRoutine      Action = "ROUTINE"
	ActionUnclassified Action = "UNCLASSIFIED"
)

// Terminal reports whether the action closes the event's lifecycle.
func (a Action) Terminal() bool {
	return a == ActionUpgrade || a == ActionCancel || a == ActionExpire
}

// EventKey correlates VTEC snapshots for the same tracked event across
// products. ETNs are assigned per office, scoped to phenomena+significance.
type EventKey struct {
	Office       string `json:"office"`
	Phenomena    string `json:"phenomena"`
	Significance string `json:"significance"`
	ETN          int    `json:"etn"`
}

func (k EventKey) String() string {
	return fmt.Sprintf("%s.%s.%s.%04d", k.Office, k.Phenomena, k.Significance, k.ETN)
}

// VtecEvent is one tracked hazard reference decoded from a primary VTEC
// line, optionally enriched from the segment's hydrologic VTEC line.
type VtecEvent struct {
	Raw string `json:"raw"`

	Class string `json:"class"` // O/T/E/X product class

	Action Action `json:"action"`
	// RawAction preserves the wire token, including codes the decoder
	// could not classify.
	RawAction string `json:"raw_action"`

	Office       string `json:"office"`
	Phenomena    string `json:"phenomena"`
	Significance string `json:"significance"`
	ETN          int    `json:"etn"`

	Begin EventInstant `json:"begin"`
	End   EventInstant `json:"end"`

	Hydro *HydroVtec `json:"hydro,omitempty"`
}

// Key returns the cross-product correlation key.
func (v VtecEvent) Key() EventKey {
	return EventKey{
		Office:       v.Office,
		Phenomena:    v.Phenomena,
		Significance: v.Significance,
		ETN:          v.ETN,
	}
}

// HydroVtec holds the flood-specific fields from a hydrologic VTEC line.
type HydroVtec struct {
	Raw string `json:"raw"`

	LocationID     string `json:"location_id"`
	Severity       string `json:"severity"`
	ImmediateCause string `json:"immediate_cause"`

	Begin EventInstant `json:"begin"`
	Crest EventInstant `json:"crest"`
	End   EventInstant `json:"end"`

	FloodRecord string `json:"flood_record"`
}

// PolygonPoint is a latitude/longitude pair in signed decimal degrees.
type PolygonPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Polygon is an ordered sequence of at least three points. The ring is not
// explicitly closed and adjacent duplicates are preserved as transmitted.
type Polygon struct {
	Points []PolygonPoint `json:"points"`
}

// WKT serializes the polygon as well-known text, closing the ring by
// repeating the first point.
func (p Polygon) WKT() string {
	if len(p.Points) == 0 {
		return "POLYGON EMPTY"
	}
	buf := make([]byte, 0, 16*len(p.Points))
	buf = append(buf, "POLYGON(("...)
	for _, pt := range p.Points {
		buf = append(buf, fmt.Sprintf("%g %g, ", pt.Lon, pt.Lat)...)
	}
	first := p.Points[0]
	buf = append(buf, fmt.Sprintf("%g %g))", first.Lon, first.Lat)...)
	return string(buf)
}

// StormMotion is a TIME...MOT...LOC line: observation time, direction of
// motion in degrees, speed in knots, and the observed centroid location.
type StormMotion struct {
	At           time.Time      `json:"at"`
	DirectionDeg int            `json:"direction_deg"`
	SpeedKt      int            `json:"speed_kt"`
	Location     []PolygonPoint `json:"location"`
}

// ForecastTable is one tabular river-stage forecast block.
type ForecastTable struct {
	// Columns are the date/time labels, ordered left to right as printed.
	Columns []string      `json:"columns"`
	Rows    []ForecastRow `json:"rows"`
}

// ForecastValue is a single stage value aligned to a table column.
// Missing marks the "M" placeholder, which is distinct from zero.
type ForecastValue struct {
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
}

// ForecastRow is one gauge location's row. Values aligns positionally to
// the table's Columns; a ragged right edge (fewer values than columns) is
// legal and means those columns carry no forecast.
type ForecastRow struct {
	Location string `json:"location"`

	FloodStage *float64 `json:"flood_stage,omitempty"`

	Observed   *float64 `json:"observed,omitempty"`
	ObservedAt string   `json:"observed_at,omitempty"`

	Values []ForecastValue `json:"values"`

	Crest   *float64 `json:"crest,omitempty"`
	CrestAt string   `json:"crest_at,omitempty"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ProductID produces a deterministic ID from a product's identifying
// fields. Deterministic IDs enable idempotent upserts downstream
// (ON CONFLICT DO NOTHING) and replay safety without coordination.
func ProductID(office, awips string, issued time.Time, byteLength int) string {
	input := fmt.Sprintf("%s|%s|%d|%d", office, awips, issued.Unix(), byteLength)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if office == "" {
		return short
	}
	return office + "-" + short
}
