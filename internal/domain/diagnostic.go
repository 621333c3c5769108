package domain

import "fmt"

// DiagKind categorizes a decode diagnostic by the component that raised it.
type DiagKind string

const (
	DiagFraming DiagKind = "framing"
	DiagHeader  DiagKind = "header"
	DiagSegment DiagKind = "segment"
	DiagUGC     DiagKind = "ugc"
	DiagVtec    DiagKind = "vtec"
	DiagPolygon DiagKind = "polygon"
	DiagTable   DiagKind = "table"
)

// Severity separates advisory warnings from defects. Only defects fail a
// product in strict mode.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityDefect  Severity = "defect"
)

// Diagnostic is one structured decode finding. Diagnostics are values, not
// errors: they are attached to the enclosing Product and never thrown
// across component boundaries.
type Diagnostic struct {
	Kind     DiagKind `json:"kind"`
	Severity Severity `json:"severity"`

	// Segment is the index of the segment the finding belongs to, or -1
	// for product-level findings.
	Segment int `json:"segment"`

	Detail string `json:"detail"`

	// Raw is the offending source text, when it helps triage.
	Raw string `json:"raw,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Segment < 0 {
		return fmt.Sprintf("%s/%s: %s", d.Kind, d.Severity, d.Detail)
	}
	return fmt.Sprintf("%s/%s [segment %d]: %s", d.Kind, d.Severity, d.Segment, d.Detail)
}

// Defect builds a defect-severity diagnostic.
func Defect(kind DiagKind, segment int, detail, raw string) Diagnostic {
	return Diagnostic{Kind: kind, Severity: SeverityDefect, Segment: segment, Detail: detail, Raw: raw}
}

// Warning builds a warning-severity diagnostic.
func Warning(kind DiagKind, segment int, detail, raw string) Diagnostic {
	return Diagnostic{Kind: kind, Severity: SeverityWarning, Segment: segment, Detail: detail, Raw: raw}
}
