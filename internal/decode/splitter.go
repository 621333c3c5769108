package decode

import (
	"regexp"
	"strings"
)

// segmentTerminatorRe matches the "$$" marker alone on its own line.
var segmentTerminatorRe = regexp.MustCompile(`(?m)^\$\$[ \t]*$`)

// SplitSegments cuts a bulletin body into area segments on the "$$"
// terminator. Text after the final terminator is the communications
// trailer (forecaster initials, office signature, sometimes a URL); it is
// product metadata, not a segment, and is preserved verbatim.
//
// A body with no terminator yields zero segments: administrative bulletins
// carry no area data and that is legal.
func SplitSegments(body string) (segments []string, trailer string) {
	parts := segmentTerminatorRe.Split(body, -1)
	if len(parts) == 1 {
		// No terminator at all: an administrative product. The body is
		// preserved on the Product as raw text; there is no trailer.
		return nil, ""
	}

	for _, p := range parts[:len(parts)-1] {
		if strings.TrimSpace(p) == "" {
			continue
		}
		segments = append(segments, p)
	}
	return segments, strings.TrimSpace(parts[len(parts)-1])
}
