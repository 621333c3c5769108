// Package decode turns raw NWS hazard bulletin text into structured domain
// records. Every decoder is a pure function over already-materialized text:
// no I/O, no ambient clock, no shared state. Malformed input produces
// diagnostics on the result, never an abort, so a best-effort record is
// always available downstream.
package decode

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/floodline/hazard-etl/internal/domain"
)

// lengthLineRe matches a framing line: nothing but the bulletin's own byte
// count in ASCII digits.
var lengthLineRe = regexp.MustCompile(`^\d{1,10}$`)

// FeedScanner steps through a framed feed of concatenated bulletins. Each
// bulletin opens with a length line followed by a blank line; the body runs
// until the next length line or end of stream. The scanner is lazy: it reads
// only as far as the bulletin it is asked for, in the manner of
// bufio.Scanner.
//
//	s := decode.NewFeedScanner(f)
//	for s.Scan() {
//	    b := s.Bulletin()
//	    ...
//	}
//	if err := s.Err(); err != nil { ... }
type FeedScanner struct {
	r       *bufio.Reader
	cur     domain.RawBulletin
	pending []domain.Diagnostic

	// peeked holds one line of lookahead; framing lines are only honored
	// when a blank line follows. stash covers the two-line lookahead that
	// boundary detection needs.
	peeked *feedLine
	stash  []*feedLine
	err    error
	done   bool
}

// feedLine is one normalized line plus the raw byte count it consumed.
type feedLine struct {
	text string
	raw  int
}

// NewFeedScanner wraps a raw feed stream.
func NewFeedScanner(r io.Reader) *FeedScanner {
	return &FeedScanner{r: bufio.NewReader(r)}
}

// Scan advances to the next bulletin. It returns false at end of stream or
// on a read error; Err distinguishes the two.
func (s *FeedScanner) Scan() bool {
	if s.done || s.err != nil {
		return false
	}

	declared, ok := s.seekLengthLine()
	if !ok {
		s.done = true
		return false
	}

	var body strings.Builder
	consumed := 0
	for {
		line, ok := s.peek()
		if !ok {
			break
		}
		if s.isFrameBoundary(line) {
			break
		}
		s.next()
		body.WriteString(line.text)
		body.WriteByte('\n')
		consumed += line.raw
	}

	s.cur = domain.RawBulletin{
		DeclaredLength: declared,
		Text:           body.String(),
		Diagnostics:    s.pending,
	}
	s.pending = nil

	if consumed != declared {
		s.cur.Diagnostics = append(s.cur.Diagnostics, domain.Defect(
			domain.DiagFraming, -1,
			fmt.Sprintf("length mismatch: framing declared %d bytes, consumed %d", declared, consumed),
			"",
		))
	}
	return true
}

// Bulletin returns the bulletin produced by the last successful Scan.
func (s *FeedScanner) Bulletin() domain.RawBulletin { return s.cur }

// Err returns the first read error other than io.EOF.
func (s *FeedScanner) Err() error { return s.err }

// seekLengthLine skips to the next framing line, consuming it and its
// trailing blank line. Non-blank content found while seeking is discarded
// with a framing warning attached to the upcoming bulletin.
func (s *FeedScanner) seekLengthLine() (int, bool) {
	for {
		line, ok := s.peek()
		if !ok {
			return 0, false
		}
		if s.isFrameBoundary(line) {
			s.next()
			n, err := strconv.Atoi(line.text)
			if err != nil {
				// Unreachable given the regex, but do not trust it.
				n = 0
			}
			// Consume the mandatory blank line.
			if blank, ok := s.peek(); ok && strings.TrimSpace(blank.text) == "" {
				s.next()
			} else {
				s.pending = append(s.pending, domain.Warning(
					domain.DiagFraming, -1, "framing line not followed by a blank line", line.text))
			}
			return n, true
		}
		s.next()
		if strings.TrimSpace(line.text) != "" {
			s.pending = append(s.pending, domain.Warning(
				domain.DiagFraming, -1, "content before framing line discarded", line.text))
		}
	}
}

// isFrameBoundary reports whether line starts a new bulletin: a digits-only
// line with a blank line (or end of stream) behind it. The lookahead keeps
// digit-only rows inside bulletin bodies from being mistaken for framing.
func (s *FeedScanner) isFrameBoundary(line *feedLine) bool {
	if !lengthLineRe.MatchString(line.text) {
		return false
	}
	s.next()
	after, ok := s.peek()
	s.pushBack(line)
	if !ok {
		return true
	}
	return strings.TrimSpace(after.text) == ""
}

func (s *FeedScanner) peek() (*feedLine, bool) {
	if s.peeked == nil {
		s.peeked = s.readLine()
	}
	if s.peeked == nil {
		return nil, false
	}
	return s.peeked, true
}

func (s *FeedScanner) next() *feedLine {
	l, _ := s.peek()
	s.peeked = nil
	return l
}

func (s *FeedScanner) pushBack(l *feedLine) {
	if s.peeked != nil {
		s.stash = append(s.stash, s.peeked)
	}
	s.peeked = l
}

// readLine reads one raw line, normalizing CR+LF and bare CR terminators to
// LF and recording how many raw bytes the line consumed.
func (s *FeedScanner) readLine() *feedLine {
	if n := len(s.stash); n > 0 {
		l := s.stash[n-1]
		s.stash = s.stash[:n-1]
		return l
	}
	raw, err := s.r.ReadString('\n')
	if err != nil && err != io.EOF {
		s.err = err
		return nil
	}
	if raw == "" {
		return nil
	}
	return &feedLine{text: NormalizeLine(raw), raw: len(raw)}
}

// NormalizeLine strips any mix of trailing CR/LF terminators from one line.
func NormalizeLine(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// NormalizeText rewrites all line terminators in a block of text to LF.
// NWS transmission circuits historically emit CR CR LF; those collapse to a
// single break.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\r\n", "\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// SplitFeed decodes an entire feed eagerly. It is a convenience for the CLI
// and tests; the pipeline uses FeedScanner directly.
func SplitFeed(r io.Reader) ([]domain.RawBulletin, error) {
	s := NewFeedScanner(r)
	var out []domain.RawBulletin
	for s.Scan() {
		out = append(out, s.Bulletin())
	}
	return out, s.Err()
}
