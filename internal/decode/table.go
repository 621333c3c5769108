package decode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/floodline/hazard-etl/internal/domain"
)

// River-forecast tables are hand-formatted and column alignment varies by
// office, so data tokens are aligned to header tokens by ordinal position
// after whitespace tokenization, never by character column. The Nth value
// token on a data row belongs to the Nth date/time label on the header row,
// after the row's variable-length label prefix (location, flood stage,
// latest observed) has been peeled off by counting.

// dateLabelRe recognizes date/time column labels: month/day fractions,
// weekday abbreviations, and clock labels like 7AM or 0700.
var dateLabelRe = regexp.MustCompile(
	`^(?:\d{1,2}/\d{1,2}|(?:SUN|MON|TUE|WED|THU|FRI|SAT)[A-Z]*|\d{1,2}(?:AM|PM)|\d{3,4}Z?)$`)

var numberTokenRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

// missingToken is the placeholder offices print for a value that exists as
// a column but was not measured. It decodes to an explicit missing marker,
// never to zero.
const missingToken = "M"

// tokenClass is the tagged classification driving row alignment.
type tokenClass int

const (
	tokenText tokenClass = iota
	tokenNumber
	tokenMissing
	tokenLabel
)

func classify(tok string) tokenClass {
	switch {
	case tok == missingToken:
		return tokenMissing
	case numberTokenRe.MatchString(tok):
		return tokenNumber
	case dateLabelRe.MatchString(tok):
		return tokenLabel
	default:
		return tokenText
	}
}

// TableResult is the decoded forecast table of one segment.
type TableResult struct {
	Table *domain.ForecastTable

	Raw         string
	Diagnostics []domain.Diagnostic
}

// DecodeForecastTable parses the first tabular stage/forecast block in a
// segment. The second return is false when the segment holds no table.
// Row-level defects (ragged rows, non-numeric values) are attached as
// diagnostics and do not abort the table.
func DecodeForecastTable(segment string, segIdx int) (TableResult, bool) {
	lines := strings.Split(segment, "\n")

	start, columns := findTableHeader(lines)
	if start < 0 {
		return TableResult{}, false
	}

	res := TableResult{Table: &domain.ForecastTable{Columns: columns}}
	end := start

	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			// A blank line before the first data row is a formatting
			// choice; after the rows it ends the table.
			if len(res.Table.Rows) == 0 {
				continue
			}
			break
		}
		row, diags, ok := decodeForecastRow(lines[i], len(columns), segIdx)
		if !ok {
			break
		}
		res.Diagnostics = append(res.Diagnostics, diags...)
		res.Table.Rows = append(res.Table.Rows, row)
		end = i
	}

	if len(res.Table.Rows) == 0 {
		// A header with no rows is a formatting accident, not a table.
		return TableResult{Diagnostics: []domain.Diagnostic{
			domain.Warning(domain.DiagTable, segIdx, "forecast header with no data rows", lines[start]),
		}}, false
	}

	// Raw spans header through last data row so it remains a contiguous
	// substring of the segment.
	res.Raw = strings.Join(lines[start:end+1], "\n")
	return res, true
}

// findTableHeader locates the header row: a line whose trailing run of
// tokens is at least two date/time labels, preceded by at least one
// non-numeric caption token (the location column label).
func findTableHeader(lines []string) (int, []string) {
	for i, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) < 3 {
			continue
		}

		run := 0
		for j := len(tokens) - 1; j >= 0 && classify(tokens[j]) == tokenLabel; j-- {
			run++
		}
		if run < 2 || run == len(tokens) {
			continue
		}

		// Everything before the labels must be captions, not data.
		caption := true
		for _, tok := range tokens[:len(tokens)-run] {
			if c := classify(tok); c == tokenNumber || c == tokenMissing {
				caption = false
				break
			}
		}
		if caption {
			return i, tokens[len(tokens)-run:]
		}
	}
	return -1, nil
}

// decodeForecastRow aligns one data row against ncol header labels.
//
// The leading run of non-numeric tokens is the location label. Of the value
// tokens that follow, any surplus over the column count is the leading
// field prefix: one surplus token is the flood stage, two are flood stage
// plus latest observed (an observation-time label may trail the observed
// value). A trailing (value, label) pair past the last aligned column is
// the crest. Fewer values than columns is a legal ragged right edge.
func decodeForecastRow(line string, ncol, segIdx int) (domain.ForecastRow, []domain.Diagnostic, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return domain.ForecastRow{}, nil, false
	}

	// Location label: everything up to the first numeric or missing token.
	split := 0
	for split < len(tokens) {
		if c := classify(tokens[split]); c == tokenNumber || c == tokenMissing {
			break
		}
		split++
	}
	if split == 0 || split == len(tokens) {
		// No location label or no values at all: not a data row.
		return domain.ForecastRow{}, nil, false
	}

	row := domain.ForecastRow{Location: strings.Join(tokens[:split], " ")}
	var diags []domain.Diagnostic

	type item struct {
		class tokenClass
		tok   string
	}
	items := make([]item, 0, len(tokens)-split)
	for _, tok := range tokens[split:] {
		c := classify(tok)
		if c == tokenText {
			diags = append(diags, domain.Defect(domain.DiagTable, segIdx,
				"non-numeric token where a value was expected, treated as missing", tok))
			c = tokenMissing
		}
		items = append(items, item{c, tok})
	}

	countValues := func(its []item) int {
		n := 0
		for _, it := range its {
			if it.class != tokenLabel {
				n++
			}
		}
		return n
	}

	// Trailing (value, label) pair is a crest, but only when the row still
	// fills every column without it; on a ragged row the pair is ambiguous.
	values := countValues(items)
	if n := len(items); n >= 2 && items[n-1].class == tokenLabel && items[n-2].class == tokenNumber {
		if values-1 >= ncol {
			v := mustFloat(items[n-2].tok)
			row.Crest = &v
			row.CrestAt = items[n-1].tok
			items = items[:n-2]
			values--
		} else {
			diags = append(diags, domain.Defect(domain.DiagTable, segIdx,
				"trailing value/label pair on a ragged row, dropped",
				items[n-2].tok+" "+items[n-1].tok))
			items = items[:n-2]
			values--
		}
	}

	// Surplus values over the column count are the leading field prefix.
	surplus := values - ncol
	if surplus > 2 {
		diags = append(diags, domain.Defect(domain.DiagTable, segIdx,
			fmt.Sprintf("row carries %d values for %d columns", values, ncol), line))
		surplus = 2
	}

	if surplus >= 1 {
		if items[0].class == tokenNumber {
			v := mustFloat(items[0].tok)
			row.FloodStage = &v
		}
		items = items[1:]
	}
	if surplus == 2 {
		if items[0].class == tokenNumber {
			v := mustFloat(items[0].tok)
			row.Observed = &v
		}
		items = items[1:]
		// An observation-time label may trail the observed value.
		if len(items) > 0 && items[0].class == tokenLabel {
			row.ObservedAt = items[0].tok
			items = items[1:]
		}
	}

	for _, it := range items {
		if it.class == tokenLabel {
			diags = append(diags, domain.Defect(domain.DiagTable, segIdx,
				"unexpected label between forecast values", it.tok))
			continue
		}
		if len(row.Values) == ncol {
			diags = append(diags, domain.Defect(domain.DiagTable, segIdx,
				"value past the last column, dropped", it.tok))
			continue
		}
		fv := domain.ForecastValue{Missing: it.class == tokenMissing}
		if it.class == tokenNumber {
			fv.Value = mustFloat(it.tok)
		}
		row.Values = append(row.Values, fv)
	}

	return row, diags, true
}

// mustFloat parses a token already classified as numeric.
func mustFloat(tok string) float64 {
	v, _ := strconv.ParseFloat(tok, 64)
	return v
}
