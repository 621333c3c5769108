package decode

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/floodline/hazard-etl/internal/domain"
)

// latLonBlockRe matches a LAT...LON block: the marker, then
// whitespace-separated coordinate groups, continuing on indented lines made
// up solely of groups. Longitudes west of 100° take five digits.
var latLonBlockRe = regexp.MustCompile(
	`LAT\.\.\.LON((?:[ \t]+\d{4,5})+(?:\n[ \t]+\d{4,5}(?:[ \t]+\d{4,5})*)*)`)

// stormMotionRe matches a TIME...MOT...LOC line: observation time,
// direction of motion, speed, and trailing centroid coordinate groups.
var stormMotionRe = regexp.MustCompile(
	`TIME\.\.\.MOT\.\.\.LOC[ \t]+(\d{1,2})(\d{2})Z[ \t]+(\d{3})DEG[ \t]+(\d{1,3})KT((?:[ \t]+\d{4,5})+(?:\n[ \t]+\d{4,5}(?:[ \t]+\d{4,5})*)*)`)

var coordGroupRe = regexp.MustCompile(`\d{4,5}`)

// PolygonResult is the decoded coordinate content of one segment.
type PolygonResult struct {
	Polygons []domain.Polygon
	Motion   *domain.StormMotion

	Raws        []string
	Diagnostics []domain.Diagnostic
}

// DecodePolygons parses every LAT...LON block in a segment, plus the storm
// motion line when present. Each consecutive pair of 4-5 digit groups is
// one point: latitude then longitude, in hundredths of degrees, longitude
// sign forced negative for the western hemisphere.
func DecodePolygons(segment string, segIdx int, rz domain.TimeResolver) PolygonResult {
	var res PolygonResult

	for _, m := range latLonBlockRe.FindAllStringSubmatch(segment, -1) {
		points, diags := parseCoordPairs(m[1], segIdx)
		res.Diagnostics = append(res.Diagnostics, diags...)
		if len(points) == 0 {
			continue
		}
		if len(points) < 3 {
			res.Diagnostics = append(res.Diagnostics, domain.Warning(domain.DiagPolygon, segIdx,
				fmt.Sprintf("polygon has only %d points", len(points)), m[0]))
		}
		res.Polygons = append(res.Polygons, domain.Polygon{Points: points})
		res.Raws = append(res.Raws, m[0])
	}

	if m := stormMotionRe.FindStringSubmatch(segment); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		dir, _ := strconv.Atoi(m[3])
		speed, _ := strconv.Atoi(m[4])

		points, diags := parseCoordPairs(m[5], segIdx)
		res.Diagnostics = append(res.Diagnostics, diags...)

		// The observation time is an hhmmZ group on the reference day.
		at := time.Date(rz.Ref.Year(), rz.Ref.Month(), rz.Ref.Day(), hour, minute, 0, 0, time.UTC)
		res.Motion = &domain.StormMotion{
			At:           at,
			DirectionDeg: dir,
			SpeedKt:      speed,
			Location:     points,
		}
		res.Raws = append(res.Raws, m[0])
	}

	return res
}

// parseCoordPairs decodes a run of 4-5 digit groups into points. An odd
// group count drops the lone trailing group with a defect; out-of-range
// values drop the offending point.
func parseCoordPairs(text string, segIdx int) ([]domain.PolygonPoint, []domain.Diagnostic) {
	groups := coordGroupRe.FindAllString(text, -1)

	var diags []domain.Diagnostic
	if len(groups)%2 != 0 {
		diags = append(diags, domain.Defect(domain.DiagPolygon, segIdx,
			"odd coordinate group count, dropping trailing group", groups[len(groups)-1]))
		groups = groups[:len(groups)-1]
	}

	points := make([]domain.PolygonPoint, 0, len(groups)/2)
	for i := 0; i+1 < len(groups); i += 2 {
		latRaw, _ := strconv.Atoi(groups[i])
		lonRaw, _ := strconv.Atoi(groups[i+1])
		p := domain.PolygonPoint{
			Lat: float64(latRaw) / 100,
			Lon: -float64(lonRaw) / 100,
		}
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			diags = append(diags, domain.Defect(domain.DiagPolygon, segIdx,
				"coordinate out of range, dropping point",
				fmt.Sprintf("%s %s", groups[i], groups[i+1])))
			continue
		}
		points = append(points, p)
	}
	return points, diags
}
