// Package domain models decoded National Weather Service (NWS) hydrologic
// hazard bulletins.
//
// # Data Source
//
// Bulletins (flash-flood warnings, hydrologic statements, river-stage
// forecasts) are issued by Weather Forecast Offices and delivered as plain
// 7-bit text. An upstream collector concatenates bulletins into framed feed
// files and publishes them to the Kafka source topic. Each bulletin opens
// with a line holding its own byte length, a blank line, then the body.
//
// # Bulletin Conventions
//
// WMO abbreviated heading (first body line):
//
//	"WGUS53 KSGF 231503"  →  data designator WG, region US, index 53,
//	issuing office KSGF, issued day 23 at 15:03 UTC.
//	The day/hour/minute group carries no month or year; it is resolved
//	against an explicit reference instant (see TimeResolver).
//
// AWIPS identifier (second body line):
//
//	"FFWSGF"  →  product category FFW (flash flood warning) from office SGF.
//
// UGC geography line:
//
//	"MOC077-231500-"  →  Missouri county 077, listing purges day 23 15:00.
//	A token like "MOC077" sets the state+type prefix; bare "088" tokens and
//	"099>101" ranges reuse it. Lines wrap with a trailing hyphen.
//
// VTEC event line:
//
//	"/O.CON.KSGF.FF.W.0071.000000T0000Z-150723T1500Z/"
//	action CON, office KSGF, phenomena FF, significance W, tracking number
//	71. The all-zero time group is a sentinel for "open / not yet
//	determined", never a real instant.
//
// LAT...LON polygon:
//
//	"LAT...LON 3713 9320 3718 9333"  →  (37.13,-93.20) (37.18,-93.33).
//	Groups are hundredths of degrees; longitude sign is forced negative
//	for the western hemisphere.
//
// Forecast tables align stage values to date columns by token position, not
// character column, because column widths differ by office. A lone "M" is
// the placeholder for a missing value and is distinct from zero.
//
// # Decode Policy
//
// Decoding is best-effort: malformed fragments become Diagnostics attached
// to the Product, and a partial Product is always emitted. Only strict mode
// (a caller setting) turns defect diagnostics into a hard failure, and then
// only for the one product concerned.
package domain
