package domain

import "time"

// TimeResolver resolves bare day/hour/minute groups to absolute UTC
// instants. Bulletins state only "231503"; the month and year come from the
// feed's ingestion context, which callers pass in as Ref. Resolution never
// reads the ambient clock, keeping decoding deterministic and testable.
//
// Two directions cover the two fields that need resolving:
//
//   - ResolvePast: nearest occurrence of day/hh/mm not after Ref. Used for
//     the WMO issuance group, which precedes ingestion.
//   - ResolveFuture: nearest occurrence not before Ref. Used for the UGC
//     purge group, which is an expiration and lies ahead of issuance.
//
// The direction per field is a documented policy, not inferred from data.
type TimeResolver struct {
	Ref time.Time
}

// NewTimeResolver builds a resolver around a reference instant, normalized
// to UTC.
func NewTimeResolver(ref time.Time) TimeResolver {
	return TimeResolver{Ref: ref.UTC()}
}

// ResolvePast returns the latest instant with the given day-of-month and
// time-of-day that does not fall after the reference. The second return is
// false when no month within a year of the reference holds that day (e.g.
// day 31 near February, or day 0).
func (r TimeResolver) ResolvePast(day, hour, minute int) (time.Time, bool) {
	if !fieldsValid(day, hour, minute) {
		return time.Time{}, false
	}
	// Walk backward from the reference month until the candidate fits.
	for i := 0; i < 12; i++ {
		t, ok := monthCandidate(r.Ref, -i, day, hour, minute)
		if !ok {
			continue
		}
		if !t.After(r.Ref) {
			return t, true
		}
	}
	return time.Time{}, false
}

// ResolveFuture returns the earliest instant with the given day-of-month
// and time-of-day that does not fall before the reference.
func (r TimeResolver) ResolveFuture(day, hour, minute int) (time.Time, bool) {
	if !fieldsValid(day, hour, minute) {
		return time.Time{}, false
	}
	for i := 0; i < 12; i++ {
		t, ok := monthCandidate(r.Ref, i, day, hour, minute)
		if !ok {
			continue
		}
		if !t.Before(r.Ref) {
			return t, true
		}
	}
	return time.Time{}, false
}

func fieldsValid(day, hour, minute int) bool {
	return day >= 1 && day <= 31 && hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

// monthCandidate places day/hh/mm in the month offset months from ref's.
// Returns false when the month has no such day; time.Date would silently
// normalize it into the next month instead.
func monthCandidate(ref time.Time, offset, day, hour, minute int) (time.Time, bool) {
	anchor := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, offset, 0)
	t := time.Date(anchor.Year(), anchor.Month(), day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
