package clock

import (
	"time"
)

// probeWindow brackets every instant a wall clock can map to. Real offsets
// stay within -12h..+14h, so a transition affecting the wall clock happens
// inside this window.
const probeWindow = 26 * time.Hour

// ResolveInstant turns a wall clock on one card into the instant it names in
// loc, using the offset in force for that date and time.
//
// Around DST transitions:
//   - an ambiguous time (fall back) resolves to the earlier occurrence;
//   - a non-existent time (spring forward) is read with the offset in force
//     before the transition, which lands after the gap shifted forward by the
//     gap's length (02:30 on a 02:00 -> 03:00 day becomes 03:30).
func ResolveInstant(loc *time.Location, wc WallClock) (time.Time, error) {
	if err := wc.Validate(); err != nil {
		return time.Time{}, err
	}
	naive := wc.naive()

	before := offsetAt(naive.Add(-probeWindow), loc)
	after := offsetAt(naive.Add(probeWindow), loc)

	var matches []time.Time
	for _, off := range uniqueOffsets(before, offsetAt(naive, loc), after) {
		u := naive.Add(-time.Duration(off) * time.Second)
		if offsetAt(u, loc) == off {
			matches = append(matches, u)
		}
	}

	switch len(matches) {
	case 0:
		return naive.Add(-time.Duration(before) * time.Second), nil
	case 1:
		return matches[0], nil
	default:
		earliest := matches[0]
		for _, m := range matches[1:] {
			if m.Before(earliest) {
				earliest = m
			}
		}
		return earliest, nil
	}
}

func offsetAt(t time.Time, loc *time.Location) int {
	_, off := t.In(loc).Zone()
	return off
}

func uniqueOffsets(offs ...int) []int {
	out := make([]int, 0, len(offs))
	for _, o := range offs {
		dup := false
		for _, seen := range out {
			if seen == o {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, o)
		}
	}
	return out
}
