package calendar

import (
	"fmt"
	"sort"
	"time"
)

// Calendar is one participant's busy schedule plus the cursor state used to
// answer soonest-free queries. Interval content never changes after New; only
// the cursor and the cached answer move, and only forward.
//
// A Calendar is not safe for concurrent use. Distinct Calendars share no state.
type Calendar struct {
	// ID identifies the participant, e.g. the calendar file name.
	ID string

	intervals []BusyInterval

	// cursor is the index of the first interval ending after floor. Every
	// interval before it ends at or before floor and can never matter again.
	cursor int

	// free is the last computed soonest free instant for duration freeFor. It
	// stays valid for any floor up to and including itself.
	free    time.Time
	freeFor time.Duration
	cached  bool
}

// New builds a Calendar for id. intervals must be sorted by start with
// intervals[i].End <= intervals[i+1].Start; abutting intervals are allowed.
// Every interval must satisfy Start < End. The slice is copied.
func New(id string, intervals []BusyInterval) (*Calendar, error) {
	for i, iv := range intervals {
		if !iv.Start.Before(iv.End) {
			return nil, fmt.Errorf("calendar %q: interval %d (%s): %w", id, i, iv, ErrInvalidInterval)
		}
		if i > 0 && intervals[i-1].End.After(iv.Start) {
			return nil, fmt.Errorf("calendar %q: interval %d (%s) starts before interval %d (%s) ends: %w",
				id, i, iv, i-1, intervals[i-1], ErrUnsortedOrOverlapping)
		}
	}

	owned := make([]BusyInterval, len(intervals))
	copy(owned, intervals)

	return &Calendar{
		ID:        id,
		intervals: owned,
	}, nil
}

// Len returns the number of busy intervals.
func (c *Calendar) Len() int {
	return len(c.intervals)
}

// Intervals returns a copy of the busy intervals.
func (c *Calendar) Intervals() []BusyInterval {
	out := make([]BusyInterval, len(c.intervals))
	copy(out, c.intervals)
	return out
}

// SoonestFreeAtOrAfter returns the first instant t >= floor such that no busy
// interval intersects [t, t+d). When no gap of length d exists between the
// remaining intervals the result is the end of the last interval.
//
// Within one session floor must not decrease from call to call. This is not
// checked. A cached answer is only reused for the duration it was computed
// with.
func (c *Calendar) SoonestFreeAtOrAfter(d time.Duration, floor time.Time) time.Time {
	c.advance(floor)

	if c.cached && d == c.freeFor && !floor.After(c.free) {
		return c.free
	}

	t := floor
	for j := c.cursor; j < len(c.intervals); j++ {
		iv := c.intervals[j]
		if gapFits(t, d, iv.Start) {
			break
		}
		t = iv.End
	}

	c.free = t
	c.freeFor = d
	c.cached = true
	return t
}

// IsFreeAt reports whether [instant, instant+d) is disjoint from every busy
// interval. It relies on the cursor, so instant must be at or after the floor
// most recently passed to SoonestFreeAtOrAfter.
func (c *Calendar) IsFreeAt(instant time.Time, d time.Duration) bool {
	rest := c.intervals[c.cursor:]
	if len(rest) == 0 {
		return true
	}

	// The first remaining interval usually decides it; only look further when
	// instant has moved past it.
	i := 0
	if !rest[0].End.After(instant) {
		i = sort.Search(len(rest), func(k int) bool {
			return rest[k].End.After(instant)
		})
		if i == len(rest) {
			return true
		}
	}
	return !rest[i].Overlaps(instant, d)
}

// advance moves the cursor past every interval that ends at or before floor.
func (c *Calendar) advance(floor time.Time) {
	for c.cursor < len(c.intervals) && !c.intervals[c.cursor].End.After(floor) {
		c.cursor++
	}
}

// gapFits reports whether [t, t+d) ends at or before next. A zero duration
// needs t itself to fall before next.
func gapFits(t time.Time, d time.Duration, next time.Time) bool {
	if d <= 0 {
		return t.Before(next)
	}
	return !t.Add(d).After(next)
}
