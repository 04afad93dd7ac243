package calendar

import (
	"fmt"
	"sort"
	"time"
)

// TimeLayout is the second-resolution timestamp layout used when printing
// intervals and instants.
const TimeLayout = "2006-01-02 15:04:05"

// BusyInterval is the half-open span [Start, End) during which a participant
// is unavailable. The participant is free again from End onward.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// NewBusyInterval returns the interval [start, end). It fails with
// ErrInvalidInterval unless start is strictly before end.
func NewBusyInterval(start, end time.Time) (BusyInterval, error) {
	if !start.Before(end) {
		return BusyInterval{}, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidInterval, start.Format(TimeLayout), end.Format(TimeLayout))
	}
	return BusyInterval{Start: start, End: end}, nil
}

// Overlaps reports whether [t, t+d) intersects the interval. A zero duration
// is treated as the single instant t.
func (b BusyInterval) Overlaps(t time.Time, d time.Duration) bool {
	if d <= 0 {
		return !t.Before(b.Start) && t.Before(b.End)
	}
	return t.Before(b.End) && b.Start.Before(t.Add(d))
}

// Duration returns the length of the interval.
func (b BusyInterval) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

func (b BusyInterval) String() string {
	return b.Start.Format(TimeLayout) + " - " + b.End.Format(TimeLayout)
}

// Sort orders intervals by start, then by end, in place.
func Sort(intervals []BusyInterval) {
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start.Equal(intervals[j].Start) {
			return intervals[i].End.Before(intervals[j].End)
		}
		return intervals[i].Start.Before(intervals[j].Start)
	})
}

// Merge sorts busy blocks and coalesces overlapping ones, reusing the input
// slice. Abutting blocks stay separate.
func Merge(busy []BusyInterval) []BusyInterval {
	if len(busy) < 2 {
		return busy
	}
	Sort(busy)

	out := busy[:1]
	for _, iv := range busy[1:] {
		last := &out[len(out)-1]
		if iv.Start.Before(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
