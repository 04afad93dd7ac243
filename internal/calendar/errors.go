package calendar

import "errors"

var (
	// ErrInvalidInterval is returned when a busy interval does not end after it starts.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrUnsortedOrOverlapping is returned when a calendar's intervals are not
	// sorted by start or two of them overlap.
	ErrUnsortedOrOverlapping = errors.New("intervals unsorted or overlapping")
)
