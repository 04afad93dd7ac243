package availability

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuorum is returned when the minimum participant count is below one.
	ErrInvalidQuorum = errors.New("minimum quorum must be at least 1")

	// ErrInvalidDuration is returned for a negative slot duration.
	ErrInvalidDuration = errors.New("duration must not be negative")

	// ErrInsufficientCalendars is returned by CheckQuorum when fewer calendars
	// are available than the quorum requires.
	ErrInsufficientCalendars = errors.New("not enough calendars for the requested quorum")

	// ErrIterationLimit is returned when a search exceeds its configured
	// iteration budget.
	ErrIterationLimit = errors.New("search iteration limit exceeded")
)

// CheckQuorum validates minQuorum against the number of available calendars.
// Callers that load calendars use it to reject a request before any scan.
func CheckQuorum(calendars, minQuorum int) error {
	if minQuorum < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuorum, minQuorum)
	}
	if calendars < minQuorum {
		return fmt.Errorf("%w: found %d calendars, need at least %d", ErrInsufficientCalendars, calendars, minQuorum)
	}
	return nil
}
