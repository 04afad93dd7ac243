// Package calendar models a participant's busy time and answers "when is this
// participant next free" queries over it.
//
// A Calendar owns an ordered, non-overlapping list of half-open busy
// intervals and a forward-only scan cursor. Queries are expected to arrive with
// a non-decreasing floor within one search session, which lets the cursor skip
// intervals permanently and keeps the total work of a session linear in the
// number of intervals. A new session builds new Calendars.
//
// The package also contains a Google Calendar freebusy client that turns the
// busy blocks reported by the API into Calendars.
//
// Example usage:
//
//	a, _ := calendar.NewBusyInterval(nine, ten)
//	cal, err := calendar.New("alice", []calendar.BusyInterval{a})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	free := cal.SoonestFreeAtOrAfter(time.Hour, nine) // ten
package calendar
