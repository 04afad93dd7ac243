// Package availability finds the earliest instant at which a quorum of
// participants is simultaneously free for a required duration.
//
// The Engine drives a set of calendar.Calendar values through one search
// session. Each iteration asks every calendar for its soonest free instant at
// the current floor, takes the minimum as the candidate, and counts who is free
// there. If the quorum is not met the floor rises to the next larger soonest
// free instant. Because every instant between the candidate and that next
// floor has at most as many free participants as the candidate, the first
// candidate reaching the quorum is the earliest possible one.
//
// Basic usage:
//
//	engine := availability.NewEngine(availability.WithLogger(logger))
//	res, err := engine.FindEarliestQuorumSlot(ctx, calendars, time.Hour, 2, start)
//	if err != nil {
//	    return err
//	}
//	if !res.Found {
//	    fmt.Println("no slot found")
//	}
//
// A search mutates the cursors of the calendars passed in, so every search
// needs freshly built calendars.
package availability
