package calfile

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/teemow/quorumslot/internal/calendar"
)

const (
	icsDateLayout     = "20060102"
	icsFloatingLayout = "20060102T150405"
	icsUTCLayout      = "20060102T150405Z"
)

// ParseICS reads an iCalendar stream and returns the busy periods of its
// events, merged so the result satisfies calendar.New. Transparent events
// and events without a positive length are ignored. Only the base occurrence
// of a recurring event is used.
//
// All-day events follow the text convention: each covered day is blocked
// from 00:00:00 to 23:59:59. Floating and all-day values are read in loc.
func ParseICS(r io.Reader, name string, loc *time.Location) ([]calendar.BusyInterval, error) {
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	var out []calendar.BusyInterval
	for i, ev := range cal.Events() {
		if isTransparent(ev) {
			continue
		}
		busy, err := eventBusy(ev, loc)
		if err != nil {
			return nil, fmt.Errorf("%s: event %d (%s): %w", name, i, eventUID(ev), err)
		}
		out = append(out, busy...)
	}

	return calendar.Merge(out), nil
}

func isTransparent(ev *ical.VEvent) bool {
	p := ev.GetProperty(ical.ComponentPropertyTransp)
	return p != nil && strings.EqualFold(strings.TrimSpace(p.Value), "TRANSPARENT")
}

func eventUID(ev *ical.VEvent) string {
	if p := ev.GetProperty(ical.ComponentPropertyUniqueId); p != nil && p.Value != "" {
		return p.Value
	}
	return "no uid"
}

func eventBusy(ev *ical.VEvent, loc *time.Location) ([]calendar.BusyInterval, error) {
	startProp := ev.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return nil, fmt.Errorf("missing DTSTART")
	}

	if isDateValue(startProp) {
		return allDayBusy(ev, startProp, loc)
	}

	start, err := dateTimeValue(startProp, ev.GetStartAt, loc)
	if err != nil {
		return nil, fmt.Errorf("DTSTART: %w", err)
	}

	endProp := ev.GetProperty(ical.ComponentPropertyDtEnd)
	if endProp == nil {
		// An event without DTEND has no length.
		return nil, nil
	}
	end, err := dateTimeValue(endProp, ev.GetEndAt, loc)
	if err != nil {
		return nil, fmt.Errorf("DTEND: %w", err)
	}

	if !start.Before(end) {
		return nil, nil
	}
	return []calendar.BusyInterval{{Start: start.In(loc), End: end.In(loc)}}, nil
}

// dateTimeValue parses a DATE-TIME property. UTC values end in Z and values
// with a TZID are resolved by lib. Floating values carry neither and are read
// as wall clock time in loc.
func dateTimeValue(p *ical.IANAProperty, lib func() (time.Time, error), loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(p.Value)
	if strings.HasSuffix(v, "Z") {
		return time.Parse(icsUTCLayout, v)
	}
	if tzid, ok := p.ICalParameters[string(ical.ParameterTzid)]; ok && len(tzid) > 0 {
		return lib()
	}
	return time.ParseInLocation(icsFloatingLayout, v, loc)
}

// allDayBusy expands a date-valued event into one block per covered day.
// DTEND is exclusive; a missing DTEND means a single day.
func allDayBusy(ev *ical.VEvent, startProp *ical.IANAProperty, loc *time.Location) ([]calendar.BusyInterval, error) {
	first, err := time.ParseInLocation(icsDateLayout, strings.TrimSpace(startProp.Value), loc)
	if err != nil {
		return nil, fmt.Errorf("DTSTART: %w", err)
	}

	last := first
	if endProp := ev.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		end, err := time.ParseInLocation(icsDateLayout, strings.TrimSpace(endProp.Value), loc)
		if err != nil {
			return nil, fmt.Errorf("DTEND: %w", err)
		}
		if end.After(first) {
			last = end.AddDate(0, 0, -1)
		}
	}

	var out []calendar.BusyInterval
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, AllDay(d))
	}
	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}
