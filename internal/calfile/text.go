package calfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/teemow/quorumslot/internal/calendar"
)

const (
	// DateLayout is the layout of a bare all-day line.
	DateLayout = "2006-01-02"

	// rangeSep separates the two timestamps of a range line.
	rangeSep = " - "
)

// ParseText reads the text format from r. name is only used in errors.
// Timestamps are interpreted in loc. The result is in file order.
func ParseText(r io.Reader, name string, loc *time.Location) ([]calendar.BusyInterval, error) {
	if loc == nil {
		loc = time.Local
	}

	var out []calendar.BusyInterval
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		iv, err := parseLine(line, loc)
		if err != nil {
			return nil, &LineError{File: name, Line: lineNo, Text: line, Err: err}
		}
		out = append(out, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return out, nil
}

func parseLine(line string, loc *time.Location) (calendar.BusyInterval, error) {
	if len(line) == len(DateLayout) {
		day, err := time.ParseInLocation(DateLayout, line, loc)
		if err != nil {
			return calendar.BusyInterval{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
		}
		return AllDay(day), nil
	}

	first, second, ok := strings.Cut(line, rangeSep)
	if !ok {
		return calendar.BusyInterval{}, fmt.Errorf("%w: expected %q or a date", ErrMalformedLine, "start"+rangeSep+"end")
	}

	start, err := time.ParseInLocation(calendar.TimeLayout, strings.TrimSpace(first), loc)
	if err != nil {
		return calendar.BusyInterval{}, fmt.Errorf("%w: start: %v", ErrMalformedLine, err)
	}
	end, err := time.ParseInLocation(calendar.TimeLayout, strings.TrimSpace(second), loc)
	if err != nil {
		return calendar.BusyInterval{}, fmt.Errorf("%w: end: %v", ErrMalformedLine, err)
	}

	return calendar.NewBusyInterval(start, end)
}

// AllDay returns the busy block covering the calendar day of d, from
// 00:00:00 to 23:59:59 wall clock time in d's location.
func AllDay(d time.Time) calendar.BusyInterval {
	y, m, day := d.Date()
	loc := d.Location()
	return calendar.BusyInterval{
		Start: time.Date(y, m, day, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, day, 23, 59, 59, 0, loc),
	}
}

// Format renders intervals in the text format, one range per line.
func Format(intervals []calendar.BusyInterval) string {
	var b strings.Builder
	for i, iv := range intervals {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(iv.Start.Format(calendar.TimeLayout))
		b.WriteString(rangeSep)
		b.WriteString(iv.End.Format(calendar.TimeLayout))
	}
	return b.String()
}
