// Package calfile reads and writes participant calendar files.
//
// A calendar directory holds one file per participant. The participant ID is
// the file name without its extension. Two formats are understood:
//
// Text files (*.txt), one busy period per line:
//
//	# comments and blank lines are ignored
//	2022-05-16
//	2022-05-17 09:00:00 - 2022-05-17 10:30:00
//
// A bare date blocks that whole day, [D 00:00:00, D 23:59:59). A range line
// holds two timestamps separated by " - ".
//
// iCalendar files (*.ics) contribute every opaque VEVENT. Transparent events
// are skipped and recurrence rules are not expanded.
//
// Lines may appear in any order. The loader sorts them; overlapping periods in
// one file are rejected by calendar.New.
package calfile
