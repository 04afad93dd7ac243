package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/quorumslot/internal/calendar"
)

// GetStringArg returns the trimmed string argument name, or "" if it is
// missing or not a string.
func GetStringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// GetIntArg returns the integer argument name. JSON numbers arrive as
// float64; fractional values are rejected. ok is false if the argument is
// absent.
func GetIntArg(args map[string]interface{}, name string) (n int, ok bool, err error) {
	raw, present := args[name]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, true, fmt.Errorf("%s must be a whole number, got %v", name, v)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	default:
		return 0, true, fmt.Errorf("%s must be a number, got %T", name, raw)
	}
}

// GetListArg splits a comma-separated string argument, dropping empty
// entries. A JSON array of strings is accepted as well.
func GetListArg(args map[string]interface{}, name string) []string {
	var parts []string
	switch v := args[name].(type) {
	case string:
		parts = strings.Split(v, ",")
	case []interface{}:
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
	case []string:
		parts = v
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseTime accepts RFC3339 or the calendar file layout, the latter
// interpreted in loc.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(calendar.TimeLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or %q", value, calendar.TimeLayout)
	}
	return t, nil
}

// GetTimeArg parses the time argument name. ok is false if the argument is
// absent or empty.
func GetTimeArg(args map[string]interface{}, name string, loc *time.Location) (t time.Time, ok bool, err error) {
	s := GetStringArg(args, name)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err = ParseTime(s, loc)
	if err != nil {
		return time.Time{}, true, fmt.Errorf("%s: %w", name, err)
	}
	return t, true, nil
}
