package calfile

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/teemow/quorumslot/internal/calendar"
)

// Defaults for GenerateOptions.
const (
	DefaultMaxEventHours = 10
	DefaultMaxBreakHours = 12
)

// GenerateOptions bounds the random busy periods produced by Generate.
type GenerateOptions struct {
	// MaxEventHours is the upper bound for the whole hours of one event (default 10).
	MaxEventHours int

	// MaxBreakHours is the upper bound for the whole hours between events (default 12).
	MaxBreakHours int
}

func (o GenerateOptions) withDefaults() GenerateOptions {
	if o.MaxEventHours <= 0 {
		o.MaxEventHours = DefaultMaxEventHours
	}
	if o.MaxBreakHours <= 0 {
		o.MaxBreakHours = DefaultMaxBreakHours
	}
	return o
}

// Generate produces a random schedule starting at from. Events and breaks
// each last up to their configured hours plus up to 59 minutes. Generation
// stops once an event would start at or after to. Zero-length events are
// dropped, so the result always satisfies calendar.New.
func Generate(rng *rand.Rand, from, to time.Time, opts GenerateOptions) []calendar.BusyInterval {
	opts = opts.withDefaults()

	var out []calendar.BusyInterval
	for t := from; t.Before(to); {
		length := randomSpan(rng, opts.MaxEventHours)
		if length > 0 {
			out = append(out, calendar.BusyInterval{Start: t, End: t.Add(length)})
		}
		t = t.Add(length).Add(randomSpan(rng, opts.MaxBreakHours))
	}
	return out
}

func randomSpan(rng *rand.Rand, maxHours int) time.Duration {
	return time.Duration(rng.IntN(maxHours+1))*time.Hour + time.Duration(rng.IntN(60))*time.Minute
}

// WriteFile atomically writes intervals to path in the text format.
func WriteFile(path string, intervals []calendar.BusyInterval) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, strings.NewReader(Format(intervals)+"\n"))
}
