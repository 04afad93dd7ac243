package calfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/teemow/quorumslot/internal/calendar"
	"github.com/teemow/quorumslot/internal/instrumentation"
	"github.com/teemow/quorumslot/internal/logging"
)

// File extensions the loader reads.
const (
	ExtText = ".txt"
	ExtICS  = ".ics"
)

// Options configures loading.
type Options struct {
	// Location interprets timestamps without zone information. Defaults to time.Local.
	Location *time.Location

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when set, records each LoadDir call.
	Metrics *instrumentation.Metrics
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ParticipantID derives the participant identifier from a calendar file path.
func ParticipantID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadFile parses one calendar file and returns its busy periods sorted by
// start. The format is chosen by extension.
func ReadFile(path string, opts Options) ([]calendar.BusyInterval, error) {
	opts = opts.withDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var intervals []calendar.BusyInterval
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtText:
		intervals, err = ParseText(f, path, opts.Location)
	case ExtICS:
		intervals, err = ParseICS(f, path, opts.Location)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	calendar.Sort(intervals)
	return intervals, nil
}

// LoadFile reads path into a fresh Calendar named after the file.
func LoadFile(path string, opts Options) (*calendar.Calendar, error) {
	intervals, err := ReadFile(path, opts)
	if err != nil {
		return nil, err
	}
	return calendar.New(ParticipantID(path), intervals)
}

// Files lists the calendar files in dir, sorted by participant ID.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read calendar directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ExtText, ExtICS:
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return ParticipantID(files[i]) < ParticipantID(files[j])
	})
	return files, nil
}

// LoadDir loads every calendar file in dir. Any malformed file fails the
// whole load. Two files mapping to the same participant ID are an error.
func LoadDir(ctx context.Context, dir string, opts Options) (cals []*calendar.Calendar, err error) {
	opts = opts.withDefaults()
	logger := logging.WithOperation(opts.Logger, "calfile.load_dir")
	start := time.Now()

	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		opts.Metrics.RecordCalendarLoad(ctx, instrumentation.SourceFiles, status, len(cals))
		logger.Debug("calendar directory loaded",
			slog.String("dir", dir),
			logging.Calendars(len(cals)),
			logging.Status(status),
			slog.Duration(logging.KeyDuration, time.Since(start)),
			logging.Err(err),
		)
	}()

	files, err := Files(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoCalendars)
	}

	seen := make(map[string]string, len(files))
	out := make([]*calendar.Calendar, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := ParticipantID(path)
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("participant %q defined by both %s and %s", id, filepath.Base(prev), filepath.Base(path))
		}
		seen[id] = path

		cal, err := LoadFile(path, opts)
		if err != nil {
			return nil, err
		}
		logger.Debug("calendar loaded", logging.Participant(id), slog.Int("intervals", cal.Len()))
		out = append(out, cal)
	}
	return out, nil
}
