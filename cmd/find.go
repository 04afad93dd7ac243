package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/quorumslot/internal/availability"
	"github.com/teemow/quorumslot/internal/calendar"
	"github.com/teemow/quorumslot/internal/calfile"
	"github.com/teemow/quorumslot/internal/config"
	"github.com/teemow/quorumslot/internal/server"
	"github.com/teemow/quorumslot/internal/tools/common"
)

// Output formats of the find command.
const (
	formatText = "text"
	formatJSON = "json"
)

const noSlotFound = "no slot found"

type findOptions struct {
	durationMinutes int
	minimumPeople   int
	calendarsDir    string
	start           string
	format          string
	timezone        string
	timeout         time.Duration
	parallelism     int
	maxIterations   int

	source          string
	account         string
	googleCalendars []string
	horizonDays     int

	// now defaults to time.Now.
	now func() time.Time
}

func newFindCmd() *cobra.Command {
	opts := &findOptions{}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find the earliest slot at which enough participants are free",
		Long: `Find the earliest instant at or after --start at which at least
--minimum-people participants are free for --duration-in-minutes.

Participants are read from --calendars, a directory with one file per
participant. The file name without extension is the participant ID.
Text files (.txt) hold one busy entry per line:

  2022-05-15                                  busy the whole day
  2022-05-15 08:00:00 - 2022-05-15 09:30:00   busy for the range

iCalendar files (.ics) are read as well. With --source google the busy time
of --google-calendars is fetched through the Google Calendar freebusy API.

The first output line lists the free participants, the second the start of
the slot. If no slot exists "no slot found" is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.durationMinutes, "duration-in-minutes", 0, "Meeting duration in minutes (required)")
	f.IntVar(&opts.minimumPeople, "minimum-people", 0, "Minimum number of participants that must be free (required)")
	f.StringVar(&opts.calendarsDir, "calendars", "", "Directory with one calendar file per participant")
	f.StringVar(&opts.start, "start", "", "Earliest start, '2006-01-02 15:04:05' or RFC3339 (default: now)")
	f.StringVar(&opts.format, "format", formatText, "Output format: text or json")
	f.StringVar(&opts.timezone, "timezone", "", "IANA timezone for timestamps without zone (default: local)")
	f.DurationVar(&opts.timeout, "timeout", config.DefaultSearchTimeout, "Abort the search after this long (0 disables)")
	f.IntVar(&opts.parallelism, "parallelism", 1, "Goroutines used to query calendars per iteration")
	f.IntVar(&opts.maxIterations, "max-iterations", 0, "Abort after this many refinements (0 means unbounded)")
	f.StringVar(&opts.source, "source", config.SourceFiles, "Calendar source: files or google")
	f.StringVar(&opts.account, "account", config.DefaultAccount, "Google account name for the google source")
	f.StringSliceVar(&opts.googleCalendars, "google-calendars", nil, "Google calendar IDs or email addresses for the google source")
	f.IntVar(&opts.horizonDays, "horizon-days", config.DefaultHorizonDays, "Days of busy time fetched from Google")

	_ = cmd.MarkFlagRequired("duration-in-minutes")
	_ = cmd.MarkFlagRequired("minimum-people")

	return cmd
}

func (o *findOptions) validate() error {
	if o.durationMinutes <= 0 {
		return fmt.Errorf("--duration-in-minutes must be a positive integer, got %d", o.durationMinutes)
	}
	if o.minimumPeople < 1 {
		return fmt.Errorf("--minimum-people must be at least 1, got %d", o.minimumPeople)
	}
	switch o.format {
	case formatText, formatJSON:
	default:
		return fmt.Errorf("unknown --format %q (expected %s or %s)", o.format, formatText, formatJSON)
	}
	switch o.source {
	case config.SourceFiles:
		if o.calendarsDir == "" {
			return errors.New("--calendars is required for the files source")
		}
	case config.SourceGoogle:
		if len(o.googleCalendars) == 0 {
			return errors.New("--google-calendars is required for the google source")
		}
	default:
		return fmt.Errorf("unknown --source %q (expected %s or %s)", o.source, config.SourceFiles, config.SourceGoogle)
	}
	return nil
}

func (o *findOptions) location() (*time.Location, error) {
	cfg := config.Config{Timezone: o.timezone}
	return cfg.Location()
}

func (o *findOptions) calendarSource(loc *time.Location) server.Source {
	if o.source == config.SourceFiles {
		return &server.FileSource{
			Dir:     o.calendarsDir,
			Options: calfile.Options{Location: loc, Logger: slog.Default()},
		}
	}
	return &server.GoogleSource{
		NewClient: googleClientFactory(o.account, nil),
		Calendars: o.googleCalendars,
		Horizon:   time.Duration(o.horizonDays) * 24 * time.Hour,
		Location:  loc,
		Now:       o.now,
	}
}

func (o *findOptions) run(ctx context.Context, out io.Writer) error {
	if err := o.validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if o.now == nil {
		o.now = time.Now
	}

	loc, err := o.location()
	if err != nil {
		return err
	}

	searchFrom := o.now().In(loc).Truncate(time.Second)
	if o.start != "" {
		if searchFrom, err = common.ParseTime(o.start, loc); err != nil {
			return fmt.Errorf("--start: %w", err)
		}
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	calendars, err := o.calendarSource(loc).Load(ctx)
	if err != nil {
		return err
	}
	if err := availability.CheckQuorum(len(calendars), o.minimumPeople); err != nil {
		return err
	}

	engine := availability.NewEngine(
		availability.WithLogger(slog.Default()),
		availability.WithParallelism(o.parallelism),
		availability.WithMaxIterations(o.maxIterations),
	)
	d := time.Duration(o.durationMinutes) * time.Minute
	res, err := engine.FindEarliestQuorumSlot(ctx, calendars, d, o.minimumPeople, searchFrom)
	if err != nil {
		return err
	}

	return writeResult(out, o.format, res, d, loc)
}

func writeResult(out io.Writer, format string, res availability.Result, d time.Duration, loc *time.Location) error {
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Report(d))
	}

	if !res.Found {
		_, err := fmt.Fprintln(out, noSlotFound)
		return err
	}
	_, err := fmt.Fprintf(out, "%s\n%s\n",
		strings.Join(res.Participants, ", "),
		res.Instant.In(loc).Format(calendar.TimeLayout))
	return err
}
