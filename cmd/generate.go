package cmd

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/quorumslot/internal/calfile"
	"github.com/teemow/quorumslot/internal/calendar"
	"github.com/teemow/quorumslot/internal/tools/common"
)

type generateOptions struct {
	dir           string
	count         int
	from          string
	to            string
	seed          uint64
	maxEventHours int
	maxBreakHours int
	timezone      string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic participant calendars",
		Long: `Write --count text calendars named participant-NN.txt into --dir.
Each calendar alternates random busy events and breaks between --from and
--to. The same --seed always produces the same files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", "calendars", "Directory to write calendars into")
	f.IntVar(&opts.count, "count", 10, "Number of participants")
	f.StringVar(&opts.from, "from", "", "Start of the generated range (required)")
	f.StringVar(&opts.to, "to", "", "End of the generated range (required)")
	f.Uint64Var(&opts.seed, "seed", 1, "Random seed")
	f.IntVar(&opts.maxEventHours, "max-event-hours", calfile.DefaultMaxEventHours, "Longest busy event in hours")
	f.IntVar(&opts.maxBreakHours, "max-break-hours", calfile.DefaultMaxBreakHours, "Longest break between events in hours")
	f.StringVar(&opts.timezone, "timezone", "", "IANA timezone for --from and --to (default: local)")

	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func (o *generateOptions) run(out io.Writer) error {
	if o.count < 1 {
		return errors.New("--count must be at least 1")
	}

	loc := time.Local
	if o.timezone != "" {
		var err error
		if loc, err = time.LoadLocation(o.timezone); err != nil {
			return fmt.Errorf("invalid --timezone: %w", err)
		}
	}
	from, err := common.ParseTime(o.from, loc)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := common.ParseTime(o.to, loc)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if !from.Before(to) {
		return errors.New("--from must be before --to")
	}

	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
	genOpts := calfile.GenerateOptions{MaxEventHours: o.maxEventHours, MaxBreakHours: o.maxBreakHours}

	for i := 0; i < o.count; i++ {
		intervals := calfile.Generate(rng, from, to, genOpts)
		path := filepath.Join(o.dir, fmt.Sprintf("participant-%02d%s", i+1, calfile.ExtText))
		if err := calfile.WriteFile(path, intervals); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(out, "%s: %d busy intervals, %s to %s\n", path, len(intervals),
			from.Format(calendar.TimeLayout), to.Format(calendar.TimeLayout))
	}
	return nil
}
