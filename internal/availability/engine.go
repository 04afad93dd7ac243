package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/quorumslot/internal/calendar"
	"github.com/teemow/quorumslot/internal/instrumentation"
	"github.com/teemow/quorumslot/internal/logging"
)

// parallelThreshold is the calendar count below which the soonest-free fan-out
// runs inline even when parallelism is enabled.
const parallelThreshold = 64

// Result is the outcome of a quorum search. Found is false when no instant
// satisfies the quorum; that is a valid outcome, not an error.
type Result struct {
	Found bool

	// Instant is the earliest start of the shared free slot.
	Instant time.Time

	// Participants holds the IDs of every calendar free for the whole slot at
	// Instant, in input order.
	Participants []string

	// Iterations is the number of candidate refinements performed.
	Iterations int
}

// End returns the end of the found slot for duration d.
func (r Result) End(d time.Duration) time.Time {
	return r.Instant.Add(d)
}

// Report is the JSON form of a Result.
type Report struct {
	Found        bool     `json:"found"`
	Participants []string `json:"participants"`
	Start        string   `json:"start,omitempty"`
	End          string   `json:"end,omitempty"`
}

// Report renders r for a slot of duration d. Times are RFC3339.
func (r Result) Report(d time.Duration) Report {
	rep := Report{Found: r.Found, Participants: []string{}}
	if !r.Found {
		return rep
	}
	rep.Participants = append(rep.Participants, r.Participants...)
	rep.Start = r.Instant.Format(time.RFC3339)
	rep.End = r.End(d).Format(time.RFC3339)
	return rep
}

// Engine runs quorum searches. It holds configuration only and is safe for
// concurrent use; the calendars passed to a search are not.
type Engine struct {
	logger        *slog.Logger
	metrics       *instrumentation.Metrics
	parallelism   int
	maxIterations int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records search metrics on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithParallelism lets the per-iteration soonest-free queries run on up to n
// goroutines. n <= 1 keeps the search sequential.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// WithMaxIterations bounds the number of refinements; 0 means unbounded.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.maxIterations = n
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:      slog.Default(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindEarliestQuorumSlot returns the earliest instant at or after searchFrom
// at which at least minQuorum of calendars are free for d.
//
// minQuorum below one fails with ErrInvalidQuorum. Fewer calendars than
// minQuorum yields a not-found Result without scanning. The search honours ctx
// cancellation between iterations.
func (e *Engine) FindEarliestQuorumSlot(
	ctx context.Context,
	calendars []*calendar.Calendar,
	d time.Duration,
	minQuorum int,
	searchFrom time.Time,
) (res Result, err error) {
	if minQuorum < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidQuorum, minQuorum)
	}
	if d < 0 {
		return Result{}, fmt.Errorf("%w: got %s", ErrInvalidDuration, d)
	}

	ctx, span := instrumentation.StartSearchSpan(ctx,
		attribute.Int(instrumentation.SpanAttrCalendars, len(calendars)),
		attribute.Int(instrumentation.SpanAttrMinQuorum, minQuorum),
		attribute.Float64(instrumentation.SpanAttrDuration, d.Seconds()),
	)
	start := time.Now()
	logger := logging.WithOperation(e.logger, "availability.find_earliest_quorum_slot")

	defer func() {
		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		case !res.Found:
			status = instrumentation.StatusNotFound
			instrumentation.SetSpanSuccess(span)
		default:
			instrumentation.SetSpanSuccess(span)
		}
		span.SetAttributes(
			attribute.Int(instrumentation.SpanAttrIterations, res.Iterations),
			attribute.Bool(instrumentation.SpanAttrFound, res.Found),
		)
		span.End()

		if e.metrics != nil {
			e.metrics.RecordSearch(ctx, status, res.Iterations, time.Since(start))
		}
		logger.Debug("quorum search finished",
			logging.Status(status),
			slog.Int("iterations", res.Iterations),
			slog.Duration(logging.KeyDuration, time.Since(start)),
			logging.Err(err),
		)
	}()

	if len(calendars) < minQuorum {
		logger.Debug("quorum unreachable",
			slog.Int("calendars", len(calendars)),
			slog.Int("min_quorum", minQuorum),
		)
		return Result{}, nil
	}

	s := &session{
		engine:    e,
		calendars: calendars,
		d:         d,
		soonest:   make([]time.Time, len(calendars)),
	}

	floor := searchFrom
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if e.maxIterations > 0 && res.Iterations >= e.maxIterations {
			return res, fmt.Errorf("%w: %d", ErrIterationLimit, e.maxIterations)
		}
		res.Iterations++

		if err := s.querySoonest(ctx, floor); err != nil {
			return res, err
		}
		candidate := s.minimum()

		who := s.freeAt(candidate)
		logger.Debug("candidate evaluated",
			slog.Time("candidate", candidate),
			slog.Int("free", len(who)),
		)
		if len(who) >= minQuorum {
			res.Found = true
			res.Instant = candidate
			res.Participants = who
			return res, nil
		}

		next, ok := s.nextAfter(candidate)
		if !ok {
			// Nobody can move forward, so no later instant adds participants.
			return res, nil
		}
		floor = next
	}
}

// session is the ephemeral state of one search call.
type session struct {
	engine    *Engine
	calendars []*calendar.Calendar
	d         time.Duration
	soonest   []time.Time
}

// querySoonest fills s.soonest for floor. Each goroutine owns one slice slot
// and one calendar, so the only synchronisation needed is the final Wait.
func (s *session) querySoonest(ctx context.Context, floor time.Time) error {
	if s.engine.parallelism <= 1 || len(s.calendars) < parallelThreshold {
		for i, cal := range s.calendars {
			s.soonest[i] = cal.SoonestFreeAtOrAfter(s.d, floor)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.engine.parallelism)
	for i, cal := range s.calendars {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.soonest[i] = cal.SoonestFreeAtOrAfter(s.d, floor)
			return nil
		})
	}
	return g.Wait()
}

func (s *session) minimum() time.Time {
	m := s.soonest[0]
	for _, t := range s.soonest[1:] {
		if t.Before(m) {
			m = t
		}
	}
	return m
}

// freeAt returns the IDs of calendars free for the whole slot at t.
func (s *session) freeAt(t time.Time) []string {
	var who []string
	for _, cal := range s.calendars {
		if cal.IsFreeAt(t, s.d) {
			who = append(who, cal.ID)
		}
	}
	return who
}

// nextAfter returns the smallest soonest-free instant strictly after t.
func (s *session) nextAfter(t time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, st := range s.soonest {
		if !st.After(t) {
			continue
		}
		if !found || st.Before(next) {
			next = st
			found = true
		}
	}
	return next, found
}
