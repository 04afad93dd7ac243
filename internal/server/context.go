package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/teemow/quorumslot/internal/calendar"
	"github.com/teemow/quorumslot/internal/logging"
)

// ErrUnknownParticipant is returned when a requested participant is not loaded.
var ErrUnknownParticipant = errors.New("unknown participant")

// ErrShutdown is returned by operations on a ServerContext after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// Participant summarizes one loaded calendar.
type Participant struct {
	ID        string `json:"id"`
	Intervals int    `json:"busy_intervals"`
}

// ServerContext holds the participant calendars for the MCP server.
//
// The loaded calendars are templates. They are never searched directly;
// Calendars returns new copies whose cursors start at the beginning.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	source Source
	logger *slog.Logger

	mu       sync.RWMutex
	loaded   map[string]*calendar.Calendar
	order    []string
	loadedAt time.Time
	lastErr  error
	shutdown bool

	scheduler *cron.Cron
}

// Option configures a ServerContext.
type Option func(*options)

type options struct {
	allowEmptyStart bool
}

// WithAllowEmptyStart keeps the server context usable when the initial load
// fails. It starts without participants and the error is reported by
// LoadStatus until a reload succeeds.
func WithAllowEmptyStart() Option {
	return func(o *options) {
		o.allowEmptyStart = true
	}
}

// NewServerContext creates a server context and performs the initial load.
// A failed initial load is an error unless WithAllowEmptyStart is given;
// later reload failures keep the previous calendars.
func NewServerContext(ctx context.Context, source Source, logger *slog.Logger, opts ...Option) (*ServerContext, error) {
	if source == nil {
		return nil, fmt.Errorf("calendar source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		source: source,
		logger: logging.WithSource(logger, source.Name()),
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := sc.Reload(shutdownCtx); err != nil {
		if !o.allowEmptyStart {
			cancel()
			return nil, fmt.Errorf("initial calendar load: %w", err)
		}
		sc.logger.Warn("starting without participants", logging.Err(err))
	}
	return sc, nil
}

// Context returns the server context. It is cancelled by Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Reload fetches calendars from the source and swaps them in atomically.
func (sc *ServerContext) Reload(ctx context.Context) error {
	if sc.IsShutdown() {
		return ErrShutdown
	}

	start := time.Now()
	cals, err := sc.source.Load(ctx)
	if err == nil {
		err = checkUniqueIDs(cals)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err != nil {
		sc.lastErr = err
		sc.logger.Error("calendar reload failed",
			logging.Operation("server.reload"),
			logging.Err(err),
		)
		return err
	}

	loaded := make(map[string]*calendar.Calendar, len(cals))
	order := make([]string, 0, len(cals))
	for _, c := range cals {
		loaded[c.ID] = c
		order = append(order, c.ID)
	}
	sort.Strings(order)

	sc.loaded = loaded
	sc.order = order
	sc.loadedAt = time.Now()
	sc.lastErr = nil

	sc.logger.Info("calendars reloaded",
		logging.Operation("server.reload"),
		logging.Calendars(len(cals)),
		slog.Duration(logging.KeyDuration, time.Since(start)),
	)
	return nil
}

func checkUniqueIDs(cals []*calendar.Calendar) error {
	seen := make(map[string]bool, len(cals))
	for _, c := range cals {
		if seen[c.ID] {
			return fmt.Errorf("duplicate participant %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// StartReload schedules Reload using a standard five-field cron spec.
func (sc *ServerContext) StartReload(spec string) error {
	cronLogger := logging.NewCronAdapter(sc.logger)
	scheduler := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := scheduler.AddFunc(spec, func() {
		_ = sc.Reload(sc.ctx)
	}); err != nil {
		return fmt.Errorf("invalid reload schedule %q: %w", spec, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return ErrShutdown
	}
	if sc.scheduler != nil {
		sc.scheduler.Stop()
	}
	sc.scheduler = scheduler
	scheduler.Start()

	sc.logger.Info("scheduled calendar reload", slog.String("schedule", spec))
	return nil
}

// Calendars returns fresh calendars for the given participant IDs, in the
// order requested. With no IDs every loaded participant is returned, sorted
// by ID.
func (sc *ServerContext) Calendars(ids ...string) ([]*calendar.Calendar, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if len(ids) == 0 {
		ids = sc.order
	}

	out := make([]*calendar.Calendar, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		tmpl, ok := sc.loaded[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParticipant, id)
		}
		fresh, err := calendar.New(tmpl.ID, tmpl.Intervals())
		if err != nil {
			return nil, err
		}
		out = append(out, fresh)
	}
	return out, nil
}

// Participants lists the loaded participants sorted by ID.
func (sc *ServerContext) Participants() []Participant {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	out := make([]Participant, 0, len(sc.order))
	for _, id := range sc.order {
		out = append(out, Participant{ID: id, Intervals: sc.loaded[id].Len()})
	}
	return out
}

// Busy returns the busy intervals of id that intersect [from, to).
func (sc *ServerContext) Busy(id string, from, to time.Time) ([]calendar.BusyInterval, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	tmpl, ok := sc.loaded[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParticipant, id)
	}

	var out []calendar.BusyInterval
	for _, iv := range tmpl.Intervals() {
		if iv.End.After(from) && iv.Start.Before(to) {
			out = append(out, iv)
		}
	}
	return out, nil
}

// LoadStatus reports when calendars were last loaded and the error of the
// most recent failed reload, if any.
func (sc *ServerContext) LoadStatus() (loadedAt time.Time, lastErr error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.loadedAt, sc.lastErr
}

// SourceName returns the name of the calendar source.
func (sc *ServerContext) SourceName() string {
	return sc.source.Name()
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown stops scheduled reloads and cancels the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	scheduler := sc.scheduler
	sc.scheduler = nil
	sc.mu.Unlock()

	sc.cancel()
	if scheduler != nil {
		// Wait for a running reload to notice the cancellation.
		<-scheduler.Stop().Done()
	}
	return nil
}
