package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teemow/quorumslot/internal/calendar"
	"github.com/teemow/quorumslot/internal/calfile"
	"github.com/teemow/quorumslot/internal/instrumentation"
)

// Source produces the current participant calendars.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	Load(ctx context.Context) ([]*calendar.Calendar, error)
}

// FileSource reads a calendar directory.
type FileSource struct {
	Dir     string
	Options calfile.Options
}

// Name implements Source.
func (s *FileSource) Name() string {
	return instrumentation.SourceFiles
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) ([]*calendar.Calendar, error) {
	return calfile.LoadDir(ctx, s.Dir, s.Options)
}

// FreeBusyQuerier is the part of calendar.Client a GoogleSource needs.
type FreeBusyQuerier interface {
	Calendars(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]*calendar.Calendar, error)
}

// GoogleSource queries busy time for a fixed set of Google calendars over a
// rolling window starting now. Time past the window is reported as free.
type GoogleSource struct {
	// Client is used as is. If nil, NewClient creates it on the first
	// successful Load, so a token stored after startup is picked up.
	Client    FreeBusyQuerier
	NewClient func(ctx context.Context) (FreeBusyQuerier, error)

	Calendars []string
	Horizon   time.Duration
	Location  *time.Location
	Metrics   *instrumentation.Metrics

	// Now defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

// Name implements Source.
func (s *GoogleSource) Name() string {
	return instrumentation.SourceGoogle
}

// Load implements Source.
func (s *GoogleSource) Load(ctx context.Context) (cals []*calendar.Calendar, err error) {
	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		s.Metrics.RecordCalendarLoad(ctx, instrumentation.SourceGoogle, status, len(cals))
	}()

	if len(s.Calendars) == 0 {
		return nil, fmt.Errorf("no Google calendars configured")
	}
	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	from := now()
	if s.Location != nil {
		from = from.In(s.Location)
	}
	return client.Calendars(ctx, from, from.Add(s.Horizon), s.Calendars)
}

func (s *GoogleSource) client(ctx context.Context) (FreeBusyQuerier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Client != nil {
		return s.Client, nil
	}
	if s.NewClient == nil {
		return nil, fmt.Errorf("no Google Calendar client configured")
	}
	client, err := s.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	s.Client = client
	return client, nil
}
