package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/quorumslot/internal/google"
	"github.com/teemow/quorumslot/internal/instrumentation"
)

const opFreeBusyQuery = "freebusy.query"

// Client wraps the Google Calendar service for freebusy lookups.
type Client struct {
	svc     *gcal.Service
	account string // The account this client is associated with
	metrics *instrumentation.Metrics
}

// SetMetrics records API call metrics on m.
func (c *Client) SetMetrics(m *instrumentation.Metrics) {
	c.metrics = m
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account
func HasTokenForAccount(account string) bool {
	return google.NewFileTokenProvider().HasToken(account)
}

// NewClientForAccountWithProvider creates a Calendar client for account using
// a token from provider.
func NewClientForAccountWithProvider(ctx context.Context, account string, provider google.TokenProvider) (*Client, error) {
	httpClient, err := google.HTTPClientForAccount(ctx, provider, account)
	if err != nil {
		return nil, err
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, account: account}, nil
}

// NewClientForAccount creates a Calendar client using the on-disk token of account.
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	return NewClientForAccountWithProvider(ctx, account, google.NewFileTokenProvider())
}

// FreeBusyInfo is the busy time the API reported for one calendar.
type FreeBusyInfo struct {
	Calendar string
	Busy     []BusyInterval
	Errors   []string
}

// QueryFreeBusy fetches busy blocks for calendarIDs between timeMin and timeMax.
// Results are ordered by calendar ID.
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]FreeBusyInfo, error) {
	items := make([]*gcal.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &gcal.FreeBusyRequestItem{Id: id}
	}

	query := &gcal.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, c.account, opFreeBusyQuery,
		attribute.Int(instrumentation.SpanAttrCalendars, len(calendarIDs)))
	defer span.End()
	start := time.Now()

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordGoogleAPIOperation(ctx, c.account, opFreeBusyQuery, instrumentation.StatusError, time.Since(start))
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}
	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordGoogleAPIOperation(ctx, c.account, opFreeBusyQuery, instrumentation.StatusSuccess, time.Since(start))

	return toFreeBusyInfos(result, timeMin.Location())
}

// Calendars queries freebusy and turns every calendar into a Calendar. A
// calendar the API reported errors for is rejected, since missing busy data
// would be counted as free time.
func (c *Client) Calendars(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]*Calendar, error) {
	infos, err := c.QueryFreeBusy(ctx, timeMin, timeMax, calendarIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*Calendar, 0, len(infos))
	for _, info := range infos {
		if len(info.Errors) > 0 {
			return nil, fmt.Errorf("freebusy for %s failed: %v", info.Calendar, info.Errors)
		}
		cal, err := New(info.Calendar, info.Busy)
		if err != nil {
			return nil, err
		}
		out = append(out, cal)
	}
	return out, nil
}

func toFreeBusyInfos(resp *gcal.FreeBusyResponse, loc *time.Location) ([]FreeBusyInfo, error) {
	if resp == nil {
		return nil, nil
	}

	ids := make([]string, 0, len(resp.Calendars))
	for id := range resp.Calendars {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	infos := make([]FreeBusyInfo, 0, len(ids))
	for _, id := range ids {
		cal := resp.Calendars[id]
		info := FreeBusyInfo{Calendar: id}

		for _, e := range cal.Errors {
			if e != nil {
				info.Errors = append(info.Errors, e.Reason)
			}
		}

		busy := make([]BusyInterval, 0, len(cal.Busy))
		for _, period := range cal.Busy {
			if period == nil {
				continue
			}
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				return nil, fmt.Errorf("calendar %s: bad busy start %q: %w", id, period.Start, err)
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				return nil, fmt.Errorf("calendar %s: bad busy end %q: %w", id, period.End, err)
			}
			iv, err := NewBusyInterval(start.In(loc), end.In(loc))
			if err != nil {
				return nil, fmt.Errorf("calendar %s: %w", id, err)
			}
			busy = append(busy, iv)
		}
		info.Busy = Merge(busy)

		infos = append(infos, info)
	}

	return infos, nil
}
