package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrSource    = "source"
	attrTool      = "tool"
	attrAccount   = "account"
)

// Metrics records quorumslot metrics. The zero value records nothing, which
// is what a disabled Provider hands out.
type Metrics struct {
	searchTotal      metric.Int64Counter
	searchDuration   metric.Float64Histogram
	searchIterations metric.Int64Histogram

	calendarLoadsTotal metric.Int64Counter
	calendarsLoaded    metric.Int64Gauge

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	detailedLabels bool
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}
	var err error

	if m.searchTotal, err = meter.Int64Counter(
		"quorum_search_total",
		metric.WithDescription("Total number of quorum searches"),
		metric.WithUnit("{search}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create quorum_search_total counter: %w", err)
	}

	if m.searchDuration, err = meter.Float64Histogram(
		"quorum_search_duration_seconds",
		metric.WithDescription("Quorum search duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create quorum_search_duration_seconds histogram: %w", err)
	}

	if m.searchIterations, err = meter.Int64Histogram(
		"quorum_search_iterations",
		metric.WithDescription("Candidate refinements per quorum search"),
		metric.WithUnit("{iteration}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 50, 100, 1000, 10000),
	); err != nil {
		return nil, fmt.Errorf("failed to create quorum_search_iterations histogram: %w", err)
	}

	if m.calendarLoadsTotal, err = meter.Int64Counter(
		"calendar_loads_total",
		metric.WithDescription("Total number of calendar set loads"),
		metric.WithUnit("{load}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create calendar_loads_total counter: %w", err)
	}

	if m.calendarsLoaded, err = meter.Int64Gauge(
		"calendars_loaded",
		metric.WithDescription("Number of participant calendars currently loaded"),
		metric.WithUnit("{calendar}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create calendars_loaded gauge: %w", err)
	}

	if m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google Calendar API operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	if m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google Calendar API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	if m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	if m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	if m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	if m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordSearch records one quorum search. status is StatusSuccess,
// StatusNotFound or StatusError.
func (m *Metrics) RecordSearch(ctx context.Context, status string, iterations int, duration time.Duration) {
	if m == nil || m.searchTotal == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.searchTotal.Add(ctx, 1, attrs)
	m.searchDuration.Record(ctx, duration.Seconds(), attrs)
	m.searchIterations.Record(ctx, int64(iterations), attrs)
}

// RecordCalendarLoad records a load of the participant calendar set from
// source. calendars is the number of calendars now held; it is only recorded
// on success.
func (m *Metrics) RecordCalendarLoad(ctx context.Context, source, status string, calendars int) {
	if m == nil || m.calendarLoadsTotal == nil {
		return
	}

	m.calendarLoadsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrSource, source),
		attribute.String(attrStatus, status),
	))
	if status == StatusSuccess {
		m.calendarsLoaded.Record(ctx, int64(calendars), metric.WithAttributes(attribute.String(attrSource, source)))
	}
}

// RecordGoogleAPIOperation records a Google Calendar API call. The account
// label is only attached with detailed labels enabled.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, account, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records an MCP tool invocation.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
