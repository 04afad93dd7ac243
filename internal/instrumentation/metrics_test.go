package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newManualMetrics returns Metrics backed by a manual reader so tests can
// inspect what was recorded.
func newManualMetrics(t *testing.T, detailedLabels bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailedLabels)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordSearch(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordSearch(ctx, StatusSuccess, 3, 2*time.Millisecond)
	m.RecordSearch(ctx, StatusNotFound, 7, time.Millisecond)
	m.RecordSearch(ctx, StatusError, 0, 0)

	got := collect(t, reader)
	require.Contains(t, got, "quorum_search_total")
	assert.Equal(t, int64(3), sumValue(t, got["quorum_search_total"]))
	assert.Contains(t, got, "quorum_search_duration_seconds")

	iterations, ok := got["quorum_search_iterations"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	var count uint64
	var total int64
	for _, dp := range iterations.DataPoints {
		count += dp.Count
		total += dp.Sum
	}
	assert.Equal(t, uint64(3), count)
	assert.Equal(t, int64(10), total)
}

func TestMetrics_RecordCalendarLoad(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordCalendarLoad(ctx, SourceFiles, StatusSuccess, 4)
	m.RecordCalendarLoad(ctx, SourceFiles, StatusError, 0)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, got["calendar_loads_total"]))

	gauge, ok := got["calendars_loaded"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(4), gauge.DataPoints[0].Value)
}

func TestMetrics_RecordGoogleAPIOperation_DetailedLabels(t *testing.T) {
	tests := []struct {
		name        string
		detailed    bool
		wantAccount bool
	}{
		{name: "essential labels only", detailed: false, wantAccount: false},
		{name: "detailed labels", detailed: true, wantAccount: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader := newManualMetrics(t, tt.detailed)
			m.RecordGoogleAPIOperation(context.Background(), "work", "freebusy.query", StatusSuccess, 100*time.Millisecond)

			got := collect(t, reader)
			sum, ok := got["google_api_operations_total"].Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1)
			_, has := sum.DataPoints[0].Attributes.Value(attrAccount)
			assert.Equal(t, tt.wantAccount, has)
		})
	}
}

func TestMetrics_RecordToolAndHTTP(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordToolInvocation(ctx, "find_quorum_slot", StatusSuccess, 5*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 10*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 10*time.Millisecond)

	got := collect(t, reader)
	assert.Equal(t, int64(1), sumValue(t, got["mcp_tool_invocations_total"]))
	assert.Equal(t, int64(2), sumValue(t, got["http_requests_total"]))
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	zero := &Metrics{}
	for _, m := range []*Metrics{nilMetrics, zero} {
		m.RecordSearch(ctx, StatusSuccess, 1, time.Millisecond)
		m.RecordCalendarLoad(ctx, SourceGoogle, StatusSuccess, 1)
		m.RecordGoogleAPIOperation(ctx, "", "freebusy.query", StatusError, time.Millisecond)
		m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
		m.RecordToolInvocation(ctx, "list_participants", StatusSuccess, time.Millisecond)
	}
}
