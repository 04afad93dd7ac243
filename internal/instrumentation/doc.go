// Package instrumentation provides OpenTelemetry metrics and tracing for
// quorumslot.
//
// # Metrics
//
// Search metrics:
//   - quorum_search_total: Counter of searches by status (success, not_found, error)
//   - quorum_search_duration_seconds: Histogram of search wall time
//   - quorum_search_iterations: Histogram of candidate refinements per search
//
// Calendar source metrics:
//   - calendar_loads_total: Counter of calendar loads by source and status
//   - calendars_loaded: Gauge of participants currently held by the server
//   - google_api_operations_total: Counter of Google Calendar API calls by operation and status
//   - google_api_operation_duration_seconds: Histogram of Google Calendar API latency
//
// Server metrics:
//   - http_requests_total / http_request_duration_seconds for the MCP HTTP transport
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds per tool
//
// # Tracing
//
// Spans are created for quorum searches (availability.find_earliest_quorum_slot),
// MCP tool invocations (tool.<name>) and Google API calls
// (google.calendar.<operation>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: quorumslot)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	engine := availability.NewEngine(availability.WithMetrics(provider.Metrics()))
package instrumentation
