package server

import (
	"net/http"
	"time"

	"github.com/teemow/quorumslot/internal/instrumentation"
)

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// InstrumentHTTP records request count and latency for every request served
// by next. path is used as the metric label instead of the request URL to
// keep cardinality bounded.
func InstrumentHTTP(next http.Handler, path string, metrics *instrumentation.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}

// NewMux builds the HTTP mux for the streamable-http transport: the MCP
// handler on mcpPath plus the health endpoints.
func NewMux(mcpPath string, mcpHandler http.Handler, health *HealthChecker, metrics *instrumentation.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(mcpPath, InstrumentHTTP(mcpHandler, mcpPath, metrics))
	if health != nil {
		health.RegisterHealthEndpoints(mux)
	}
	return mux
}
