// Package server holds the long-lived state behind `quorumslot serve`.
//
// ServerContext owns the participant calendars. It loads them from a Source
// (a calendar directory or the Google freebusy API), reloads them on a cron
// schedule, and hands out freshly built calendar.Calendar values for every
// search so that no cursor state is shared between requests.
//
// The package also provides Kubernetes-style health endpoints, a dedicated
// Prometheus metrics server and HTTP request metrics for the MCP transport.
package server
