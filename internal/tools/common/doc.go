// Package common provides shared utilities for MCP tool implementations:
// argument extraction helpers and the instrumented handler wrapper that
// records tool metrics and spans.
package common
