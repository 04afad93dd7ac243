// Package batch provides helpers for MCP tools that act on several
// participants in one call.
//
// This package includes helpers for:
//   - Parsing ID parameters given as a comma-separated string or an array
//   - Running an operation per ID while collecting partial failures
//   - Formatting batch results in a consistent JSON structure
package batch
