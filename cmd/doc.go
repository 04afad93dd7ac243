// Package cmd implements the command-line interface for quorumslot.
//
// This package provides the following commands:
//   - find: Search participant calendars for the earliest quorum slot
//   - serve: Start the MCP server to provide tools for AI assistants
//   - generate: Write synthetic participant calendars
//   - auth: Store a Google OAuth token for the google calendar source
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The find command is the default command when no subcommand is specified.
package cmd
