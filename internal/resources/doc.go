// Package resources provides read-only MCP resources describing the loaded
// participant calendars.
//
// Two resources are registered:
//
//   - quorumslot://participants lists every loaded participant with its
//     number of busy intervals.
//   - quorumslot://status reports when calendars were last loaded and the
//     error of the most recent reload, if any.
package resources
