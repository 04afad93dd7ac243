// Package slot_tools provides MCP (Model Context Protocol) tools for
// quorum scheduling.
//
// The tools search the participant calendars held by a server.ServerContext:
// find_quorum_slot returns the earliest slot at which enough participants are
// free, list_participants shows who is loaded, and participant_busy lists the
// busy time of one participant.
package slot_tools
