package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/quorumslot/internal/server"
)

const (
	URIParticipants = "quorumslot://participants"
	URIStatus       = "quorumslot://status"
)

type participantEntry struct {
	ID            string `json:"id"`
	BusyIntervals int    `json:"busyIntervals"`
}

type statusEntry struct {
	Source       string `json:"source"`
	Participants int    `json:"participants"`
	LoadedAt     string `json:"loadedAt,omitempty"`
	ReloadError  string `json:"reloadError,omitempty"`
}

// RegisterParticipantResources registers the participant and status resources.
func RegisterParticipantResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	participantsResource := mcp.NewResource(
		URIParticipants,
		"Participants",
		mcp.WithResourceDescription("Participants whose calendars are currently loaded"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(participantsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleParticipants(ctx, request, sc)
	})

	statusResource := mcp.NewResource(
		URIStatus,
		"Calendar Load Status",
		mcp.WithResourceDescription("When calendars were last loaded and whether the last reload failed"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(statusResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleStatus(ctx, request, sc)
	})

	return nil
}

func handleParticipants(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	participants := sc.Participants()
	entries := make([]participantEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, participantEntry{ID: p.ID, BusyIntervals: p.Intervals})
	}
	return jsonContents(request.Params.URI, entries)
}

func handleStatus(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	loadedAt, lastErr := sc.LoadStatus()
	status := statusEntry{
		Source:       sc.SourceName(),
		Participants: len(sc.Participants()),
	}
	if !loadedAt.IsZero() {
		status.LoadedAt = loadedAt.Format(time.RFC3339)
	}
	if lastErr != nil {
		status.ReloadError = lastErr.Error()
	}
	return jsonContents(request.Params.URI, status)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
