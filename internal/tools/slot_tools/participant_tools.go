package slot_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/quorumslot/internal/calendar"
	"github.com/teemow/quorumslot/internal/server"
	"github.com/teemow/quorumslot/internal/tools/batch"
	"github.com/teemow/quorumslot/internal/tools/common"
)

func registerParticipantTools(s *mcpserver.MCPServer, sc *server.ServerContext, cfg Config) {
	listTool := mcp.NewTool(ToolListParticipants,
		mcp.WithDescription("List the participants whose calendars are loaded"),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler(ToolListParticipants, cfg.Metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListParticipants(ctx, request, sc)
		}))

	busyTool := mcp.NewTool(ToolParticipantBusy,
		mcp.WithDescription("List the busy intervals of one participant that intersect a time range"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Participant ID as shown by list_participants, or several comma-separated IDs"),
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Start of the range (RFC3339 or '2006-01-02 15:04:05')"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("End of the range, exclusive (RFC3339 or '2006-01-02 15:04:05')"),
		),
	)
	s.AddTool(busyTool, common.InstrumentedToolHandler(ToolParticipantBusy, cfg.Metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleParticipantBusy(ctx, request, sc, cfg)
		}))
}

func handleListParticipants(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	participants := sc.Participants()
	loadedAt, lastErr := sc.LoadStatus()

	var b strings.Builder
	fmt.Fprintf(&b, "Loaded %d participant(s)", len(participants))
	if !loadedAt.IsZero() {
		fmt.Fprintf(&b, " at %s", loadedAt.Format(time.RFC3339))
	}
	b.WriteString(":\n")
	for _, p := range participants {
		fmt.Fprintf(&b, "- %s (%d busy intervals)\n", p.ID, p.Intervals)
	}
	if lastErr != nil {
		fmt.Fprintf(&b, "\nLast reload failed: %v\n", lastErr)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleParticipantBusy(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext, cfg Config) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseIDs(args["id"], "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	from, ok, err := common.GetTimeArg(args, "from", cfg.Location)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("from is required"), nil
	}
	to, ok, err := common.GetTimeArg(args, "to", cfg.Location)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("to is required"), nil
	}
	if !from.Before(to) {
		return mcp.NewToolResultError("from must be before to"), nil
	}

	describe := func(id string) (string, error) {
		return describeBusy(sc, id, from, to, cfg.Location)
	}

	if len(ids) == 1 {
		text, err := describe(ids[0])
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}

	out, err := batch.Format(batch.Process(ids, describe))
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}
	return mcp.NewToolResultText(out), nil
}

func describeBusy(sc *server.ServerContext, id string, from, to time.Time, loc *time.Location) (string, error) {
	busy, err := sc.Busy(id, from, to)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Busy intervals for %s between %s and %s:\n",
		id, from.In(loc).Format(calendar.TimeLayout), to.In(loc).Format(calendar.TimeLayout))
	if len(busy) == 0 {
		b.WriteString("  FREE for entire range\n")
	}
	for i, iv := range busy {
		fmt.Fprintf(&b, "  %d. %s to %s\n", i+1,
			iv.Start.In(loc).Format(calendar.TimeLayout),
			iv.End.In(loc).Format(calendar.TimeLayout))
	}
	return b.String(), nil
}
