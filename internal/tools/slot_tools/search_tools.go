package slot_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/quorumslot/internal/availability"
	"github.com/teemow/quorumslot/internal/server"
	"github.com/teemow/quorumslot/internal/tools/common"
)

func registerSearchTools(s *mcpserver.MCPServer, sc *server.ServerContext, cfg Config) {
	findTool := mcp.NewTool(ToolFindQuorumSlot,
		mcp.WithDescription("Find the earliest time at which at least minimumPeople participants are free for the whole meeting duration"),
		mcp.WithNumber("minimumPeople",
			mcp.Required(),
			mcp.Description("Minimum number of participants that must be free"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description(fmt.Sprintf("Meeting duration in minutes (default: %d). 0 checks a single instant.", int(cfg.DefaultDuration.Minutes()))),
		),
		mcp.WithString("start",
			mcp.Description("Earliest acceptable start (RFC3339 or '2006-01-02 15:04:05'; default: now)"),
		),
		mcp.WithString("participants",
			mcp.Description("Comma-separated participant IDs to consider (default: all loaded participants)"),
		),
	)

	s.AddTool(findTool, common.InstrumentedToolHandler(ToolFindQuorumSlot, cfg.Metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindQuorumSlot(ctx, request, sc, cfg)
		}))
}

func handleFindQuorumSlot(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, cfg Config) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	minQuorum, ok, err := common.GetIntArg(args, "minimumPeople")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("minimumPeople is required"), nil
	}
	if minQuorum < 1 {
		return mcp.NewToolResultError("minimumPeople must be at least 1"), nil
	}

	duration := cfg.DefaultDuration
	minutes, ok, err := common.GetIntArg(args, "durationMinutes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ok {
		if minutes < 0 {
			return mcp.NewToolResultError("durationMinutes must not be negative"), nil
		}
		duration = time.Duration(minutes) * time.Minute
	}

	start, ok, err := common.GetTimeArg(args, "start", cfg.Location)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		start = cfg.Now().In(cfg.Location).Truncate(time.Second)
	}

	calendars, err := sc.Calendars(common.GetListArg(args, "participants")...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := availability.CheckQuorum(len(calendars), minQuorum); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	res, err := cfg.Engine.FindEarliestQuorumSlot(ctx, calendars, duration, minQuorum, start)
	if errors.Is(err, context.DeadlineExceeded) {
		return mcp.NewToolResultError(fmt.Sprintf("Search timed out after %s", cfg.Timeout)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	out, err := json.MarshalIndent(res.Report(duration), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
