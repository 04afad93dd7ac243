package slot_tools

import (
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/quorumslot/internal/availability"
	"github.com/teemow/quorumslot/internal/instrumentation"
	"github.com/teemow/quorumslot/internal/server"
)

// Tool names.
const (
	ToolFindQuorumSlot   = "find_quorum_slot"
	ToolListParticipants = "list_participants"
	ToolParticipantBusy  = "participant_busy"
)

// Config holds what the tool handlers need beyond the ServerContext.
type Config struct {
	Engine  *availability.Engine
	Metrics *instrumentation.Metrics

	// Location interprets timestamps without zone information.
	Location *time.Location

	// DefaultDuration applies when a call omits durationMinutes.
	DefaultDuration time.Duration

	// Timeout bounds one search. Zero means no limit.
	Timeout time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Engine == nil {
		c.Engine = availability.NewEngine()
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = time.Hour
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// RegisterSlotTools registers all scheduling tools with the MCP server
func RegisterSlotTools(s *mcpserver.MCPServer, sc *server.ServerContext, cfg Config) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}
	cfg = cfg.withDefaults()

	registerSearchTools(s, sc, cfg)
	registerParticipantTools(s, sc, cfg)
	return nil
}
