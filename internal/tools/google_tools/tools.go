package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/quorumslot/internal/google"
	"github.com/teemow/quorumslot/internal/instrumentation"
	"github.com/teemow/quorumslot/internal/server"
	"github.com/teemow/quorumslot/internal/tools/common"
)

// Tool names.
const (
	ToolGetAuthURL   = "google_get_auth_url"
	ToolSaveAuthCode = "google_save_auth_code"
)

// Config configures the Google OAuth tools.
type Config struct {
	// Account is the token name used when a call omits account.
	Account string

	Metrics *instrumentation.Metrics

	// AuthURL and SaveToken default to the google package functions.
	AuthURL   func() string
	SaveToken func(ctx context.Context, account, authCode string) error
}

func (c Config) withDefaults() Config {
	if c.Account == "" {
		c.Account = google.DefaultAccount
	}
	if c.AuthURL == nil {
		c.AuthURL = google.GetAuthURL
	}
	if c.SaveToken == nil {
		c.SaveToken = google.SaveTokenForAccount
	}
	return c
}

// RegisterGoogleTools registers all Google OAuth-related tools with the MCP server
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext, cfg Config) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}
	cfg = cfg.withDefaults()

	getAuthURLTool := mcp.NewTool(ToolGetAuthURL,
		mcp.WithDescription("Get the OAuth URL to authorize read access to Google Calendar free/busy data"),
		mcp.WithString("account",
			mcp.Description(fmt.Sprintf("Account name the token is stored under (default: '%s')", cfg.Account)),
		),
	)
	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler(ToolGetAuthURL, cfg.Metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, cfg)
		}))

	saveAuthCodeTool := mcp.NewTool(ToolSaveAuthCode,
		mcp.WithDescription("Save the OAuth authorization code to complete Google Calendar authentication and reload participant calendars"),
		mcp.WithString("account",
			mcp.Description(fmt.Sprintf("Account name the token is stored under (default: '%s')", cfg.Account)),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)
	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler(ToolSaveAuthCode, cfg.Metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc, cfg)
		}))

	return nil
}

func accountFromArgs(args map[string]interface{}, cfg Config) string {
	if account := common.GetStringArg(args, "account"); account != "" {
		return account
	}
	return cfg.Account
}

func handleGetAuthURL(_ context.Context, request mcp.CallToolRequest, cfg Config) (*mcp.CallToolResult, error) {
	account := accountFromArgs(request.GetArguments(), cfg)

	result := fmt.Sprintf(`To authorize Google Calendar access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant read access to free/busy information
4. Copy the authorization code

5. Call the %s tool with the code and account name to complete authentication`, account, cfg.AuthURL(), ToolSaveAuthCode)

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, cfg Config) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := accountFromArgs(args, cfg)

	authCode := common.GetStringArg(args, "authCode")
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	if err := cfg.SaveToken(ctx, account, authCode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}

	if err := sc.Reload(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Token saved for account '%s', but reloading calendars failed: %v", account, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. Loaded %d participant(s).", account, len(sc.Participants()))), nil
}
