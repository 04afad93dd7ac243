package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/quorumslot/internal/calendar"
	"github.com/teemow/quorumslot/internal/resources"
	"github.com/teemow/quorumslot/internal/server"
	"github.com/teemow/quorumslot/internal/tools/google_tools"
	"github.com/teemow/quorumslot/internal/tools/slot_tools"
)

// emptySource provides no participants. It lets tools register without
// reading any calendars.
type emptySource struct{}

func (emptySource) Name() string { return "empty" }

func (emptySource) Load(context.Context) ([]*calendar.Calendar, error) { return nil, nil }

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFile == "" {
				return runGenerateDocs(cmd.Context(), cmd.OutOrStdout())
			}
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := runGenerateDocs(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sc, err := server.NewServerContext(ctx, emptySource{}, nil)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = sc.Shutdown()
	}()

	mcpSrv := newMCPServer()
	if err := slot_tools.RegisterSlotTools(mcpSrv, sc, slot_tools.Config{}); err != nil {
		return fmt.Errorf("failed to register slot tools: %w", err)
	}
	if err := google_tools.RegisterGoogleTools(mcpSrv, sc, google_tools.Config{}); err != nil {
		return fmt.Errorf("failed to register google tools: %w", err)
	}

	tools := make([]mcp.Tool, 0)
	for _, registered := range mcpSrv.ListTools() {
		tools = append(tools, registered.Tool)
	}

	_, err = io.WriteString(out, generateToolsMarkdown(tools))
	return err
}

// toolCategories maps a tool name prefix to its section heading. The first
// matching prefix wins.
var toolCategories = []struct {
	prefix string
	title  string
}{
	{"find_", "Scheduling Tools"},
	{"google_", "Google Authorization Tools"},
	{"list_participants", "Participant Tools"},
	{"participant_", "Participant Tools"},
}

func getCategoryFromToolName(name string) string {
	for _, c := range toolCategories {
		if strings.HasPrefix(name, c.prefix) {
			return c.title
		}
	}
	return "Other"
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	byCategory := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		byCategory[category] = append(byCategory[category], tool)
	}
	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools available when running `quorumslot serve`. Generated from the tool definitions.\n\n")

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categories {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, strings.ToLower(strings.ReplaceAll(category, " ", "-")))
	}

	sb.WriteString("\n## Time Arguments\n\n")
	sb.WriteString("Time arguments accept RFC3339 (`2022-05-15T08:00:00Z`) or `2006-01-02 15:04:05`, the latter in the server timezone.\n\n")

	sb.WriteString("## Resources\n\n")
	fmt.Fprintf(&sb, "- `%s`: loaded participants and their busy interval counts\n", resources.URIParticipants)
	fmt.Fprintf(&sb, "- `%s`: last load time and reload error\n\n", resources.URIStatus)

	for _, category := range categories {
		categoryTools := byCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool { return categoryTools[i].Name < categoryTools[j].Name })

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		return sb.String()
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("**Arguments:**\n")
	for _, name := range names {
		prop, ok := props[name].(map[string]interface{})
		if !ok {
			continue
		}
		typ := getPropertyType(prop)
		required := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "required"
		}
		desc, ok := prop["description"].(string)
		if !ok {
			desc = typ + " parameter"
		}
		fmt.Fprintf(&sb, "- `%s` (%s, %s): %s\n", name, typ, required, desc)
	}
	sb.WriteString("\n")
	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
