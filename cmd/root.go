package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/quorumslot/internal/logging"
)

var (
	debug     bool
	logFormat string
)

// rootCmd represents the base command for the quorumslot application
var rootCmd = &cobra.Command{
	Use:   "quorumslot",
	Short: "Finds the earliest meeting slot that enough participants can attend",
	Long: `quorumslot searches the busy calendars of a group of participants for the
earliest time at which at least a minimum number of them are free for the
whole meeting.

It can run as:
  - A standalone CLI tool (default, see 'quorumslot find')
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.NewLogger(os.Stderr, logFormat, debug)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "quorumslot version %s\n" .Version}}`)

	// Without a subcommand, run find.
	rootCmd.SetArgs(withDefaultCommand(rootCmd, os.Args[1:]))

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// withDefaultCommand prepends "find" unless args already start with a
// subcommand or ask for help or the version.
func withDefaultCommand(root *cobra.Command, args []string) []string {
	if len(args) == 0 {
		return []string{"find"}
	}
	switch args[0] {
	case "-h", "--help", "-v", "--version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return args
	}
	if !strings.HasPrefix(args[0], "-") {
		for _, c := range root.Commands() {
			if c.Name() == args[0] || c.HasAlias(args[0]) {
				return args
			}
		}
	}
	return append([]string{"find"}, args...)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")

	rootCmd.AddCommand(newFindCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
