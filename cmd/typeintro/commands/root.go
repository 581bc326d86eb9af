package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath   string
	verbose      bool
	jsonOutput   bool
	scriptsPath  string
	tool         string
	executorMode string
	metricsAddr  string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "typeintro",
		Short: "typeintro - ROS interface type introspection",
		Long: `typeintro retrieves the field schema and default-value template of ROS
message, service and action types.

Templates come from "ros2 interface proto", schemas from the
get_type_schema.py helper script. Both can run locally or on a
robot reached over SSH. Every retrieval can be journaled to SQLite.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file path")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	flags.StringVar(&scriptsPath, "scripts-path", "", "directory holding get_type_schema.py (empty disables schemas)")
	flags.StringVar(&tool, "tool", "", "command-line tool that prints default-value templates")
	flags.StringVar(&executorMode, "executor", "", "where commands run (local, ssh)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newTemplateCommand())
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newJournalCommand())
	rootCmd.AddCommand(newScriptsCommand())

	return rootCmd
}
