package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const defaultConfigPath = "personnel.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pm",
		Short:         "Personnel approvals: staged review workflow for employment records",
		Long:          "pm runs the personnel approval service and administers stages, records, tasks and reminders.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStageCmd())
	cmd.AddCommand(newRecordCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newRemindCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newNotifyCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pm %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
