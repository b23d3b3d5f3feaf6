package stackkeeper

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/stackkeeper/internal/state"
)

var taskCmd = &cobra.Command{
	Use:   "task SERVICE [ARG...]",
	Short: "Run a one-off task container",
	Long:  "Runs SERVICE as a one-off container and removes it afterwards.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdTaskRun, args, nil)
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
}
