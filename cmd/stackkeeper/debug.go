package stackkeeper

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/stackkeeper/internal/state"
)

var debugCmd = &cobra.Command{
	Use:   "debug-info",
	Short: "Report the configuration state and environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdDebugInfo, args, nil)
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
}
