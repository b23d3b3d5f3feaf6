package stackkeeper

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/stackkeeper/internal/state"
)

var launcherCmd = &cobra.Command{
	Use:   "launcher",
	Short: "Run the configured launcher command",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdLauncher, args, nil)
	},
}

func init() {
	rootCmd.AddCommand(launcherCmd)
}
