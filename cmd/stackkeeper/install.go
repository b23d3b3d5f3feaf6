package stackkeeper

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/stackkeeper/internal/state"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Prepare a configuration directory",
	Long: "Creates the configuration directory if needed and prints the next\n" +
		"steps. Without --dir it explains how to choose one.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdInstall, args, nil)
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
