package stackkeeper

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/stackkeeper/internal/state"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the configuration to the running application version",
	Long: "Moves the configuration repository onto the version branch matching the\n" +
		"running application, carrying the existing variables and any extra files\n" +
		"across. Running it at the current version is a no-op.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdMigrate, args, nil)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
