package stackkeeper

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/stackkeeper/internal/state"
)

var orchestratorCmd = &cobra.Command{
	Use:   "orchestrator ARG...",
	Short: "Pass arguments through to the orchestrator",
	Long: "Hands ARG... to the orchestrator binary verbatim, against the generated\n" +
		"manifest. An escape hatch for operations the service commands do not cover.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdOrchestratorCustom, args, nil)
	},
}

func init() {
	rootCmd.AddCommand(orchestratorCmd)
}
