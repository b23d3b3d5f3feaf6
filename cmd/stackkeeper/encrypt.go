package stackkeeper

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/stackkeeper/internal/commands"
	"github.com/skaphos/stackkeeper/internal/state"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt VALUE",
	Short: "Encrypt a value with the directory's key",
	Long: "Prints the encrypted envelope for VALUE. With --set the envelope is\n" +
		"written to the named setting path instead of printed.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setPath, _ := cmd.Flags().GetString("set")
		return dispatch(cmd, state.CmdEncrypt, args, func(c *commands.Context) {
			c.SetPath = setPath
		})
	},
}

func init() {
	encryptCmd.Flags().String("set", "", "store the envelope at this setting path")

	rootCmd.AddCommand(encryptCmd)
}
