// SPDX-License-Identifier: MIT
package stackkeeper

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/stackkeeper/internal/commands"
	"github.com/skaphos/stackkeeper/internal/state"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage the configuration directory",
}

var configureInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialise a new configuration directory",
	Long: "Creates the directory layout, seeds variables and templates, generates\n" +
		"an encryption key and puts the configuration under version control.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seedDir, _ := cmd.Flags().GetString("seed-dir")
		return dispatch(cmd, state.CmdConfigureInit, args, func(c *commands.Context) {
			c.SeedDir = seedDir
		})
	},
}

var configureApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Render templates into the generated tree and commit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		return dispatch(cmd, state.CmdConfigureApply, args, func(c *commands.Context) {
			c.Message = message
		})
	},
}

var configureGetCmd = &cobra.Command{
	Use:   "get PATH",
	Short: "Print a setting by its dotted path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decrypt, _ := cmd.Flags().GetBool("decrypt")
		return dispatch(cmd, state.CmdConfigureGet, args, func(c *commands.Context) {
			c.Decrypt = decrypt
		})
	},
}

var configureSetCmd = &cobra.Command{
	Use:   "set PATH VALUE",
	Short: "Write a setting in the primary namespace",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdConfigureSet, args, nil)
	},
}

var configureTemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Inspect the template layers",
}

var configureTemplateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates and the layer each resolves from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdConfigureTemplateList, args, nil)
	},
}

var configureTemplateRenderCmd = &cobra.Command{
	Use:   "render TEMPLATE",
	Short: "Render one template against the current variables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdConfigureTemplateRender, args, nil)
	},
}

func init() {
	configureInitCmd.Flags().String("seed-dir", "", "copy seed variables and template layers from this directory")
	configureApplyCmd.Flags().StringP("message", "m", "", "commit message for the apply")
	configureGetCmd.Flags().Bool("decrypt", false, "decrypt an encrypted value before printing")

	configureTemplateCmd.AddCommand(configureTemplateListCmd)
	configureTemplateCmd.AddCommand(configureTemplateRenderCmd)

	configureCmd.AddCommand(configureInitCmd)
	configureCmd.AddCommand(configureApplyCmd)
	configureCmd.AddCommand(configureGetCmd)
	configureCmd.AddCommand(configureSetCmd)
	configureCmd.AddCommand(configureTemplateCmd)

	rootCmd.AddCommand(configureCmd)
}
