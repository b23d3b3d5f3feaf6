// SPDX-License-Identifier: MIT
package stackkeeper

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/stackkeeper/internal/state"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Operate the deployed services through the orchestrator",
}

var serviceStartCmd = &cobra.Command{
	Use:   "start [SERVICE...]",
	Short: "Start services from the generated configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdServiceStart, args, nil)
	},
}

var serviceShutdownCmd = &cobra.Command{
	Use:   "shutdown [SERVICE...]",
	Short: "Stop services, or the whole stack when none are named",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdServiceShutdown, args, nil)
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status [SERVICE...]",
	Short: "Show service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdServiceStatus, args, nil)
	},
}

var serviceLogsCmd = &cobra.Command{
	Use:   "logs [SERVICE...]",
	Short: "Show service logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, state.CmdServiceLogs, args, nil)
	},
}

func init() {
	serviceCmd.AddCommand(serviceStartCmd)
	serviceCmd.AddCommand(serviceShutdownCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
	serviceCmd.AddCommand(serviceLogsCmd)

	rootCmd.AddCommand(serviceCmd)
}
