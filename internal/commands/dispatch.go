package commands

import (
	"context"
	"fmt"

	"github.com/skaphos/stackkeeper/internal/cliio"
	"github.com/skaphos/stackkeeper/internal/state"
)

// Handler executes one command after the state gate has passed.
type Handler func(ctx context.Context, c *Context, args []string) error

// Table binds the closed command vocabulary to handlers. Every command
// the state tables know about has exactly one entry here.
var Table = map[state.Command]Handler{
	state.CmdConfigureInit:           runConfigureInit,
	state.CmdConfigureApply:          runConfigureApply,
	state.CmdConfigureGet:            runConfigureGet,
	state.CmdConfigureSet:            runConfigureSet,
	state.CmdConfigureTemplateList:   runTemplateList,
	state.CmdConfigureTemplateRender: runTemplateRender,
	state.CmdDebugInfo:               runDebugInfo,
	state.CmdEncrypt:                 runEncrypt,
	state.CmdInstall:                 runInstall,
	state.CmdLauncher:                runLauncher,
	state.CmdMigrate:                 runMigrate,
	state.CmdServiceStart:            runServiceStart,
	state.CmdServiceShutdown:         runServiceShutdown,
	state.CmdServiceLogs:             runServiceLogs,
	state.CmdServiceStatus:           runServiceStatus,
	state.CmdTaskRun:                 runTaskRun,
	state.CmdOrchestratorCustom:      runOrchestratorCustom,
}

// Dispatch derives the configuration state, verifies command against it
// and runs the handler. The return value is the process exit code:
// zero on success, one on any failure including a gate denial.
func Dispatch(ctx context.Context, c *Context, command state.Command, args []string) int {
	c.ensureWriters()
	handler, ok := Table[command]
	if !ok {
		fmt.Fprintf(c.Err, "Error: unknown command %q\n", command)
		return 1
	}

	st, err := c.deriveState(ctx)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		return 1
	}
	c.state = st
	// An interactive --force still asks before overriding a gate.
	if c.Force && c.In != nil {
		if reason, ok := st.BlockedUnlessForced(command); ok {
			confirmed, err := cliio.ConfirmForced(c.Out, c.In, string(command), reason)
			if err != nil {
				fmt.Fprintf(c.Err, "Error: %v\n", err)
				return 1
			}
			if !confirmed {
				fmt.Fprintln(c.Err, "Aborted.")
				return 1
			}
		}
	}
	if err := st.Verify(c.log(), command, c.Force); err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		return 1
	}

	if err := handler(ctx, c, args); err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		return 1
	}
	return 0
}
