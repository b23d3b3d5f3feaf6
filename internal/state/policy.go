package state

import "fmt"

// Messages shared across the policy tables.
const (
	msgNoDirectory   = "no configuration directory provided"
	msgUninitialised = "configuration directory is not initialised; run configure-init first"
	msgAlreadyExists = "configuration already exists; refusing to re-initialise"
	msgUnapplied     = "configuration has never been applied; run configure-apply first"
	msgDirtyConf     = "configuration directory has uncommitted changes"
	msgDirtyGen      = "generated directory has uncommitted manual changes"
	msgDirtyBoth     = "configuration and generated directories have uncommitted changes"
)

// blockAllExcept returns a blocked map covering the whole vocabulary
// minus the allowed set.
func blockAllExcept(msg string, allowed ...Command) map[Command]string {
	keep := make(map[Command]bool, len(allowed))
	for _, c := range allowed {
		keep[c] = true
	}
	blocked := make(map[Command]string)
	for _, c := range AllCommands {
		if !keep[c] {
			blocked[c] = msg
		}
	}
	return blocked
}

// attachPolicies fills in the two permission maps for the state's kind.
// Every variant has an explicit policy for the whole vocabulary: a
// command absent from both maps is allowed.
func attachPolicies(s *State) {
	switch s.Kind {
	case NoDirectoryProvided:
		// Only install works before a directory is chosen.
		s.blocked = blockAllExcept(msgNoDirectory, CmdInstall)

	case Uninitialised:
		s.blocked = blockAllExcept(msgUninitialised,
			CmdConfigureInit, CmdInstall, CmdDebugInfo)

	case RequiresMigration:
		msg := fmt.Sprintf(
			"configuration version %s does not match application version %s; run migrate",
			s.FromVersion, s.ToVersion)
		s.blocked = map[Command]string{
			CmdConfigureInit:           msgAlreadyExists,
			CmdConfigureApply:          msg,
			CmdConfigureGet:            msg,
			CmdConfigureSet:            msg,
			CmdConfigureTemplateList:   msg,
			CmdConfigureTemplateRender: msg,
			CmdEncrypt:                 msg,
			CmdLauncher:                msg,
			CmdServiceStart:            msg,
			CmdTaskRun:                 msg,
			CmdOrchestratorCustom:      msg,
		}

	case Unapplied:
		s.blocked = map[Command]string{
			CmdConfigureInit:      msgAlreadyExists,
			CmdLauncher:           msgUnapplied,
			CmdServiceStart:       msgUnapplied,
			CmdTaskRun:            msgUnapplied,
			CmdOrchestratorCustom: msgUnapplied,
		}

	case DirtyConf:
		s.blocked = map[Command]string{
			CmdConfigureInit: msgAlreadyExists,
			CmdMigrate:       msgDirtyConf + "; commit or revert them before migrating",
		}
		s.blockedUnlessForced = map[Command]string{
			CmdServiceStart:       msgDirtyConf + " that have not been applied",
			CmdTaskRun:            msgDirtyConf + " that have not been applied",
			CmdOrchestratorCustom: msgDirtyConf + " that have not been applied",
		}

	case DirtyGen:
		s.blocked = map[Command]string{
			CmdConfigureInit: msgAlreadyExists,
			CmdMigrate:       msgDirtyGen + "; commit or revert them before migrating",
		}
		s.blockedUnlessForced = map[Command]string{
			CmdConfigureApply:     msgDirtyGen + " that an apply would overwrite",
			CmdServiceStart:       msgDirtyGen,
			CmdTaskRun:            msgDirtyGen,
			CmdOrchestratorCustom: msgDirtyGen,
		}

	case DirtyConfAndGen:
		s.blocked = map[Command]string{
			CmdConfigureInit: msgAlreadyExists,
			CmdMigrate:       msgDirtyBoth + "; commit or revert them before migrating",
		}
		s.blockedUnlessForced = map[Command]string{
			CmdConfigureApply:     msgDirtyGen + " that an apply would overwrite",
			CmdServiceStart:       msgDirtyBoth,
			CmdTaskRun:            msgDirtyBoth,
			CmdOrchestratorCustom: msgDirtyBoth,
		}

	case Invalid:
		msg := "configuration directory is in an invalid state: " + s.Reason
		s.blocked = blockAllExcept(msg,
			CmdDebugInfo, CmdInstall,
			CmdServiceStatus, CmdServiceLogs, CmdServiceShutdown)
		// Re-initialising cannot repair an existing directory either.
		s.blocked[CmdConfigureInit] = msgAlreadyExists

	case Clean:
		s.blocked = map[Command]string{
			CmdConfigureInit: msgAlreadyExists,
		}
	}

	if s.blocked == nil {
		s.blocked = map[Command]string{}
	}
	if s.blockedUnlessForced == nil {
		s.blockedUnlessForced = map[Command]string{}
	}
}
