package state

// Command identifies one entry of the fixed CLI command vocabulary. The
// set is closed: gating tables enumerate policies for exactly these
// commands.
type Command string

const (
	CmdConfigureInit           Command = "configure-init"
	CmdConfigureApply          Command = "configure-apply"
	CmdConfigureGet            Command = "configure-get"
	CmdConfigureSet            Command = "configure-set"
	CmdConfigureTemplateList   Command = "configure-template-list"
	CmdConfigureTemplateRender Command = "configure-template-render"
	CmdDebugInfo               Command = "debug-info"
	CmdEncrypt                 Command = "encrypt"
	CmdInstall                 Command = "install"
	CmdLauncher                Command = "launcher"
	CmdMigrate                 Command = "migrate"
	CmdServiceStart            Command = "service-start"
	CmdServiceShutdown         Command = "service-shutdown"
	CmdServiceLogs             Command = "service-logs"
	CmdServiceStatus           Command = "service-status"
	CmdTaskRun                 Command = "task-run"
	CmdOrchestratorCustom      Command = "orchestrator-custom"
)

// AllCommands lists the whole vocabulary in a stable order.
var AllCommands = []Command{
	CmdConfigureInit,
	CmdConfigureApply,
	CmdConfigureGet,
	CmdConfigureSet,
	CmdConfigureTemplateList,
	CmdConfigureTemplateRender,
	CmdDebugInfo,
	CmdEncrypt,
	CmdInstall,
	CmdLauncher,
	CmdMigrate,
	CmdServiceStart,
	CmdServiceShutdown,
	CmdServiceLogs,
	CmdServiceStatus,
	CmdTaskRun,
	CmdOrchestratorCustom,
}
