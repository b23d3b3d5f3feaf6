package state

import (
	"context"
	"log/slog"

	"github.com/skaphos/stackkeeper/internal/logging"
)

// forceHint is appended when a denial can be overridden.
const forceHint = " (re-run with --force to override)"

// CommandNotAllowedError is a state-gate denial. It is surfaced to the
// user as-is and never retried.
type CommandNotAllowedError struct {
	// Command is the denied command.
	Command Command
	// State is the variant that denied it.
	State Kind
	// Message is the human explanation from the permission table.
	Message string
	// ForceHelps reports whether --force would downgrade the denial.
	ForceHelps bool
}

func (e *CommandNotAllowedError) Error() string {
	if e.ForceHelps {
		return e.Message + forceHint
	}
	return e.Message
}

// Verify gates command against the state's permission maps. It returns
// nil when the command may run, or a CommandNotAllowedError. Verify
// never mutates the state; it only emits a trace record of the
// decision.
func (s State) Verify(log *slog.Logger, command Command, force bool) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	outcome := "ok"
	defer func() {
		log.Log(context.Background(), logging.LevelTrace, "gate decision",
			"state", s.String(), "command", command, "force", force, "outcome", outcome)
	}()

	if msg, ok := s.blocked[command]; ok {
		outcome = "blocked"
		return &CommandNotAllowedError{
			Command: command,
			State:   s.Kind,
			Message: msg,
		}
	}
	if msg, ok := s.blockedUnlessForced[command]; ok {
		if force {
			outcome = "forced"
			return nil
		}
		outcome = "blocked-unless-forced"
		return &CommandNotAllowedError{
			Command:    command,
			State:      s.Kind,
			Message:    msg,
			ForceHelps: true,
		}
	}
	return nil
}
