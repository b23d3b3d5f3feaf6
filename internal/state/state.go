// Package state derives the configuration directory state from
// repository snapshots and gates the command vocabulary on it.
package state

import "fmt"

// Kind names one of the nine mutually exclusive configuration states.
type Kind string

const (
	NoDirectoryProvided Kind = "no-directory-provided"
	Uninitialised       Kind = "uninitialised"
	RequiresMigration   Kind = "requires-migration"
	Unapplied           Kind = "unapplied"
	DirtyConf           Kind = "dirty-conf"
	DirtyGen            Kind = "dirty-gen"
	DirtyConfAndGen     Kind = "dirty-conf-and-gen"
	Invalid             Kind = "invalid"
	Clean               Kind = "clean"
)

// AllKinds lists every state variant in a stable order.
var AllKinds = []Kind{
	NoDirectoryProvided,
	Uninitialised,
	RequiresMigration,
	Unapplied,
	DirtyConf,
	DirtyGen,
	DirtyConfAndGen,
	Invalid,
	Clean,
}

// State is one derived configuration directory state. It is a value:
// recomputed fresh from snapshots on every invocation, never persisted,
// never mutated in place.
type State struct {
	// Kind is the variant tag.
	Kind Kind
	// FromVersion and ToVersion carry the migration endpoints when Kind
	// is RequiresMigration.
	FromVersion string
	ToVersion   string
	// Reason describes the problem when Kind is Invalid.
	Reason string

	blocked             map[Command]string
	blockedUnlessForced map[Command]string
}

// String renders the state for diagnostics.
func (s State) String() string {
	switch s.Kind {
	case RequiresMigration:
		return fmt.Sprintf("%s (%s -> %s)", s.Kind, s.FromVersion, s.ToVersion)
	case Invalid:
		return fmt.Sprintf("%s (%s)", s.Kind, s.Reason)
	default:
		return string(s.Kind)
	}
}

// Blocked returns the always-deny message for command, if any.
func (s State) Blocked(command Command) (string, bool) {
	msg, ok := s.blocked[command]
	return msg, ok
}

// BlockedUnlessForced returns the deny-unless-forced message for
// command, if any.
func (s State) BlockedUnlessForced(command Command) (string, bool) {
	msg, ok := s.blockedUnlessForced[command]
	return msg, ok
}
