package state

import "github.com/skaphos/stackkeeper/internal/repo"

// Inputs is everything Derive looks at: two repository snapshots plus
// the running application's version string.
type Inputs struct {
	// DirProvided reports whether a configuration directory path is
	// known at all.
	DirProvided bool
	// Conf is the configuration repository snapshot.
	Conf repo.Snapshot
	// Gen is the generated repository snapshot.
	Gen repo.Snapshot
	// AppVersion is compared for exact equality only.
	AppVersion string
}

// Derive computes the configuration directory state. It is a pure
// function; the check order below is fixed and load-bearing (the
// migration check precedes the unapplied check).
func Derive(in Inputs) State {
	s := derive(in)
	attachPolicies(&s)
	return s
}

func derive(in Inputs) State {
	if !in.DirProvided {
		return State{Kind: NoDirectoryProvided}
	}
	if !in.Conf.Exists {
		return State{Kind: Uninitialised}
	}
	if !in.Conf.VersionOK {
		return State{Kind: Invalid, Reason: "configuration repository " + in.Conf.VersionProblem}
	}
	if in.Conf.Version != in.AppVersion {
		return State{
			Kind:        RequiresMigration,
			FromVersion: in.Conf.Version,
			ToVersion:   in.AppVersion,
		}
	}
	if !in.Gen.Exists {
		return State{Kind: Unapplied}
	}
	switch {
	case in.Conf.Dirty && in.Gen.Dirty:
		return State{Kind: DirtyConfAndGen}
	case in.Conf.Dirty:
		return State{Kind: DirtyConf}
	case in.Gen.Dirty:
		return State{Kind: DirtyGen}
	}
	if in.Gen.Commits > 1 {
		return State{Kind: Invalid, Reason: "generated repository has untracked extra commits"}
	}
	return State{Kind: Clean}
}
