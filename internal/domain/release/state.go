package release

// BranchState is the lifecycle position of one build branch.
//
// Branches move strictly forward: Pending -> Building -> Packaged ->
// Published -> Done. Any step may instead end the branch in Failed, which
// is terminal for that branch only and never affects the other branches.
type BranchState int

const (
	// StatePending means the branch has not started yet.
	StatePending BranchState = iota
	// StateBuilding means the isolated compilation is in progress.
	StateBuilding
	// StatePackaged means the artifact archive and sidecar exist on disk.
	StatePackaged
	// StatePublished means archive and sidecar are attached to the release.
	StatePublished
	// StateDone is the successful terminal state.
	StateDone
	// StateFailed is the branch-local failure terminal state.
	StateFailed
)

// String returns the state name for logs and run summaries.
func (s BranchState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateBuilding:
		return "building"
	case StatePackaged:
		return "packaged"
	case StatePublished:
		return "published"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the branch has finished, successfully or not.
func (s BranchState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// BranchStatus is the outcome record of one branch, collected by the
// orchestrator after the branch reaches a terminal state.
type BranchStatus struct {
	// Target is the build target the branch was running for.
	Target Target
	// State is the terminal state the branch reached.
	State BranchState
	// Artifact is the packaged artifact, set when packaging succeeded.
	Artifact *Artifact
	// Err is the branch-fatal error, set when State is StateFailed.
	Err error
}

// Succeeded reports whether the branch published its artifact.
func (s *BranchStatus) Succeeded() bool {
	return s.State == StateDone
}
