package neat

// RunState is the lifecycle position of an evolution run. One controller
// owns one RunState; it is the single source of truth for what the worker
// and callers may legally do next.
type RunState int32

const (
	// RunStateReady means Initialize has completed and no worker exists yet.
	RunStateReady RunState = iota
	// RunStateRunning means the worker is executing generations.
	RunStateRunning
	// RunStatePaused means the worker is suspended at a generation boundary.
	RunStatePaused
	// RunStateTerminated is absorbing; a fresh controller is required to run
	// again.
	RunStateTerminated
)

func (s RunState) String() string {
	switch s {
	case RunStateReady:
		return "ready"
	case RunStateRunning:
		return "running"
	case RunStatePaused:
		return "paused"
	case RunStateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
