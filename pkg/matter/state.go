package matter

// NodeState represents the lifecycle state of a Node.
type NodeState int

const (
	// NodeStateUninitialized is the zero value before NewNode completes.
	NodeStateUninitialized NodeState = iota

	// NodeStateInitialized means the node is built but not started.
	// Endpoints may be added freely.
	NodeStateInitialized

	// NodeStateStarting means cluster startup is in progress.
	NodeStateStarting

	// NodeStateRunning means clusters are started and accept operations.
	NodeStateRunning

	// NodeStateStopping means cluster shutdown is in progress.
	NodeStateStopping

	// NodeStateStopped means the event loop and report broker are closed.
	NodeStateStopped
)

// String returns a human-readable name for the state.
func (s NodeState) String() string {
	switch s {
	case NodeStateUninitialized:
		return "Uninitialized"
	case NodeStateInitialized:
		return "Initialized"
	case NodeStateStarting:
		return "Starting"
	case NodeStateRunning:
		return "Running"
	case NodeStateStopping:
		return "Stopping"
	case NodeStateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// IsRunning returns true if the node accepts data model operations.
func (s NodeState) IsRunning() bool {
	return s == NodeStateRunning
}

// CanStart returns true if Start() can be called in this state.
func (s NodeState) CanStart() bool {
	return s == NodeStateInitialized
}

// CanStop returns true if Stop() can be called in this state. A node that
// was never started can be stopped to release its event loop.
func (s NodeState) CanStop() bool {
	return s == NodeStateRunning || s == NodeStateInitialized
}
