package matter

import "errors"

// Package-level errors.
var (
	// ErrAlreadyStarted is returned when Start() is called on a started node.
	ErrAlreadyStarted = errors.New("matter: node already started")

	// ErrNotStarted is returned when an operation requires a running node.
	ErrNotStarted = errors.New("matter: node not started")

	// ErrAlreadyStopped is returned when the node has been stopped.
	ErrAlreadyStopped = errors.New("matter: node already stopped")

	// ErrInvalidConfig is returned when NodeConfig validation fails.
	ErrInvalidConfig = errors.New("matter: invalid configuration")

	// ErrRootEndpointReserved is returned when trying to add or remove endpoint 0.
	ErrRootEndpointReserved = errors.New("matter: endpoint 0 is reserved for root endpoint")

	// ErrEndpointMismatch is returned when a cluster is added to an
	// endpoint other than the one it was built for.
	ErrEndpointMismatch = errors.New("matter: cluster endpoint does not match")
)
