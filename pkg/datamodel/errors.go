package datamodel

import "errors"

// Errors returned by datamodel operations. Cluster implementations return
// these from ReadAttribute, WriteAttribute and InvokeCommand; StatusOf maps
// them onto interaction model status codes.
var (
	ErrEndpointNotFound = errors.New("endpoint not found")
	ErrEndpointExists   = errors.New("endpoint already exists")
	ErrClusterNotFound  = errors.New("cluster not found")
	ErrClusterExists    = errors.New("cluster already exists")

	// ErrConstraintError indicates a value outside its permitted range.
	ErrConstraintError = errors.New("constraint error")

	// ErrInvalidCommand indicates malformed or semantically invalid command fields.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvalidInState indicates the operation is not allowed right now.
	ErrInvalidInState = errors.New("invalid in current state")

	// ErrUnsupportedAttribute indicates the attribute is not supported by the cluster.
	ErrUnsupportedAttribute = errors.New("unsupported attribute")

	// ErrUnsupportedWrite indicates the attribute exists but is read-only.
	ErrUnsupportedWrite = errors.New("unsupported write")

	// ErrUnsupportedCommand indicates the command is not supported by the cluster.
	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrFailure is the catch-all for operations that could not be carried out.
	ErrFailure = errors.New("failure")
)
