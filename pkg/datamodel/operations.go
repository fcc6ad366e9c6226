package datamodel

// OperationFlags qualify a data model operation.
type OperationFlags uint32

const (
	// OpFlagInternal marks operations originating on the node itself, such
	// as the application or a local bridge, rather than a remote peer.
	OpFlagInternal OperationFlags = 1 << iota
)

// Has reports whether all bits of flag are set.
func (f OperationFlags) Has(flag OperationFlags) bool {
	return f&flag == flag
}

// ReadAttributeRequest addresses an attribute read.
type ReadAttributeRequest struct {
	Path           ConcreteAttributePath
	OperationFlags OperationFlags
}

// IsInternal reports whether the read originated on the node.
func (r *ReadAttributeRequest) IsInternal() bool {
	return r.OperationFlags.Has(OpFlagInternal)
}

// WriteAttributeRequest addresses an attribute write.
type WriteAttributeRequest struct {
	Path           ConcreteAttributePath
	OperationFlags OperationFlags

	// DataVersion, when set, must match the cluster's current version.
	DataVersion *DataVersion
}

// IsInternal reports whether the write originated on the node.
func (r *WriteAttributeRequest) IsInternal() bool {
	return r.OperationFlags.Has(OpFlagInternal)
}

// InvokeRequest addresses a command invocation.
type InvokeRequest struct {
	Path           ConcreteCommandPath
	OperationFlags OperationFlags
}

// IsInternal reports whether the invoke originated on the node.
func (r *InvokeRequest) IsInternal() bool {
	return r.OperationFlags.Has(OpFlagInternal)
}
