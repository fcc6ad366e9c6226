package datamodel

import "fmt"

// Identifier types of the data model hierarchy.
type (
	// EndpointID is a 16-bit endpoint number.
	EndpointID uint16

	// ClusterID is a 32-bit cluster identifier.
	ClusterID uint32

	// AttributeID is a 32-bit attribute identifier.
	AttributeID uint32

	// CommandID is a 32-bit command identifier.
	CommandID uint32

	// DataVersion is the per-cluster-instance change counter.
	DataVersion uint32

	// DeviceTypeID is a 32-bit device type identifier.
	DeviceTypeID uint32
)

// ConcreteClusterPath identifies a cluster instance on an endpoint.
type ConcreteClusterPath struct {
	Endpoint EndpointID
	Cluster  ClusterID
}

func (p ConcreteClusterPath) String() string {
	return fmt.Sprintf("%d/0x%04x", p.Endpoint, uint32(p.Cluster))
}

// ConcreteAttributePath identifies one attribute of a cluster instance.
type ConcreteAttributePath struct {
	Endpoint  EndpointID
	Cluster   ClusterID
	Attribute AttributeID
}

// ClusterPath returns the cluster portion of the path.
func (p ConcreteAttributePath) ClusterPath() ConcreteClusterPath {
	return ConcreteClusterPath{Endpoint: p.Endpoint, Cluster: p.Cluster}
}

func (p ConcreteAttributePath) String() string {
	return fmt.Sprintf("%d/0x%04x/0x%04x", p.Endpoint, uint32(p.Cluster), uint32(p.Attribute))
}

// ConcreteCommandPath identifies one command of a cluster instance.
type ConcreteCommandPath struct {
	Endpoint EndpointID
	Cluster  ClusterID
	Command  CommandID
}

// ClusterPath returns the cluster portion of the path.
func (p ConcreteCommandPath) ClusterPath() ConcreteClusterPath {
	return ConcreteClusterPath{Endpoint: p.Endpoint, Cluster: p.Cluster}
}
