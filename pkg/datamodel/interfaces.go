package datamodel

import (
	"context"

	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// Node is the top of the data model hierarchy and holds endpoints.
type Node interface {
	// GetEndpoint returns the endpoint with the given ID, or nil.
	GetEndpoint(id EndpointID) Endpoint

	// GetEndpoints returns all endpoints in registration order.
	GetEndpoints() []Endpoint
}

// Endpoint is a device type instance holding server clusters.
type Endpoint interface {
	ID() EndpointID
	Entry() EndpointEntry

	// GetCluster returns the server cluster with the given ID, or nil.
	GetCluster(id ClusterID) Cluster

	// GetClusters returns all server clusters in registration order.
	GetClusters() []Cluster

	GetDeviceTypes() []DeviceTypeEntry
}

// Cluster is a server cluster instance on an endpoint.
type Cluster interface {
	ID() ClusterID
	EndpointID() EndpointID

	// DataVersion increments whenever any attribute of the instance changes.
	DataVersion() DataVersion

	ClusterRevision() uint16
	FeatureMap() uint32

	// AttributeList includes the global attributes.
	AttributeList() []AttributeEntry
	AcceptedCommandList() []CommandEntry
	GeneratedCommandList() []CommandID

	// ReadAttribute encodes the attribute as a single anonymous TLV element.
	ReadAttribute(ctx context.Context, req ReadAttributeRequest, w *tlv.Writer) error

	// WriteAttribute decodes the new value from r. The reader sits before
	// the value element; the cluster calls Next.
	WriteAttribute(ctx context.Context, req WriteAttributeRequest, r *tlv.Reader) error

	// InvokeCommand decodes the command fields structure from r, which
	// sits before it. The response payload is nil for status-only commands.
	InvokeCommand(ctx context.Context, req InvokeRequest, r *tlv.Reader) ([]byte, error)
}

// ServerClusterContext carries the services a cluster receives at startup.
type ServerClusterContext struct {
	// Storage persists non-volatile attributes. May be nil.
	Storage AttributeStorage

	// Listener receives attribute change reports. May be nil.
	Listener AttributeChangeListener
}

// ClusterWithLifecycle is implemented by clusters that restore state or
// release resources when the hosting node starts and stops.
type ClusterWithLifecycle interface {
	Cluster

	// Startup runs once before any command or attribute access.
	Startup(ctx ServerClusterContext) error

	// Shutdown cancels pending work. The cluster must not call back into
	// its context afterwards.
	Shutdown()
}

// AttributeChangeListener is told when an attribute must be reported.
type AttributeChangeListener interface {
	OnAttributeChanged(path ConcreteAttributePath)
}

// DataModelProvider is a Node that forwards attribute changes to a listener.
type DataModelProvider interface {
	Node
	SetAttributeChangeListener(listener AttributeChangeListener)
}
