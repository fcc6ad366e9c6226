package matter

import (
	"fmt"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// Endpoint wraps datamodel.BasicEndpoint with a fluent builder API.
// Use NewEndpoint to create an endpoint, then chain methods to configure it.
// Errors raised while chaining are kept and returned by Node.AddEndpoint.
//
// Example:
//
//	ep := matter.NewEndpoint(1).
//	    WithDeviceType(datamodel.DeviceTypeDimmableLight, 3).
//	    AddCluster(onOff).
//	    AddCluster(level)
type Endpoint struct {
	endpoint *datamodel.BasicEndpoint
	err      error
}

// NewEndpoint creates a new endpoint with the given ID.
// Endpoint 0 is reserved for the root endpoint and is created automatically.
func NewEndpoint(id datamodel.EndpointID) *Endpoint {
	return &Endpoint{endpoint: datamodel.NewEndpoint(id)}
}

// WithDeviceType adds a device type to the endpoint.
//
// Common device types:
//   - 0x0100: On/Off Light
//   - 0x0101: Dimmable Light
func (e *Endpoint) WithDeviceType(deviceType datamodel.DeviceTypeID, revision uint8) *Endpoint {
	e.endpoint.AddDeviceType(datamodel.DeviceTypeEntry{
		DeviceTypeID: deviceType,
		Revision:     revision,
	})
	return e
}

// WithParent places the endpoint under parent in the composition tree.
func (e *Endpoint) WithParent(parent datamodel.EndpointID) *Endpoint {
	e.endpoint.SetParent(parent)
	return e
}

// WithComposition sets how the endpoint's PartsList is derived.
func (e *Endpoint) WithComposition(pattern datamodel.EndpointComposition) *Endpoint {
	e.endpoint.SetCompositionPattern(pattern)
	return e
}

// AddCluster adds a cluster implementation to the endpoint.
func (e *Endpoint) AddCluster(cluster datamodel.Cluster) *Endpoint {
	if e.err != nil {
		return e
	}
	if cluster.EndpointID() != e.ID() {
		e.err = fmt.Errorf("%w: cluster 0x%04x built for endpoint %d, added to %d",
			ErrEndpointMismatch, uint32(cluster.ID()), cluster.EndpointID(), e.ID())
		return e
	}
	if err := e.endpoint.AddCluster(cluster); err != nil {
		e.err = fmt.Errorf("endpoint %d: cluster 0x%04x: %w", e.ID(), uint32(cluster.ID()), err)
	}
	return e
}

// ID returns the endpoint ID.
func (e *Endpoint) ID() datamodel.EndpointID {
	return e.endpoint.ID()
}

// Err returns the first error raised while building the endpoint.
func (e *Endpoint) Err() error {
	return e.err
}

// DeviceTypes returns the configured device types.
func (e *Endpoint) DeviceTypes() []datamodel.DeviceTypeEntry {
	return e.endpoint.GetDeviceTypes()
}

// GetCluster returns a cluster by ID, or nil if not found.
func (e *Endpoint) GetCluster(id datamodel.ClusterID) datamodel.Cluster {
	return e.endpoint.GetCluster(id)
}

// GetClusters returns all clusters on this endpoint.
func (e *Endpoint) GetClusters() []datamodel.Cluster {
	return e.endpoint.GetClusters()
}

// Inner returns the underlying BasicEndpoint.
func (e *Endpoint) Inner() *datamodel.BasicEndpoint {
	return e.endpoint
}
