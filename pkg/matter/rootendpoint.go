package matter

import (
	"github.com/backkem/matter-dimmer/pkg/clusters/descriptor"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// RootEndpointID is the ID of the root endpoint.
const RootEndpointID = datamodel.EndpointRoot

// RootDeviceTypeRevision is the revision for the root device type.
const RootDeviceTypeRevision uint8 = 1

// createRootEndpoint creates endpoint 0. It carries the Root Node device
// type and a Descriptor whose PartsList covers every other endpoint.
func createRootEndpoint(node datamodel.Node) *Endpoint {
	return NewEndpoint(RootEndpointID).
		WithDeviceType(datamodel.DeviceTypeRootNode, RootDeviceTypeRevision).
		AddCluster(descriptor.New(descriptor.Config{
			EndpointID: RootEndpointID,
			Node:       node,
		}))
}

// ensureDescriptor adds a Descriptor cluster to ep unless it has one.
func ensureDescriptor(ep *Endpoint, node datamodel.Node) {
	if ep.GetCluster(datamodel.ClusterDescriptor) != nil {
		return
	}
	ep.AddCluster(descriptor.New(descriptor.Config{
		EndpointID: ep.ID(),
		Node:       node,
	}))
}
