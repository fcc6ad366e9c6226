// Package descriptor implements the Descriptor Cluster (0x001D).
//
// Every endpoint carries one. It lists the endpoint's device types, its
// server and client clusters, and the endpoints composed under it, all
// derived from the hosting node on each read.
package descriptor

import (
	"context"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// Cluster constants.
const (
	ClusterID       datamodel.ClusterID = datamodel.ClusterDescriptor
	ClusterRevision uint16              = 2
)

// Attribute IDs.
const (
	AttrDeviceTypeList datamodel.AttributeID = 0x0000
	AttrServerList     datamodel.AttributeID = 0x0001
	AttrClientList     datamodel.AttributeID = 0x0002
	AttrPartsList      datamodel.AttributeID = 0x0003
)

// Config provides the endpoint and the node it lives in.
type Config struct {
	EndpointID datamodel.EndpointID
	Node       datamodel.Node

	// ClientClusters lists client cluster IDs, empty for a pure server.
	ClientClusters []datamodel.ClusterID
}

// Cluster implements the Descriptor cluster (0x001D).
type Cluster struct {
	*datamodel.ClusterBase
	node    datamodel.Node
	clients []datamodel.ClusterID
	attrs   []datamodel.AttributeEntry
}

// New creates a Descriptor cluster.
func New(cfg Config) *Cluster {
	view := datamodel.PrivilegeView
	fixedList := datamodel.AttrQualityList | datamodel.AttrQualityFixed
	return &Cluster{
		ClusterBase: datamodel.NewClusterBase(ClusterID, cfg.EndpointID, ClusterRevision),
		node:        cfg.Node,
		clients:     append([]datamodel.ClusterID(nil), cfg.ClientClusters...),
		attrs: datamodel.MergeAttributeLists([]datamodel.AttributeEntry{
			datamodel.NewReadOnlyAttribute(AttrDeviceTypeList, fixedList, view),
			datamodel.NewReadOnlyAttribute(AttrServerList, fixedList, view),
			datamodel.NewReadOnlyAttribute(AttrClientList, fixedList, view),
			datamodel.NewReadOnlyAttribute(AttrPartsList, datamodel.AttrQualityList, view),
		}),
	}
}

// AttributeList implements datamodel.Cluster.
func (c *Cluster) AttributeList() []datamodel.AttributeEntry { return c.attrs }

// AcceptedCommandList implements datamodel.Cluster.
func (c *Cluster) AcceptedCommandList() []datamodel.CommandEntry { return nil }

// GeneratedCommandList implements datamodel.Cluster.
func (c *Cluster) GeneratedCommandList() []datamodel.CommandID { return nil }

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(ctx context.Context, req datamodel.ReadAttributeRequest, w *tlv.Writer) error {
	handled, err := c.ReadGlobalAttribute(ctx, req.Path.Attribute, w, c.attrs, nil, nil)
	if handled || err != nil {
		return err
	}

	switch req.Path.Attribute {
	case AttrDeviceTypeList:
		ep := c.endpoint()
		if ep == nil {
			return datamodel.ErrEndpointNotFound
		}
		return putDeviceTypes(w, ep.GetDeviceTypes())
	case AttrServerList:
		ep := c.endpoint()
		if ep == nil {
			return datamodel.ErrEndpointNotFound
		}
		var ids []uint64
		for _, cl := range ep.GetClusters() {
			ids = append(ids, uint64(cl.ID()))
		}
		return putUintArray(w, ids)
	case AttrClientList:
		ids := make([]uint64, 0, len(c.clients))
		for _, id := range c.clients {
			ids = append(ids, uint64(id))
		}
		return putUintArray(w, ids)
	case AttrPartsList:
		var ids []uint64
		for _, id := range PartsList(c.node, c.EndpointID()) {
			ids = append(ids, uint64(id))
		}
		return putUintArray(w, ids)
	default:
		return datamodel.ErrUnsupportedAttribute
	}
}

// WriteAttribute implements datamodel.Cluster.
func (c *Cluster) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	if datamodel.FindAttribute(c.attrs, req.Path.Attribute) == nil {
		return datamodel.ErrUnsupportedAttribute
	}
	return datamodel.ErrUnsupportedWrite
}

// InvokeCommand implements datamodel.Cluster.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	return nil, datamodel.ErrUnsupportedCommand
}

func (c *Cluster) endpoint() datamodel.Endpoint {
	if c.node == nil {
		return nil
	}
	return c.node.GetEndpoint(c.EndpointID())
}

// PartsList returns the endpoints composed under id. The root endpoint
// owns every other endpoint. Elsewhere a Tree endpoint lists its direct
// children and a FullFamily endpoint all of its descendants.
func PartsList(node datamodel.Node, id datamodel.EndpointID) []datamodel.EndpointID {
	if node == nil {
		return nil
	}
	endpoints := node.GetEndpoints()
	parents := make(map[datamodel.EndpointID]*datamodel.EndpointID, len(endpoints))
	for _, ep := range endpoints {
		parents[ep.ID()] = ep.Entry().ParentID
	}

	var pattern datamodel.EndpointComposition
	if self := node.GetEndpoint(id); self != nil {
		pattern = self.Entry().CompositionPattern
	}

	var parts []datamodel.EndpointID
	for _, ep := range endpoints {
		child := ep.ID()
		if child == id {
			continue
		}
		switch {
		case id == 0:
			parts = append(parts, child)
		case pattern == datamodel.CompositionTree:
			if p := parents[child]; p != nil && *p == id {
				parts = append(parts, child)
			}
		case pattern == datamodel.CompositionFullFamily:
			if descends(parents, child, id) {
				parts = append(parts, child)
			}
		}
	}
	return parts
}

// descends walks child's parent chain looking for ancestor. The walk is
// bounded so a malformed cycle terminates.
func descends(parents map[datamodel.EndpointID]*datamodel.EndpointID, child, ancestor datamodel.EndpointID) bool {
	for range len(parents) {
		p := parents[child]
		if p == nil {
			return false
		}
		if *p == ancestor {
			return true
		}
		child = *p
	}
	return false
}

func putDeviceTypes(w *tlv.Writer, types []datamodel.DeviceTypeEntry) error {
	if err := w.StartArray(tlv.Anonymous()); err != nil {
		return err
	}
	for _, dt := range types {
		if err := w.StartStructure(tlv.Anonymous()); err != nil {
			return err
		}
		if err := w.PutUint(tlv.ContextTag(0), uint64(dt.DeviceTypeID)); err != nil {
			return err
		}
		if err := w.PutUint(tlv.ContextTag(1), uint64(dt.Revision)); err != nil {
			return err
		}
		if err := w.EndContainer(); err != nil {
			return err
		}
	}
	return w.EndContainer()
}

func putUintArray(w *tlv.Writer, values []uint64) error {
	if err := w.StartArray(tlv.Anonymous()); err != nil {
		return err
	}
	for _, v := range values {
		if err := w.PutUint(tlv.Anonymous(), v); err != nil {
			return err
		}
	}
	return w.EndContainer()
}
