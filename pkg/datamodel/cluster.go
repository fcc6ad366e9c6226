package datamodel

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"

	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// ClusterBase carries the identity, global attributes, data version and
// startup context shared by every cluster implementation. Embed it.
type ClusterBase struct {
	id          ClusterID
	endpointID  EndpointID
	revision    uint16
	featureMap  uint32
	dataVersion atomic.Uint32

	serverCtx ServerClusterContext
}

// NewClusterBase returns a base with a random initial data version.
func NewClusterBase(id ClusterID, endpointID EndpointID, revision uint16) *ClusterBase {
	cb := &ClusterBase{id: id, endpointID: endpointID, revision: revision}
	var seed [4]byte
	if _, err := rand.Read(seed[:]); err == nil {
		cb.dataVersion.Store(binary.LittleEndian.Uint32(seed[:]))
	} else {
		cb.dataVersion.Store(1)
	}
	return cb
}

func (c *ClusterBase) ID() ClusterID            { return c.id }
func (c *ClusterBase) EndpointID() EndpointID   { return c.endpointID }
func (c *ClusterBase) ClusterRevision() uint16  { return c.revision }
func (c *ClusterBase) FeatureMap() uint32       { return c.featureMap }
func (c *ClusterBase) DataVersion() DataVersion { return DataVersion(c.dataVersion.Load()) }

// SetFeatureMap replaces the feature bits. Call it before the cluster is registered.
func (c *ClusterBase) SetFeatureMap(features uint32) {
	c.featureMap = features
}

// IncrementDataVersion bumps the data version.
func (c *ClusterBase) IncrementDataVersion() {
	c.dataVersion.Add(1)
}

// Path returns the cluster path of this instance.
func (c *ClusterBase) Path() ConcreteClusterPath {
	return ConcreteClusterPath{Endpoint: c.endpointID, Cluster: c.id}
}

// AttributePath returns the path of attrID on this instance.
func (c *ClusterBase) AttributePath(attrID AttributeID) ConcreteAttributePath {
	return ConcreteAttributePath{Endpoint: c.endpointID, Cluster: c.id, Attribute: attrID}
}

// Attach stores the context handed to Startup.
func (c *ClusterBase) Attach(ctx ServerClusterContext) {
	c.serverCtx = ctx
}

// Detach drops the startup context so no further reports or writes escape.
func (c *ClusterBase) Detach() {
	c.serverCtx = ServerClusterContext{}
}

// Storage returns the attached attribute storage, or nil.
func (c *ClusterBase) Storage() AttributeStorage {
	return c.serverCtx.Storage
}

// NotifyAttributeChanged bumps the data version and reports attrID to the
// attached listener, if any.
func (c *ClusterBase) NotifyAttributeChanged(attrID AttributeID) {
	c.IncrementDataVersion()
	if l := c.serverCtx.Listener; l != nil {
		l.OnAttributeChanged(c.AttributePath(attrID))
	}
}

// ReadGlobalAttribute encodes attrID if it is a global attribute and
// reports whether it did so.
func (c *ClusterBase) ReadGlobalAttribute(ctx context.Context, attrID AttributeID, w *tlv.Writer, attrList []AttributeEntry, cmdList []CommandEntry, genCmdList []CommandID) (bool, error) {
	var ids []uint64
	switch attrID {
	case GlobalAttrClusterRevision:
		return true, w.PutUint(tlv.Anonymous(), uint64(c.revision))
	case GlobalAttrFeatureMap:
		return true, w.PutUint(tlv.Anonymous(), uint64(c.featureMap))
	case GlobalAttrAttributeList:
		for _, a := range attrList {
			ids = append(ids, uint64(a.ID))
		}
	case GlobalAttrAcceptedCommandList:
		for _, cmd := range cmdList {
			ids = append(ids, uint64(cmd.ID))
		}
	case GlobalAttrGeneratedCommandList:
		for _, id := range genCmdList {
			ids = append(ids, uint64(id))
		}
	default:
		return false, nil
	}
	return true, writeIDArray(w, ids)
}

func writeIDArray(w *tlv.Writer, ids []uint64) error {
	if err := w.StartArray(tlv.Anonymous()); err != nil {
		return err
	}
	for _, id := range ids {
		if err := w.PutUint(tlv.Anonymous(), id); err != nil {
			return err
		}
	}
	return w.EndContainer()
}

// MergeAttributeLists appends the global attribute entries to clusterAttrs.
func MergeAttributeLists(clusterAttrs []AttributeEntry) []AttributeEntry {
	out := make([]AttributeEntry, 0, len(clusterAttrs)+5)
	out = append(out, clusterAttrs...)
	return append(out, GlobalAttributeEntries()...)
}

// FindAttribute returns the entry for id, or nil.
func FindAttribute(list []AttributeEntry, id AttributeID) *AttributeEntry {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

// FindCommand returns the entry for id, or nil.
func FindCommand(list []CommandEntry, id CommandID) *CommandEntry {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}
