package datamodel

import "sync"

// BasicEndpoint is an in-memory Endpoint.
type BasicEndpoint struct {
	mu          sync.RWMutex
	entry       EndpointEntry
	clusters    []Cluster
	deviceTypes []DeviceTypeEntry
}

// NewEndpoint returns an endpoint using the Tree composition pattern.
func NewEndpoint(id EndpointID) *BasicEndpoint {
	return &BasicEndpoint{
		entry: EndpointEntry{ID: id, CompositionPattern: CompositionTree},
	}
}

func (e *BasicEndpoint) ID() EndpointID { return e.entry.ID }

func (e *BasicEndpoint) Entry() EndpointEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entry
}

// SetParent places the endpoint under parentID in the composition tree.
func (e *BasicEndpoint) SetParent(parentID EndpointID) {
	e.mu.Lock()
	e.entry.ParentID = &parentID
	e.mu.Unlock()
}

// SetCompositionPattern changes how PartsList is derived for this endpoint.
func (e *BasicEndpoint) SetCompositionPattern(pattern EndpointComposition) {
	e.mu.Lock()
	e.entry.CompositionPattern = pattern
	e.mu.Unlock()
}

// AddCluster registers c. It fails with ErrClusterExists on a duplicate ID.
func (e *BasicEndpoint) AddCluster(c Cluster) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.clusters {
		if existing.ID() == c.ID() {
			return ErrClusterExists
		}
	}
	e.clusters = append(e.clusters, c)
	return nil
}

// GetCluster returns the cluster with the given ID, or nil.
func (e *BasicEndpoint) GetCluster(id ClusterID) Cluster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.clusters {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// GetClusters returns a snapshot of the clusters in registration order.
func (e *BasicEndpoint) GetClusters() []Cluster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Cluster(nil), e.clusters...)
}

// AddDeviceType appends a device type.
func (e *BasicEndpoint) AddDeviceType(dt DeviceTypeEntry) {
	e.mu.Lock()
	e.deviceTypes = append(e.deviceTypes, dt)
	e.mu.Unlock()
}

func (e *BasicEndpoint) GetDeviceTypes() []DeviceTypeEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]DeviceTypeEntry(nil), e.deviceTypes...)
}

var _ Endpoint = (*BasicEndpoint)(nil)
