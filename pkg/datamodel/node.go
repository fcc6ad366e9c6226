package datamodel

import "sync"

// BasicNode is an in-memory Node. Endpoint registration is safe for
// concurrent use.
type BasicNode struct {
	mu        sync.RWMutex
	endpoints []Endpoint
	listener  AttributeChangeListener
}

// NewNode returns an empty node.
func NewNode() *BasicNode {
	return &BasicNode{}
}

func (n *BasicNode) indexOf(id EndpointID) int {
	for i, ep := range n.endpoints {
		if ep.ID() == id {
			return i
		}
	}
	return -1
}

// AddEndpoint registers ep. It fails with ErrEndpointExists on a duplicate ID.
func (n *BasicNode) AddEndpoint(ep Endpoint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.indexOf(ep.ID()) >= 0 {
		return ErrEndpointExists
	}
	n.endpoints = append(n.endpoints, ep)
	return nil
}

// RemoveEndpoint unregisters the endpoint with the given ID.
func (n *BasicNode) RemoveEndpoint(id EndpointID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := n.indexOf(id)
	if i < 0 {
		return ErrEndpointNotFound
	}
	n.endpoints = append(n.endpoints[:i], n.endpoints[i+1:]...)
	return nil
}

// GetEndpoint returns the endpoint with the given ID, or nil.
func (n *BasicNode) GetEndpoint(id EndpointID) Endpoint {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if i := n.indexOf(id); i >= 0 {
		return n.endpoints[i]
	}
	return nil
}

// GetEndpoints returns a snapshot of the endpoints in registration order.
func (n *BasicNode) GetEndpoints() []Endpoint {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]Endpoint(nil), n.endpoints...)
}

// EndpointCount returns the number of registered endpoints.
func (n *BasicNode) EndpointCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.endpoints)
}

// GetCluster looks a cluster up by endpoint and cluster ID.
func (n *BasicNode) GetCluster(endpointID EndpointID, clusterID ClusterID) Cluster {
	ep := n.GetEndpoint(endpointID)
	if ep == nil {
		return nil
	}
	return ep.GetCluster(clusterID)
}

// SetAttributeChangeListener sets the single listener for change reports.
func (n *BasicNode) SetAttributeChangeListener(listener AttributeChangeListener) {
	n.mu.Lock()
	n.listener = listener
	n.mu.Unlock()
}

// OnAttributeChanged forwards a change report to the listener. BasicNode
// is itself an AttributeChangeListener so clusters can be attached to it.
func (n *BasicNode) OnAttributeChanged(path ConcreteAttributePath) {
	n.mu.RLock()
	l := n.listener
	n.mu.RUnlock()
	if l != nil {
		l.OnAttributeChanged(path)
	}
}

var (
	_ DataModelProvider       = (*BasicNode)(nil)
	_ AttributeChangeListener = (*BasicNode)(nil)
)
