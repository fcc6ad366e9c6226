package matter

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/pion/logging"
	"github.com/tv42/topic"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/persistence"
	"github.com/backkem/matter-dimmer/pkg/timer"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// AttributeReport is broadcast to subscribers whenever a cluster marks an
// attribute as requiring a report.
type AttributeReport struct {
	Path datamodel.ConcreteAttributePath

	// DataVersion is the cluster's version after the change.
	DataVersion datamodel.DataVersion
}

// Node hosts endpoints and their server clusters.
//
// All cluster work runs on a single event loop: timers, and every
// ReadAttribute, WriteAttribute, InvokeCommand and Do call. Clusters built
// for the node must use Timer() as their timer delegate so transition
// ticks are serialized with commands.
type Node struct {
	config NodeConfig
	log    logging.LeveledLogger

	mu            sync.RWMutex
	state         NodeState
	reportsClosed bool

	loop      *timer.Loop
	dataModel *datamodel.BasicNode
	storage   datamodel.AttributeStorage
	reports   *topic.Topic

	endpoints map[datamodel.EndpointID]*Endpoint
}

// NewNode creates a Node and starts its event loop. The root endpoint is
// created automatically.
func NewNode(config NodeConfig) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	storage := config.Storage
	if storage == nil {
		storage = persistence.NewMemoryStorage()
	}

	n := &Node{
		config:    config,
		log:       config.LoggerFactory.NewLogger("matter"),
		dataModel: datamodel.NewNode(),
		storage:   storage,
		reports:   topic.New(),
		endpoints: make(map[datamodel.EndpointID]*Endpoint),
	}
	n.loop = timer.NewLoop(timer.LoopConfig{
		QueueSize:     config.QueueSize,
		LoggerFactory: config.LoggerFactory,
	})
	n.dataModel.SetAttributeChangeListener(n)

	root := createRootEndpoint(n.dataModel)
	if err := n.register(root); err != nil {
		n.loop.Close()
		close(n.reports.Broadcast)
		return nil, fmt.Errorf("matter: root endpoint: %w", err)
	}

	n.setState(NodeStateInitialized)
	return n, nil
}

// Timer returns the node's event loop for use as a cluster timer delegate.
func (n *Node) Timer() *timer.Loop {
	return n.loop
}

// Storage returns the attribute storage handed to clusters at startup.
func (n *Node) Storage() datamodel.AttributeStorage {
	return n.storage
}

// DataModel returns the node's endpoint tree.
func (n *Node) DataModel() datamodel.Node {
	return n.dataModel
}

// State returns the current lifecycle state.
func (n *Node) State() NodeState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

func (n *Node) setState(state NodeState) {
	n.mu.Lock()
	n.state = state
	n.mu.Unlock()
	n.log.Debugf("state -> %s", state)
	if n.config.OnStateChanged != nil {
		n.config.OnStateChanged(state)
	}
}

// Start runs Startup on every cluster that has a lifecycle, in endpoint
// registration order. If any cluster fails, the clusters already started
// are shut down and the node returns to Initialized.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	switch {
	case n.state == NodeStateStopping || n.state == NodeStateStopped:
		n.mu.Unlock()
		return ErrAlreadyStopped
	case !n.state.CanStart():
		n.mu.Unlock()
		return ErrAlreadyStarted
	}
	n.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	n.setState(NodeStateStarting)

	var err error
	if lerr := n.loop.Do(func() {
		err = n.startup(n.dataModel.GetEndpoints())
	}); lerr != nil {
		err = lerr
	}
	if err != nil {
		n.setState(NodeStateInitialized)
		return err
	}

	n.setState(NodeStateRunning)
	n.log.Infof("node started with %d endpoints", n.dataModel.EndpointCount())
	return nil
}

// Stop shuts clusters down in reverse order, then closes the event loop
// and the report broker. Subscriber channels are closed.
func (n *Node) Stop() error {
	n.mu.Lock()
	if !n.state.CanStop() {
		state := n.state
		n.mu.Unlock()
		if state == NodeStateStopping || state == NodeStateStopped {
			return ErrAlreadyStopped
		}
		return ErrNotStarted
	}
	wasRunning := n.state.IsRunning()
	n.mu.Unlock()

	n.setState(NodeStateStopping)
	if wasRunning {
		if err := n.loop.Do(func() {
			n.shutdown(n.dataModel.GetEndpoints())
		}); err != nil {
			n.log.Warnf("shutdown: %v", err)
		}
	}
	n.loop.Close()

	n.mu.Lock()
	n.reportsClosed = true
	close(n.reports.Broadcast)
	n.mu.Unlock()

	n.setState(NodeStateStopped)
	n.log.Info("node stopped")
	return nil
}

// startup runs on the loop.
func (n *Node) startup(endpoints []datamodel.Endpoint) error {
	ctx := datamodel.ServerClusterContext{
		Storage:  n.storage,
		Listener: n.dataModel,
	}
	var started []datamodel.ClusterWithLifecycle
	for _, ep := range endpoints {
		for _, c := range ep.GetClusters() {
			lc, ok := c.(datamodel.ClusterWithLifecycle)
			if !ok {
				continue
			}
			if err := lc.Startup(ctx); err != nil {
				for i := len(started) - 1; i >= 0; i-- {
					started[i].Shutdown()
				}
				return fmt.Errorf("matter: startup %d/0x%04x: %w", ep.ID(), uint32(c.ID()), err)
			}
			started = append(started, lc)
		}
	}
	return nil
}

// shutdown runs on the loop.
func (n *Node) shutdown(endpoints []datamodel.Endpoint) {
	for i := len(endpoints) - 1; i >= 0; i-- {
		clusters := endpoints[i].GetClusters()
		for j := len(clusters) - 1; j >= 0; j-- {
			if lc, ok := clusters[j].(datamodel.ClusterWithLifecycle); ok {
				lc.Shutdown()
			}
		}
	}
}

// AddEndpoint adds an application endpoint. A Descriptor cluster is added
// when the endpoint lacks one. On a running node the endpoint's clusters
// are started immediately.
func (n *Node) AddEndpoint(ep *Endpoint) error {
	if ep.ID() == RootEndpointID {
		return ErrRootEndpointReserved
	}
	state := n.State()
	if state == NodeStateStopping || state == NodeStateStopped {
		return ErrAlreadyStopped
	}
	ensureDescriptor(ep, n.dataModel)
	if err := n.register(ep); err != nil {
		return err
	}
	if !state.IsRunning() {
		return nil
	}

	var err error
	if lerr := n.loop.Do(func() {
		err = n.startup([]datamodel.Endpoint{ep.Inner()})
	}); lerr != nil {
		err = lerr
	}
	if err != nil {
		n.unregister(ep.ID())
		return err
	}
	return nil
}

func (n *Node) register(ep *Endpoint) error {
	if err := ep.Err(); err != nil {
		return err
	}
	if err := n.dataModel.AddEndpoint(ep.Inner()); err != nil {
		return fmt.Errorf("matter: endpoint %d: %w", ep.ID(), err)
	}
	n.mu.Lock()
	n.endpoints[ep.ID()] = ep
	n.mu.Unlock()
	return nil
}

func (n *Node) unregister(id datamodel.EndpointID) {
	if err := n.dataModel.RemoveEndpoint(id); err != nil {
		n.log.Warnf("remove endpoint %d: %v", id, err)
	}
	n.mu.Lock()
	delete(n.endpoints, id)
	n.mu.Unlock()
}

// RemoveEndpoint removes an application endpoint, shutting its clusters
// down first when the node is running.
func (n *Node) RemoveEndpoint(id datamodel.EndpointID) error {
	if id == RootEndpointID {
		return ErrRootEndpointReserved
	}
	ep := n.GetEndpoint(id)
	if ep == nil {
		return fmt.Errorf("matter: endpoint %d: %w", id, datamodel.ErrEndpointNotFound)
	}
	if n.State().IsRunning() {
		if err := n.loop.Do(func() {
			n.shutdown([]datamodel.Endpoint{ep.Inner()})
		}); err != nil {
			return err
		}
	}
	n.unregister(id)
	return nil
}

// GetEndpoint returns the endpoint with the given ID, or nil.
func (n *Node) GetEndpoint(id datamodel.EndpointID) *Endpoint {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.endpoints[id]
}

// Do runs fn on the event loop and waits for it to return. It must not be
// called from the loop itself, which includes cluster callbacks.
func (n *Node) Do(fn func()) error {
	if !n.State().IsRunning() {
		return ErrNotStarted
	}
	return n.loop.Do(fn)
}

// ReadAttribute reads an attribute and returns it as a single anonymous
// TLV element.
func (n *Node) ReadAttribute(ctx context.Context, path datamodel.ConcreteAttributePath) ([]byte, error) {
	var buf bytes.Buffer
	err := n.withCluster(ctx, path.ClusterPath(), func(c datamodel.Cluster) error {
		req := datamodel.ReadAttributeRequest{Path: path, OperationFlags: datamodel.OpFlagInternal}
		return c.ReadAttribute(ctx, req, tlv.NewWriter(&buf))
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteAttribute writes an attribute from a single anonymous TLV element.
func (n *Node) WriteAttribute(ctx context.Context, path datamodel.ConcreteAttributePath, value []byte) error {
	return n.withCluster(ctx, path.ClusterPath(), func(c datamodel.Cluster) error {
		req := datamodel.WriteAttributeRequest{Path: path, OperationFlags: datamodel.OpFlagInternal}
		return c.WriteAttribute(ctx, req, tlv.NewReader(bytes.NewReader(value)))
	})
}

// InvokeCommand invokes a command with a TLV-encoded fields structure and
// returns the response payload, which is nil for status-only commands.
func (n *Node) InvokeCommand(ctx context.Context, path datamodel.ConcreteCommandPath, fields []byte) ([]byte, error) {
	var resp []byte
	err := n.withCluster(ctx, path.ClusterPath(), func(c datamodel.Cluster) error {
		req := datamodel.InvokeRequest{Path: path, OperationFlags: datamodel.OpFlagInternal}
		var err error
		resp, err = c.InvokeCommand(ctx, req, tlv.NewReader(bytes.NewReader(fields)))
		return err
	})
	return resp, err
}

func (n *Node) withCluster(ctx context.Context, path datamodel.ConcreteClusterPath, fn func(c datamodel.Cluster) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !n.State().IsRunning() {
		return ErrNotStarted
	}
	ep := n.dataModel.GetEndpoint(path.Endpoint)
	if ep == nil {
		return fmt.Errorf("matter: endpoint %d: %w", path.Endpoint, datamodel.ErrEndpointNotFound)
	}
	c := ep.GetCluster(path.Cluster)
	if c == nil {
		return fmt.Errorf("matter: %s: %w", path, datamodel.ErrClusterNotFound)
	}
	var err error
	if lerr := n.loop.Do(func() { err = fn(c) }); lerr != nil {
		return lerr
	}
	return err
}

// Subscribe returns a channel receiving AttributeReport values. The
// channel is closed when the node stops, or when the subscriber falls
// more than buffer reports behind; a slow subscriber should re-subscribe
// and re-read the attributes it tracks.
func (n *Node) Subscribe(buffer int) chan interface{} {
	ch := make(chan interface{}, buffer)
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.reportsClosed {
		close(ch)
		return ch
	}
	n.reports.Register(ch)
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (n *Node) Unsubscribe(ch chan interface{}) {
	n.reports.Unregister(ch)
}

// OnAttributeChanged implements datamodel.AttributeChangeListener.
func (n *Node) OnAttributeChanged(path datamodel.ConcreteAttributePath) {
	var version datamodel.DataVersion
	if c := n.dataModel.GetCluster(path.Endpoint, path.Cluster); c != nil {
		version = c.DataVersion()
	}
	n.log.Tracef("report %s version %d", path, version)

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.reportsClosed {
		return
	}
	n.reports.Broadcast <- AttributeReport{Path: path, DataVersion: version}
}
