// Package scenes defines the contract between a scene table and the
// clusters whose state a scene captures, plus a small in-memory table.
//
// A cluster takes part in scenes by implementing Handler: SerializeSave
// captures its current state as an encoded AttributeValuePair list and
// ApplyScene restores such a list, optionally over a transition.
package scenes

import (
	"errors"
	"sort"
	"sync"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/pion/logging"
)

var (
	// ErrInvalidArgument is returned for unsupported clusters and
	// malformed attribute value lists.
	ErrInvalidArgument = errors.New("scenes: invalid argument")

	// ErrSceneNotFound is returned when recalling an unknown scene.
	ErrSceneNotFound = errors.New("scenes: scene not found")

	// ErrNoHandler is returned when no handler serves a cluster.
	ErrNoHandler = errors.New("scenes: no handler for cluster")
)

// Handler saves and restores the scene-relevant state of a cluster.
type Handler interface {
	// SupportsCluster reports whether the handler serves cluster on endpoint.
	SupportsCluster(endpoint datamodel.EndpointID, cluster datamodel.ClusterID) bool

	// SerializeSave returns the encoded AttributeValuePair list for the
	// current state.
	SerializeSave(endpoint datamodel.EndpointID, cluster datamodel.ClusterID) ([]byte, error)

	// ApplyScene restores a list produced by SerializeSave over
	// transitionTimeMs milliseconds.
	ApplyScene(endpoint datamodel.EndpointID, cluster datamodel.ClusterID, data []byte, transitionTimeMs uint32) error
}

// Validator checks a pair before it is accepted into a scene.
type Validator interface {
	Validate(path datamodel.ConcreteClusterPath, pair *AttributeValuePair) error
}

// ExtensionFieldSet is the saved state of one cluster.
type ExtensionFieldSet struct {
	Cluster datamodel.ClusterID
	Data    []byte
}

// Scene is a stored snapshot across one or more clusters of an endpoint.
type Scene struct {
	Endpoint         datamodel.EndpointID
	Group            uint16
	ID               uint8
	TransitionTimeMs uint32
	FieldSets        []ExtensionFieldSet
}

type sceneKey struct {
	endpoint datamodel.EndpointID
	group    uint16
	id       uint8
}

// TableConfig configures a Table.
type TableConfig struct {
	LoggerFactory logging.LoggerFactory
}

// Table stores scenes in memory and dispatches save/apply to handlers.
// Handlers are invoked without the table lock held.
type Table struct {
	mu       sync.Mutex
	handlers []Handler
	scenes   map[sceneKey]Scene

	log logging.LeveledLogger
}

// NewTable returns an empty table.
func NewTable(cfg TableConfig) *Table {
	t := &Table{scenes: make(map[sceneKey]Scene)}
	if cfg.LoggerFactory != nil {
		t.log = cfg.LoggerFactory.NewLogger("scenes")
	}
	return t
}

// RegisterHandler adds h. Registering the same handler twice is a no-op.
func (t *Table) RegisterHandler(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.handlers {
		if existing == h {
			return
		}
	}
	t.handlers = append(t.handlers, h)
}

// UnregisterHandler removes h.
func (t *Table) UnregisterHandler(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.handlers {
		if existing == h {
			t.handlers = append(t.handlers[:i], t.handlers[i+1:]...)
			return
		}
	}
}

func (t *Table) handlerFor(endpoint datamodel.EndpointID, cluster datamodel.ClusterID) Handler {
	t.mu.Lock()
	handlers := append([]Handler(nil), t.handlers...)
	t.mu.Unlock()
	for _, h := range handlers {
		if h.SupportsCluster(endpoint, cluster) {
			return h
		}
	}
	return nil
}

// StoreScene captures the given clusters of endpoint into scene
// (group, id), replacing any previous content.
func (t *Table) StoreScene(endpoint datamodel.EndpointID, group uint16, id uint8, transitionTimeMs uint32, clusterIDs ...datamodel.ClusterID) error {
	scene := Scene{Endpoint: endpoint, Group: group, ID: id, TransitionTimeMs: transitionTimeMs}
	for _, cid := range clusterIDs {
		h := t.handlerFor(endpoint, cid)
		if h == nil {
			return ErrNoHandler
		}
		data, err := h.SerializeSave(endpoint, cid)
		if err != nil {
			return err
		}
		scene.FieldSets = append(scene.FieldSets, ExtensionFieldSet{Cluster: cid, Data: data})
	}

	t.mu.Lock()
	t.scenes[sceneKey{endpoint, group, id}] = scene
	t.mu.Unlock()
	if t.log != nil {
		t.log.Debugf("stored scene %d/%d on endpoint %d (%d clusters)", group, id, endpoint, len(scene.FieldSets))
	}
	return nil
}

// RecallScene applies scene (group, id). A nil transitionTimeMs uses the
// time stored with the scene. Every field set is applied; the first
// error is returned.
func (t *Table) RecallScene(endpoint datamodel.EndpointID, group uint16, id uint8, transitionTimeMs *uint32) error {
	t.mu.Lock()
	scene, ok := t.scenes[sceneKey{endpoint, group, id}]
	t.mu.Unlock()
	if !ok {
		return ErrSceneNotFound
	}

	tt := scene.TransitionTimeMs
	if transitionTimeMs != nil {
		tt = *transitionTimeMs
	}

	var firstErr error
	for _, fs := range scene.FieldSets {
		h := t.handlerFor(endpoint, fs.Cluster)
		if h == nil {
			if firstErr == nil {
				firstErr = ErrNoHandler
			}
			continue
		}
		if err := h.ApplyScene(endpoint, fs.Cluster, fs.Data, tt); err != nil {
			if t.log != nil {
				t.log.Warnf("apply scene %d/%d to cluster 0x%04X: %v", group, id, uint32(fs.Cluster), err)
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// GetScene returns a copy of a stored scene.
func (t *Table) GetScene(endpoint datamodel.EndpointID, group uint16, id uint8) (Scene, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.scenes[sceneKey{endpoint, group, id}]
	return s, ok
}

// RemoveScene deletes a scene. Removing an unknown scene is a no-op.
func (t *Table) RemoveScene(endpoint datamodel.EndpointID, group uint16, id uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.scenes, sceneKey{endpoint, group, id})
}

// SceneIDs returns the stored scene IDs of a group in ascending order.
func (t *Table) SceneIDs(endpoint datamodel.EndpointID, group uint16) []uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []uint8
	for k := range t.scenes {
		if k.endpoint == endpoint && k.group == group {
			ids = append(ids, k.id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
