// Package onoff implements the On/Off Cluster (0x0006).
//
// The cluster owns the power state of an endpoint. Co-located clusters such
// as Level Control couple to it through GetOnOff, SetOnOff and a Listener
// that is told about every state transition.
package onoff

import (
	"context"
	"sync"

	"github.com/backkem/matter-dimmer/pkg/clusters"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/timer"
	"github.com/backkem/matter-dimmer/pkg/tlv"
	"github.com/pion/logging"
)

// Cluster constants.
const (
	ClusterID       datamodel.ClusterID = datamodel.ClusterOnOff
	ClusterRevision uint16              = 6
)

// Attribute IDs.
const (
	AttrOnOff              datamodel.AttributeID = 0x0000
	AttrGlobalSceneControl datamodel.AttributeID = 0x4000
	AttrOnTime             datamodel.AttributeID = 0x4001
	AttrOffWaitTime        datamodel.AttributeID = 0x4002
	AttrStartUpOnOff       datamodel.AttributeID = 0x4003
)

// Command IDs.
const (
	CmdOff                     datamodel.CommandID = 0x00
	CmdOn                      datamodel.CommandID = 0x01
	CmdToggle                  datamodel.CommandID = 0x02
	CmdOffWithEffect           datamodel.CommandID = 0x40
	CmdOnWithRecallGlobalScene datamodel.CommandID = 0x41
	CmdOnWithTimedOff          datamodel.CommandID = 0x42
)

// Feature bits.
type Feature uint32

const (
	FeatureLighting          Feature = 1 << 0 // LT
	FeatureDeadFrontBehavior Feature = 1 << 1 // DF
	FeatureOffOnly           Feature = 1 << 2 // OFFONLY
)

// StartUpOnOff selects the power state applied at startup. A nil
// *StartUpOnOff restores the previous state.
type StartUpOnOff uint8

const (
	StartUpOnOffOff    StartUpOnOff = 0
	StartUpOnOffOn     StartUpOnOff = 1
	StartUpOnOffToggle StartUpOnOff = 2
)

func (s StartUpOnOff) String() string {
	switch s {
	case StartUpOnOffOff:
		return "Off"
	case StartUpOnOffOn:
		return "On"
	case StartUpOnOffToggle:
		return "Toggle"
	default:
		return "Unknown"
	}
}

// Listener is told about on/off state transitions.
type Listener interface {
	OnOnOffChanged(on bool)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(on bool)

// OnOnOffChanged implements Listener.
func (f ListenerFunc) OnOnOffChanged(on bool) { f(on) }

// Config provides dependencies for the On/Off cluster.
type Config struct {
	EndpointID datamodel.EndpointID
	FeatureMap Feature

	// InitialOnOff is used when storage holds no previous state.
	InitialOnOff bool

	// StartUpOnOff is the default startup behavior (Lighting only).
	// Nil means restore the previous state.
	StartUpOnOff *StartUpOnOff

	// Timer drives the OnTime/OffWaitTime countdown of OnWithTimedOff.
	// Without it the countdown attributes are stored but never expire.
	Timer timer.Delegate

	LoggerFactory logging.LoggerFactory
}

// Cluster implements the On/Off cluster (0x0006).
type Cluster struct {
	*datamodel.ClusterBase
	config Config
	log    logging.LeveledLogger

	mu                 sync.RWMutex
	onOff              bool
	globalSceneControl bool
	onTime             uint16
	offWaitTime        uint16
	startUpOnOff       *StartUpOnOff
	listeners          []Listener

	countdown *countdown
	attrList  []datamodel.AttributeEntry
}

// New creates an On/Off cluster. Persisted state is restored by Startup.
func New(cfg Config) *Cluster {
	c := &Cluster{
		ClusterBase:        datamodel.NewClusterBase(ClusterID, cfg.EndpointID, ClusterRevision),
		config:             cfg,
		onOff:              cfg.InitialOnOff,
		globalSceneControl: true,
	}
	if cfg.StartUpOnOff != nil {
		v := *cfg.StartUpOnOff
		c.startUpOnOff = &v
	}
	if cfg.LoggerFactory != nil {
		c.log = cfg.LoggerFactory.NewLogger("onoff")
	}
	c.countdown = &countdown{c: c}
	c.ClusterBase.SetFeatureMap(uint32(cfg.FeatureMap))
	c.attrList = c.buildAttributeList()
	return c
}

func (c *Cluster) has(f Feature) bool {
	return c.config.FeatureMap&f != 0
}

func (c *Cluster) buildAttributeList() []datamodel.AttributeEntry {
	view, manage := datamodel.PrivilegeView, datamodel.PrivilegeManage

	attrs := []datamodel.AttributeEntry{
		datamodel.NewReadOnlyAttribute(AttrOnOff, datamodel.AttrQualityScene|datamodel.AttrQualityNonVolatile, view),
	}
	if c.has(FeatureLighting) {
		attrs = append(attrs,
			datamodel.NewReadOnlyAttribute(AttrGlobalSceneControl, 0, view),
			datamodel.NewReadWriteAttribute(AttrOnTime, 0, view, datamodel.PrivilegeOperate),
			datamodel.NewReadWriteAttribute(AttrOffWaitTime, 0, view, datamodel.PrivilegeOperate),
			datamodel.NewReadWriteAttribute(AttrStartUpOnOff, datamodel.AttrQualityNullable|datamodel.AttrQualityNonVolatile, view, manage),
		)
	}
	return datamodel.MergeAttributeLists(attrs)
}

// AttributeList implements datamodel.Cluster.
func (c *Cluster) AttributeList() []datamodel.AttributeEntry {
	return c.attrList
}

// AcceptedCommandList implements datamodel.Cluster.
func (c *Cluster) AcceptedCommandList() []datamodel.CommandEntry {
	operate := datamodel.PrivilegeOperate
	cmds := []datamodel.CommandEntry{
		datamodel.NewCommandEntry(CmdOff, 0, operate),
	}
	if !c.has(FeatureOffOnly) {
		cmds = append(cmds,
			datamodel.NewCommandEntry(CmdOn, 0, operate),
			datamodel.NewCommandEntry(CmdToggle, 0, operate),
		)
	}
	if c.has(FeatureLighting) {
		cmds = append(cmds,
			datamodel.NewCommandEntry(CmdOffWithEffect, 0, operate),
			datamodel.NewCommandEntry(CmdOnWithRecallGlobalScene, 0, operate),
			datamodel.NewCommandEntry(CmdOnWithTimedOff, 0, operate),
		)
	}
	return cmds
}

// GeneratedCommandList implements datamodel.Cluster.
func (c *Cluster) GeneratedCommandList() []datamodel.CommandID {
	return nil
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(ctx context.Context, req datamodel.ReadAttributeRequest, w *tlv.Writer) error {
	handled, err := c.ReadGlobalAttribute(ctx, req.Path.Attribute, w,
		c.attrList, c.AcceptedCommandList(), c.GeneratedCommandList())
	if handled || err != nil {
		return err
	}
	if datamodel.FindAttribute(c.attrList, req.Path.Attribute) == nil {
		return datamodel.ErrUnsupportedAttribute
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	switch req.Path.Attribute {
	case AttrOnOff:
		return w.PutBool(tlv.Anonymous(), c.onOff)
	case AttrGlobalSceneControl:
		return w.PutBool(tlv.Anonymous(), c.globalSceneControl)
	case AttrOnTime:
		return w.PutUint(tlv.Anonymous(), uint64(c.onTime))
	case AttrOffWaitTime:
		return w.PutUint(tlv.Anonymous(), uint64(c.offWaitTime))
	case AttrStartUpOnOff:
		if c.startUpOnOff == nil {
			return w.PutNull(tlv.Anonymous())
		}
		return w.PutUint(tlv.Anonymous(), uint64(*c.startUpOnOff))
	default:
		return datamodel.ErrUnsupportedAttribute
	}
}

// WriteAttribute implements datamodel.Cluster.
func (c *Cluster) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	entry := datamodel.FindAttribute(c.attrList, req.Path.Attribute)
	if entry == nil {
		return datamodel.ErrUnsupportedAttribute
	}
	if !entry.IsWritable() {
		return datamodel.ErrUnsupportedWrite
	}
	if err := clusters.ReadValue(r); err != nil {
		return err
	}

	switch req.Path.Attribute {
	case AttrOnTime, AttrOffWaitTime:
		v, err := r.Uint16()
		if err != nil {
			return datamodel.ErrConstraintError
		}
		c.mu.Lock()
		if req.Path.Attribute == AttrOnTime {
			c.onTime = v
		} else {
			c.offWaitTime = v
		}
		c.mu.Unlock()
		c.NotifyAttributeChanged(req.Path.Attribute)
		return nil

	case AttrStartUpOnOff:
		var value *StartUpOnOff
		if !r.IsNull() {
			v, err := r.Uint()
			if err != nil || v > uint64(StartUpOnOffToggle) {
				return datamodel.ErrConstraintError
			}
			s := StartUpOnOff(v)
			value = &s
		}
		return c.SetStartUpOnOff(value)

	default:
		return datamodel.ErrUnsupportedWrite
	}
}

// GetOnOff returns the current on/off state.
func (c *Cluster) GetOnOff() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onOff
}

// SetOnOff changes the on/off state, persists it and notifies listeners.
// Turning on a device with the OffOnly feature is rejected.
func (c *Cluster) SetOnOff(on bool) error {
	if on && c.has(FeatureOffOnly) {
		return datamodel.ErrUnsupportedCommand
	}
	c.setOnOff(on)
	return nil
}

// AddListener registers l for state transitions.
func (c *Cluster) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// StartUpOnOff returns the configured startup behavior, nil for previous.
func (c *Cluster) StartUpOnOff() *StartUpOnOff {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.startUpOnOff == nil {
		return nil
	}
	v := *c.startUpOnOff
	return &v
}

// SetStartUpOnOff stores the startup behavior and persists it.
func (c *Cluster) SetStartUpOnOff(value *StartUpOnOff) error {
	if value != nil && *value > StartUpOnOffToggle {
		return datamodel.ErrConstraintError
	}
	c.mu.Lock()
	if sameStartUp(c.startUpOnOff, value) {
		c.mu.Unlock()
		return nil
	}
	c.startUpOnOff = value
	c.mu.Unlock()

	c.persistStartUpOnOff(value)
	c.NotifyAttributeChanged(AttrStartUpOnOff)
	return nil
}

func sameStartUp(a, b *StartUpOnOff) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// setOnOff applies a state change. Listeners run without the lock held.
func (c *Cluster) setOnOff(on bool) {
	c.mu.Lock()
	if c.onOff == on {
		c.mu.Unlock()
		return
	}
	c.onOff = on
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	if c.log != nil {
		c.log.Debugf("endpoint %d: OnOff -> %v", c.EndpointID(), on)
	}
	c.persistOnOff(on)
	c.NotifyAttributeChanged(AttrOnOff)

	for _, l := range listeners {
		l.OnOnOffChanged(on)
	}
}
