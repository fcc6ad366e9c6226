package levelcontrol

import (
	"context"
	"errors"
	"fmt"

	"github.com/backkem/matter-dimmer/pkg/clusters"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/persistence"
	"github.com/backkem/matter-dimmer/pkg/reporting"
	"github.com/backkem/matter-dimmer/pkg/timer"
	"github.com/backkem/matter-dimmer/pkg/tlv"
	"github.com/pion/logging"
)

// Config provides the attribute defaults and collaborators of a cluster.
type Config struct {
	EndpointID datamodel.EndpointID
	FeatureMap Feature

	// OptionalAttributes lists the optional attributes to expose:
	// MinLevel, MaxLevel, DefaultMoveRate, OnOffTransitionTime,
	// OnTransitionTime and OffTransitionTime.
	OptionalAttributes []datamodel.AttributeID

	// MinLevel and MaxLevel bound CurrentLevel when listed in
	// OptionalAttributes; otherwise the band is 0 to 254. FeatureLighting
	// fixes them at 1 and 254. A zero MaxLevel means 254.
	MinLevel uint8
	MaxLevel uint8

	DefaultMoveRate     *uint8
	OnLevel             *uint8
	Options             Options
	OnOffTransitionTime uint16
	OnTransitionTime    *uint16
	OffTransitionTime   *uint16

	// InitialCurrentLevel is used when storage holds no level.
	InitialCurrentLevel *uint8
	StartUpCurrentLevel *uint8

	// OnOff is required with FeatureOnOff.
	OnOff OnOffCoupling

	// Timer schedules transition ticks. Clock defaults to Timer when it
	// also implements timer.Clock.
	Timer timer.Delegate
	Clock timer.Clock

	Delegate      Delegate
	LoggerFactory logging.LoggerFactory
}

// Cluster implements the Level Control cluster (0x0008).
type Cluster struct {
	*datamodel.ClusterBase

	features Feature
	optional map[datamodel.AttributeID]bool
	log      logging.LeveledLogger

	currentLevel        *reporting.Attribute[uint8]
	remainingTime       *reporting.Attribute[uint16]
	minLevel            uint8
	maxLevel            uint8
	options             Options
	onLevel             *uint8
	defaultMoveRate     *uint8
	startUpCurrentLevel *uint8
	onOffTransitionTime uint16
	onTransitionTime    *uint16
	offTransitionTime   *uint16

	levelBeforeTurnedOff *uint8
	ignoreOnOffCallbacks bool

	onOff    OnOffCoupling
	timer    timer.Delegate
	clock    timer.Clock
	delegate Delegate

	transition transitionHandler
	attrList   []datamodel.AttributeEntry
}

// New creates a Level Control cluster. Persisted state is restored by
// Startup.
func New(cfg Config) (*Cluster, error) {
	if cfg.FeatureMap&FeatureOnOff != 0 && cfg.OnOff == nil {
		return nil, ErrOnOffRequired
	}
	clock := cfg.Clock
	if clock == nil {
		clock, _ = cfg.Timer.(timer.Clock)
	}
	if cfg.Timer == nil || clock == nil {
		return nil, ErrTimerRequired
	}

	c := &Cluster{
		ClusterBase:         datamodel.NewClusterBase(ClusterID, cfg.EndpointID, ClusterRevision),
		features:            cfg.FeatureMap,
		optional:            make(map[datamodel.AttributeID]bool),
		currentLevel:        reporting.New(cfg.InitialCurrentLevel),
		remainingTime:       reporting.New(u16(0)),
		minLevel:            cfg.MinLevel,
		maxLevel:            cfg.MaxLevel,
		options:             cfg.Options,
		onLevel:             cloneU8(cfg.OnLevel),
		defaultMoveRate:     cloneU8(cfg.DefaultMoveRate),
		startUpCurrentLevel: cloneU8(cfg.StartUpCurrentLevel),
		onOffTransitionTime: cfg.OnOffTransitionTime,
		onTransitionTime:    cloneU16(cfg.OnTransitionTime),
		offTransitionTime:   cloneU16(cfg.OffTransitionTime),
		onOff:               cfg.OnOff,
		timer:               cfg.Timer,
		clock:               clock,
		delegate:            cfg.Delegate,
	}
	for _, id := range cfg.OptionalAttributes {
		c.optional[id] = true
	}
	if c.maxLevel == 0 || c.maxLevel > MaxLevel || !c.optional[AttrMaxLevel] {
		c.maxLevel = MaxLevel
	}
	if !c.optional[AttrMinLevel] {
		c.minLevel = 0
	}
	if c.has(FeatureLighting) {
		c.minLevel, c.maxLevel = LightingMinLevel, MaxLevel
	}
	if c.minLevel > c.maxLevel {
		return nil, fmt.Errorf("levelcontrol: MinLevel %d above MaxLevel %d", c.minLevel, c.maxLevel)
	}
	if c.delegate == nil {
		c.delegate = NopDelegate{}
	}
	if cfg.LoggerFactory != nil {
		c.log = cfg.LoggerFactory.NewLogger("levelcontrol")
	}
	c.transition.c = c
	c.SetFeatureMap(uint32(cfg.FeatureMap))
	c.attrList = c.buildAttributeList()
	return c, nil
}

func (c *Cluster) has(f Feature) bool {
	return c.features&f != 0
}

// Startup restores CurrentLevel and StartUpCurrentLevel from storage and
// commits the resulting level. Storage errors fall back to the defaults.
func (c *Cluster) Startup(ctx datamodel.ServerClusterContext) error {
	c.Attach(ctx)

	level := c.currentLevel.Value()
	if v, ok := c.loadNullableUint8(AttrCurrentLevel); ok {
		level = v
	}
	if c.has(FeatureLighting) {
		if v, ok := c.loadNullableUint8(AttrStartUpCurrentLevel); ok {
			c.startUpCurrentLevel = v
		}
		if c.startUpCurrentLevel != nil {
			level = cloneU8(c.startUpCurrentLevel)
		}
	}
	if level != nil {
		*level = clamp(*level, c.minLevel, c.maxLevel)
	}

	now := c.clock.MonotonicMilliseconds()
	if c.currentLevel.SetValue(level, now, reporting.AlwaysReport[uint8]()) == reporting.MustReport {
		c.NotifyAttributeChanged(AttrCurrentLevel)
	}
	if level != nil {
		c.delegate.OnLevelChanged(*level)
	}
	return nil
}

// Shutdown cancels any transition and detaches from the host.
func (c *Cluster) Shutdown() {
	c.transition.stop()
	c.Detach()
}

func (c *Cluster) loadNullableUint8(attr datamodel.AttributeID) (*uint8, bool) {
	s := c.Storage()
	if s == nil {
		return nil, false
	}
	data, err := s.ReadValue(c.AttributePath(attr))
	if err == nil {
		var v *uint8
		if v, err = persistence.DecodeNullableUint8(data); err == nil {
			return v, true
		}
	}
	if !errors.Is(err, datamodel.ErrNotFound) && c.log != nil {
		c.log.Warnf("endpoint %d: load attribute 0x%04X: %v", c.EndpointID(), uint32(attr), err)
	}
	return nil, false
}

func (c *Cluster) storeNullableUint8(attr datamodel.AttributeID, v *uint8) {
	s := c.Storage()
	if s == nil {
		return
	}
	if err := s.WriteValue(c.AttributePath(attr), persistence.EncodeNullableUint8(v)); err != nil && c.log != nil {
		c.log.Warnf("endpoint %d: store attribute 0x%04X: %v", c.EndpointID(), uint32(attr), err)
	}
}

func (c *Cluster) buildAttributeList() []datamodel.AttributeEntry {
	view, operate, manage := datamodel.PrivilegeView, datamodel.PrivilegeOperate, datamodel.PrivilegeManage

	attrs := []datamodel.AttributeEntry{
		datamodel.NewReadOnlyAttribute(AttrCurrentLevel,
			datamodel.AttrQualityNullable|datamodel.AttrQualityNonVolatile|datamodel.AttrQualityScene|datamodel.AttrQualityQuieter, view),
		datamodel.NewReadWriteAttribute(AttrOptions, 0, view, operate),
		datamodel.NewReadWriteAttribute(AttrOnLevel, datamodel.AttrQualityNullable, view, operate),
	}
	optional := []struct {
		present bool
		entry   datamodel.AttributeEntry
	}{
		{c.optional[AttrMinLevel], datamodel.NewReadOnlyAttribute(AttrMinLevel, 0, view)},
		{c.optional[AttrMaxLevel], datamodel.NewReadOnlyAttribute(AttrMaxLevel, 0, view)},
		{c.optional[AttrDefaultMoveRate], datamodel.NewReadWriteAttribute(AttrDefaultMoveRate, datamodel.AttrQualityNullable, view, operate)},
		{c.has(FeatureLighting), datamodel.NewReadWriteAttribute(AttrStartUpCurrentLevel, datamodel.AttrQualityNullable|datamodel.AttrQualityNonVolatile, view, manage)},
		{c.has(FeatureLighting), datamodel.NewReadOnlyAttribute(AttrRemainingTime, datamodel.AttrQualityQuieter, view)},
		{c.optional[AttrOnTransitionTime], datamodel.NewReadWriteAttribute(AttrOnTransitionTime, datamodel.AttrQualityNullable, view, operate)},
		{c.optional[AttrOffTransitionTime], datamodel.NewReadWriteAttribute(AttrOffTransitionTime, datamodel.AttrQualityNullable, view, operate)},
		{c.optional[AttrOnOffTransitionTime], datamodel.NewReadWriteAttribute(AttrOnOffTransitionTime, 0, view, operate)},
	}
	for _, o := range optional {
		if o.present {
			attrs = append(attrs, o.entry)
		}
	}
	return datamodel.MergeAttributeLists(attrs)
}

// AttributeList implements datamodel.Cluster.
func (c *Cluster) AttributeList() []datamodel.AttributeEntry {
	return c.attrList
}

// AcceptedCommandList implements datamodel.Cluster. The WithOnOff
// commands are listed whether or not FeatureOnOff is set.
func (c *Cluster) AcceptedCommandList() []datamodel.CommandEntry {
	operate := datamodel.PrivilegeOperate
	ids := []datamodel.CommandID{
		CmdMoveToLevel, CmdMove, CmdStep, CmdStop,
		CmdMoveToLevelWithOnOff, CmdMoveWithOnOff, CmdStepWithOnOff, CmdStopWithOnOff,
	}
	cmds := make([]datamodel.CommandEntry, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, datamodel.NewCommandEntry(id, 0, operate))
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

	tag := tlv.Anonymous()
	switch req.Path.Attribute {
	case AttrCurrentLevel:
		return clusters.PutNullableUint8(w, tag, c.currentLevel.Value())
	case AttrRemainingTime:
		return w.PutUint(tag, uint64(c.RemainingTime()))
	case AttrMinLevel:
		return w.PutUint(tag, uint64(c.minLevel))
	case AttrMaxLevel:
		return w.PutUint(tag, uint64(c.maxLevel))
	case AttrOptions:
		return w.PutUint(tag, uint64(c.options))
	case AttrOnLevel:
		return clusters.PutNullableUint8(w, tag, c.onLevel)
	case AttrDefaultMoveRate:
		return clusters.PutNullableUint8(w, tag, c.defaultMoveRate)
	case AttrStartUpCurrentLevel:
		return clusters.PutNullableUint8(w, tag, c.startUpCurrentLevel)
	case AttrOnOffTransitionTime:
		return w.PutUint(tag, uint64(c.onOffTransitionTime))
	case AttrOnTransitionTime:
		return clusters.PutNullableUint16(w, tag, c.onTransitionTime)
	case AttrOffTransitionTime:
		return clusters.PutNullableUint16(w, tag, c.offTransitionTime)
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
	case AttrOptions:
		v, err := r.Uint8()
		if err != nil {
			return datamodel.ErrConstraintError
		}
		c.SetOptions(Options(v))
		return nil
	case AttrOnLevel:
		v, err := readNullableLevel(r)
		if err != nil {
			return err
		}
		c.SetOnLevel(v)
		return nil
	case AttrDefaultMoveRate:
		v, err := readNullableLevel(r)
		if err != nil {
			return err
		}
		return c.SetDefaultMoveRate(v)
	case AttrStartUpCurrentLevel:
		v, err := readNullableLevel(r)
		if err != nil {
			return err
		}
		return c.SetStartUpCurrentLevel(v)
	case AttrOnTransitionTime, AttrOffTransitionTime:
		v, err := readNullableTime(r)
		if err != nil {
			return err
		}
		if req.Path.Attribute == AttrOnTransitionTime {
			c.SetOnTransitionTime(v)
		} else {
			c.SetOffTransitionTime(v)
		}
		return nil
	case AttrOnOffTransitionTime:
		v, err := r.Uint16()
		if err != nil {
			return datamodel.ErrConstraintError
		}
		c.SetOnOffTransitionTime(v)
		return nil
	default:
		return datamodel.ErrUnsupportedWrite
	}
}

// readNullableLevel decodes a nullable uint8 whose null encoding 0xFF is
// not a valid value.
func readNullableLevel(r *tlv.Reader) (*uint8, error) {
	v, err := clusters.ReadNullableUint8(r)
	if err != nil || (v != nil && *v == 0xFF) {
		return nil, datamodel.ErrConstraintError
	}
	return v, nil
}

func readNullableTime(r *tlv.Reader) (*uint16, error) {
	v, err := clusters.ReadNullableUint16(r)
	if err != nil || (v != nil && *v == 0xFFFF) {
		return nil, datamodel.ErrConstraintError
	}
	return v, nil
}

// InvokeCommand implements datamodel.Cluster.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	cmd, err := DecodeCommand(req.Path.Command, r)
	if err != nil {
		return nil, err
	}
	return nil, c.Execute(cmd)
}

// Execute runs a decoded command.
func (c *Cluster) Execute(cmd Command) error {
	switch cmd := cmd.(type) {
	case *MoveToLevelCommand:
		return c.moveToLevel(cmd.CommandID(), cmd.Level, cmd.TransitionTime, cmd.OptionsMask, cmd.OptionsOverride)
	case *MoveCommand:
		return c.move(cmd.CommandID(), cmd.MoveMode, cmd.Rate, cmd.OptionsMask, cmd.OptionsOverride)
	case *StepCommand:
		return c.step(cmd.CommandID(), cmd.StepMode, cmd.StepSize, cmd.TransitionTime, cmd.OptionsMask, cmd.OptionsOverride)
	case *StopCommand:
		return c.stop(cmd.CommandID(), cmd.OptionsMask, cmd.OptionsOverride)
	default:
		return datamodel.ErrUnsupportedCommand
	}
}

// CurrentLevel returns a copy of CurrentLevel, nil when undefined.
func (c *Cluster) CurrentLevel() *uint8 { return c.currentLevel.Value() }

// RemainingTime returns the time left in the active transition in tenths
// of a second.
func (c *Cluster) RemainingTime() uint16 { return c.remainingTime.ValueOr(0) }

func (c *Cluster) MinLevel() uint8 { return c.minLevel }
func (c *Cluster) MaxLevel() uint8 { return c.maxLevel }

func (c *Cluster) Options() Options { return c.options }

func (c *Cluster) OnLevel() *uint8 { return cloneU8(c.onLevel) }

func (c *Cluster) DefaultMoveRate() *uint8 { return cloneU8(c.defaultMoveRate) }

func (c *Cluster) StartUpCurrentLevel() *uint8 { return cloneU8(c.startUpCurrentLevel) }

// IsTransitioning reports whether a transition timer is armed.
func (c *Cluster) IsTransitioning() bool { return c.timer.IsTimerActive(&c.transition) }

// SetOptions replaces Options.
func (c *Cluster) SetOptions(options Options) {
	if c.options == options {
		return
	}
	c.options = options
	c.NotifyAttributeChanged(AttrOptions)
	c.delegate.OnOptionsChanged(options)
}

// SetOnLevel replaces OnLevel.
func (c *Cluster) SetOnLevel(onLevel *uint8) {
	if equalU8(c.onLevel, onLevel) {
		return
	}
	c.onLevel = cloneU8(onLevel)
	c.NotifyAttributeChanged(AttrOnLevel)
	c.delegate.OnOnLevelChanged(cloneU8(onLevel))
}

// SetDefaultMoveRate replaces DefaultMoveRate. A rate of 0 is rejected.
func (c *Cluster) SetDefaultMoveRate(rate *uint8) error {
	if rate != nil && *rate == 0 {
		return datamodel.ErrConstraintError
	}
	if equalU8(c.defaultMoveRate, rate) {
		return nil
	}
	c.defaultMoveRate = cloneU8(rate)
	c.NotifyAttributeChanged(AttrDefaultMoveRate)
	c.delegate.OnDefaultMoveRateChanged(cloneU8(rate))
	return nil
}

// SetStartUpCurrentLevel replaces and persists StartUpCurrentLevel.
// Storage failures are logged.
func (c *Cluster) SetStartUpCurrentLevel(level *uint8) error {
	if equalU8(c.startUpCurrentLevel, level) {
		return nil
	}
	c.startUpCurrentLevel = cloneU8(level)
	c.NotifyAttributeChanged(AttrStartUpCurrentLevel)
	c.storeNullableUint8(AttrStartUpCurrentLevel, level)
	return nil
}

func (c *Cluster) SetOnTransitionTime(ds *uint16) {
	if equalU16(c.onTransitionTime, ds) {
		return
	}
	c.onTransitionTime = cloneU16(ds)
	c.NotifyAttributeChanged(AttrOnTransitionTime)
}

func (c *Cluster) SetOffTransitionTime(ds *uint16) {
	if equalU16(c.offTransitionTime, ds) {
		return
	}
	c.offTransitionTime = cloneU16(ds)
	c.NotifyAttributeChanged(AttrOffTransitionTime)
}

func (c *Cluster) SetOnOffTransitionTime(ds uint16) {
	if c.onOffTransitionTime == ds {
		return
	}
	c.onOffTransitionTime = ds
	c.NotifyAttributeChanged(AttrOnOffTransitionTime)
}

// IsValidLevel reports whether level lies in [MinLevel, MaxLevel].
func (c *Cluster) IsValidLevel(level uint8) bool {
	return level >= c.minLevel && level <= c.maxLevel
}

func clamp(v, lo, hi uint8) uint8 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func u16(v uint16) *uint16 { return &v }

func cloneU8(v *uint8) *uint8 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneU16(v *uint16) *uint16 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func equalU8(a, b *uint8) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalU16(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
