// Package levelcontrol implements the Level Control Cluster (0x0008).
//
// The cluster drives CurrentLevel toward a target over a transition time,
// one level per timer tick, and couples to a co-located On/Off cluster so
// that dimming to the floor switches the endpoint off and switching it on
// fades back in.
//
// A Cluster is not safe for concurrent use. Commands, attribute access,
// timer expiries and On/Off notifications must be serialized by the host,
// for example by running them on a timer.Loop.
package levelcontrol

import (
	"errors"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// Cluster constants.
const (
	ClusterID       datamodel.ClusterID = datamodel.ClusterLevelControl
	ClusterRevision uint16              = 6
)

// Attribute IDs.
const (
	AttrCurrentLevel        datamodel.AttributeID = 0x0000
	AttrRemainingTime       datamodel.AttributeID = 0x0001
	AttrMinLevel            datamodel.AttributeID = 0x0002
	AttrMaxLevel            datamodel.AttributeID = 0x0003
	AttrOptions             datamodel.AttributeID = 0x000F
	AttrOnOffTransitionTime datamodel.AttributeID = 0x0010
	AttrOnLevel             datamodel.AttributeID = 0x0011
	AttrOnTransitionTime    datamodel.AttributeID = 0x0012
	AttrOffTransitionTime   datamodel.AttributeID = 0x0013
	AttrDefaultMoveRate     datamodel.AttributeID = 0x0014
	AttrStartUpCurrentLevel datamodel.AttributeID = 0x4000
)

// Command IDs.
const (
	CmdMoveToLevel          datamodel.CommandID = 0x00
	CmdMove                 datamodel.CommandID = 0x01
	CmdStep                 datamodel.CommandID = 0x02
	CmdStop                 datamodel.CommandID = 0x03
	CmdMoveToLevelWithOnOff datamodel.CommandID = 0x04
	CmdMoveWithOnOff        datamodel.CommandID = 0x05
	CmdStepWithOnOff        datamodel.CommandID = 0x06
	CmdStopWithOnOff        datamodel.CommandID = 0x07
)

// cmdInternalOff tags the fade-out started by an On/Off change.
const cmdInternalOff datamodel.CommandID = 0xFFFFFFFF

func isWithOnOff(id datamodel.CommandID) bool {
	return id >= CmdMoveToLevelWithOnOff && id <= CmdStopWithOnOff
}

// Level bounds.
const (
	MaxLevel         uint8 = 254
	LightingMinLevel uint8 = 1
)

// Feature bits.
type Feature uint32

const (
	FeatureOnOff    Feature = 1 << 0 // OO
	FeatureLighting Feature = 1 << 1 // LT
)

// Options is the Options bitmap.
type Options uint8

const (
	OptionExecuteIfOff           Options = 1 << 0
	OptionCoupleColorTempToLevel Options = 1 << 1
)

// Has reports whether all bits of o2 are set.
func (o Options) Has(o2 Options) bool { return o&o2 == o2 }

// MoveMode is the direction of Move.
type MoveMode uint8

const (
	MoveModeUp   MoveMode = 0
	MoveModeDown MoveMode = 1
)

func (m MoveMode) String() string {
	switch m {
	case MoveModeUp:
		return "Up"
	case MoveModeDown:
		return "Down"
	default:
		return "Unknown"
	}
}

// StepMode is the direction of Step.
type StepMode uint8

const (
	StepModeUp   StepMode = 0
	StepModeDown StepMode = 1
)

func (m StepMode) String() string {
	return MoveMode(m).String()
}

// ReportingMode selects how a value change is reported.
type ReportingMode uint8

const (
	// QuietReport rate-limits reports of intermediate values.
	QuietReport ReportingMode = iota
	// ForceReport applies the full reporting rules of a command.
	ForceReport
)

var (
	// ErrOnOffRequired is returned by New when FeatureOnOff is set
	// without an On/Off coupling.
	ErrOnOffRequired = errors.New("levelcontrol: OnOff feature requires an On/Off coupling")

	// ErrTimerRequired is returned by New without a timer or clock.
	ErrTimerRequired = errors.New("levelcontrol: timer delegate and clock required")
)

// OnOffCoupling is the co-located On/Off cluster.
type OnOffCoupling interface {
	GetOnOff() bool
	SetOnOff(on bool) error
}

// Delegate is told about application-visible changes. Embed NopDelegate
// to implement only some of the methods.
type Delegate interface {
	OnOptionsChanged(options Options)
	OnOnLevelChanged(onLevel *uint8)
	OnDefaultMoveRateChanged(rate *uint8)
	OnLevelChanged(level uint8)
}

// NopDelegate ignores all notifications.
type NopDelegate struct{}

func (NopDelegate) OnOptionsChanged(Options)        {}
func (NopDelegate) OnOnLevelChanged(*uint8)         {}
func (NopDelegate) OnDefaultMoveRateChanged(*uint8) {}
func (NopDelegate) OnLevelChanged(uint8)            {}

// DelegateFunc adapts a level callback to Delegate.
type DelegateFunc func(level uint8)

func (f DelegateFunc) OnOptionsChanged(Options)        {}
func (f DelegateFunc) OnOnLevelChanged(*uint8)         {}
func (f DelegateFunc) OnDefaultMoveRateChanged(*uint8) {}
func (f DelegateFunc) OnLevelChanged(level uint8)      { f(level) }
