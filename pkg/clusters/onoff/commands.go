package onoff

import (
	"context"

	"github.com/backkem/matter-dimmer/pkg/clusters"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// EffectIdentifier identifies the effect of OffWithEffect.
type EffectIdentifier uint8

const (
	EffectDelayedAllOff EffectIdentifier = 0
	EffectDyingLight    EffectIdentifier = 1
)

func (e EffectIdentifier) String() string {
	switch e {
	case EffectDelayedAllOff:
		return "DelayedAllOff"
	case EffectDyingLight:
		return "DyingLight"
	default:
		return "Unknown"
	}
}

// OnOffControl bits of OnWithTimedOff.
const (
	OnOffControlAcceptOnlyWhenOn uint8 = 1 << 0
)

// OffWithEffectRequest is the OffWithEffect payload.
type OffWithEffectRequest struct {
	EffectIdentifier EffectIdentifier
	EffectVariant    uint8
}

// MarshalTLV implements clusters.TLVMarshaler.
func (req OffWithEffectRequest) MarshalTLV(w *tlv.Writer) error {
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(0), uint64(req.EffectIdentifier)); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(1), uint64(req.EffectVariant)); err != nil {
		return err
	}
	return w.EndContainer()
}

// UnmarshalTLV implements clusters.TLVUnmarshaler.
func (req *OffWithEffectRequest) UnmarshalTLV(r *tlv.Reader) error {
	return clusters.DecodeStruct(r, func(tag uint8) error {
		switch tag {
		case 0:
			v, err := clusters.ReadUint8(r)
			req.EffectIdentifier = EffectIdentifier(v)
			return err
		case 1:
			v, err := clusters.ReadUint8(r)
			req.EffectVariant = v
			return err
		}
		return nil
	})
}

// OnWithTimedOffRequest is the OnWithTimedOff payload. Times are in
// tenths of a second.
type OnWithTimedOffRequest struct {
	OnOffControl uint8
	OnTime       uint16
	OffWaitTime  uint16
}

// MarshalTLV implements clusters.TLVMarshaler.
func (req OnWithTimedOffRequest) MarshalTLV(w *tlv.Writer) error {
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(0), uint64(req.OnOffControl)); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(1), uint64(req.OnTime)); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(2), uint64(req.OffWaitTime)); err != nil {
		return err
	}
	return w.EndContainer()
}

// UnmarshalTLV implements clusters.TLVUnmarshaler.
func (req *OnWithTimedOffRequest) UnmarshalTLV(r *tlv.Reader) error {
	return clusters.DecodeStruct(r, func(tag uint8) error {
		var err error
		switch tag {
		case 0:
			req.OnOffControl, err = clusters.ReadUint8(r)
		case 1:
			if req.OnTime, err = r.Uint16(); err != nil {
				err = clusters.InvalidCommand(err)
			}
		case 2:
			if req.OffWaitTime, err = r.Uint16(); err != nil {
				err = clusters.InvalidCommand(err)
			}
		}
		return err
	})
}

// InvokeCommand implements datamodel.Cluster.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	if datamodel.FindCommand(c.AcceptedCommandList(), req.Path.Command) == nil {
		return nil, datamodel.ErrUnsupportedCommand
	}

	switch req.Path.Command {
	case CmdOff:
		return nil, c.Off()
	case CmdOn:
		return nil, c.On()
	case CmdToggle:
		return nil, c.Toggle()
	case CmdOffWithEffect:
		var p OffWithEffectRequest
		if err := p.UnmarshalTLV(r); err != nil {
			return nil, err
		}
		return nil, c.OffWithEffect(p)
	case CmdOnWithRecallGlobalScene:
		return nil, c.OnWithRecallGlobalScene()
	case CmdOnWithTimedOff:
		var p OnWithTimedOffRequest
		if err := p.UnmarshalTLV(r); err != nil {
			return nil, err
		}
		return nil, c.OnWithTimedOff(p)
	default:
		return nil, datamodel.ErrUnsupportedCommand
	}
}

// Off turns the endpoint off and clears the timed-on period.
func (c *Cluster) Off() error {
	c.mu.Lock()
	cleared := c.onTime != 0
	c.onTime = 0
	c.mu.Unlock()
	if cleared {
		c.NotifyAttributeChanged(AttrOnTime)
	}
	c.setOnOff(false)
	return nil
}

// On turns the endpoint on.
func (c *Cluster) On() error {
	if c.has(FeatureOffOnly) {
		return datamodel.ErrUnsupportedCommand
	}
	if c.has(FeatureLighting) {
		c.mu.Lock()
		if c.onTime == 0 {
			c.offWaitTime = 0
		}
		c.globalSceneControl = true
		c.mu.Unlock()
	}
	c.setOnOff(true)
	return nil
}

// Toggle inverts the on/off state.
func (c *Cluster) Toggle() error {
	if c.GetOnOff() {
		return c.Off()
	}
	return c.On()
}

// OffWithEffect turns the endpoint off and remembers that the global
// scene must be recalled by the next OnWithRecallGlobalScene.
func (c *Cluster) OffWithEffect(req OffWithEffectRequest) error {
	if req.EffectIdentifier > EffectDyingLight {
		return datamodel.ErrConstraintError
	}
	c.mu.Lock()
	c.globalSceneControl = false
	c.mu.Unlock()
	c.NotifyAttributeChanged(AttrGlobalSceneControl)
	if c.log != nil {
		c.log.Debugf("endpoint %d: off with effect %s/%d", c.EndpointID(), req.EffectIdentifier, req.EffectVariant)
	}
	return c.Off()
}

// OnWithRecallGlobalScene turns the endpoint on if the previous off was
// an OffWithEffect.
func (c *Cluster) OnWithRecallGlobalScene() error {
	c.mu.Lock()
	if c.globalSceneControl {
		c.mu.Unlock()
		return nil
	}
	c.globalSceneControl = true
	c.mu.Unlock()
	c.NotifyAttributeChanged(AttrGlobalSceneControl)
	return c.On()
}

// OnWithTimedOff turns the endpoint on for OnTime tenths of a second,
// then guards against re-activation for OffWaitTime.
func (c *Cluster) OnWithTimedOff(req OnWithTimedOffRequest) error {
	c.mu.Lock()
	if req.OnOffControl&OnOffControlAcceptOnlyWhenOn != 0 && !c.onOff {
		c.mu.Unlock()
		return nil
	}
	if c.offWaitTime > 0 && !c.onOff {
		// Delayed off: only shorten the wait.
		if req.OffWaitTime < c.offWaitTime {
			c.offWaitTime = req.OffWaitTime
		}
		c.mu.Unlock()
		c.NotifyAttributeChanged(AttrOffWaitTime)
		c.countdown.arm()
		return nil
	}
	if req.OnTime > c.onTime {
		c.onTime = req.OnTime
	}
	c.offWaitTime = req.OffWaitTime
	c.globalSceneControl = true
	c.mu.Unlock()

	c.NotifyAttributeChanged(AttrOnTime)
	c.NotifyAttributeChanged(AttrOffWaitTime)
	c.setOnOff(true)
	c.countdown.arm()
	return nil
}
