package onoff

import (
	"errors"
	"time"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/persistence"
)

// countdownTick is the resolution of OnTime and OffWaitTime.
const countdownTick = 100 * time.Millisecond

// Startup restores OnOff and StartUpOnOff from storage and applies the
// startup behavior. Listeners are not notified: coupled clusters restore
// their own startup state.
func (c *Cluster) Startup(ctx datamodel.ServerClusterContext) error {
	c.Attach(ctx)

	on := c.config.InitialOnOff
	if v, ok := c.load(AttrOnOff); ok {
		if b, err := persistence.DecodeBool(v); err == nil {
			on = b
		} else if c.log != nil {
			c.log.Warnf("endpoint %d: stored OnOff: %v", c.EndpointID(), err)
		}
	}

	if c.has(FeatureLighting) {
		if v, ok := c.load(AttrStartUpOnOff); ok {
			if s, err := persistence.DecodeNullableUint8(v); err == nil {
				c.mu.Lock()
				c.startUpOnOff = (*StartUpOnOff)(s)
				c.mu.Unlock()
			}
		}
		if s := c.StartUpOnOff(); s != nil {
			switch *s {
			case StartUpOnOffOff:
				on = false
			case StartUpOnOffOn:
				on = true
			case StartUpOnOffToggle:
				on = !on
			}
		}
	}
	if on && c.has(FeatureOffOnly) {
		on = false
	}

	c.mu.Lock()
	c.onOff = on
	c.mu.Unlock()
	c.persistOnOff(on)
	return nil
}

// Shutdown stops the timed-off countdown and detaches from the host.
func (c *Cluster) Shutdown() {
	if c.config.Timer != nil {
		c.config.Timer.CancelTimer(c.countdown)
	}
	c.Detach()
}

func (c *Cluster) load(attr datamodel.AttributeID) ([]byte, bool) {
	s := c.Storage()
	if s == nil {
		return nil, false
	}
	v, err := s.ReadValue(c.AttributePath(attr))
	if err != nil {
		if !errors.Is(err, datamodel.ErrNotFound) && c.log != nil {
			c.log.Warnf("endpoint %d: load attribute 0x%04X: %v", c.EndpointID(), uint32(attr), err)
		}
		return nil, false
	}
	return v, true
}

func (c *Cluster) store(attr datamodel.AttributeID, value []byte) {
	s := c.Storage()
	if s == nil {
		return
	}
	if err := s.WriteValue(c.AttributePath(attr), value); err != nil && c.log != nil {
		c.log.Warnf("endpoint %d: store attribute 0x%04X: %v", c.EndpointID(), uint32(attr), err)
	}
}

func (c *Cluster) persistOnOff(on bool) {
	c.store(AttrOnOff, persistence.EncodeBool(on))
}

func (c *Cluster) persistStartUpOnOff(v *StartUpOnOff) {
	c.store(AttrStartUpOnOff, persistence.EncodeNullableUint8((*uint8)(v)))
}

// countdown decrements OnTime while on and OffWaitTime while off, one
// tick per tenth of a second, and turns the endpoint off when OnTime
// runs out.
type countdown struct {
	c *Cluster
}

func (cd *countdown) arm() {
	t := cd.c.config.Timer
	if t == nil || t.IsTimerActive(cd) || !cd.pending() {
		return
	}
	if err := t.StartTimer(cd, countdownTick); err != nil && cd.c.log != nil {
		cd.c.log.Warnf("endpoint %d: start countdown: %v", cd.c.EndpointID(), err)
	}
}

func (cd *countdown) pending() bool {
	c := cd.c
	c.mu.RLock()
	defer c.mu.RUnlock()
	return (c.onOff && c.onTime > 0 && c.onTime != 0xFFFF) || (!c.onOff && c.offWaitTime > 0)
}

// TimerFired implements timer.Handler.
func (cd *countdown) TimerFired() {
	c := cd.c
	var expired datamodel.AttributeID
	var turnOff, zeroed bool

	c.mu.Lock()
	switch {
	case c.onOff && c.onTime > 0 && c.onTime != 0xFFFF:
		c.onTime--
		if c.onTime == 0 {
			expired, zeroed, turnOff = AttrOnTime, true, true
		}
	case !c.onOff && c.offWaitTime > 0:
		c.offWaitTime--
		if c.offWaitTime == 0 {
			expired, zeroed = AttrOffWaitTime, true
		}
	}
	c.mu.Unlock()

	if zeroed {
		c.NotifyAttributeChanged(expired)
	}
	if turnOff {
		c.setOnOff(false)
	}
	cd.arm()
}

// OnTime returns the remaining timed-on period in tenths of a second.
func (c *Cluster) OnTime() uint16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onTime
}

// OffWaitTime returns the remaining off guard in tenths of a second.
func (c *Cluster) OffWaitTime() uint16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offWaitTime
}
