package levelcontrol

import (
	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// ShouldExecuteIfOff reports whether a command without the OnOff suffix
// may run. It may when there is no On/Off coupling or the endpoint is on;
// otherwise the ExecuteIfOff bit decides, taken from override when mask
// selects it and from the Options attribute otherwise.
func (c *Cluster) ShouldExecuteIfOff(mask, override Options) bool {
	if !c.has(FeatureOnOff) || c.getOnOff() {
		return true
	}
	if mask.Has(OptionExecuteIfOff) {
		return override.Has(OptionExecuteIfOff)
	}
	return c.options.Has(OptionExecuteIfOff)
}

func (c *Cluster) getOnOff() bool {
	if !c.has(FeatureOnOff) {
		return false
	}
	return c.onOff.GetOnOff()
}

// setOnOff drives the coupled On/Off cluster, suppressing the change
// notification it sends back.
func (c *Cluster) setOnOff(on bool) error {
	if !c.has(FeatureOnOff) || on == c.getOnOff() {
		return nil
	}
	c.ignoreOnOffCallbacks = true
	defer func() { c.ignoreOnOffCallbacks = false }()
	return c.onOff.SetOnOff(on)
}

// OnOnOffChanged reacts to the coupled On/Off cluster. Switching on fades
// in from MinLevel to OnLevel, the level before the last off, or 254.
// Switching off remembers the level and fades to MinLevel.
func (c *Cluster) OnOnOffChanged(on bool) {
	if c.currentLevel.IsNull() || c.ignoreOnOffCallbacks {
		return
	}

	if on {
		target := MaxLevel
		if c.levelBeforeTurnedOff != nil {
			target = *c.levelBeforeTurnedOff
		}
		if c.onLevel != nil {
			target = *c.onLevel
		}
		target = clamp(target, c.minLevel, c.maxLevel)

		if err := c.SetCurrentLevel(c.minLevel, ForceReport); err != nil && c.log != nil {
			c.log.Warnf("endpoint %d: reset to min level: %v", c.EndpointID(), err)
		}
		tt := c.couplingTransitionTime(AttrOnTransitionTime, c.onTransitionTime)
		if err := c.moveToLevel(CmdMoveToLevelWithOnOff, target, tt, 0, 0); err != nil && c.log != nil {
			c.log.Warnf("endpoint %d: fade in to %d: %v", c.EndpointID(), target, err)
		}
		return
	}

	c.levelBeforeTurnedOff = c.currentLevel.Value()
	tt := c.couplingTransitionTime(AttrOffTransitionTime, c.offTransitionTime)
	err := c.moveToLevel(cmdInternalOff, c.minLevel, tt, OptionExecuteIfOff, OptionExecuteIfOff)
	if err != nil && c.log != nil {
		c.log.Warnf("endpoint %d: fade out: %v", c.EndpointID(), err)
	}
}

// couplingTransitionTime picks the dedicated on or off transition time
// when exposed and set, else OnOffTransitionTime when exposed, else nil.
func (c *Cluster) couplingTransitionTime(attr datamodel.AttributeID, dedicated *uint16) *uint16 {
	if c.optional[attr] && dedicated != nil {
		return cloneU16(dedicated)
	}
	if c.optional[AttrOnOffTransitionTime] {
		return u16(c.onOffTransitionTime)
	}
	return nil
}
