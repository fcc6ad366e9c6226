package levelcontrol

import (
	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// MoveToLevel moves to level over transitionTime tenths of a second,
// falling back to OnOffTransitionTime when nil.
func (c *Cluster) MoveToLevel(level uint8, transitionTime *uint16, mask, override Options) error {
	return c.moveToLevel(CmdMoveToLevel, level, transitionTime, mask, override)
}

// MoveToLevelWithOnOff is MoveToLevel that switches the On/Off cluster on
// first and off when the minimum level is reached.
func (c *Cluster) MoveToLevelWithOnOff(level uint8, transitionTime *uint16, mask, override Options) error {
	return c.moveToLevel(CmdMoveToLevelWithOnOff, level, transitionTime, mask, override)
}

// Move moves toward the bound in mode at rate levels per second, or at
// DefaultMoveRate when rate is nil.
func (c *Cluster) Move(mode MoveMode, rate *uint8, mask, override Options) error {
	return c.move(CmdMove, mode, rate, mask, override)
}

// MoveWithOnOff is the On/Off coupled Move.
func (c *Cluster) MoveWithOnOff(mode MoveMode, rate *uint8, mask, override Options) error {
	return c.move(CmdMoveWithOnOff, mode, rate, mask, override)
}

// Step moves size levels in mode over transitionTime tenths of a second,
// or immediately when nil.
func (c *Cluster) Step(mode StepMode, size uint8, transitionTime *uint16, mask, override Options) error {
	return c.step(CmdStep, mode, size, transitionTime, mask, override)
}

// StepWithOnOff is the On/Off coupled Step.
func (c *Cluster) StepWithOnOff(mode StepMode, size uint8, transitionTime *uint16, mask, override Options) error {
	return c.step(CmdStepWithOnOff, mode, size, transitionTime, mask, override)
}

// Stop halts any transition and reports the level reached.
func (c *Cluster) Stop(mask, override Options) error {
	return c.stop(CmdStop, mask, override)
}

// StopWithOnOff is Stop without the Options check.
func (c *Cluster) StopWithOnOff(mask, override Options) error {
	return c.stop(CmdStopWithOnOff, mask, override)
}

func (c *Cluster) moveToLevel(cmd datamodel.CommandID, level uint8, transitionTime *uint16, mask, override Options) error {
	if !c.IsValidLevel(level) {
		return datamodel.ErrConstraintError
	}
	if isWithOnOff(cmd) {
		if err := c.setOnOff(true); err != nil {
			return err
		}
	} else if !c.ShouldExecuteIfOff(mask, override) {
		return nil
	}

	c.transition.stop()

	cur := c.currentLevel.Value()
	if cur == nil {
		// Nothing to interpolate from.
		if err := c.SetCurrentLevel(level, ForceReport); err != nil {
			return err
		}
		if isWithOnOff(cmd) && level == c.minLevel {
			return c.setOnOff(false)
		}
		return nil
	}

	ds := uint32(c.onOffTransitionTime)
	if transitionTime != nil {
		ds = uint32(*transitionTime)
	}
	transitionMs := ds * 100
	steps := absDiff(level, *cur)
	var tickMs uint32
	if steps > 0 {
		tickMs = transitionMs / steps
	}
	if tickMs > 0 {
		c.transition.start(cmd, *cur, level, transitionMs, tickMs)
		return nil
	}

	if err := c.SetCurrentLevel(level, ForceReport); err != nil {
		return err
	}
	return c.finishAtTarget(cmd, level)
}

// finishAtTarget applies the floor coupling once a move has reached level
// immediately.
func (c *Cluster) finishAtTarget(cmd datamodel.CommandID, level uint8) error {
	if level != c.minLevel {
		return nil
	}
	if isWithOnOff(cmd) || cmd == cmdInternalOff {
		if err := c.setOnOff(false); err != nil {
			return err
		}
	}
	if cmd == cmdInternalOff {
		return c.restoreLevelBeforeOff()
	}
	return nil
}

// restoreLevelBeforeOff puts back the level captured before a fade-out so
// the next On without OnLevel resumes it.
func (c *Cluster) restoreLevelBeforeOff() error {
	if c.onLevel != nil || c.levelBeforeTurnedOff == nil {
		return nil
	}
	return c.SetCurrentLevel(*c.levelBeforeTurnedOff, ForceReport)
}

func (c *Cluster) move(cmd datamodel.CommandID, mode MoveMode, rate *uint8, mask, override Options) error {
	if rate != nil && *rate == 0 {
		return datamodel.ErrInvalidCommand
	}
	if mode > MoveModeDown {
		return datamodel.ErrConstraintError
	}
	if c.currentLevel.IsNull() {
		return datamodel.ErrFailure
	}
	if rate == nil && c.defaultMoveRate == nil {
		return nil
	}
	r := c.defaultMoveRate
	if rate != nil {
		r = rate
	}
	if *r == 0 {
		return datamodel.ErrConstraintError
	}

	if isWithOnOff(cmd) {
		if mode == MoveModeUp {
			if err := c.setOnOff(true); err != nil {
				return err
			}
		}
	} else if !c.ShouldExecuteIfOff(mask, override) {
		return nil
	}

	c.transition.stop()

	cur := *c.currentLevel.Value()
	var target uint8
	if mode == MoveModeUp {
		target = c.maxLevel
		if cur >= target {
			return nil
		}
	} else {
		target = c.minLevel
		if cur <= target {
			return nil
		}
	}

	tickMs := 1000 / uint32(*r)
	if tickMs == 0 {
		tickMs = 1
	}
	c.transition.start(cmd, cur, target, absDiff(target, cur)*tickMs, tickMs)
	return nil
}

func (c *Cluster) step(cmd datamodel.CommandID, mode StepMode, size uint8, transitionTime *uint16, mask, override Options) error {
	if size == 0 {
		return datamodel.ErrInvalidCommand
	}
	if mode > StepModeDown {
		return datamodel.ErrConstraintError
	}
	if c.currentLevel.IsNull() {
		return datamodel.ErrFailure
	}

	if isWithOnOff(cmd) {
		if mode == StepModeUp {
			if err := c.setOnOff(true); err != nil {
				return err
			}
		}
	} else if !c.ShouldExecuteIfOff(mask, override) {
		return nil
	}

	c.transition.stop()

	cur := *c.currentLevel.Value()
	var target uint8
	if mode == StepModeUp {
		target = uint8(min(int(cur)+int(size), int(c.maxLevel)))
	} else {
		target = uint8(max(int(cur)-int(size), int(c.minLevel)))
	}

	var transitionMs uint32
	if transitionTime != nil {
		transitionMs = uint32(*transitionTime) * 100
	}
	steps := absDiff(target, cur)
	if transitionMs == 0 || steps == 0 || transitionMs/steps == 0 {
		if err := c.SetCurrentLevel(target, ForceReport); err != nil {
			return err
		}
		if isWithOnOff(cmd) && target == c.minLevel {
			return c.setOnOff(false)
		}
		return nil
	}
	c.transition.start(cmd, cur, target, transitionMs, transitionMs/steps)
	return nil
}

func (c *Cluster) stop(cmd datamodel.CommandID, mask, override Options) error {
	if !isWithOnOff(cmd) && !c.ShouldExecuteIfOff(mask, override) {
		return nil
	}
	c.transition.stop()
	c.UpdateRemainingTime(0, ForceReport)

	cur := c.currentLevel.Value()
	if cur == nil {
		return nil
	}
	return c.SetCurrentLevel(*cur, ForceReport)
}

func absDiff(a, b uint8) uint32 {
	if a > b {
		return uint32(a - b)
	}
	return uint32(b - a)
}
