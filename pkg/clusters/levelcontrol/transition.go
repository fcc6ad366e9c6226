package levelcontrol

import (
	"fmt"
	"time"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// transitionHandler interpolates CurrentLevel from initialLevel to
// targetLevel, re-arming a one-shot timer every tickMs. It is idle when
// its timer is not armed.
type transitionHandler struct {
	c *Cluster

	commandID    datamodel.CommandID
	initialLevel uint8
	targetLevel  uint8
	transitionMs uint32
	tickMs       uint32
	startMs      uint64
	elapsedMs    uint32
}

// start replaces any active transition. A timer that cannot be armed
// leaves the cluster unable to honor the command and is fatal.
func (h *transitionHandler) start(cmd datamodel.CommandID, initial, target uint8, transitionMs, tickMs uint32) {
	h.commandID = cmd
	h.initialLevel = initial
	h.targetLevel = target
	h.transitionMs = transitionMs
	h.tickMs = tickMs
	h.elapsedMs = 0
	h.startMs = h.c.clock.MonotonicMilliseconds()

	h.c.UpdateRemainingTime(transitionMs, ForceReport)
	h.arm()
}

func (h *transitionHandler) arm() {
	if err := h.c.timer.StartTimer(h, time.Duration(h.tickMs)*time.Millisecond); err != nil {
		panic(fmt.Sprintf("levelcontrol: endpoint %d: arm transition timer: %v", h.c.EndpointID(), err))
	}
}

// stop cancels the timer and zeroes RemainingTime. It is a no-op when idle.
func (h *transitionHandler) stop() {
	h.c.timer.CancelTimer(h)
	h.c.UpdateRemainingTime(0, ForceReport)
}

// TimerFired implements timer.Handler.
func (h *transitionHandler) TimerFired() {
	c := h.c
	if c.currentLevel.IsNull() {
		return
	}

	now := c.clock.MonotonicMilliseconds()
	if now < h.startMs {
		// The clock went backwards: restart from now, keeping the part of
		// the transition RemainingTime says has already elapsed.
		h.startMs = now
		remainingMs := uint32(c.RemainingTime()) * 100
		if c.has(FeatureLighting) && remainingMs < h.transitionMs {
			done := uint64(h.transitionMs - remainingMs)
			if done > now {
				h.startMs = 0
			} else {
				h.startMs = now - done
			}
		}
	}

	elapsed := now - h.startMs
	if elapsed > uint64(^uint32(0)) {
		elapsed = uint64(^uint32(0))
	}
	h.elapsedMs = uint32(elapsed)

	var remainingMs uint32
	if c.has(FeatureLighting) && h.transitionMs > 0 && h.elapsedMs < h.transitionMs {
		remainingMs = h.transitionMs - h.elapsedMs
	}
	c.UpdateRemainingTime(remainingMs, QuietReport)

	level := h.initialLevel
	if h.elapsedMs >= h.transitionMs {
		level = h.targetLevel
	} else {
		delta := int64(h.targetLevel) - int64(h.initialLevel)
		change := delta * int64(h.elapsedMs) / int64(h.transitionMs)
		level = uint8(int64(h.initialLevel) + change)
	}

	if level == h.targetLevel || h.elapsedMs >= h.transitionMs {
		h.complete()
		return
	}

	if err := c.SetCurrentLevel(level, QuietReport); err != nil && c.log != nil {
		c.log.Warnf("endpoint %d: transition step to %d: %v", c.EndpointID(), level, err)
	}
	h.arm()
}

func (h *transitionHandler) complete() {
	c := h.c
	if err := c.SetCurrentLevel(h.targetLevel, ForceReport); err != nil && c.log != nil {
		c.log.Warnf("endpoint %d: finish transition at %d: %v", c.EndpointID(), h.targetLevel, err)
	}
	c.UpdateRemainingTime(0, ForceReport)

	coupled := isWithOnOff(h.commandID) || h.commandID == cmdInternalOff
	if coupled && (h.targetLevel == c.minLevel || h.targetLevel == 0) {
		if err := c.setOnOff(false); err != nil && c.log != nil {
			c.log.Warnf("endpoint %d: switch off at floor: %v", c.EndpointID(), err)
		}
	}
	if h.commandID == cmdInternalOff && h.targetLevel == c.minLevel {
		if err := c.restoreLevelBeforeOff(); err != nil && c.log != nil {
			c.log.Warnf("endpoint %d: restore level before off: %v", c.EndpointID(), err)
		}
	}
}

// transitionTimeMs is the planned duration of the latest transition.
func (h *transitionHandler) transitionTimeMs() uint32 {
	return h.transitionMs
}
