package levelcontrol

import (
	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/reporting"
)

// currentLevelQuietIntervalMs rate-limits intermediate CurrentLevel reports.
const currentLevelQuietIntervalMs = 1000

// remainingTimeReportDelta is the RemainingTime jump, in tenths of a
// second, that a command must cause to be reported.
const remainingTimeReportDelta = 10

// SetCurrentLevel updates CurrentLevel, persists it and tells the
// delegate. QuietReport reports at most once per second; ForceReport
// always reports, even when the level is unchanged.
func (c *Cluster) SetCurrentLevel(level uint8, mode ReportingMode) error {
	if !c.IsValidLevel(level) {
		return datamodel.ErrConstraintError
	}
	if cur := c.currentLevel.Value(); cur != nil && *cur == level {
		if mode == ForceReport {
			c.NotifyAttributeChanged(AttrCurrentLevel)
		}
		return nil
	}

	pred := reporting.AlwaysReport[uint8]()
	if mode == QuietReport {
		pred = reporting.SufficientTimeSinceLastDirty[uint8](currentLevelQuietIntervalMs)
	}
	if c.currentLevel.SetValue(&level, c.clock.MonotonicMilliseconds(), pred) == reporting.MustReport {
		c.NotifyAttributeChanged(AttrCurrentLevel)
	}
	c.storeNullableUint8(AttrCurrentLevel, &level)
	c.delegate.OnLevelChanged(level)
	return nil
}

// UpdateRemainingTime sets RemainingTime from milliseconds, rounding up
// to tenths of a second. It does nothing without FeatureLighting.
//
// QuietReport only reports reaching 0. ForceReport, used when a command
// starts or ends a transition of at least one second, also reports a
// jump of more than remainingTimeReportDelta.
func (c *Cluster) UpdateRemainingTime(remainingMs uint32, mode ReportingMode) {
	if !c.has(FeatureLighting) {
		return
	}
	ds64 := (uint64(remainingMs) + 99) / 100
	if ds64 > 0xFFFF {
		ds64 = 0xFFFF
	}
	ds := uint16(ds64)

	pred := func(cand reporting.Candidate[uint16]) bool {
		newValue := valueOr(cand.NewValue, 0)
		lastDirty := valueOr(cand.LastDirtyValue, 0)
		toZero := newValue == 0 && lastDirty != 0
		if mode == QuietReport {
			return toZero
		}
		if c.transition.transitionTimeMs() < 1000 {
			return false
		}
		var delta uint16
		if newValue > lastDirty {
			delta = newValue - lastDirty
		} else {
			delta = lastDirty - newValue
		}
		return toZero || delta > remainingTimeReportDelta
	}
	if c.remainingTime.SetValue(&ds, c.clock.MonotonicMilliseconds(), pred) == reporting.MustReport {
		c.NotifyAttributeChanged(AttrRemainingTime)
	}
}

func valueOr[T reporting.Number](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
