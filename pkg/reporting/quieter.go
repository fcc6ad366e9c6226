// Package reporting holds attribute values whose change reports are
// filtered by policy, for attributes with the Quieter (Q) quality.
//
// An Attribute tracks a nullable value and the value and time of the last
// change that was deemed worth reporting. SetValue decides per update
// whether the change is "dirty" and must be reported.
package reporting

// Number is the set of value types an Attribute can carry.
type Number interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}

// DirtyState is the outcome of SetValue.
type DirtyState int

const (
	// NoReportNeeded means the change may be suppressed.
	NoReportNeeded DirtyState = iota
	// MustReport means the change has to be reported.
	MustReport
)

func (d DirtyState) String() string {
	if d == MustReport {
		return "MustReport"
	}
	return "NoReportNeeded"
}

// Candidate is what a ChangePredicate sees for a non-null to non-null change.
type Candidate[T Number] struct {
	// LastDirtyTimestampMs is when a change was last reported.
	LastDirtyTimestampMs uint64
	// LastDirtyValue is the last reported value, nil if it was null.
	LastDirtyValue *T
	NowMs          uint64
	NewValue       *T
}

// ChangePredicate decides whether a change of value is significant.
type ChangePredicate[T Number] func(c Candidate[T]) bool

// AlwaysReport accepts every change of value.
func AlwaysReport[T Number]() ChangePredicate[T] {
	return func(Candidate[T]) bool { return true }
}

// NeverReport rejects every change of value. Null transitions and policy
// flags still report.
func NeverReport[T Number]() ChangePredicate[T] {
	return func(Candidate[T]) bool { return false }
}

// SufficientTimeSinceLastDirty accepts a change once at least minIntervalMs
// has passed since the last reported change.
func SufficientTimeSinceLastDirty[T Number](minIntervalMs uint64) ChangePredicate[T] {
	return func(c Candidate[T]) bool {
		return c.NowMs-c.LastDirtyTimestampMs >= minIntervalMs
	}
}

// Policy flags add unconditional report triggers on top of the predicate.
type Policy uint8

const (
	ReportOnChangeToZero Policy = 1 << iota
	ReportOnChangeFromZero
	ReportOnIncrement
	ReportOnDecrement
)

// Attribute is a nullable numeric value with report filtering.
// It is not safe for concurrent use.
type Attribute[T Number] struct {
	value              *T
	lastDirtyValue     *T
	lastDirtyTimestamp uint64
	policy             Policy
}

// New returns an attribute holding initial, which may be nil.
func New[T Number](initial *T) *Attribute[T] {
	a := &Attribute[T]{}
	a.value = clone(initial)
	a.lastDirtyValue = clone(initial)
	return a
}

// SetPolicy replaces the policy flags.
func (a *Attribute[T]) SetPolicy(p Policy) {
	a.policy = p
}

// Value returns a copy of the current value, nil when null.
func (a *Attribute[T]) Value() *T {
	return clone(a.value)
}

// ValueOr returns the current value, or def when null.
func (a *Attribute[T]) ValueOr(def T) T {
	if a.value == nil {
		return def
	}
	return *a.value
}

// IsNull reports whether the current value is null.
func (a *Attribute[T]) IsNull() bool {
	return a.value == nil
}

// LastDirtyValue returns the last reported value, nil when null.
func (a *Attribute[T]) LastDirtyValue() *T {
	return clone(a.lastDirtyValue)
}

// SetValue stores newValue and reports whether the change must be reported.
//
// A change between null and non-null always reports. A change between two
// different non-null values reports when a policy flag matches or pred
// accepts it. Equal values never report.
func (a *Attribute[T]) SetValue(newValue *T, nowMs uint64, pred ChangePredicate[T]) DirtyState {
	nullChange := (newValue == nil) != (a.value == nil)
	differs := newValue != nil && a.value != nil && *newValue != *a.value

	dirty := nullChange
	if differs {
		var zero T
		oldV, newV := *a.value, *newValue
		switch {
		case a.policy&ReportOnChangeToZero != 0 && newV == zero:
			dirty = true
		case a.policy&ReportOnChangeFromZero != 0 && oldV == zero:
			dirty = true
		case a.policy&ReportOnIncrement != 0 && newV > oldV:
			dirty = true
		case a.policy&ReportOnDecrement != 0 && newV < oldV:
			dirty = true
		case pred != nil:
			dirty = pred(Candidate[T]{
				LastDirtyTimestampMs: a.lastDirtyTimestamp,
				LastDirtyValue:       clone(a.lastDirtyValue),
				NowMs:                nowMs,
				NewValue:             clone(newValue),
			})
		}
	}

	a.value = clone(newValue)
	if !dirty {
		return NoReportNeeded
	}
	a.lastDirtyValue = clone(newValue)
	a.lastDirtyTimestamp = nowMs
	return MustReport
}

func clone[T Number](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
