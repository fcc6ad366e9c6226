package reporting

import "testing"

func ptr[T Number](v T) *T { return &v }

func TestAttribute_NullTransitionsAlwaysReport(t *testing.T) {
	a := New[uint8](nil)
	if got := a.SetValue(ptr[uint8](5), 0, NeverReport[uint8]()); got != MustReport {
		t.Errorf("null -> 5 = %v, want MustReport", got)
	}
	if got := a.SetValue(nil, 0, NeverReport[uint8]()); got != MustReport {
		t.Errorf("5 -> null = %v, want MustReport", got)
	}
	if got := a.SetValue(nil, 0, AlwaysReport[uint8]()); got != NoReportNeeded {
		t.Errorf("null -> null = %v, want NoReportNeeded", got)
	}
}

func TestAttribute_EqualValueNeverReports(t *testing.T) {
	a := New(ptr[uint8](7))
	if got := a.SetValue(ptr[uint8](7), 10, AlwaysReport[uint8]()); got != NoReportNeeded {
		t.Errorf("7 -> 7 = %v, want NoReportNeeded", got)
	}
}

func TestAttribute_SufficientTimeSinceLastDirty(t *testing.T) {
	a := New(ptr[uint8](1))
	pred := SufficientTimeSinceLastDirty[uint8](1000)

	steps := []struct {
		now  uint64
		v    uint8
		want DirtyState
	}{
		{1000, 2, MustReport},
		{1500, 3, NoReportNeeded},
		{1999, 4, NoReportNeeded},
		{2000, 5, MustReport},
		{2100, 6, NoReportNeeded},
	}
	for _, s := range steps {
		if got := a.SetValue(ptr(s.v), s.now, pred); got != s.want {
			t.Errorf("t=%d v=%d: %v, want %v", s.now, s.v, got, s.want)
		}
		if *a.Value() != s.v {
			t.Errorf("Value() = %d, want %d", *a.Value(), s.v)
		}
	}
	if last := a.LastDirtyValue(); last == nil || *last != 5 {
		t.Errorf("LastDirtyValue() = %v, want 5", last)
	}
}

func TestAttribute_PredicateSeesLastDirty(t *testing.T) {
	a := New(ptr[uint16](40))
	a.SetValue(ptr[uint16](30), 100, AlwaysReport[uint16]())

	var seen Candidate[uint16]
	a.SetValue(ptr[uint16](20), 250, func(c Candidate[uint16]) bool {
		seen = c
		return false
	})
	if seen.LastDirtyTimestampMs != 100 || seen.NowMs != 250 {
		t.Errorf("timestamps = %d/%d, want 100/250", seen.LastDirtyTimestampMs, seen.NowMs)
	}
	if seen.LastDirtyValue == nil || *seen.LastDirtyValue != 30 {
		t.Errorf("LastDirtyValue = %v, want 30", seen.LastDirtyValue)
	}
	if seen.NewValue == nil || *seen.NewValue != 20 {
		t.Errorf("NewValue = %v, want 20", seen.NewValue)
	}
}

func TestAttribute_Policies(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		from   uint8
		to     uint8
		want   DirtyState
	}{
		{"to zero", ReportOnChangeToZero, 5, 0, MustReport},
		{"to zero not matching", ReportOnChangeToZero, 5, 1, NoReportNeeded},
		{"from zero", ReportOnChangeFromZero, 0, 9, MustReport},
		{"increment", ReportOnIncrement, 3, 4, MustReport},
		{"increment on decrement", ReportOnIncrement, 4, 3, NoReportNeeded},
		{"decrement", ReportOnDecrement, 4, 3, MustReport},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := New(ptr(tc.from))
			a.SetPolicy(tc.policy)
			if got := a.SetValue(ptr(tc.to), 0, NeverReport[uint8]()); got != tc.want {
				t.Errorf("SetValue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAttribute_ValueIsCopied(t *testing.T) {
	v := uint8(10)
	a := New(&v)
	v = 20
	if a.ValueOr(0) != 10 {
		t.Errorf("ValueOr = %d, want 10", a.ValueOr(0))
	}
	got := a.Value()
	*got = 99
	if a.ValueOr(0) != 10 {
		t.Errorf("Value() leaked internal pointer")
	}
	if New[uint8](nil).ValueOr(3) != 3 {
		t.Error("ValueOr on null did not return default")
	}
}
