package datamodel

import (
	"bytes"
	"context"
	"testing"

	"github.com/backkem/matter-dimmer/pkg/tlv"
)

type recordingListener struct {
	paths []ConcreteAttributePath
}

func (l *recordingListener) OnAttributeChanged(path ConcreteAttributePath) {
	l.paths = append(l.paths, path)
}

func TestClusterBase_New(t *testing.T) {
	cb := NewClusterBase(ClusterLevelControl, 1, 6)

	if cb.ID() != ClusterLevelControl {
		t.Errorf("ID() = %v, want LevelControl", cb.ID())
	}
	if cb.EndpointID() != 1 {
		t.Errorf("EndpointID() = %v, want 1", cb.EndpointID())
	}
	if cb.ClusterRevision() != 6 {
		t.Errorf("ClusterRevision() = %v, want 6", cb.ClusterRevision())
	}
	if cb.FeatureMap() != 0 {
		t.Errorf("FeatureMap() = %v, want 0", cb.FeatureMap())
	}
}

func TestClusterBase_DataVersion(t *testing.T) {
	cb := NewClusterBase(ClusterOnOff, 0, 1)
	initial := cb.DataVersion()
	cb.IncrementDataVersion()
	if cb.DataVersion() != initial+1 {
		t.Errorf("DataVersion() = %v, want %v", cb.DataVersion(), initial+1)
	}
}

func TestClusterBase_NotifyAttributeChanged(t *testing.T) {
	cb := NewClusterBase(ClusterLevelControl, 2, 6)
	before := cb.DataVersion()

	// Without a context only the data version moves.
	cb.NotifyAttributeChanged(0x0000)
	if cb.DataVersion() != before+1 {
		t.Fatalf("DataVersion() = %v, want %v", cb.DataVersion(), before+1)
	}

	l := &recordingListener{}
	cb.Attach(ServerClusterContext{Listener: l})
	cb.NotifyAttributeChanged(0x0001)
	if len(l.paths) != 1 {
		t.Fatalf("listener saw %d reports, want 1", len(l.paths))
	}
	want := ConcreteAttributePath{Endpoint: 2, Cluster: ClusterLevelControl, Attribute: 0x0001}
	if l.paths[0] != want {
		t.Errorf("path = %v, want %v", l.paths[0], want)
	}

	cb.Detach()
	cb.NotifyAttributeChanged(0x0001)
	if len(l.paths) != 1 {
		t.Errorf("listener saw %d reports after Detach, want 1", len(l.paths))
	}
}

func TestClusterBase_ReadGlobalAttribute(t *testing.T) {
	cb := NewClusterBase(ClusterOnOff, 1, 4)
	cb.SetFeatureMap(0x01)
	attrs := MergeAttributeLists([]AttributeEntry{
		NewReadOnlyAttribute(0x0000, 0, PrivilegeView),
	})
	cmds := []CommandEntry{NewCommandEntry(0x00, 0, PrivilegeOperate), NewCommandEntry(0x01, 0, PrivilegeOperate)}

	tests := []struct {
		attr    AttributeID
		handled bool
		check   func(t *testing.T, r *tlv.Reader)
	}{
		{GlobalAttrClusterRevision, true, func(t *testing.T, r *tlv.Reader) {
			if v, _ := r.Uint(); v != 4 {
				t.Errorf("ClusterRevision = %d, want 4", v)
			}
		}},
		{GlobalAttrFeatureMap, true, func(t *testing.T, r *tlv.Reader) {
			if v, _ := r.Uint(); v != 1 {
				t.Errorf("FeatureMap = %d, want 1", v)
			}
		}},
		{GlobalAttrAttributeList, true, func(t *testing.T, r *tlv.Reader) {
			if n := countArray(t, r); n != 6 {
				t.Errorf("AttributeList length = %d, want 6", n)
			}
		}},
		{GlobalAttrAcceptedCommandList, true, func(t *testing.T, r *tlv.Reader) {
			if n := countArray(t, r); n != 2 {
				t.Errorf("AcceptedCommandList length = %d, want 2", n)
			}
		}},
		{GlobalAttrGeneratedCommandList, true, func(t *testing.T, r *tlv.Reader) {
			if n := countArray(t, r); n != 0 {
				t.Errorf("GeneratedCommandList length = %d, want 0", n)
			}
		}},
		{0x0000, false, nil},
	}

	for _, tc := range tests {
		var buf bytes.Buffer
		handled, err := cb.ReadGlobalAttribute(context.Background(), tc.attr, tlv.NewWriter(&buf), attrs, cmds, nil)
		if err != nil {
			t.Fatalf("ReadGlobalAttribute(0x%04X): %v", tc.attr, err)
		}
		if handled != tc.handled {
			t.Fatalf("ReadGlobalAttribute(0x%04X) handled = %v, want %v", tc.attr, handled, tc.handled)
		}
		if tc.check == nil {
			continue
		}
		r := tlv.NewReader(&buf)
		if err := r.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
		tc.check(t, r)
	}
}

func countArray(t *testing.T, r *tlv.Reader) int {
	t.Helper()
	if err := r.EnterContainer(); err != nil {
		t.Fatalf("EnterContainer: %v", err)
	}
	n := 0
	for {
		if err := r.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
		if r.IsEndOfContainer() {
			break
		}
		n++
	}
	return n
}

func TestFindAttributeAndCommand(t *testing.T) {
	attrs := MergeAttributeLists([]AttributeEntry{
		NewReadWriteAttribute(0x000F, 0, PrivilegeView, PrivilegeOperate),
	})
	if a := FindAttribute(attrs, 0x000F); a == nil || !a.IsWritable() {
		t.Errorf("FindAttribute(0x000F) = %v, want writable entry", a)
	}
	if FindAttribute(attrs, 0x1234) != nil {
		t.Error("FindAttribute(0x1234) != nil")
	}
	if a := FindAttribute(attrs, GlobalAttrAttributeList); a == nil || !a.IsList() {
		t.Errorf("AttributeList entry = %v, want list quality", a)
	}

	cmds := []CommandEntry{NewCommandEntry(0x04, CmdQualityTimed, PrivilegeOperate)}
	if c := FindCommand(cmds, 0x04); c == nil || !c.RequiresTimed() {
		t.Errorf("FindCommand(0x04) = %v, want timed entry", c)
	}
	if FindCommand(cmds, 0x05) != nil {
		t.Error("FindCommand(0x05) != nil")
	}
}

func TestAttributeQualityString(t *testing.T) {
	q := AttrQualityNonVolatile | AttrQualityScene | AttrQualityNullable
	if got := q.String(); got != "NSX" {
		t.Errorf("String() = %q, want NSX", got)
	}
	if got := AttributeQuality(0).String(); got != "None" {
		t.Errorf("String() = %q, want None", got)
	}
}
