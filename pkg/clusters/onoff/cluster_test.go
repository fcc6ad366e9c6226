package onoff

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/backkem/matter-dimmer/pkg/clusters"
	"github.com/backkem/matter-dimmer/pkg/clusters/scenes"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/persistence"
	"github.com/backkem/matter-dimmer/pkg/timer"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

type recordingListener struct {
	changes []bool
}

func (l *recordingListener) OnOnOffChanged(on bool) {
	l.changes = append(l.changes, on)
}

type pathRecorder struct {
	paths []datamodel.ConcreteAttributePath
}

func (p *pathRecorder) OnAttributeChanged(path datamodel.ConcreteAttributePath) {
	p.paths = append(p.paths, path)
}

func (p *pathRecorder) count(attr datamodel.AttributeID) int {
	n := 0
	for _, path := range p.paths {
		if path.Attribute == attr {
			n++
		}
	}
	return n
}

func newTestCluster(t *testing.T, features Feature) *Cluster {
	t.Helper()
	c := New(Config{EndpointID: 1, FeatureMap: features})
	if err := c.Startup(datamodel.ServerClusterContext{}); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	return c
}

func invoke(t *testing.T, c *Cluster, cmd datamodel.CommandID, payload clusters.TLVMarshaler) error {
	t.Helper()
	data := encodeEmptyCommand()
	if payload != nil {
		var err error
		if data, err = clusters.EncodeRequest(payload); err != nil {
			t.Fatalf("EncodeRequest() error = %v", err)
		}
	}
	req := datamodel.InvokeRequest{Path: datamodel.ConcreteCommandPath{Endpoint: 1, Cluster: ClusterID, Command: cmd}}
	_, err := c.InvokeCommand(context.Background(), req, tlv.NewReader(bytes.NewReader(data)))
	return err
}

func readAttr(t *testing.T, c *Cluster, attr datamodel.AttributeID) *tlv.Reader {
	t.Helper()
	var buf bytes.Buffer
	req := datamodel.ReadAttributeRequest{Path: c.AttributePath(attr)}
	if err := c.ReadAttribute(context.Background(), req, tlv.NewWriter(&buf)); err != nil {
		t.Fatalf("ReadAttribute(0x%04X) error = %v", uint32(attr), err)
	}
	r := tlv.NewReader(bytes.NewReader(buf.Bytes()))
	if err := r.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	return r
}

func writeAttr(c *Cluster, attr datamodel.AttributeID, encode func(w *tlv.Writer) error) error {
	var buf bytes.Buffer
	if err := encode(tlv.NewWriter(&buf)); err != nil {
		return err
	}
	req := datamodel.WriteAttributeRequest{Path: c.AttributePath(attr)}
	return c.WriteAttribute(context.Background(), req, tlv.NewReader(bytes.NewReader(buf.Bytes())))
}

func TestCluster_Identity(t *testing.T) {
	c := newTestCluster(t, 0)
	if c.ID() != ClusterID {
		t.Errorf("ID() = 0x%04X, want 0x%04X", c.ID(), ClusterID)
	}
	if c.ClusterRevision() != ClusterRevision {
		t.Errorf("ClusterRevision() = %d, want %d", c.ClusterRevision(), ClusterRevision)
	}
}

func TestCluster_ReadOnOff(t *testing.T) {
	c := newTestCluster(t, 0)
	v, err := readAttr(t, c, AttrOnOff).Bool()
	if err != nil {
		t.Fatal(err)
	}
	if v {
		t.Errorf("OnOff = %v, want false", v)
	}
}

func TestCluster_Commands(t *testing.T) {
	c := newTestCluster(t, 0)

	if err := invoke(t, c, CmdOn, nil); err != nil {
		t.Fatalf("On error = %v", err)
	}
	if !c.GetOnOff() {
		t.Error("OnOff = false after On")
	}
	if err := invoke(t, c, CmdToggle, nil); err != nil {
		t.Fatalf("Toggle error = %v", err)
	}
	if c.GetOnOff() {
		t.Error("OnOff = true after Toggle")
	}
	if err := invoke(t, c, CmdToggle, nil); err != nil {
		t.Fatalf("Toggle error = %v", err)
	}
	if err := invoke(t, c, CmdOff, nil); err != nil {
		t.Fatalf("Off error = %v", err)
	}
	if c.GetOnOff() {
		t.Error("OnOff = true after Off")
	}
}

func TestCluster_Listener(t *testing.T) {
	c := newTestCluster(t, 0)
	l := &recordingListener{}
	c.AddListener(l)

	_ = c.SetOnOff(true)
	_ = c.SetOnOff(true)
	_ = c.SetOnOff(false)

	if len(l.changes) != 2 || !l.changes[0] || l.changes[1] {
		t.Errorf("changes = %v, want [true false]", l.changes)
	}
}

func TestCluster_ListenerMayReenter(t *testing.T) {
	c := newTestCluster(t, 0)
	c.AddListener(ListenerFunc(func(on bool) {
		if on {
			_ = c.SetOnOff(false)
		}
	}))
	_ = c.SetOnOff(true)
	if c.GetOnOff() {
		t.Error("OnOff = true, want listener to switch it off again")
	}
}

func TestCluster_ReportsChanges(t *testing.T) {
	rec := &pathRecorder{}
	c := New(Config{EndpointID: 1})
	if err := c.Startup(datamodel.ServerClusterContext{Listener: rec}); err != nil {
		t.Fatal(err)
	}
	before := c.DataVersion()
	_ = c.SetOnOff(true)
	if rec.count(AttrOnOff) != 1 {
		t.Errorf("OnOff reports = %d, want 1", rec.count(AttrOnOff))
	}
	if c.DataVersion() == before {
		t.Error("DataVersion did not change")
	}
}

func TestCluster_OffOnly(t *testing.T) {
	c := newTestCluster(t, FeatureOffOnly)
	if err := c.SetOnOff(true); !errors.Is(err, datamodel.ErrUnsupportedCommand) {
		t.Errorf("SetOnOff(true) error = %v, want ErrUnsupportedCommand", err)
	}
	if err := invoke(t, c, CmdOn, nil); !errors.Is(err, datamodel.ErrUnsupportedCommand) {
		t.Errorf("On error = %v, want ErrUnsupportedCommand", err)
	}
	if datamodel.FindCommand(c.AcceptedCommandList(), CmdToggle) != nil {
		t.Error("Toggle accepted under OffOnly")
	}
}

func TestCluster_AttributeLists(t *testing.T) {
	tests := []struct {
		name     string
		features Feature
		attr     datamodel.AttributeID
		want     bool
	}{
		{"OnOff always", 0, AttrOnOff, true},
		{"OnTime needs lighting", 0, AttrOnTime, false},
		{"OnTime with lighting", FeatureLighting, AttrOnTime, true},
		{"StartUpOnOff with lighting", FeatureLighting, AttrStartUpOnOff, true},
		{"ClusterRevision global", 0, datamodel.GlobalAttrClusterRevision, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCluster(t, tt.features)
			got := datamodel.FindAttribute(c.AttributeList(), tt.attr) != nil
			if got != tt.want {
				t.Errorf("has 0x%04X = %v, want %v", uint32(tt.attr), got, tt.want)
			}
		})
	}

	c := newTestCluster(t, 0)
	if datamodel.FindCommand(c.AcceptedCommandList(), CmdOffWithEffect) != nil {
		t.Error("OffWithEffect accepted without lighting")
	}
	if err := invoke(t, c, CmdOffWithEffect, OffWithEffectRequest{}); !errors.Is(err, datamodel.ErrUnsupportedCommand) {
		t.Errorf("OffWithEffect error = %v, want ErrUnsupportedCommand", err)
	}
}

func TestCluster_ReadUnsupported(t *testing.T) {
	c := newTestCluster(t, 0)
	var buf bytes.Buffer
	req := datamodel.ReadAttributeRequest{Path: c.AttributePath(AttrOnTime)}
	if err := c.ReadAttribute(context.Background(), req, tlv.NewWriter(&buf)); !errors.Is(err, datamodel.ErrUnsupportedAttribute) {
		t.Errorf("ReadAttribute(OnTime) error = %v, want ErrUnsupportedAttribute", err)
	}
}

func TestCluster_WriteAttributes(t *testing.T) {
	c := newTestCluster(t, FeatureLighting)

	err := writeAttr(c, AttrOnTime, func(w *tlv.Writer) error { return w.PutUint(tlv.Anonymous(), 300) })
	if err != nil {
		t.Fatalf("write OnTime error = %v", err)
	}
	if v, _ := readAttr(t, c, AttrOnTime).Uint(); v != 300 {
		t.Errorf("OnTime = %d, want 300", v)
	}

	err = writeAttr(c, AttrOnOff, func(w *tlv.Writer) error { return w.PutBool(tlv.Anonymous(), true) })
	if !errors.Is(err, datamodel.ErrUnsupportedWrite) {
		t.Errorf("write OnOff error = %v, want ErrUnsupportedWrite", err)
	}

	err = writeAttr(c, AttrStartUpOnOff, func(w *tlv.Writer) error { return w.PutUint(tlv.Anonymous(), 3) })
	if !errors.Is(err, datamodel.ErrConstraintError) {
		t.Errorf("write StartUpOnOff=3 error = %v, want ErrConstraintError", err)
	}

	err = writeAttr(c, AttrStartUpOnOff, func(w *tlv.Writer) error { return w.PutUint(tlv.Anonymous(), 2) })
	if err != nil {
		t.Fatalf("write StartUpOnOff error = %v", err)
	}
	if v, _ := readAttr(t, c, AttrStartUpOnOff).Uint(); v != 2 {
		t.Errorf("StartUpOnOff = %d, want 2", v)
	}

	err = writeAttr(c, AttrStartUpOnOff, func(w *tlv.Writer) error { return w.PutNull(tlv.Anonymous()) })
	if err != nil {
		t.Fatalf("write StartUpOnOff null error = %v", err)
	}
	if !readAttr(t, c, AttrStartUpOnOff).IsNull() {
		t.Error("StartUpOnOff not null")
	}
}

func TestCluster_Startup(t *testing.T) {
	on, off, toggle := StartUpOnOffOn, StartUpOnOffOff, StartUpOnOffToggle
	tests := []struct {
		name     string
		features Feature
		stored   *bool
		startUp  *StartUpOnOff
		want     bool
	}{
		{"default", 0, nil, nil, false},
		{"previous on", 0, boolPtr(true), nil, true},
		{"startup ignored without lighting", 0, boolPtr(true), &off, true},
		{"startup off", FeatureLighting, boolPtr(true), &off, false},
		{"startup on", FeatureLighting, boolPtr(false), &on, true},
		{"startup toggle", FeatureLighting, boolPtr(false), &toggle, true},
		{"startup previous", FeatureLighting, boolPtr(true), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := persistence.NewMemoryStorage()
			path := datamodel.ConcreteAttributePath{Endpoint: 1, Cluster: ClusterID, Attribute: AttrOnOff}
			if tt.stored != nil {
				_ = store.WriteValue(path, persistence.EncodeBool(*tt.stored))
			}
			c := New(Config{EndpointID: 1, FeatureMap: tt.features, StartUpOnOff: tt.startUp})
			if err := c.Startup(datamodel.ServerClusterContext{Storage: store}); err != nil {
				t.Fatal(err)
			}
			if c.GetOnOff() != tt.want {
				t.Errorf("OnOff = %v, want %v", c.GetOnOff(), tt.want)
			}
		})
	}
}

func TestCluster_Persistence(t *testing.T) {
	store := persistence.NewMemoryStorage()
	ctx := datamodel.ServerClusterContext{Storage: store}

	c1 := New(Config{EndpointID: 1, FeatureMap: FeatureLighting})
	_ = c1.Startup(ctx)
	_ = c1.SetOnOff(true)
	toggle := StartUpOnOffToggle
	_ = c1.SetStartUpOnOff(&toggle)
	c1.Shutdown()

	c2 := New(Config{EndpointID: 1, FeatureMap: FeatureLighting})
	_ = c2.Startup(ctx)
	if s := c2.StartUpOnOff(); s == nil || *s != StartUpOnOffToggle {
		t.Errorf("StartUpOnOff = %v, want Toggle", s)
	}
	if c2.GetOnOff() {
		t.Error("OnOff = true, want toggled to false")
	}
}

func TestCluster_OffWithEffectAndRecall(t *testing.T) {
	c := newTestCluster(t, FeatureLighting)
	_ = c.SetOnOff(true)

	if err := invoke(t, c, CmdOffWithEffect, OffWithEffectRequest{EffectIdentifier: EffectDyingLight}); err != nil {
		t.Fatalf("OffWithEffect error = %v", err)
	}
	if c.GetOnOff() {
		t.Error("OnOff = true after OffWithEffect")
	}
	if v, _ := readAttr(t, c, AttrGlobalSceneControl).Bool(); v {
		t.Error("GlobalSceneControl = true after OffWithEffect")
	}

	if err := invoke(t, c, CmdOnWithRecallGlobalScene, nil); err != nil {
		t.Fatalf("OnWithRecallGlobalScene error = %v", err)
	}
	if !c.GetOnOff() {
		t.Error("OnOff = false after OnWithRecallGlobalScene")
	}

	// A second recall without an intervening OffWithEffect is ignored.
	_ = c.SetOnOff(false)
	_ = invoke(t, c, CmdOnWithRecallGlobalScene, nil)
	if c.GetOnOff() {
		t.Error("OnWithRecallGlobalScene turned on with GlobalSceneControl set")
	}

	err := invoke(t, c, CmdOffWithEffect, OffWithEffectRequest{EffectIdentifier: 7})
	if !errors.Is(err, datamodel.ErrConstraintError) {
		t.Errorf("OffWithEffect(7) error = %v, want ErrConstraintError", err)
	}
}

func TestCluster_OnWithTimedOff(t *testing.T) {
	clock := timer.NewManual(0)
	c := New(Config{EndpointID: 1, FeatureMap: FeatureLighting, Timer: clock})
	_ = c.Startup(datamodel.ServerClusterContext{})

	if err := invoke(t, c, CmdOnWithTimedOff, OnWithTimedOffRequest{OnTime: 10, OffWaitTime: 5}); err != nil {
		t.Fatalf("OnWithTimedOff error = %v", err)
	}
	if !c.GetOnOff() {
		t.Fatal("OnOff = false after OnWithTimedOff")
	}
	if c.OnTime() != 10 || c.OffWaitTime() != 5 {
		t.Errorf("OnTime/OffWaitTime = %d/%d, want 10/5", c.OnTime(), c.OffWaitTime())
	}

	clock.Advance(900 * time.Millisecond)
	if !c.GetOnOff() {
		t.Error("OnOff = false before OnTime expired")
	}
	clock.Advance(100 * time.Millisecond)
	if c.GetOnOff() {
		t.Error("OnOff = true after OnTime expired")
	}

	// During the off-wait period a timed on only shortens the wait.
	_ = invoke(t, c, CmdOnWithTimedOff, OnWithTimedOffRequest{OnTime: 10, OffWaitTime: 2})
	if c.GetOnOff() {
		t.Error("OnWithTimedOff turned on during off-wait")
	}
	if c.OffWaitTime() != 2 {
		t.Errorf("OffWaitTime = %d, want 2", c.OffWaitTime())
	}
	clock.Advance(time.Second)
	if c.OffWaitTime() != 0 {
		t.Errorf("OffWaitTime = %d, want 0", c.OffWaitTime())
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}

	// AcceptOnlyWhenOn while off is ignored.
	_ = invoke(t, c, CmdOnWithTimedOff, OnWithTimedOffRequest{OnOffControl: OnOffControlAcceptOnlyWhenOn, OnTime: 10})
	if c.GetOnOff() {
		t.Error("AcceptOnlyWhenOn turned the device on")
	}
}

func TestCluster_ShutdownCancelsCountdown(t *testing.T) {
	clock := timer.NewManual(0)
	c := New(Config{EndpointID: 1, FeatureMap: FeatureLighting, Timer: clock})
	_ = c.Startup(datamodel.ServerClusterContext{})
	_ = c.OnWithTimedOff(OnWithTimedOffRequest{OnTime: 10})
	c.Shutdown()
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestCluster_Scenes(t *testing.T) {
	c := newTestCluster(t, 0)
	var _ scenes.Handler = c

	_ = c.SetOnOff(true)
	data, err := c.SerializeSave(1, ClusterID)
	if err != nil {
		t.Fatalf("SerializeSave() error = %v", err)
	}
	_ = c.SetOnOff(false)

	if err := c.ApplyScene(1, ClusterID, data, 0); err != nil {
		t.Fatalf("ApplyScene() error = %v", err)
	}
	if !c.GetOnOff() {
		t.Error("OnOff = false after ApplyScene")
	}
	if _, err := c.SerializeSave(2, ClusterID); !errors.Is(err, scenes.ErrInvalidArgument) {
		t.Errorf("SerializeSave(ep 2) error = %v, want ErrInvalidArgument", err)
	}
}

func TestCluster_InvalidPayload(t *testing.T) {
	c := newTestCluster(t, FeatureLighting)
	req := datamodel.InvokeRequest{Path: datamodel.ConcreteCommandPath{Endpoint: 1, Cluster: ClusterID, Command: CmdOnWithTimedOff}}
	_, err := c.InvokeCommand(context.Background(), req, tlv.NewReader(bytes.NewReader(nil)))
	if !errors.Is(err, datamodel.ErrInvalidCommand) {
		t.Errorf("InvokeCommand(empty) error = %v, want ErrInvalidCommand", err)
	}
}

func boolPtr(b bool) *bool { return &b }

func encodeEmptyCommand() []byte {
	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)
	_ = w.StartStructure(tlv.Anonymous())
	_ = w.EndContainer()
	return buf.Bytes()
}
