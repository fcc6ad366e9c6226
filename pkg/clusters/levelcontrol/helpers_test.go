package levelcontrol

import (
	"bytes"
	"context"
	"testing"

	"github.com/backkem/matter-dimmer/pkg/clusters"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/timer"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

func u8(v uint8) *uint8 { return &v }

// fakeOnOff records SetOnOff calls and optionally echoes them back like a
// real On/Off cluster notifying its listeners.
type fakeOnOff struct {
	on     bool
	calls  []bool
	err    error
	notify func(on bool)
}

func (f *fakeOnOff) GetOnOff() bool { return f.on }

func (f *fakeOnOff) SetOnOff(on bool) error {
	f.calls = append(f.calls, on)
	if f.err != nil {
		return f.err
	}
	f.on = on
	if f.notify != nil {
		f.notify(on)
	}
	return nil
}

type recordingDelegate struct {
	NopDelegate
	levels []uint8
}

func (d *recordingDelegate) OnLevelChanged(level uint8) {
	d.levels = append(d.levels, level)
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

type fixture struct {
	c        *Cluster
	clock    *timer.Manual
	reports  *pathRecorder
	delegate *recordingDelegate
}

// newFixture starts a cluster on endpoint 1 driven by a manual clock at 0.
func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	return newStoredFixture(t, cfg, nil)
}

func newStoredFixture(t *testing.T, cfg Config, store datamodel.AttributeStorage) *fixture {
	t.Helper()
	f := &fixture{
		clock:    timer.NewManual(0),
		reports:  &pathRecorder{},
		delegate: &recordingDelegate{},
	}
	cfg.EndpointID = 1
	if cfg.Timer == nil {
		cfg.Timer = f.clock
	}
	if cfg.Delegate == nil {
		cfg.Delegate = f.delegate
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Startup(datamodel.ServerClusterContext{Storage: store, Listener: f.reports}); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	f.c = c
	f.reports.paths = nil
	f.delegate.levels = nil
	return f
}

func (f *fixture) level(t *testing.T) uint8 {
	t.Helper()
	v := f.c.CurrentLevel()
	if v == nil {
		t.Fatal("CurrentLevel() = nil")
	}
	return *v
}

func invoke(t *testing.T, c *Cluster, cmd Command) error {
	t.Helper()
	data, err := clusters.EncodeRequest(cmd)
	if err != nil {
		t.Fatalf("EncodeRequest() error = %v", err)
	}
	req := datamodel.InvokeRequest{Path: datamodel.ConcreteCommandPath{Endpoint: 1, Cluster: ClusterID, Command: cmd.CommandID()}}
	_, err = c.InvokeCommand(context.Background(), req, tlv.NewReader(bytes.NewReader(data)))
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
