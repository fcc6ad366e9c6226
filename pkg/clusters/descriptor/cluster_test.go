package descriptor

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// buildNode creates root 0, a dimmable light on 1 and, under 1, a
// FullFamily bridge 2 with grandchild 3.
func buildNode(t *testing.T) (*datamodel.BasicNode, map[datamodel.EndpointID]*Cluster) {
	t.Helper()
	node := datamodel.NewNode()
	descriptors := make(map[datamodel.EndpointID]*Cluster)
	add := func(id datamodel.EndpointID, parent *datamodel.EndpointID, dt datamodel.DeviceTypeID) *datamodel.BasicEndpoint {
		ep := datamodel.NewEndpoint(id)
		if parent != nil {
			ep.SetParent(*parent)
		}
		ep.AddDeviceType(datamodel.DeviceTypeEntry{DeviceTypeID: dt, Revision: 3})
		d := New(Config{EndpointID: id, Node: node})
		if err := ep.AddCluster(d); err != nil {
			t.Fatal(err)
		}
		if err := node.AddEndpoint(ep); err != nil {
			t.Fatal(err)
		}
		descriptors[id] = d
		return ep
	}
	one, two := datamodel.EndpointID(1), datamodel.EndpointID(2)
	add(0, nil, datamodel.DeviceTypeRootNode)
	add(1, nil, datamodel.DeviceTypeDimmableLight)
	add(2, &one, datamodel.DeviceTypeDimmableLight).SetCompositionPattern(datamodel.CompositionFullFamily)
	add(3, &two, datamodel.DeviceTypeOnOffLight)
	return node, descriptors
}

func read(t *testing.T, c *Cluster, attr datamodel.AttributeID) *tlv.Reader {
	t.Helper()
	var buf bytes.Buffer
	req := datamodel.ReadAttributeRequest{Path: c.AttributePath(attr)}
	if err := c.ReadAttribute(context.Background(), req, tlv.NewWriter(&buf)); err != nil {
		t.Fatalf("ReadAttribute(0x%04X) error = %v", uint32(attr), err)
	}
	r := tlv.NewReader(bytes.NewReader(buf.Bytes()))
	if err := r.Next(); err != nil {
		t.Fatal(err)
	}
	return r
}

func readUintArray(t *testing.T, c *Cluster, attr datamodel.AttributeID) []uint64 {
	t.Helper()
	r := read(t, c, attr)
	if err := r.EnterContainer(); err != nil {
		t.Fatalf("EnterContainer() error = %v", err)
	}
	var out []uint64
	for {
		if err := r.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if r.IsEndOfContainer() {
			break
		}
		v, err := r.Uint()
		if err != nil {
			t.Fatalf("Uint() error = %v", err)
		}
		out = append(out, v)
	}
	return out
}

func TestCluster_Identity(t *testing.T) {
	c := New(Config{EndpointID: 1})
	if c.ID() != ClusterID {
		t.Errorf("ID() = 0x%04X, want 0x%04X", c.ID(), ClusterID)
	}
	if c.EndpointID() != 1 {
		t.Errorf("EndpointID() = %d, want 1", c.EndpointID())
	}
	if len(c.AcceptedCommandList()) != 0 {
		t.Error("AcceptedCommandList() not empty")
	}
}

func TestCluster_DeviceTypeList(t *testing.T) {
	_, d := buildNode(t)
	r := read(t, d[1], AttrDeviceTypeList)
	if err := r.EnterContainer(); err != nil {
		t.Fatal(err)
	}
	if err := r.Next(); err != nil {
		t.Fatal(err)
	}
	if err := r.EnterContainer(); err != nil {
		t.Fatal(err)
	}
	var got [2]uint64
	for i := range got {
		if err := r.Next(); err != nil {
			t.Fatal(err)
		}
		v, err := r.Uint()
		if err != nil {
			t.Fatal(err)
		}
		got[i] = v
	}
	want := [2]uint64{uint64(datamodel.DeviceTypeDimmableLight), 3}
	if got != want {
		t.Errorf("DeviceTypeStruct = %v, want %v", got, want)
	}
}

func TestCluster_ServerAndClientList(t *testing.T) {
	_, d := buildNode(t)
	if got := readUintArray(t, d[1], AttrServerList); !reflect.DeepEqual(got, []uint64{uint64(ClusterID)}) {
		t.Errorf("ServerList = %v, want [%d]", got, ClusterID)
	}
	if got := readUintArray(t, d[1], AttrClientList); len(got) != 0 {
		t.Errorf("ClientList = %v, want empty", got)
	}

	c := New(Config{EndpointID: 1, ClientClusters: []datamodel.ClusterID{datamodel.ClusterOnOff}})
	if got := readUintArray(t, c, AttrClientList); !reflect.DeepEqual(got, []uint64{uint64(datamodel.ClusterOnOff)}) {
		t.Errorf("ClientList = %v, want [%d]", got, datamodel.ClusterOnOff)
	}
}

func TestCluster_PartsList(t *testing.T) {
	_, d := buildNode(t)
	tests := []struct {
		ep   datamodel.EndpointID
		want []uint64
	}{
		{0, []uint64{1, 2, 3}},
		{1, []uint64{2}},
		{2, []uint64{3}},
		{3, nil},
	}
	for _, tt := range tests {
		if got := readUintArray(t, d[tt.ep], AttrPartsList); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("endpoint %d PartsList = %v, want %v", tt.ep, got, tt.want)
		}
	}
}

func TestPartsList_FullFamily(t *testing.T) {
	node, _ := buildNode(t)
	ep := node.GetEndpoint(1).(*datamodel.BasicEndpoint)
	ep.SetCompositionPattern(datamodel.CompositionFullFamily)

	got := PartsList(node, 1)
	want := []datamodel.EndpointID{2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PartsList(1) = %v, want %v", got, want)
	}
}

func TestCluster_MissingEndpoint(t *testing.T) {
	c := New(Config{EndpointID: 9, Node: datamodel.NewNode()})
	var buf bytes.Buffer
	req := datamodel.ReadAttributeRequest{Path: c.AttributePath(AttrServerList)}
	if err := c.ReadAttribute(context.Background(), req, tlv.NewWriter(&buf)); !errors.Is(err, datamodel.ErrEndpointNotFound) {
		t.Errorf("ReadAttribute error = %v, want ErrEndpointNotFound", err)
	}
}

func TestCluster_ReadOnly(t *testing.T) {
	c := New(Config{EndpointID: 1})
	req := datamodel.WriteAttributeRequest{Path: c.AttributePath(AttrPartsList)}
	if err := c.WriteAttribute(context.Background(), req, nil); !errors.Is(err, datamodel.ErrUnsupportedWrite) {
		t.Errorf("WriteAttribute error = %v, want ErrUnsupportedWrite", err)
	}
	req.Path.Attribute = 0x0042
	if err := c.WriteAttribute(context.Background(), req, nil); !errors.Is(err, datamodel.ErrUnsupportedAttribute) {
		t.Errorf("WriteAttribute error = %v, want ErrUnsupportedAttribute", err)
	}
	if _, err := c.InvokeCommand(context.Background(), datamodel.InvokeRequest{}, nil); !errors.Is(err, datamodel.ErrUnsupportedCommand) {
		t.Errorf("InvokeCommand error = %v, want ErrUnsupportedCommand", err)
	}
}
