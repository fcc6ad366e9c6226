package onoff

import (
	"github.com/backkem/matter-dimmer/pkg/clusters/scenes"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// SupportsCluster implements scenes.Handler.
func (c *Cluster) SupportsCluster(endpoint datamodel.EndpointID, cluster datamodel.ClusterID) bool {
	return cluster == ClusterID && endpoint == c.EndpointID()
}

// SerializeSave implements scenes.Handler. It captures OnOff.
func (c *Cluster) SerializeSave(endpoint datamodel.EndpointID, cluster datamodel.ClusterID) ([]byte, error) {
	if !c.SupportsCluster(endpoint, cluster) {
		return nil, scenes.ErrInvalidArgument
	}
	var v uint8
	if c.GetOnOff() {
		v = 1
	}
	return scenes.EncodeAttributeValueList([]scenes.AttributeValuePair{{AttributeID: AttrOnOff, ValueUnsigned8: &v}})
}

// ApplyScene implements scenes.Handler. The transition time is ignored;
// a coupled Level Control cluster fades on its own.
func (c *Cluster) ApplyScene(endpoint datamodel.EndpointID, cluster datamodel.ClusterID, data []byte, transitionTimeMs uint32) error {
	if !c.SupportsCluster(endpoint, cluster) {
		return scenes.ErrInvalidArgument
	}
	pairs, err := scenes.DecodeAttributeValueList(data)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if p.AttributeID == AttrOnOff && p.ValueUnsigned8 != nil {
			if err := c.SetOnOff(*p.ValueUnsigned8 != 0); err != nil {
				return err
			}
		}
	}
	return nil
}
