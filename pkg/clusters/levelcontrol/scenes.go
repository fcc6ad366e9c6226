package levelcontrol

import (
	"fmt"

	"github.com/backkem/matter-dimmer/pkg/clusters/scenes"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// maxSceneTransitionDs keeps a recalled transition time below the null
// encoding of TransitionTime.
const maxSceneTransitionDs = 0xFFFE

// SceneValidator accepts only CurrentLevel pairs for Level Control.
type SceneValidator struct{}

// Validate implements scenes.Validator.
func (SceneValidator) Validate(path datamodel.ConcreteClusterPath, pair *scenes.AttributeValuePair) error {
	if path.Cluster != ClusterID {
		return fmt.Errorf("%w: cluster %s", scenes.ErrInvalidArgument, path)
	}
	if pair.AttributeID != AttrCurrentLevel || pair.ValueUnsigned8 == nil {
		return fmt.Errorf("%w: attribute 0x%04X", scenes.ErrInvalidArgument, uint32(pair.AttributeID))
	}
	return nil
}

// SupportsCluster implements scenes.Handler.
func (c *Cluster) SupportsCluster(endpoint datamodel.EndpointID, cluster datamodel.ClusterID) bool {
	return cluster == ClusterID && endpoint == c.EndpointID()
}

// SerializeSave implements scenes.Handler. It captures CurrentLevel, or
// nothing while the level is undefined.
func (c *Cluster) SerializeSave(endpoint datamodel.EndpointID, cluster datamodel.ClusterID) ([]byte, error) {
	if !c.SupportsCluster(endpoint, cluster) {
		return nil, scenes.ErrInvalidArgument
	}
	var pairs []scenes.AttributeValuePair
	if level := c.currentLevel.Value(); level != nil {
		pairs = append(pairs, scenes.AttributeValuePair{AttributeID: AttrCurrentLevel, ValueUnsigned8: level})
	}
	return scenes.EncodeAttributeValueList(pairs)
}

// ApplyScene implements scenes.Handler. The saved level is reached with
// MoveToLevel over transitionTimeMs, even while the endpoint is off.
func (c *Cluster) ApplyScene(endpoint datamodel.EndpointID, cluster datamodel.ClusterID, data []byte, transitionTimeMs uint32) error {
	if !c.SupportsCluster(endpoint, cluster) {
		return scenes.ErrInvalidArgument
	}
	pairs, err := scenes.DecodeAttributeValueList(data)
	if err != nil {
		return err
	}
	path := datamodel.ConcreteClusterPath{Endpoint: endpoint, Cluster: cluster}
	var validator SceneValidator
	for i := range pairs {
		if err := validator.Validate(path, &pairs[i]); err != nil {
			return err
		}
	}

	ds := uint16(min(transitionTimeMs/100, maxSceneTransitionDs))
	for _, p := range pairs {
		level := *p.ValueUnsigned8
		err := c.moveToLevel(CmdMoveToLevel, level, &ds, OptionExecuteIfOff, OptionExecuteIfOff)
		if err != nil && c.log != nil {
			c.log.Warnf("endpoint %d: recall level %d: %v", c.EndpointID(), level, err)
		}
	}
	return nil
}
