// Package clusters holds the shared payload helpers used by the cluster
// implementations in its subpackages:
//   - clusters/descriptor: Descriptor (0x001D)
//   - clusters/onoff: On/Off (0x0006)
//   - clusters/levelcontrol: Level Control (0x0008)
//   - clusters/scenes: scene handler contract and AttributeValuePair codec
//
// Clusters embed *datamodel.ClusterBase for identity, global attributes and
// change reporting, and decode command fields with DecodeStruct.
package clusters
