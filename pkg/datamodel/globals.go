package datamodel

// Global attributes present on every cluster instance.
const (
	GlobalAttrClusterRevision      AttributeID = 0xFFFD
	GlobalAttrFeatureMap           AttributeID = 0xFFFC
	GlobalAttrAttributeList        AttributeID = 0xFFFB
	GlobalAttrAcceptedCommandList  AttributeID = 0xFFF9
	GlobalAttrGeneratedCommandList AttributeID = 0xFFF8
)

// IsGlobalAttribute reports whether id is in the global attribute range.
func IsGlobalAttribute(id AttributeID) bool {
	return id >= GlobalAttrGeneratedCommandList && id <= GlobalAttrClusterRevision
}

// GlobalAttributeEntries returns the metadata of the global attributes.
func GlobalAttributeEntries() []AttributeEntry {
	return []AttributeEntry{
		NewReadOnlyAttribute(GlobalAttrClusterRevision, AttrQualityFixed, PrivilegeView),
		NewReadOnlyAttribute(GlobalAttrFeatureMap, AttrQualityFixed, PrivilegeView),
		NewReadOnlyAttribute(GlobalAttrAttributeList, AttrQualityFixed|AttrQualityList, PrivilegeView),
		NewReadOnlyAttribute(GlobalAttrAcceptedCommandList, AttrQualityFixed|AttrQualityList, PrivilegeView),
		NewReadOnlyAttribute(GlobalAttrGeneratedCommandList, AttrQualityFixed|AttrQualityList, PrivilegeView),
	}
}

// EndpointRoot is the root endpoint.
const EndpointRoot EndpointID = 0

// Cluster IDs used by the lighting device.
const (
	ClusterOnOff            ClusterID = 0x0006
	ClusterLevelControl     ClusterID = 0x0008
	ClusterDescriptor       ClusterID = 0x001D
	ClusterScenesManagement ClusterID = 0x0062
)

// Device type IDs used by the lighting device.
const (
	DeviceTypeRootNode      DeviceTypeID = 0x0016
	DeviceTypeOnOffLight    DeviceTypeID = 0x0100
	DeviceTypeDimmableLight DeviceTypeID = 0x0101
)
