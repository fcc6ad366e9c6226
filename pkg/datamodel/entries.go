package datamodel

// AttributeEntry describes an attribute for discovery and access checks.
type AttributeEntry struct {
	ID      AttributeID
	Quality AttributeQuality

	// ReadPrivilege is nil for attributes that cannot be read.
	ReadPrivilege *Privilege

	// WritePrivilege is nil for attributes that cannot be written.
	WritePrivilege *Privilege
}

// IsReadable reports whether the attribute can be read.
func (a *AttributeEntry) IsReadable() bool { return a.ReadPrivilege != nil }

// IsWritable reports whether the attribute can be written.
func (a *AttributeEntry) IsWritable() bool { return a.WritePrivilege != nil }

// HasQuality reports whether any bit of q is set.
func (a *AttributeEntry) HasQuality(q AttributeQuality) bool { return a.Quality&q != 0 }

// IsList reports whether the attribute is list typed.
func (a *AttributeEntry) IsList() bool { return a.HasQuality(AttrQualityList) }

// CommandEntry describes an accepted command.
type CommandEntry struct {
	ID              CommandID
	Quality         CommandQuality
	InvokePrivilege Privilege
}

// HasQuality reports whether any bit of q is set.
func (c *CommandEntry) HasQuality(q CommandQuality) bool { return c.Quality&q != 0 }

// RequiresTimed reports whether the command needs a timed invoke.
func (c *CommandEntry) RequiresTimed() bool { return c.HasQuality(CmdQualityTimed) }

// EndpointEntry describes an endpoint's place in the composition tree.
type EndpointEntry struct {
	ID EndpointID

	// ParentID is nil for endpoint 0 and for endpoints parented by it.
	ParentID *EndpointID

	CompositionPattern EndpointComposition
}

// DeviceTypeEntry is a device type present on an endpoint.
type DeviceTypeEntry struct {
	DeviceTypeID DeviceTypeID
	Revision     uint8
}

// NewReadOnlyAttribute returns an entry readable at readPriv.
func NewReadOnlyAttribute(id AttributeID, quality AttributeQuality, readPriv Privilege) AttributeEntry {
	return AttributeEntry{ID: id, Quality: quality, ReadPrivilege: &readPriv}
}

// NewReadWriteAttribute returns an entry readable at readPriv and writable at writePriv.
func NewReadWriteAttribute(id AttributeID, quality AttributeQuality, readPriv, writePriv Privilege) AttributeEntry {
	return AttributeEntry{ID: id, Quality: quality, ReadPrivilege: &readPriv, WritePrivilege: &writePriv}
}

// NewCommandEntry returns a command entry.
func NewCommandEntry(id CommandID, quality CommandQuality, invokePriv Privilege) CommandEntry {
	return CommandEntry{ID: id, Quality: quality, InvokePrivilege: invokePriv}
}
