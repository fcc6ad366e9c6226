// Package datamodel provides the Node → Endpoint → Cluster hierarchy that
// cluster implementations plug into, together with attribute metadata,
// persistence and change-reporting ports, and status mapping.
package datamodel

import "strings"

// Privilege is an access level required for an operation.
type Privilege int

const (
	PrivilegeUnknown Privilege = iota
	PrivilegeView
	PrivilegeProxyView
	PrivilegeOperate
	PrivilegeManage
	PrivilegeAdminister
)

func (p Privilege) String() string {
	switch p {
	case PrivilegeView:
		return "View"
	case PrivilegeProxyView:
		return "ProxyView"
	case PrivilegeOperate:
		return "Operate"
	case PrivilegeManage:
		return "Manage"
	case PrivilegeAdminister:
		return "Administer"
	default:
		return "Unknown"
	}
}

// AttributeQuality flags describe attribute behavior.
type AttributeQuality uint32

const (
	// AttrQualityChangesOmitted (C) marks data not reported on change.
	AttrQualityChangesOmitted AttributeQuality = 1 << iota
	// AttrQualityFixed (F) marks data that does not change at runtime.
	AttrQualityFixed
	// AttrQualityNonVolatile (N) marks data persisted across restarts.
	AttrQualityNonVolatile
	// AttrQualityQuieter (Q) marks data whose reports are rate limited.
	AttrQualityQuieter
	// AttrQualityScene (S) marks data captured in scenes.
	AttrQualityScene
	// AttrQualityNullable (X) marks nullable data.
	AttrQualityNullable
	// AttrQualityList marks list-typed data.
	AttrQualityList
	// AttrQualityTimed marks attributes that need a timed write.
	AttrQualityTimed
)

var attributeQualityLetters = []struct {
	q AttributeQuality
	s string
}{
	{AttrQualityChangesOmitted, "C"},
	{AttrQualityFixed, "F"},
	{AttrQualityNonVolatile, "N"},
	{AttrQualityQuieter, "Q"},
	{AttrQualityScene, "S"},
	{AttrQualityNullable, "X"},
	{AttrQualityList, "L"},
	{AttrQualityTimed, "T"},
}

func (q AttributeQuality) String() string {
	var b strings.Builder
	for _, l := range attributeQualityLetters {
		if q&l.q != 0 {
			b.WriteString(l.s)
		}
	}
	if b.Len() == 0 {
		return "None"
	}
	return b.String()
}

// CommandQuality flags describe command behavior.
type CommandQuality uint32

const (
	// CmdQualityTimed marks commands that need a timed invoke.
	CmdQualityTimed CommandQuality = 1 << iota
)

// EndpointComposition is how an endpoint's PartsList is derived.
type EndpointComposition int

const (
	CompositionUnknown EndpointComposition = iota
	// CompositionTree lists direct children only.
	CompositionTree
	// CompositionFullFamily lists all descendants.
	CompositionFullFamily
)

func (c EndpointComposition) String() string {
	switch c {
	case CompositionTree:
		return "Tree"
	case CompositionFullFamily:
		return "FullFamily"
	default:
		return "Unknown"
	}
}
