package datamodel

import (
	"context"

	"github.com/backkem/matter-dimmer/pkg/tlv"
)

type stubCluster struct {
	*ClusterBase
}

func (s *stubCluster) AttributeList() []AttributeEntry     { return MergeAttributeLists(nil) }
func (s *stubCluster) AcceptedCommandList() []CommandEntry { return nil }
func (s *stubCluster) GeneratedCommandList() []CommandID   { return nil }

func (s *stubCluster) ReadAttribute(ctx context.Context, req ReadAttributeRequest, w *tlv.Writer) error {
	return ErrUnsupportedAttribute
}

func (s *stubCluster) WriteAttribute(ctx context.Context, req WriteAttributeRequest, r *tlv.Reader) error {
	return ErrUnsupportedWrite
}

func (s *stubCluster) InvokeCommand(ctx context.Context, req InvokeRequest, r *tlv.Reader) ([]byte, error) {
	return nil, ErrUnsupportedCommand
}
