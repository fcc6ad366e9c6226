package datamodel

import (
	"errors"
	"fmt"
)

// Status is an interaction model status code.
type Status uint8

// Status codes produced by clusters in this module.
const (
	StatusSuccess              Status = 0x00
	StatusFailure              Status = 0x01
	StatusInvalidCommand       Status = 0x85
	StatusUnsupportedAttribute Status = 0x86
	StatusConstraintError      Status = 0x87
	StatusUnsupportedWrite     Status = 0x88
	StatusNotFound             Status = 0x8B
	StatusUnsupportedCommand   Status = 0x81
	StatusUnsupportedEndpoint  Status = 0x7F
	StatusUnsupportedCluster   Status = 0xC3
	StatusInvalidInState       Status = 0xCB
)

var statusNames = map[Status]string{
	StatusSuccess:              "Success",
	StatusFailure:              "Failure",
	StatusInvalidCommand:       "InvalidCommand",
	StatusUnsupportedAttribute: "UnsupportedAttribute",
	StatusConstraintError:      "ConstraintError",
	StatusUnsupportedWrite:     "UnsupportedWrite",
	StatusNotFound:             "NotFound",
	StatusUnsupportedCommand:   "UnsupportedCommand",
	StatusUnsupportedEndpoint:  "UnsupportedEndpoint",
	StatusUnsupportedCluster:   "UnsupportedCluster",
	StatusInvalidInState:       "InvalidInState",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(0x%02X)", uint8(s))
}

// StatusOf maps an error returned by a cluster onto its status code.
// A nil error is Success; unrecognized errors are Failure.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrConstraintError):
		return StatusConstraintError
	case errors.Is(err, ErrInvalidCommand):
		return StatusInvalidCommand
	case errors.Is(err, ErrUnsupportedAttribute):
		return StatusUnsupportedAttribute
	case errors.Is(err, ErrUnsupportedWrite):
		return StatusUnsupportedWrite
	case errors.Is(err, ErrUnsupportedCommand):
		return StatusUnsupportedCommand
	case errors.Is(err, ErrInvalidInState):
		return StatusInvalidInState
	case errors.Is(err, ErrEndpointNotFound):
		return StatusUnsupportedEndpoint
	case errors.Is(err, ErrClusterNotFound):
		return StatusUnsupportedCluster
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	default:
		return StatusFailure
	}
}
