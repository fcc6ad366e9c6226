package levelcontrol

import (
	"fmt"

	"github.com/backkem/matter-dimmer/pkg/clusters"
	"github.com/backkem/matter-dimmer/pkg/datamodel"
	"github.com/backkem/matter-dimmer/pkg/tlv"
)

// Command is one of the eight Level Control command payloads:
// *MoveToLevelCommand, *MoveCommand, *StepCommand or *StopCommand, with
// WithOnOff selecting the coupled variant.
type Command interface {
	CommandID() datamodel.CommandID
	MarshalTLV(w *tlv.Writer) error
	UnmarshalTLV(r *tlv.Reader) error
}

// MoveToLevelCommand moves to Level over TransitionTime tenths of a
// second. A nil TransitionTime uses OnOffTransitionTime.
type MoveToLevelCommand struct {
	Level           uint8
	TransitionTime  *uint16
	OptionsMask     Options
	OptionsOverride Options
	WithOnOff       bool
}

// CommandID implements Command.
func (c *MoveToLevelCommand) CommandID() datamodel.CommandID {
	if c.WithOnOff {
		return CmdMoveToLevelWithOnOff
	}
	return CmdMoveToLevel
}

// MarshalTLV implements Command.
func (c *MoveToLevelCommand) MarshalTLV(w *tlv.Writer) error {
	return marshalFields(w, func() error {
		if err := w.PutUint(tlv.ContextTag(0), uint64(c.Level)); err != nil {
			return err
		}
		if err := clusters.PutNullableUint16(w, tlv.ContextTag(1), c.TransitionTime); err != nil {
			return err
		}
		return putOptions(w, 2, c.OptionsMask, c.OptionsOverride)
	})
}

// UnmarshalTLV implements Command.
func (c *MoveToLevelCommand) UnmarshalTLV(r *tlv.Reader) error {
	var seen fieldSet
	err := clusters.DecodeStruct(r, func(tag uint8) error {
		var err error
		switch tag {
		case 0:
			c.Level, err = clusters.ReadUint8(r)
		case 1:
			c.TransitionTime, err = clusters.ReadNullableUint16(r)
		case 2, 3:
			err = readOption(r, tag == 2, &c.OptionsMask, &c.OptionsOverride)
		default:
			return nil
		}
		seen.add(tag)
		return err
	})
	if err != nil {
		return err
	}
	return seen.require(0, 1, 2, 3)
}

// MoveCommand moves continuously at Rate levels per second. A nil Rate
// uses DefaultMoveRate.
type MoveCommand struct {
	MoveMode        MoveMode
	Rate            *uint8
	OptionsMask     Options
	OptionsOverride Options
	WithOnOff       bool
}

// CommandID implements Command.
func (c *MoveCommand) CommandID() datamodel.CommandID {
	if c.WithOnOff {
		return CmdMoveWithOnOff
	}
	return CmdMove
}

// MarshalTLV implements Command.
func (c *MoveCommand) MarshalTLV(w *tlv.Writer) error {
	return marshalFields(w, func() error {
		if err := w.PutUint(tlv.ContextTag(0), uint64(c.MoveMode)); err != nil {
			return err
		}
		if err := clusters.PutNullableUint8(w, tlv.ContextTag(1), c.Rate); err != nil {
			return err
		}
		return putOptions(w, 2, c.OptionsMask, c.OptionsOverride)
	})
}

// UnmarshalTLV implements Command.
func (c *MoveCommand) UnmarshalTLV(r *tlv.Reader) error {
	var seen fieldSet
	err := clusters.DecodeStruct(r, func(tag uint8) error {
		var err error
		switch tag {
		case 0:
			var v uint8
			v, err = clusters.ReadUint8(r)
			c.MoveMode = MoveMode(v)
		case 1:
			c.Rate, err = clusters.ReadNullableUint8(r)
		case 2, 3:
			err = readOption(r, tag == 2, &c.OptionsMask, &c.OptionsOverride)
		default:
			return nil
		}
		seen.add(tag)
		return err
	})
	if err != nil {
		return err
	}
	return seen.require(0, 1, 2, 3)
}

// StepCommand moves StepSize levels over TransitionTime tenths of a
// second. A nil TransitionTime moves as fast as possible.
type StepCommand struct {
	StepMode        StepMode
	StepSize        uint8
	TransitionTime  *uint16
	OptionsMask     Options
	OptionsOverride Options
	WithOnOff       bool
}

// CommandID implements Command.
func (c *StepCommand) CommandID() datamodel.CommandID {
	if c.WithOnOff {
		return CmdStepWithOnOff
	}
	return CmdStep
}

// MarshalTLV implements Command.
func (c *StepCommand) MarshalTLV(w *tlv.Writer) error {
	return marshalFields(w, func() error {
		if err := w.PutUint(tlv.ContextTag(0), uint64(c.StepMode)); err != nil {
			return err
		}
		if err := w.PutUint(tlv.ContextTag(1), uint64(c.StepSize)); err != nil {
			return err
		}
		if err := clusters.PutNullableUint16(w, tlv.ContextTag(2), c.TransitionTime); err != nil {
			return err
		}
		return putOptions(w, 3, c.OptionsMask, c.OptionsOverride)
	})
}

// UnmarshalTLV implements Command.
func (c *StepCommand) UnmarshalTLV(r *tlv.Reader) error {
	var seen fieldSet
	err := clusters.DecodeStruct(r, func(tag uint8) error {
		var err error
		switch tag {
		case 0:
			var v uint8
			v, err = clusters.ReadUint8(r)
			c.StepMode = StepMode(v)
		case 1:
			c.StepSize, err = clusters.ReadUint8(r)
		case 2:
			c.TransitionTime, err = clusters.ReadNullableUint16(r)
		case 3, 4:
			err = readOption(r, tag == 3, &c.OptionsMask, &c.OptionsOverride)
		default:
			return nil
		}
		seen.add(tag)
		return err
	})
	if err != nil {
		return err
	}
	return seen.require(0, 1, 2, 3, 4)
}

// StopCommand halts any transition in progress.
type StopCommand struct {
	OptionsMask     Options
	OptionsOverride Options
	WithOnOff       bool
}

// CommandID implements Command.
func (c *StopCommand) CommandID() datamodel.CommandID {
	if c.WithOnOff {
		return CmdStopWithOnOff
	}
	return CmdStop
}

// MarshalTLV implements Command.
func (c *StopCommand) MarshalTLV(w *tlv.Writer) error {
	return marshalFields(w, func() error {
		return putOptions(w, 0, c.OptionsMask, c.OptionsOverride)
	})
}

// UnmarshalTLV implements Command.
func (c *StopCommand) UnmarshalTLV(r *tlv.Reader) error {
	var seen fieldSet
	err := clusters.DecodeStruct(r, func(tag uint8) error {
		if tag > 1 {
			return nil
		}
		seen.add(tag)
		return readOption(r, tag == 0, &c.OptionsMask, &c.OptionsOverride)
	})
	if err != nil {
		return err
	}
	return seen.require(0, 1)
}

// DecodeCommand decodes the payload of command id.
func DecodeCommand(id datamodel.CommandID, r *tlv.Reader) (Command, error) {
	var cmd Command
	switch id {
	case CmdMoveToLevel, CmdMoveToLevelWithOnOff:
		cmd = &MoveToLevelCommand{WithOnOff: id == CmdMoveToLevelWithOnOff}
	case CmdMove, CmdMoveWithOnOff:
		cmd = &MoveCommand{WithOnOff: id == CmdMoveWithOnOff}
	case CmdStep, CmdStepWithOnOff:
		cmd = &StepCommand{WithOnOff: id == CmdStepWithOnOff}
	case CmdStop, CmdStopWithOnOff:
		cmd = &StopCommand{WithOnOff: id == CmdStopWithOnOff}
	default:
		return nil, datamodel.ErrUnsupportedCommand
	}
	if err := cmd.UnmarshalTLV(r); err != nil {
		return nil, err
	}
	return cmd, nil
}

func marshalFields(w *tlv.Writer, fields func() error) error {
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		return err
	}
	if err := fields(); err != nil {
		return err
	}
	return w.EndContainer()
}

func putOptions(w *tlv.Writer, firstTag uint8, mask, override Options) error {
	if err := w.PutUint(tlv.ContextTag(firstTag), uint64(mask)); err != nil {
		return err
	}
	return w.PutUint(tlv.ContextTag(firstTag+1), uint64(override))
}

func readOption(r *tlv.Reader, isMask bool, mask, override *Options) error {
	v, err := clusters.ReadUint8(r)
	if err != nil {
		return err
	}
	if isMask {
		*mask = Options(v)
	} else {
		*override = Options(v)
	}
	return nil
}

// fieldSet records which context tags were decoded.
type fieldSet uint32

func (s *fieldSet) add(tag uint8) { *s |= 1 << tag }

func (s fieldSet) require(tags ...uint8) error {
	for _, tag := range tags {
		if s&(1<<tag) == 0 {
			return clusters.InvalidCommand(fmt.Errorf("%w: tag %d", clusters.ErrMissingField, tag))
		}
	}
	return nil
}
