package timelock

import (
	"bytes"
	"fmt"

	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/pkg/serialization/codec/borsh"
)

// InstructionTag is the first byte of every instruction.
type InstructionTag uint8

const (
	TagQueueCriticalFunction InstructionTag = iota
	TagCancelFunction
	TagCheckExecution
	TagSetDelegate
	TagSetFunctionDelegate
)

func (t InstructionTag) String() string {
	switch t {
	case TagQueueCriticalFunction:
		return "QueueCriticalFunction"
	case TagCancelFunction:
		return "CancelFunction"
	case TagCheckExecution:
		return "CheckExecution"
	case TagSetDelegate:
		return "SetDelegate"
	case TagSetFunctionDelegate:
		return "SetFunctionDelegate"
	}
	return fmt.Sprintf("InstructionTag(%d)", uint8(t))
}

// Instruction is one of QueueCriticalFunction, CancelFunction,
// CheckExecution, SetDelegate or SetFunctionDelegate. The payload after the
// tag is the borsh encoding of the struct.
type Instruction interface {
	Tag() InstructionTag
}

type QueueCriticalFunction struct {
	Function CriticalFunction
	// DelaySeconds is carried on the wire but never used; see FixedDelay.
	DelaySeconds int64
}

type CancelFunction struct {
	FunctionIndex uint64
}

type CheckExecution struct{}

type SetDelegate struct {
	Delegate crypto.PublicKey
}

type SetFunctionDelegate struct {
	FunctionIndex uint64
	Delegate      crypto.PublicKey
}

func (QueueCriticalFunction) Tag() InstructionTag { return TagQueueCriticalFunction }
func (CancelFunction) Tag() InstructionTag        { return TagCancelFunction }
func (CheckExecution) Tag() InstructionTag        { return TagCheckExecution }
func (SetDelegate) Tag() InstructionTag           { return TagSetDelegate }
func (SetFunctionDelegate) Tag() InstructionTag   { return TagSetFunctionDelegate }

// Unpack decodes an instruction. Bytes after the last field are ignored.
func Unpack(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidInstruction)
	}

	tag := InstructionTag(data[0])
	d := borsh.NewDecoder(bytes.NewReader(data[1:]))

	var (
		ins Instruction
		err error
	)
	switch tag {
	case TagQueueCriticalFunction:
		var q QueueCriticalFunction
		err = d.Decode(&q)
		ins = q
	case TagCancelFunction:
		var c CancelFunction
		err = d.Decode(&c)
		ins = c
	case TagCheckExecution:
		ins = CheckExecution{}
	case TagSetDelegate:
		var s SetDelegate
		err = d.Decode(&s)
		ins = s
	case TagSetFunctionDelegate:
		var s SetFunctionDelegate
		err = d.Decode(&s)
		ins = s
	default:
		return nil, fmt.Errorf("%w: unknown tag %d", ErrInvalidInstruction, uint8(tag))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInstruction, tag, err)
	}

	return ins, nil
}

// Pack encodes ins in the form Unpack accepts.
func Pack(ins Instruction) ([]byte, error) {
	switch ins.(type) {
	case QueueCriticalFunction, CancelFunction, CheckExecution, SetDelegate, SetFunctionDelegate:
	default:
		return nil, fmt.Errorf("%w: unsupported instruction %T", ErrInvalidInstruction, ins)
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(ins.Tag()))
	if err := borsh.NewEncoder(&buf).Encode(ins); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInstruction, ins.Tag(), err)
	}
	return buf.Bytes(), nil
}
