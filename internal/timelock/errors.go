package timelock

import (
	"errors"
	"fmt"

	"github.com/anilyagiz/dDef/internal/clock"
	"github.com/anilyagiz/dDef/internal/program"
	"github.com/anilyagiz/dDef/internal/safemath"
)

var (
	// ErrInvalidInstruction covers empty, truncated or unknown instruction
	// payloads.
	ErrInvalidInstruction = errors.New("invalid instruction data")

	// ErrIndexOutOfRange is returned when a function index does not refer
	// to a queued function.
	ErrIndexOutOfRange = errors.New("function index out of range")

	// ErrUnauthorized is returned when the caller may not act on a queued
	// function.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrInvalidAccountData is returned when stored state cannot be decoded.
	ErrInvalidAccountData = errors.New("invalid account data")

	// ErrNotEnoughAccountKeys is returned when the account set is shorter
	// than the instruction requires.
	ErrNotEnoughAccountKeys = errors.New("not enough account keys")

	ErrTimeOverflow = fmt.Errorf("execution time: %w", safemath.ErrOverflow)

	ErrAccountDataTooSmall = program.ErrAccountDataTooSmall
	ErrAccountNotWritable  = program.ErrAccountNotWritable
	ErrInvalidClockAccount = clock.ErrInvalidClockAccount
)
