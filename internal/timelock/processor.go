package timelock

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anilyagiz/dDef/internal/clock"
	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/program"
	"github.com/anilyagiz/dDef/pkg/log"
)

// ProgramID is the key hosts register the timelock program under.
var ProgramID = crypto.DeriveKey("timelock program")

const (
	stateAccountIndex = 0
	clockAccountIndex = 1
)

// Program is the timelock entry point. It keeps no state between calls.
type Program struct{}

func New() *Program {
	return &Program{}
}

// Process runs one instruction. Accounts are expected as:
//
//  0. the state account, writable
//  1. the clock sysvar, for QueueCriticalFunction and CheckExecution
//
// State is loaded once and saved once; any error before the save leaves
// the state account untouched. Events are emitted only after the save.
func (p *Program) Process(inv *program.Invocation, data []byte) error {
	ins, err := Unpack(data)
	if err != nil {
		log.Program.Debug().Err(err).Int("len", len(data)).Msg("rejecting instruction")
		return err
	}

	logger := log.Program.With().
		Stringer("instruction", ins.Tag()).
		Stringer("caller", inv.Caller).
		Logger()
	logger.Debug().Msg("processing instruction")

	if len(inv.Accounts) <= stateAccountIndex {
		return fmt.Errorf("%w: missing state account", ErrNotEnoughAccountKeys)
	}
	account := inv.Accounts[stateAccountIndex]

	switch ins := ins.(type) {
	case QueueCriticalFunction:
		err = p.queue(inv, account, ins, logger)
	case CancelFunction:
		err = p.cancel(inv, account, ins, logger)
	case CheckExecution:
		err = p.checkExecution(inv, account, logger)
	case SetDelegate:
		err = p.setDelegate(inv, account, ins, logger)
	case SetFunctionDelegate:
		err = p.setFunctionDelegate(inv, account, ins, logger)
	default:
		err = fmt.Errorf("%w: unhandled instruction %T", ErrInvalidInstruction, ins)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("instruction failed")
	}
	return err
}

func (p *Program) queue(inv *program.Invocation, account *program.AccountInfo, ins QueueCriticalFunction, logger zerolog.Logger) error {
	now, err := currentTime(inv)
	if err != nil {
		return err
	}

	state, err := LoadState(account)
	if err != nil {
		return err
	}

	index, qf, err := state.Queue(ins.Function, ins.DelaySeconds, inv.Caller, now)
	if err != nil {
		return err
	}

	if err := SaveState(account, state); err != nil {
		return err
	}

	logger.Info().
		Uint64("index", index).
		Stringer("function", qf.Function).
		Int64("execution_time", qf.ExecutionTime).
		Int64("requested_delay", ins.DelaySeconds).
		Msg("function queued")
	inv.Emit(FunctionQueued{
		Index:         index,
		Function:      qf.Function,
		ExecutionTime: qf.ExecutionTime,
		Initiator:     qf.Initiator,
	})
	return nil
}

func (p *Program) cancel(inv *program.Invocation, account *program.AccountInfo, ins CancelFunction, logger zerolog.Logger) error {
	state, err := LoadState(account)
	if err != nil {
		return err
	}

	if err := state.Cancel(inv.Caller, ins.FunctionIndex); err != nil {
		return err
	}

	if err := SaveState(account, state); err != nil {
		return err
	}

	logger.Info().Uint64("index", ins.FunctionIndex).Msg("function cancelled")
	inv.Emit(FunctionCancelled{Index: ins.FunctionIndex, Caller: inv.Caller})
	return nil
}

func (p *Program) checkExecution(inv *program.Invocation, account *program.AccountInfo, logger zerolog.Logger) error {
	now, err := currentTime(inv)
	if err != nil {
		return err
	}

	state, err := LoadState(account)
	if err != nil {
		return err
	}

	executed := state.Sweep(now)

	if err := SaveState(account, state); err != nil {
		return err
	}

	for _, rec := range executed {
		ev := logger.Info().
			Uint64("index", rec.Index).
			Stringer("initiator", rec.Initiator).
			Int64("execution_time", rec.ExecutionTime)
		switch fn := rec.Function.Value().(type) {
		case WithdrawAllFunds:
			ev.Uint64("amount", fn.Amount).Stringer("target", fn.Target).Msg("executing withdraw all funds")
		case DeleteAccount:
			ev.Msg("executing delete account")
		}
		inv.Emit(rec)
	}
	logger.Debug().
		Int("executed", len(executed)).
		Int("remaining", len(state.QueuedFunctions)).
		Msg("execution check done")
	return nil
}

func (p *Program) setDelegate(inv *program.Invocation, account *program.AccountInfo, ins SetDelegate, logger zerolog.Logger) error {
	state, err := LoadState(account)
	if err != nil {
		return err
	}

	state.SetDelegate(ins.Delegate)

	if err := SaveState(account, state); err != nil {
		return err
	}

	logger.Info().Stringer("delegate", ins.Delegate).Msg("account delegate set")
	inv.Emit(DelegateSet{Delegate: ins.Delegate, Caller: inv.Caller})
	return nil
}

func (p *Program) setFunctionDelegate(inv *program.Invocation, account *program.AccountInfo, ins SetFunctionDelegate, logger zerolog.Logger) error {
	state, err := LoadState(account)
	if err != nil {
		return err
	}

	if err := state.SetFunctionDelegate(inv.Caller, ins.FunctionIndex, ins.Delegate); err != nil {
		return err
	}

	if err := SaveState(account, state); err != nil {
		return err
	}

	logger.Info().
		Uint64("index", ins.FunctionIndex).
		Stringer("delegate", ins.Delegate).
		Msg("function delegate set")
	inv.Emit(FunctionDelegateSet{Index: ins.FunctionIndex, Delegate: ins.Delegate})
	return nil
}

func currentTime(inv *program.Invocation) (int64, error) {
	if len(inv.Accounts) <= clockAccountIndex {
		return 0, fmt.Errorf("%w: missing clock sysvar", ErrNotEnoughAccountKeys)
	}

	c, err := clock.FromAccount(inv.Accounts[clockAccountIndex])
	if err != nil {
		return 0, err
	}
	return c.UnixTimestamp, nil
}
