package timelock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anilyagiz/dDef/internal/clock"
	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/program"
	"github.com/anilyagiz/dDef/internal/testutils"
	"github.com/anilyagiz/dDef/internal/timelock"
)

type harness struct {
	t       *testing.T
	program *timelock.Program
	state   *program.AccountInfo
	now     int64
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:       t,
		program: timelock.New(),
		state:   newStateAccount(t, 4096),
		now:     now,
	}
}

func (h *harness) invoke(caller crypto.PublicKey, ins timelock.Instruction) (*program.Invocation, error) {
	data, err := timelock.Pack(ins)
	require.NoError(h.t, err)
	return h.invokeRaw(caller, data)
}

func (h *harness) invokeRaw(caller crypto.PublicKey, data []byte) (*program.Invocation, error) {
	clockAcc, err := clock.Account(clock.Clock{Slot: 1, UnixTimestamp: h.now})
	require.NoError(h.t, err)

	inv := &program.Invocation{
		ProgramID: timelock.ProgramID,
		Caller:    caller,
		Accounts:  []*program.AccountInfo{h.state, clockAcc},
	}
	return inv, h.program.Process(inv, data)
}

func (h *harness) mustInvoke(caller crypto.PublicKey, ins timelock.Instruction) []program.Event {
	inv, err := h.invoke(caller, ins)
	require.NoError(h.t, err)
	return inv.Events()
}

func (h *harness) loadState() timelock.ContractState {
	state, err := timelock.LoadState(h.state)
	require.NoError(h.t, err)
	return state
}

func TestProcessQueue(t *testing.T) {
	h := newHarness(t)
	alice := testutils.RandomPublicKey(t)
	target := testutils.RandomPublicKey(t)

	events := h.mustInvoke(alice, timelock.QueueCriticalFunction{
		Function:     timelock.NewWithdrawAllFunds(500, target),
		DelaySeconds: 1,
	})

	assert.Equal(t, []program.Event{timelock.FunctionQueued{
		Index:         0,
		Function:      timelock.NewWithdrawAllFunds(500, target),
		ExecutionTime: now + 30,
		Initiator:     alice,
	}}, events)

	state := h.loadState()
	require.Len(t, state.QueuedFunctions, 1)
	assert.Equal(t, now+30, state.QueuedFunctions[0].ExecutionTime)
	assert.Equal(t, alice, state.QueuedFunctions[0].Initiator)
}

func TestProcessExecutionBoundary(t *testing.T) {
	h := newHarness(t)
	alice := testutils.RandomPublicKey(t)
	h.mustInvoke(alice, timelock.QueueCriticalFunction{
		Function:     timelock.NewWithdrawAllFunds(100, alice),
		DelaySeconds: 0,
	})

	h.now = now + 29
	events := h.mustInvoke(alice, timelock.CheckExecution{})
	assert.Empty(t, events)
	assert.Len(t, h.loadState().QueuedFunctions, 1)

	h.now = now + 30
	events = h.mustInvoke(alice, timelock.CheckExecution{})
	require.Len(t, events, 1)
	rec, ok := events[0].(timelock.ExecutionRecord)
	require.True(t, ok)
	assert.Equal(t, uint64(0), rec.Index)
	assert.Equal(t, now+30, rec.ExecutedAt)
	assert.Equal(t, timelock.WithdrawAllFunds{Amount: 100, Target: alice}, rec.Function.Value())
	assert.Empty(t, h.loadState().QueuedFunctions)
}

func TestProcessCancelledNeverExecutes(t *testing.T) {
	h := newHarness(t)
	alice := testutils.RandomPublicKey(t)
	bob := testutils.RandomPublicKey(t)

	h.mustInvoke(alice, timelock.QueueCriticalFunction{Function: timelock.NewDeleteAccount()})

	_, err := h.invoke(bob, timelock.CancelFunction{FunctionIndex: 0})
	assert.ErrorIs(t, err, timelock.ErrUnauthorized)
	assert.False(t, h.loadState().QueuedFunctions[0].Cancelled)

	events := h.mustInvoke(alice, timelock.CancelFunction{FunctionIndex: 0})
	assert.Equal(t, []program.Event{timelock.FunctionCancelled{Index: 0, Caller: alice}}, events)

	h.now = now + 3600
	assert.Empty(t, h.mustInvoke(bob, timelock.CheckExecution{}))

	state := h.loadState()
	require.Len(t, state.QueuedFunctions, 1)
	assert.True(t, state.QueuedFunctions[0].Cancelled)
}

func TestProcessDelegates(t *testing.T) {
	h := newHarness(t)
	alice := testutils.RandomPublicKey(t)
	accountDelegate := testutils.RandomPublicKey(t)
	functionDelegate := testutils.RandomPublicKey(t)

	h.mustInvoke(alice, timelock.QueueCriticalFunction{Function: timelock.NewDeleteAccount()})

	events := h.mustInvoke(alice, timelock.SetDelegate{Delegate: accountDelegate})
	assert.Equal(t, []program.Event{timelock.DelegateSet{Delegate: accountDelegate, Caller: alice}}, events)
	assert.Equal(t, &accountDelegate, h.loadState().Delegate)

	_, err := h.invoke(accountDelegate, timelock.CancelFunction{FunctionIndex: 0})
	assert.ErrorIs(t, err, timelock.ErrUnauthorized)

	_, err = h.invoke(accountDelegate, timelock.SetFunctionDelegate{FunctionIndex: 0, Delegate: accountDelegate})
	assert.ErrorIs(t, err, timelock.ErrUnauthorized)

	events = h.mustInvoke(alice, timelock.SetFunctionDelegate{FunctionIndex: 0, Delegate: functionDelegate})
	assert.Equal(t, []program.Event{timelock.FunctionDelegateSet{Index: 0, Delegate: functionDelegate}}, events)

	h.mustInvoke(functionDelegate, timelock.CancelFunction{FunctionIndex: 0})
	assert.True(t, h.loadState().QueuedFunctions[0].Cancelled)
}

func TestProcessFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	alice := testutils.RandomPublicKey(t)
	h.mustInvoke(alice, timelock.QueueCriticalFunction{Function: timelock.NewDeleteAccount()})
	before := append([]byte(nil), h.state.Data...)

	tests := []struct {
		name string
		ins  timelock.Instruction
		err  error
	}{
		{"out_of_range", timelock.CancelFunction{FunctionIndex: 1}, timelock.ErrIndexOutOfRange},
		{"unauthorized", timelock.CancelFunction{FunctionIndex: 0}, timelock.ErrUnauthorized},
		{"delegate_out_of_range", timelock.SetFunctionDelegate{FunctionIndex: 7}, timelock.ErrIndexOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv, err := h.invoke(testutils.RandomPublicKey(t), tc.ins)
			assert.ErrorIs(t, err, tc.err)
			assert.Empty(t, inv.Events())
			assert.Equal(t, before, h.state.Data)
		})
	}

	t.Run("invalid_instruction", func(t *testing.T) {
		inv, err := h.invokeRaw(alice, []byte{9})
		assert.ErrorIs(t, err, timelock.ErrInvalidInstruction)
		assert.Empty(t, inv.Events())
		assert.Equal(t, before, h.state.Data)
	})

	t.Run("capacity", func(t *testing.T) {
		h.state.Capacity = len(h.state.Data)
		defer func() { h.state.Capacity = 4096 }()

		_, err := h.invoke(alice, timelock.QueueCriticalFunction{Function: timelock.NewDeleteAccount()})
		assert.ErrorIs(t, err, timelock.ErrAccountDataTooSmall)
		assert.Equal(t, before, h.state.Data)
	})
}

func TestProcessAccountChecks(t *testing.T) {
	p := timelock.New()
	alice := testutils.RandomPublicKey(t)
	queue, err := timelock.Pack(timelock.QueueCriticalFunction{Function: timelock.NewDeleteAccount()})
	require.NoError(t, err)

	t.Run("no_accounts", func(t *testing.T) {
		err := p.Process(&program.Invocation{Caller: alice}, queue)
		assert.ErrorIs(t, err, timelock.ErrNotEnoughAccountKeys)
	})

	t.Run("no_clock", func(t *testing.T) {
		inv := &program.Invocation{
			Caller:   alice,
			Accounts: []*program.AccountInfo{newStateAccount(t, 1024)},
		}
		assert.ErrorIs(t, p.Process(inv, queue), timelock.ErrNotEnoughAccountKeys)
	})

	t.Run("cancel_needs_no_clock", func(t *testing.T) {
		data, err := timelock.Pack(timelock.CancelFunction{FunctionIndex: 0})
		require.NoError(t, err)
		inv := &program.Invocation{
			Caller:   alice,
			Accounts: []*program.AccountInfo{newStateAccount(t, 1024)},
		}
		assert.ErrorIs(t, p.Process(inv, data), timelock.ErrIndexOutOfRange)
	})

	t.Run("forged_clock", func(t *testing.T) {
		forged, err := clock.Account(clock.Clock{UnixTimestamp: now})
		require.NoError(t, err)
		forged.Key = testutils.RandomPublicKey(t)

		state := newStateAccount(t, 1024)
		inv := &program.Invocation{
			Caller:   alice,
			Accounts: []*program.AccountInfo{state, forged},
		}
		assert.ErrorIs(t, p.Process(inv, queue), timelock.ErrInvalidClockAccount)
		assert.Empty(t, state.Data)
	})

	t.Run("read_only_state", func(t *testing.T) {
		clockAcc, err := clock.Account(clock.Clock{UnixTimestamp: now})
		require.NoError(t, err)

		state := newStateAccount(t, 1024)
		state.IsWritable = false
		inv := &program.Invocation{
			Caller:   alice,
			Accounts: []*program.AccountInfo{state, clockAcc},
		}
		assert.ErrorIs(t, p.Process(inv, queue), timelock.ErrAccountNotWritable)
	})

	t.Run("corrupt_state", func(t *testing.T) {
		state := newStateAccount(t, 1024)
		state.Data = []byte{1, 2, 3}
		data, err := timelock.Pack(timelock.SetDelegate{Delegate: alice})
		require.NoError(t, err)

		inv := &program.Invocation{Caller: alice, Accounts: []*program.AccountInfo{state}}
		assert.ErrorIs(t, p.Process(inv, data), timelock.ErrInvalidAccountData)
		assert.Equal(t, []byte{1, 2, 3}, state.Data)
	})
}

func TestProcessSweepKeepsOrder(t *testing.T) {
	h := newHarness(t)
	alice := testutils.RandomPublicKey(t)

	for i := 0; i < 4; i++ {
		h.mustInvoke(alice, timelock.QueueCriticalFunction{
			Function: timelock.NewWithdrawAllFunds(uint64(i), alice),
		})
		h.now++
	}
	h.mustInvoke(alice, timelock.CancelFunction{FunctionIndex: 1})

	// entries 0 and 1 are due, 2 and 3 are not
	h.now = now + 31
	events := h.mustInvoke(alice, timelock.CheckExecution{})
	require.Len(t, events, 1)
	assert.Equal(t, uint64(0), events[0].(timelock.ExecutionRecord).Index)

	state := h.loadState()
	require.Len(t, state.QueuedFunctions, 3)
	for i, want := range []uint64{1, 2, 3} {
		assert.Equal(t, timelock.WithdrawAllFunds{Amount: want, Target: alice}, state.QueuedFunctions[i].Function.Value())
	}
	assert.True(t, state.QueuedFunctions[0].Cancelled)
}
