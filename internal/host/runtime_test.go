package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anilyagiz/dDef/internal/clock"
	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/crypto/ed25519"
	"github.com/anilyagiz/dDef/internal/host"
	"github.com/anilyagiz/dDef/internal/testutils"
	"github.com/anilyagiz/dDef/internal/timelock"
)

var start = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

type fixture struct {
	t       *testing.T
	store   *host.AccountStore
	runtime *host.Runtime
	clock   *clock.ManualSource
	state   crypto.PublicKey
}

func newFixture(t *testing.T) *fixture {
	store := newAccountStore(t)
	source := clock.NewManualSource(start)
	state := testutils.RandomPublicKey(t)
	require.NoError(t, store.Create(state, 4096))

	return &fixture{
		t:       t,
		store:   store,
		runtime: host.NewRuntime(store, timelock.ProgramID, timelock.New(), source),
		clock:   source,
		state:   state,
	}
}

func (f *fixture) tx(signer crypto.PublicKey, key ed25519.PrivateKey, ins timelock.Instruction) *host.Transaction {
	data, err := timelock.Pack(ins)
	require.NoError(f.t, err)

	tx := host.NewTransaction(signer, []host.AccountMeta{
		{Key: f.state, IsWritable: true},
		{Key: clock.SysvarKey},
	}, data)
	require.NoError(f.t, tx.Sign(key))
	return tx
}

func (f *fixture) loadState() timelock.ContractState {
	acc, err := f.store.Get(f.state)
	require.NoError(f.t, err)
	state, err := timelock.LoadState(acc)
	require.NoError(f.t, err)
	return state
}

func TestRuntimeQueueAndSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceKey := testutils.RandomSigner(t)

	res, err := f.runtime.Execute(ctx, f.tx(alice, aliceKey, timelock.QueueCriticalFunction{
		Function:     timelock.NewWithdrawAllFunds(42, alice),
		DelaySeconds: 5,
	}))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	queued := res.Events[0].(timelock.FunctionQueued)
	assert.Equal(t, start.Unix()+30, queued.ExecutionTime)
	assert.Equal(t, start.Unix(), res.Clock.UnixTimestamp)

	f.clock.Advance(29 * time.Second)
	res, err = f.runtime.Execute(ctx, f.tx(alice, aliceKey, timelock.CheckExecution{}))
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Len(t, f.loadState().QueuedFunctions, 1)

	f.clock.Advance(time.Second)
	res, err = f.runtime.Execute(ctx, f.tx(alice, aliceKey, timelock.CheckExecution{}))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "FunctionExecuted", res.Events[0].EventName())
	assert.Empty(t, f.loadState().QueuedFunctions)
}

func TestRuntimeFailedProgramCommitsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceKey := testutils.RandomSigner(t)
	bob, bobKey := testutils.RandomSigner(t)

	_, err := f.runtime.Execute(ctx, f.tx(alice, aliceKey, timelock.QueueCriticalFunction{
		Function: timelock.NewDeleteAccount(),
	}))
	require.NoError(t, err)
	before, err := f.store.Get(f.state)
	require.NoError(t, err)

	tx := f.tx(bob, bobKey, timelock.CancelFunction{FunctionIndex: 0})
	_, err = f.runtime.Execute(ctx, tx)
	assert.ErrorIs(t, err, timelock.ErrUnauthorized)

	after, err := f.store.Get(f.state)
	require.NoError(t, err)
	assert.Equal(t, before.Data, after.Data)

	executed, err := f.store.Executed(tx.ID)
	require.NoError(t, err)
	assert.False(t, executed)
}

func TestRuntimeRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	alice, aliceKey := testutils.RandomSigner(t)
	mallory := testutils.RandomPublicKey(t)

	tx := f.tx(alice, aliceKey, timelock.SetDelegate{Delegate: alice})
	tx.Signer = mallory

	_, err := f.runtime.Execute(context.Background(), tx)
	assert.ErrorIs(t, err, host.ErrInvalidSignature)
	assert.Nil(t, f.loadState().Delegate)
}

func TestRuntimeRejectsReplay(t *testing.T) {
	f := newFixture(t)
	alice, aliceKey := testutils.RandomSigner(t)
	tx := f.tx(alice, aliceKey, timelock.QueueCriticalFunction{Function: timelock.NewDeleteAccount()})

	_, err := f.runtime.Execute(context.Background(), tx)
	require.NoError(t, err)

	_, err = f.runtime.Execute(context.Background(), tx)
	assert.ErrorIs(t, err, host.ErrDuplicateTransaction)
	assert.Len(t, f.loadState().QueuedFunctions, 1)
}

func TestRuntimeAccountChecks(t *testing.T) {
	f := newFixture(t)
	alice, aliceKey := testutils.RandomSigner(t)
	data, err := timelock.Pack(timelock.CheckExecution{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		accounts []host.AccountMeta
		err      error
	}{
		{
			name:     "unknown_account",
			accounts: []host.AccountMeta{{Key: testutils.RandomPublicKey(t), IsWritable: true}, {Key: clock.SysvarKey}},
			err:      host.ErrAccountNotFound,
		},
		{
			name:     "duplicate_account",
			accounts: []host.AccountMeta{{Key: f.state, IsWritable: true}, {Key: f.state, IsWritable: true}},
			err:      host.ErrInvalidTransaction,
		},
		{
			name:     "writable_clock",
			accounts: []host.AccountMeta{{Key: f.state, IsWritable: true}, {Key: clock.SysvarKey, IsWritable: true}},
			err:      host.ErrInvalidTransaction,
		},
		{
			name:     "read_only_state",
			accounts: []host.AccountMeta{{Key: f.state}, {Key: clock.SysvarKey}},
			err:      timelock.ErrAccountNotWritable,
		},
		{
			name:     "missing_clock",
			accounts: []host.AccountMeta{{Key: f.state, IsWritable: true}},
			err:      timelock.ErrNotEnoughAccountKeys,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := host.NewTransaction(alice, tc.accounts, data)
			require.NoError(t, tx.Sign(aliceKey))

			_, err := f.runtime.Execute(context.Background(), tx)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRuntimeCancelledContext(t *testing.T) {
	f := newFixture(t)
	alice, aliceKey := testutils.RandomSigner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runtime.Execute(ctx, f.tx(alice, aliceKey, timelock.SetDelegate{Delegate: alice}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, f.loadState().Delegate)
}
