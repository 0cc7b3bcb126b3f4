// Package host runs a program against accounts persisted in a KVStore. It
// authenticates the caller, supplies the clock sysvar and commits account
// changes only when the program succeeds.
package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/anilyagiz/dDef/internal/clock"
	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/program"
	"github.com/anilyagiz/dDef/pkg/log"
)

// Result is the outcome of a committed transaction.
type Result struct {
	ID     uuid.UUID
	Events []program.Event
	// Clock is the sysvar value the program observed.
	Clock clock.Clock
}

// Runtime executes transactions one at a time.
type Runtime struct {
	mu        sync.Mutex
	accounts  *AccountStore
	programID crypto.PublicKey
	program   program.Program
	clock     clock.Source
}

func NewRuntime(accounts *AccountStore, programID crypto.PublicKey, p program.Program, source clock.Source) *Runtime {
	return &Runtime{
		accounts:  accounts,
		programID: programID,
		program:   p,
		clock:     source,
	}
}

// Execute verifies tx, runs the program on copies of the named accounts
// and commits the writable ones. Nothing is written if any step fails.
func (r *Runtime) Execute(ctx context.Context, tx *Transaction) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	logger := log.Host.With().Stringer("tx", tx.ID).Stringer("signer", tx.Signer).Logger()

	if err := tx.Verify(); err != nil {
		logger.Warn().Err(err).Msg("rejecting transaction")
		return nil, err
	}

	executed, err := r.accounts.Executed(tx.ID)
	if err != nil {
		return nil, err
	}
	if executed {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.ID)
	}

	now := clock.At(r.clock.Now())
	accounts, err := r.loadAccounts(tx, now)
	if err != nil {
		return nil, err
	}

	inv := &program.Invocation{
		ProgramID: r.programID,
		Caller:    tx.Signer,
		Accounts:  accounts,
	}
	if err := r.program.Process(inv, tx.Data); err != nil {
		logger.Info().Err(err).Msg("program failed")
		return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}

	var writable []*program.AccountInfo
	for _, acc := range accounts {
		if acc.IsWritable {
			writable = append(writable, acc)
		}
	}
	if err := r.accounts.commit(tx.ID, writable); err != nil {
		return nil, err
	}

	logger.Debug().
		Int("accounts", len(writable)).
		Int("events", len(inv.Events())).
		Int64("unix_timestamp", now.UnixTimestamp).
		Msg("transaction committed")

	return &Result{ID: tx.ID, Events: inv.Events(), Clock: now}, nil
}

func (r *Runtime) loadAccounts(tx *Transaction, now clock.Clock) ([]*program.AccountInfo, error) {
	seen := make(map[crypto.PublicKey]struct{}, len(tx.Accounts))
	accounts := make([]*program.AccountInfo, 0, len(tx.Accounts))

	for _, meta := range tx.Accounts {
		if _, ok := seen[meta.Key]; ok {
			return nil, fmt.Errorf("%w: duplicate account %s", ErrInvalidTransaction, meta.Key)
		}
		seen[meta.Key] = struct{}{}

		if meta.Key == clock.SysvarKey {
			if meta.IsWritable {
				return nil, fmt.Errorf("%w: clock sysvar is read-only", ErrInvalidTransaction)
			}
			acc, err := clock.Account(now)
			if err != nil {
				return nil, err
			}
			accounts = append(accounts, acc)
			continue
		}

		acc, err := r.accounts.Get(meta.Key)
		if err != nil {
			return nil, err
		}
		acc.IsWritable = meta.IsWritable
		acc.IsSigner = meta.Key == tx.Signer
		accounts = append(accounts, acc)
	}
	return accounts, nil
}
