package timelock

import (
	"fmt"

	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/safemath"
)

// QueuedFunction is a critical function waiting for its execution time.
// Only Cancelled and Delegate ever change after queueing.
type QueuedFunction struct {
	Function      CriticalFunction
	ExecutionTime int64
	Cancelled     bool
	Initiator     crypto.PublicKey
	// Delegate may cancel this function in addition to the initiator.
	Delegate *crypto.PublicKey
}

// ContractState is the whole state kept in a ledger account.
type ContractState struct {
	// QueuedFunctions keeps insertion order; the index is the handle used
	// by cancellation.
	QueuedFunctions []QueuedFunction
	// Delegate is recorded for the account but is not consulted by any
	// authorization check.
	Delegate *crypto.PublicKey
}

// Queue appends fn with an execution time of now plus the fixed delay for
// its kind. requestedDelay is accepted for wire compatibility and ignored.
func (s *ContractState) Queue(fn CriticalFunction, requestedDelay int64, caller crypto.PublicKey, now int64) (uint64, QueuedFunction, error) {
	delay, err := FixedDelay(fn)
	if err != nil {
		return 0, QueuedFunction{}, err
	}

	executionTime, ok := safemath.Add(now, delay)
	if !ok {
		return 0, QueuedFunction{}, fmt.Errorf("%w: %d + %d", ErrTimeOverflow, now, delay)
	}

	qf := QueuedFunction{
		Function:      fn,
		ExecutionTime: executionTime,
		Cancelled:     false,
		Initiator:     caller,
		Delegate:      nil,
	}
	s.QueuedFunctions = append(s.QueuedFunctions, qf)

	return uint64(len(s.QueuedFunctions) - 1), qf, nil
}

// Cancel marks the function at index cancelled. Only the initiator or the
// function's own delegate may cancel; the account delegate may not.
// Cancelling twice is allowed and changes nothing.
func (s *ContractState) Cancel(caller crypto.PublicKey, index uint64) error {
	qf, err := s.at(index)
	if err != nil {
		return err
	}

	if caller != qf.Initiator && (qf.Delegate == nil || *qf.Delegate != caller) {
		return fmt.Errorf("%w: %s may not cancel function %d", ErrUnauthorized, caller, index)
	}

	qf.Cancelled = true
	return nil
}

// SetDelegate overwrites the account delegate.
//
// No check is made on who calls it, so any caller can rotate the delegate.
// Hosts exposing this in production should restrict it to the account owner.
func (s *ContractState) SetDelegate(key crypto.PublicKey) {
	s.Delegate = &key
}

// SetFunctionDelegate names the delegate of the function at index. Only
// the initiator of that function may do so.
func (s *ContractState) SetFunctionDelegate(caller crypto.PublicKey, index uint64, key crypto.PublicKey) error {
	qf, err := s.at(index)
	if err != nil {
		return err
	}

	if caller != qf.Initiator {
		return fmt.Errorf("%w: only the initiator may delegate function %d", ErrUnauthorized, index)
	}

	qf.Delegate = &key
	return nil
}

// Sweep executes every function that is not cancelled and whose execution
// time is at or before now, and removes it from the queue. Everything else
// stays in its original relative order.
func (s *ContractState) Sweep(now int64) []ExecutionRecord {
	var (
		executed []ExecutionRecord
		kept     []QueuedFunction
	)

	for i, qf := range s.QueuedFunctions {
		if qf.Cancelled || qf.ExecutionTime > now {
			kept = append(kept, qf)
			continue
		}

		executed = append(executed, ExecutionRecord{
			Index:         uint64(i),
			Function:      qf.Function,
			ExecutionTime: qf.ExecutionTime,
			Initiator:     qf.Initiator,
			ExecutedAt:    now,
		})
	}

	if len(executed) > 0 {
		s.QueuedFunctions = kept
	}

	return executed
}

func (s *ContractState) at(index uint64) (*QueuedFunction, error) {
	if index >= uint64(len(s.QueuedFunctions)) {
		return nil, fmt.Errorf("%w: index %d, queue length %d", ErrIndexOutOfRange, index, len(s.QueuedFunctions))
	}
	return &s.QueuedFunctions[index], nil
}
