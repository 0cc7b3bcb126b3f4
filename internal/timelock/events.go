package timelock

import (
	"github.com/anilyagiz/dDef/internal/crypto"
)

// FunctionQueued is emitted after a critical function has been queued.
type FunctionQueued struct {
	Index         uint64
	Function      CriticalFunction
	ExecutionTime int64
	Initiator     crypto.PublicKey
}

func (FunctionQueued) EventName() string { return "FunctionQueued" }

// FunctionCancelled is emitted after a successful cancellation, including
// repeated cancellations of the same function.
type FunctionCancelled struct {
	Index  uint64
	Caller crypto.PublicKey
}

func (FunctionCancelled) EventName() string { return "FunctionCancelled" }

// DelegateSet is emitted after the account level delegate changed.
type DelegateSet struct {
	Delegate crypto.PublicKey
	Caller   crypto.PublicKey
}

func (DelegateSet) EventName() string { return "DelegateSet" }

// FunctionDelegateSet is emitted after an initiator named the delegate of
// one queued function.
type FunctionDelegateSet struct {
	Index    uint64
	Delegate crypto.PublicKey
}

func (FunctionDelegateSet) EventName() string { return "FunctionDelegateSet" }

// ExecutionRecord is the authorization to perform a due critical function.
// Moving funds or tearing down the account is left to the host.
type ExecutionRecord struct {
	// Index is the position the function held before the sweep.
	Index         uint64
	Function      CriticalFunction
	ExecutionTime int64
	Initiator     crypto.PublicKey
	ExecutedAt    int64
}

func (ExecutionRecord) EventName() string { return "FunctionExecuted" }
