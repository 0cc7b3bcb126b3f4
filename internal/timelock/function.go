package timelock

import (
	"fmt"

	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/pkg/serialization/codec/borsh"
)

// DefaultDelayForCriticalFunction is the mandatory wait in seconds between
// queueing a critical function and its earliest execution.
const DefaultDelayForCriticalFunction int64 = 30

const (
	withdrawAllFundsIndex uint = iota
	deleteAccountIndex
)

// WithdrawAllFunds moves Amount to Target once executed.
type WithdrawAllFunds struct {
	Amount uint64
	Target crypto.PublicKey
}

// DeleteAccount closes the account once executed.
type DeleteAccount struct{}

// CriticalFunction is one of WithdrawAllFunds or DeleteAccount.
type CriticalFunction struct {
	inner any
}

func NewWithdrawAllFunds(amount uint64, target crypto.PublicKey) CriticalFunction {
	return CriticalFunction{inner: WithdrawAllFunds{Amount: amount, Target: target}}
}

func NewDeleteAccount() CriticalFunction {
	return CriticalFunction{inner: DeleteAccount{}}
}

// Value returns the variant, or nil for the zero CriticalFunction.
func (f CriticalFunction) Value() any {
	return f.inner
}

func (f CriticalFunction) IndexValue() (uint, any, error) {
	switch f.inner.(type) {
	case WithdrawAllFunds:
		return withdrawAllFundsIndex, f.inner, nil
	case DeleteAccount:
		return deleteAccountIndex, f.inner, nil
	}

	return 0, nil, borsh.ErrUnsupportedEnumTypeValue
}

func (f CriticalFunction) ValueAt(index uint) (any, error) {
	switch index {
	case withdrawAllFundsIndex:
		return WithdrawAllFunds{}, nil
	case deleteAccountIndex:
		return DeleteAccount{}, nil
	}

	return nil, borsh.ErrUnknownEnumTypeValue
}

func (f *CriticalFunction) SetValue(value any) error {
	switch v := value.(type) {
	case WithdrawAllFunds:
		f.inner = v
	case DeleteAccount:
		f.inner = v
	default:
		return fmt.Errorf(borsh.ErrUnsupportedType, v)
	}

	return nil
}

func (f CriticalFunction) String() string {
	switch v := f.inner.(type) {
	case WithdrawAllFunds:
		return fmt.Sprintf("WithdrawAllFunds{amount: %d, target: %s}", v.Amount, v.Target)
	case DeleteAccount:
		return "DeleteAccount"
	}
	return "<unset>"
}

// FixedDelay is the delay enforced for f. It is the only input to a queued
// function's execution time; the delay a caller asks for plays no part.
func FixedDelay(f CriticalFunction) (int64, error) {
	switch f.inner.(type) {
	case WithdrawAllFunds:
		return DefaultDelayForCriticalFunction, nil
	case DeleteAccount:
		return DefaultDelayForCriticalFunction, nil
	}

	return 0, fmt.Errorf("%w: critical function has no variant", ErrInvalidInstruction)
}
