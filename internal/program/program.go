// Package program defines the contract between an execution host and the
// programs it runs. The host owns account storage, verifies the caller and
// provides trusted sysvar accounts. A program sees copies of the accounts
// for the duration of one call; the host decides whether to commit them.
package program

import (
	"errors"
	"fmt"

	"github.com/anilyagiz/dDef/internal/crypto"
)

var (
	ErrAccountNotWritable  = errors.New("account is not writable")
	ErrAccountDataTooSmall = errors.New("account data too small")
)

// AccountInfo is the view of one account passed to a program.
type AccountInfo struct {
	Key        crypto.PublicKey
	IsSigner   bool
	IsWritable bool
	// Data holds the bytes currently stored, at most Capacity long.
	Data     []byte
	Capacity int
}

func (a *AccountInfo) DataLen() int {
	return len(a.Data)
}

// SetData replaces the stored bytes. It fails without modifying the
// account if the account is read-only or b does not fit the capacity.
func (a *AccountInfo) SetData(b []byte) error {
	if !a.IsWritable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, a.Key)
	}
	if len(b) > a.Capacity {
		return fmt.Errorf("%w: need %d bytes, capacity is %d", ErrAccountDataTooSmall, len(b), a.Capacity)
	}
	a.Data = append([]byte(nil), b...)
	return nil
}

// Clone returns a deep copy.
func (a *AccountInfo) Clone() *AccountInfo {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// Event is a record a program emits for the host to publish.
type Event interface {
	EventName() string
}

// Invocation carries everything a program may use during one call.
type Invocation struct {
	ProgramID crypto.PublicKey
	// Caller has already been authenticated by the host.
	Caller   crypto.PublicKey
	Accounts []*AccountInfo

	events []Event
}

// Emit records an event. Hosts only publish events of successful calls.
func (inv *Invocation) Emit(e Event) {
	inv.events = append(inv.events, e)
}

func (inv *Invocation) Events() []Event {
	return inv.events
}

// Program is implemented by code a host can invoke.
type Program interface {
	Process(inv *Invocation, data []byte) error
}
