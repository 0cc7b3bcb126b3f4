// Package clock provides the trusted time oracle a host hands to programs
// as a read-only sysvar account.
package clock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/program"
	"github.com/anilyagiz/dDef/pkg/serialization/codec/borsh"
)

var now = time.Now

// ErrInvalidClockAccount is returned when an account passed as the clock
// is not the clock sysvar or does not hold a valid Clock.
var ErrInvalidClockAccount = errors.New("invalid clock sysvar account")

// SysvarKey is the well-known key of the clock sysvar account.
var SysvarKey = crypto.DeriveKey("SysvarC1ock11111111111111111111111111111111")

// Genesis is the time of slot zero.
var Genesis = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

const SlotDuration = 400 * time.Millisecond

// Clock is the data stored in the clock sysvar account.
type Clock struct {
	Slot          uint64
	UnixTimestamp int64
}

// At returns the Clock observed at t. Times before Genesis map to slot 0.
func At(t time.Time) Clock {
	var slot uint64
	if t.After(Genesis) {
		slot = uint64(t.Sub(Genesis) / SlotDuration)
	}
	return Clock{Slot: slot, UnixTimestamp: t.Unix()}
}

// Account builds the read-only sysvar account holding c.
func Account(c Clock) (*program.AccountInfo, error) {
	data, err := borsh.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode clock: %w", err)
	}
	return &program.AccountInfo{
		Key:      SysvarKey,
		Data:     data,
		Capacity: len(data),
	}, nil
}

// FromAccount reads the Clock out of the sysvar account.
func FromAccount(acc *program.AccountInfo) (Clock, error) {
	if acc.Key != SysvarKey {
		return Clock{}, fmt.Errorf("%w: unexpected key %s", ErrInvalidClockAccount, acc.Key)
	}

	var c Clock
	if err := borsh.Unmarshal(acc.Data, &c); err != nil {
		return Clock{}, fmt.Errorf("%w: %w", ErrInvalidClockAccount, err)
	}
	return c, nil
}

// Source supplies the current time to a host.
type Source interface {
	Now() time.Time
}

// SystemSource reads the wall clock.
type SystemSource struct{}

func (SystemSource) Now() time.Time {
	return now()
}

// ManualSource returns a settable time. It is safe for concurrent use.
type ManualSource struct {
	mu sync.Mutex
	t  time.Time
}

func NewManualSource(t time.Time) *ManualSource {
	return &ManualSource{t: t}
}

func (m *ManualSource) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

func (m *ManualSource) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = t
}

// Advance moves the time forward by d and returns the new time.
func (m *ManualSource) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = m.t.Add(d)
	return m.t
}
