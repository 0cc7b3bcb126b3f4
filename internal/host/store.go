package host

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/program"
	"github.com/anilyagiz/dDef/pkg/db"
	"github.com/anilyagiz/dDef/pkg/db/pebble"
	"github.com/anilyagiz/dDef/pkg/log"
	"github.com/anilyagiz/dDef/pkg/serialization/codec/borsh"
)

// MaxAccountCapacity bounds the data an account may be created with.
const MaxAccountCapacity = 10 * 1024 * 1024

const (
	prefixAccount byte = iota + 1
	prefixTransaction
)

// accountRecord is the persisted form of an account.
type accountRecord struct {
	Capacity uint32
	Data     []byte
}

// AccountStore keeps accounts and executed transaction IDs in a KVStore.
type AccountStore struct {
	db     db.KVStore
	mu     sync.Mutex
	closed atomic.Bool
}

func NewAccountStore(kv db.KVStore) *AccountStore {
	return &AccountStore{db: kv}
}

// Create adds an empty account able to hold capacity bytes.
func (s *AccountStore) Create(key crypto.PublicKey, capacity int) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if capacity <= 0 || capacity > MaxAccountCapacity {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Get(makeKey(prefixAccount, key[:]))
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrAccountExists, key)
	case !errors.Is(err, pebble.ErrNotFound):
		return fmt.Errorf("get account: %w", err)
	}

	b, err := borsh.Marshal(accountRecord{Capacity: uint32(capacity)})
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	if err := s.db.Put(makeKey(prefixAccount, key[:]), b); err != nil {
		return fmt.Errorf("put account: %w", err)
	}

	log.Host.Info().Stringer("account", key).Int("capacity", capacity).Msg("account created")
	return nil
}

// Get returns a fresh read-only view of the account. Callers decide on the
// signer and writable flags.
func (s *AccountStore) Get(key crypto.PublicKey) (*program.AccountInfo, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	b, err := s.db.Get(makeKey(prefixAccount, key[:]))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	var rec accountRecord
	if err := borsh.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal account %s: %w", key, err)
	}

	return &program.AccountInfo{
		Key:      key,
		Data:     rec.Data,
		Capacity: int(rec.Capacity),
	}, nil
}

// Keys lists all account keys in ascending order.
func (s *AccountStore) Keys() ([]crypto.PublicKey, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	iter, err := s.db.NewIterator([]byte{prefixAccount}, []byte{prefixAccount + 1})
	if err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	defer iter.Close()

	var keys []crypto.PublicKey
	for iter.Next() {
		key, err := crypto.PublicKeyFromBytes(iter.Key()[1:])
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Executed reports whether a transaction with id has been committed.
func (s *AccountStore) Executed(id uuid.UUID) (bool, error) {
	if s.closed.Load() {
		return false, ErrStoreClosed
	}

	_, err := s.db.Get(makeKey(prefixTransaction, id[:]))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get transaction: %w", err)
	}
	return true, nil
}

// commit writes the given accounts and marks id executed in one batch.
func (s *AccountStore) commit(id uuid.UUID, accounts []*program.AccountInfo) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewBatch()
	defer batch.Close()

	for _, acc := range accounts {
		b, err := borsh.Marshal(accountRecord{Capacity: uint32(acc.Capacity), Data: acc.Data})
		if err != nil {
			return fmt.Errorf("marshal account %s: %w", acc.Key, err)
		}
		if err := batch.Put(makeKey(prefixAccount, acc.Key[:]), b); err != nil {
			return fmt.Errorf("store account %s: %w", acc.Key, err)
		}
	}
	if err := batch.Put(makeKey(prefixTransaction, id[:]), []byte{1}); err != nil {
		return fmt.Errorf("store transaction: %w", err)
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Close closes the underlying KVStore.
func (s *AccountStore) Close() error {
	if s.closed.Swap(true) {
		return ErrStoreClosed
	}
	return s.db.Close()
}

func makeKey(prefix byte, id []byte) []byte {
	key := make([]byte, 1+len(id))
	key[0] = prefix
	copy(key[1:], id)
	return key
}
