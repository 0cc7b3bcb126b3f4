package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIteratorBoundedRange(t *testing.T) {
	store := newMemStore(t)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Put([]byte(k), []byte("value-"+k)))
	}

	iter, err := store.NewIterator([]byte("b"), []byte("e"))
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	var keys []string
	for iter.Next() {
		value, err := iter.Value()
		require.NoError(t, err)
		assert.Equal(t, "value-"+string(iter.Key()), string(value))
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"b", "c", "d"}, keys)

	// An exhausted iterator stays exhausted
	assert.False(t, iter.Next())
	assert.False(t, iter.Valid())
}

func TestIteratorValidity(t *testing.T) {
	store := newMemStore(t)
	require.NoError(t, store.Put([]byte("key1"), []byte("value1")))

	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	assert.False(t, iter.Valid())
	_, err = iter.Value()
	assert.ErrorIs(t, err, ErrIteratorInvalid)

	assert.True(t, iter.Next())
	assert.True(t, iter.Valid())

	assert.False(t, iter.Next())
	_, err = iter.Value()
	assert.ErrorIs(t, err, ErrIteratorInvalid)
}

func TestIteratorEmptyStore(t *testing.T) {
	store := newMemStore(t)

	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	assert.False(t, iter.Next())
}
