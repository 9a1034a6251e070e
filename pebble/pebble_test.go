// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) database.Database {
	cfg := NewDefaultConfig()
	cfg.Sync = false
	db, registry, err := New(t.TempDir(), cfg)
	require.NoError(t, err)
	require.NotNil(t, registry)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGetPutDelete(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	_, err := db.Get([]byte("k"))
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(db.Put([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), v)
	ok, err := db.Has([]byte("k"))
	require.NoError(err)
	require.True(ok)

	require.NoError(db.Delete([]byte("k")))
	ok, err = db.Has([]byte("k"))
	require.NoError(err)
	require.False(ok)
}

func TestBatchReplay(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	b := db.NewBatch()
	require.NoError(b.Put([]byte("a"), []byte{1}))
	require.NoError(b.Put([]byte("b"), []byte{2}))
	require.NoError(b.Delete([]byte("a")))
	require.Equal(5, b.Size())
	require.NoError(b.Write())

	ok, err := db.Has([]byte("a"))
	require.NoError(err)
	require.False(ok)
	v, err := db.Get([]byte("b"))
	require.NoError(err)
	require.Equal([]byte{2}, v)

	mem := memdb.New()
	require.NoError(b.Replay(mem))
	v, err = mem.Get([]byte("b"))
	require.NoError(err)
	require.Equal([]byte{2}, v)

	b.Reset()
	require.Zero(b.Size())
}

func TestIteratorPrefix(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	for _, k := range []string{"a1", "a2", "a3", "b1", "\xff"} {
		require.NoError(db.Put([]byte(k), []byte(k)))
	}

	it := db.NewIteratorWithPrefix([]byte("a"))
	keys := []string{}
	for it.Next() {
		keys = append(keys, string(it.Key()))
		require.Equal(it.Key(), it.Value())
	}
	require.NoError(it.Error())
	it.Release()
	require.Equal([]string{"a1", "a2", "a3"}, keys)

	it = db.NewIteratorWithStartAndPrefix([]byte("a2"), []byte("a"))
	keys = keys[:0]
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Release()
	require.Equal([]string{"a2", "a3"}, keys)
}

func TestPrefixUpperBound(t *testing.T) {
	require := require.New(t)
	require.Equal([]byte("b"), prefixUpperBound([]byte("a")))
	require.Equal([]byte{0x02}, prefixUpperBound([]byte{0x01, 0xff}))
	require.Nil(prefixUpperBound([]byte{0xff, 0xff}))
	require.Nil(prefixUpperBound(nil))
}

func TestClosed(t *testing.T) {
	require := require.New(t)
	cfg := NewDefaultConfig()
	db, _, err := New(t.TempDir(), cfg)
	require.NoError(err)
	require.NoError(db.Close())

	_, err = db.Get([]byte("k"))
	require.ErrorIs(err, database.ErrClosed)
	require.ErrorIs(db.Close(), database.ErrClosed)
}
