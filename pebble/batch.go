// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"github.com/ava-labs/avalanchego/database"
	"golang.org/x/exp/slices"
)

type op struct {
	key    []byte
	value  []byte
	delete bool
}

// batch holds operations in memory and hands them to pebble atomically on
// [batch.Write].
type batch struct {
	db   *Database
	ops  []op
	size int
}

func (db *Database) NewBatch() database.Batch {
	return &batch{db: db}
}

func (b *batch) Put(key []byte, value []byte) error {
	b.ops = append(b.ops, op{key: slices.Clone(key), value: slices.Clone(value)})
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: slices.Clone(key), delete: true})
	b.size += len(key)
	return nil
}

func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	if b.db.isClosed() {
		return database.ErrClosed
	}
	pb := b.db.db.NewBatch()
	defer pb.Close()
	for _, o := range b.ops {
		var err error
		if o.delete {
			err = pb.Delete(o.key, nil)
		} else {
			err = pb.Set(o.key, o.value, nil)
		}
		if err != nil {
			return err
		}
	}
	return pb.Commit(b.db.writeOptions)
}

func (b *batch) Reset() {
	b.ops = b.ops[:0]
	b.size = 0
}

func (b *batch) Replay(w database.KeyValueWriterDeleter) error {
	for _, o := range b.ops {
		var err error
		if o.delete {
			err = w.Delete(o.key)
		} else {
			err = w.Put(o.key, o.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *batch) Inner() database.Batch {
	return b
}
