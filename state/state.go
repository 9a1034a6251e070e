// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"

	"github.com/ava-labs/avalanchego/database"
)

type Immutable interface {
	GetValue(ctx context.Context, key []byte) (value []byte, err error)
}

type Mutable interface {
	Immutable

	Insert(ctx context.Context, key []byte, value []byte) error
	Remove(ctx context.Context, key []byte) error
}

// Database exposes an avalanchego key-value store as [Mutable].
type Database struct {
	db database.KeyValueReaderWriterDeleter
}

func NewDatabase(db database.KeyValueReaderWriterDeleter) *Database {
	return &Database{db: db}
}

func (d *Database) GetValue(_ context.Context, key []byte) ([]byte, error) {
	return d.db.Get(key)
}

func (d *Database) Insert(_ context.Context, key []byte, value []byte) error {
	return d.db.Put(key, value)
}

func (d *Database) Remove(_ context.Context, key []byte) error {
	return d.db.Delete(key)
}

// Get returns the value at [key] and whether it exists. Any error other than
// [database.ErrNotFound] is returned.
func Get(ctx context.Context, im Immutable, key []byte) ([]byte, bool, error) {
	v, err := im.GetValue(ctx, key)
	switch {
	case err == nil:
		return v, true, nil
	case err == database.ErrNotFound:
		return nil, false, nil
	default:
		return nil, false, err
	}
}
