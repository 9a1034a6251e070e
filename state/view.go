// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/database"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type change struct {
	value   []byte
	removed bool
}

// View buffers writes on top of a parent [Mutable]. Nothing reaches the
// parent until [View.Commit] is called, so a failed handler can drop its
// writes with [View.Discard].
type View struct {
	l       sync.RWMutex
	parent  Mutable
	changes map[string]change
}

func NewView(parent Mutable) *View {
	return &View{
		parent:  parent,
		changes: make(map[string]change),
	}
}

func (v *View) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	v.l.RLock()
	c, ok := v.changes[string(key)]
	v.l.RUnlock()
	if ok {
		if c.removed {
			return nil, database.ErrNotFound
		}
		return slices.Clone(c.value), nil
	}
	return v.parent.GetValue(ctx, key)
}

func (v *View) Insert(_ context.Context, key []byte, value []byte) error {
	v.l.Lock()
	defer v.l.Unlock()

	v.changes[string(key)] = change{value: slices.Clone(value)}
	return nil
}

func (v *View) Remove(_ context.Context, key []byte) error {
	v.l.Lock()
	defer v.l.Unlock()

	v.changes[string(key)] = change{removed: true}
	return nil
}

// PendingChanges returns the number of keys modified since the last commit.
func (v *View) PendingChanges() int {
	v.l.RLock()
	defer v.l.RUnlock()

	return len(v.changes)
}

// Commit writes pending changes to the parent in key order and resets the
// view.
func (v *View) Commit(ctx context.Context) error {
	v.l.Lock()
	defer v.l.Unlock()

	keys := maps.Keys(v.changes)
	slices.Sort(keys)
	for _, k := range keys {
		c := v.changes[k]
		var err error
		if c.removed {
			err = v.parent.Remove(ctx, []byte(k))
		} else {
			err = v.parent.Insert(ctx, []byte(k), c.value)
		}
		if err != nil {
			return err
		}
	}
	clear(v.changes)
	return nil
}

// Discard drops all pending changes.
func (v *View) Discard() {
	v.l.Lock()
	defer v.l.Unlock()

	clear(v.changes)
}
