// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"errors"
	"sync"

	"github.com/ava-labs/avalanchego/utils/buffer"
)

var errInvalidMaxSize = errors.New("maxSize must be greater than 0")

// BoundedBuffer keeps the [maxSize] most recent items inserted into it. It
// is safe for concurrent use.
type BoundedBuffer[T any] struct {
	l       sync.RWMutex
	inner   buffer.Deque[T]
	maxSize int
}

func NewBoundedBuffer[T any](maxSize int) (*BoundedBuffer[T], error) {
	if maxSize < 1 {
		return nil, errInvalidMaxSize
	}
	return &BoundedBuffer[T]{
		inner:   buffer.NewUnboundedDeque[T](maxSize + 1), // +1 so we never resize
		maxSize: maxSize,
	}, nil
}

// Insert adds [elt], dropping the oldest item when full.
func (b *BoundedBuffer[T]) Insert(elt T) {
	b.l.Lock()
	defer b.l.Unlock()

	if b.inner.Len() == b.maxSize {
		_, _ = b.inner.PopLeft()
	}
	b.inner.PushRight(elt)
}

// Last retrieves the most recent item, or false if the buffer is empty.
func (b *BoundedBuffer[T]) Last() (T, bool) {
	b.l.RLock()
	defer b.l.RUnlock()

	return b.inner.PeekRight()
}

// Items returns all items from oldest to newest.
func (b *BoundedBuffer[T]) Items() []T {
	b.l.RLock()
	defer b.l.RUnlock()

	return b.inner.List()
}
