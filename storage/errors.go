// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "errors"

var (
	ErrPoolNotFound       = errors.New("pool not found")
	ErrEmptyRecord        = errors.New("empty record")
	ErrUnknownVersion     = errors.New("unknown record version")
	ErrFutureVersion      = errors.New("record version is newer than supported")
	ErrMismatchedReserves = errors.New("reserves do not match tokens")
	ErrMissingFees        = errors.New("missing fee params")
)
