// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import "errors"

var (
	ErrNotPool              = errors.New("actor is not a pool")
	ErrUnknownToken         = errors.New("token not in pool")
	ErrSameToken            = errors.New("input and output token are the same")
	ErrDuplicateToken       = errors.New("duplicate pool token")
	ErrNativeToken          = errors.New("native token cannot be pooled")
	ErrTokenNotCreated      = errors.New("token does not exist")
	ErrInvalidTokenCount    = errors.New("invalid number of pool tokens")
	ErrMismatchedDecimals   = errors.New("decimals do not match tokens")
	ErrMissingAdmin         = errors.New("missing admin")
	ErrMismatchedDefinition = errors.New("stored pool does not match definition")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrNoRecipient          = errors.New("no recipient to pass funds on to")
	ErrReturned             = errors.New("transfer returned without recipient")
)
