// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "errors"

var (
	ErrUnknownPool   = errors.New("unknown pool")
	ErrMissingAmount = errors.New("missing amount")
	ErrMissingToken  = errors.New("missing token")

	ErrTooManyAmounts = errors.New("too many amounts")
	ErrUnexpectedMode = errors.New("unexpected message mode")
)
