// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import "errors"

var (
	ErrEmptyPayload       = errors.New("empty payload")
	ErrUnknownOperation   = errors.New("unknown operation")
	ErrTooManySteps       = errors.New("too many route steps")
	ErrEmptyRoute         = errors.New("route has no steps")
	ErrMissingOutToken    = errors.New("missing out token")
	ErrMissingPool        = errors.New("route step is missing its pool")
	ErrTooManyAmounts     = errors.New("too many expected amounts")
	ErrMissingFeeParams   = errors.New("missing fee params")
	ErrInvalidRecipient   = errors.New("invalid recipient")
	ErrDuplicateRouteHop  = errors.New("route revisits a pool")
	ErrUnregisteredAction = errors.New("operation type is not registered")
)
