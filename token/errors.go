// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import "errors"

var (
	ErrTokenExists         = errors.New("token already exists")
	ErrTokenNotFound       = errors.New("token not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSupplyOverflow      = errors.New("total supply overflow")
	ErrInvalidName         = errors.New("invalid token name")
	ErrInvalidSymbol       = errors.New("invalid token symbol")
	ErrInvalidDecimals     = errors.New("invalid token decimals")
)
