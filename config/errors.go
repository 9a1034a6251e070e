// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrDuplicateSymbol = errors.New("duplicate token symbol")
	ErrUnknownSymbol   = errors.New("unknown token symbol")
)
