// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	Name = "hyperamm"
	HRP  = "amm"
)

const (
	IDLen           = 32
	ByteLen         = 1
	BoolLen         = 1
	MaxUint8        = ^uint8(0)
	MaxUint8Offset  = 7
	MaxUint         = ^uint(0)
	MaxInt          = int(MaxUint >> 1)
	IntLen          = 4
	Uint16Len       = 2
	Uint64Len       = 8
	MaxUint64       = ^uint64(0)
	MaxUint64Offset = 63

	// Amounts are packed as fixed-width big-endian words.
	Uint256Len = 32
)

// Address type prefixes
const (
	UserAddressID    uint8 = 0
	PoolAddressID    uint8 = 1
	TokenAddressID   uint8 = 2
	LPTokenAddressID uint8 = 3
)

const (
	// MaxPoolTokens bounds the size of a stable pool.
	MaxPoolTokens = 8
	// MaxRouteSteps bounds the chain carried in a single swap payload.
	MaxRouteSteps = 16
	// NetworkSizeLimit bounds any payload accepted by a pool.
	NetworkSizeLimit = 2 * 1024 * 1024
)
