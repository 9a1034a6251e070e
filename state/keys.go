// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "github.com/ava-labs/hyperamm/codec"

const (
	poolPrefix byte = iota
	tokenPrefix
	balancePrefix
	supplyPrefix
)

// PoolKey is the location of the persisted record of the pool at [pool].
func PoolKey(pool codec.Address) []byte {
	k := make([]byte, 1+codec.AddressLen)
	k[0] = poolPrefix
	copy(k[1:], pool[:])
	return k
}

// TokenKey is the location of the root record of [token].
func TokenKey(token codec.Address) []byte {
	k := make([]byte, 1+codec.AddressLen)
	k[0] = tokenPrefix
	copy(k[1:], token[:])
	return k
}

// SupplyKey is the location of the total supply of [token].
func SupplyKey(token codec.Address) []byte {
	k := make([]byte, 1+codec.AddressLen)
	k[0] = supplyPrefix
	copy(k[1:], token[:])
	return k
}

// BalanceKey is [balancePrefix] + [token] + [owner]. Grouping by token keeps
// every holder of a token adjacent for prefix iteration.
func BalanceKey(token codec.Address, owner codec.Address) []byte {
	k := make([]byte, 1+2*codec.AddressLen)
	k[0] = balancePrefix
	copy(k[1:], token[:])
	copy(k[1+codec.AddressLen:], owner[:])
	return k
}

// BalancePrefix returns the prefix shared by every [BalanceKey] of [token].
func BalancePrefix(token codec.Address) []byte {
	return BalanceKey(token, codec.EmptyAddress)[:1+codec.AddressLen]
}
