// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import "github.com/ava-labs/hyperamm/consts"

func BytesLen(msg []byte) int {
	return consts.IntLen + len(msg)
}

func StringLen(msg string) int {
	return consts.IntLen + len(msg)
}

// AddressesLen returns the packed size of a length-prefixed address list.
func AddressesLen(addrs []Address) int {
	return consts.IntLen + len(addrs)*AddressLen
}
