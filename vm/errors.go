// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import "errors"

var (
	ErrDuplicateActor   = errors.New("actor already registered")
	ErrUnknownActor     = errors.New("unknown actor")
	ErrActorSender      = errors.New("actors cannot send external messages")
	ErrRunning          = errors.New("vm is running")
	ErrNotOwner         = errors.New("not token owner")
	ErrInvalidAsset     = errors.New("invalid asset")
	ErrNativeAsset      = errors.New("native value must be sent as message value")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrQueryInterrupted = errors.New("query interrupted")
)
