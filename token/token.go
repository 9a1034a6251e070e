// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/state"
	"github.com/ava-labs/hyperamm/utils"
)

const (
	MaxNameSize   = 64
	MaxSymbolSize = 8
	MaxDecimals   = 36

	// LP tokens share a fixed description.
	LPName     = "HyperAMM LP"
	LPSymbol   = "HLP"
	LPDecimals = 9
)

// Info is the root record of a token.
type Info struct {
	Name     string        `json:"name"`
	Symbol   string        `json:"symbol"`
	Decimals uint8         `json:"decimals"`
	Owner    codec.Address `json:"owner"`
}

func (i *Info) Verify() error {
	if len(i.Name) == 0 || len(i.Name) > MaxNameSize {
		return ErrInvalidName
	}
	if len(i.Symbol) == 0 || len(i.Symbol) > MaxSymbolSize {
		return ErrInvalidSymbol
	}
	if i.Decimals > MaxDecimals {
		return ErrInvalidDecimals
	}
	return nil
}

// Address derives the root address of a token from its owner and symbol.
func Address(owner codec.Address, symbol string) codec.Address {
	v := make([]byte, codec.AddressLen+len(symbol))
	copy(v, owner[:])
	copy(v[codec.AddressLen:], symbol)
	return codec.CreateAddress(consts.TokenAddressID, utils.ToID(v))
}

// LPAddress derives the LP token address of [pool].
func LPAddress(pool codec.Address) codec.Address {
	return codec.CreateAddress(consts.LPTokenAddressID, utils.ToID(pool[:]))
}

func marshalInfo(i *Info) ([]byte, error) {
	p := codec.NewWriter(
		codec.StringLen(i.Name)+codec.StringLen(i.Symbol)+consts.ByteLen+codec.AddressLen,
		consts.NetworkSizeLimit,
	)
	p.PackString(i.Name)
	p.PackString(i.Symbol)
	p.PackByte(i.Decimals)
	p.PackAddress(i.Owner)
	return p.Bytes(), p.Err()
}

func unmarshalInfo(b []byte) (*Info, error) {
	p := codec.NewReader(b, len(b))
	var i Info
	i.Name = p.UnpackString(true)
	i.Symbol = p.UnpackString(true)
	i.Decimals = p.UnpackByte()
	p.UnpackAddress(&i.Owner)
	p.Done()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return &i, nil
}

// Create registers [token] with [info] and a zero supply.
func Create(ctx context.Context, mu state.Mutable, token codec.Address, info *Info) error {
	if err := info.Verify(); err != nil {
		return err
	}
	exists, err := Exists(ctx, mu, token)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTokenExists, token)
	}
	b, err := marshalInfo(info)
	if err != nil {
		return err
	}
	return mu.Insert(ctx, state.TokenKey(token), b)
}

func Exists(ctx context.Context, im state.Immutable, token codec.Address) (bool, error) {
	_, ok, err := state.Get(ctx, im, state.TokenKey(token))
	return ok, err
}

func GetInfo(ctx context.Context, im state.Immutable, token codec.Address) (*Info, error) {
	b, ok, err := state.Get(ctx, im, state.TokenKey(token))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, token)
	}
	return unmarshalInfo(b)
}

func getAmount(ctx context.Context, im state.Immutable, key []byte) (*uint256.Int, error) {
	b, ok, err := state.Get(ctx, im, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	if len(b) != consts.Uint256Len {
		return nil, codec.ErrInvalidSize
	}
	return new(uint256.Int).SetBytes32(b), nil
}

// setAmount removes zero entries so that empty balances take no space.
func setAmount(ctx context.Context, mu state.Mutable, key []byte, v *uint256.Int) error {
	if v.IsZero() {
		return mu.Remove(ctx, key)
	}
	b := v.Bytes32()
	return mu.Insert(ctx, key, b[:])
}

// Balance returns the balance of [owner] in [token]. Unknown owners hold
// zero.
func Balance(ctx context.Context, im state.Immutable, token codec.Address, owner codec.Address) (*uint256.Int, error) {
	return getAmount(ctx, im, state.BalanceKey(token, owner))
}

func TotalSupply(ctx context.Context, im state.Immutable, token codec.Address) (*uint256.Int, error) {
	return getAmount(ctx, im, state.SupplyKey(token))
}

// Mint credits [amount] of [token] to [to] and grows the total supply.
// Authorization is the caller's responsibility.
func Mint(ctx context.Context, mu state.Mutable, token codec.Address, to codec.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	supply, err := TotalSupply(ctx, mu, token)
	if err != nil {
		return err
	}
	newSupply, overflow := new(uint256.Int).AddOverflow(supply, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	bal, err := Balance(ctx, mu, token, to)
	if err != nil {
		return err
	}
	if err := setAmount(ctx, mu, state.SupplyKey(token), newSupply); err != nil {
		return err
	}
	// Balance cannot exceed supply so this cannot overflow.
	return setAmount(ctx, mu, state.BalanceKey(token, to), bal.Add(bal, amount))
}

// Burn debits [amount] of [token] from [from] and shrinks the total supply.
func Burn(ctx context.Context, mu state.Mutable, token codec.Address, from codec.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	bal, err := Balance(ctx, mu, token, from)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, bal, amount)
	}
	supply, err := TotalSupply(ctx, mu, token)
	if err != nil {
		return err
	}
	if err := setAmount(ctx, mu, state.SupplyKey(token), supply.Sub(supply, amount)); err != nil {
		return err
	}
	return setAmount(ctx, mu, state.BalanceKey(token, from), bal.Sub(bal, amount))
}

// Transfer moves [amount] of [token] from [from] to [to].
func Transfer(ctx context.Context, mu state.Mutable, token codec.Address, from codec.Address, to codec.Address, amount *uint256.Int) error {
	if amount.IsZero() || from == to {
		return nil
	}
	if err := Debit(ctx, mu, token, from, amount); err != nil {
		return err
	}
	return Credit(ctx, mu, token, to, amount)
}

// Debit removes [amount] of [token] from [from] without touching the supply.
// Debited funds are in flight until they are credited to someone.
func Debit(ctx context.Context, mu state.Mutable, token codec.Address, from codec.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	bal, err := Balance(ctx, mu, token, from)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, bal, amount)
	}
	return setAmount(ctx, mu, state.BalanceKey(token, from), bal.Sub(bal, amount))
}

// Credit adds in-flight [amount] of [token] to [to].
func Credit(ctx context.Context, mu state.Mutable, token codec.Address, to codec.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	bal, err := Balance(ctx, mu, token, to)
	if err != nil {
		return err
	}
	newBal, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	return setAmount(ctx, mu, state.BalanceKey(token, to), newBal)
}

// Destroy removes in-flight [amount] of [token] from the supply.
func Destroy(ctx context.Context, mu state.Mutable, token codec.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	supply, err := TotalSupply(ctx, mu, token)
	if err != nil {
		return err
	}
	if supply.Lt(amount) {
		return fmt.Errorf("%w: supply %s, destroying %s", ErrInsufficientBalance, supply, amount)
	}
	return setAmount(ctx, mu, state.SupplyKey(token), supply.Sub(supply, amount))
}

// Amount is a quantity of a single token.
type Amount struct {
	Token  codec.Address `json:"token"`
	Amount *uint256.Int  `json:"amount"`
}
