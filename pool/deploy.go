// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/state"
	"github.com/ava-labs/hyperamm/storage"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/utils"
	"github.com/ava-labs/hyperamm/vm"
)

// Definition describes a pool before it is deployed.
type Definition struct {
	Kind   pricing.Kind
	Admin  codec.Address
	Tokens []codec.Address

	// Decimals and Amp configure stable pools. Decimals default to the
	// decimals of the tokens.
	Decimals []uint8
	Amp      uint64

	Fees *fees.Params

	// Salt separates pools that share kind, admin and tokens.
	Salt uint64
}

// Address derives the address of the pool from its definition.
func (d *Definition) Address() codec.Address {
	p := codec.NewWriter(
		consts.ByteLen+codec.AddressLen+codec.AddressesLen(d.Tokens)+consts.Uint64Len,
		consts.NetworkSizeLimit,
	)
	p.PackByte(uint8(d.Kind))
	p.PackAddress(d.Admin)
	p.PackAddresses(d.Tokens)
	p.PackUint64(d.Salt)
	return codec.CreateAddress(consts.PoolAddressID, utils.ToID(p.Bytes()))
}

func (d *Definition) Verify() error {
	if d.Admin == codec.EmptyAddress {
		return ErrMissingAdmin
	}
	if len(d.Tokens) < 2 || len(d.Tokens) > consts.MaxPoolTokens {
		return fmt.Errorf("%w: %d", ErrInvalidTokenCount, len(d.Tokens))
	}
	if d.Kind == pricing.ConstantProductID && len(d.Tokens) != 2 {
		return fmt.Errorf("%w: pair pools hold 2 tokens, got %d", ErrInvalidTokenCount, len(d.Tokens))
	}
	seen := make(map[codec.Address]struct{}, len(d.Tokens))
	for _, tok := range d.Tokens {
		if tok == vm.NativeToken {
			return ErrNativeToken
		}
		if _, ok := seen[tok]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateToken, tok)
		}
		seen[tok] = struct{}{}
	}
	if len(d.Decimals) != 0 && len(d.Decimals) != len(d.Tokens) {
		return ErrMismatchedDecimals
	}
	if d.Fees == nil {
		return pricing.ErrMissingFees
	}
	// The model checks the kind, the fee params and the stable settings.
	_, err := d.record().Model()
	return err
}

func (d *Definition) record() *storage.Pool {
	addr := d.Address()
	reserves := make([]*uint256.Int, len(d.Tokens))
	for i := range reserves {
		reserves[i] = new(uint256.Int)
	}
	var params *fees.Params
	if d.Fees != nil {
		params = d.Fees.Copy()
	}
	return &storage.Pool{
		Address:  addr,
		Kind:     d.Kind,
		Admin:    d.Admin,
		LPToken:  token.LPAddress(addr),
		Tokens:   slices.Clone(d.Tokens),
		Reserves: reserves,
		LPSupply: new(uint256.Int),
		Decimals: slices.Clone(d.Decimals),
		Amp:      d.Amp,
		Active:   true,
		Fees:     params,
		Ledger:   fees.NewLedger(),
	}
}

// Deploy creates the pool described by [def], unless its record already
// exists, and registers its actor with [v].
func Deploy(ctx context.Context, v *vm.VM, def *Definition, gas Gas, metrics *Metrics) (*Pool, error) {
	if def.Kind == pricing.StableswapID && len(def.Decimals) == 0 {
		decimals, err := tokenDecimals(ctx, v.State(), def.Tokens)
		if err != nil {
			return nil, err
		}
		def.Decimals = decimals
	}
	if err := def.Verify(); err != nil {
		return nil, err
	}
	rec := def.record()
	exists, err := storage.HasPool(ctx, v.State(), rec.Address)
	if err != nil {
		return nil, err
	}
	if exists {
		stored, err := storage.LoadPool(ctx, v.State(), rec.Address)
		if err != nil {
			return nil, err
		}
		if stored.Kind != rec.Kind || !slices.Equal(stored.Tokens, rec.Tokens) {
			return nil, fmt.Errorf("%w: %s", ErrMismatchedDefinition, rec.Address)
		}
		v.Logger().Info("loaded pool",
			zap.Stringer("address", rec.Address),
			zap.Stringer("kind", rec.Kind),
		)
	} else {
		for _, tok := range def.Tokens {
			ok, err := token.Exists(ctx, v.State(), tok)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrTokenNotCreated, tok)
			}
		}
		if err := v.Update(ctx, func(mu state.Mutable) error {
			if err := token.Create(ctx, mu, rec.LPToken, &token.Info{
				Name:     token.LPName,
				Symbol:   token.LPSymbol,
				Decimals: token.LPDecimals,
				Owner:    rec.Address,
			}); err != nil {
				return err
			}
			return storage.SetPool(ctx, mu, rec)
		}); err != nil {
			return nil, err
		}
		v.Logger().Info("deployed pool",
			zap.Stringer("address", rec.Address),
			zap.Stringer("kind", rec.Kind),
			zap.Int("tokens", len(rec.Tokens)),
		)
	}
	p := New(rec.Address, gas, metrics)
	if err := v.Register(p); err != nil {
		return nil, err
	}
	return p, nil
}

func tokenDecimals(ctx context.Context, im state.Immutable, tokens []codec.Address) ([]uint8, error) {
	decimals := make([]uint8, len(tokens))
	for i, tok := range tokens {
		info, err := token.GetInfo(ctx, im, tok)
		if err != nil {
			return nil, err
		}
		decimals[i] = info.Decimals
	}
	return decimals, nil
}
