// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/state"
)

// Pool is the persisted state of a single pool actor.
type Pool struct {
	Address  codec.Address
	Kind     pricing.Kind
	Admin    codec.Address
	LPToken  codec.Address
	Tokens   []codec.Address
	Reserves []*uint256.Int
	LPSupply *uint256.Int
	Decimals []uint8
	Amp      uint64
	Active   bool
	Fees     *fees.Params
	Ledger   *fees.Ledger
}

// PricingState returns the snapshot the pool's model prices against.
func (p *Pool) PricingState() *pricing.State {
	return &pricing.State{
		Tokens:   p.Tokens,
		Reserves: p.Reserves,
		LPSupply: p.LPSupply,
		Fees:     p.Fees,
		Decimals: p.Decimals,
		Amp:      p.Amp,
	}
}

// Model returns the pricing model for the pool's current state.
func (p *Pool) Model() (pricing.Model, error) {
	return pricing.New(p.Kind, p.PricingState())
}

// Index returns the position of [token] in the pool.
func (p *Pool) Index(token codec.Address) (int, bool) {
	for i, t := range p.Tokens {
		if t == token {
			return i, true
		}
	}
	return -1, false
}

func (p *Pool) verify() error {
	if len(p.Reserves) != len(p.Tokens) {
		return fmt.Errorf("%w: %d tokens, %d reserves", ErrMismatchedReserves, len(p.Tokens), len(p.Reserves))
	}
	if p.Fees == nil {
		return ErrMissingFees
	}
	return p.Fees.Verify()
}

// GetPool loads the pool at [addr]. Records written by an older version are
// migrated and written back before being returned.
func GetPool(ctx context.Context, mu state.Mutable, addr codec.Address) (*Pool, error) {
	raw, migrated, err := load(ctx, mu, addr)
	if err != nil {
		return nil, err
	}
	if migrated {
		if err := mu.Insert(ctx, state.PoolKey(addr), raw); err != nil {
			return nil, err
		}
	}
	return decode(raw, addr)
}

// LoadPool is GetPool for read-only callers. Older records are migrated in
// memory only.
func LoadPool(ctx context.Context, im state.Immutable, addr codec.Address) (*Pool, error) {
	raw, _, err := load(ctx, im, addr)
	if err != nil {
		return nil, err
	}
	return decode(raw, addr)
}

func load(ctx context.Context, im state.Immutable, addr codec.Address) ([]byte, bool, error) {
	raw, ok, err := state.Get(ctx, im, state.PoolKey(addr))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrPoolNotFound, addr)
	}
	if len(raw) == 0 {
		return nil, false, ErrEmptyRecord
	}
	if version := raw[0]; version != RecordVersion {
		raw, err = Migrate(raw[1:], version)
		if err != nil {
			return nil, false, err
		}
		return raw, true, nil
	}
	return raw, false, nil
}

func decode(raw []byte, addr codec.Address) (*Pool, error) {
	p, err := Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	p.Address = addr
	return p, nil
}

// HasPool reports whether a record exists at [addr].
func HasPool(ctx context.Context, im state.Immutable, addr codec.Address) (bool, error) {
	_, ok, err := state.Get(ctx, im, state.PoolKey(addr))
	return ok, err
}

func SetPool(ctx context.Context, mu state.Mutable, p *Pool) error {
	b, err := Marshal(p)
	if err != nil {
		return err
	}
	return mu.Insert(ctx, state.PoolKey(p.Address), b)
}
