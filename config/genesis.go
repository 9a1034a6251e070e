// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pool"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/utils"
)

// NativeDecimals is the precision native value amounts are written with.
const NativeDecimals = 9

// Genesis describes the tokens, balances and pools created on first boot.
// Addresses are bech32 strings; tokens are referred to by symbol and
// amounts are decimal strings in whole token units.
type Genesis struct {
	// Minter owns every genesis token.
	Minter string `json:"minter" yaml:"minter"`

	// Native allocates the native value token.
	Native map[string]string `json:"native" yaml:"native"`

	Tokens []Token `json:"tokens" yaml:"tokens"`
	Pools  []Pool  `json:"pools"  yaml:"pools"`
}

type Token struct {
	Symbol      string            `json:"symbol"      yaml:"symbol"`
	Name        string            `json:"name"        yaml:"name"`
	Decimals    uint8             `json:"decimals"    yaml:"decimals"`
	Allocations map[string]string `json:"allocations" yaml:"allocations"`
}

type Fees struct {
	Denominator          uint64            `json:"denominator"          yaml:"denominator"`
	PoolNumerator        uint64            `json:"poolNumerator"        yaml:"poolNumerator"`
	BeneficiaryNumerator uint64            `json:"beneficiaryNumerator" yaml:"beneficiaryNumerator"`
	ReferrerNumerator    uint64            `json:"referrerNumerator"    yaml:"referrerNumerator"`
	Beneficiary          string            `json:"beneficiary"          yaml:"beneficiary"`
	Threshold            map[string]string `json:"threshold"            yaml:"threshold"`
	ReferrerThreshold    map[string]string `json:"referrerThreshold"    yaml:"referrerThreshold"`
}

type Pool struct {
	Kind   string   `json:"kind"   yaml:"kind"`
	Admin  string   `json:"admin"  yaml:"admin"`
	Tokens []string `json:"tokens" yaml:"tokens"`
	Amp    uint64   `json:"amp"    yaml:"amp"`
	Salt   uint64   `json:"salt"   yaml:"salt"`
	Fees   Fees     `json:"fees"   yaml:"fees"`
}

// Allocation is a balance credited at genesis.
type Allocation struct {
	To     codec.Address
	Amount *uint256.Int
}

// GenesisToken is a resolved [Token].
type GenesisToken struct {
	Address     codec.Address
	Info        *token.Info
	Allocations []Allocation
}

// ParsedGenesis is [Genesis] with every address, symbol and amount
// resolved.
type ParsedGenesis struct {
	Minter codec.Address
	Native []Allocation
	Tokens []GenesisToken
	Pools  []*pool.Definition
}

func ParseAddress(s string) (codec.Address, error) {
	addr, err := codec.ParseAddressBech32(consts.HRP, s)
	if err != nil {
		return codec.EmptyAddress, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	return addr, nil
}

// Parse resolves [g].
func (g *Genesis) Parse() (*ParsedGenesis, error) {
	p := &ParsedGenesis{}
	if len(g.Tokens) > 0 || len(g.Pools) > 0 {
		minter, err := ParseAddress(g.Minter)
		if err != nil {
			return nil, fmt.Errorf("minter: %w", err)
		}
		p.Minter = minter
	}
	native, err := allocations(g.Native, NativeDecimals)
	if err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}
	p.Native = native

	var (
		symbols  = make(map[string]codec.Address, len(g.Tokens))
		decimals = make(map[string]uint8, len(g.Tokens))
	)
	for _, t := range g.Tokens {
		if _, ok := symbols[t.Symbol]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSymbol, t.Symbol)
		}
		name := t.Name
		if len(name) == 0 {
			name = t.Symbol
		}
		info := &token.Info{
			Name:     name,
			Symbol:   t.Symbol,
			Decimals: t.Decimals,
			Owner:    p.Minter,
		}
		if err := info.Verify(); err != nil {
			return nil, fmt.Errorf("token %s: %w", t.Symbol, err)
		}
		allocs, err := allocations(t.Allocations, t.Decimals)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", t.Symbol, err)
		}
		addr := token.Address(p.Minter, t.Symbol)
		symbols[t.Symbol] = addr
		decimals[t.Symbol] = t.Decimals
		p.Tokens = append(p.Tokens, GenesisToken{Address: addr, Info: info, Allocations: allocs})
	}

	for i, cp := range g.Pools {
		def, err := cp.definition(symbols, decimals)
		if err != nil {
			return nil, fmt.Errorf("pool %d: %w", i, err)
		}
		p.Pools = append(p.Pools, def)
	}
	return p, nil
}

func (cp *Pool) definition(symbols map[string]codec.Address, decimals map[string]uint8) (*pool.Definition, error) {
	kind, err := pricing.ParseKind(cp.Kind)
	if err != nil {
		return nil, err
	}
	admin, err := ParseAddress(cp.Admin)
	if err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	tokens := make([]codec.Address, len(cp.Tokens))
	for i, s := range cp.Tokens {
		addr, ok := symbols[s]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, s)
		}
		tokens[i] = addr
	}
	params := &fees.Params{
		Denominator:          cp.Fees.Denominator,
		PoolNumerator:        cp.Fees.PoolNumerator,
		BeneficiaryNumerator: cp.Fees.BeneficiaryNumerator,
		ReferrerNumerator:    cp.Fees.ReferrerNumerator,
	}
	if len(cp.Fees.Beneficiary) > 0 {
		if params.Beneficiary, err = ParseAddress(cp.Fees.Beneficiary); err != nil {
			return nil, fmt.Errorf("beneficiary: %w", err)
		}
	}
	if params.Threshold, err = thresholds(cp.Fees.Threshold, symbols, decimals); err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	if params.ReferrerThreshold, err = thresholds(cp.Fees.ReferrerThreshold, symbols, decimals); err != nil {
		return nil, fmt.Errorf("referrerThreshold: %w", err)
	}
	def := &pool.Definition{
		Kind:   kind,
		Admin:  admin,
		Tokens: tokens,
		Amp:    cp.Amp,
		Fees:   params,
		Salt:   cp.Salt,
	}
	if kind == pricing.StableswapID {
		def.Decimals = make([]uint8, len(cp.Tokens))
		for i, s := range cp.Tokens {
			def.Decimals[i] = decimals[s]
		}
	}
	if err := def.Verify(); err != nil {
		return nil, err
	}
	return def, nil
}

func allocations(m map[string]string, decimals uint8) ([]Allocation, error) {
	owners := maps.Keys(m)
	slices.Sort(owners)
	out := make([]Allocation, 0, len(m))
	for _, owner := range owners {
		to, err := ParseAddress(owner)
		if err != nil {
			return nil, err
		}
		amount, err := utils.ParseAmount(m[owner], decimals)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAmount, owner, err)
		}
		out = append(out, Allocation{To: to, Amount: amount})
	}
	return out, nil
}

func thresholds(
	m map[string]string,
	symbols map[string]codec.Address,
	decimals map[string]uint8,
) (map[codec.Address]*uint256.Int, error) {
	out := make(map[codec.Address]*uint256.Int, len(m))
	for s, v := range m {
		addr, ok := symbols[s]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, s)
		}
		amount, err := utils.ParseAmount(v, decimals[s])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAmount, s, err)
		}
		out[addr] = amount
	}
	return out, nil
}
