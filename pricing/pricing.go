// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pricing

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/fees"
)

// Kind identifies a pricing model.
type Kind uint8

// IDs for pricing models
const (
	InvalidModelID Kind = iota
	ConstantProductID
	StableswapID
)

func (k Kind) String() string {
	switch k {
	case ConstantProductID:
		return "pair"
	case StableswapID:
		return "stable"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "pair":
		return ConstantProductID, nil
	case "stable":
		return StableswapID, nil
	default:
		return InvalidModelID, fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
}

// State is the pool snapshot a model prices against. Models never mutate
// it: every result carries the reserves and supply that applying the
// operation would produce.
type State struct {
	Tokens   []codec.Address
	Reserves []*uint256.Int
	LPSupply *uint256.Int
	Fees     *fees.Params

	// Decimals and Amp are only used by the stableswap model.
	Decimals []uint8
	Amp      uint64
}

// Index returns the position of [token] in the pool.
func (s *State) Index(token codec.Address) (int, bool) {
	for i, t := range s.Tokens {
		if t == token {
			return i, true
		}
	}
	return -1, false
}

func (s *State) verify() error {
	if len(s.Tokens) < 2 || len(s.Tokens) > consts.MaxPoolTokens || len(s.Reserves) != len(s.Tokens) {
		return ErrInvalidTokens
	}
	if s.Fees == nil {
		return ErrMissingFees
	}
	return s.Fees.Verify()
}

// ExchangeResult describes a swap of AmountIn of Tokens[In] for AmountOut
// of Tokens[Out]. Fee is charged in Tokens[In].
type ExchangeResult struct {
	In        int          `json:"in"`
	Out       int          `json:"out"`
	AmountIn  *uint256.Int `json:"amountIn"`
	AmountOut *uint256.Int `json:"amountOut"`
	Fee       fees.Split   `json:"fee"`

	Reserves []*uint256.Int `json:"reserves"`
}

// DepositResult describes a liquidity deposit. Amounts[i]+Change[i] is what
// was offered in Tokens[i]. Fees[i] is charged in Tokens[i].
type DepositResult struct {
	Amounts []*uint256.Int `json:"amounts"`
	Change  []*uint256.Int `json:"change"`
	LP      *uint256.Int   `json:"lp"`
	Fees    []fees.Split   `json:"fees"`

	// Pair auto-change breakdown.
	Step1LP *uint256.Int    `json:"step1LP"`
	Step2   *ExchangeResult `json:"step2,omitempty"`
	Step3LP *uint256.Int    `json:"step3LP"`

	Reserves []*uint256.Int `json:"reserves"`
	LPSupply *uint256.Int   `json:"lpSupply"`
}

// WithdrawResult describes burning LP for Amounts of each token.
type WithdrawResult struct {
	LP      *uint256.Int   `json:"lp"`
	Amounts []*uint256.Int `json:"amounts"`
	Fees    []fees.Split   `json:"fees"`

	Reserves []*uint256.Int `json:"reserves"`
	LPSupply *uint256.Int   `json:"lpSupply"`
}

// Model prices the operations of a pool. [referrer] reports whether the
// operation names a referrer; without one the referrer share of every fee
// stays in the pool.
type Model interface {
	Kind() Kind

	ExpectedExchange(in, out int, amount *uint256.Int, referrer bool) (*ExchangeResult, error)
	ExpectedSpend(in, out int, amountOut *uint256.Int, referrer bool) (*ExchangeResult, error)
	ExpectedDeposit(amounts []*uint256.Int, autoChange bool, referrer bool) (*DepositResult, error)
	ExpectedWithdraw(lp *uint256.Int) (*WithdrawResult, error)
	ExpectedWithdrawOne(lp *uint256.Int, out int, referrer bool) (*WithdrawResult, error)
}

type NewModel func(*State) (Model, error)

var Models map[Kind]NewModel

func init() {
	Models = make(map[Kind]NewModel)

	// Append any additional pricing models here
	Models[ConstantProductID] = NewConstantProduct
	Models[StableswapID] = NewStableswap
}

// New returns the [kind] model over [st].
func New(kind Kind, st *State) (Model, error) {
	f, ok := Models[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownModel, kind)
	}
	return f(st)
}

func (s *State) fee(amount *uint256.Int, referrer bool) fees.Split {
	split := fees.Compute(amount, s.Fees)
	if !referrer {
		return split.WithoutReferrer()
	}
	return split
}

func checkPair(in, out, n int) error {
	if in < 0 || out < 0 || in >= n || out >= n || in == out {
		return ErrInvalidIndex
	}
	return nil
}
