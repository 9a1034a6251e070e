// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router builds multi-pool swap routes off-chain.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/neilotoole/errgroup"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/hyperamm/actions"
	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/pricing"
)

const bpsDenominator = 10_000

var (
	ErrNoPath          = errors.New("no path between tokens")
	ErrEmptyPath       = errors.New("empty path")
	ErrBrokenPath      = errors.New("path hops do not connect")
	ErrInvalidSlippage = errors.New("slippage must be below 10000 bps")
	ErrInvalidMaxHops  = errors.New("invalid max hops")
	ErrZeroAmount      = errors.New("zero amount")
)

// Quoter prices swaps without changing pool state.
type Quoter interface {
	Tokens(ctx context.Context, pool codec.Address) ([]codec.Address, error)
	ExpectedExchange(
		ctx context.Context,
		pool codec.Address,
		amount *uint256.Int,
		tokenIn codec.Address,
		tokenOut codec.Address,
	) (*pricing.ExchangeResult, error)
}

type Config struct {
	// SlippageBps lowers the expected output of every step.
	SlippageBps uint64 `json:"slippageBps" yaml:"slippageBps"`
	MaxHops     int    `json:"maxHops"     yaml:"maxHops"`
	// Concurrency bounds the number of paths simulated at once by
	// [Builder.Best].
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

func NewDefaultConfig() Config {
	return Config{
		SlippageBps: 50,
		MaxHops:     3,
		Concurrency: 4,
	}
}

func (c Config) Verify() error {
	if c.SlippageBps >= bpsDenominator {
		return fmt.Errorf("%w: %d", ErrInvalidSlippage, c.SlippageBps)
	}
	if c.MaxHops < 1 || c.MaxHops > consts.MaxRouteSteps+1 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxHops, c.MaxHops)
	}
	return nil
}

// Hop swaps [TokenIn] for [TokenOut] in [Pool].
type Hop struct {
	Pool     codec.Address `json:"pool"`
	TokenIn  codec.Address `json:"tokenIn"`
	TokenOut codec.Address `json:"tokenOut"`
}

type Path []Hop

// Route is a simulated path ready to be sent to its first pool.
type Route struct {
	Path      Path           `json:"path"`
	Steps     []actions.Step `json:"steps"`
	AmountIn  *uint256.Int   `json:"amountIn"`
	AmountOut *uint256.Int   `json:"amountOut"`
	// MinOut is the output of the last step after slippage.
	MinOut *uint256.Int   `json:"minOut"`
	Fees   []*uint256.Int `json:"fees"`
}

// Pool returns the pool the route must be sent to.
func (r *Route) Pool() codec.Address {
	return r.Steps[0].Pool
}

// Payload encodes the route as the payload of a transfer to [Route.Pool].
func (r *Route) Payload(callID uint64, recipient, referrer codec.Address) ([]byte, error) {
	return actions.BuildCrossPoolPayload(callID, r.Steps, recipient, referrer)
}

// Graph is the token graph of a fixed set of pools.
type Graph struct {
	pools  []codec.Address
	tokens map[codec.Address][]codec.Address
}

// NewGraph loads the tokens of every pool in [pools].
func NewGraph(ctx context.Context, q Quoter, pools []codec.Address) (*Graph, error) {
	g := &Graph{
		pools:  slices.Clone(pools),
		tokens: make(map[codec.Address][]codec.Address, len(pools)),
	}
	for _, pool := range pools {
		tokens, err := q.Tokens(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("%w: loading %s", err, pool)
		}
		g.tokens[pool] = tokens
	}
	return g, nil
}

// Tokens returns the tokens held by [pool].
func (g *Graph) Tokens(pool codec.Address) []codec.Address {
	return g.tokens[pool]
}

// Paths returns every path from [from] to [to] of at most [maxHops] hops
// that visits no pool and no token twice. Shorter paths come first.
func (g *Graph) Paths(from, to codec.Address, maxHops int) []Path {
	var (
		paths   []Path
		current Path
		seen    = map[codec.Address]bool{from: true}
		used    = map[codec.Address]bool{}
	)
	var walk func(at codec.Address)
	walk = func(at codec.Address) {
		if len(current) == maxHops {
			return
		}
		for _, pool := range g.pools {
			if used[pool] || !slices.Contains(g.tokens[pool], at) {
				continue
			}
			for _, next := range g.tokens[pool] {
				if next == at || seen[next] {
					continue
				}
				current = append(current, Hop{Pool: pool, TokenIn: at, TokenOut: next})
				if next == to {
					paths = append(paths, slices.Clone(current))
				} else {
					used[pool], seen[next] = true, true
					walk(next)
					used[pool], seen[next] = false, false
				}
				current = current[:len(current)-1]
			}
		}
	}
	walk(from)
	slices.SortStableFunc(paths, func(a, b Path) int {
		return len(a) - len(b)
	})
	return paths
}

type Builder struct {
	quoter Quoter
	config Config
}

func NewBuilder(q Quoter, config Config) (*Builder, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	return &Builder{quoter: q, config: config}, nil
}

// Build simulates [amountIn] along [path]. Each hop is priced with the
// simulated output of the previous one.
func (b *Builder) Build(ctx context.Context, path Path, amountIn *uint256.Int) (*Route, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	if amountIn == nil || amountIn.IsZero() {
		return nil, ErrZeroAmount
	}
	r := &Route{
		Path:     path,
		Steps:    make([]actions.Step, len(path)),
		AmountIn: amountIn.Clone(),
		Fees:     make([]*uint256.Int, len(path)),
	}
	amount := amountIn
	for i, hop := range path {
		if i > 0 && path[i-1].TokenOut != hop.TokenIn {
			return nil, fmt.Errorf("%w: hop %d", ErrBrokenPath, i)
		}
		tokens, err := b.quoter.Tokens(ctx, hop.Pool)
		if err != nil {
			return nil, err
		}
		res, err := b.quoter.ExpectedExchange(ctx, hop.Pool, amount, hop.TokenIn, hop.TokenOut)
		if err != nil {
			return nil, fmt.Errorf("%w: hop %d through %s", err, i, hop.Pool)
		}
		r.Steps[i] = actions.Step{
			Pool:           hop.Pool,
			Tokens:         tokens,
			OutToken:       hop.TokenOut,
			ExpectedAmount: b.withSlippage(res.AmountOut),
		}
		r.Fees[i] = res.Fee.Total
		amount = res.AmountOut
	}
	r.AmountOut = amount.Clone()
	r.MinOut = r.Steps[len(r.Steps)-1].ExpectedAmount.Clone()
	return r, nil
}

// withSlippage returns floor(amount*(10000-bps)/10000).
func (b *Builder) withSlippage(amount *uint256.Int) *uint256.Int {
	out, _ := new(uint256.Int).MulDivOverflow(
		amount,
		uint256.NewInt(bpsDenominator-b.config.SlippageBps),
		uint256.NewInt(bpsDenominator),
	)
	return out
}

// Best simulates every path from [from] to [to] in [g] and returns the one
// with the largest output. Paths that cannot be priced are skipped.
func (b *Builder) Best(
	ctx context.Context,
	g *Graph,
	from codec.Address,
	to codec.Address,
	amountIn *uint256.Int,
) (*Route, error) {
	paths := g.Paths(from, to, b.config.MaxHops)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoPath, from, to)
	}
	var (
		lock   sync.Mutex
		routes = make([]*Route, len(paths))
		last   error
	)
	eg, egCtx := errgroup.WithContextN(ctx, b.config.Concurrency, len(paths))
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			r, err := b.Build(egCtx, path, amountIn)
			if err != nil {
				lock.Lock()
				last = err
				lock.Unlock()
				return nil
			}
			routes[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var best *Route
	for _, r := range routes {
		if r != nil && (best == nil || r.AmountOut.Gt(best.AmountOut)) {
			best = r
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no path could be priced: %w", ErrNoPath, last)
	}
	return best, nil
}
