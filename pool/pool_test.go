// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperamm/actions"
	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/event"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/testvm"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/vm"
)

const (
	testFee   = 10
	testValue = 1_000
)

var testGas = Gas{Swap: 100, Deposit: 200, Withdraw: 200, Call: 50}

type fixture struct {
	*testvm.Env

	metrics *Metrics
	querier *Querier
	admin   codec.Address
	ben     codec.Address
	foo     codec.Address
	bar     codec.Address
	tst     codec.Address
}

func newFixture(t *testing.T) *fixture {
	env := testvm.New(t, testFee)
	_, metrics, err := NewMetrics()
	require.NoError(t, err)
	return &fixture{
		Env:     env,
		metrics: metrics,
		querier: NewQuerier(env.VM),
		admin:   testvm.User(),
		ben:     testvm.User(),
		foo:     env.Token("FOO", 9),
		bar:     env.Token("BAR", 9),
		tst:     env.Token("TST", 9),
	}
}

// params charges 0.6%: 0.3% pool, 0.2% beneficiary, 0.1% referrer.
func (f *fixture) params() *fees.Params {
	return &fees.Params{
		Denominator:          1_000,
		PoolNumerator:        3,
		BeneficiaryNumerator: 2,
		ReferrerNumerator:    1,
		Beneficiary:          f.ben,
	}
}

func (f *fixture) deploy(t *testing.T, def *Definition) *Pool {
	if def.Admin == codec.EmptyAddress {
		def.Admin = f.admin
	}
	if def.Fees == nil {
		def.Fees = f.params()
	}
	p, err := Deploy(context.Background(), f.VM, def, testGas, f.metrics)
	require.NoError(t, err)
	return p
}

func (f *fixture) pair(t *testing.T, a, b codec.Address) *Pool {
	return f.deploy(t, &Definition{Kind: pricing.ConstantProductID, Tokens: []codec.Address{a, b}})
}

// user returns a funded user.
func (f *fixture) user(tokens ...codec.Address) codec.Address {
	u := testvm.User()
	f.Fund(vm.NativeToken, u, 1_000_000)
	for _, tok := range tokens {
		f.Fund(tok, u, 100_000_000)
	}
	return u
}

func (f *fixture) deposit(t *testing.T, from, pool codec.Address, autoChange bool, assets ...token.Amount) {
	payload, err := actions.BuildDepositPayload(1, autoChange, nil, codec.EmptyAddress, codec.EmptyAddress)
	require.NoError(t, err)
	f.Send(from, pool, testValue, assets, payload)
}

func (f *fixture) swap(
	t *testing.T,
	from codec.Address,
	pool codec.Address,
	in token.Amount,
	out codec.Address,
	referrer codec.Address,
) {
	payload, err := actions.BuildSwapPayload(2, out, nil, codec.EmptyAddress, referrer)
	require.NoError(t, err)
	f.Send(from, pool, testValue, []token.Amount{in}, payload)
}

func (f *fixture) balances(t *testing.T, pool codec.Address) *Balances {
	b, err := f.querier.Balances(context.Background(), pool)
	require.NoError(t, err)
	require.Equal(t, b.LPSupply, b.LPTotalSupply)
	return b
}

func (f *fixture) reserves(t *testing.T, pool codec.Address) []uint64 {
	b := f.balances(t, pool)
	out := make([]uint64, len(b.Reserves))
	for i, r := range b.Reserves {
		out[i] = r.Amount.Uint64()
	}
	return out
}

func (f *fixture) held(t *testing.T, pool, tok codec.Address) uint64 {
	acc, err := f.querier.AccumulatedFees(context.Background(), pool)
	require.NoError(t, err)
	e, ok := acc[tok]
	if !ok {
		return 0
	}
	return e.Beneficiary.Uint64()
}

func (f *fixture) lastEvent(t *testing.T, pool codec.Address, kind event.Kind) *event.Event {
	e, ok := f.Recorder.Last(pool, kind)
	require.True(t, ok, "no %s event", kind)
	return e
}

func u64(t *testing.T, v *uint256.Int) uint64 {
	require.True(t, v.IsUint64())
	return v.Uint64()
}

func TestInitialDeposit(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Start()

	lp := f.user(f.foo, f.bar)
	f.deposit(t, lp, p.Address(), false, testvm.Amount(f.foo, 1_000), testvm.Amount(f.bar, 2_000))

	require.Equal([]uint64{1_000, 2_000}, f.reserves(t, p.Address()))
	lpToken := token.LPAddress(p.Address())
	require.Equal(uint64(1_414), u64(t, f.Balance(lpToken, lp)))
	require.Equal(uint64(1_414), u64(t, f.Supply(lpToken)))
	// value left after the pool keeps its gas and two deliveries
	require.Equal(uint64(1_000_000-testValue+testValue-2*testFee-testGas.Deposit), u64(t, f.Balance(vm.NativeToken, lp)))
	require.Equal(testGas.Deposit, u64(t, f.Balance(vm.NativeToken, p.Address())))

	e := f.lastEvent(t, p.Address(), event.DepositLiquidity)
	require.Equal(uint64(1), e.CallID)
	require.Equal(lp, e.Recipient)
}

// 100 FOO into (1000 FOO, 2000 BAR) at 0.6% pays out 180 BAR.
func TestSwapConstantProduct(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 1_000), testvm.Amount(f.bar, 2_000))

	expected, err := f.querier.ExpectedExchange(context.Background(), p.Address(), uint256.NewInt(100), f.foo, f.bar)
	require.NoError(err)
	// fee = ceil(100*6/1000) = 1, out = floor(2000*99/1099)
	require.Equal(uint64(1), u64(t, expected.Fee.Total))
	require.Equal(uint64(180), u64(t, expected.AmountOut))

	trader := f.user(f.foo)
	f.swap(t, trader, p.Address(), testvm.Amount(f.foo, 100), f.bar, codec.EmptyAddress)

	require.Equal(uint64(180), u64(t, f.Balance(f.bar, trader)))
	require.Equal(uint64(100_000_000-100), u64(t, f.Balance(f.foo, trader)))
	// without a referrer the whole fee stays in the reserve
	require.Equal([]uint64{1_100, 1_820}, f.reserves(t, p.Address()))
	require.Zero(f.held(t, p.Address(), f.foo))

	e := f.lastEvent(t, p.Address(), event.Exchange)
	require.Equal(uint64(2), e.CallID)
	require.Equal(trader, e.Sender)
	require.Equal(uint64(180), u64(t, e.Out[0].Amount))
}

func TestSwapFeeSplit(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 1_000_000), testvm.Amount(f.bar, 2_000_000))

	trader, referrer := f.user(f.foo), testvm.User()
	f.swap(t, trader, p.Address(), testvm.Amount(f.foo, 100_000), f.bar, referrer)

	// total 600: pool 300, beneficiary 200, referrer 100
	require.Equal(uint64(180_825), u64(t, f.Balance(f.bar, trader)))
	require.Equal([]uint64{1_000_000 + 100_000 - 300, 2_000_000 - 180_825}, f.reserves(t, p.Address()))
	require.Equal(uint64(200), f.held(t, p.Address(), f.foo))
	// no referrer threshold: paid at once
	require.Equal(uint64(100), u64(t, f.Balance(f.foo, referrer)))
	require.Zero(u64(t, f.Balance(f.foo, f.ben)))

	// the pool wallet holds the reserves plus the ledger
	require.Equal(uint64(1_099_700+200), u64(t, f.Balance(f.foo, p.Address())))
	f.lastEvent(t, p.Address(), event.FeesPaid)
}

// Beneficiary fees accumulate until the threshold is reached.
func TestBeneficiaryThreshold(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	params := f.params()
	params.Threshold = map[codec.Address]*uint256.Int{f.foo: uint256.NewInt(500)}
	p := f.deploy(t, &Definition{Kind: pricing.ConstantProductID, Tokens: []codec.Address{f.foo, f.bar}, Fees: params})
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 10_000_000), testvm.Amount(f.bar, 10_000_000))

	trader := f.user(f.foo)
	f.swap(t, trader, p.Address(), testvm.Amount(f.foo, 100_000), f.bar, codec.EmptyAddress)
	require.Equal(uint64(200), f.held(t, p.Address(), f.foo))
	f.swap(t, trader, p.Address(), testvm.Amount(f.foo, 100_000), f.bar, codec.EmptyAddress)
	require.Equal(uint64(400), f.held(t, p.Address(), f.foo))
	require.Zero(u64(t, f.Balance(f.foo, f.ben)))

	f.swap(t, trader, p.Address(), testvm.Amount(f.foo, 100_000), f.bar, codec.EmptyAddress)
	require.Zero(f.held(t, p.Address(), f.foo))
	require.Equal(uint64(600), u64(t, f.Balance(f.foo, f.ben)))
}

func TestWithdrawBeneficiaryFee(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 10_000_000), testvm.Amount(f.bar, 10_000_000))
	trader := f.user(f.foo, f.bar)
	f.swap(t, trader, p.Address(), testvm.Amount(f.foo, 100_000), f.bar, codec.EmptyAddress)
	f.swap(t, trader, p.Address(), testvm.Amount(f.bar, 50_000), f.foo, codec.EmptyAddress)
	require.Equal(uint64(200), f.held(t, p.Address(), f.foo))
	require.Equal(uint64(100), f.held(t, p.Address(), f.bar))

	payload, err := actions.Marshal(&actions.WithdrawBeneficiaryFee{CallID: 9})
	require.NoError(err)

	// only the beneficiary may flush
	f.Fund(vm.NativeToken, f.ben, testValue)
	f.Send(trader, p.Address(), testValue, nil, payload)
	require.Equal(uint64(200), f.held(t, p.Address(), f.foo))
	require.Equal(actions.ReasonUnauthorized.String(), f.lastEvent(t, p.Address(), event.Cancelled).Reason)

	f.Send(f.ben, p.Address(), testValue, nil, payload)
	require.Zero(f.held(t, p.Address(), f.foo))
	require.Zero(f.held(t, p.Address(), f.bar))
	require.Equal(uint64(200), u64(t, f.Balance(f.foo, f.ben)))
	require.Equal(uint64(100), u64(t, f.Balance(f.bar, f.ben)))
}

func TestWithdrawReferrerFee(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	params := f.params()
	params.ReferrerThreshold = map[codec.Address]*uint256.Int{f.foo: uint256.NewInt(1_000)}
	p := f.deploy(t, &Definition{Kind: pricing.ConstantProductID, Tokens: []codec.Address{f.foo, f.bar}, Fees: params})
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 10_000_000), testvm.Amount(f.bar, 10_000_000))

	trader, referrer := f.user(f.foo), f.user()
	f.swap(t, trader, p.Address(), testvm.Amount(f.foo, 100_000), f.bar, referrer)
	require.Zero(u64(t, f.Balance(f.foo, referrer)))

	acc, err := f.querier.AccumulatedFees(context.Background(), p.Address())
	require.NoError(err)
	require.Equal(uint64(100), u64(t, acc[f.foo].Referrers[referrer]))

	payload, err := actions.Marshal(&actions.WithdrawReferrerFee{CallID: 4})
	require.NoError(err)
	f.Send(referrer, p.Address(), testValue, nil, payload)
	require.Equal(uint64(100), u64(t, f.Balance(f.foo, referrer)))

	acc, err = f.querier.AccumulatedFees(context.Background(), p.Address())
	require.NoError(err)
	require.Empty(acc[f.foo].Referrers)
}

// The auto-change swap of a deposit pays the beneficiary.
func TestDepositAutoChangeFee(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 1_000_000), testvm.Amount(f.bar, 2_000_000))

	assets := []token.Amount{testvm.Amount(f.foo, 9_000), testvm.Amount(f.bar, 1_000)}
	expected, err := f.querier.ExpectedDeposit(context.Background(), p.Address(), assets, true)
	require.NoError(err)
	require.NotNil(expected.Step2)
	benFee := fees.Compute(expected.Step2.AmountIn, f.params()).Beneficiary
	require.False(benFee.IsZero())
	require.Equal(benFee, expected.Step2.Fee.Beneficiary)

	before := f.held(t, p.Address(), f.foo)
	depositor := f.user(f.foo, f.bar)
	f.deposit(t, depositor, p.Address(), true, assets...)

	require.Equal(before+benFee.Uint64(), f.held(t, p.Address(), f.foo))
	lpToken := token.LPAddress(p.Address())
	require.Equal(expected.LP, f.Balance(lpToken, depositor))

	e := f.lastEvent(t, p.Address(), event.DepositLiquidity)
	require.Equal(expected.LP, e.LP)
	f.balances(t, p.Address())
}

func TestDepositSlippageRefund(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 1_000), testvm.Amount(f.bar, 2_000))

	payload, err := actions.BuildDepositPayload(5, false, uint256.NewInt(1_000_000), codec.EmptyAddress, codec.EmptyAddress)
	require.NoError(err)
	depositor := f.user(f.foo, f.bar)
	f.Send(depositor, p.Address(), testValue, []token.Amount{testvm.Amount(f.foo, 100), testvm.Amount(f.bar, 200)}, payload)

	require.Equal(uint64(100_000_000), u64(t, f.Balance(f.foo, depositor)))
	require.Equal(uint64(100_000_000), u64(t, f.Balance(f.bar, depositor)))
	require.Equal([]uint64{1_000, 2_000}, f.reserves(t, p.Address()))
	e := f.lastEvent(t, p.Address(), event.Cancelled)
	require.Equal(uint64(5), e.CallID)
	require.Equal(actions.ReasonWrongRate.String(), e.Reason)
}

func TestSwapRefunds(t *testing.T) {
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 1_000), testvm.Amount(f.bar, 2_000))

	tests := []struct {
		name   string
		assets []token.Amount
		out    codec.Address
		expect uint64
		value  uint64
		reason actions.Reason
	}{
		{
			name:   "wrong rate",
			assets: []token.Amount{testvm.Amount(f.foo, 100)},
			out:    f.bar,
			expect: 181,
			value:  testValue,
			reason: actions.ReasonWrongRate,
		},
		{
			name:   "low gas",
			assets: []token.Amount{testvm.Amount(f.foo, 100)},
			out:    f.bar,
			value:  testGas.Swap,
			reason: actions.ReasonLowGas,
		},
		{
			name:   "unknown token",
			assets: []token.Amount{testvm.Amount(f.tst, 100)},
			out:    f.bar,
			value:  testValue,
			reason: actions.ReasonUnknownToken,
		},
		{
			name:   "same token",
			assets: []token.Amount{testvm.Amount(f.foo, 100)},
			out:    f.foo,
			value:  testValue,
			reason: actions.ReasonUnknownToken,
		},
		{
			name:   "two assets",
			assets: []token.Amount{testvm.Amount(f.foo, 100), testvm.Amount(f.bar, 100)},
			out:    f.bar,
			value:  testValue,
			reason: actions.ReasonInvalidAmounts,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			trader := f.user(f.foo, f.bar, f.tst)
			payload, err := actions.BuildSwapPayload(7, tt.out, uint256.NewInt(tt.expect), codec.EmptyAddress, codec.EmptyAddress)
			require.NoError(err)
			f.Send(trader, p.Address(), tt.value, tt.assets, payload)

			for _, tok := range []codec.Address{f.foo, f.bar, f.tst} {
				require.Equal(uint64(100_000_000), u64(t, f.Balance(tok, trader)))
			}
			// the refund costs a second delivery
			require.Equal(uint64(1_000_000-2*testFee), u64(t, f.Balance(vm.NativeToken, trader)))
			e := f.lastEvent(t, p.Address(), event.Cancelled)
			require.Equal(tt.reason.String(), e.Reason)
			require.Equal(trader, e.Sender)
		})
	}
	require.Equal(t, []uint64{1_000, 2_000}, f.reserves(t, p.Address()))
}

func TestInactivePool(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Fund(vm.NativeToken, f.admin, 1_000_000)
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 1_000), testvm.Amount(f.bar, 2_000))

	payload, err := actions.Marshal(&actions.SetActive{CallID: 3, Active: false})
	require.NoError(err)
	stranger := f.user()
	f.Send(stranger, p.Address(), testValue, nil, payload)
	d, err := f.querier.Details(context.Background(), p.Address())
	require.NoError(err)
	require.True(d.Active)

	f.Send(f.admin, p.Address(), testValue, nil, payload)
	d, err = f.querier.Details(context.Background(), p.Address())
	require.NoError(err)
	require.False(d.Active)
	require.Equal("inactive", f.lastEvent(t, p.Address(), event.ActiveChanged).Reason)

	trader := f.user(f.foo)
	f.swap(t, trader, p.Address(), testvm.Amount(f.foo, 100), f.bar, codec.EmptyAddress)
	require.Equal(uint64(100_000_000), u64(t, f.Balance(f.foo, trader)))
	require.Equal(actions.ReasonInactive.String(), f.lastEvent(t, p.Address(), event.Cancelled).Reason)
	require.Equal([]uint64{1_000, 2_000}, f.reserves(t, p.Address()))
}

func TestSetFeeParams(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Fund(vm.NativeToken, f.admin, 1_000_000)
	f.Start()

	next := f.params()
	next.PoolNumerator = 10
	payload, err := actions.Marshal(&actions.SetFeeParams{CallID: 1, Params: next})
	require.NoError(err)
	f.Send(f.admin, p.Address(), testValue, nil, payload)

	got, err := f.querier.FeeParams(context.Background(), p.Address())
	require.NoError(err)
	require.Equal(uint64(10), got.PoolNumerator)
	f.lastEvent(t, p.Address(), event.FeeParamsUpdated)
	// the unused call value comes back
	require.Equal(uint64(1_000_000-testGas.Call-2*testFee), u64(t, f.Balance(vm.NativeToken, f.admin)))
}

func TestMalformedPayloadIsKept(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 1_000), testvm.Amount(f.bar, 2_000))

	donor := f.user(f.foo)
	f.Send(donor, p.Address(), testValue, []token.Amount{testvm.Amount(f.foo, 50)}, []byte{0xff, 0x01})
	f.Send(donor, p.Address(), testValue, []token.Amount{testvm.Amount(f.foo, 50)}, nil)

	require.Equal(uint64(1_100), u64(t, f.Balance(f.foo, p.Address())))
	require.Equal([]uint64{1_000, 2_000}, f.reserves(t, p.Address()))
	require.Equal(uint64(100_000_000-100), u64(t, f.Balance(f.foo, donor)))
	f.lastEvent(t, p.Address(), event.Donation)
}

func TestWithdrawLiquidity(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)
	f.Start()
	provider := f.user(f.foo, f.bar)
	f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 1_000), testvm.Amount(f.bar, 2_000))
	lpToken := token.LPAddress(p.Address())

	payload, err := actions.BuildWithdrawPayload(8, nil, codec.EmptyAddress, codec.EmptyAddress)
	require.NoError(err)
	f.Send(provider, p.Address(), testValue, []token.Amount{testvm.Amount(lpToken, 707)}, payload)

	// floor(1000*707/1414), floor(2000*707/1414)
	require.Equal([]uint64{500, 1_000}, f.reserves(t, p.Address()))
	require.Equal(uint64(707), u64(t, f.Balance(lpToken, provider)))
	require.Equal(uint64(707), u64(t, f.Supply(lpToken)))
	require.Equal(uint64(100_000_000-500), u64(t, f.Balance(f.foo, provider)))

	// wrong token is refunded
	f.Send(provider, p.Address(), testValue, []token.Amount{testvm.Amount(f.foo, 10)}, payload)
	require.Equal(actions.ReasonInvalidAmounts.String(), f.lastEvent(t, p.Address(), event.Cancelled).Reason)

	// too much expected is refunded
	payload, err = actions.BuildWithdrawPayload(8, []*uint256.Int{uint256.NewInt(501), uint256.NewInt(0)}, codec.EmptyAddress, codec.EmptyAddress)
	require.NoError(err)
	f.Send(provider, p.Address(), testValue, []token.Amount{testvm.Amount(lpToken, 707)}, payload)
	require.Equal(actions.ReasonWrongRate.String(), f.lastEvent(t, p.Address(), event.Cancelled).Reason)
	require.Equal(uint64(707), u64(t, f.Balance(lpToken, provider)))
	f.balances(t, p.Address())
}

// Depositing one token alone and withdrawing it in that token returns at
// most what was deposited.
func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		kind pricing.Kind
	}{
		{name: "pair", kind: pricing.ConstantProductID},
		{name: "stable", kind: pricing.StableswapID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t)
			p := f.deploy(t, &Definition{Kind: tt.kind, Tokens: []codec.Address{f.foo, f.bar}})
			f.Start()
			provider := f.user(f.foo, f.bar)
			f.deposit(t, provider, p.Address(), false, testvm.Amount(f.foo, 10_000_000), testvm.Amount(f.bar, 10_000_000))

			user := f.user(f.foo, f.bar)
			f.deposit(t, user, p.Address(), true, testvm.Amount(f.foo, 100_000))
			lpToken := token.LPAddress(p.Address())
			lp := f.Balance(lpToken, user)
			require.False(lp.IsZero())
			f.balances(t, p.Address())

			payload, err := actions.BuildWithdrawOneCoinPayload(3, f.foo, nil, codec.EmptyAddress, codec.EmptyAddress)
			require.NoError(err)
			f.Send(user, p.Address(), testValue, []token.Amount{{Token: lpToken, Amount: lp}}, payload)

			got := u64(t, f.Balance(f.foo, user))
			require.LessOrEqual(got, uint64(100_000_000))
			require.Greater(got, uint64(100_000_000-100_000))
			require.Equal(uint64(100_000_000), u64(t, f.Balance(f.bar, user)))
			require.Zero(u64(t, f.Balance(lpToken, user)))
			f.balances(t, p.Address())
		})
	}
}

func TestStableSwap(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	usd := f.Token("USD", 6)
	p := f.deploy(t, &Definition{Kind: pricing.StableswapID, Tokens: []codec.Address{f.foo, f.bar, usd}})
	d, err := f.querier.Details(context.Background(), p.Address())
	require.NoError(err)
	require.Equal([]uint8{9, 9, 6}, d.Decimals)
	f.Start()

	provider := f.user(f.foo, f.bar, usd)
	f.deposit(t, provider, p.Address(), false,
		testvm.Amount(f.foo, 10_000_000),
		testvm.Amount(f.bar, 10_000_000),
		testvm.Amount(usd, 10_000),
	)
	f.balances(t, p.Address())

	expected, err := f.querier.ExpectedExchange(context.Background(), p.Address(), uint256.NewInt(100_000), f.foo, f.bar)
	require.NoError(err)
	trader := f.user(f.foo)
	f.swap(t, trader, p.Address(), testvm.Amount(f.foo, 100_000), f.bar, codec.EmptyAddress)

	out := u64(t, f.Balance(f.bar, trader))
	require.Equal(u64(t, expected.AmountOut), out)
	// near par and below the input net of fees
	require.Less(out, uint64(100_000-600))
	require.Greater(out, uint64(99_000))
}

func TestQueriesRejectUnknown(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	p := f.pair(t, f.foo, f.bar)

	_, err := f.querier.ExpectedExchange(context.Background(), p.Address(), uint256.NewInt(1), f.tst, f.bar)
	require.ErrorIs(err, ErrUnknownToken)
	_, err = f.querier.ExpectedExchange(context.Background(), p.Address(), uint256.NewInt(1), f.foo, f.foo)
	require.ErrorIs(err, ErrSameToken)
	_, err = f.querier.Details(context.Background(), testvm.Actor())
	require.ErrorIs(err, vm.ErrUnknownActor)
}

func TestDeployValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		def  *Definition
		err  error
	}{
		{
			name: "pair with three tokens",
			def:  &Definition{Kind: pricing.ConstantProductID, Tokens: []codec.Address{f.foo, f.bar, f.tst}},
			err:  ErrInvalidTokenCount,
		},
		{
			name: "duplicate token",
			def:  &Definition{Kind: pricing.ConstantProductID, Tokens: []codec.Address{f.foo, f.foo}},
			err:  ErrDuplicateToken,
		},
		{
			name: "native token",
			def:  &Definition{Kind: pricing.ConstantProductID, Tokens: []codec.Address{f.foo, vm.NativeToken}},
			err:  ErrNativeToken,
		},
		{
			name: "unknown kind",
			def:  &Definition{Kind: pricing.InvalidModelID, Tokens: []codec.Address{f.foo, f.bar}},
			err:  pricing.ErrUnknownModel,
		},
		{
			name: "token not created",
			def:  &Definition{Kind: pricing.ConstantProductID, Tokens: []codec.Address{f.foo, testvm.Actor()}},
			err:  ErrTokenNotCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.def.Admin = f.admin
			tt.def.Fees = f.params()
			_, err := Deploy(context.Background(), f.VM, tt.def, testGas, f.metrics)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDeployLoadsExisting(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	def := &Definition{Kind: pricing.ConstantProductID, Admin: f.admin, Tokens: []codec.Address{f.foo, f.bar}, Fees: f.params()}
	p := f.deploy(t, def)

	// a second deploy finds the record but the actor is already registered
	_, err := Deploy(context.Background(), f.VM, def, testGas, f.metrics)
	require.ErrorIs(err, vm.ErrDuplicateActor)

	salted := *def
	salted.Salt = 1
	require.NotEqual(p.Address(), salted.Address())
}

type route struct {
	*fixture

	poolA  *Pool
	poolB  *Pool
	trader codec.Address
}

// newRoute deploys FOO/TST and TST/BAR, both seeded 1:1.
func newRoute(t *testing.T) *route {
	f := newFixture(t)
	poolA := f.pair(t, f.foo, f.tst)
	poolB := f.pair(t, f.tst, f.bar)
	f.Start()
	provider := f.user(f.foo, f.bar, f.tst)
	f.deposit(t, provider, poolA.Address(), false, testvm.Amount(f.foo, 1_000_000), testvm.Amount(f.tst, 1_000_000))
	f.deposit(t, provider, poolB.Address(), false, testvm.Amount(f.tst, 1_000_000), testvm.Amount(f.bar, 1_000_000))
	return &route{fixture: f, poolA: poolA, poolB: poolB, trader: f.user(f.foo)}
}

func (r *route) send(t *testing.T, value uint64, steps ...actions.Step) {
	payload, err := actions.BuildCrossPoolPayload(11, steps, codec.EmptyAddress, codec.EmptyAddress)
	require.NoError(t, err)
	r.Send(r.trader, steps[0].Pool, value, []token.Amount{testvm.Amount(r.foo, 10_000)}, payload)
}

func TestCrossPoolSwap(t *testing.T) {
	require := require.New(t)
	r := newRoute(t)
	ctx := context.Background()

	first, err := r.querier.ExpectedExchange(ctx, r.poolA.Address(), uint256.NewInt(10_000), r.foo, r.tst)
	require.NoError(err)
	second, err := r.querier.ExpectedExchange(ctx, r.poolB.Address(), first.AmountOut, r.tst, r.bar)
	require.NoError(err)

	r.send(t, testValue,
		actions.Step{Pool: r.poolA.Address(), OutToken: r.tst, ExpectedAmount: first.AmountOut},
		actions.Step{Pool: r.poolB.Address(), OutToken: r.bar, ExpectedAmount: second.AmountOut},
	)
	require.Equal(u64(t, second.AmountOut), u64(t, r.Balance(r.bar, r.trader)))
	require.Zero(u64(t, r.Balance(r.tst, r.trader)))
	require.Equal(r.trader, r.lastEvent(t, r.poolB.Address(), event.Exchange).Recipient)

	// each hop keeps its gas; the last forwards the rest to the trader
	need, err := RouteValue(testGas.Swap, testFee, 2)
	require.NoError(err)
	require.Equal(uint64(220), need)
	require.Equal(testGas.Deposit+testGas.Swap, u64(t, r.Balance(vm.NativeToken, r.poolB.Address())))
}

func TestCrossPoolSwapLowGas(t *testing.T) {
	require := require.New(t)
	r := newRoute(t)

	// enough for one hop but not for two
	r.send(t, 200,
		actions.Step{Pool: r.poolA.Address(), OutToken: r.tst},
		actions.Step{Pool: r.poolB.Address(), OutToken: r.bar},
	)
	require.Equal(uint64(100_000_000), u64(t, r.Balance(r.foo, r.trader)))
	require.Equal(actions.ReasonLowGas.String(), r.lastEvent(t, r.poolA.Address(), event.Cancelled).Reason)
	require.Equal([]uint64{1_000_000, 1_000_000}, r.reserves(t, r.poolA.Address()))
}

// The second pool does not exist. The intermediate TST comes
// back to the first pool and is paid to the trader.
func TestCrossPoolSwapMissingPool(t *testing.T) {
	require := require.New(t)
	r := newRoute(t)
	ctx := context.Background()

	first, err := r.querier.ExpectedExchange(ctx, r.poolA.Address(), uint256.NewInt(10_000), r.foo, r.tst)
	require.NoError(err)
	r.send(t, testValue,
		actions.Step{Pool: r.poolA.Address(), OutToken: r.tst},
		actions.Step{Pool: testvm.Actor(), OutToken: r.bar},
	)

	require.Equal(u64(t, first.AmountOut), u64(t, r.Balance(r.tst, r.trader)))
	require.Equal(uint64(100_000_000-10_000), u64(t, r.Balance(r.foo, r.trader)))
	require.Zero(u64(t, r.Balance(r.bar, r.trader)))
	// the beneficiary share of the 60 fee leaves the reserve
	require.Equal([]uint64{1_010_000 - 20, 1_000_000 - u64(t, first.AmountOut)}, r.reserves(t, r.poolA.Address()))

	e := r.lastEvent(t, r.poolA.Address(), event.Cancelled)
	require.Equal(actions.ReasonBounced.String(), e.Reason)
	require.Equal(r.trader, e.Recipient)
	require.Equal(uint64(11), e.CallID)
}

// The second pool exists but does not hold TST: it refunds the first pool,
// which passes the TST on to the trader.
func TestCrossPoolSwapWrongPool(t *testing.T) {
	require := require.New(t)
	r := newRoute(t)
	ctx := context.Background()

	first, err := r.querier.ExpectedExchange(ctx, r.poolA.Address(), uint256.NewInt(10_000), r.foo, r.tst)
	require.NoError(err)
	// pinning the wrong token list makes poolB reject the hop
	wrong := r.poolB.Address()
	r.send(t, testValue,
		actions.Step{Pool: r.poolA.Address(), OutToken: r.tst},
		actions.Step{Pool: wrong, Tokens: []codec.Address{r.foo, r.bar}, OutToken: r.bar},
	)

	require.Equal(u64(t, first.AmountOut), u64(t, r.Balance(r.tst, r.trader)))
	require.Zero(u64(t, r.Balance(r.bar, r.trader)))
	require.Equal([]uint64{1_000_000, 1_000_000}, r.reserves(t, wrong))

	e := r.lastEvent(t, wrong, event.Cancelled)
	require.Equal(actions.ReasonInvalidRoute.String(), e.Reason)
	require.Equal(r.poolA.Address(), e.Sender)
	require.Equal(r.trader, e.Recipient)
}
