// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fees

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
)

func split(ben, ref uint64) Split {
	return Split{
		Total:       uint256.NewInt(ben + ref),
		Pool:        new(uint256.Int),
		Beneficiary: uint256.NewInt(ben),
		Referrer:    uint256.NewInt(ref),
	}
}

func TestLedgerThresholdPush(t *testing.T) {
	require := require.New(t)
	var (
		token    = codec.CreateAddress(consts.TokenAddressID, ids.GenerateTestID())
		referrer = codec.CreateAddress(consts.UserAddressID, ids.GenerateTestID())
		p        = testParams()
	)
	p.Threshold = map[codec.Address]*uint256.Int{token: uint256.NewInt(100)}
	p.ReferrerThreshold = map[codec.Address]*uint256.Int{token: uint256.NewInt(50)}

	l := NewLedger()
	require.Empty(l.Accrue(token, split(60, 30), referrer, p))
	require.Equal(uint64(60), l.Beneficiary(token).Uint64())
	require.Equal(uint64(30), l.Referrer(token, referrer).Uint64())
	require.Equal(uint64(90), l.Held(token).Uint64())

	payouts := l.Accrue(token, split(40, 20), referrer, p)
	require.Equal([]Payout{
		{To: p.Beneficiary, Token: token, Amount: uint256.NewInt(100)},
		{To: referrer, Token: token, Amount: uint256.NewInt(50)},
	}, payouts)
	require.True(l.Held(token).IsZero())
	require.Empty(l.Records())
}

func TestLedgerDefaults(t *testing.T) {
	require := require.New(t)
	var (
		token    = codec.CreateAddress(consts.TokenAddressID, ids.GenerateTestID())
		referrer = codec.CreateAddress(consts.UserAddressID, ids.GenerateTestID())
		p        = testParams()
	)

	// no beneficiary threshold defers, no referrer threshold pays at once
	l := NewLedger()
	payouts := l.Accrue(token, split(1_000_000, 7), referrer, p)
	require.Equal([]Payout{{To: referrer, Token: token, Amount: uint256.NewInt(7)}}, payouts)
	require.Equal(uint64(1_000_000), l.Beneficiary(token).Uint64())

	payouts = l.FlushBeneficiary(p.Beneficiary)
	require.Equal([]Payout{{To: p.Beneficiary, Token: token, Amount: uint256.NewInt(1_000_000)}}, payouts)
	require.Empty(l.FlushBeneficiary(p.Beneficiary))
}

func TestLedgerFlushReferrer(t *testing.T) {
	require := require.New(t)
	var (
		tokenA = codec.CreateAddress(consts.TokenAddressID, ids.GenerateTestID())
		tokenB = codec.CreateAddress(consts.TokenAddressID, ids.GenerateTestID())
		alice  = codec.CreateAddress(consts.UserAddressID, ids.GenerateTestID())
		bob    = codec.CreateAddress(consts.UserAddressID, ids.GenerateTestID())
		p      = testParams()
	)
	p.ReferrerThreshold = map[codec.Address]*uint256.Int{
		tokenA: uint256.NewInt(1_000),
		tokenB: uint256.NewInt(1_000),
	}
	l := NewLedger()
	require.Empty(l.Accrue(tokenA, split(0, 5), alice, p))
	require.Empty(l.Accrue(tokenB, split(0, 6), alice, p))
	require.Empty(l.Accrue(tokenA, split(0, 7), bob, p))

	payouts := l.FlushReferrer(alice)
	require.Len(payouts, 2)
	total := new(uint256.Int)
	for _, payout := range payouts {
		require.Equal(alice, payout.To)
		total.Add(total, payout.Amount)
	}
	require.Equal(uint64(11), total.Uint64())
	require.Equal(uint64(7), l.Referrer(tokenA, bob).Uint64())
	require.True(l.Referrer(tokenB, alice).IsZero())
}

func TestLedgerRecords(t *testing.T) {
	require := require.New(t)
	var (
		token    = codec.CreateAddress(consts.TokenAddressID, ids.GenerateTestID())
		referrer = codec.CreateAddress(consts.UserAddressID, ids.GenerateTestID())
		p        = testParams()
	)
	p.ReferrerThreshold = map[codec.Address]*uint256.Int{token: uint256.NewInt(1_000)}

	l := NewLedger()
	l.Accrue(token, split(12, 3), referrer, p)
	restored, err := LoadLedger(l.Records())
	require.NoError(err)
	require.Equal(l.Snapshot(), restored.Snapshot())

	_, err = LoadLedger([]Record{{Token: token, Amount: new(uint256.Int)}})
	require.ErrorIs(err, ErrInvalidLedgerRecord)
}

func TestParamsMarshal(t *testing.T) {
	require := require.New(t)
	token := codec.CreateAddress(consts.TokenAddressID, ids.GenerateTestID())
	p := testParams()
	p.Threshold = map[codec.Address]*uint256.Int{token: uint256.NewInt(10)}
	p.ReferrerThreshold = map[codec.Address]*uint256.Int{}

	wp := codec.NewWriter(p.Size(), consts.NetworkSizeLimit)
	p.Marshal(wp)
	require.NoError(wp.Err())
	require.Len(wp.Bytes(), p.Size())

	parsed, err := UnmarshalParams(codec.NewReader(wp.Bytes(), consts.NetworkSizeLimit))
	require.NoError(err)
	require.Equal(p, parsed)
}
