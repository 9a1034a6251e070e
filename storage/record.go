// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/holiman/uint256"
	"github.com/near/borsh-go"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pricing"
)

// RecordVersion is the layout written by [Marshal]. Every record is prefixed
// by its version byte.
const (
	RecordVersionV1 uint8 = 1
	RecordVersion   uint8 = 2
)

type amount [32]byte

func toAmount(v *uint256.Int) amount {
	if v == nil {
		return amount{}
	}
	return v.Bytes32()
}

func (a amount) Int() *uint256.Int {
	return new(uint256.Int).SetBytes32(a[:])
}

type thresholdRecord struct {
	Token  codec.Address
	Amount amount
}

type accrualRecord struct {
	Token    codec.Address
	Referrer codec.Address
	Amount   amount
}

type feeRecord struct {
	Denominator          uint64
	PoolNumerator        uint64
	BeneficiaryNumerator uint64
	ReferrerNumerator    uint64
	Beneficiary          codec.Address
	Thresholds           []thresholdRecord
	ReferrerThresholds   []thresholdRecord
}

type poolRecord struct {
	Kind     uint8
	Admin    codec.Address
	LPToken  codec.Address
	Tokens   []codec.Address
	Reserves []amount
	LPSupply amount
	Decimals []uint8
	Amp      uint64
	Active   bool
	Fees     feeRecord
	Accrued  []accrualRecord
}

func thresholdRecords(m map[codec.Address]*uint256.Int) []thresholdRecord {
	records := make([]thresholdRecord, 0, len(m))
	for _, token := range fees.SortedTokens(m) {
		records = append(records, thresholdRecord{Token: token, Amount: toAmount(m[token])})
	}
	return records
}

func thresholdMap(records []thresholdRecord) map[codec.Address]*uint256.Int {
	m := make(map[codec.Address]*uint256.Int, len(records))
	for _, r := range records {
		m[r.Token] = r.Amount.Int()
	}
	return m
}

// Marshal encodes [p] at [RecordVersion]. The pool address is the key of the
// record and is not part of it.
func Marshal(p *Pool) ([]byte, error) {
	if err := p.verify(); err != nil {
		return nil, err
	}
	r := poolRecord{
		Kind:     uint8(p.Kind),
		Admin:    p.Admin,
		LPToken:  p.LPToken,
		Tokens:   p.Tokens,
		Reserves: make([]amount, len(p.Reserves)),
		LPSupply: toAmount(p.LPSupply),
		Decimals: p.Decimals,
		Amp:      p.Amp,
		Active:   p.Active,
		Fees: feeRecord{
			Denominator:          p.Fees.Denominator,
			PoolNumerator:        p.Fees.PoolNumerator,
			BeneficiaryNumerator: p.Fees.BeneficiaryNumerator,
			ReferrerNumerator:    p.Fees.ReferrerNumerator,
			Beneficiary:          p.Fees.Beneficiary,
			Thresholds:           thresholdRecords(p.Fees.Threshold),
			ReferrerThresholds:   thresholdRecords(p.Fees.ReferrerThreshold),
		},
	}
	for i, v := range p.Reserves {
		r.Reserves[i] = toAmount(v)
	}
	if p.Ledger != nil {
		for _, rec := range p.Ledger.Records() {
			r.Accrued = append(r.Accrued, accrualRecord{
				Token:    rec.Token,
				Referrer: rec.Referrer,
				Amount:   toAmount(rec.Amount),
			})
		}
	}
	body, err := borsh.Serialize(r)
	if err != nil {
		return nil, err
	}
	return append([]byte{RecordVersion}, body...), nil
}

// Unmarshal decodes a record written by [Marshal].
func Unmarshal(b []byte) (*Pool, error) {
	if len(b) == 0 {
		return nil, ErrEmptyRecord
	}
	if b[0] != RecordVersion {
		return nil, ErrUnknownVersion
	}
	var r poolRecord
	if err := borsh.Deserialize(&r, b[1:]); err != nil {
		return nil, err
	}
	return r.pool()
}

func (r *poolRecord) pool() (*Pool, error) {
	records := make([]fees.Record, len(r.Accrued))
	for i, a := range r.Accrued {
		records[i] = fees.Record{Token: a.Token, Referrer: a.Referrer, Amount: a.Amount.Int()}
	}
	ledger, err := fees.LoadLedger(records)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		Kind:     pricing.Kind(r.Kind),
		Admin:    r.Admin,
		LPToken:  r.LPToken,
		Tokens:   r.Tokens,
		Reserves: make([]*uint256.Int, len(r.Reserves)),
		LPSupply: r.LPSupply.Int(),
		Decimals: r.Decimals,
		Amp:      r.Amp,
		Active:   r.Active,
		Fees: &fees.Params{
			Denominator:          r.Fees.Denominator,
			PoolNumerator:        r.Fees.PoolNumerator,
			BeneficiaryNumerator: r.Fees.BeneficiaryNumerator,
			ReferrerNumerator:    r.Fees.ReferrerNumerator,
			Beneficiary:          r.Fees.Beneficiary,
			Threshold:            thresholdMap(r.Fees.Thresholds),
			ReferrerThreshold:    thresholdMap(r.Fees.ReferrerThresholds),
		},
		Ledger: ledger,
	}
	for i, v := range r.Reserves {
		p.Reserves[i] = v.Int()
	}
	if err := p.verify(); err != nil {
		return nil, err
	}
	return p, nil
}
