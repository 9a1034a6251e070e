// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"fmt"

	"github.com/near/borsh-go"

	"github.com/ava-labs/hyperamm/codec"
)

// v1 records predate referrer fees: the fee record has no referrer share or
// referrer thresholds and every accrual belongs to the beneficiary.
type feeRecordV1 struct {
	Denominator          uint64
	PoolNumerator        uint64
	BeneficiaryNumerator uint64
	Beneficiary          codec.Address
	Thresholds           []thresholdRecord
}

type accrualRecordV1 struct {
	Token  codec.Address
	Amount amount
}

type poolRecordV1 struct {
	Kind     uint8
	Admin    codec.Address
	LPToken  codec.Address
	Tokens   []codec.Address
	Reserves []amount
	LPSupply amount
	Decimals []uint8
	Amp      uint64
	Active   bool
	Fees     feeRecordV1
	Accrued  []accrualRecordV1
}

func (r *poolRecordV1) upgrade() poolRecord {
	next := poolRecord{
		Kind:     r.Kind,
		Admin:    r.Admin,
		LPToken:  r.LPToken,
		Tokens:   r.Tokens,
		Reserves: r.Reserves,
		LPSupply: r.LPSupply,
		Decimals: r.Decimals,
		Amp:      r.Amp,
		Active:   r.Active,
		Fees: feeRecord{
			Denominator:          r.Fees.Denominator,
			PoolNumerator:        r.Fees.PoolNumerator,
			BeneficiaryNumerator: r.Fees.BeneficiaryNumerator,
			Beneficiary:          r.Fees.Beneficiary,
			Thresholds:           r.Fees.Thresholds,
		},
	}
	for _, a := range r.Accrued {
		next.Accrued = append(next.Accrued, accrualRecord{Token: a.Token, Amount: a.Amount})
	}
	return next
}

// Migrate upgrades the body of a record written at [version] to a full
// [RecordVersion] record (version byte included). It is pure: callers
// decide whether to persist the result.
func Migrate(body []byte, version uint8) ([]byte, error) {
	switch version {
	case RecordVersion:
		return append([]byte{RecordVersion}, body...), nil
	case RecordVersionV1:
		var old poolRecordV1
		if err := borsh.Deserialize(&old, body); err != nil {
			return nil, fmt.Errorf("decode v1 record: %w", err)
		}
		next := old.upgrade()
		b, err := borsh.Serialize(next)
		if err != nil {
			return nil, err
		}
		return append([]byte{RecordVersion}, b...), nil
	default:
		if version > RecordVersion {
			return nil, fmt.Errorf("%w: %d", ErrFutureVersion, version)
		}
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
}
