// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fees

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
)

// Payout is a fee amount due to [To] in [Token].
type Payout struct {
	To     codec.Address `json:"to"`
	Token  codec.Address `json:"token"`
	Amount *uint256.Int  `json:"amount"`
}

// Accumulated is the fee held for a single token.
type Accumulated struct {
	Beneficiary *uint256.Int                   `json:"beneficiary"`
	Referrers   map[codec.Address]*uint256.Int `json:"referrers"`
}

// Record is the flat form of a ledger entry.
type Record struct {
	Token    codec.Address
	Referrer codec.Address // EmptyAddress for the beneficiary entry
	Amount   *uint256.Int
}

// Ledger holds the beneficiary and referrer fee shares a pool has collected
// but not yet paid out. Amounts in the ledger are owned by the pool wallet
// but are not part of the reserves.
type Ledger struct {
	entries map[codec.Address]*Accumulated
}

func NewLedger() *Ledger {
	return &Ledger{entries: map[codec.Address]*Accumulated{}}
}

func (l *Ledger) entry(token codec.Address) *Accumulated {
	e, ok := l.entries[token]
	if !ok {
		e = &Accumulated{
			Beneficiary: new(uint256.Int),
			Referrers:   map[codec.Address]*uint256.Int{},
		}
		l.entries[token] = e
	}
	return e
}

// Accrue adds the beneficiary and referrer shares of [split] collected in
// [token]. Entries that reach their threshold in [p] are zeroed and returned
// as payouts.
func (l *Ledger) Accrue(token codec.Address, split Split, referrer codec.Address, p *Params) []Payout {
	var payouts []Payout
	e := l.entry(token)
	if !split.Beneficiary.IsZero() {
		e.Beneficiary.Add(e.Beneficiary, split.Beneficiary)
		if threshold, ok := p.Threshold[token]; ok && e.Beneficiary.Cmp(threshold) >= 0 {
			payouts = append(payouts, Payout{To: p.Beneficiary, Token: token, Amount: e.Beneficiary.Clone()})
			e.Beneficiary.Clear()
		}
	}
	if !split.Referrer.IsZero() && referrer != codec.EmptyAddress {
		acc, ok := e.Referrers[referrer]
		if !ok {
			acc = new(uint256.Int)
			e.Referrers[referrer] = acc
		}
		acc.Add(acc, split.Referrer)
		threshold, ok := p.ReferrerThreshold[token]
		if !ok || acc.Cmp(threshold) >= 0 {
			payouts = append(payouts, Payout{To: referrer, Token: token, Amount: acc.Clone()})
			delete(e.Referrers, referrer)
		}
	}
	l.prune(token)
	return payouts
}

// FlushBeneficiary pays out every beneficiary entry to [to].
func (l *Ledger) FlushBeneficiary(to codec.Address) []Payout {
	var payouts []Payout
	for _, token := range SortedTokens(l.entries) {
		e := l.entries[token]
		if e.Beneficiary.IsZero() {
			continue
		}
		payouts = append(payouts, Payout{To: to, Token: token, Amount: e.Beneficiary.Clone()})
		e.Beneficiary.Clear()
		l.prune(token)
	}
	return payouts
}

// FlushReferrer pays out every entry held for [referrer].
func (l *Ledger) FlushReferrer(referrer codec.Address) []Payout {
	var payouts []Payout
	for _, token := range SortedTokens(l.entries) {
		e := l.entries[token]
		acc, ok := e.Referrers[referrer]
		if !ok {
			continue
		}
		payouts = append(payouts, Payout{To: referrer, Token: token, Amount: acc.Clone()})
		delete(e.Referrers, referrer)
		l.prune(token)
	}
	return payouts
}

func (l *Ledger) prune(token codec.Address) {
	if e, ok := l.entries[token]; ok && e.Beneficiary.IsZero() && len(e.Referrers) == 0 {
		delete(l.entries, token)
	}
}

// Beneficiary returns the beneficiary amount held in [token].
func (l *Ledger) Beneficiary(token codec.Address) *uint256.Int {
	if e, ok := l.entries[token]; ok {
		return e.Beneficiary.Clone()
	}
	return new(uint256.Int)
}

// Referrer returns the amount held for [referrer] in [token].
func (l *Ledger) Referrer(token, referrer codec.Address) *uint256.Int {
	if e, ok := l.entries[token]; ok {
		if acc, ok := e.Referrers[referrer]; ok {
			return acc.Clone()
		}
	}
	return new(uint256.Int)
}

// Held returns everything the ledger holds in [token].
func (l *Ledger) Held(token codec.Address) *uint256.Int {
	total := new(uint256.Int)
	e, ok := l.entries[token]
	if !ok {
		return total
	}
	total.Add(total, e.Beneficiary)
	for _, acc := range e.Referrers {
		total.Add(total, acc)
	}
	return total
}

// Snapshot returns a copy of all entries keyed by token.
func (l *Ledger) Snapshot() map[codec.Address]Accumulated {
	m := make(map[codec.Address]Accumulated, len(l.entries))
	for token, e := range l.entries {
		c := Accumulated{
			Beneficiary: e.Beneficiary.Clone(),
			Referrers:   make(map[codec.Address]*uint256.Int, len(e.Referrers)),
		}
		for r, acc := range e.Referrers {
			c.Referrers[r] = acc.Clone()
		}
		m[token] = c
	}
	return m
}

// Records flattens the ledger in a deterministic order.
func (l *Ledger) Records() []Record {
	var records []Record
	for _, token := range SortedTokens(l.entries) {
		e := l.entries[token]
		if !e.Beneficiary.IsZero() {
			records = append(records, Record{Token: token, Amount: e.Beneficiary.Clone()})
		}
		for _, r := range SortedTokens(e.Referrers) {
			records = append(records, Record{Token: token, Referrer: r, Amount: e.Referrers[r].Clone()})
		}
	}
	return records
}

// LoadLedger rebuilds a ledger from [records].
func LoadLedger(records []Record) (*Ledger, error) {
	l := NewLedger()
	for _, r := range records {
		if r.Amount == nil || r.Amount.IsZero() {
			return nil, ErrInvalidLedgerRecord
		}
		e := l.entry(r.Token)
		if r.Referrer == codec.EmptyAddress {
			e.Beneficiary.Add(e.Beneficiary, r.Amount)
			continue
		}
		acc, ok := e.Referrers[r.Referrer]
		if !ok {
			acc = new(uint256.Int)
			e.Referrers[r.Referrer] = acc
		}
		acc.Add(acc, r.Amount)
	}
	return l, nil
}
