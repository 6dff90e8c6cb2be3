// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"github.com/shopspring/decimal"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/pricing"
	"github.com/bitmark-inc/marketd/storage"
	"github.com/bitmark-inc/marketd/voting"
)

// lookups over committed blocks

func (p *Processor) lookup(tag marketrecord.TagType, id digest.Digest) (marketrecord.Object, error) {
	r, err := p.store.Get(tag, id)
	if nil != err {
		return nil, err
	}
	return r.Object, nil
}

// LookupBranch - a stored branch
func (p *Processor) LookupBranch(id digest.Digest) (*marketrecord.Branch, error) {
	return p.store.Branch(id)
}

// LookupDecision - a stored decision
func (p *Processor) LookupDecision(id digest.Digest) (*marketrecord.Decision, error) {
	return p.store.Decision(id)
}

// LookupMarket - a stored market
func (p *Processor) LookupMarket(id digest.Digest) (*marketrecord.Market, error) {
	return p.store.Market(id)
}

// LookupTrade - a stored trade
func (p *Processor) LookupTrade(id digest.Digest) (*marketrecord.Trade, error) {
	obj, err := p.lookup(marketrecord.TradeTag, id)
	if nil != err {
		return nil, err
	}
	t, ok := obj.(*marketrecord.Trade)
	if !ok {
		return nil, fault.ErrCorruptRecord
	}
	return t, nil
}

// LookupSealedVote - a stored sealed vote
func (p *Processor) LookupSealedVote(id digest.Digest) (*marketrecord.SealedVote, error) {
	obj, err := p.lookup(marketrecord.SealedVoteTag, id)
	if nil != err {
		return nil, err
	}
	v, ok := obj.(*marketrecord.SealedVote)
	if !ok {
		return nil, fault.ErrCorruptRecord
	}
	return v, nil
}

// LookupRevealVote - a stored reveal vote
func (p *Processor) LookupRevealVote(id digest.Digest) (*marketrecord.RevealVote, error) {
	obj, err := p.lookup(marketrecord.RevealVoteTag, id)
	if nil != err {
		return nil, err
	}
	v, ok := obj.(*marketrecord.RevealVote)
	if !ok {
		return nil, fault.ErrCorruptRecord
	}
	return v, nil
}

// LookupStealVote - a stored steal vote
func (p *Processor) LookupStealVote(id digest.Digest) (*marketrecord.StealVote, error) {
	obj, err := p.lookup(marketrecord.StealVoteTag, id)
	if nil != err {
		return nil, err
	}
	v, ok := obj.(*marketrecord.StealVote)
	if !ok {
		return nil, fault.ErrCorruptRecord
	}
	return v, nil
}

// LookupOutcome - a stored outcome
func (p *Processor) LookupOutcome(id digest.Digest) (*marketrecord.Outcome, error) {
	obj, err := p.lookup(marketrecord.OutcomeTag, id)
	if nil != err {
		return nil, err
	}
	o, ok := obj.(*marketrecord.Outcome)
	if !ok {
		return nil, fault.ErrCorruptRecord
	}
	return o, nil
}

// CurrentPhase - the voting phase of a branch at a height
func (p *Processor) CurrentPhase(branchID digest.Digest, height uint32) (voting.Phase, error) {
	branch, err := p.store.Branch(branchID)
	if nil != err {
		return voting.Open, err
	}
	return voting.CurrentPhase(branch, height), nil
}

// Ballot - the decisions voted on at a height, in id order
func (p *Processor) Ballot(branchID digest.Digest, height uint32) ([]*storage.Record, error) {
	branch, err := p.store.Branch(branchID)
	if nil != err {
		return nil, err
	}
	window := voting.WindowHeight(branch, height)

	records, err := p.store.Decisions(branchID)
	if nil != err {
		return nil, err
	}
	ballot := make([]*storage.Record, 0, len(records))
	for _, r := range records {
		d, ok := r.Object.(*marketrecord.Decision)
		if !ok {
			return nil, fault.ErrCorruptRecord
		}
		if voting.OnBallot(branch, d, window) {
			ballot = append(ballot, r)
		}
	}
	return ballot, nil
}

// QuoteTrade - the cost of a trade against the committed trade log
func (p *Processor) QuoteTrade(market digest.Digest, state uint32, shares uint64, isBuy bool) (*pricing.Quote, error) {
	return p.pricing.QuoteTrade(market, state, shares, isBuy)
}

// CurrentPrices - the price of every state of a market
func (p *Processor) CurrentPrices(market digest.Digest) ([]decimal.Decimal, error) {
	return p.pricing.CurrentPrices(market)
}
