// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"bytes"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/voting"
)

// validate - check an action against the block's view of the store
//
// false with no error means the action is accepted but already stored
func (p *Processor) validate(state *blockState, obj marketrecord.Object) (bool, error) {
	switch o := obj.(type) {
	case *marketrecord.Branch:
		return true, voting.CheckBranch(o)
	case *marketrecord.Decision:
		return true, validateDecision(state, o)
	case *marketrecord.Market:
		return true, validateMarket(state, o)
	case *marketrecord.Trade:
		return true, validateTrade(state, o)
	case *marketrecord.SealedVote:
		return true, validateSealed(state, o)
	case *marketrecord.StealVote:
		return true, validateSteal(state, o)
	case *marketrecord.RevealVote:
		return true, validateReveal(state, o)
	case *marketrecord.Outcome:
		return false, validateOutcome(state, o)
	default:
		fault.Panicf("validate: unhandled object: %T", obj)
		return false, nil
	}
}

func validateDecision(state *blockState, d *marketrecord.Decision) error {
	branch, err := state.batch.Branch(d.Branch)
	if nil != err {
		return err
	}
	if d.EventOverBy <= state.height {
		return fault.ErrEventAlreadyOver
	}
	if d.IsScaled && d.Minimum >= d.Maximum {
		return fault.ErrInvalidDecisionRange
	}

	window, err := voting.BallotWindow(branch, d)
	if nil != err {
		return err
	}
	records, err := state.batch.Decisions(d.Branch)
	if nil != err {
		return err
	}
	count := 0
	for _, r := range records {
		other, ok := r.Object.(*marketrecord.Decision)
		if !ok {
			return fault.ErrCorruptRecord
		}
		if voting.OnBallot(branch, other, window) {
			count += 1
		}
	}
	if count >= int(branch.MaxDecisions) {
		return fault.ErrBallotFull
	}
	return nil
}

func validateMarket(state *blockState, m *marketrecord.Market) error {
	branch, err := state.batch.Branch(m.Branch)
	if nil != err {
		return err
	}

	n := len(m.Decisions)
	if 0 == n {
		return fault.ErrMissingDecisions
	}
	if n > marketrecord.MaxMarketDecisions {
		return fault.ErrTooManyDecisions
	}
	if len(m.Functions) != n {
		return fault.ErrMismatchedLength
	}

	seen := make(map[digest.Digest]struct{}, n)
	decisions := make([]*marketrecord.Decision, 0, n)
	latest := uint32(0)
	for i, id := range m.Decisions {
		if !m.Functions[i].Valid() {
			return fault.ErrInvalidFunction
		}
		if _, ok := seen[id]; ok {
			return fault.ErrDuplicateDecision
		}
		seen[id] = struct{}{}

		d, err := state.batch.Decision(id)
		if nil != err {
			return err
		}
		if d.Branch != m.Branch {
			return fault.ErrWrongBranch
		}

		// a resolved decision can no longer settle a new market
		window, err := voting.BallotWindow(branch, d)
		if nil != err {
			return err
		}
		if voting.ResolutionHeight(branch, window) <= state.height {
			return fault.ErrMarketClosed
		}
		if d.EventOverBy > latest {
			latest = d.EventOverBy
		}
		decisions = append(decisions, d)
	}

	if 0 == m.B || m.MaxCommission > marketrecord.Coin {
		return fault.ErrInvalidLiquidity
	}
	if m.TradingFee < branch.MinTradingFee {
		return fault.ErrInvalidTradingFee
	}
	if m.Maturation < latest {
		return fault.ErrInvalidMaturation
	}

	// trading must stop before the settlement block
	closing, err := voting.ClosingHeight(branch, decisions)
	if nil != err {
		return err
	}
	if m.Maturation >= closing {
		return fault.ErrInvalidMaturation
	}
	return nil
}

// a trade must reach an unsettled market
func validateTrade(state *blockState, t *marketrecord.Trade) error {
	m, err := state.batch.Market(t.Market)
	if nil != err {
		return err
	}
	branch, err := state.batch.Branch(m.Branch)
	if nil != err {
		return err
	}
	decisions := make([]*marketrecord.Decision, len(m.Decisions))
	for i, id := range m.Decisions {
		d, err := state.batch.Decision(id)
		if nil != err {
			return err
		}
		decisions[i] = d
	}
	closing, err := voting.ClosingHeight(branch, decisions)
	if nil != err {
		return err
	}
	if state.height >= closing {
		return fault.ErrMarketClosed
	}

	_, err = state.pricing.ValidateTrade(t, state.height)
	return err
}

func validateSealed(state *blockState, v *marketrecord.SealedVote) error {
	branch, err := state.batch.Branch(v.Branch)
	if nil != err {
		return err
	}
	return voting.CheckSealed(branch, v, state.height)
}

func validateSteal(state *blockState, v *marketrecord.StealVote) error {
	branch, err := state.batch.Branch(v.Branch)
	if nil != err {
		return err
	}
	if err := voting.CheckSteal(branch, v, state.height); nil != err {
		return err
	}
	if _, err := state.batch.SealedVoteFor(v.Branch, v.Height, v.VoteID); nil != err {
		return err
	}
	revealed, err := state.batch.IsRevealed(v.Branch, v.Height, v.VoteID)
	if nil != err {
		return err
	}
	if revealed {
		return fault.ErrVoteAlreadyRevealed
	}
	return nil
}

func validateReveal(state *blockState, v *marketrecord.RevealVote) error {
	branch, err := state.batch.Branch(v.Branch)
	if nil != err {
		return err
	}

	decisions := make([]*marketrecord.Decision, len(v.Decisions))
	for i, id := range v.Decisions {
		d, err := state.batch.Decision(id)
		if nil != err {
			return err
		}
		decisions[i] = d
	}
	if err := voting.CheckReveal(branch, v.Branch, v, decisions, state.height); nil != err {
		return err
	}

	// a reveal opens the sealed vote committing to its own hash
	id, err := marketrecord.Hash(v)
	if nil != err {
		return err
	}
	if _, err := state.batch.SealedVoteFor(v.Branch, v.Height, id); nil != err {
		return err
	}
	stolen, err := state.batch.IsStolen(v.Branch, v.Height, id)
	if nil != err {
		return err
	}
	if stolen {
		return fault.ErrVoteStolen
	}

	records, err := state.batch.RevealVotes(v.Branch, v.Height)
	if nil != err {
		return err
	}
	for _, r := range records {
		other, ok := r.Object.(*marketrecord.RevealVote)
		if !ok {
			return fault.ErrCorruptRecord
		}
		if other.Owner == v.Owner {
			return fault.ErrDuplicateReveal
		}
	}
	return nil
}

// an outcome action must repeat one computed for this block
func validateOutcome(state *blockState, o *marketrecord.Outcome) error {
	packed, err := o.Pack()
	if nil != err {
		return err
	}
	computed, ok := state.computed[packed.Hash()]
	if !ok || !bytes.Equal(computed, packed) {
		return fault.ErrOutcomeMismatch
	}
	return nil
}
