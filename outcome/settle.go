// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package outcome

import (
	"bytes"
	"sort"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/pricing"
	"github.com/bitmark-inc/marketd/voting"
)

// settle - payouts of every market whose last decision is resolved
// by this outcome, merged per key and sorted by key
func (e *Engine) settle(branchID digest.Digest, branch *marketrecord.Branch, window uint32, o *marketrecord.Outcome) ([]marketrecord.Payout, error) {
	due := make(map[marketrecord.KeyID]uint64)
	done := make(map[digest.Digest]struct{})

	for _, decisionID := range o.Decisions {
		records, err := e.reader.Markets(decisionID)
		if nil != err {
			return nil, err
		}
	markets:
		for _, r := range records {
			if _, ok := done[r.ID]; ok {
				continue markets
			}
			done[r.ID] = struct{}{}

			m, ok := r.Object.(*marketrecord.Market)
			if !ok {
				return nil, fault.ErrCorruptRecord
			}

			finals := make([]uint64, len(m.Decisions))
			for k, id := range m.Decisions {
				final, ok, err := e.final(branchID, branch, window, o, id)
				if nil != err {
					return nil, err
				}
				if !ok {
					continue markets
				}
				finals[k] = final
			}

			if err := e.settleMarket(r.ID, m, finals, due); nil != err {
				return nil, err
			}
			e.log.Debugf("window: %d  settled market: %s", window, r.ID)
		}
	}

	keys := make([]marketrecord.KeyID, 0, len(due))
	for k, amount := range due {
		if 0 != amount {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	payouts := make([]marketrecord.Payout, len(keys))
	for i, k := range keys {
		payouts[i] = marketrecord.Payout{Owner: k, Amount: due[k]}
	}
	return payouts, nil
}

// final value of a market decision, ok is false if it resolves
// after this window
func (e *Engine) final(branchID digest.Digest, branch *marketrecord.Branch, window uint32, o *marketrecord.Outcome, id digest.Digest) (uint64, bool, error) {
	if v, ok := o.Final(id); ok {
		return v, true, nil
	}
	d, err := e.reader.Decision(id)
	if nil != err {
		return 0, false, err
	}
	resolvedAt, err := voting.BallotWindow(branch, d)
	if nil != err {
		return 0, false, err
	}
	if resolvedAt >= window {
		return 0, false, nil
	}

	earlier, err := e.reader.OutcomeAt(branchID, resolvedAt)
	if fault.IsErrNotFound(err) {
		e.log.Warnf("decision: %s  no outcome at: %d", id, resolvedAt)
		return 0, false, nil
	}
	if nil != err {
		return 0, false, err
	}
	v, ok := earlier.Final(id)
	return v, ok, nil
}

// add a market's settlement to the amounts due
func (e *Engine) settleMarket(id digest.Digest, m *marketrecord.Market, finals []uint64, due map[marketrecord.KeyID]uint64) error {
	payouts, err := pricing.Settle(m, finals)
	if nil != err {
		return err
	}

	trades, err := e.reader.MarketTrades(id)
	if nil != err {
		return err
	}
	holdings, err := pricing.HoldingsByOwner(m, trades)
	if nil != err {
		return err
	}
	for owner, h := range holdings {
		amount, err := pricing.Redeem(h, payouts)
		if nil != err {
			return err
		}
		due[owner] += amount
	}
	due[m.Owner] += pricing.SubsidyReturn(m, payouts)
	return nil
}
