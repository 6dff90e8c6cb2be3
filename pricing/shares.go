// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricing

import (
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
)

// MaxShares - largest share count a single trade may move
const MaxShares = uint64(1) << 60

// Shares - outstanding shares per state, folding trades in
// submission order
func Shares(m *marketrecord.Market, trades []*marketrecord.Trade) ([]int64, error) {
	return fold(m, trades, nil)
}

// Holdings - shares per state held by one key
func Holdings(m *marketrecord.Market, trades []*marketrecord.Trade, owner marketrecord.KeyID) ([]int64, error) {
	return fold(m, trades, &owner)
}

// HoldingsByOwner - shares per state for every key that traded
func HoldingsByOwner(m *marketrecord.Market, trades []*marketrecord.Trade) (map[marketrecord.KeyID][]int64, error) {
	n := m.StateCount()
	result := make(map[marketrecord.KeyID][]int64)
	for _, t := range trades {
		if int(t.State) >= n {
			return nil, fault.ErrInvalidState
		}
		h, ok := result[t.Owner]
		if !ok {
			h = make([]int64, n)
			result[t.Owner] = h
		}
		apply(h, t)
	}
	return result, nil
}

func fold(m *marketrecord.Market, trades []*marketrecord.Trade, owner *marketrecord.KeyID) ([]int64, error) {
	n := m.StateCount()
	shares := make([]int64, n)
	for _, t := range trades {
		if int(t.State) >= n {
			return nil, fault.ErrInvalidState
		}
		if nil != owner && *owner != t.Owner {
			continue
		}
		apply(shares, t)
	}
	return shares, nil
}

func apply(shares []int64, t *marketrecord.Trade) {
	if t.IsBuy {
		shares[t.State] += int64(t.Shares)
	} else {
		shares[t.State] -= int64(t.Shares)
	}
}
