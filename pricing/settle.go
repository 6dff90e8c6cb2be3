// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/util"
)

// Transform - apply a decision function to an outcome in [0, 1]
func Transform(f marketrecord.FunctionID, v decimal.Decimal) (decimal.Decimal, error) {
	if v.IsNegative() || v.GreaterThan(one) {
		return zero, fault.ErrFieldOutOfRange
	}
	switch f {
	case marketrecord.FunctionX1:
		return v, nil
	case marketrecord.FunctionX2:
		return mul(v, v), nil
	case marketrecord.FunctionX3:
		return mul(mul(v, v), v), nil
	case marketrecord.FunctionLNX1:
		return div(mustLn(one.Add(v)), ln2), nil
	default:
		return zero, fault.ErrUnknownFunction
	}
}

// Settle - payout per share of every state
//
// finals are the market's decision outcomes in market order, in
// base units of the range [0, 1]; bit j of a state index selects
// decision j's "yes" side f(v) over its "no" side 1 − f(v)
func Settle(m *marketrecord.Market, finals []uint64) ([]decimal.Decimal, error) {
	if len(finals) != len(m.Decisions) || len(m.Functions) != len(m.Decisions) {
		return nil, fault.ErrMismatchedLength
	}

	yes := make([]decimal.Decimal, len(finals))
	for j, v := range finals {
		y, err := Transform(m.Functions[j], FromUnsignedUnits(v))
		if nil != err {
			return nil, err
		}
		yes[j] = y
	}

	payouts := make([]decimal.Decimal, m.StateCount())
	for s := range payouts {
		p := one
		for j := range yes {
			if 0 != s&(1<<uint(j)) {
				p = mul(p, yes[j])
			} else {
				p = mul(p, one.Sub(yes[j]))
			}
		}
		payouts[s] = p
	}
	return payouts, nil
}

// Redeem - base units due for a holding at settlement
//
// negative holdings (net sellers) redeem nothing
func Redeem(holdings []int64, payouts []decimal.Decimal) (uint64, error) {
	if len(holdings) != len(payouts) {
		return 0, fault.ErrMismatchedLength
	}
	total := zero
	for s, h := range holdings {
		if h <= 0 {
			continue
		}
		total = total.Add(FromUnits(h).Mul(payouts[s]))
	}
	return uint64(ToUnits(total)), nil
}

// SubsidyReturn - base units due to the creator of a liquidity
// sensitive market for the shares credited to every state
func SubsidyReturn(m *marketrecord.Market, payouts []decimal.Decimal) uint64 {
	minShares := MinShares(m)
	if minShares.IsZero() {
		return 0
	}
	total := zero
	for _, p := range payouts {
		total = total.Add(minShares.Mul(p))
	}
	return uint64(total.Shift(util.UnitDigits).Truncate(0).IntPart())
}
