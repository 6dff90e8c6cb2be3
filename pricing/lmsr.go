// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/util"
)

// Quote - the price of changing one state's outstanding shares
//
// amounts are base units; Cost is paid by a buyer or received by a
// seller, Fee is charged on purchases only
type Quote struct {
	State        uint32 `json:"state"`
	Shares       uint64 `json:"shares"`
	IsBuy        bool   `json:"isBuy"`
	Cost         uint64 `json:"cost"`
	Fee          uint64 `json:"fee"`
	Total        uint64 `json:"total"`
	AveragePrice uint64 `json:"averagePrice"`
}

// liquiditySensitive - true when the market scales B with volume
func liquiditySensitive(m *marketrecord.Market) bool {
	return 0 != m.MaxCommission
}

// MinShares - shares credited to every state of a liquidity
// sensitive market, zero otherwise
func MinShares(m *marketrecord.Market) decimal.Decimal {
	if !liquiditySensitive(m) {
		return zero
	}
	n := decimal.New(int64(m.StateCount()), 0)
	b := FromUnsignedUnits(m.B)
	return div(mul(b, mustLn(n)), FromUnsignedUnits(m.MaxCommission))
}

// check market parameters used by the cost function
func checkMarket(m *marketrecord.Market) error {
	if 0 == m.B {
		return fault.ErrInvalidLiquidity
	}
	if m.MaxCommission > util.Coin {
		return fault.ErrInvalidLiquidity
	}
	if 0 == len(m.Decisions) || len(m.Decisions) > marketrecord.MaxMarketDecisions {
		return fault.ErrTooManyDecisions
	}
	return nil
}

// effective shares and liquidity for a share vector
func effective(m *marketrecord.Market, shares []int64) ([]decimal.Decimal, decimal.Decimal, error) {
	if len(shares) != m.StateCount() {
		return nil, zero, fault.ErrInvalidState
	}

	q := make([]decimal.Decimal, len(shares))
	for i, s := range shares {
		q[i] = FromUnits(s)
	}

	b := FromUnsignedUnits(m.B)
	if !liquiditySensitive(m) {
		return q, b, nil
	}

	minShares := MinShares(m)
	total := zero
	for i := range q {
		q[i] = q[i].Add(minShares)
		total = total.Add(q[i])
	}
	n := decimal.New(int64(len(q)), 0)
	b = div(mul(b, total), mul(n, minShares))
	if !b.IsPositive() {
		return nil, zero, fault.ErrInvalidLiquidity
	}
	return q, b, nil
}

// AccountValue - the cost function C(N) truncated to base units
func AccountValue(m *marketrecord.Market, shares []int64) (decimal.Decimal, error) {
	if err := checkMarket(m); nil != err {
		return zero, err
	}
	q, b, err := effective(m, shares)
	if nil != err {
		return zero, err
	}

	xs := make([]decimal.Decimal, len(q))
	for i := range q {
		xs[i] = div(q[i], b)
	}
	value := mul(b, logSumExp(xs))
	return value.Truncate(util.UnitDigits), nil
}

// QuoteShares - cost of buying, or proceeds of selling, delta shares of a state
func QuoteShares(m *marketrecord.Market, shares []int64, state uint32, delta uint64, isBuy bool) (*Quote, error) {
	if int(state) >= m.StateCount() || len(shares) != m.StateCount() {
		return nil, fault.ErrInvalidState
	}
	if 0 == delta || delta > MaxShares {
		return nil, fault.ErrInvalidShares
	}

	before, err := AccountValue(m, shares)
	if nil != err {
		return nil, err
	}

	after := make([]int64, len(shares))
	copy(after, shares)
	if isBuy {
		if after[state] > math.MaxInt64-int64(delta) {
			return nil, fault.ErrInvalidShares
		}
		after[state] += int64(delta)
	} else {
		after[state] -= int64(delta)
	}
	value, err := AccountValue(m, after)
	if nil != err {
		return nil, err
	}

	difference := value.Sub(before)
	if !isBuy {
		difference = difference.Neg()
	}
	cost := ToUnits(difference)
	if cost < 0 {
		return nil, fault.ErrInvalidLiquidity
	}

	quote := &Quote{
		State:  state,
		Shares: delta,
		IsBuy:  isBuy,
		Cost:   uint64(cost),
	}
	if isBuy {
		fee := FromUnits(cost).Mul(FromUnsignedUnits(m.TradingFee))
		quote.Fee = uint64(fee.Shift(util.UnitDigits).Ceil().IntPart())
	}
	quote.Total = quote.Cost + quote.Fee
	quote.AveragePrice = uint64(ToUnits(div(FromUnsignedUnits(quote.Cost), FromUnsignedUnits(delta))))
	return quote, nil
}

// CheckLimit - a buy may not pay more, and a sale may not receive
// less, than the trade's limit price per share
func CheckLimit(trade *marketrecord.Trade, quote *Quote) error {
	cost := FromUnsignedUnits(quote.Cost)
	limit := mul(FromUnsignedUnits(trade.Price), FromUnsignedUnits(trade.Shares))
	if trade.IsBuy && cost.GreaterThan(limit) {
		return fault.ErrBelowLimitPrice
	}
	if !trade.IsBuy && cost.LessThan(limit) {
		return fault.ErrBelowLimitPrice
	}
	return nil
}

// Prices - instantaneous price of each state
//
// for a plain market these are probabilities summing to one; a
// liquidity sensitive market's prices sum to slightly more
func Prices(m *marketrecord.Market, shares []int64) ([]decimal.Decimal, error) {
	if err := checkMarket(m); nil != err {
		return nil, err
	}
	q, b, err := effective(m, shares)
	if nil != err {
		return nil, err
	}

	xs := make([]decimal.Decimal, len(q))
	for i := range q {
		xs[i] = div(q[i], b)
	}
	terms, sum, _ := shiftedExp(xs)

	prices := make([]decimal.Decimal, len(q))
	if !liquiditySensitive(m) {
		for i := range terms {
			prices[i] = div(terms[i], sum).Truncate(util.UnitDigits)
		}
		return prices, nil
	}

	// p_i = α ln Σe^(q/b) + (Σq e_i − Σ q_j e_j) / (Σq Σe)
	total := zero
	weighted := zero
	for i := range q {
		total = total.Add(q[i])
		weighted = weighted.Add(mul(q[i], terms[i]))
	}
	n := decimal.New(int64(len(q)), 0)
	alpha := div(FromUnsignedUnits(m.MaxCommission), mul(n, mustLn(n)))
	base := mul(alpha, logSumExp(xs))
	denominator := mul(total, sum)
	for i := range q {
		numerator := mul(total, terms[i]).Sub(weighted)
		prices[i] = base.Add(div(numerator, denominator)).Truncate(util.UnitDigits)
	}
	return prices, nil
}

// SubsidyCost - base units the market creator must lock: the account
// value with no shares outstanding
func SubsidyCost(m *marketrecord.Market) (uint64, error) {
	value, err := AccountValue(m, make([]int64, m.StateCount()))
	if nil != err {
		return 0, err
	}
	return uint64(ToUnits(value)), nil
}
