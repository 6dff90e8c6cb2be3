// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricing

import (
	"github.com/bitmark-inc/logger"
	"github.com/shopspring/decimal"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
)

// MarketReader - the store access the engine needs
type MarketReader interface {
	Market(id digest.Digest) (*marketrecord.Market, error)
	MarketTrades(market digest.Digest) ([]*marketrecord.Trade, error)
}

// Engine - prices trades against the stored trade log of a market
type Engine struct {
	reader MarketReader
	log    *logger.L
}

// New - create a pricing engine over a reader
func New(reader MarketReader) *Engine {
	return &Engine{
		reader: reader,
		log:    logger.New("pricing"),
	}
}

// WithReader - an engine sharing this one's logger over another reader
func (e *Engine) WithReader(reader MarketReader) *Engine {
	return &Engine{
		reader: reader,
		log:    e.log,
	}
}

func (e *Engine) load(id digest.Digest) (*marketrecord.Market, []*marketrecord.Trade, error) {
	m, err := e.reader.Market(id)
	if nil != err {
		return nil, nil, err
	}
	trades, err := e.reader.MarketTrades(id)
	if nil != err {
		return nil, nil, err
	}
	return m, trades, nil
}

// QuoteTrade - the current cost of a trade in a stored market
func (e *Engine) QuoteTrade(id digest.Digest, state uint32, delta uint64, isBuy bool) (*Quote, error) {
	m, trades, err := e.load(id)
	if nil != err {
		return nil, err
	}
	shares, err := Shares(m, trades)
	if nil != err {
		return nil, err
	}
	return QuoteShares(m, shares, state, delta, isBuy)
}

// CurrentPrices - instantaneous prices of a stored market
func (e *Engine) CurrentPrices(id digest.Digest) ([]decimal.Decimal, error) {
	m, trades, err := e.load(id)
	if nil != err {
		return nil, err
	}
	shares, err := Shares(m, trades)
	if nil != err {
		return nil, err
	}
	return Prices(m, shares)
}

// Holdings - shares per state held by a key in a stored market
func (e *Engine) Holdings(id digest.Digest, owner marketrecord.KeyID) ([]int64, error) {
	m, trades, err := e.load(id)
	if nil != err {
		return nil, err
	}
	return Holdings(m, trades, owner)
}

// ValidateTrade - check a trade may be applied at a height and
// return its quote
func (e *Engine) ValidateTrade(trade *marketrecord.Trade, height uint32) (*Quote, error) {
	m, trades, err := e.load(trade.Market)
	if nil != err {
		return nil, err
	}
	if height > m.Maturation {
		return nil, fault.ErrMarketClosed
	}
	if int(trade.State) >= m.StateCount() {
		return nil, fault.ErrInvalidState
	}
	if 0 == trade.Shares || trade.Shares > MaxShares {
		return nil, fault.ErrInvalidShares
	}

	// the id is the hash of the content so equal content is the same trade
	for _, t := range trades {
		if *t == *trade {
			return nil, fault.ErrDuplicateTrade
		}
	}

	shares, err := Shares(m, trades)
	if nil != err {
		return nil, err
	}

	if !trade.IsBuy {
		held, err := Holdings(m, trades, trade.Owner)
		if nil != err {
			return nil, err
		}
		if held[trade.State] < int64(trade.Shares) {
			return nil, fault.ErrInsufficientShares
		}
	}

	quote, err := QuoteShares(m, shares, trade.State, trade.Shares, trade.IsBuy)
	if nil != err {
		return nil, err
	}
	if err := CheckLimit(trade, quote); nil != err {
		e.log.Debugf("trade: %s limit: %d cost: %d", trade.Market, trade.Price, quote.Cost)
		return nil, err
	}
	return quote, nil
}
