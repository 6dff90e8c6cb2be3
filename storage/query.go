// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
)

// raw access shared by the committed store and a pending batch
type source interface {
	get(key []byte) ([]byte, error)
	iterate(prefix []byte, fn func(key []byte, value []byte) error) error
}

// Reader - read access to market objects
//
// implemented by both Store (committed state) and Batch (committed
// state plus the batch's own pending writes)
type Reader interface {
	Get(tag marketrecord.TagType, id digest.Digest) (*Record, error)
	Branch(id digest.Digest) (*marketrecord.Branch, error)
	Decision(id digest.Digest) (*marketrecord.Decision, error)
	Market(id digest.Digest) (*marketrecord.Market, error)
	Branches() ([]*Record, error)
	Decisions(branch digest.Digest) ([]*Record, error)
	Markets(decision digest.Digest) ([]*Record, error)
	Trades(market digest.Digest) ([]*Record, error)
	MarketTrades(market digest.Digest) ([]*marketrecord.Trade, error)
	SealedVotes(branch digest.Digest, height uint32) ([]*Record, error)
	RevealVotes(branch digest.Digest, height uint32) ([]*Record, error)
	StealVotes(branch digest.Digest, height uint32) ([]*Record, error)
	SealedVoteFor(branch digest.Digest, height uint32, voteID digest.Digest) (*marketrecord.SealedVote, error)
	IsRevealed(branch digest.Digest, height uint32, voteID digest.Digest) (bool, error)
	IsStolen(branch digest.Digest, height uint32, voteID digest.Digest) (bool, error)
	Outcomes(branch digest.Digest) ([]*Record, error)
	OutcomeAt(branch digest.Digest, height uint32) (*marketrecord.Outcome, error)
	LatestOutcome(branch digest.Digest, before uint32) (*marketrecord.Outcome, error)
	LastHeight() (uint32, bool, error)
}

// typed queries over a source
type queries struct {
	src   source
	pools *pools
	log   *logger.L
}

// fetch and decode one value
func (q queries) fetch(key []byte) (*Record, error) {
	value, err := q.src.get(key)
	if nil != err {
		if fault.IsErrNotFound(err) {
			return nil, fault.ErrNotFound
		}
		return nil, q.ioError(err)
	}
	return q.decode(key, value)
}

func (q queries) decode(key []byte, value []byte) (*Record, error) {
	r, err := unpackRecord(value)
	if nil != err {
		q.log.Criticalf("corrupt record: key: %x  error: %s", key, err)
		return nil, fmt.Errorf("%w: key: %x: %v", fault.ErrCorruptRecord, key, err)
	}
	return r, nil
}

// an object stored under the wrong pool
func (q queries) wrongKind(r *Record) error {
	q.log.Criticalf("record: %s is a %s in the wrong pool", r.ID, r.Object.Tag())
	return fmt.Errorf("%w: %s stored in wrong pool", fault.ErrCorruptRecord, r.ID)
}

func (q queries) ioError(err error) error {
	if fault.IsErrCorrupt(err) || fault.IsErrProcess(err) {
		return err
	}
	q.log.Errorf("storage read error: %s", err)
	return fmt.Errorf("%w: %v", fault.ErrStorageFailure, err)
}

// scan all values under a key prefix in key order
func (q queries) scan(prefix []byte) ([]*Record, error) {
	records := make([]*Record, 0, 8)
	var decodeErr error
	err := q.src.iterate(prefix, func(key []byte, value []byte) error {
		r, err := q.decode(key, value)
		if nil != err {
			decodeErr = err
			return err
		}
		records = append(records, r)
		return nil
	})
	if nil != decodeErr {
		return nil, decodeErr
	}
	if nil != err {
		return nil, q.ioError(err)
	}
	return records, nil
}

// Get - fetch any object by kind and id
func (q queries) Get(tag marketrecord.TagType, id digest.Digest) (*Record, error) {
	pool := q.pools.primary(tag)
	if nil == pool {
		return nil, fault.ErrUnknownRecordType
	}
	return q.fetch(pool.Key(id))
}

// Branch - fetch a branch
func (q queries) Branch(id digest.Digest) (*marketrecord.Branch, error) {
	r, err := q.Get(marketrecord.BranchTag, id)
	if fault.IsErrNotFound(err) {
		return nil, fault.ErrBranchNotFound
	}
	if nil != err {
		return nil, err
	}
	obj, ok := r.Object.(*marketrecord.Branch)
	if !ok {
		return nil, q.wrongKind(r)
	}
	return obj, nil
}

// Decision - fetch a decision
func (q queries) Decision(id digest.Digest) (*marketrecord.Decision, error) {
	r, err := q.Get(marketrecord.DecisionTag, id)
	if fault.IsErrNotFound(err) {
		return nil, fault.ErrDecisionNotFound
	}
	if nil != err {
		return nil, err
	}
	obj, ok := r.Object.(*marketrecord.Decision)
	if !ok {
		return nil, q.wrongKind(r)
	}
	return obj, nil
}

// Market - fetch a market
func (q queries) Market(id digest.Digest) (*marketrecord.Market, error) {
	r, err := q.Get(marketrecord.MarketTag, id)
	if fault.IsErrNotFound(err) {
		return nil, fault.ErrMarketNotFound
	}
	if nil != err {
		return nil, err
	}
	obj, ok := r.Object.(*marketrecord.Market)
	if !ok {
		return nil, q.wrongKind(r)
	}
	return obj, nil
}

// Branches - every branch in id order
func (q queries) Branches() ([]*Record, error) {
	return q.scan([]byte{q.pools.Branches.prefix})
}

// Decisions - decisions of a branch in id order
func (q queries) Decisions(branch digest.Digest) ([]*Record, error) {
	return q.scan(q.pools.BranchDecisions.Key(branch))
}

// Markets - markets depending on a decision in id order
func (q queries) Markets(decision digest.Digest) ([]*Record, error) {
	return q.scan(q.pools.DecisionMarkets.Key(decision))
}

// Trades - trades of a market in submission order
func (q queries) Trades(market digest.Digest) ([]*Record, error) {
	records, err := q.scan(q.pools.MarketTrades.Key(market))
	if nil != err {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Before(records[j])
	})
	return records, nil
}

// MarketTrades - the trade objects of a market in submission order
func (q queries) MarketTrades(market digest.Digest) ([]*marketrecord.Trade, error) {
	records, err := q.Trades(market)
	if nil != err {
		return nil, err
	}
	trades := make([]*marketrecord.Trade, len(records))
	for i, r := range records {
		t, ok := r.Object.(*marketrecord.Trade)
		if !ok {
			return nil, q.wrongKind(r)
		}
		trades[i] = t
	}
	return trades, nil
}

// SealedVotes - sealed votes of a branch window in vote id order
func (q queries) SealedVotes(branch digest.Digest, height uint32) ([]*Record, error) {
	return q.scan(q.pools.BranchSealed.Key(branch, height))
}

// RevealVotes - reveal votes of a branch window in vote id order
func (q queries) RevealVotes(branch digest.Digest, height uint32) ([]*Record, error) {
	return q.scan(q.pools.BranchReveals.Key(branch, height))
}

// StealVotes - steal votes of a branch window in vote id order
func (q queries) StealVotes(branch digest.Digest, height uint32) ([]*Record, error) {
	return q.scan(q.pools.BranchSteals.Key(branch, height))
}

// SealedVoteFor - the sealed vote committing to a vote id
func (q queries) SealedVoteFor(branch digest.Digest, height uint32, voteID digest.Digest) (*marketrecord.SealedVote, error) {
	r, err := q.fetch(q.pools.BranchSealed.Key(branch, height, voteID))
	if fault.IsErrNotFound(err) {
		return nil, fault.ErrSealedVoteNotFound
	}
	if nil != err {
		return nil, err
	}
	obj, ok := r.Object.(*marketrecord.SealedVote)
	if !ok {
		return nil, q.wrongKind(r)
	}
	return obj, nil
}

// IsRevealed - true if the vote id has been opened
func (q queries) IsRevealed(branch digest.Digest, height uint32, voteID digest.Digest) (bool, error) {
	return q.has(q.pools.BranchReveals.Key(branch, height, voteID))
}

// IsStolen - true if a steal vote claims the vote id
func (q queries) IsStolen(branch digest.Digest, height uint32, voteID digest.Digest) (bool, error) {
	return q.has(q.pools.BranchSteals.Key(branch, height, voteID))
}

func (q queries) has(key []byte) (bool, error) {
	_, err := q.src.get(key)
	if nil == err {
		return true, nil
	}
	if fault.IsErrNotFound(err) {
		return false, nil
	}
	return false, q.ioError(err)
}

// Outcomes - outcomes of a branch in height order
func (q queries) Outcomes(branch digest.Digest) ([]*Record, error) {
	return q.scan(q.pools.BranchOutcomes.Key(branch))
}

// OutcomeAt - the outcome of one branch window
func (q queries) OutcomeAt(branch digest.Digest, height uint32) (*marketrecord.Outcome, error) {
	records, err := q.scan(q.pools.BranchOutcomes.Key(branch, height))
	if nil != err {
		return nil, err
	}
	if 0 == len(records) {
		return nil, fault.ErrNotFound
	}
	o, ok := records[0].Object.(*marketrecord.Outcome)
	if !ok {
		return nil, q.wrongKind(records[0])
	}
	return o, nil
}

// LatestOutcome - the most recent outcome of a branch for a window
// strictly before the given height
func (q queries) LatestOutcome(branch digest.Digest, before uint32) (*marketrecord.Outcome, error) {
	records, err := q.Outcomes(branch)
	if nil != err {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i -= 1 {
		o, ok := records[i].Object.(*marketrecord.Outcome)
		if !ok {
			return nil, q.wrongKind(records[i])
		}
		if o.Height < before {
			return o, nil
		}
	}
	return nil, fault.ErrNotFound
}

// LastHeight - height of the last committed block
//
// second result is false for an empty store
func (q queries) LastHeight() (uint32, bool, error) {
	value, err := q.src.get(q.pools.Meta.Key(lastHeightName))
	if fault.IsErrNotFound(err) {
		return 0, false, nil
	}
	if nil != err {
		return 0, false, q.ioError(err)
	}
	if 4 != len(value) {
		q.log.Criticalf("last height record: %x is corrupt", value)
		return 0, false, fault.ErrCorruptRecord
	}
	return binary.BigEndian.Uint32(value), true, nil
}
