// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
)

// Batch - the pending writes of one block
//
// reads through a batch see the committed store overlaid with the
// batch's own writes; nothing is visible to other readers until Commit
type Batch struct {
	queries

	store    *Store
	height   uint32
	sequence uint32
	ops      []Operation
	pending  *cache.Cache
	finished bool
}

// Mark - a point a batch can be rolled back to
type Mark struct {
	operations int
	sequence   uint32
}

// NewBatch - start the single writer for a block
func (s *Store) NewBatch(height uint32) (*Batch, error) {
	if s.readOnly {
		return nil, fault.ErrReadOnly
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	if nil != s.active {
		return nil, fault.ErrMultipleWriters
	}

	b := &Batch{
		store:   s,
		height:  height,
		ops:     make([]Operation, 0, 64),
		pending: cache.New(cache.NoExpiration, 0),
	}
	b.queries = queries{src: b, pools: s.pools, log: s.log}
	s.active = b
	return b, nil
}

// Height - the block height being written
func (b *Batch) Height() uint32 {
	return b.height
}

// Put - add an object with all of its index keys
//
// the returned record carries the object's id and submission position
func (b *Batch) Put(obj marketrecord.Object, origin digest.Digest) (*Record, error) {
	if b.finished {
		return nil, fault.ErrNilBatch
	}

	packed, err := obj.Pack()
	if nil != err {
		return nil, err
	}
	id := packed.Hash()

	pool := b.pools.primary(obj.Tag())
	if nil == pool {
		return nil, fault.ErrUnknownRecordType
	}
	key := pool.Key(id)

	exists, err := b.has(key)
	if nil != err {
		return nil, err
	}
	if exists {
		if marketrecord.TradeTag == obj.Tag() {
			return nil, fault.ErrDuplicateTrade
		}
		return nil, fault.ErrDuplicateRecord
	}

	r := &Record{
		Height:   b.height,
		Sequence: b.sequence,
		Origin:   origin,
		ID:       id,
		Object:   obj,
	}
	value := packRecord(b.height, b.sequence, origin, packed)
	b.sequence += 1

	b.set(key, value)
	for _, k := range b.indexKeys(obj, id) {
		b.set(k, value)
	}
	return r, nil
}

// secondary keys written alongside the primary key
func (b *Batch) indexKeys(obj marketrecord.Object, id digest.Digest) [][]byte {
	p := b.pools
	switch o := obj.(type) {
	case *marketrecord.Branch:
		return nil
	case *marketrecord.Decision:
		return [][]byte{p.BranchDecisions.Key(o.Branch, id)}
	case *marketrecord.Market:
		keys := make([][]byte, 0, len(o.Decisions))
		for _, d := range o.Decisions {
			keys = append(keys, p.DecisionMarkets.Key(d, id))
		}
		return keys
	case *marketrecord.Trade:
		return [][]byte{p.MarketTrades.Key(o.Market, id)}
	case *marketrecord.SealedVote:
		return [][]byte{p.BranchSealed.Key(o.Branch, o.Height, o.VoteID)}
	case *marketrecord.StealVote:
		return [][]byte{p.BranchSteals.Key(o.Branch, o.Height, o.VoteID)}
	case *marketrecord.RevealVote:
		return [][]byte{p.BranchReveals.Key(o.Branch, o.Height, id)}
	case *marketrecord.Outcome:
		return [][]byte{p.BranchOutcomes.Key(o.Branch, o.Height, id)}
	default:
		fault.Panicf("index keys: unhandled object: %T", obj)
		return nil
	}
}

// Mark - remember the current position
func (b *Batch) Mark() Mark {
	return Mark{
		operations: len(b.ops),
		sequence:   b.sequence,
	}
}

// Rollback - discard everything written after the mark
func (b *Batch) Rollback(mark Mark) {
	if mark.operations >= len(b.ops) {
		return
	}
	b.ops = b.ops[:mark.operations]
	b.sequence = mark.sequence

	b.pending.Flush()
	for _, op := range b.ops {
		b.pending.Set(string(op.Key), op, cache.NoExpiration)
	}
}

// Commit - write every pending key and the block height atomically
func (b *Batch) Commit() error {
	if b.finished {
		return fault.ErrNilBatch
	}
	defer b.finish()

	height := make([]byte, 4)
	binary.BigEndian.PutUint32(height, b.height)
	ops := append(b.ops, Operation{
		Key:   b.pools.Meta.Key(lastHeightName),
		Value: height,
	})

	b.store.Lock()
	defer b.store.Unlock()

	if nil == b.store.backend {
		return fault.ErrNotInitialised
	}
	err := b.store.backend.Write(ops)
	if nil != err {
		b.log.Criticalf("commit height: %d  error: %s", b.height, err)
		return fmt.Errorf("%w: %v", fault.ErrStorageFailure, err)
	}
	b.log.Debugf("committed height: %d  keys: %d", b.height, len(ops))
	return nil
}

// Abort - discard the batch
func (b *Batch) Abort() {
	if !b.finished {
		b.finish()
	}
}

func (b *Batch) finish() {
	b.finished = true
	b.pending.Flush()

	b.store.writer.Lock()
	b.store.active = nil
	b.store.writer.Unlock()
}

func (b *Batch) set(key []byte, value []byte) {
	op := Operation{Key: key, Value: value}
	b.ops = append(b.ops, op)
	b.pending.Set(string(key), op, cache.NoExpiration)
}

// source implementation: pending writes over committed data

func (b *Batch) get(key []byte) ([]byte, error) {
	if item, ok := b.pending.Get(string(key)); ok {
		op := item.(Operation)
		if op.Delete {
			return nil, fault.ErrNotFound
		}
		return op.Value, nil
	}
	return b.store.get(key)
}

func (b *Batch) iterate(prefix []byte, fn func(key []byte, value []byte) error) error {
	merged := make(map[string][]byte)
	err := b.store.iterate(prefix, func(key []byte, value []byte) error {
		merged[string(key)] = value
		return nil
	})
	if nil != err {
		return err
	}

	p := string(prefix)
	for k, item := range b.pending.Items() {
		if len(k) < len(p) || k[:len(p)] != p {
			continue
		}
		op := item.Object.(Operation)
		if op.Delete {
			delete(merged, k)
		} else {
			merged[k] = op.Value
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := fn([]byte(k), merged[k]); nil != err {
			return err
		}
	}
	return nil
}
