// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/outcome"
	"github.com/bitmark-inc/marketd/pricing"
	"github.com/bitmark-inc/marketd/storage"
	"github.com/bitmark-inc/marketd/voting"
)

// Transaction - the outputs of one chain transaction
//
// outputs that are not market scripts are ignored
type Transaction struct {
	TxID    digest.Digest
	Outputs [][]byte
}

// Rejection - a transaction discarded from a block
type Rejection struct {
	TxID   digest.Digest `json:"txId"`
	Output int           `json:"output"`
	Class  string        `json:"class"`
	Reason string        `json:"reason"`
	err    error
}

// Err - the error that rejected the transaction
func (r *Rejection) Err() error {
	return r.err
}

// Summary - the result of applying a block
type Summary struct {
	Height   uint32          `json:"height"`
	Outcomes []digest.Digest `json:"outcomes"`
	Applied  int             `json:"applied"`
	Rejected []Rejection     `json:"rejected"`
}

// Processor - applies blocks to a market store
type Processor struct {
	sync.Mutex

	store   *storage.Store
	pricing *pricing.Engine
	outcome *outcome.Engine
	metrics processorMetrics
	log     *logger.L
}

// New - create a processor
//
// a nil reputation source carries reputation from the previous
// outcome of each branch, a nil registerer leaves metrics unregistered
func New(store *storage.Store, reputation outcome.ReputationSource, registerer prometheus.Registerer) *Processor {
	p := &Processor{
		store:   store,
		pricing: pricing.New(store),
		outcome: outcome.New(store, reputation),
		log:     logger.New("block"),
	}
	p.metrics.init(registerer)
	return p
}

// the state of one block while it is applied
type blockState struct {
	height   uint32
	batch    *storage.Batch
	pricing  *pricing.Engine
	computed map[digest.Digest]marketrecord.Packed
}

// ApplyBlock - validate and store the market actions of a block
//
// rejected transactions are listed in the summary, an error means
// nothing was written
func (p *Processor) ApplyBlock(height uint32, txs []Transaction) (*Summary, error) {
	p.Lock()
	defer p.Unlock()

	last, ok, err := p.store.LastHeight()
	if nil != err {
		return nil, err
	}
	if ok && height != last+1 {
		p.log.Warnf("block: %d out of sequence, last: %d", height, last)
		return nil, fault.ErrOutOfSequence
	}

	batch, err := p.store.NewBatch(height)
	if nil != err {
		return nil, err
	}
	defer batch.Abort()

	state := &blockState{
		height:   height,
		batch:    batch,
		pricing:  p.pricing.WithReader(batch),
		computed: make(map[digest.Digest]marketrecord.Packed),
	}
	summary := &Summary{
		Height:   height,
		Outcomes: make([]digest.Digest, 0),
		Rejected: make([]Rejection, 0),
	}

	ids, err := p.resolve(state)
	if nil != err {
		return nil, err
	}
	summary.Outcomes = ids

	for _, tx := range txs {
		mark := batch.Mark()
		tags, index, err := p.applyTransaction(state, tx)
		if nil == err {
			summary.Applied += len(tags)
			for _, tag := range tags {
				p.metrics.applied.WithLabelValues(tag.String()).Inc()
			}
			continue
		}
		if fault.IsErrCorrupt(err) || fault.IsErrProcess(err) {
			p.log.Criticalf("block: %d  tx: %s  error: %s", height, tx.TxID, err)
			return nil, err
		}

		batch.Rollback(mark)
		class := fault.Class(err)
		p.metrics.rejected.WithLabelValues(class).Inc()
		p.log.Warnf("block: %d  tx: %s  output: %d  rejected: %s", height, tx.TxID, index, err)
		summary.Rejected = append(summary.Rejected, Rejection{
			TxID:   tx.TxID,
			Output: index,
			Class:  class,
			Reason: err.Error(),
			err:    err,
		})
	}

	if err := batch.Commit(); nil != err {
		return nil, err
	}

	p.metrics.blocks.Inc()
	p.metrics.height.Set(float64(height))
	p.log.Infof("block: %d  outcomes: %d  applied: %d  rejected: %d", height, len(summary.Outcomes), summary.Applied, len(summary.Rejected))
	return summary, nil
}

// compute the outcome of every branch resolving at this height
func (p *Processor) resolve(state *blockState) ([]digest.Digest, error) {
	records, err := state.batch.Branches()
	if nil != err {
		return nil, err
	}

	engine := p.outcome.WithReader(state.batch)
	ids := make([]digest.Digest, 0)
	for _, r := range records {
		branch, ok := r.Object.(*marketrecord.Branch)
		if !ok {
			return nil, fault.ErrCorruptRecord
		}
		if voting.Resolving != voting.CurrentPhase(branch, state.height) {
			continue
		}
		window := voting.WindowHeight(branch, state.height)
		if 0 == window {
			continue
		}

		o, err := engine.Compute(r.ID, window)
		if fault.ErrNoVoters == err {
			p.metrics.fallbacks.Inc()
			o, err = engine.CarryForward(r.ID, window)
		}
		if nil != err {
			p.log.Errorf("branch: %s  window: %d  resolve error: %s", r.ID, window, err)
			return nil, err
		}

		// computed outcomes take the branch id as origin
		stored, err := state.batch.Put(o, r.ID)
		if nil != err {
			return nil, err
		}
		packed, err := o.Pack()
		if nil != err {
			return nil, err
		}
		state.computed[stored.ID] = packed
		ids = append(ids, stored.ID)
		p.metrics.outcomes.Inc()
	}
	return ids, nil
}

// apply every market output of one transaction
//
// returns the kinds of the actions written and the index of the
// output that failed
func (p *Processor) applyTransaction(state *blockState, tx Transaction) ([]marketrecord.TagType, int, error) {
	applied := make([]marketrecord.TagType, 0, len(tx.Outputs))
	for i, script := range tx.Outputs {
		obj, err := marketrecord.DecodeMarketAction(script)
		if fault.ErrNotMarketScript == err {
			continue
		}
		if nil != err {
			return applied, i, err
		}

		write, err := p.validate(state, obj)
		if nil != err {
			return applied, i, err
		}
		if !write {
			continue
		}
		if _, err := state.batch.Put(obj, tx.TxID); nil != err {
			return applied, i, err
		}
		applied = append(applied, obj.Tag())
		p.log.Debugf("block: %d  tx: %s  stored: %s", state.height, tx.TxID, obj.Tag())
	}
	return applied, -1, nil
}
