// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package outcome

import (
	"bytes"
	"math"
	"sort"

	"github.com/bitmark-inc/logger"
	"github.com/shopspring/decimal"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/storage"
	"github.com/bitmark-inc/marketd/voting"
)

// NA - vote matrix marker for a missing vote
const NA = math.MaxUint64

// Reader - the store access resolution needs
type Reader interface {
	Branch(id digest.Digest) (*marketrecord.Branch, error)
	Decision(id digest.Digest) (*marketrecord.Decision, error)
	Decisions(branch digest.Digest) ([]*storage.Record, error)
	Market(id digest.Digest) (*marketrecord.Market, error)
	Markets(decision digest.Digest) ([]*storage.Record, error)
	MarketTrades(market digest.Digest) ([]*marketrecord.Trade, error)
	RevealVotes(branch digest.Digest, height uint32) ([]*storage.Record, error)
	IsStolen(branch digest.Digest, height uint32, voteID digest.Digest) (bool, error)
	OutcomeAt(branch digest.Digest, height uint32) (*marketrecord.Outcome, error)
	LatestOutcome(branch digest.Digest, before uint32) (*marketrecord.Outcome, error)
}

//go:generate mockgen -destination=mocks/reputation_source.go -package=mocks github.com/bitmark-inc/marketd/outcome ReputationSource

// ReputationSource - reputation of a branch's voters entering a window
//
// amounts are base units, absent keys have no prior reputation
type ReputationSource interface {
	Reputation(branch digest.Digest, window uint32) (map[marketrecord.KeyID]uint64, error)
}

// Engine - computes branch outcomes from stored votes
type Engine struct {
	reader     Reader
	reputation ReputationSource
	log        *logger.L
}

// New - create an engine, a nil source uses the smoothed reputation
// of the previous outcome
func New(reader Reader, reputation ReputationSource) *Engine {
	if nil == reputation {
		reputation = &PriorOutcomeReputation{reader: reader}
	}
	return &Engine{
		reader:     reader,
		reputation: reputation,
		log:        logger.New("outcome"),
	}
}

// WithReader - an engine sharing this one's logger over another
// reader, a prior outcome source follows the new reader
func (e *Engine) WithReader(reader Reader) *Engine {
	reputation := e.reputation
	if _, ok := reputation.(*PriorOutcomeReputation); ok {
		reputation = &PriorOutcomeReputation{reader: reader}
	}
	return &Engine{
		reader:     reader,
		reputation: reputation,
		log:        e.log,
	}
}

// PriorOutcomeReputation - reputation carried from the latest earlier
// outcome of the branch
type PriorOutcomeReputation struct {
	reader interface {
		LatestOutcome(branch digest.Digest, before uint32) (*marketrecord.Outcome, error)
	}
}

// NewPriorOutcomeReputation - reputation source over a store reader
func NewPriorOutcomeReputation(reader Reader) *PriorOutcomeReputation {
	return &PriorOutcomeReputation{reader: reader}
}

// Reputation - smoothed reputations of the latest earlier outcome
func (p *PriorOutcomeReputation) Reputation(branch digest.Digest, window uint32) (map[marketrecord.KeyID]uint64, error) {
	result := make(map[marketrecord.KeyID]uint64)
	o, err := p.reader.LatestOutcome(branch, window)
	if fault.IsErrNotFound(err) {
		return result, nil
	}
	if nil != err {
		return nil, err
	}
	for i, k := range o.Voters {
		result[k] = o.SmoothedRep[i]
	}
	return result, nil
}

// a decision on the ballot
type ballotEntry struct {
	id       digest.Digest
	decision *marketrecord.Decision
}

// a voter's reveal keyed by decision
type ballotVoter struct {
	key   marketrecord.KeyID
	votes map[digest.Digest]uint64
	na    uint64
}

// check the branch and window and list the ballot
func (e *Engine) prepare(branchID digest.Digest, window uint32) (*marketrecord.Branch, []ballotEntry, error) {
	branch, err := e.reader.Branch(branchID)
	if nil != err {
		return nil, nil, err
	}
	if 0 == window || !voting.IsWindowHeight(branch, window) {
		return nil, nil, fault.ErrInvalidHeight
	}

	records, err := e.reader.Decisions(branchID)
	if nil != err {
		return nil, nil, err
	}
	ballot := make([]ballotEntry, 0, len(records))
	for _, r := range records {
		d, ok := r.Object.(*marketrecord.Decision)
		if !ok {
			return nil, nil, fault.ErrCorruptRecord
		}
		if voting.OnBallot(branch, d, window) {
			ballot = append(ballot, ballotEntry{id: r.ID, decision: d})
		}
	}
	return branch, ballot, nil
}

// reveals of a window, stolen votes excluded, one per voter in key order
func (e *Engine) voters(branchID digest.Digest, window uint32) ([]ballotVoter, error) {
	records, err := e.reader.RevealVotes(branchID, window)
	if nil != err {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Before(records[j])
	})

	seen := make(map[marketrecord.KeyID]struct{})
	voters := make([]ballotVoter, 0, len(records))
	for _, r := range records {
		reveal, ok := r.Object.(*marketrecord.RevealVote)
		if !ok {
			return nil, fault.ErrCorruptRecord
		}
		stolen, err := e.reader.IsStolen(branchID, window, r.ID)
		if nil != err {
			return nil, err
		}
		if stolen {
			e.log.Debugf("window: %d  skip stolen vote: %s", window, r.ID)
			continue
		}
		if _, ok := seen[reveal.Owner]; ok {
			continue
		}
		seen[reveal.Owner] = struct{}{}

		v := ballotVoter{
			key:   reveal.Owner,
			votes: make(map[digest.Digest]uint64, len(reveal.Decisions)),
			na:    reveal.NA,
		}
		for i, id := range reveal.Decisions {
			v.votes[id] = reveal.Votes[i]
		}
		voters = append(voters, v)
	}

	sort.Slice(voters, func(i, j int) bool {
		return bytes.Compare(voters[i].key[:], voters[j].key[:]) < 0
	})
	return voters, nil
}

// a vote scaled to [0, 1]
func normaliseVote(d *marketrecord.Decision, vote uint64) decimal.Decimal {
	if !d.IsScaled {
		return fromUnits(vote)
	}
	span := decimal.New(d.Maximum, 0).Sub(decimal.New(d.Minimum, 0))
	if !span.IsPositive() {
		return half
	}
	offset := decimal.New(int64(vote), 0).Sub(decimal.New(d.Minimum, 0))
	return div(offset, span).Truncate(8)
}

// Compute - the outcome of a branch window from its reveal votes
func (e *Engine) Compute(branchID digest.Digest, window uint32) (*marketrecord.Outcome, error) {
	branch, ballot, err := e.prepare(branchID, window)
	if nil != err {
		return nil, err
	}
	voters, err := e.voters(branchID, window)
	if nil != err {
		return nil, err
	}
	if 0 == len(voters) {
		return nil, fault.ErrNoVoters
	}

	prior, err := e.reputation.Reputation(branchID, window)
	if nil != err {
		return nil, err
	}

	newcomer := uint64(marketrecord.Coin) / uint64(len(voters))
	keys := make([]marketrecord.KeyID, len(voters))
	oldRep := make([]decimal.Decimal, len(voters))
	matrix := make([][]decimal.Decimal, len(voters))
	missing := make([][]bool, len(voters))
	for i, v := range voters {
		keys[i] = v.key
		rep, ok := prior[v.key]
		if !ok {
			rep = newcomer
		}
		oldRep[i] = fromUnits(rep)

		matrix[i] = make([]decimal.Decimal, len(ballot))
		missing[i] = make([]bool, len(ballot))
		for j, b := range ballot {
			vote, ok := v.votes[b.id]
			if !ok || vote == v.na {
				missing[i][j] = true
				matrix[i][j] = zero
				continue
			}
			matrix[i][j] = normaliseVote(b.decision, vote)
		}
	}

	o, err := e.resolve(branchID, branch, window, keys, oldRep, ballot, matrix, missing)
	if nil != err {
		return nil, err
	}
	e.log.Infof("branch: %s  window: %d  voters: %d  decisions: %d", branchID, window, len(keys), len(ballot))
	return o, nil
}

// CarryForward - the outcome of a window without voters
//
// prior reputations are kept, every vote is NA and so every decision
// resolves to one half
func (e *Engine) CarryForward(branchID digest.Digest, window uint32) (*marketrecord.Outcome, error) {
	branch, ballot, err := e.prepare(branchID, window)
	if nil != err {
		return nil, err
	}
	prior, err := e.reputation.Reputation(branchID, window)
	if nil != err {
		return nil, err
	}

	keys := make([]marketrecord.KeyID, 0, len(prior))
	for k := range prior {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	oldRep := make([]decimal.Decimal, len(keys))
	matrix := make([][]decimal.Decimal, len(keys))
	missing := make([][]bool, len(keys))
	for i, k := range keys {
		oldRep[i] = fromUnits(prior[k])
		matrix[i] = make([]decimal.Decimal, len(ballot))
		missing[i] = make([]bool, len(ballot))
		for j := range ballot {
			matrix[i][j] = zero
			missing[i][j] = true
		}
	}

	o, err := e.resolve(branchID, branch, window, keys, oldRep, ballot, matrix, missing)
	if nil != err {
		return nil, err
	}
	e.log.Warnf("branch: %s  window: %d  no voters: carried forward %d reputations", branchID, window, len(keys))
	return o, nil
}

// run the resolution and build the outcome record
func (e *Engine) resolve(branchID digest.Digest, branch *marketrecord.Branch, window uint32, keys []marketrecord.KeyID, oldRep []decimal.Decimal, ballot []ballotEntry, matrix [][]decimal.Decimal, missing [][]bool) (*marketrecord.Outcome, error) {
	scaled := make([]bool, len(ballot))
	for j, b := range ballot {
		scaled[j] = b.decision.IsScaled
	}

	result, err := Resolve(&Input{
		OldRep:   oldRep,
		IsScaled: scaled,
		Matrix:   matrix,
		Missing:  missing,
		Alpha:    fromUnits(branch.Alpha),
		Tol:      fromUnits(branch.Tol),
	})
	if nil != err {
		return nil, err
	}
	if !result.Consensus {
		e.log.Debugf("branch: %s  window: %d  reputation unchanged", branchID, window)
	}

	o := &marketrecord.Outcome{
		Height:           window,
		Branch:           branchID,
		Voters:           keys,
		OldRep:           vectorUnits(result.OldRep),
		ThisRep:          vectorUnits(result.ThisRep),
		SmoothedRep:      vectorUnits(result.SmoothedRep),
		NARow:            vectorUnits(result.NARow),
		ParticipationRow: vectorUnits(result.ParticipationRow),
		ParticipationRel: vectorUnits(result.ParticipationRel),
		RowBonus:         vectorUnits(result.RowBonus),
		Decisions:        make([]digest.Digest, len(ballot)),
		IsScaled:         scaled,
		FirstLoading:     make([]int64, len(ballot)),
		DecisionsRaw:     vectorUnits(result.DecisionsRaw),
		ConsensusReward:  vectorUnits(result.ConsensusReward),
		Certainty:        vectorUnits(result.Certainty),
		NACol:            vectorUnits(result.NACol),
		ParticipationCol: vectorUnits(result.ParticipationCol),
		AuthorBonus:      vectorUnits(result.AuthorBonus),
		DecisionsFinal:   vectorUnits(result.DecisionsFinal),
		VoteMatrix:       make([]uint64, len(keys)*len(ballot)),
		NA:               NA,
		Alpha:            branch.Alpha,
		Tol:              branch.Tol,
	}
	for j, b := range ballot {
		o.Decisions[j] = b.id
		o.FirstLoading[j] = toSignedUnits(result.FirstLoading[j])
	}
	for i := range keys {
		for j := range ballot {
			if missing[i][j] {
				o.VoteMatrix[i*len(ballot)+j] = NA
			} else {
				o.VoteMatrix[i*len(ballot)+j] = toUnits(matrix[i][j])
			}
		}
	}

	payouts, err := e.settle(branchID, branch, window, o)
	if nil != err {
		return nil, err
	}
	o.Payouts = payouts
	return o, nil
}
