// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marketrecord

import (
	"github.com/bitmark-inc/marketd/digest"
)

// Coin - one whole unit of any scaled value
const Coin = 100000000

// limits applied when decoding
const (
	MaxStringLength    = 4096
	MaxVectorLength    = 65536
	MaxMarketDecisions = 8 // decisions per market, so at most 256 states
)

// Branch - a voting community with its own decision calendar
type Branch struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	BaseListingFee     uint64 `json:"baseListingFee"`
	FreeDecisions      uint16 `json:"freeDecisions"`
	TargetDecisions    uint16 `json:"targetDecisions"`
	MaxDecisions       uint16 `json:"maxDecisions"`
	MinTradingFee      uint64 `json:"minTradingFee"`
	Tau                uint16 `json:"tau"`
	BallotTime         uint16 `json:"ballotTime"`
	UnsealTime         uint16 `json:"unsealTime"`
	ConsensusThreshold uint32 `json:"consensusThreshold"`
	Alpha              uint64 `json:"alpha"`
	Tol                uint64 `json:"tol"`
}

// Decision - a question resolved by a branch's voters
type Decision struct {
	Owner          KeyID         `json:"owner"`
	Branch         digest.Digest `json:"branch"`
	Prompt         string        `json:"prompt"`
	EventOverBy    uint32        `json:"eventOverBy"`
	IsScaled       bool          `json:"isScaled"`
	Minimum        int64         `json:"minimum"`
	Maximum        int64         `json:"maximum"`
	AnswerOptional bool          `json:"answerOptional"`
}

// Market - a cost function market maker over the joint states of
// one or more decisions
type Market struct {
	Owner         KeyID           `json:"owner"`
	B             uint64          `json:"b"`
	TradingFee    uint64          `json:"tradingFee"`
	MaxCommission uint64          `json:"maxCommission"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Tags          string          `json:"tags"`
	Maturation    uint32          `json:"maturation"`
	Branch        digest.Digest   `json:"branch"`
	Decisions     []digest.Digest `json:"decisions"`
	Functions     []FunctionID    `json:"functions"`
	TxPoWh        uint32          `json:"txPoWh"`
	TxPoWd        uint32          `json:"txPoWd"`
}

// StateCount - number of joint outcome states
func (m *Market) StateCount() int {
	return 1 << uint(len(m.Decisions))
}

// Trade - a purchase or sale of shares in one market state
type Trade struct {
	Owner  KeyID         `json:"owner"`
	Market digest.Digest `json:"market"`
	IsBuy  bool          `json:"isBuy"`
	Shares uint64        `json:"shares"`
	Price  uint64        `json:"price"`
	State  uint32        `json:"state"`
	Nonce  uint32        `json:"nonce"`
}

// SealedVote - commitment to a ballot, the id is the hash of the
// reveal vote that will open it
type SealedVote struct {
	Branch digest.Digest `json:"branch"`
	Height uint32        `json:"height"`
	VoteID digest.Digest `json:"voteId"`
}

// StealVote - claim on a sealed vote that has not been revealed
type StealVote struct {
	Branch digest.Digest `json:"branch"`
	Height uint32        `json:"height"`
	VoteID digest.Digest `json:"voteId"`
}

// RevealVote - the opened ballot
//
// any vote equal to NA marks the decision as not answered
type RevealVote struct {
	Branch    digest.Digest   `json:"branch"`
	Height    uint32          `json:"height"`
	Decisions []digest.Digest `json:"decisions"`
	Votes     []uint64        `json:"votes"`
	NA        uint64          `json:"na"`
	Owner     KeyID           `json:"owner"`
}

// Payout - an amount due to a key id on resolution
type Payout struct {
	Owner  KeyID  `json:"owner"`
	Amount uint64 `json:"amount"`
}

// Outcome - the resolution of one branch voting window
//
// voter vectors have len(Voters) entries, decision vectors have
// len(Decisions) entries and VoteMatrix is row major by voter
type Outcome struct {
	Height           uint32          `json:"height"`
	Branch           digest.Digest   `json:"branch"`
	Voters           []KeyID         `json:"voters"`
	OldRep           []uint64        `json:"oldRep"`
	ThisRep          []uint64        `json:"thisRep"`
	SmoothedRep      []uint64        `json:"smoothedRep"`
	NARow            []uint64        `json:"naRow"`
	ParticipationRow []uint64        `json:"participationRow"`
	ParticipationRel []uint64        `json:"participationRel"`
	RowBonus         []uint64        `json:"rowBonus"`
	Decisions        []digest.Digest `json:"decisions"`
	IsScaled         []bool          `json:"isScaled"`
	FirstLoading     []int64         `json:"firstLoading"`
	DecisionsRaw     []uint64        `json:"decisionsRaw"`
	ConsensusReward  []uint64        `json:"consensusReward"`
	Certainty        []uint64        `json:"certainty"`
	NACol            []uint64        `json:"naCol"`
	ParticipationCol []uint64        `json:"participationCol"`
	AuthorBonus      []uint64        `json:"authorBonus"`
	DecisionsFinal   []uint64        `json:"decisionsFinal"`
	VoteMatrix       []uint64        `json:"voteMatrix"`
	NA               uint64          `json:"na"`
	Alpha            uint64          `json:"alpha"`
	Tol              uint64          `json:"tol"`
	Payouts          []Payout        `json:"payouts"`
}

// Final - the final value of a decision in this outcome
func (o *Outcome) Final(decision digest.Digest) (uint64, bool) {
	for i, d := range o.Decisions {
		if d == decision {
			return o.DecisionsFinal[i], true
		}
	}
	return 0, false
}

// Reputation - smoothed reputation of a voter in this outcome
func (o *Outcome) Reputation(voter KeyID) (uint64, bool) {
	for i, k := range o.Voters {
		if k == voter {
			return o.SmoothedRep[i], true
		}
	}
	return 0, false
}
