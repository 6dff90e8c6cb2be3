// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marketrecord

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
)

// Packed - packed records are just a byte slice
type Packed []byte

// Hash - the content id of a packed record
func (record Packed) Hash() digest.Digest {
	return digest.NewDigest(record)
}

// protocol version passed to the CompactSize routines, which ignore it
const pver = 0

// accumulate fields, the first failure sticks
type encoder struct {
	buf     bytes.Buffer
	scratch [8]byte
	err     error
}

func newEncoder(tag TagType) *encoder {
	e := &encoder{}
	e.buf.WriteByte(byte(tag))
	return e
}

func (e *encoder) packed() (Packed, error) {
	if nil != e.err {
		return nil, e.err
	}
	return Packed(e.buf.Bytes()), nil
}

func (e *encoder) u8(v uint8) {
	e.buf.WriteByte(v)
}

func (e *encoder) boolean(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *encoder) u16(v uint16) {
	binary.LittleEndian.PutUint16(e.scratch[:2], v)
	e.buf.Write(e.scratch[:2])
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.scratch[:4], v)
	e.buf.Write(e.scratch[:4])
}

func (e *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.scratch[:8], v)
	e.buf.Write(e.scratch[:8])
}

func (e *encoder) i64(v int64) {
	e.u64(uint64(v))
}

func (e *encoder) count(n int, limit int) {
	if nil != e.err {
		return
	}
	if n > limit {
		e.err = fault.ErrInvalidCount
		return
	}
	e.err = wire.WriteVarInt(&e.buf, pver, uint64(n))
}

func (e *encoder) str(s string) {
	if len(s) > MaxStringLength {
		e.err = fault.ErrStringTooLong
		return
	}
	e.count(len(s), MaxStringLength)
	e.buf.WriteString(s)
}

func (e *encoder) hash(d digest.Digest) {
	e.buf.Write(d[:])
}

func (e *encoder) keyID(k KeyID) {
	e.buf.Write(k[:])
}

func (e *encoder) hashes(list []digest.Digest) {
	e.count(len(list), MaxVectorLength)
	for _, d := range list {
		e.hash(d)
	}
}

func (e *encoder) u64s(list []uint64, limit int) {
	e.count(len(list), limit)
	for _, v := range list {
		e.u64(v)
	}
}

// check parallel vector lengths before encoding
func (e *encoder) sameLength(n int, lengths ...int) {
	for _, l := range lengths {
		if l != n && nil == e.err {
			e.err = fault.ErrMismatchedLength
		}
	}
}

// Pack - serialise a branch
func (b *Branch) Pack() (Packed, error) {
	e := newEncoder(BranchTag)
	e.str(b.Name)
	e.str(b.Description)
	e.u64(b.BaseListingFee)
	e.u16(b.FreeDecisions)
	e.u16(b.TargetDecisions)
	e.u16(b.MaxDecisions)
	e.u64(b.MinTradingFee)
	e.u16(b.Tau)
	e.u16(b.BallotTime)
	e.u16(b.UnsealTime)
	e.u32(b.ConsensusThreshold)
	e.u64(b.Alpha)
	e.u64(b.Tol)
	return e.packed()
}

// Pack - serialise a decision
func (d *Decision) Pack() (Packed, error) {
	e := newEncoder(DecisionTag)
	e.keyID(d.Owner)
	e.hash(d.Branch)
	e.str(d.Prompt)
	e.u32(d.EventOverBy)
	e.boolean(d.IsScaled)
	e.i64(d.Minimum)
	e.i64(d.Maximum)
	e.boolean(d.AnswerOptional)
	return e.packed()
}

// Pack - serialise a market
func (m *Market) Pack() (Packed, error) {
	e := newEncoder(MarketTag)
	e.sameLength(len(m.Decisions), len(m.Functions))
	e.keyID(m.Owner)
	e.u64(m.B)
	e.u64(m.TradingFee)
	e.u64(m.MaxCommission)
	e.str(m.Title)
	e.str(m.Description)
	e.str(m.Tags)
	e.u32(m.Maturation)
	e.hash(m.Branch)
	e.hashes(m.Decisions)
	e.count(len(m.Functions), MaxVectorLength)
	for _, f := range m.Functions {
		e.u8(uint8(f))
	}
	e.u32(m.TxPoWh)
	e.u32(m.TxPoWd)
	return e.packed()
}

// Pack - serialise a trade
func (t *Trade) Pack() (Packed, error) {
	e := newEncoder(TradeTag)
	e.keyID(t.Owner)
	e.hash(t.Market)
	e.boolean(t.IsBuy)
	e.u64(t.Shares)
	e.u64(t.Price)
	e.u32(t.State)
	e.u32(t.Nonce)
	return e.packed()
}

// Pack - serialise a sealed vote
func (s *SealedVote) Pack() (Packed, error) {
	e := newEncoder(SealedVoteTag)
	e.hash(s.Branch)
	e.u32(s.Height)
	e.hash(s.VoteID)
	return e.packed()
}

// Pack - serialise a steal vote
func (s *StealVote) Pack() (Packed, error) {
	e := newEncoder(StealVoteTag)
	e.hash(s.Branch)
	e.u32(s.Height)
	e.hash(s.VoteID)
	return e.packed()
}

// Pack - serialise a reveal vote
func (r *RevealVote) Pack() (Packed, error) {
	e := newEncoder(RevealVoteTag)
	e.sameLength(len(r.Decisions), len(r.Votes))
	e.hash(r.Branch)
	e.u32(r.Height)
	e.hashes(r.Decisions)
	e.u64s(r.Votes, MaxVectorLength)
	e.u64(r.NA)
	e.keyID(r.Owner)
	return e.packed()
}

// Pack - serialise an outcome
func (o *Outcome) Pack() (Packed, error) {
	e := newEncoder(OutcomeTag)

	nVoters := len(o.Voters)
	e.sameLength(nVoters, len(o.OldRep), len(o.ThisRep), len(o.SmoothedRep),
		len(o.NARow), len(o.ParticipationRow), len(o.ParticipationRel), len(o.RowBonus))

	nDecisions := len(o.Decisions)
	e.sameLength(nDecisions, len(o.IsScaled), len(o.FirstLoading), len(o.DecisionsRaw),
		len(o.ConsensusReward), len(o.Certainty), len(o.NACol), len(o.ParticipationCol),
		len(o.AuthorBonus), len(o.DecisionsFinal))
	e.sameLength(nVoters*nDecisions, len(o.VoteMatrix))

	e.u32(o.Height)
	e.hash(o.Branch)

	e.u32(uint32(nVoters))
	e.count(nVoters, MaxVectorLength)
	for _, k := range o.Voters {
		e.keyID(k)
	}
	e.u64s(o.OldRep, MaxVectorLength)
	e.u64s(o.ThisRep, MaxVectorLength)
	e.u64s(o.SmoothedRep, MaxVectorLength)
	e.u64s(o.NARow, MaxVectorLength)
	e.u64s(o.ParticipationRow, MaxVectorLength)
	e.u64s(o.ParticipationRel, MaxVectorLength)
	e.u64s(o.RowBonus, MaxVectorLength)

	e.u32(uint32(nDecisions))
	e.hashes(o.Decisions)
	e.count(len(o.IsScaled), MaxVectorLength)
	for _, s := range o.IsScaled {
		e.boolean(s)
	}
	e.count(len(o.FirstLoading), MaxVectorLength)
	for _, v := range o.FirstLoading {
		e.i64(v)
	}
	e.u64s(o.DecisionsRaw, MaxVectorLength)
	e.u64s(o.ConsensusReward, MaxVectorLength)
	e.u64s(o.Certainty, MaxVectorLength)
	e.u64s(o.NACol, MaxVectorLength)
	e.u64s(o.ParticipationCol, MaxVectorLength)
	e.u64s(o.AuthorBonus, MaxVectorLength)
	e.u64s(o.DecisionsFinal, MaxVectorLength)
	e.u64s(o.VoteMatrix, maxMatrixLength)

	e.u64(o.NA)
	e.u64(o.Alpha)
	e.u64(o.Tol)

	e.count(len(o.Payouts), MaxVectorLength)
	for _, p := range o.Payouts {
		e.keyID(p.Owner)
		e.u64(p.Amount)
	}
	return e.packed()
}

// upper bound on vote matrix entries
const maxMatrixLength = 1 << 22
