// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marketrecord

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
)

// read fields in order, the first failure sticks
type decoder struct {
	r   *bytes.Reader
	err error
}

func (d *decoder) read(n int) []byte {
	if nil != d.err {
		return nil
	}
	if n > d.r.Len() {
		d.err = fault.ErrTruncatedRecord
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); nil != err {
		d.err = fault.ErrTruncatedRecord
		return nil
	}
	return b
}

func (d *decoder) u8() uint8 {
	b := d.read(1)
	if nil == b {
		return 0
	}
	return b[0]
}

func (d *decoder) boolean() bool {
	switch d.u8() {
	case 0:
		return false
	case 1:
		return true
	default:
		if nil == d.err {
			d.err = fault.ErrFieldOutOfRange
		}
		return false
	}
}

func (d *decoder) u16() uint16 {
	b := d.read(2)
	if nil == b {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *decoder) u32() uint32 {
	b := d.read(4)
	if nil == b {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.read(8)
	if nil == b {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) i64() int64 {
	return int64(d.u64())
}

// CompactSize count, must be canonical and within limit
func (d *decoder) count(limit int) int {
	if nil != d.err {
		return 0
	}
	n, err := wire.ReadVarInt(d.r, pver)
	if nil != err {
		if io.EOF == err || io.ErrUnexpectedEOF == err {
			d.err = fault.ErrTruncatedRecord
		} else {
			d.err = fault.ErrInvalidCount
		}
		return 0
	}
	if n > uint64(limit) {
		d.err = fault.ErrInvalidCount
		return 0
	}
	return int(n)
}

func (d *decoder) str() string {
	n := d.count(MaxStringLength)
	return string(d.read(n))
}

func (d *decoder) hash() digest.Digest {
	var h digest.Digest
	copy(h[:], d.read(digest.Length))
	return h
}

func (d *decoder) keyID() KeyID {
	var k KeyID
	copy(k[:], d.read(KeyIDLength))
	return k
}

func (d *decoder) hashes() []digest.Digest {
	n := d.count(MaxVectorLength)
	list := make([]digest.Digest, 0, n)
	for i := 0; i < n && nil == d.err; i += 1 {
		list = append(list, d.hash())
	}
	return list
}

func (d *decoder) u64s(limit int) []uint64 {
	n := d.count(limit)
	if n > d.r.Len()/8 {
		if nil == d.err {
			d.err = fault.ErrTruncatedRecord
		}
		return nil
	}
	list := make([]uint64, 0, n)
	for i := 0; i < n && nil == d.err; i += 1 {
		list = append(list, d.u64())
	}
	return list
}

func (d *decoder) expect(n int, lengths ...int) {
	for _, l := range lengths {
		if l != n && nil == d.err {
			d.err = fault.ErrMismatchedLength
		}
	}
}

// finish decoding: every byte must have been consumed
func (d *decoder) done() error {
	if nil != d.err {
		return d.err
	}
	if 0 != d.r.Len() {
		return fault.ErrTrailingData
	}
	return nil
}

// Unpack - turn a byte slice into an object
//
// the whole slice must be a single record
func (record Packed) Unpack() (Object, error) {
	if 0 == len(record) {
		return nil, fault.ErrTruncatedRecord
	}

	d := &decoder{r: bytes.NewReader(record[1:])}

	var obj Object
	switch TagType(record[0]) {
	case BranchTag:
		obj = d.branch()
	case DecisionTag:
		obj = d.decision()
	case MarketTag:
		obj = d.market()
	case TradeTag:
		obj = d.trade()
	case SealedVoteTag:
		obj = &SealedVote{
			Branch: d.hash(),
			Height: d.u32(),
			VoteID: d.hash(),
		}
	case StealVoteTag:
		obj = &StealVote{
			Branch: d.hash(),
			Height: d.u32(),
			VoteID: d.hash(),
		}
	case RevealVoteTag:
		obj = d.revealVote()
	case OutcomeTag:
		obj = d.outcome()
	default:
		return nil, fault.ErrUnknownRecordType
	}

	if err := d.done(); nil != err {
		return nil, err
	}
	return obj, nil
}

func (d *decoder) branch() *Branch {
	return &Branch{
		Name:               d.str(),
		Description:        d.str(),
		BaseListingFee:     d.u64(),
		FreeDecisions:      d.u16(),
		TargetDecisions:    d.u16(),
		MaxDecisions:       d.u16(),
		MinTradingFee:      d.u64(),
		Tau:                d.u16(),
		BallotTime:         d.u16(),
		UnsealTime:         d.u16(),
		ConsensusThreshold: d.u32(),
		Alpha:              d.u64(),
		Tol:                d.u64(),
	}
}

func (d *decoder) decision() *Decision {
	return &Decision{
		Owner:          d.keyID(),
		Branch:         d.hash(),
		Prompt:         d.str(),
		EventOverBy:    d.u32(),
		IsScaled:       d.boolean(),
		Minimum:        d.i64(),
		Maximum:        d.i64(),
		AnswerOptional: d.boolean(),
	}
}

func (d *decoder) market() *Market {
	m := &Market{
		Owner:         d.keyID(),
		B:             d.u64(),
		TradingFee:    d.u64(),
		MaxCommission: d.u64(),
		Title:         d.str(),
		Description:   d.str(),
		Tags:          d.str(),
		Maturation:    d.u32(),
		Branch:        d.hash(),
		Decisions:     d.hashes(),
	}
	n := d.count(MaxVectorLength)
	m.Functions = make([]FunctionID, 0, n)
	for _, b := range d.read(n) {
		f := FunctionID(b)
		if !f.Valid() && nil == d.err {
			d.err = fault.ErrUnknownFunction
		}
		m.Functions = append(m.Functions, f)
	}
	d.expect(len(m.Decisions), len(m.Functions))
	m.TxPoWh = d.u32()
	m.TxPoWd = d.u32()
	return m
}

func (d *decoder) trade() *Trade {
	return &Trade{
		Owner:  d.keyID(),
		Market: d.hash(),
		IsBuy:  d.boolean(),
		Shares: d.u64(),
		Price:  d.u64(),
		State:  d.u32(),
		Nonce:  d.u32(),
	}
}

func (d *decoder) revealVote() *RevealVote {
	r := &RevealVote{
		Branch:    d.hash(),
		Height:    d.u32(),
		Decisions: d.hashes(),
		Votes:     d.u64s(MaxVectorLength),
		NA:        d.u64(),
		Owner:     d.keyID(),
	}
	d.expect(len(r.Decisions), len(r.Votes))
	return r
}

func (d *decoder) outcome() *Outcome {
	o := &Outcome{
		Height: d.u32(),
		Branch: d.hash(),
	}

	nVoters := int(d.u32())
	n := d.count(MaxVectorLength)
	d.expect(nVoters, n)
	o.Voters = make([]KeyID, 0, n)
	for i := 0; i < n && nil == d.err; i += 1 {
		o.Voters = append(o.Voters, d.keyID())
	}
	o.OldRep = d.u64s(MaxVectorLength)
	o.ThisRep = d.u64s(MaxVectorLength)
	o.SmoothedRep = d.u64s(MaxVectorLength)
	o.NARow = d.u64s(MaxVectorLength)
	o.ParticipationRow = d.u64s(MaxVectorLength)
	o.ParticipationRel = d.u64s(MaxVectorLength)
	o.RowBonus = d.u64s(MaxVectorLength)
	d.expect(len(o.Voters), len(o.OldRep), len(o.ThisRep), len(o.SmoothedRep),
		len(o.NARow), len(o.ParticipationRow), len(o.ParticipationRel), len(o.RowBonus))

	nDecisions := int(d.u32())
	o.Decisions = d.hashes()
	d.expect(nDecisions, len(o.Decisions))

	n = d.count(MaxVectorLength)
	o.IsScaled = make([]bool, 0, n)
	for i := 0; i < n && nil == d.err; i += 1 {
		o.IsScaled = append(o.IsScaled, d.boolean())
	}
	n = d.count(MaxVectorLength)
	o.FirstLoading = make([]int64, 0, n)
	for i := 0; i < n && nil == d.err; i += 1 {
		o.FirstLoading = append(o.FirstLoading, d.i64())
	}
	o.DecisionsRaw = d.u64s(MaxVectorLength)
	o.ConsensusReward = d.u64s(MaxVectorLength)
	o.Certainty = d.u64s(MaxVectorLength)
	o.NACol = d.u64s(MaxVectorLength)
	o.ParticipationCol = d.u64s(MaxVectorLength)
	o.AuthorBonus = d.u64s(MaxVectorLength)
	o.DecisionsFinal = d.u64s(MaxVectorLength)
	d.expect(len(o.Decisions), len(o.IsScaled), len(o.FirstLoading), len(o.DecisionsRaw),
		len(o.ConsensusReward), len(o.Certainty), len(o.NACol), len(o.ParticipationCol),
		len(o.AuthorBonus), len(o.DecisionsFinal))

	o.VoteMatrix = d.u64s(maxMatrixLength)
	d.expect(len(o.Voters)*len(o.Decisions), len(o.VoteMatrix))

	o.NA = d.u64()
	o.Alpha = d.u64()
	o.Tol = d.u64()

	n = d.count(MaxVectorLength)
	o.Payouts = make([]Payout, 0, n)
	for i := 0; i < n && nil == d.err; i += 1 {
		o.Payouts = append(o.Payouts, Payout{
			Owner:  d.keyID(),
			Amount: d.u64(),
		})
	}
	return o
}
