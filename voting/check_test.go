// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/voting"
)

func TestCheckBranch(t *testing.T) {
	assert.NoError(t, voting.CheckBranch(testBranch()), "valid branch")

	items := []struct {
		modify   func(*marketrecord.Branch)
		expected error
	}{
		{func(b *marketrecord.Branch) { b.Name = "" }, fault.ErrInvalidBranch},
		{func(b *marketrecord.Branch) { b.Tau = 0 }, fault.ErrZeroTau},
		{func(b *marketrecord.Branch) { b.BallotTime = 0 }, fault.ErrInvalidBranch},
		{func(b *marketrecord.Branch) { b.UnsealTime = 0 }, fault.ErrInvalidBranch},
		{func(b *marketrecord.Branch) { b.UnsealTime = 7 }, fault.ErrInvalidBranch},
		{func(b *marketrecord.Branch) { b.FreeDecisions = 25 }, fault.ErrInvalidBranch},
		{func(b *marketrecord.Branch) { b.MaxDecisions = 5 }, fault.ErrInvalidBranch},
		{func(b *marketrecord.Branch) { b.Alpha = marketrecord.Coin + 1 }, fault.ErrInvalidAlpha},
		{func(b *marketrecord.Branch) { b.Tol = marketrecord.Coin + 1 }, fault.ErrInvalidTolerance},
	}

	for i, item := range items {
		b := testBranch()
		item.modify(b)
		assert.Equal(t, item.expected, voting.CheckBranch(b), "%d", i)
	}

	// ballotTime + unsealTime + 1 = tau − 1 still resolves inside the window
	b := testBranch()
	b.UnsealTime = 6
	assert.NoError(t, voting.CheckBranch(b), "latest resolution")
}

// tau=10 ballotTime=2 unsealTime=2 window 20
func TestVotePhaseGating(t *testing.T) {
	branch := testBranch()
	branchID := digest.NewDigest([]byte("main"))
	decision := &marketrecord.Decision{
		Branch:      branchID,
		Prompt:      "will it rain",
		EventOverBy: 15,
	}

	sealed := &marketrecord.SealedVote{
		Branch: branchID,
		Height: 20,
		VoteID: digest.NewDigest([]byte("vote")),
	}
	assert.NoError(t, voting.CheckSealed(branch, sealed, 21), "sealed at 21")
	assert.Equal(t, fault.ErrWrongPhase, voting.CheckSealed(branch, sealed, 23), "sealed at 23")
	assert.Equal(t, fault.ErrHeightMismatch, voting.CheckSealed(branch, sealed, 31), "sealed in next window")

	sealed.Height = 21
	assert.Equal(t, fault.ErrInvalidHeight, voting.CheckSealed(branch, sealed, 21), "not a multiple of tau")

	sealed.Height = 20
	sealed.VoteID = digest.Digest{}
	assert.Equal(t, fault.ErrInvalidVote, voting.CheckSealed(branch, sealed, 21), "zero vote id")

	reveal := &marketrecord.RevealVote{
		Branch:    branchID,
		Height:    20,
		Decisions: []digest.Digest{digest.NewDigest([]byte("decision"))},
		Votes:     []uint64{marketrecord.Coin},
		NA:        1,
	}
	decisions := []*marketrecord.Decision{decision}

	assert.NoError(t, voting.CheckReveal(branch, branchID, reveal, decisions, 24), "reveal at 24")
	assert.Equal(t, fault.ErrWrongPhase, voting.CheckReveal(branch, branchID, reveal, decisions, 27), "reveal at 27")
	assert.Equal(t, fault.ErrWrongPhase, voting.CheckReveal(branch, branchID, reveal, decisions, 22), "reveal while sealing")

	steal := &marketrecord.StealVote{
		Branch: branchID,
		Height: 20,
		VoteID: digest.NewDigest([]byte("vote")),
	}
	assert.NoError(t, voting.CheckSteal(branch, steal, 23), "steal at 23")
	assert.Equal(t, fault.ErrWrongPhase, voting.CheckSteal(branch, steal, 25), "steal at resolution")
}

func TestCheckRevealEntries(t *testing.T) {
	branch := testBranch()
	branchID := digest.NewDigest([]byte("main"))
	binary := &marketrecord.Decision{
		Branch:      branchID,
		Prompt:      "binary",
		EventOverBy: 15,
	}
	scaled := &marketrecord.Decision{
		Branch:      branchID,
		Prompt:      "scaled",
		EventOverBy: 18,
		IsScaled:    true,
		Minimum:     -50,
		Maximum:     50,
	}
	idB := digest.NewDigest([]byte("binary"))
	idS := digest.NewDigest([]byte("scaled"))
	minusTen := int64(-10)

	reveal := func(votes ...uint64) *marketrecord.RevealVote {
		return &marketrecord.RevealVote{
			Branch:    branchID,
			Height:    20,
			Decisions: []digest.Digest{idB, idS},
			Votes:     votes,
			NA:        marketrecord.Coin + 1,
		}
	}
	decisions := []*marketrecord.Decision{binary, scaled}

	assert.NoError(t, voting.CheckReveal(branch, branchID, reveal(0, uint64(minusTen)), decisions, 23), "negative scaled vote")
	assert.NoError(t, voting.CheckReveal(branch, branchID, reveal(marketrecord.Coin+1, marketrecord.Coin+1), decisions, 23), "NA votes")
	assert.Equal(t, fault.ErrInvalidVote, voting.CheckReveal(branch, branchID, reveal(marketrecord.Coin+2, 0), decisions, 23), "binary range")
	assert.Equal(t, fault.ErrInvalidVote, voting.CheckReveal(branch, branchID, reveal(0, 51), decisions, 23), "scaled range")
	assert.Equal(t, fault.ErrMismatchedLength, voting.CheckReveal(branch, branchID, reveal(0), decisions, 23), "short votes")

	duplicate := reveal(0, 0)
	duplicate.Decisions[1] = idB
	assert.Equal(t, fault.ErrDuplicateDecision, voting.CheckReveal(branch, branchID, duplicate, decisions, 23), "duplicate decision")

	late := *scaled
	late.EventOverBy = 21
	assert.Equal(t, fault.ErrNotOnBallot, voting.CheckReveal(branch, branchID, reveal(0, 0), []*marketrecord.Decision{binary, &late}, 23), "not on ballot")

	other := *binary
	other.Branch = digest.NewDigest([]byte("other"))
	assert.Equal(t, fault.ErrWrongBranch, voting.CheckReveal(branch, branchID, reveal(0, 0), []*marketrecord.Decision{&other, scaled}, 23), "wrong branch")

	empty := reveal()
	empty.Decisions = nil
	assert.Equal(t, fault.ErrMissingDecisions, voting.CheckReveal(branch, branchID, empty, nil, 23), "empty")
}
