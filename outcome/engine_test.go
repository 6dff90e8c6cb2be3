// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package outcome_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/outcome"
	"github.com/bitmark-inc/marketd/outcome/mocks"
	"github.com/bitmark-inc/marketd/storage"
)

const (
	testingDirName = "testing"
	coin           = marketrecord.Coin
	window         = uint32(20)
)

func TestMain(m *testing.M) {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	_ = logger.Initialise(logging)

	rc := m.Run()

	logger.Finalise()
	removeFiles()
	os.Exit(rc)
}

func removeFiles() {
	_ = os.RemoveAll(testingDirName)
}

var (
	alice = marketrecord.KeyID{0x01, 0xa1}
	bob   = marketrecord.KeyID{0x02, 0xb0}
	carol = marketrecord.KeyID{0x03, 0xc0}
	dave  = marketrecord.KeyID{0x04, 0xd0}
	erin  = marketrecord.KeyID{0x05, 0xe0}

	origin = digest.NewDigest([]byte("origin transaction"))
)

// a branch with two binary decisions on the ballot of window 20,
// a plain market on the first and a liquidity sensitive market on both
type fixture struct {
	store     *storage.Store
	branch    digest.Digest
	decisions []digest.Digest
	plain     digest.Digest
	sensitive digest.Digest
	reveals   map[marketrecord.KeyID]digest.Digest
}

func put(t *testing.T, batch *storage.Batch, obj marketrecord.Object) digest.Digest {
	r, err := batch.Put(obj, origin)
	require.NoError(t, err, "put: %s", obj.Tag())
	return r.ID
}

func setup(t *testing.T, votes map[marketrecord.KeyID][]uint64) *fixture {
	backend, err := storage.NewMemoryLevelDB()
	require.NoError(t, err, "memory backend")
	store, err := storage.New(backend, storage.ReadWrite, nil)
	require.NoError(t, err, "store")

	batch, err := store.NewBatch(1)
	require.NoError(t, err, "batch")

	f := &fixture{
		store:   store,
		reveals: make(map[marketrecord.KeyID]digest.Digest),
	}
	f.branch = put(t, batch, &marketrecord.Branch{
		Name:            "main",
		FreeDecisions:   10,
		TargetDecisions: 20,
		MaxDecisions:    30,
		Tau:             10,
		BallotTime:      2,
		UnsealTime:      2,
		Alpha:           coin / 10,
		Tol:             coin / 5,
	})
	for _, prompt := range []string{"first", "second"} {
		f.decisions = append(f.decisions, put(t, batch, &marketrecord.Decision{
			Owner:       dave,
			Branch:      f.branch,
			Prompt:      prompt,
			EventOverBy: 15,
		}))
	}
	// a decision resolved by the next window
	put(t, batch, &marketrecord.Decision{
		Owner:       dave,
		Branch:      f.branch,
		Prompt:      "later",
		EventOverBy: 25,
	})

	f.plain = put(t, batch, &marketrecord.Market{
		Owner:      dave,
		B:          10 * coin,
		TradingFee: coin / 100,
		Title:      "plain",
		Maturation: 15,
		Branch:     f.branch,
		Decisions:  f.decisions[:1],
		Functions:  []marketrecord.FunctionID{marketrecord.FunctionX1},
	})
	f.sensitive = put(t, batch, &marketrecord.Market{
		Owner:         dave,
		B:             coin,
		TradingFee:    coin / 100,
		MaxCommission: coin / 20,
		Title:         "sensitive",
		Maturation:    15,
		Branch:        f.branch,
		Decisions:     f.decisions,
		Functions:     []marketrecord.FunctionID{marketrecord.FunctionX1, marketrecord.FunctionX1},
	})

	put(t, batch, &marketrecord.Trade{Owner: alice, Market: f.plain, IsBuy: true, Shares: 10 * coin, Price: coin, State: 1})
	put(t, batch, &marketrecord.Trade{Owner: bob, Market: f.plain, IsBuy: true, Shares: 4 * coin, Price: coin, State: 0})

	for key, v := range votes {
		reveal := &marketrecord.RevealVote{
			Branch:    f.branch,
			Height:    window,
			Decisions: f.decisions,
			Votes:     v,
			NA:        outcome.NA,
			Owner:     key,
		}
		id, err := marketrecord.Hash(reveal)
		require.NoError(t, err, "reveal hash")
		put(t, batch, &marketrecord.SealedVote{Branch: f.branch, Height: window, VoteID: id})
		put(t, batch, reveal)
		f.reveals[key] = id
	}

	require.NoError(t, batch.Commit(), "commit")
	return f
}

func (f *fixture) steal(t *testing.T, key marketrecord.KeyID) {
	batch, err := f.store.NewBatch(2)
	require.NoError(t, err, "batch")
	put(t, batch, &marketrecord.StealVote{Branch: f.branch, Height: window, VoteID: f.reveals[key]})
	require.NoError(t, batch.Commit(), "commit")
}

func TestCompute(t *testing.T) {
	f := setup(t, map[marketrecord.KeyID][]uint64{
		alice: {coin, coin},
		bob:   {coin, coin},
		carol: {0, 0},
		erin:  {0, 0},
	})
	defer f.store.Close()
	f.steal(t, erin)

	e := outcome.New(f.store, nil)
	o, err := e.Compute(f.branch, window)
	require.NoError(t, err, "compute")

	assert.Equal(t, window, o.Height, "height")
	assert.Equal(t, f.branch, o.Branch, "branch")
	assert.Equal(t, []marketrecord.KeyID{alice, bob, carol}, o.Voters, "stolen vote excluded")
	assert.Equal(t, f.decisions, o.Decisions, "ballot")
	assert.Equal(t, []bool{false, false}, o.IsScaled, "scaled")
	assert.Equal(t, []uint64{coin, coin, coin, coin, 0, 0}, o.VoteMatrix, "vote matrix")
	assert.Equal(t, uint64(outcome.NA), o.NA, "NA")
	assert.Equal(t, uint64(coin/10), o.Alpha, "alpha")
	assert.Equal(t, uint64(coin/5), o.Tol, "tol")

	assert.Equal(t, []uint64{33333333, 33333333, 33333333}, o.OldRep, "old")
	assert.Equal(t, []uint64{50000000, 50000000, 0}, o.ThisRep, "this")
	assert.Equal(t, []uint64{35000000, 35000000, 30000000}, o.SmoothedRep, "smoothed")
	assert.Equal(t, []uint64{0, 0, 0}, o.NARow, "NA row")
	assert.Equal(t, []uint64{coin, coin, coin}, o.ParticipationRow, "participation row")
	assert.Equal(t, []uint64{33333333, 33333333, 33333333}, o.ParticipationRel, "participation rel")
	assert.Equal(t, []uint64{35000000, 35000000, 30000000}, o.RowBonus, "row bonus")

	assert.Equal(t, []int64{70710678, 70710678}, o.FirstLoading, "loading")
	assert.Equal(t, []uint64{70000000, 70000000}, o.DecisionsRaw, "raw")
	assert.Equal(t, []uint64{50000000, 50000000}, o.ConsensusReward, "reward")
	assert.Equal(t, []uint64{70000000, 70000000}, o.Certainty, "certainty")
	assert.Equal(t, []uint64{0, 0}, o.NACol, "NA col")
	assert.Equal(t, []uint64{coin, coin}, o.ParticipationCol, "participation col")
	assert.Equal(t, []uint64{50000000, 50000000}, o.AuthorBonus, "author bonus")
	assert.Equal(t, []uint64{coin, coin}, o.DecisionsFinal, "final")

	// alice holds the winning state, the sensitive market returns its subsidy
	expected := []marketrecord.Payout{
		{Owner: alice, Amount: 10 * coin},
		{Owner: dave, Amount: 2772588722},
	}
	assert.Equal(t, expected, o.Payouts, "payouts")

	packed, err := o.Pack()
	require.NoError(t, err, "pack")
	obj, err := packed.Unpack()
	require.NoError(t, err, "unpack")
	if diff := cmp.Diff(o, obj, cmpopts.EquateEmpty()); "" != diff {
		t.Errorf("outcome round trip: %s", diff)
	}

	again, err := outcome.New(f.store, nil).Compute(f.branch, window)
	require.NoError(t, err, "compute again")
	repacked, err := again.Pack()
	require.NoError(t, err, "pack again")
	assert.Equal(t, packed, repacked, "deterministic outcome")
}

func TestComputeWithReputationSource(t *testing.T) {
	f := setup(t, map[marketrecord.KeyID][]uint64{
		alice: {coin, coin},
		bob:   {coin, outcome.NA},
		carol: {0, 0},
	})
	defer f.store.Close()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockReputationSource(ctrl)
	source.EXPECT().
		Reputation(f.branch, window).
		Return(map[marketrecord.KeyID]uint64{alice: coin / 2}, nil).
		Times(1)

	o, err := outcome.New(f.store, source).Compute(f.branch, window)
	require.NoError(t, err, "compute")

	// bob and carol are newcomers with a third of a coin each
	assert.Equal(t, []uint64{42857143, 28571428, 28571428}, o.OldRep, "old")
	assert.Equal(t, uint64(outcome.NA), o.VoteMatrix[3], "missing vote")
	assert.Equal(t, []uint64{0, coin, 0}, o.NARow, "NA row")
	assert.Equal(t, []uint64{0, coin}, o.NACol, "NA col")
	assert.Equal(t, []uint64{64949058, 35050941, 0}, o.ThisRep, "this")
	assert.Equal(t, []uint64{45066334, 29219379, 25714285}, o.SmoothedRep, "smoothed")
	assert.Equal(t, []int64{73986792, 67275214}, o.FirstLoading, "loading")
	assert.Equal(t, []uint64{74285714, 63670443}, o.DecisionsRaw, "raw")
	assert.Equal(t, []uint64{coin, coin}, o.DecisionsFinal, "final")
	assert.Equal(t, []uint64{coin, 70780620}, o.ParticipationCol, "participation col")
}

func TestComputeErrors(t *testing.T) {
	f := setup(t, nil)
	defer f.store.Close()

	e := outcome.New(f.store, nil)

	_, err := e.Compute(f.branch, window)
	assert.Equal(t, fault.ErrNoVoters, err, "no voters")

	_, err = e.Compute(f.branch, window+1)
	assert.Equal(t, fault.ErrInvalidHeight, err, "not a window")

	_, err = e.Compute(f.branch, 0)
	assert.Equal(t, fault.ErrInvalidHeight, err, "window zero")

	_, err = e.Compute(digest.NewDigest([]byte("nowhere")), window)
	assert.Equal(t, fault.ErrBranchNotFound, err, "unknown branch")
}

func TestCarryForward(t *testing.T) {
	f := setup(t, nil)
	defer f.store.Close()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockReputationSource(ctrl)
	source.EXPECT().
		Reputation(f.branch, window).
		Return(map[marketrecord.KeyID]uint64{bob: 40000000, alice: 60000000}, nil)

	o, err := outcome.New(f.store, source).CarryForward(f.branch, window)
	require.NoError(t, err, "carry forward")

	assert.Equal(t, []marketrecord.KeyID{alice, bob}, o.Voters, "voters in key order")
	assert.Equal(t, []uint64{60000000, 40000000}, o.SmoothedRep, "reputation kept")
	assert.Equal(t, []uint64{coin / 2, coin / 2}, o.DecisionsFinal, "finals")
	assert.Equal(t, []uint64{outcome.NA, outcome.NA, outcome.NA, outcome.NA}, o.VoteMatrix, "all missing")

	// every market settles at one half
	expected := []marketrecord.Payout{
		{Owner: alice, Amount: 5 * coin},
		{Owner: bob, Amount: 2 * coin},
		{Owner: dave, Amount: 2772588722},
	}
	assert.Equal(t, expected, o.Payouts, "payouts")
}

func TestPriorOutcomeReputation(t *testing.T) {
	f := setup(t, nil)
	defer f.store.Close()

	source := outcome.NewPriorOutcomeReputation(f.store)
	rep, err := source.Reputation(f.branch, window)
	require.NoError(t, err, "empty")
	assert.Empty(t, rep, "no earlier outcome")

	batch, err := f.store.NewBatch(2)
	require.NoError(t, err, "batch")
	put(t, batch, &marketrecord.Outcome{
		Height:      10,
		Branch:      f.branch,
		Voters:      []marketrecord.KeyID{alice, bob},
		OldRep:      []uint64{coin / 2, coin / 2},
		ThisRep:     []uint64{coin / 2, coin / 2},
		SmoothedRep: []uint64{70000000, 30000000},
		NARow:       []uint64{0, 0},

		ParticipationRow: []uint64{coin, coin},
		ParticipationRel: []uint64{coin / 2, coin / 2},
		RowBonus:         []uint64{coin / 2, coin / 2},
		NA:               outcome.NA,
	})
	require.NoError(t, batch.Commit(), "commit")

	rep, err = source.Reputation(f.branch, window)
	require.NoError(t, err, "prior")
	assert.Equal(t, map[marketrecord.KeyID]uint64{alice: 70000000, bob: 30000000}, rep, "reputation")

	rep, err = source.Reputation(f.branch, 10)
	require.NoError(t, err, "same window")
	assert.Empty(t, rep, "only earlier windows")
}
