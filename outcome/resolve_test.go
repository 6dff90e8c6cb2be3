// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package outcome_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/outcome"
)

func decimals(values ...float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(values))
	for i, v := range values {
		result[i] = decimal.NewFromFloat(v)
	}
	return result
}

func matrixOf(rows ...[]float64) [][]decimal.Decimal {
	result := make([][]decimal.Decimal, len(rows))
	for i, r := range rows {
		result[i] = decimals(r...)
	}
	return result
}

func noneMissing(voters int, decisions int) [][]bool {
	result := make([][]bool, voters)
	for i := range result {
		result[i] = make([]bool, decisions)
	}
	return result
}

// truncated to base units
func units(v []decimal.Decimal) []int64 {
	result := make([]int64, len(v))
	for i, x := range v {
		result[i] = x.Shift(8).Truncate(0).IntPart()
	}
	return result
}

// two voters agree, one dissents, in either orientation of the component
func TestResolveDissenter(t *testing.T) {
	items := []struct {
		matrix [][]decimal.Decimal
		final  []int64
		raw    []int64
	}{
		{matrixOf([]float64{1, 1}, []float64{1, 1}, []float64{0, 0}), []int64{100000000, 100000000}, []int64{70000000, 70000000}},
		{matrixOf([]float64{0, 0}, []float64{0, 0}, []float64{1, 1}), []int64{0, 0}, []int64{30000000, 30000000}},
	}

	for i, item := range items {
		result, err := outcome.Resolve(&outcome.Input{
			OldRep:   decimals(1, 1, 1),
			IsScaled: []bool{false, false},
			Matrix:   item.matrix,
			Missing:  noneMissing(3, 2),
			Alpha:    decimal.NewFromFloat(0.1),
			Tol:      decimal.NewFromFloat(0.2),
		})
		require.NoError(t, err, "%d: resolve", i)

		assert.True(t, result.Consensus, "%d: consensus", i)
		assert.Equal(t, []int64{33333333, 33333333, 33333333}, units(result.OldRep), "%d: old", i)
		assert.Equal(t, []int64{50000000, 50000000, 0}, units(result.ThisRep), "%d: this", i)
		assert.Equal(t, []int64{35000000, 35000000, 30000000}, units(result.SmoothedRep), "%d: smoothed", i)
		assert.Equal(t, []int64{70710678, 70710678}, units(result.FirstLoading), "%d: loading", i)
		assert.Equal(t, item.raw, units(result.DecisionsRaw), "%d: raw", i)
		assert.Equal(t, item.final, units(result.DecisionsFinal), "%d: final", i)
		assert.Equal(t, []int64{70000000, 70000000}, units(result.Certainty), "%d: certainty", i)
		assert.Equal(t, []int64{50000000, 50000000}, units(result.ConsensusReward), "%d: reward", i)
		assert.Equal(t, []int64{50000000, 50000000}, units(result.AuthorBonus), "%d: author bonus", i)
		assert.Equal(t, []int64{35000000, 35000000, 30000000}, units(result.RowBonus), "%d: row bonus", i)
		assert.Equal(t, []int64{33333333, 33333333, 33333333}, units(result.ParticipationRel), "%d: participation rel", i)

		assert.Equal(t, "0.35", result.SmoothedRep[0].String(), "%d: exact smoothed", i)
		assert.Equal(t, "0.7071067811865475244", result.FirstLoading[0].String(), "%d: exact loading", i)
	}
}

func TestResolveMixedWithNA(t *testing.T) {
	missing := noneMissing(4, 3)
	missing[1][1] = true

	result, err := outcome.Resolve(&outcome.Input{
		OldRep:   decimals(0.4, 0.3, 0.2, 0.1),
		IsScaled: []bool{false, false, true},
		Matrix: matrixOf(
			[]float64{1, 0, 0.6},
			[]float64{1, 0, 0.5},
			[]float64{1, 1, 0.55},
			[]float64{0, 0, 0.9},
		),
		Missing: missing,
		Alpha:   decimal.NewFromFloat(0.2),
		Tol:     decimal.NewFromFloat(0.1),
	})
	require.NoError(t, err, "resolve")

	assert.True(t, result.Consensus, "consensus")
	assert.Equal(t, []int64{40000000, 30000000, 20000000, 10000000}, units(result.OldRep), "old")
	assert.Equal(t, []int64{28096311, 32581238, 39322450, 0}, units(result.ThisRep), "this")
	assert.Equal(t, []int64{37619262, 30516247, 23864490, 8000000}, units(result.SmoothedRep), "smoothed")
	assert.Equal(t, []int64{43842543, 87947909, -18520170}, units(result.FirstLoading), "loading")
	assert.Equal(t, []int64{92000000, 34345425, 55000000}, units(result.DecisionsRaw), "raw")
	assert.Equal(t, []int64{100000000, 0, 55000000}, units(result.DecisionsFinal), "final")

	assert.Equal(t, []int64{0, 100000000, 0, 0}, units(result.NARow), "NA row")
	assert.Equal(t, []int64{100000000, 66666666, 100000000, 100000000}, units(result.ParticipationRow), "participation row")
	assert.Equal(t, []int64{27272727, 18181818, 27272727, 27272727}, units(result.ParticipationRel), "participation rel")
	assert.Equal(t, []int64{36566804, 29261579, 24211178, 9960437}, units(result.RowBonus), "row bonus")

	assert.Equal(t, []int64{0, 100000000, 0}, units(result.NACol), "NA col")
	assert.Equal(t, []int64{100000000, 69483752, 100000000}, units(result.ParticipationCol), "participation col")
	assert.Equal(t, []int64{91999999, 45619262, 23864490}, units(result.Certainty), "certainty")
	assert.Equal(t, []int64{56971675, 28250063, 14778260}, units(result.ConsensusReward), "reward")
	assert.Equal(t, []int64{54951125, 27999215, 17049659}, units(result.AuthorBonus), "author bonus")

	// reputation sums are carried exactly, so certainty falls one
	// place short of the raw outcome
	assert.Equal(t, "0.91999999999999999999", result.Certainty[0].String(), "exact certainty")
	assert.Equal(t, "-0.18520170326394254132", result.FirstLoading[2].String(), "exact loading")
}

func TestResolveFallbacks(t *testing.T) {
	// a single voter keeps its reputation
	result, err := outcome.Resolve(&outcome.Input{
		OldRep:   decimals(5),
		IsScaled: []bool{false},
		Matrix:   matrixOf([]float64{0.56}),
		Missing:  noneMissing(1, 1),
		Alpha:    decimal.NewFromFloat(0.5),
		Tol:      decimal.NewFromFloat(0.2),
	})
	require.NoError(t, err, "single voter")
	assert.False(t, result.Consensus, "single voter consensus")
	assert.Equal(t, []int64{100000000}, units(result.ThisRep), "single this")
	assert.Equal(t, []int64{50000000}, units(result.DecisionsFinal), "within tolerance")

	// unanimous voters keep their reputation
	result, err = outcome.Resolve(&outcome.Input{
		OldRep:   decimals(0.25, 0.75),
		IsScaled: []bool{false, true},
		Matrix:   matrixOf([]float64{1, 0.3}, []float64{1, 0.3}),
		Missing:  noneMissing(2, 2),
		Alpha:    decimal.NewFromFloat(0.5),
		Tol:      decimal.NewFromFloat(0.2),
	})
	require.NoError(t, err, "unanimous")
	assert.False(t, result.Consensus, "unanimous consensus")
	assert.Equal(t, []int64{25000000, 75000000}, units(result.SmoothedRep), "unanimous smoothed")
	assert.Equal(t, []int64{100000000, 30000000}, units(result.DecisionsFinal), "unanimous final")

	// every vote missing resolves to one half
	missing := [][]bool{{true}, {true}}
	result, err = outcome.Resolve(&outcome.Input{
		OldRep:   decimals(0, 0),
		IsScaled: []bool{false},
		Matrix:   matrixOf([]float64{0}, []float64{0}),
		Missing:  missing,
		Alpha:    decimal.NewFromFloat(0.5),
		Tol:      decimal.NewFromFloat(0.2),
	})
	require.NoError(t, err, "all missing")
	assert.Equal(t, []int64{50000000, 50000000}, units(result.OldRep), "equal weights")
	assert.Equal(t, []int64{50000000}, units(result.DecisionsFinal), "half")
	assert.Equal(t, []int64{0}, units(result.ParticipationCol), "no participation")
}

func TestResolveRejects(t *testing.T) {
	in := &outcome.Input{
		OldRep:   decimals(1, 1),
		IsScaled: []bool{false},
		Matrix:   matrixOf([]float64{1}, []float64{1.5}),
		Missing:  noneMissing(2, 1),
		Alpha:    decimal.NewFromFloat(0.5),
		Tol:      decimal.NewFromFloat(0.2),
	}
	_, err := outcome.Resolve(in)
	assert.Equal(t, fault.ErrInvalidVote, err, "vote above one")

	in.Matrix = matrixOf([]float64{1})
	_, err = outcome.Resolve(in)
	assert.Equal(t, fault.ErrMismatchedLength, err, "short matrix")

	in.Matrix = matrixOf([]float64{1}, []float64{0})
	in.Alpha = decimal.NewFromFloat(1.5)
	_, err = outcome.Resolve(in)
	assert.Equal(t, fault.ErrInvalidAlpha, err, "alpha")
}

func TestResolveDeterministic(t *testing.T) {
	in := func() *outcome.Input {
		missing := noneMissing(5, 3)
		missing[0][2] = true
		missing[4][0] = true
		return &outcome.Input{
			OldRep:   decimals(0.1, 0.3, 0.2, 0.25, 0.15),
			IsScaled: []bool{false, true, false},
			Matrix: matrixOf(
				[]float64{1, 0.2, 0},
				[]float64{0, 0.4, 1},
				[]float64{1, 0.9, 1},
				[]float64{0.5, 0.1, 0},
				[]float64{0, 0.3, 1},
			),
			Missing: missing,
			Alpha:   decimal.NewFromFloat(0.1),
			Tol:     decimal.NewFromFloat(0.1),
		}
	}

	first, err := outcome.Resolve(in())
	require.NoError(t, err, "first")
	second, err := outcome.Resolve(in())
	require.NoError(t, err, "second")

	equal := cmp.Comparer(func(a, b decimal.Decimal) bool {
		return a.Equal(b) && a.String() == b.String()
	})
	if diff := cmp.Diff(first, second, equal); "" != diff {
		t.Errorf("results differ: %s", diff)
	}
}
