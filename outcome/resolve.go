// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package outcome

import (
	"github.com/shopspring/decimal"

	"github.com/bitmark-inc/marketd/fault"
)

// Input - the votes of one window
//
// Matrix is voters by decisions with values in [0, 1]; Missing marks
// the NA entries, whose Matrix value is ignored
type Input struct {
	OldRep   []decimal.Decimal
	IsScaled []bool
	Matrix   [][]decimal.Decimal
	Missing  [][]bool
	Alpha    decimal.Decimal
	Tol      decimal.Decimal
}

// Result - every vector produced by a resolution
type Result struct {
	// per voter
	OldRep           []decimal.Decimal
	ThisRep          []decimal.Decimal
	SmoothedRep      []decimal.Decimal
	NARow            []decimal.Decimal
	ParticipationRow []decimal.Decimal
	ParticipationRel []decimal.Decimal
	RowBonus         []decimal.Decimal

	// per decision
	FirstLoading     []decimal.Decimal
	DecisionsRaw     []decimal.Decimal
	ConsensusReward  []decimal.Decimal
	Certainty        []decimal.Decimal
	NACol            []decimal.Decimal
	ParticipationCol []decimal.Decimal
	AuthorBonus      []decimal.Decimal
	DecisionsFinal   []decimal.Decimal

	// Consensus is false when reputations were carried over unchanged
	Consensus bool
}

func (in *Input) check() error {
	voters := len(in.OldRep)
	decisions := len(in.IsScaled)
	if len(in.Matrix) != voters || len(in.Missing) != voters {
		return fault.ErrMismatchedLength
	}
	for i := range in.Matrix {
		if len(in.Matrix[i]) != decisions || len(in.Missing[i]) != decisions {
			return fault.ErrMismatchedLength
		}
		for j, v := range in.Matrix[i] {
			if in.Missing[i][j] {
				continue
			}
			if v.IsNegative() || v.GreaterThan(one) {
				return fault.ErrInvalidVote
			}
		}
	}
	if in.Alpha.IsNegative() || in.Alpha.GreaterThan(one) {
		return fault.ErrInvalidAlpha
	}
	if in.Tol.IsNegative() || in.Tol.GreaterThan(one) {
		return fault.ErrInvalidTolerance
	}
	for _, r := range in.OldRep {
		if r.IsNegative() {
			return fault.ErrInvalidVote
		}
	}
	return nil
}

// outcome of one column with the given voter weights
//
// dropNA excludes missing entries, otherwise the filled value is used
func column(weights []decimal.Decimal, values [][]decimal.Decimal, missing [][]bool, j int, scaled bool, dropNA bool) decimal.Decimal {
	entries := make([]entry, 0, len(weights))
	for i, w := range weights {
		if dropNA && missing[i][j] {
			continue
		}
		entries = append(entries, entry{value: values[i][j], weight: w})
	}
	if scaled {
		return weightedMedian(entries)
	}
	return weightedMean(entries)
}

// outcomes of every column
func outcomes(weights []decimal.Decimal, values [][]decimal.Decimal, missing [][]bool, scaled []bool, dropNA bool) []decimal.Decimal {
	result := make([]decimal.Decimal, len(scaled))
	for j := range scaled {
		result[j] = column(weights, values, missing, j, scaled[j], dropNA)
	}
	return result
}

func distance(a []decimal.Decimal, b []decimal.Decimal) decimal.Decimal {
	d := zero
	for i := range a {
		x := a[i].Sub(b[i])
		d = d.Add(mul(x, x))
	}
	return d
}

// Resolve - run the resolution of one window
//
// the old reputations are normalised to sum to one first; if they
// are all zero every voter is weighted equally
func Resolve(in *Input) (*Result, error) {
	if err := in.check(); nil != err {
		return nil, err
	}

	voters := len(in.OldRep)
	decisions := len(in.IsScaled)

	old := normalise(in.OldRep)
	if voters > 0 && sum(old).IsZero() {
		for i := range old {
			old[i] = one
		}
		old = normalise(old)
	}

	// preliminary outcomes fill the NA entries
	preliminary := outcomes(old, in.Matrix, in.Missing, in.IsScaled, true)
	filled := make([][]decimal.Decimal, voters)
	for i := range filled {
		filled[i] = make([]decimal.Decimal, decisions)
		for j := range filled[i] {
			if in.Missing[i][j] {
				filled[i][j] = preliminary[j]
			} else {
				filled[i][j] = in.Matrix[i][j]
			}
		}
	}

	result := &Result{
		OldRep:       old,
		FirstLoading: make([]decimal.Decimal, decisions),
	}
	for j := range result.FirstLoading {
		result.FirstLoading[j] = zero
	}

	thisRep, loading, ok := consensus(old, filled, in.IsScaled, in.Missing)
	if ok {
		result.ThisRep = thisRep
		result.FirstLoading = loading
		result.Consensus = true
	} else {
		result.ThisRep = append([]decimal.Decimal{}, old...)
	}

	// smoothed = α·this + (1−α)·old
	result.SmoothedRep = make([]decimal.Decimal, voters)
	for i := range old {
		result.SmoothedRep[i] = mul(in.Alpha, result.ThisRep[i]).Add(mul(one.Sub(in.Alpha), old[i]))
	}

	result.DecisionsRaw = outcomes(result.SmoothedRep, in.Matrix, in.Missing, in.IsScaled, true)
	result.DecisionsFinal = make([]decimal.Decimal, decisions)
	upper := half.Add(mul(half, in.Tol))
	lower := half.Sub(mul(half, in.Tol))
	for j, raw := range result.DecisionsRaw {
		switch {
		case in.IsScaled[j]:
			result.DecisionsFinal[j] = raw
		case raw.GreaterThan(upper):
			result.DecisionsFinal[j] = one
		case raw.LessThan(lower):
			result.DecisionsFinal[j] = zero
		default:
			result.DecisionsFinal[j] = half
		}
	}

	statistics(result, filled, in.Missing)
	return result, nil
}

// consensus - reputations from the first principal component
//
// ok is false when no component can be found: a single voter, all
// reputation on one voter, or every voter agreeing
func consensus(old []decimal.Decimal, filled [][]decimal.Decimal, scaled []bool, missing [][]bool) ([]decimal.Decimal, []decimal.Decimal, bool) {
	voters := len(old)
	if voters < 2 || 0 == len(scaled) {
		return nil, nil, false
	}

	means, cov, ok := covariance(old, filled, len(scaled))
	if !ok {
		return nil, nil, false
	}
	loading, ok := firstComponent(cov)
	if !ok {
		return nil, nil, false
	}

	scores := make([]decimal.Decimal, voters)
	allZero := true
	for i := range scores {
		s := zero
		for j, u := range loading {
			s = s.Add(mul(filled[i][j].Sub(means[j]), u))
		}
		scores[i] = s
		if !s.IsZero() {
			allZero = false
		}
	}
	if allZero {
		return nil, nil, false
	}

	minimum, maximum := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s.LessThan(minimum) {
			minimum = s
		}
		if s.GreaterThan(maximum) {
			maximum = s
		}
	}

	// two orientations of the component
	first := make([]decimal.Decimal, voters)
	second := make([]decimal.Decimal, voters)
	for i, s := range scores {
		first[i] = s.Sub(minimum)
		second[i] = maximum.Sub(s)
	}

	// the outcome under the prior reputation
	target := outcomes(old, filled, missing, scaled, false)

	rep1 := reweight(first, old)
	rep2 := reweight(second, old)

	chosen := rep1
	switch {
	case nil == rep1 && nil == rep2:
		return nil, nil, false
	case nil == rep1:
		chosen = rep2
	case nil != rep2:
		d1 := distance(outcomes(rep1, filled, missing, scaled, false), target)
		d2 := distance(outcomes(rep2, filled, missing, scaled, false), target)
		if d2.LessThan(d1) {
			chosen = rep2
		}
	}
	return chosen, loading, true
}

// z_i = |s_i|·r_i / mean(r), normalised; nil if all are zero
func reweight(scores []decimal.Decimal, old []decimal.Decimal) []decimal.Decimal {
	meanRep := div(sum(old), decimal.New(int64(len(old)), 0))
	if meanRep.IsZero() {
		return nil
	}
	z := make([]decimal.Decimal, len(scores))
	for i, s := range scores {
		z[i] = div(mul(s.Abs(), old[i]), meanRep)
	}
	if sum(z).IsZero() {
		return nil
	}
	return normalise(z)
}

// participation, certainty and bonus vectors
func statistics(result *Result, filled [][]decimal.Decimal, missing [][]bool) {
	voters := len(result.OldRep)
	decisions := len(result.DecisionsFinal)
	nDecisions := decimal.New(int64(decisions), 0)

	result.NARow = make([]decimal.Decimal, voters)
	result.ParticipationRow = make([]decimal.Decimal, voters)
	for i := 0; i < voters; i += 1 {
		count := 0
		for j := 0; j < decisions; j += 1 {
			if missing[i][j] {
				count += 1
			}
		}
		result.NARow[i] = decimal.New(int64(count), 0)
		if 0 == decisions {
			result.ParticipationRow[i] = one
		} else {
			result.ParticipationRow[i] = one.Sub(div(result.NARow[i], nDecisions))
		}
	}

	result.NACol = make([]decimal.Decimal, decisions)
	result.ParticipationCol = make([]decimal.Decimal, decisions)
	result.Certainty = make([]decimal.Decimal, decisions)
	for j := 0; j < decisions; j += 1 {
		count := 0
		absent := zero
		certain := zero
		for i := 0; i < voters; i += 1 {
			if missing[i][j] {
				count += 1
				absent = absent.Add(result.SmoothedRep[i])
			}
			if filled[i][j].Sub(result.DecisionsFinal[j]).Abs().LessThan(certaintySlack) {
				certain = certain.Add(result.SmoothedRep[i])
			}
		}
		result.NACol[j] = decimal.New(int64(count), 0)
		result.ParticipationCol[j] = one.Sub(absent)
		result.Certainty[j] = certain
	}

	fracNA := zero
	if decisions > 0 {
		fracNA = one.Sub(div(sum(result.ParticipationCol), nDecisions))
	}

	result.ParticipationRel = normalise(result.ParticipationRow)
	result.RowBonus = make([]decimal.Decimal, voters)
	for i := 0; i < voters; i += 1 {
		result.RowBonus[i] = mul(fracNA, result.ParticipationRel[i]).Add(mul(one.Sub(fracNA), result.SmoothedRep[i]))
	}

	relativeCol := normalise(result.ParticipationCol)
	result.ConsensusReward = normalise(result.Certainty)
	result.AuthorBonus = make([]decimal.Decimal, decisions)
	for j := 0; j < decisions; j += 1 {
		result.AuthorBonus[j] = mul(fracNA, relativeCol[j]).Add(mul(one.Sub(fracNA), result.ConsensusReward[j]))
	}
}
