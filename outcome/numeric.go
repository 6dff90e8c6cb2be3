// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package outcome

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bitmark-inc/marketd/util"
)

// Precision - decimal places carried by intermediate values
const Precision int32 = 20

// iterations of the Newton square root
const sqrtIterations = 64

var (
	zero = decimal.Zero
	one  = decimal.New(1, 0)
	half = decimal.New(5, -1)

	// a weight this close to half the total is treated as a tie
	medianSlack = decimal.New(1, -util.UnitDigits)

	// a vote this close to the final value counts towards certainty
	certaintySlack = decimal.New(1, -5)
)

func mul(a decimal.Decimal, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(Precision)
}

func div(a decimal.Decimal, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, Precision)
}

func sum(v []decimal.Decimal) decimal.Decimal {
	total := zero
	for _, x := range v {
		total = total.Add(x)
	}
	return total
}

// scale a vector to sum to one, a zero sum leaves zeros
func normalise(v []decimal.Decimal) []decimal.Decimal {
	result := make([]decimal.Decimal, len(v))
	total := sum(v)
	if total.IsZero() {
		for i := range result {
			result[i] = zero
		}
		return result
	}
	for i, x := range v {
		result[i] = div(x, total)
	}
	return result
}

// square root by a fixed number of Newton steps
func sqrt(x decimal.Decimal) decimal.Decimal {
	if !x.IsPositive() {
		return zero
	}
	g := x
	if g.LessThan(one) {
		g = one
	}
	for i := 0; i < sqrtIterations; i += 1 {
		g = div(g.Add(div(x, g)), decimal.New(2, 0))
	}
	return g
}

// weighted entry of one matrix column
type entry struct {
	value  decimal.Decimal
	weight decimal.Decimal
}

// mean of the entries, equal weights when every weight is zero
//
// no entries gives one half
func weightedMean(entries []entry) decimal.Decimal {
	if 0 == len(entries) {
		return half
	}
	total := zero
	for _, e := range entries {
		total = total.Add(e.weight)
	}
	if total.IsZero() {
		s := zero
		for _, e := range entries {
			s = s.Add(e.value)
		}
		return div(s, decimal.New(int64(len(entries)), 0))
	}
	s := zero
	for _, e := range entries {
		s = s.Add(mul(e.value, e.weight))
	}
	return div(s, total)
}

// median of the entries, equal weights when every weight is zero
//
// when the cumulative weight reaches exactly half the total the
// median is the midpoint of that value and the next one
func weightedMedian(entries []entry) decimal.Decimal {
	if 0 == len(entries) {
		return half
	}

	sorted := make([]entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].value.LessThan(sorted[j].value)
	})

	total := zero
	for _, e := range sorted {
		total = total.Add(e.weight)
	}
	if total.IsZero() {
		for i := range sorted {
			sorted[i].weight = one
		}
		total = decimal.New(int64(len(sorted)), 0)
	} else {
		weighted := sorted[:0]
		for _, e := range sorted {
			if !e.weight.IsZero() {
				weighted = append(weighted, e)
			}
		}
		sorted = weighted
	}

	target := mul(total, half)
	cumulative := zero
	for i, e := range sorted {
		cumulative = cumulative.Add(e.weight)
		if cumulative.LessThan(target.Sub(medianSlack)) {
			continue
		}
		if cumulative.Sub(target).Abs().LessThanOrEqual(medianSlack) && i+1 < len(sorted) {
			return mul(e.value.Add(sorted[i+1].value), half)
		}
		return e.value
	}
	return sorted[len(sorted)-1].value
}

// truncate to base units
func toUnits(d decimal.Decimal) uint64 {
	if d.IsNegative() {
		return 0
	}
	return uint64(d.Shift(util.UnitDigits).Truncate(0).IntPart())
}

func toSignedUnits(d decimal.Decimal) int64 {
	return d.Shift(util.UnitDigits).Truncate(0).IntPart()
}

func fromUnits(n uint64) decimal.Decimal {
	return decimal.New(int64(n), -util.UnitDigits)
}

func vectorUnits(v []decimal.Decimal) []uint64 {
	result := make([]uint64, len(v))
	for i, x := range v {
		result[i] = toUnits(x)
	}
	return result
}
