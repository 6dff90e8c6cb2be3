// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/util"
)

// Precision - decimal places carried by intermediate values
const Precision int32 = 24

var (
	zero = decimal.Zero
	one  = decimal.New(1, 0)
	two  = decimal.New(2, 0)

	// exp of anything below this is dropped from a sum
	expFloor = decimal.New(-64, 0)

	ln2 = mustLn(two)
)

// FromUnits - a base unit quantity as a whole-unit decimal
func FromUnits(n int64) decimal.Decimal {
	return decimal.New(n, -util.UnitDigits)
}

// FromUnsignedUnits - as FromUnits for unsigned values
func FromUnsignedUnits(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), -util.UnitDigits)
}

// ToUnits - truncate a whole-unit decimal to base units
func ToUnits(d decimal.Decimal) int64 {
	return d.Shift(util.UnitDigits).Truncate(0).IntPart()
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}

func mul(a decimal.Decimal, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(Precision)
}

func div(a decimal.Decimal, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, Precision)
}

func exp(x decimal.Decimal) decimal.Decimal {
	if x.LessThan(expFloor) {
		return zero
	}
	r, err := x.ExpTaylor(Precision)
	fault.PanicIfError("pricing exp", err)
	return r
}

func mustLn(x decimal.Decimal) decimal.Decimal {
	r, err := x.Ln(Precision)
	fault.PanicIfError("pricing ln", err)
	return r
}

// ln of a value that must be positive
func ln(x decimal.Decimal) (decimal.Decimal, error) {
	if !x.IsPositive() {
		return zero, fault.ErrInvalidLiquidity
	}
	r, err := x.Ln(Precision)
	if nil != err {
		return zero, fault.ErrInvalidLiquidity
	}
	return r, nil
}

// exponentials shifted by the maximum so no term exceeds one
//
// returns the terms, their sum and the shift
func shiftedExp(xs []decimal.Decimal) ([]decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	m := xs[0]
	for _, x := range xs[1:] {
		if x.GreaterThan(m) {
			m = x
		}
	}
	terms := make([]decimal.Decimal, len(xs))
	sum := zero
	for i, x := range xs {
		terms[i] = exp(x.Sub(m))
		sum = sum.Add(terms[i])
	}
	return terms, sum, m
}

// ln Σ exp(x_i), the sum always includes exp(0) so it is at least one
func logSumExp(xs []decimal.Decimal) decimal.Decimal {
	_, sum, m := shiftedExp(xs)
	return round(m.Add(mustLn(sum)))
}
