// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package outcome

import (
	"github.com/shopspring/decimal"
)

// power iteration steps for the first principal component
const powerIterations = 64

// reputation weighted covariance of the columns of a filled matrix
//
// returns the column means and the covariance, ok is false when
// 1 − Σr² is zero
func covariance(weights []decimal.Decimal, filled [][]decimal.Decimal, columns int) ([]decimal.Decimal, [][]decimal.Decimal, bool) {
	means := make([]decimal.Decimal, columns)
	for j := 0; j < columns; j += 1 {
		m := zero
		for i, w := range weights {
			m = m.Add(mul(w, filled[i][j]))
		}
		means[j] = m
	}

	squares := zero
	for _, w := range weights {
		squares = squares.Add(mul(w, w))
	}
	denominator := one.Sub(squares)
	if !denominator.IsPositive() {
		return means, nil, false
	}

	centred := make([][]decimal.Decimal, len(weights))
	for i := range weights {
		centred[i] = make([]decimal.Decimal, columns)
		for j := 0; j < columns; j += 1 {
			centred[i][j] = filled[i][j].Sub(means[j])
		}
	}

	cov := make([][]decimal.Decimal, columns)
	for j := 0; j < columns; j += 1 {
		cov[j] = make([]decimal.Decimal, columns)
	}
	for j := 0; j < columns; j += 1 {
		for k := j; k < columns; k += 1 {
			s := zero
			for i, w := range weights {
				s = s.Add(mul(w, mul(centred[i][j], centred[i][k])))
			}
			c := div(s, denominator)
			cov[j][k] = c
			cov[k][j] = c
		}
	}
	return means, cov, true
}

func multiply(a [][]decimal.Decimal, v []decimal.Decimal) []decimal.Decimal {
	result := make([]decimal.Decimal, len(v))
	for j := range a {
		s := zero
		for k, x := range v {
			s = s.Add(mul(a[j][k], x))
		}
		result[j] = s
	}
	return result
}

// index of the largest magnitude, lowest index on a tie
func largest(v []decimal.Decimal) (int, decimal.Decimal) {
	index := 0
	magnitude := zero
	for i, x := range v {
		if x.Abs().GreaterThan(magnitude) {
			index = i
			magnitude = x.Abs()
		}
	}
	return index, magnitude
}

// iterate from one start vector, nil if it reaches zero
func powerIterate(a [][]decimal.Decimal, v []decimal.Decimal) []decimal.Decimal {
	for iteration := 0; iteration < powerIterations; iteration += 1 {
		w := multiply(a, v)
		_, m := largest(w)
		if m.IsZero() {
			return nil
		}
		for i := range w {
			w[i] = div(w[i], m)
		}
		v = w
	}
	return v
}

// vᵀAv / vᵀv
func rayleigh(a [][]decimal.Decimal, v []decimal.Decimal) decimal.Decimal {
	av := multiply(a, v)
	numerator := zero
	denominator := zero
	for i := range v {
		numerator = numerator.Add(mul(v[i], av[i]))
		denominator = denominator.Add(mul(v[i], v[i]))
	}
	if denominator.IsZero() {
		return zero
	}
	return div(numerator, denominator)
}

// firstComponent - unit eigenvector of the largest eigenvalue of a
// symmetric positive semi-definite matrix
//
// power iteration runs from all ones, from alternating ±1 and from
// the unit vector of the largest diagonal entry; the result with the
// largest Rayleigh quotient wins, earlier starts on a tie.  The sign
// makes the largest magnitude entry positive.  ok is false for the
// zero matrix
func firstComponent(a [][]decimal.Decimal) ([]decimal.Decimal, bool) {
	n := len(a)
	if 0 == n {
		return nil, false
	}

	ones := make([]decimal.Decimal, n)
	alternating := make([]decimal.Decimal, n)
	diagonal := make([]decimal.Decimal, n)
	unit := make([]decimal.Decimal, n)
	for i := range a {
		ones[i] = one
		alternating[i] = one
		if 1 == i%2 {
			alternating[i] = one.Neg()
		}
		diagonal[i] = a[i][i]
		unit[i] = zero
	}
	index, _ := largest(diagonal)
	unit[index] = one

	var best []decimal.Decimal
	bestValue := zero
	for _, start := range [][]decimal.Decimal{ones, alternating, unit} {
		v := powerIterate(a, start)
		if nil == v {
			continue
		}
		value := rayleigh(a, v)
		if nil == best || value.GreaterThan(bestValue) {
			best = v
			bestValue = value
		}
	}
	if nil == best {
		return nil, false
	}

	squares := zero
	for _, x := range best {
		squares = squares.Add(mul(x, x))
	}
	length := sqrt(squares)
	if length.IsZero() {
		return nil, false
	}
	index, _ = largest(best)
	negate := best[index].IsNegative()
	for i := range best {
		best[i] = div(best[i], length)
		if negate {
			best[i] = best[i].Neg()
		}
	}
	return best, true
}
