// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bitmark-inc/marketd/fault"
)

// UnitDigits - decimal places of the on-chain fixed-point values
const UnitDigits = 8

// Coin - one whole unit expressed in base units
const Coin = 100000000

// FormatUnits - render a base-unit quantity as a decimal string
func FormatUnits(n uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), -UnitDigits).String()
}

// ParseUnits - parse a plain decimal string with at most eight
// fractional digits into base units
//
// signs, exponents and a missing whole part are rejected
func ParseUnits(s string) (uint64, error) {
	if "" == s || '.' == s[0] || strings.ContainsAny(s, "eE+-") {
		return 0, fault.ErrFieldOutOfRange
	}
	d, err := decimal.NewFromString(s)
	if nil != err {
		return 0, fault.ErrFieldOutOfRange
	}
	if d.Exponent() < -UnitDigits {
		return 0, fault.ErrFieldOutOfRange
	}
	n := d.Shift(UnitDigits).BigInt()
	if !n.IsUint64() {
		return 0, fault.ErrFieldOutOfRange
	}
	return n.Uint64(), nil
}
