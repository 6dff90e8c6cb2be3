// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/util"
)

func TestUnitsRoundTrip(t *testing.T) {
	items := []struct {
		text  string
		units uint64
	}{
		{"0", 0},
		{"1", 100000000},
		{"0.00000001", 1},
		{"12.5", 1250000000},
		{"3.14159265", 314159265},
		{"184467440737.09551615", 18446744073709551615},
	}
	for i, item := range items {
		n, err := util.ParseUnits(item.text)
		assert.NoError(t, err, "%d: parse", i)
		assert.Equal(t, item.units, n, "%d: units", i)
		assert.Equal(t, item.text, util.FormatUnits(item.units), "%d: format", i)
	}
}

func TestParseUnitsRejects(t *testing.T) {
	for _, s := range []string{
		"", ".5", "1.000000001", "-1", "+1", "x", "184467440737.09551616",
		"1e8", "1E-8", "5e-9", "0.5e1", " 1",
	} {
		_, err := util.ParseUnits(s)
		assert.Equal(t, fault.ErrFieldOutOfRange, err, "input: %q", s)
	}
}

func TestFormatBytes(t *testing.T) {
	s := util.FormatBytes("x", []byte{0x01, 0xab, 0x00, 0x10, 0x20, 0x30, 0x40, 0x50, 0x60})
	expected := "x := []byte{\n\t0x01, 0xab, 0x00, 0x10, 0x20, 0x30, 0x40, 0x50,\n\t0x60,\n}"
	assert.Equal(t, expected, s)
}
