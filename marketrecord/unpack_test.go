// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marketrecord_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
)

func packedTrade(t *testing.T) marketrecord.Packed {
	packed, err := (&marketrecord.Trade{
		Owner:  owner,
		Market: mustDigest(t, marketID),
		IsBuy:  false,
		Shares: 1,
		Price:  1,
	}).Pack()
	require.NoError(t, err)
	return packed
}

func TestUnpackMalformed(t *testing.T) {
	trade := packedTrade(t)

	// offset of the isBuy byte: tag + key id + market id
	isBuy := 1 + marketrecord.KeyIDLength + digest.Length

	badBool := append(marketrecord.Packed{}, trade...)
	badBool[isBuy] = 2

	// name length written as a three byte CompactSize
	nonCanonical := marketrecord.Packed{byte(marketrecord.BranchTag), 0xfd, 0x04, 0x00, 'm', 'a', 'i', 'n'}

	reveal, err := (&marketrecord.RevealVote{
		Decisions: []digest.Digest{{1}, {2}},
		Votes:     []uint64{1, 2},
	}).Pack()
	require.NoError(t, err)

	// drop one vote and fix the vote count
	shortVotes := append(marketrecord.Packed{}, reveal[:1+digest.Length+4+1+2*digest.Length]...)
	shortVotes = append(shortVotes, 0x01, 1, 0, 0, 0, 0, 0, 0, 0)
	shortVotes = append(shortVotes, reveal[len(reveal)-8-marketrecord.KeyIDLength:]...)

	market, err := (&marketrecord.Market{
		Decisions: []digest.Digest{{1}},
		Functions: []marketrecord.FunctionID{marketrecord.FunctionX1},
	}).Pack()
	require.NoError(t, err)
	badFunction := append(marketrecord.Packed{}, market...)
	badFunction[len(badFunction)-9] = 9

	items := []struct {
		name   string
		packed marketrecord.Packed
		err    error
	}{
		{"empty", marketrecord.Packed{}, fault.ErrTruncatedRecord},
		{"unknown tag", marketrecord.Packed{'Z', 0}, fault.ErrUnknownRecordType},
		{"truncated", trade[:len(trade)-1], fault.ErrTruncatedRecord},
		{"trailing", append(append(marketrecord.Packed{}, trade...), 0), fault.ErrTrailingData},
		{"bad bool", badBool, fault.ErrFieldOutOfRange},
		{"non-canonical count", nonCanonical, fault.ErrInvalidCount},
		{"mismatched votes", shortVotes, fault.ErrMismatchedLength},
		{"unknown function", badFunction, fault.ErrUnknownFunction},
	}

	for _, item := range items {
		obj, err := item.packed.Unpack()
		assert.Nil(t, obj, item.name)
		assert.Equal(t, item.err, err, item.name)
		assert.True(t, fault.IsErrMalformed(err), item.name)
	}
}

func TestPackLimits(t *testing.T) {
	long := make([]byte, marketrecord.MaxStringLength+1)
	_, err := (&marketrecord.Branch{Name: string(long)}).Pack()
	assert.Equal(t, fault.ErrStringTooLong, err)

	_, err = (&marketrecord.Market{
		Decisions: []digest.Digest{{1}},
	}).Pack()
	assert.Equal(t, fault.ErrMismatchedLength, err)
}
