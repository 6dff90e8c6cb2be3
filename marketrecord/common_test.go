// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marketrecord_test

import (
	"bytes"
	"testing"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/util"
)

// key id 01 02 … 14 used by every fixture
var owner = marketrecord.KeyID{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a,
	0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13, 0x14,
}

func mainBranch() *marketrecord.Branch {
	return &marketrecord.Branch{
		Name:               "main",
		Description:        "primary branch",
		BaseListingFee:     100000000,
		FreeDecisions:      10,
		TargetDecisions:    20,
		MaxDecisions:       30,
		MinTradingFee:      1000000,
		Tau:                10,
		BallotTime:         2,
		UnsealTime:         2,
		ConsensusThreshold: 75,
		Alpha:              10000000,
		Tol:                10000000,
	}
}

func mustHash(t *testing.T, obj marketrecord.Object) digest.Digest {
	id, err := marketrecord.Hash(obj)
	if nil != err {
		t.Fatalf("hash error: %s", err)
	}
	return id
}

func mustDigest(t *testing.T, s string) digest.Digest {
	d, err := digest.FromString(s)
	if nil != err {
		t.Fatalf("digest %q error: %s", s, err)
	}
	return d
}

// pack an object, compare with expected bytes and return the packed form
func checkPacked(t *testing.T, obj marketrecord.Object, expected []byte) marketrecord.Packed {
	packed, err := obj.Pack()
	if nil != err {
		t.Fatalf("pack error: %s", err)
	}
	if !bytes.Equal(packed, expected) {
		t.Errorf("pack record: %x  expected: %x", packed, expected)
		t.Errorf("*** GENERATED Packed:\n%s", util.FormatBytes("expected", packed))
		t.FailNow()
	}
	return packed
}
