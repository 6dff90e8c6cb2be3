// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package digest - 256 bit content identifiers for market objects
package digest

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitmark-inc/marketd/fault"
)

// Length - number of bytes in the digest
const Length = chainhash.HashSize

// ErrNotDigest - text or bytes that cannot form a digest
var ErrNotDigest = fault.MalformedError("not a digest")

// Digest - type for a double SHA-256 digest
//
// stored as little endian byte array
// represented as big endian hex value for print
// represented as big endian hex text for JSON encoding
// to convert to bytes just use d[:]
type Digest [Length]byte

// NewDigest - create a digest from a byte slice
func NewDigest(record []byte) Digest {
	return Digest(chainhash.DoubleHashH(record))
}

// IsZero - true for the all-zero digest
func (d Digest) IsZero() bool {
	return Digest{} == d
}

// internal function to return a reversed byte order copy of a digest
func reversed(d Digest) []byte {
	result := make([]byte, Length)
	for i := 0; i < Length; i += 1 {
		result[i] = d[Length-1-i]
	}
	return result
}

// String - convert a binary digest to hex string for use by the fmt package (for %s)
//
// the stored version is in little endian, but the output string is big endian
func (d Digest) String() string {
	return hex.EncodeToString(reversed(d))
}

// GoString - convert a binary digest to big endian hex string for use by the fmt package (for %#v)
func (d Digest) GoString() string {
	return "<SHA256d:" + hex.EncodeToString(reversed(d)) + ">"
}

// Scan - convert a big endian hex representation to a digest for use by the format package scan routines
func (d *Digest) Scan(state fmt.ScanState, verb rune) error {
	token, err := state.Token(true, isHex)
	if nil != err {
		return err
	}
	return d.UnmarshalText(token)
}

// MarshalText - convert digest to big endian hex text
func (d Digest) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(Length))
	hex.Encode(buffer, reversed(d))
	return buffer, nil
}

// UnmarshalText - convert big endian hex text into a digest
func (d *Digest) UnmarshalText(s []byte) error {
	if hex.EncodedLen(Length) != len(s) {
		return ErrNotDigest
	}
	buffer := make([]byte, Length)
	if _, err := hex.Decode(buffer, s); nil != err {
		return ErrNotDigest
	}
	for i, v := range buffer {
		d[Length-1-i] = v
	}
	return nil
}

// FromString - parse a big endian hex string
func FromString(s string) (Digest, error) {
	var d Digest
	err := d.UnmarshalText([]byte(s))
	return d, err
}

// FromBytes - convert and validate little endian binary byte slice to a digest
func FromBytes(d *Digest, buffer []byte) error {
	if Length != len(buffer) {
		return ErrNotDigest
	}
	copy(d[:], buffer)
	return nil
}

func isHex(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'A' && c <= 'F':
		return true
	case c >= 'a' && c <= 'f':
		return true
	}
	return false
}
