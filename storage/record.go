// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
)

// bytes before the packed object
const recordHeaderLength = 4 + 4 + digest.Length

// Record - a stored object with its position in the chain
//
// Height and Sequence give the submission order: Sequence counts
// objects within the block that wrote them
type Record struct {
	Height   uint32              `json:"height"`
	Sequence uint32              `json:"sequence"`
	Origin   digest.Digest       `json:"origin"`
	ID       digest.Digest       `json:"id"`
	Object   marketrecord.Object `json:"object"`
}

// Before - true if r was submitted before other
func (r *Record) Before(other *Record) bool {
	if r.Height != other.Height {
		return r.Height < other.Height
	}
	return r.Sequence < other.Sequence
}

func packRecord(height uint32, sequence uint32, origin digest.Digest, packed marketrecord.Packed) []byte {
	value := make([]byte, recordHeaderLength, recordHeaderLength+len(packed))
	binary.BigEndian.PutUint32(value[0:4], height)
	binary.BigEndian.PutUint32(value[4:8], sequence)
	copy(value[8:recordHeaderLength], origin[:])
	return append(value, packed...)
}

// decode a stored value, any failure means the store is corrupt
func unpackRecord(value []byte) (*Record, error) {
	if len(value) <= recordHeaderLength {
		return nil, fault.ErrTruncatedRecord
	}
	r := &Record{
		Height:   binary.BigEndian.Uint32(value[0:4]),
		Sequence: binary.BigEndian.Uint32(value[4:8]),
	}
	copy(r.Origin[:], value[8:recordHeaderLength])

	packed := marketrecord.Packed(value[recordHeaderLength:])
	obj, err := packed.Unpack()
	if nil != err {
		return nil, err
	}
	r.ID = packed.Hash()
	r.Object = obj
	return r, nil
}
