// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marketrecord

import (
	"encoding/hex"

	"github.com/btcsuite/btcutil"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
)

// TagType - type code for market objects
type TagType byte

// enumerate the possible object types
// the values are the action byte carried at the start of a script payload
const (
	BranchTag     TagType = 'B'
	DecisionTag   TagType = 'D'
	MarketTag     TagType = 'M'
	TradeTag      TagType = 'T'
	SealedVoteTag TagType = 'S'
	StealVoteTag  TagType = 'L'
	RevealVoteTag TagType = 'R'
	OutcomeTag    TagType = 'O'
)

// Tags - every tag in store prefix order
var Tags = []TagType{
	BranchTag,
	DecisionTag,
	StealVoteTag,
	MarketTag,
	OutcomeTag,
	RevealVoteTag,
	SealedVoteTag,
	TradeTag,
}

// String - name of the tag
func (t TagType) String() string {
	switch t {
	case BranchTag:
		return "branch"
	case DecisionTag:
		return "decision"
	case MarketTag:
		return "market"
	case TradeTag:
		return "trade"
	case SealedVoteTag:
		return "sealed vote"
	case StealVoteTag:
		return "steal vote"
	case RevealVoteTag:
		return "reveal vote"
	case OutcomeTag:
		return "outcome"
	default:
		return "*unknown*"
	}
}

// Object - the closed set of market objects
//
// only the types in this package implement it
type Object interface {
	Tag() TagType
	Pack() (Packed, error)
	isObject()
}

func (*Branch) Tag() TagType     { return BranchTag }
func (*Decision) Tag() TagType   { return DecisionTag }
func (*Market) Tag() TagType     { return MarketTag }
func (*Trade) Tag() TagType      { return TradeTag }
func (*SealedVote) Tag() TagType { return SealedVoteTag }
func (*StealVote) Tag() TagType  { return StealVoteTag }
func (*RevealVote) Tag() TagType { return RevealVoteTag }
func (*Outcome) Tag() TagType    { return OutcomeTag }

func (*Branch) isObject()     {}
func (*Decision) isObject()   {}
func (*Market) isObject()     {}
func (*Trade) isObject()      {}
func (*SealedVote) isObject() {}
func (*StealVote) isObject()  {}
func (*RevealVote) isObject() {}
func (*Outcome) isObject()    {}

// Hash - the content id of an object
func Hash(obj Object) (digest.Digest, error) {
	packed, err := obj.Pack()
	if nil != err {
		return digest.Digest{}, err
	}
	return packed.Hash(), nil
}

// KeyIDLength - bytes in a key id
const KeyIDLength = 20

// KeyID - HASH160 of a participant's public key
type KeyID [KeyIDLength]byte

// KeyIDFromPublicKey - derive the key id of a serialised public key
func KeyIDFromPublicKey(publicKey []byte) KeyID {
	var k KeyID
	copy(k[:], btcutil.Hash160(publicKey))
	return k
}

// String - hex form of a key id
func (k KeyID) String() string {
	return hex.EncodeToString(k[:])
}

// MarshalText - hex text for JSON
func (k KeyID) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(KeyIDLength))
	hex.Encode(buffer, k[:])
	return buffer, nil
}

// UnmarshalText - parse hex text
func (k *KeyID) UnmarshalText(s []byte) error {
	if hex.EncodedLen(KeyIDLength) != len(s) {
		return fault.ErrFieldOutOfRange
	}
	if _, err := hex.Decode(k[:], s); nil != err {
		return fault.ErrFieldOutOfRange
	}
	return nil
}

// FunctionID - transform applied to a decision's outcome when
// settling a market
type FunctionID uint8

// the transform functions
const (
	FunctionX1   FunctionID = 1 // x
	FunctionX2   FunctionID = 2 // x²
	FunctionX3   FunctionID = 3 // x³
	FunctionLNX1 FunctionID = 4 // ln(1+x)/ln 2
)

// Valid - true for a known function
func (f FunctionID) Valid() bool {
	return f >= FunctionX1 && f <= FunctionLNX1
}

// String - the conventional name of the function
func (f FunctionID) String() string {
	switch f {
	case FunctionX1:
		return "X1"
	case FunctionX2:
		return "X2"
	case FunctionX3:
		return "X3"
	case FunctionLNX1:
		return "LNX1"
	default:
		return "*unknown*"
	}
}

// MarshalText - function name for JSON
func (f FunctionID) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fault.ErrUnknownFunction
	}
	return []byte(f.String()), nil
}

// UnmarshalText - parse a function name
func (f *FunctionID) UnmarshalText(s []byte) error {
	n, err := FunctionFromString(string(s))
	if nil != err {
		return err
	}
	*f = n
	return nil
}

// FunctionFromString - parse a function name
func FunctionFromString(s string) (FunctionID, error) {
	switch s {
	case "X1":
		return FunctionX1, nil
	case "X2":
		return FunctionX2, nil
	case "X3":
		return FunctionX3, nil
	case "LNX1":
		return FunctionLNX1, nil
	default:
		return 0, fault.ErrUnknownFunction
	}
}
