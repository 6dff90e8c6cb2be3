// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package marketrecord - the eight market object kinds and their
// byte-exact wire encoding
//
// Every object serialises as a one byte tag followed by its fields in
// a fixed order: little endian fixed width integers, one byte
// booleans restricted to 0 or 1, and CompactSize prefixed strings and
// vectors.  The object id is the double SHA-256 of that serialisation.
//
// On chain an object travels as an output script:
//
//   <canonical push of serialised object> OP_MARKET
//
// All value fields (fees, prices, share counts, reputation, votes,
// alpha and tol) are unsigned integers in units of 1e-8.
package marketrecord
