// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - persistent indexed store of market objects
//
// Every key starts with a one byte pool prefix followed by an
// order preserving encoding of its parts:
//
//   primary:   B D M T S L R O  + (object id)
//   decisions: d                + (branch id, decision id)
//   markets:   m                + (decision id, market id)  one per decision
//   trades:    t                + (market id, trade id)
//   sealed:    s                + (branch id, height, vote id)
//   reveals:   r                + (branch id, height, vote id)
//   steals:    l                + (branch id, height, vote id)
//   outcomes:  o                + (branch id, height, outcome id)
//   meta:      H                + (name)
//
// all three vote indexes are keyed by the vote id the sealed vote
// commits to, which is also the id of the matching reveal
//
// every value, primary or index, is the same record:
//
//   height(4 BE) ++ sequence(4 BE) ++ origin tx(32) ++ packed object
//
// All writes go through a Batch and are committed atomically under
// an exclusive lock; reads take a shared lock so no reader observes a
// partially committed block.
package storage
