// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package block applies the market actions of a block to the store
//
// each block is written through a single storage batch: the outcomes
// due at the block height are computed first, then every transaction
// is validated and applied in order, a rejected transaction is rolled
// back as a whole and the block commits atomically
package block
