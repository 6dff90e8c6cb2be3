// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package outcome - resolution of a branch's voting window
//
// The votes of a window form a matrix of voters by decisions with
// values in [0, 1] or NA.  Resolution fills NA entries with a
// preliminary reputation weighted outcome, finds the first principal
// component of the weighted covariance of the filled matrix, derives
// new reputations from the voters' scores on that component and
// resolves every decision again with the smoothed reputations.
//
// Everything is computed in decimal fixed point with fixed iteration
// counts so that every node derives byte-identical outcomes.
package outcome
