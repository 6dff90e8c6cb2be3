// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package voting - the voting calendar of a branch
//
// Every tau blocks a branch opens a voting window whose height is a
// multiple of tau.  With r = height mod tau the window passes through:
//
//   Sealing    0 ≤ r ≤ ballotTime                 sealed votes
//   Revealing  ballotTime < r ≤ ballotTime+unsealTime  reveal and steal votes
//   Resolving  r = ballotTime+unsealTime+1         outcome computed
//   Open       otherwise
//
// The ballot of window W holds the decisions with
// W−tau < eventOverBy ≤ W.
package voting
