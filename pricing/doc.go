// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pricing - logarithmic market scoring rule market maker
//
// The account value of a market with outstanding shares N over n
// states is
//
//   C(N) = B ln Σ exp(N_i / B)
//
// and, when the market carries a commission cap (liquidity sensitive
// form), every state is credited minShares = B ln(n) / maxCommission
// and B scales with the shares outstanding:
//
//   N'    = N + minShares
//   B_eff = B ΣN' / (n minShares)
//   C(N)  = B_eff ln Σ exp(N'_i / B_eff)
//
// All arithmetic is decimal fixed point.  Account values are truncated
// to base units (1e-8) before any difference is taken, so a purchase
// followed by the sale of the same shares returns exactly the amount
// paid, less the trading fee.
package pricing
