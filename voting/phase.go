// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
)

// Phase - position of a height in a branch's voting window
type Phase int

// the phases
const (
	Open Phase = iota
	Sealing
	Revealing
	Resolving
)

// String - name of a phase
func (p Phase) String() string {
	switch p {
	case Open:
		return "open"
	case Sealing:
		return "sealing"
	case Revealing:
		return "revealing"
	case Resolving:
		return "resolving"
	default:
		return "*unknown*"
	}
}

// MarshalText - phase name for JSON
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// CurrentPhase - the phase of a branch at a block height
func CurrentPhase(branch *marketrecord.Branch, height uint32) Phase {
	if 0 == branch.Tau {
		return Open
	}
	r := height % uint32(branch.Tau)
	sealEnd := uint32(branch.BallotTime)
	revealEnd := sealEnd + uint32(branch.UnsealTime)

	switch {
	case r <= sealEnd:
		return Sealing
	case r <= revealEnd:
		return Revealing
	case r == revealEnd+1:
		return Resolving
	default:
		return Open
	}
}

// WindowHeight - the voting window a height falls in
func WindowHeight(branch *marketrecord.Branch, height uint32) uint32 {
	if 0 == branch.Tau {
		return 0
	}
	return height - height%uint32(branch.Tau)
}

// IsWindowHeight - true for a multiple of tau
func IsWindowHeight(branch *marketrecord.Branch, height uint32) bool {
	return 0 != branch.Tau && 0 == height%uint32(branch.Tau)
}

// BallotRange - inclusive eventOverBy bounds of the ballot of a window
//
// empty (maximum < minimum) for the window at height zero
func BallotRange(branch *marketrecord.Branch, window uint32) (uint32, uint32) {
	tau := uint32(branch.Tau)
	if 0 == tau || window < tau {
		return 1, 0
	}
	return window - tau + 1, window
}

// OnBallot - true if a decision is voted on in a window
func OnBallot(branch *marketrecord.Branch, decision *marketrecord.Decision, window uint32) bool {
	minimum, maximum := BallotRange(branch, window)
	return decision.EventOverBy >= minimum && decision.EventOverBy <= maximum
}

// BallotWindow - the window whose ballot holds a decision
func BallotWindow(branch *marketrecord.Branch, decision *marketrecord.Decision) (uint32, error) {
	tau := uint32(branch.Tau)
	if 0 == tau {
		return 0, fault.ErrZeroTau
	}
	if 0 == decision.EventOverBy {
		return 0, fault.ErrInvalidHeight
	}
	n := (decision.EventOverBy + tau - 1) / tau
	return n * tau, nil
}

// ResolutionHeight - the height at which a window's outcome is computed
func ResolutionHeight(branch *marketrecord.Branch, window uint32) uint32 {
	return window + uint32(branch.BallotTime) + uint32(branch.UnsealTime) + 1
}

// ClosingHeight - the resolution height of the latest ballot holding
// one of a market's decisions
//
// the market settles in that block and takes no trades from then on
func ClosingHeight(branch *marketrecord.Branch, decisions []*marketrecord.Decision) (uint32, error) {
	if 0 == len(decisions) {
		return 0, fault.ErrMissingDecisions
	}
	latest := uint32(0)
	for _, d := range decisions {
		window, err := BallotWindow(branch, d)
		if nil != err {
			return 0, err
		}
		if window > latest {
			latest = window
		}
	}
	return ResolutionHeight(branch, latest), nil
}
