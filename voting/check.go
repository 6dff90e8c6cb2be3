// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
)

// CheckBranch - validate the parameters of a new branch
func CheckBranch(branch *marketrecord.Branch) error {
	if "" == branch.Name {
		return fault.ErrInvalidBranch
	}
	if 0 == branch.Tau {
		return fault.ErrZeroTau
	}
	if 0 == branch.BallotTime || 0 == branch.UnsealTime {
		return fault.ErrInvalidBranch
	}

	// resolution must fall inside the window
	if uint32(branch.BallotTime)+uint32(branch.UnsealTime)+1 >= uint32(branch.Tau) {
		return fault.ErrInvalidBranch
	}
	if branch.FreeDecisions > branch.TargetDecisions || branch.TargetDecisions > branch.MaxDecisions {
		return fault.ErrInvalidBranch
	}
	if branch.Alpha > marketrecord.Coin {
		return fault.ErrInvalidAlpha
	}
	if branch.Tol > marketrecord.Coin {
		return fault.ErrInvalidTolerance
	}
	return nil
}

// check a vote names the current window of its branch and the
// height is in the given phase
func checkWindow(branch *marketrecord.Branch, voteHeight uint32, height uint32, phase Phase) error {
	if !IsWindowHeight(branch, voteHeight) || 0 == voteHeight {
		return fault.ErrInvalidHeight
	}
	if WindowHeight(branch, height) != voteHeight {
		return fault.ErrHeightMismatch
	}
	if CurrentPhase(branch, height) != phase {
		return fault.ErrWrongPhase
	}
	return nil
}

// CheckSealed - a sealed vote may be included at height
func CheckSealed(branch *marketrecord.Branch, vote *marketrecord.SealedVote, height uint32) error {
	if vote.VoteID.IsZero() {
		return fault.ErrInvalidVote
	}
	return checkWindow(branch, vote.Height, height, Sealing)
}

// CheckSteal - a steal vote may be included at height
func CheckSteal(branch *marketrecord.Branch, vote *marketrecord.StealVote, height uint32) error {
	return checkWindow(branch, vote.Height, height, Revealing)
}

// CheckReveal - a reveal vote may be included at height and its
// entries are well formed
//
// decisions are the stored decisions named by the vote, in the
// vote's order
func CheckReveal(branch *marketrecord.Branch, branchID digest.Digest, vote *marketrecord.RevealVote, decisions []*marketrecord.Decision, height uint32) error {
	if err := checkWindow(branch, vote.Height, height, Revealing); nil != err {
		return err
	}
	if 0 == len(vote.Decisions) {
		return fault.ErrMissingDecisions
	}
	if len(vote.Votes) != len(vote.Decisions) || len(decisions) != len(vote.Decisions) {
		return fault.ErrMismatchedLength
	}

	seen := make(map[digest.Digest]struct{}, len(vote.Decisions))
	for i, id := range vote.Decisions {
		if _, ok := seen[id]; ok {
			return fault.ErrDuplicateDecision
		}
		seen[id] = struct{}{}

		d := decisions[i]
		if d.Branch != branchID {
			return fault.ErrWrongBranch
		}
		if !OnBallot(branch, d, vote.Height) {
			return fault.ErrNotOnBallot
		}
		if err := CheckVote(d, vote.Votes[i], vote.NA); nil != err {
			return err
		}
	}
	return nil
}

// CheckVote - one ballot entry
//
// binary decisions take a value in [0, Coin]; a scaled decision's
// vote is read as a signed value in [minimum, maximum]; the NA
// marker is always accepted
func CheckVote(decision *marketrecord.Decision, vote uint64, na uint64) error {
	if vote == na {
		return nil
	}
	if !decision.IsScaled {
		if vote > marketrecord.Coin {
			return fault.ErrInvalidVote
		}
		return nil
	}
	v := int64(vote)
	if v < decision.Minimum || v > decision.Maximum {
		return fault.ErrInvalidVote
	}
	return nil
}
