// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type (
	CorruptError    GenericError
	DivergenceError GenericError
	ExistsError     GenericError
	InvalidError    GenericError
	MalformedError  GenericError
	NotFoundError   GenericError
	ProcessError    GenericError
)

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised     = ExistsError("already initialised")
	ErrBallotFull             = InvalidError("ballot already holds the maximum number of decisions")
	ErrBatchTooLarge          = ProcessError("batch exceeds the storage transaction limit")
	ErrBelowLimitPrice        = InvalidError("trade price is outside the limit price")
	ErrBranchNotFound         = NotFoundError("branch not found")
	ErrCannotDecodeScript     = MalformedError("cannot decode market script")
	ErrCorruptRecord          = CorruptError("corrupt record")
	ErrDatabaseVersion        = InvalidError("unsupported database version")
	ErrDecisionNotFound       = NotFoundError("decision not found")
	ErrDuplicateDecision      = InvalidError("duplicate decision")
	ErrDuplicateRecord        = ExistsError("duplicate record")
	ErrDuplicateReveal        = ExistsError("voter already revealed in this window")
	ErrDuplicateTrade         = ExistsError("duplicate trade")
	ErrEventAlreadyOver       = InvalidError("event is already over")
	ErrFieldOutOfRange        = MalformedError("field value out of range")
	ErrHeightMismatch         = InvalidError("height does not match voting window")
	ErrInsufficientShares     = InvalidError("insufficient shares to sell")
	ErrInvalidAlpha           = InvalidError("alpha is out of range")
	ErrInvalidArgument        = InvalidError("invalid argument")
	ErrInvalidBranch          = InvalidError("invalid branch parameters")
	ErrInvalidCount           = MalformedError("invalid count")
	ErrInvalidDatabaseEngine  = InvalidError("invalid database engine")
	ErrInvalidDecisionRange   = InvalidError("scaled decision minimum must be below maximum")
	ErrInvalidFunction        = InvalidError("invalid decision function")
	ErrInvalidHeight          = InvalidError("invalid height")
	ErrInvalidLiquidity       = InvalidError("invalid liquidity parameter")
	ErrInvalidLoggerChannel   = InvalidError("invalid logger channel")
	ErrInvalidMaturation      = InvalidError("maturation must fall between the decision events and settlement")
	ErrInvalidShares          = InvalidError("share count must be positive")
	ErrInvalidState           = InvalidError("invalid decision state")
	ErrInvalidTolerance       = InvalidError("tolerance is out of range")
	ErrInvalidTradingFee      = InvalidError("trading fee below branch minimum")
	ErrInvalidVote            = InvalidError("vote value out of range")
	ErrMarketClosed           = InvalidError("market is closed")
	ErrMarketNotFound         = NotFoundError("market not found")
	ErrMismatchedLength       = MalformedError("parallel vectors differ in length")
	ErrMissingDecisions       = InvalidError("market needs at least one decision")
	ErrMultipleWriters        = InvalidError("another batch is in progress")
	ErrNilBatch               = InvalidError("batch is not active")
	ErrNoVoters               = DivergenceError("no voters in window")
	ErrNotInitialised         = NotFoundError("not initialised")
	ErrNotMarketScript        = NotFoundError("not a market script")
	ErrNotOnBallot            = InvalidError("decision is not on the ballot")
	ErrNotFound               = NotFoundError("record not found")
	ErrOutcomeMismatch        = InvalidError("outcome differs from computed outcome")
	ErrOutOfSequence          = InvalidError("block height out of sequence")
	ErrReadOnly               = InvalidError("store is read only")
	ErrSealedVoteNotFound     = NotFoundError("sealed vote not found")
	ErrStorageFailure         = ProcessError("storage failure")
	ErrStringTooLong          = MalformedError("string too long")
	ErrTooManyDecisions       = InvalidError("too many decisions")
	ErrTrailingData           = MalformedError("trailing data after record")
	ErrTruncatedRecord        = MalformedError("truncated record")
	ErrUnknownCommand         = InvalidError("unknown command")
	ErrUnknownFunction        = MalformedError("unknown decision function")
	ErrUnknownPool            = NotFoundError("unknown pool")
	ErrUnknownRecordType      = MalformedError("unknown record type")
	ErrVoteAlreadyRevealed    = InvalidError("vote has already been revealed")
	ErrVoteStolen             = InvalidError("vote has been stolen")
	ErrWrongArgumentCount     = InvalidError("wrong number of arguments")
	ErrWrongBranch            = InvalidError("decision belongs to a different branch")
	ErrWrongPhase             = InvalidError("action not allowed in current voting phase")
	ErrZeroTau                = InvalidError("tau must be positive")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e CorruptError) Error() string    { return string(e) }
func (e DivergenceError) Error() string { return string(e) }
func (e ExistsError) Error() string     { return string(e) }
func (e InvalidError) Error() string    { return string(e) }
func (e MalformedError) Error() string  { return string(e) }
func (e NotFoundError) Error() string   { return string(e) }
func (e ProcessError) Error() string    { return string(e) }

// determine the class of an error, looking through any %w wrapping
func IsErrCorrupt(e error) bool    { var x CorruptError; return errors.As(e, &x) }
func IsErrDivergence(e error) bool { var x DivergenceError; return errors.As(e, &x) }
func IsErrExists(e error) bool     { var x ExistsError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool    { var x InvalidError; return errors.As(e, &x) }
func IsErrMalformed(e error) bool  { var x MalformedError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool   { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool    { var x ProcessError; return errors.As(e, &x) }

// Class - short name of the error class, for metrics labels and logs
func Class(e error) string {
	switch {
	case nil == e:
		return "none"
	case IsErrCorrupt(e):
		return "corrupt"
	case IsErrDivergence(e):
		return "divergence"
	case IsErrExists(e):
		return "exists"
	case IsErrInvalid(e):
		return "invalid"
	case IsErrMalformed(e):
		return "malformed"
	case IsErrNotFound(e):
		return "notfound"
	case IsErrProcess(e):
		return "process"
	default:
		return "other"
	}
}
