// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/marketd/fault"
)

// test that each class is detected, including through wrapping
func TestClasses(t *testing.T) {
	errorList := []struct {
		err        error
		class      string
		corrupt    bool
		divergence bool
		exists     bool
		invalid    bool
		malformed  bool
		notFound   bool
		process    bool
	}{
		{fault.ErrCorruptRecord, "corrupt", true, false, false, false, false, false, false},
		{fault.ErrNoVoters, "divergence", false, true, false, false, false, false, false},
		{fault.ErrDuplicateTrade, "exists", false, false, true, false, false, false, false},
		{fault.ErrInvalidState, "invalid", false, false, false, true, false, false, false},
		{fault.ErrTrailingData, "malformed", false, false, false, false, true, false, false},
		{fault.ErrBranchNotFound, "notfound", false, false, false, false, false, true, false},
		{fault.ProcessError("disk gone"), "process", false, false, false, false, false, false, true},
		{fmt.Errorf("record abc: %w", fault.ErrCorruptRecord), "corrupt", true, false, false, false, false, false, false},
		{fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", fault.ErrWrongPhase)), "invalid", false, false, false, true, false, false, false},
	}

	for i, e := range errorList {
		err := e.err
		assert.Equal(t, e.class, fault.Class(err), "%d: class of %v", i, err)
		assert.Equal(t, e.corrupt, fault.IsErrCorrupt(err), "%d: corrupt %v", i, err)
		assert.Equal(t, e.divergence, fault.IsErrDivergence(err), "%d: divergence %v", i, err)
		assert.Equal(t, e.exists, fault.IsErrExists(err), "%d: exists %v", i, err)
		assert.Equal(t, e.invalid, fault.IsErrInvalid(err), "%d: invalid %v", i, err)
		assert.Equal(t, e.malformed, fault.IsErrMalformed(err), "%d: malformed %v", i, err)
		assert.Equal(t, e.notFound, fault.IsErrNotFound(err), "%d: not found %v", i, err)
		assert.Equal(t, e.process, fault.IsErrProcess(err), "%d: process %v", i, err)
	}
}

func TestClassOfNil(t *testing.T) {
	assert.Equal(t, "none", fault.Class(nil))
	assert.Equal(t, "other", fault.Class(fmt.Errorf("plain")))
}

func TestPanicIfCorrupt(t *testing.T) {
	assert.NotPanics(t, func() {
		err := fault.PanicIfCorrupt("lookup", fault.ErrNotFound)
		assert.Equal(t, fault.ErrNotFound, err)
	})
	assert.NotPanics(t, func() {
		assert.Nil(t, fault.PanicIfCorrupt("lookup", nil))
	})
	assert.Panics(t, func() {
		_ = fault.PanicIfCorrupt("lookup", fmt.Errorf("key 01: %w", fault.ErrCorruptRecord))
	})
}
