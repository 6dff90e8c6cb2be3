// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches.
//
// The classes map onto how the block pipeline reacts:
//
//   MalformedError   - bytes that do not decode; the action is rejected
//   InvalidError     - decodes but breaks a market rule; the action is rejected
//   ExistsError      - duplicate object; the action is rejected
//   NotFoundError    - missing object; callers treat as absent
//   CorruptError     - stored bytes fail to decode; processing must halt
//   DivergenceError  - numeric edge case with a deterministic fallback
//   ProcessError     - storage I/O; propagated to the caller
package fault
