// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

// Operation - one write in an atomic backend batch
type Operation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Backend - an ordered key/value engine
//
// Get returns fault.ErrNotFound for a missing key; Iterate visits keys
// with the prefix in ascending byte order and passes copies; Write
// applies all operations atomically
type Backend interface {
	Get(key []byte) ([]byte, error)
	Iterate(prefix []byte, fn func(key []byte, value []byte) error) error
	Write(operations []Operation) error
	Close() error
}
