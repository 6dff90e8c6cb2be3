// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/google/orderedcode"

	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
)

// PoolHandle - one key space inside the backend
type PoolHandle struct {
	prefix byte
	name   string
}

// Prefix - the leading key byte of the pool
func (p *PoolHandle) Prefix() byte {
	return p.prefix
}

// Name - the pool's field name, used by dumps
func (p *PoolHandle) Name() string {
	return p.name
}

// Key - prefix followed by the ordered encoding of the parts
//
// parts are digests, heights (uint32) or strings; a key built from
// the leading parts of another key is a scan prefix for it
func (p *PoolHandle) Key(parts ...interface{}) []byte {
	items := make([]interface{}, 0, len(parts))
	for _, part := range parts {
		switch v := part.(type) {
		case digest.Digest:
			items = append(items, string(v[:]))
		case uint32:
			items = append(items, uint64(v))
		case string:
			items = append(items, v)
		default:
			fault.Panicf("pool %s: unsupported key part: %T", p.name, part)
		}
	}
	key, err := orderedcode.Append([]byte{p.prefix}, items...)
	if nil != err {
		fault.PanicWithError("orderedcode.Append", err)
	}
	return key
}

// ParseKey - split a key of this pool back into its parts
//
// parts must be pointers to digest.Digest, uint32 or string in the
// order they were encoded
func (p *PoolHandle) ParseKey(key []byte, parts ...interface{}) error {
	if 0 == len(key) || p.prefix != key[0] {
		return fault.ErrCorruptRecord
	}
	remaining := string(key[1:])
	for _, part := range parts {
		var err error
		switch v := part.(type) {
		case *digest.Digest:
			var s string
			remaining, err = orderedcode.Parse(remaining, &s)
			if nil == err {
				err = digest.FromBytes(v, []byte(s))
			}
		case *uint32:
			var n uint64
			remaining, err = orderedcode.Parse(remaining, &n)
			*v = uint32(n)
		case *string:
			remaining, err = orderedcode.Parse(remaining, v)
		default:
			fault.Panicf("pool %s: unsupported key part: %T", p.name, part)
		}
		if nil != err {
			return fault.ErrCorruptRecord
		}
	}
	if "" != remaining {
		return fault.ErrCorruptRecord
	}
	return nil
}
