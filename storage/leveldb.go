// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/marketd/fault"
)

type levelDB struct {
	db *leveldb.DB
}

// OpenLevelDB - open or create a LevelDB directory
func OpenLevelDB(path string, readOnly bool) (Backend, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}
	db, err := leveldb.OpenFile(path, opt)
	if nil != err {
		return nil, err
	}
	return &levelDB{db: db}, nil
}

// NewMemoryLevelDB - a LevelDB held entirely in memory
func NewMemoryLevelDB() (Backend, error) {
	db, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		return nil, err
	}
	return &levelDB{db: db}, nil
}

func (l *levelDB) Get(key []byte) ([]byte, error) {
	value, err := l.db.Get(key, nil)
	if leveldb.ErrNotFound == err {
		return nil, fault.ErrNotFound
	}
	return value, err
}

func (l *levelDB) Iterate(prefix []byte, fn func(key []byte, value []byte) error) error {
	iter := l.db.NewIterator(ldb_util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		// contents of the returned slices are only valid until the
		// next call to Next
		key := append([]byte{}, iter.Key()...)
		value := append([]byte{}, iter.Value()...)
		if err := fn(key, value); nil != err {
			return err
		}
	}
	return iter.Error()
}

func (l *levelDB) Write(operations []Operation) error {
	batch := new(leveldb.Batch)
	for _, op := range operations {
		if op.Delete {
			batch.Delete(op.Key)
		} else {
			batch.Put(op.Key, op.Value)
		}
	}
	return l.db.Write(batch, &ldb_opt.WriteOptions{Sync: true})
}

func (l *levelDB) Close() error {
	return l.db.Close()
}
