// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/marketd/fault"
)

type badgerDB struct {
	db *badger.DB
}

// route badger's internal messages to a logger channel
type badgerLogger struct {
	log *logger.L
}

func (b badgerLogger) Errorf(format string, args ...interface{})   { b.log.Errorf(format, args...) }
func (b badgerLogger) Warningf(format string, args ...interface{}) { b.log.Warnf(format, args...) }
func (b badgerLogger) Infof(format string, args ...interface{})    { b.log.Debugf(format, args...) }
func (b badgerLogger) Debugf(format string, args ...interface{})   { b.log.Tracef(format, args...) }

// OpenBadger - open or create a Badger directory
//
// an empty path gives an in-memory database
func OpenBadger(path string, readOnly bool, log *logger.L) (Backend, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(readOnly).
		WithLoggingLevel(badger.WARNING)
	if nil != log {
		opts = opts.WithLogger(badgerLogger{log: log})
	}
	if "" == path {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if nil != err {
		return nil, err
	}
	return &badgerDB{db: db}, nil
}

func (b *badgerDB) Get(key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if nil != err {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fault.ErrNotFound
	}
	return value, err
}

func (b *badgerDB) Iterate(prefix []byte, fn func(key []byte, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if nil != err {
				return err
			}
			if err := fn(item.KeyCopy(nil), value); nil != err {
				return err
			}
		}
		return nil
	})
}

// a single transaction so the block is all or nothing
//
// badger bounds one transaction by MaxBatchCount entries and
// MaxBatchSize bytes, a block beyond either fails whole
func (b *badgerDB) Write(operations []Operation) error {
	if int64(len(operations)) >= b.db.MaxBatchCount() {
		return fault.ErrBatchTooLarge
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, op := range operations {
			var err error
			if op.Delete {
				err = txn.Delete(op.Key)
			} else {
				err = txn.Set(op.Key, op.Value)
			}
			if nil != err {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fault.ErrBatchTooLarge
	}
	return err
}

func (b *badgerDB) Close() error {
	return b.db.Close()
}
