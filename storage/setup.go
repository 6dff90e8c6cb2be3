// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
)

// pools - the key spaces of the store
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Branches    *PoolHandle `prefix:"B"`
	Decisions   *PoolHandle `prefix:"D"`
	Markets     *PoolHandle `prefix:"M"`
	Trades      *PoolHandle `prefix:"T"`
	SealedVotes *PoolHandle `prefix:"S"`
	StealVotes  *PoolHandle `prefix:"L"`
	RevealVotes *PoolHandle `prefix:"R"`
	Outcomes    *PoolHandle `prefix:"O"`

	BranchDecisions *PoolHandle `prefix:"d"`
	DecisionMarkets *PoolHandle `prefix:"m"`
	MarketTrades    *PoolHandle `prefix:"t"`
	BranchSealed    *PoolHandle `prefix:"s"`
	BranchReveals   *PoolHandle `prefix:"r"`
	BranchSteals    *PoolHandle `prefix:"l"`
	BranchOutcomes  *PoolHandle `prefix:"o"`

	Meta *PoolHandle `prefix:"H"`
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const currentDBVersion = 0x100

// meta key names
const lastHeightName = "last-height"

// database engines
const (
	EngineLevelDB = "leveldb"
	EngineBadger  = "badger"
	EngineMemory  = "memory"
)

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Configuration - where and how to open the store
type Configuration struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
	Engine    string `gluamapper:"engine" json:"engine"`
}

// Store - the market object store
type Store struct {
	queries

	// shared for reads, exclusive while a batch commits
	sync.RWMutex

	backend  Backend
	pools    *pools
	readOnly bool
	log      *logger.L

	writer sync.Mutex
	active *Batch
}

// Open - open the configured backend and wrap it in a store
func Open(configuration Configuration, readOnly bool) (*Store, error) {
	log := logger.New("storage")

	name := configuration.Name
	if "" == name {
		name = "market"
	}
	path := filepath.Join(configuration.Directory, name)

	var backend Backend
	var err error
	switch configuration.Engine {
	case EngineLevelDB, "":
		backend, err = OpenLevelDB(path+".leveldb", readOnly)
	case EngineBadger:
		backend, err = OpenBadger(path+".badger", readOnly, log)
	case EngineMemory:
		backend, err = NewMemoryLevelDB()
	default:
		return nil, fault.ErrInvalidDatabaseEngine
	}
	if nil != err {
		log.Criticalf("open %s database: %s  error: %s", configuration.Engine, path, err)
		return nil, fmt.Errorf("%w: %v", fault.ErrStorageFailure, err)
	}

	store, err := New(backend, readOnly, log)
	if nil != err {
		backend.Close()
		return nil, err
	}
	return store, nil
}

// New - create a store over an open backend
func New(backend Backend, readOnly bool, log *logger.L) (*Store, error) {
	p, err := newPools()
	if nil != err {
		return nil, err
	}
	if nil == log {
		log = logger.New("storage")
	}

	s := &Store{
		backend:  backend,
		pools:    p,
		readOnly: readOnly,
		log:      log,
	}
	s.queries = queries{src: s, pools: p, log: log}

	if err := s.checkVersion(); nil != err {
		return nil, err
	}
	return s, nil
}

// Close - release the backend
func (s *Store) Close() error {
	s.Lock()
	defer s.Unlock()
	if nil == s.backend {
		return nil
	}
	err := s.backend.Close()
	s.backend = nil
	return err
}

// set up each pool handle from its struct tag
func newPools() (*pools, error) {
	p := &pools{}
	v := reflect.ValueOf(p).Elem()
	t := v.Type()

	seen := make(map[byte]string)
	for i := 0; i < t.NumField(); i += 1 {
		field := t.Field(i)
		prefix := field.Tag.Get("prefix")
		if 1 != len(prefix) {
			return nil, fmt.Errorf("pool: %s has invalid prefix: %q", field.Name, prefix)
		}
		if other, ok := seen[prefix[0]]; ok {
			return nil, fmt.Errorf("pool: %s reuses prefix %q of %s", field.Name, prefix, other)
		}
		seen[prefix[0]] = field.Name

		handle := &PoolHandle{
			prefix: prefix[0],
			name:   field.Name,
		}
		v.Field(i).Set(reflect.ValueOf(handle))
	}
	return p, nil
}

// primary pool for each object kind
func (p *pools) primary(tag marketrecord.TagType) *PoolHandle {
	switch tag {
	case marketrecord.BranchTag:
		return p.Branches
	case marketrecord.DecisionTag:
		return p.Decisions
	case marketrecord.MarketTag:
		return p.Markets
	case marketrecord.TradeTag:
		return p.Trades
	case marketrecord.SealedVoteTag:
		return p.SealedVotes
	case marketrecord.StealVoteTag:
		return p.StealVotes
	case marketrecord.RevealVoteTag:
		return p.RevealVotes
	case marketrecord.OutcomeTag:
		return p.Outcomes
	default:
		return nil
	}
}

// All - every pool, in prefix order of declaration
func (s *Store) All() []*PoolHandle {
	v := reflect.ValueOf(s.pools).Elem()
	list := make([]*PoolHandle, 0, v.NumField())
	for i := 0; i < v.NumField(); i += 1 {
		list = append(list, v.Field(i).Interface().(*PoolHandle))
	}
	return list
}

// ensure no database downgrade, tag an empty database
func (s *Store) checkVersion() error {
	value, err := s.backend.Get(versionKey)
	if fault.IsErrNotFound(err) {
		if s.readOnly {
			return nil
		}
		buffer := make([]byte, 4)
		binary.BigEndian.PutUint32(buffer, currentDBVersion)
		return s.backend.Write([]Operation{{Key: versionKey, Value: buffer}})
	}
	if nil != err {
		return fmt.Errorf("%w: %v", fault.ErrStorageFailure, err)
	}
	if 4 != len(value) {
		s.log.Criticalf("database version record: %x is corrupt", value)
		return fault.ErrCorruptRecord
	}
	version := binary.BigEndian.Uint32(value)
	if version != currentDBVersion {
		s.log.Criticalf("database version: %d  current version: %d", version, currentDBVersion)
		return fault.ErrDatabaseVersion
	}
	return nil
}

// Dump - visit every raw key/value of a pool in key order
func (s *Store) Dump(pool *PoolHandle, fn func(key []byte, value []byte) error) error {
	return s.iterate([]byte{pool.prefix}, fn)
}

// source implementation for committed data

func (s *Store) get(key []byte) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()
	if nil == s.backend {
		return nil, fault.ErrNotInitialised
	}
	return s.backend.Get(key)
}

func (s *Store) iterate(prefix []byte, fn func(key []byte, value []byte) error) error {
	s.RLock()
	defer s.RUnlock()
	if nil == s.backend {
		return fault.ErrNotInitialised
	}
	return s.backend.Iterate(prefix, fn)
}
