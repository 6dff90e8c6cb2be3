// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"strconv"

	"github.com/bitmark-inc/marketd/block"
	"github.com/bitmark-inc/marketd/digest"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/marketrecord"
	"github.com/bitmark-inc/marketd/outcome"
	"github.com/bitmark-inc/marketd/storage"
	"github.com/bitmark-inc/marketd/util"
	"github.com/bitmark-inc/marketd/voting"
)

type commandInfo struct {
	name  string
	args  string
	count int
}

var commandList = []commandInfo{
	{"branches", "", 0},
	{"decisions", "BRANCH", 1},
	{"markets", "DECISION", 1},
	{"trades", "MARKET", 1},
	{"ballot", "BRANCH HEIGHT", 2},
	{"phase", "BRANCH HEIGHT", 2},
	{"quote", "MARKET STATE SHARES buy|sell", 4},
	{"prices", "MARKET", 1},
	{"outcomes", "BRANCH", 1},
	{"decode", "HEX-SCRIPT", 1},
	{"resolve", "BRANCH HEIGHT", 2},
	{"pools", "", 0},
	{"dump", "POOL", 1},
	{"apply", "HEIGHT HEX-SCRIPT...", -1},
}

// commands that open the store for writing
var writeCommands = map[string]bool{
	"apply": true,
}

// decoded form of a market script
type decoded struct {
	Type   string              `json:"type"`
	ID     digest.Digest       `json:"id"`
	Object marketrecord.Object `json:"object"`
}

type phaseReply struct {
	Height     uint32       `json:"height"`
	Phase      voting.Phase `json:"phase"`
	Window     uint32       `json:"window"`
	Resolution uint32       `json:"resolution"`
}

type pricesReply struct {
	Market digest.Digest `json:"market"`
	Prices []string      `json:"prices"`
}

type poolEntry struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

type dumpEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// run one command and return the value to print
func runCommand(processor *block.Processor, store *storage.Store, command string, arguments []string) (interface{}, error) {

	found := false
	for _, c := range commandList {
		if c.name != command {
			continue
		}
		found = true
		if c.count >= 0 && len(arguments) != c.count {
			return nil, fault.ErrWrongArgumentCount
		}
		break
	}
	if !found {
		return nil, fault.ErrUnknownCommand
	}

	switch command {

	case "branches":
		return store.Branches()

	case "decisions":
		branch, err := digest.FromString(arguments[0])
		if nil != err {
			return nil, err
		}
		if _, err := processor.LookupBranch(branch); nil != err {
			return nil, err
		}
		return store.Decisions(branch)

	case "markets":
		decision, err := digest.FromString(arguments[0])
		if nil != err {
			return nil, err
		}
		if _, err := processor.LookupDecision(decision); nil != err {
			return nil, err
		}
		return store.Markets(decision)

	case "trades":
		market, err := digest.FromString(arguments[0])
		if nil != err {
			return nil, err
		}
		if _, err := processor.LookupMarket(market); nil != err {
			return nil, err
		}
		return store.Trades(market)

	case "ballot":
		branch, height, err := branchAndHeight(arguments)
		if nil != err {
			return nil, err
		}
		return processor.Ballot(branch, height)

	case "phase":
		branchID, height, err := branchAndHeight(arguments)
		if nil != err {
			return nil, err
		}
		branch, err := processor.LookupBranch(branchID)
		if nil != err {
			return nil, err
		}
		window := voting.WindowHeight(branch, height)
		return &phaseReply{
			Height:     height,
			Phase:      voting.CurrentPhase(branch, height),
			Window:     window,
			Resolution: voting.ResolutionHeight(branch, window),
		}, nil

	case "quote":
		market, err := digest.FromString(arguments[0])
		if nil != err {
			return nil, err
		}
		state, err := parseUint32(arguments[1])
		if nil != err {
			return nil, err
		}
		shares, err := util.ParseUnits(arguments[2])
		if nil != err || 0 == shares {
			return nil, fault.ErrInvalidShares
		}
		isBuy := false
		switch arguments[3] {
		case "buy":
			isBuy = true
		case "sell":
		default:
			return nil, fault.ErrInvalidArgument
		}
		return processor.QuoteTrade(market, state, shares, isBuy)

	case "prices":
		market, err := digest.FromString(arguments[0])
		if nil != err {
			return nil, err
		}
		prices, err := processor.CurrentPrices(market)
		if nil != err {
			return nil, err
		}
		reply := &pricesReply{
			Market: market,
			Prices: make([]string, len(prices)),
		}
		for i, p := range prices {
			reply.Prices[i] = p.StringFixed(8)
		}
		return reply, nil

	case "outcomes":
		branch, err := digest.FromString(arguments[0])
		if nil != err {
			return nil, err
		}
		if _, err := processor.LookupBranch(branch); nil != err {
			return nil, err
		}
		return store.Outcomes(branch)

	case "decode":
		script, err := hex.DecodeString(arguments[0])
		if nil != err {
			return nil, fault.ErrInvalidArgument
		}
		obj, err := marketrecord.DecodeMarketAction(script)
		if nil != err {
			return nil, err
		}
		id, err := marketrecord.Hash(obj)
		if nil != err {
			return nil, err
		}
		return &decoded{
			Type:   obj.Tag().String(),
			ID:     id,
			Object: obj,
		}, nil

	case "resolve":
		branchID, height, err := branchAndHeight(arguments)
		if nil != err {
			return nil, err
		}
		branch, err := processor.LookupBranch(branchID)
		if nil != err {
			return nil, err
		}
		window := voting.WindowHeight(branch, height)
		if 0 == window {
			return nil, fault.ErrInvalidHeight
		}

		// computed against the committed store, nothing is written
		engine := outcome.New(store, nil)
		o, err := engine.Compute(branchID, window)
		if fault.ErrNoVoters == err {
			o, err = engine.CarryForward(branchID, window)
		}
		return o, err

	case "pools":
		pools := store.All()
		list := make([]poolEntry, len(pools))
		for i, p := range pools {
			list[i] = poolEntry{
				Prefix: string(p.Prefix()),
				Name:   p.Name(),
			}
		}
		return list, nil

	case "dump":
		var pool *storage.PoolHandle
		for _, p := range store.All() {
			if arguments[0] == p.Name() || arguments[0] == string(p.Prefix()) {
				pool = p
				break
			}
		}
		if nil == pool {
			return nil, fault.ErrUnknownPool
		}
		list := make([]dumpEntry, 0)
		err := store.Dump(pool, func(key []byte, value []byte) error {
			list = append(list, dumpEntry{
				Key:   hex.EncodeToString(key),
				Value: hex.EncodeToString(value),
			})
			return nil
		})
		return list, err

	case "apply":
		if len(arguments) < 1 {
			return nil, fault.ErrWrongArgumentCount
		}
		height, err := parseUint32(arguments[0])
		if nil != err {
			return nil, err
		}
		tx, err := transactionOf(arguments[1:])
		if nil != err {
			return nil, err
		}
		txs := []block.Transaction{}
		if len(tx.Outputs) > 0 {
			txs = append(txs, tx)
		}
		return processor.ApplyBlock(height, txs)

	default:
		return nil, fault.ErrUnknownCommand
	}
}

func branchAndHeight(arguments []string) (digest.Digest, uint32, error) {
	branch, err := digest.FromString(arguments[0])
	if nil != err {
		return digest.Digest{}, 0, err
	}
	height, err := parseUint32(arguments[1])
	if nil != err {
		return digest.Digest{}, 0, err
	}
	return branch, height, nil
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if nil != err {
		return 0, fault.ErrInvalidArgument
	}
	return uint32(n), nil
}

// one transaction holding every script, identified by the hash of
// the concatenated scripts
func transactionOf(scripts []string) (block.Transaction, error) {
	tx := block.Transaction{
		Outputs: make([][]byte, 0, len(scripts)),
	}
	for _, s := range scripts {
		script, err := hex.DecodeString(s)
		if nil != err {
			return tx, fault.ErrInvalidArgument
		}
		tx.Outputs = append(tx.Outputs, script)
	}
	tx.TxID = digest.NewDigest(bytes.Join(tx.Outputs, nil))
	return tx, nil
}
