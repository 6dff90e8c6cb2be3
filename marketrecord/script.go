// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marketrecord

import (
	"bytes"

	"github.com/btcsuite/btcd/txscript"

	"github.com/bitmark-inc/marketd/fault"
)

// OpMarket - the opcode terminating a market output script
//
// it occupies an opcode the base script language leaves undefined
const OpMarket = txscript.OP_UNKNOWN192

// Script - the output script carrying an object
func Script(obj Object) ([]byte, error) {
	packed, err := obj.Pack()
	if nil != err {
		return nil, err
	}
	return packed.Script()
}

// Script - wrap a packed object in a market output script
func (record Packed) Script() ([]byte, error) {
	script, err := pushOnly(record)
	if nil != err {
		return nil, err
	}
	return append(script, OpMarket), nil
}

// the canonical single push of some data
func pushOnly(data []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().AddFullData(data).Script()
}

// IsMarketScript - true if the script ends with OP_MARKET
func IsMarketScript(script []byte) bool {
	return len(script) > 0 && OpMarket == script[len(script)-1]
}

// DecodeMarketAction - extract the object carried by an output script
//
// returns fault.ErrNotMarketScript for ordinary outputs, any market
// script that is not exactly one canonical push followed by OP_MARKET
// is malformed
func DecodeMarketAction(script []byte) (Object, error) {
	if !IsMarketScript(script) {
		return nil, fault.ErrNotMarketScript
	}

	body := script[:len(script)-1]
	if !txscript.IsPushOnlyScript(body) {
		return nil, fault.ErrCannotDecodeScript
	}
	pushes, err := txscript.PushedData(body)
	if nil != err || 1 != len(pushes) {
		return nil, fault.ErrCannotDecodeScript
	}

	canonical, err := pushOnly(pushes[0])
	if nil != err || !bytes.Equal(canonical, body) {
		return nil, fault.ErrCannotDecodeScript
	}

	return Packed(pushes[0]).Unpack()
}
