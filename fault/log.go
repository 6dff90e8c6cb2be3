// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
)

// delay before panic so the log writer can flush
const panicDelay = 100 * time.Millisecond

// hold a logger channel for last attempt to log something
var globalData struct {
	sync.Mutex
	log *logger.L
}

// Initialise - setup a log channel for halting messages
//
// must be called after logger.Initialise
func Initialise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if nil != globalData.log {
		return ErrAlreadyInitialised
	}
	globalData.log = logger.New("PANIC")
	if nil == globalData.log {
		return ErrInvalidLoggerChannel
	}
	return nil
}

// Finalise - flush any data
func Finalise() {
	globalData.Lock()
	defer globalData.Unlock()

	if nil != globalData.log {
		globalData.log.Flush()
		globalData.log = nil
	}
}

// Criticalf - log a formatted string prefixed by the caller's location
func Criticalf(format string, arguments ...interface{}) {
	criticalf(withCaller(2, format, arguments)...)
}

// Panicf - log a formatted message then halt
func Panicf(format string, arguments ...interface{}) {
	criticalf(withCaller(2, format, arguments)...)
	Panic("abort, see last messages in log file")
}

// Panic - final panic
func Panic(message string) {
	criticalf("%s", message)
	time.Sleep(panicDelay)
	panic(message)
}

// PanicWithError - final panic including the error
func PanicWithError(message string, err error) {
	s := fmt.Sprintf("%s failed with error: %v", message, err)
	criticalf("%s", s)
	time.Sleep(panicDelay)
	panic(s)
}

// PanicIfError - conditional panic
func PanicIfError(message string, err error) {
	if nil == err {
		return
	}
	PanicWithError(message, err)
}

// PanicIfCorrupt - halt only when the error shows the stored state
// can no longer be trusted, otherwise return the error unchanged
func PanicIfCorrupt(message string, err error) error {
	if IsErrCorrupt(err) {
		PanicWithError(message, err)
	}
	return err
}

// prepend the file:line of the caller at the given depth
func withCaller(depth int, format string, arguments []interface{}) []interface{} {
	_, file, line, ok := runtime.Caller(depth)
	if !ok {
		return append([]interface{}{format}, arguments...)
	}
	a := make([]interface{}, 0, 3+len(arguments))
	a = append(a, "(%q:%d) "+format, file, line)
	return append(a, arguments...)
}

// log through the panic channel, or stdout if there is none
func criticalf(items ...interface{}) {
	format := items[0].(string)
	arguments := items[1:]

	globalData.Lock()
	log := globalData.log
	globalData.Unlock()

	if nil == log {
		fmt.Printf("*** "+format+"\n", arguments...)
		return
	}
	log.Criticalf(format, arguments...)
	log.Flush()
}
