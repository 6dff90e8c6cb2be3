// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitmark-inc/marketd/block"
	"github.com/bitmark-inc/marketd/configuration"
	"github.com/bitmark-inc/marketd/fault"
	"github.com/bitmark-inc/marketd/storage"
	"github.com/bitmark-inc/marketd/util"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["help"]) > 0 || 0 == len(arguments) {
		usage(program)
		exitwithstatus.Exit(1)
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}
	verbose := len(options["verbose"]) > 0

	configurationFile := options["config-file"][0]
	if !util.EnsureFileExists(configurationFile) {
		exitwithstatus.Message("%s: configuration file: %q does not exist", program, configurationFile)
	}
	theConfiguration, err := configuration.GetConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: fault setup failed with error: %s", program, err)
	}
	defer fault.Finalise()

	log := logger.New("main")
	defer log.Info("finished")
	log.Infof("version: %s", version)

	if verbose {
		printJson("configuration", theConfiguration)
	}

	command := arguments[0]
	arguments = arguments[1:]

	readOnly := storage.ReadOnly
	if writeCommands[command] {
		readOnly = storage.ReadWrite
	}

	store, err := storage.Open(theConfiguration.Database, readOnly)
	if nil != err {
		exitwithstatus.Message("%s: failed to open database: %s", program, err)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	processor := block.New(store, nil, registry)

	result, err := runCommand(processor, store, command, arguments)
	if nil != err {
		log.Errorf("command: %s  error: %s", command, err)
		fault.PanicIfCorrupt(command, err)
		if fault.ErrUnknownCommand == err {
			usage(program)
		}
		exitwithstatus.Message("%s: %s failed with error: %s", program, command, err)
	}
	printJson("", result)

	if theConfiguration.Metrics.Enabled {
		if err := writeMetrics(registry, theConfiguration.Metrics.File); nil != err {
			log.Errorf("metrics file: %q  error: %s", theConfiguration.Metrics.File, err)
			exitwithstatus.Message("%s: metrics write failed with error: %s", program, err)
		}
	}
}

func usage(program string) {
	fmt.Fprintf(os.Stderr, "usage: %s [--help] [--verbose] [--version] --config-file=FILE command [args...]\n", program)
	fmt.Fprintf(os.Stderr, "commands:\n")
	for _, c := range commandList {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.args)
	}
}
