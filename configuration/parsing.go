// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/marketd/storage"
	"github.com/bitmark-inc/marketd/util"
)

// basic defaults, directories and files are relative to the data directory
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultDatabaseDirectory = "data"
	defaultDatabaseName      = "market"

	defaultLogDirectory = "log"
	defaultLogFile      = "market.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultMetricsFile = "market.prom"
)

// MetricsType - where block processing counters are written
type MetricsType struct {
	Enabled bool   `gluamapper:"enabled" json:"enabled"`
	File    string `gluamapper:"file" json:"file"`
}

// Configuration - settings of the market command
type Configuration struct {
	DataDirectory string                `gluamapper:"data_directory" json:"data_directory"`
	Database      storage.Configuration `gluamapper:"database" json:"database"`
	Logging       logger.Configuration  `gluamapper:"logging" json:"logging"`
	Metrics       MetricsType           `gluamapper:"metrics" json:"metrics"`
}

// GetConfiguration - read, default and verify a configuration file
func GetConfiguration(configurationFileName string) (*Configuration, error) {
	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{
		DataDirectory: defaultDataDirectory,
		Database: storage.Configuration{
			Directory: defaultDatabaseDirectory,
			Name:      defaultDatabaseName,
			Engine:    storage.EngineLevelDB,
		},
		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels: map[string]string{
				logger.DefaultTag: "critical",
			},
		},
		Metrics: MetricsType{
			File: defaultMetricsFile,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); nil != err {
		return nil, err
	}

	switch options.Database.Engine {
	case storage.EngineLevelDB, storage.EngineBadger, storage.EngineMemory:
	default:
		return nil, fmt.Errorf("database engine: %q is not supported", options.Database.Engine)
	}

	switch options.DataDirectory {
	case "", "~":
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	case ".":
		options.DataDirectory = dataDirectory // same directory as the configuration file
	default:
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// names must be plain, their directories become absolute
	mustNotBePaths := []*string{
		&options.Database.Name,
		&options.Logging.File,
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f) {
		case "", ".":
		default:
			return nil, fmt.Errorf("files: %q is not plain name", *f)
		}
	}

	mustBeAbsolute := []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
		&options.Metrics.File,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	for _, d := range []string{options.Database.Directory, options.Logging.Directory} {
		if err := os.MkdirAll(d, 0700); nil != err {
			return nil, err
		}
	}

	return options, nil
}
