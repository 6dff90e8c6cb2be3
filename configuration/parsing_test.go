// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/marketd/configuration"
	"github.com/bitmark-inc/marketd/storage"
)

const sample = `
local M = {}

M.data_directory = "."

M.database = {
   directory = "db",
   name = "predictions",
   engine = "badger",
}

M.logging = {
   size = 4096,
   count = 3,
   levels = {
      DEFAULT = "info",
      block = "debug",
   },
}

M.metrics = {
   enabled = true,
}

return M
`

func writeFile(t *testing.T, directory string, text string) string {
	fileName := filepath.Join(directory, "market.conf")
	err := os.WriteFile(fileName, []byte(text), 0600)
	require.NoError(t, err, "write configuration")
	return fileName
}

func TestGetConfiguration(t *testing.T) {
	directory := t.TempDir()
	fileName := writeFile(t, directory, sample)

	options, err := configuration.GetConfiguration(fileName)
	require.NoError(t, err, "configuration")

	absolute, err := filepath.Abs(directory)
	require.NoError(t, err, "absolute")

	assert.Equal(t, absolute+string(filepath.Separator), options.DataDirectory, "data directory")
	assert.Equal(t, filepath.Join(absolute, "db"), options.Database.Directory, "database directory")
	assert.Equal(t, "predictions", options.Database.Name, "database name")
	assert.Equal(t, storage.EngineBadger, options.Database.Engine, "engine")
	assert.Equal(t, filepath.Join(absolute, "log"), options.Logging.Directory, "log directory")
	assert.Equal(t, "market.log", options.Logging.File, "default log file")
	assert.Equal(t, 4096, options.Logging.Size, "log size")
	assert.Equal(t, 3, options.Logging.Count, "log count")
	assert.Equal(t, "debug", options.Logging.Levels["block"], "block level")
	assert.True(t, options.Metrics.Enabled, "metrics")
	assert.Equal(t, filepath.Join(absolute, "market.prom"), options.Metrics.File, "metrics file")

	info, err := os.Stat(options.Database.Directory)
	require.NoError(t, err, "database directory created")
	assert.True(t, info.IsDir(), "database directory")
}

func TestGetConfigurationErrors(t *testing.T) {
	items := []string{
		`return { data_directory = "" }`,
		`return { data_directory = ".", database = { engine = "sqlite" } }`,
		`return { data_directory = ".", database = { name = "a/b" } }`,
		`return { data_directory = "/no/such/directory" }`,
		`return 42`,
		`return {`,
	}
	for i, text := range items {
		fileName := writeFile(t, t.TempDir(), text)
		_, err := configuration.GetConfiguration(fileName)
		assert.Error(t, err, "%d: %s", i, text)
	}
}

func TestParseConfigurationFileGlobals(t *testing.T) {
	directory := t.TempDir()
	fileName := writeFile(t, directory, `return { name = arg[0], directory = config_directory }`)

	var result struct {
		Name      string `gluamapper:"name"`
		Directory string `gluamapper:"directory"`
	}
	err := configuration.ParseConfigurationFile(fileName, &result)
	require.NoError(t, err, "parse")
	assert.Equal(t, fileName, result.Name, "arg[0]")
	assert.Equal(t, directory, result.Directory, "config directory")
}
