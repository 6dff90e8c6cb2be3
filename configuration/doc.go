// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - parse a Lua configuration file
//
// the file is a Lua chunk whose final value is a table, so most of
// base Lua is available: reading files, os.getenv and computing paths
// relative to the global config_directory
package configuration
