// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// write the gathered metrics in text exposition format
func writeMetrics(gatherer prometheus.Gatherer, fileName string) error {
	file, err := os.Create(fileName)
	if nil != err {
		return err
	}
	err = exportMetrics(gatherer, file)
	if closeErr := file.Close(); nil == err {
		err = closeErr
	}
	return err
}

func exportMetrics(gatherer prometheus.Gatherer, w io.Writer) error {
	families, err := gatherer.Gather()
	if nil != err {
		return err
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); nil != err {
			return err
		}
	}
	return nil
}
