// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type processorMetrics struct {
	blocks    prometheus.Counter
	height    prometheus.Gauge
	applied   *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	outcomes  prometheus.Counter
	fallbacks prometheus.Counter
}

// a nil registerer creates unregistered metrics
func (m *processorMetrics) init(registerer prometheus.Registerer) {
	factory := promauto.With(registerer)
	m.blocks = factory.NewCounter(prometheus.CounterOpts{
		Name: "marketd_blocks_applied_total",
		Help: "blocks committed to the market store",
	})
	m.height = factory.NewGauge(prometheus.GaugeOpts{
		Name: "marketd_block_height",
		Help: "height of the last committed block",
	})
	m.applied = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "marketd_actions_applied_total",
		Help: "market actions written, by object type",
	}, []string{"type"})
	m.rejected = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "marketd_actions_rejected_total",
		Help: "market actions rejected, by error class",
	}, []string{"class"})
	m.outcomes = factory.NewCounter(prometheus.CounterOpts{
		Name: "marketd_outcomes_resolved_total",
		Help: "branch outcomes computed",
	})
	m.fallbacks = factory.NewCounter(prometheus.CounterOpts{
		Name: "marketd_outcomes_without_voters_total",
		Help: "branch outcomes carried forward for lack of voters",
	})
}
