// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fixpoint

import (
	metricsutil "github.com/ebay/groundset/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type fixpointMetrics struct {
	roundsTotal          prometheus.Counter
	derivedFactsTotal    prometheus.Counter
	depositedFactsTotal  prometheus.Counter
	roundDurationSeconds prometheus.Summary
	runsCompletedTotal   prometheus.Counter
	runsLimitedTotal     prometheus.Counter
	stableFacts          prometheus.Gauge
}

var metrics fixpointMetrics

func init() {
	mr := metricsutil.Registry{R: prometheus.DefaultRegisterer}
	metrics = fixpointMetrics{
		roundsTotal: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "groundset",
			Subsystem: "fixpoint",
			Name:      "rounds_total",
			Help:      `The number of evaluation rounds completed.`,
		}),
		derivedFactsTotal: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "groundset",
			Subsystem: "fixpoint",
			Name:      "derived_facts_total",
			Help: `The number of new facts derived by rules.

A fact is counted once, when it first enters a partition's delta.
`,
		}),
		depositedFactsTotal: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "groundset",
			Subsystem: "fixpoint",
			Name:      "deposited_facts_total",
			Help: `The number of facts rules deposited into backlogs.

This can include facts that were already known, or that several rules
derived. The ratio of derived to deposited facts shows how much work the rules
repeat.
`,
		}),
		roundDurationSeconds: mr.NewSummary(prometheus.SummaryOpts{
			Namespace:  "groundset",
			Subsystem:  "fixpoint",
			Name:       "round_duration_seconds",
			Help:       `The time it takes to evaluate all the rules and advance every partition.`,
			Objectives: metricsutil.DefaultObjectives(),
		}),
		runsCompletedTotal: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "groundset",
			Subsystem: "fixpoint",
			Name:      "runs_completed_total",
			Help:      `The number of runs that reached a fixpoint.`,
		}),
		runsLimitedTotal: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "groundset",
			Subsystem: "fixpoint",
			Name:      "runs_round_limited_total",
			Help:      `The number of runs stopped by the round limit before reaching a fixpoint.`,
		}),
		stableFacts: mr.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundset",
			Subsystem: "fixpoint",
			Name:      "stable_facts",
			Help:      `The number of stable facts across all predicates as of the last round.`,
		}),
	}
}
