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
	"context"
	"fmt"
	"time"

	"github.com/ebay/groundset/facts"
	"github.com/ebay/groundset/graph"
	"github.com/ebay/groundset/util/parallel"
	opentracing "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"
)

// Options control a Driver.
type Options struct {
	// MaxRounds bounds the number of rounds a run may take. 0 means no limit,
	// in which case rules that derive unboundedly many facts never finish.
	MaxRounds int
	// Parallelism is the number of rules evaluated concurrently within a
	// round. Values below 2 evaluate the rules one at a time.
	Parallelism int
	// OnRound, if set, is called after each completed round with the stats so
	// far. It's called from the goroutine running Run, while no rule is
	// reading the graph.
	OnRound func(Stats)
}

// Stats describes a run.
type Stats struct {
	// Rounds is the number of rounds evaluated, including the final round that
	// derived nothing new.
	Rounds int
	// Derived is the number of new facts, ones that entered a delta.
	Derived int
	// Deposited is the number of facts deposited into backlogs, including ones
	// that were already known.
	Deposited int
}

// RoundLimitError is returned by Run when the fixpoint wasn't reached within
// Options.MaxRounds rounds.
type RoundLimitError struct {
	Rounds int
}

func (e *RoundLimitError) Error() string {
	return fmt.Sprintf("fixpoint not reached after %d rounds", e.Rounds)
}

// Driver runs rules over a graph until a fixpoint is reached.
type Driver struct {
	graph *graph.Graph
	rules []Rule
	opts  Options
}

// New returns a Driver that evaluates 'rules' over 'g'. The graph should
// already contain the ground facts. The driver owns the graph while Run is
// executing.
func New(g *graph.Graph, rules []Rule, opts Options) *Driver {
	return &Driver{graph: g, rules: rules, opts: opts}
}

// Run evaluates rounds until one of them produces no new facts. It returns a
// *RoundLimitError if that takes more than MaxRounds rounds, and the context's
// error if it's cancelled. The context is checked between rounds and passed to
// the rules. On error, the graph holds the facts derived up to the last
// completed round.
func (d *Driver) Run(ctx context.Context) (Stats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "fixpoint")
	span.SetTag("rules", len(d.rules))
	defer span.Finish()
	start := time.Now()
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if d.opts.MaxRounds > 0 && stats.Rounds >= d.opts.MaxRounds {
			metrics.runsLimitedTotal.Inc()
			log.WithFields(log.Fields{
				"rounds":  stats.Rounds,
				"derived": stats.Derived,
			}).Warn("Fixpoint round limit reached")
			return stats, &RoundLimitError{Rounds: stats.Rounds}
		}
		changed, err := d.round(ctx, &stats)
		if err != nil {
			return stats, err
		}
		if d.opts.OnRound != nil {
			d.opts.OnRound(stats)
		}
		if changed == 0 {
			break
		}
	}
	span.SetTag("rounds", stats.Rounds)
	span.SetTag("derived", stats.Derived)
	metrics.runsCompletedTotal.Inc()
	log.WithFields(log.Fields{
		"rounds":    stats.Rounds,
		"derived":   stats.Derived,
		"deposited": stats.Deposited,
		"elapsed":   time.Since(start),
	}).Info("Fixpoint reached")
	return stats, nil
}

// round evaluates every rule, deposits what they derived, and advances the
// graph. It returns the number of partitions with new facts.
func (d *Driver) round(ctx context.Context, stats *Stats) (int, error) {
	number := stats.Rounds
	start := time.Now()
	span, ctx := opentracing.StartSpanFromContext(ctx, "fixpoint round")
	span.SetTag("round", number)
	defer span.Finish()

	r := &Round{number: number, graph: d.graph}
	buffers := make([]*buffer, len(d.rules))
	err := parallel.InvokeLimited(ctx, len(d.rules), d.opts.Parallelism,
		func(ctx context.Context, i int) error {
			b := newBuffer()
			if err := d.rules[i].Evaluate(ctx, r, b); err != nil {
				return fmt.Errorf("rule %s failed in round %d: %w", d.rules[i].Name(), number, err)
			}
			buffers[i] = b
			return nil
		})
	if err != nil {
		span.SetTag("error", true)
		return 0, err
	}
	// All the rules have finished reading, the graph can be modified now.
	deposited := 0
	for _, b := range buffers {
		for predicate, derived := range b.derived {
			atoms := d.graph.Partition(predicate)
			derived.Ascend(func(f facts.Fact) bool {
				if atoms.Derive(f) {
					deposited++
				}
				return true
			})
		}
	}
	changed := d.graph.Advance()
	derived, stable := 0, 0
	d.graph.Ascend(func(_ string, atoms *graph.AtomSet) bool {
		derived += atoms.Delta().Len()
		stable += atoms.Stable().Len()
		return true
	})

	stats.Rounds++
	stats.Derived += derived
	stats.Deposited += deposited
	elapsed := time.Since(start)
	metrics.roundsTotal.Inc()
	metrics.derivedFactsTotal.Add(float64(derived))
	metrics.depositedFactsTotal.Add(float64(deposited))
	metrics.roundDurationSeconds.Observe(elapsed.Seconds())
	metrics.stableFacts.Set(float64(stable))
	span.SetTag("deposited", deposited)
	span.SetTag("derived", derived)
	log.WithFields(log.Fields{
		"round":     number,
		"deposited": deposited,
		"derived":   derived,
		"changed":   changed,
		"elapsed":   elapsed,
	}).Debug("Fixpoint round completed")
	return changed, nil
}
