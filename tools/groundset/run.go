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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/ebay/groundset/config"
	"github.com/ebay/groundset/facts"
	"github.com/ebay/groundset/fixpoint"
	"github.com/ebay/groundset/graph"
	"github.com/ebay/groundset/triples"
	"github.com/ebay/groundset/rules"
	"github.com/ebay/groundset/util/table"
	opentracing "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"
)

// run loads the files, evaluates the rules to a fixpoint, and prints the
// result to 'out'.
func run(ctx context.Context, options *options, out io.Writer) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "groundset run")
	defer span.Finish()

	cfg := new(config.Groundset)
	if options.ConfigFile != "" {
		var err error
		cfg, err = config.Load(options.ConfigFile)
		if err != nil {
			return err
		}
	}
	if options.MaxRounds >= 0 {
		cfg.Fixpoint.MaxRounds = options.MaxRounds
	}
	if options.Parallelism >= 0 {
		cfg.Fixpoint.Parallelism = options.Parallelism
	}
	if options.MetricsAddress != "" {
		cfg.MetricsAddress = options.MetricsAddress
	}
	ruleset, err := rules.FromConfig(cfg.Rules)
	if err != nil {
		return err
	}
	if options.WriteConfig != "" {
		if err := config.Write(cfg, options.WriteConfig); err != nil {
			return err
		}
		log.WithField("file", options.WriteConfig).Info("Wrote configuration")
	}

	diag := newDiagServer()
	if cfg.MetricsAddress != "" {
		go func() {
			err := diag.serve(cfg.MetricsAddress)
			log.WithError(err).Warn("Diagnostics HTTP server exited")
		}()
	}

	g := graph.New()
	start := time.Now()
	loaded, err := loadFiles(g, options.Files, options.Progress)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"statements": loaded,
		"predicates": g.Len(),
		"elapsed":    time.Since(start),
	}).Info("Loaded facts")
	diag.update("evaluating", g)

	fpOpts := fixpoint.Options{
		MaxRounds:   cfg.Fixpoint.MaxRounds,
		Parallelism: cfg.Fixpoint.Parallelism,
	}
	if cfg.MetricsAddress != "" {
		fpOpts.OnRound = func(fixpoint.Stats) {
			diag.update("evaluating", g)
		}
	}
	stats, err := fixpoint.New(g, ruleset, fpOpts).Run(ctx)
	diag.update("done", g)
	if err != nil {
		return err
	}
	if options.Summary {
		printSummary(out, g)
	} else {
		printFacts(out, g)
	}
	fmtr.Fprintf(out, "Loaded %d statements, derived %d facts in %d rounds\n",
		loaded, stats.Derived, stats.Rounds)
	fmt.Fprintf(out, "digest: %016x\n", g.Digest())
	return nil
}

// loadFiles reads each of the named files into the graph's stable facts. Files
// ending in .ttl are Turtle, the rest are N-Triples. "-" names standard input,
// which is read as N-Triples. It returns the number of statements read.
func loadFiles(g *graph.Graph, filenames []string, progress bool) (int, error) {
	var bar *pb.ProgressBar
	if progress {
		var total int64
		for _, name := range filenames {
			if name == "-" {
				continue
			}
			info, err := os.Stat(name)
			if err != nil {
				return 0, err
			}
			total += info.Size()
		}
		bar = pb.New64(total).SetUnits(pb.U_BYTES)
		bar.Output = os.Stderr
		bar.Start()
		defer bar.Finish()
	}
	count := 0
	for _, name := range filenames {
		n, err := loadFile(g, name, bar)
		count += n
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

func loadFile(g *graph.Graph, name string, bar *pb.ProgressBar) (int, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		r = f
	}
	if bar != nil {
		r = bar.NewProxyReader(r)
	}
	load := triples.LoadNTriples
	if strings.EqualFold(filepath.Ext(name), ".ttl") {
		load = triples.LoadTurtle
	}
	n, err := load(r, g)
	if err != nil {
		return n, fmt.Errorf("error loading %v: %v", name, err)
	}
	log.WithFields(log.Fields{
		"file":       name,
		"statements": n,
	}).Debug("Loaded file")
	return n, nil
}

// printSummary writes a table of the number of facts per predicate.
func printSummary(out io.Writer, g *graph.Graph) {
	t := [][]string{{"Predicate", "Facts"}}
	total := 0
	for _, s := range g.Stats() {
		t = append(t, []string{s.Predicate, fmtr.Sprintf("%d", s.Stable)})
		total += s.Stable
	}
	t = append(t, []string{"Total", fmtr.Sprintf("%d", total)})
	table.PrettyPrint(out, t, table.HeaderRow|table.FooterRow)
}

// printFacts writes a table of facts for each predicate, in canonical order.
func printFacts(out io.Writer, g *graph.Graph) {
	g.Ascend(func(predicate string, atoms *graph.AtomSet) bool {
		fmt.Fprintln(out, predicate)
		t := [][]string{{"Subject", "Object"}}
		atoms.Stable().Ascend(func(f facts.Fact) bool {
			t = append(t, []string{f.Subject, f.Object})
			return true
		})
		table.PrettyPrint(out, t, table.HeaderRow)
		fmt.Fprintln(out)
		return true
	})
}
