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

// Command groundset loads N-Triples and Turtle files, evaluates rules over them
// until no more facts can be derived, and prints the resulting facts.
package main

import (
	"context"
	"os"
	"strconv"

	docopt "github.com/docopt/docopt-go"
	"github.com/ebay/groundset/util/debuglog"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var fmtr = message.NewPrinter(language.English)

const usage = `groundset evaluates rules over RDF facts until a fixpoint is reached.

Usage:
  groundset [--config=FILE --max-rounds=N --parallelism=N --metrics=ADDR --write-config=FILE --progress --summary --debug] FILE...

Options:
  -c=FILE, --config=FILE  JSON configuration listing the rules to evaluate.
  --max-rounds=N          Give up after this many rounds. Overrides the configuration.
  --parallelism=N         Number of rules to evaluate concurrently. Overrides the configuration.
  --metrics=ADDR          Serve metrics and diagnostics over HTTP on this host:port.
  --write-config=FILE     Write the configuration in effect, after overrides, to FILE.
  --progress              Show a progress bar while loading files.
  --summary               Print the number of facts per predicate instead of the facts.
  --debug                 Log at debug level, including every round.

Files ending in .ttl are read as Turtle, others as N-Triples. Use - as a FILE
to read N-Triples from standard input.

Examples:
  # Make <http://example.com/ancestor> transitive.
  cat > rules.json <<EOF
  {"rules": [{"type": "transitive", "head": "<http://example.com/ancestor>"}]}
EOF
  groundset --config=rules.json family.nt
`

type options struct {
	ConfigFile        string   `docopt:"--config"`
	MaxRoundsString   string   `docopt:"--max-rounds"`
	ParallelismString string   `docopt:"--parallelism"`
	MetricsAddress    string   `docopt:"--metrics"`
	WriteConfig       string   `docopt:"--write-config"`
	Progress          bool     `docopt:"--progress"`
	Summary           bool     `docopt:"--summary"`
	Debug             bool     `docopt:"--debug"`
	Files             []string `docopt:"FILE"`

	// MaxRounds and Parallelism are -1 when not given, then the
	// configuration applies.
	MaxRounds   int
	Parallelism int
}

func parseArgs() *options {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		log.Fatalf("Error parsing command-line arguments: %v", err)
	}
	var options options
	err = opts.Bind(&options)
	if err != nil {
		log.Fatalf("Error binding command-line arguments: %v\nfrom: %+v", err, opts)
	}
	options.MaxRounds, options.Parallelism = -1, -1
	if options.MaxRoundsString != "" {
		options.MaxRounds, err = strconv.Atoi(options.MaxRoundsString)
		if err != nil || options.MaxRounds < 0 {
			log.Fatalf("Unable to parse max-rounds value: %q", options.MaxRoundsString)
		}
	}
	if options.ParallelismString != "" {
		options.Parallelism, err = strconv.Atoi(options.ParallelismString)
		if err != nil || options.Parallelism < 0 {
			log.Fatalf("Unable to parse parallelism value: %q", options.ParallelismString)
		}
	}
	return &options
}

func main() {
	options := parseArgs()
	if options.Debug {
		debuglog.Configure(debuglog.Options{Level: log.DebugLevel})
	}
	if err := run(context.Background(), options, os.Stdout); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
