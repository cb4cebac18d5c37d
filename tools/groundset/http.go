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
	"fmt"
	"net/http"
	"sync"

	"github.com/ebay/groundset/graph"
	"github.com/ebay/groundset/util/table"
	"github.com/ebay/groundset/util/web"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// diagServer serves metrics, and snapshots of the graph taken between phases
// of the run. The graph itself isn't read by the handlers, as it's modified
// while the rules are evaluated.
type diagServer struct {
	lock   sync.Mutex
	locked struct {
		phase  string
		stats  []graph.PartitionStats
		digest uint64
	}
}

func newDiagServer() *diagServer {
	s := &diagServer{}
	s.locked.phase = "loading"
	return s
}

// update records a snapshot of 'g'. It must not be called concurrently with
// changes to 'g'.
func (s *diagServer) update(phase string, g *graph.Graph) {
	stats := g.Stats()
	digest := g.Digest()
	s.lock.Lock()
	s.locked.phase = phase
	s.locked.stats = stats
	s.locked.digest = digest
	s.lock.Unlock()
}

type predicatesResult struct {
	Phase      string                 `json:"phase"`
	Predicates []graph.PartitionStats `json:"predicates"`
}

func (s *diagServer) snapshot() predicatesResult {
	s.lock.Lock()
	defer s.lock.Unlock()
	return predicatesResult{
		Phase:      s.locked.phase,
		Predicates: append([]graph.PartitionStats(nil), s.locked.stats...),
	}
}

func (s *diagServer) handler() http.Handler {
	m := httprouter.New()
	m.Handler("GET", "/metrics", promhttp.Handler())
	m.GET("/predicates", s.predicates)
	m.GET("/predicates.txt", s.predicatesTable)
	m.GET("/digest", s.digest)
	m.POST("/logLevel", s.setLogLevel)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("[diag] %v %v", r.Method, r.URL)
		m.ServeHTTP(w, r)
	})
}

// serve blocks handling HTTP requests on 'addr'.
func (s *diagServer) serve(addr string) error {
	log.Infof("Serving diagnostics on %v", addr)
	return http.ListenAndServe(addr, s.handler())
}

func (s *diagServer) predicates(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	web.Write(w, s.snapshot())
}

func (s *diagServer) predicatesTable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	snap := s.snapshot()
	t := [][]string{{"Predicate", "Stable", "Delta", "Backlog"}}
	for _, p := range snap.Predicates {
		t = append(t, []string{
			p.Predicate,
			fmtr.Sprintf("%d", p.Stable),
			fmtr.Sprintf("%d", p.Delta),
			fmtr.Sprintf("%d", p.Backlog),
		})
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Phase: %s\n\n", snap.Phase)
	table.PrettyPrint(w, t, table.HeaderRow)
}

func (s *diagServer) digest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.lock.Lock()
	digest := s.locked.digest
	s.lock.Unlock()
	web.Write(w, fmt.Sprintf("%016x\n", digest))
}

func (s *diagServer) setLogLevel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	levelName := r.URL.Query().Get("l")
	level, err := log.ParseLevel(levelName)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, "Unable to parse level name: %s, %v", levelName, err)
		return
	}
	log.SetLevel(level)
	web.Write(w, fmt.Sprintf("Log level set to %v\n", level))
}
