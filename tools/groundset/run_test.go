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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ebay/groundset/config"
	"github.com/ebay/groundset/fixpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const family = `<http://ex/a> <http://ex/ancestor> <http://ex/b> .
<http://ex/b> <http://ex/ancestor> <http://ex/c> .
`

// setup writes the given files into a temporary directory and returns their
// paths, in the same order.
func setup(t *testing.T, contents ...string) []string {
	dir := t.TempDir()
	paths := make([]string, len(contents))
	for i, c := range contents {
		paths[i] = filepath.Join(dir, fmt.Sprintf("file%d", i))
		require.NoError(t, os.WriteFile(paths[i], []byte(c), 0644))
	}
	return paths
}

func writeConfig(t *testing.T, cfg *config.Groundset) string {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, config.Write(cfg, path))
	return path
}

func transitiveConfig(t *testing.T) string {
	return writeConfig(t, &config.Groundset{
		Rules: []config.Rule{{Type: config.Transitive, Head: "<http://ex/ancestor>"}},
	})
}

func Test_run_facts(t *testing.T) {
	files := setup(t, family)
	var out bytes.Buffer
	err := run(context.Background(), &options{
		ConfigFile:  transitiveConfig(t),
		Files:       files,
		MaxRounds:   -1,
		Parallelism: -1,
	}, &out)
	require.NoError(t, err)
	lines := strings.Split(out.String(), "\n")
	require.Len(t, lines, 10, out.String())
	assert.Equal(t, []string{
		"<http://ex/ancestor>",
		" Subject       | Object        |",
		" ------------- | ------------- |",
		" <http://ex/a> | <http://ex/b> |",
		" <http://ex/a> | <http://ex/c> |",
		" <http://ex/b> | <http://ex/c> |",
		"",
		"Loaded 2 statements, derived 1 facts in 2 rounds",
	}, lines[:8])
	assert.Regexp(t, "^digest: [0-9a-f]{16}$", lines[8])
	assert.Equal(t, "", lines[9])
}

func Test_run_summary(t *testing.T) {
	var data strings.Builder
	for i := 0; i < 1500; i++ {
		fmt.Fprintf(&data, "<http://ex/s%d> <http://ex/p> \"%d\" .\n", i, i)
	}
	files := setup(t, data.String(), family)
	var out bytes.Buffer
	err := run(context.Background(), &options{
		Files:       files,
		Summary:     true,
		Progress:    true,
		MaxRounds:   -1,
		Parallelism: 2,
	}, &out)
	require.NoError(t, err)
	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, []string{
		" Predicate            | Facts |",
		" -------------------- | ----- |",
		" <http://ex/ancestor> | 2     |",
		" <http://ex/p>        | 1,500 |",
		" -------------------- | ----- |",
		" Total                | 1,502 |",
		"Loaded 1,502 statements, derived 0 facts in 1 rounds",
	}, lines[:7])
}

func Test_run_roundLimit(t *testing.T) {
	files := setup(t, family+"<http://ex/c> <http://ex/ancestor> <http://ex/d> .\n")
	var out bytes.Buffer
	err := run(context.Background(), &options{
		ConfigFile:  transitiveConfig(t),
		Files:       files,
		MaxRounds:   1,
		Parallelism: -1,
	}, &out)
	var limitErr *fixpoint.RoundLimitError
	assert.True(t, errors.As(err, &limitErr), "got %v", err)
	assert.Empty(t, out.String())
}

func Test_run_errors(t *testing.T) {
	files := setup(t, family, "<http://ex/a> <http://ex/p>\n")
	err := run(context.Background(), &options{
		Files:       files,
		MaxRounds:   -1,
		Parallelism: -1,
	}, new(bytes.Buffer))
	if assert.Error(t, err) {
		assert.Regexp(t, `^error loading .*/file1: unable to parse N-Triples: line 1 column 28: `, err.Error())
	}

	err = run(context.Background(), &options{
		Files:       []string{filepath.Join(t.TempDir(), "404.nt")},
		MaxRounds:   -1,
		Parallelism: -1,
	}, new(bytes.Buffer))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "404.nt")
	}

	err = run(context.Background(), &options{
		ConfigFile: writeConfig(t, &config.Groundset{
			Rules: []config.Rule{{Type: "bogus", Head: "<p>"}},
		}),
		Files:       files[:1],
		MaxRounds:   -1,
		Parallelism: -1,
	}, new(bytes.Buffer))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `unknown type "bogus"`)
	}
}

func Test_run_turtle(t *testing.T) {
	ttl := filepath.Join(t.TempDir(), "family.ttl")
	require.NoError(t, os.WriteFile(ttl, []byte(`@prefix ex: <http://ex/> .
ex:c ex:ancestor ex:d ; ex:name "C" .
`), 0644))
	files := append(setup(t, family), ttl)
	var out bytes.Buffer
	err := run(context.Background(), &options{
		ConfigFile:  transitiveConfig(t),
		Files:       files,
		Summary:     true,
		MaxRounds:   -1,
		Parallelism: -1,
	}, &out)
	require.NoError(t, err)
	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, []string{
		" Predicate            | Facts |",
		" -------------------- | ----- |",
		" <http://ex/ancestor> | 6     |",
		" <http://ex/name>     | 1     |",
		" -------------------- | ----- |",
		" Total                | 7     |",
		"Loaded 4 statements, derived 3 facts in 3 rounds",
	}, lines[:7])

	// The same file read as N-Triples doesn't parse.
	nt := filepath.Join(t.TempDir(), "family.nt")
	data, err := os.ReadFile(ttl)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(nt, data, 0644))
	err = run(context.Background(), &options{
		Files:       []string{nt},
		MaxRounds:   -1,
		Parallelism: -1,
	}, new(bytes.Buffer))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "unable to parse N-Triples: line 1 column 1")
	}
}

func Test_run_writeConfig(t *testing.T) {
	files := setup(t, family)
	written := filepath.Join(t.TempDir(), "effective.json")
	err := run(context.Background(), &options{
		ConfigFile:  transitiveConfig(t),
		WriteConfig: written,
		Files:       files,
		MaxRounds:   7,
		Parallelism: 3,
	}, new(bytes.Buffer))
	require.NoError(t, err)
	cfg, err := config.Load(written)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Fixpoint.MaxRounds)
	assert.Equal(t, 3, cfg.Fixpoint.Parallelism)
	assert.Equal(t, []config.Rule{{Type: config.Transitive, Head: "<http://ex/ancestor>"}}, cfg.Rules)
}
