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

// Package parallel is a utility package for running parallel/concurrent tasks.
package parallel

import "context"

// InvokeLimited runs the given callback 'n' times concurrently, with at most
// 'limit' running at any one time. It invokes the callbacks with i=0, i=1, ...,
// i=n-1 in a child of 'ctx', starting them in index order. If any of the
// callbacks returns an error, InvokeLimited cancels this child context, waits
// for the running callbacks to complete, skips the ones that haven't started,
// and returns the first error. Otherwise, it waits for all the callbacks to
// complete, then returns nil. A limit < 1 is treated as 1, in which case the
// callbacks run one after another.
func InvokeLimited(ctx context.Context, n int, limit int, call func(ctx context.Context, i int) error) error {
	if limit < 1 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch := make(chan error, n)
	// tokens bounds the number of running callbacks.
	tokens := make(chan struct{}, limit)
	var firstErr error
	started, finished := 0, 0
	collect := func() {
		err := <-ch
		finished++
		<-tokens
		if err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	for ; started < n; started++ {
		for len(tokens) == limit {
			collect()
		}
		if firstErr != nil {
			break
		}
		tokens <- struct{}{}
		go func(i int) {
			ch <- call(ctx, i)
		}(started)
	}
	for finished < started {
		collect()
	}
	return firstErr
}
