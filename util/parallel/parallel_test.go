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

package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Each rule in a round can be evaluated on its own goroutine, with its own
// output buffer, and the buffers combined after the barrier.
func ExampleInvokeLimited_buffers() {
	ctx := context.Background()
	in := [][]int{{1, 2}, {3}, {4, 5, 6}}
	out := make([]int, len(in))
	_ = InvokeLimited(ctx, len(in), 2, func(ctx context.Context, i int) error {
		for _, x := range in[i] {
			out[i] += x
		}
		return nil
	})
	fmt.Printf("result: %v\n", out)
	// Output:
	// result: [3 3 15]
}

func Test_InvokeLimited_basic(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	err := InvokeLimited(ctx, 0, 4, func(ctx context.Context, idx int) error {
		assert.Fail("should not be called")
		return errors.New("failed")
	})
	assert.NoError(err)

	res := make([]int, 3)
	err = InvokeLimited(ctx, 3, 3, func(ctx context.Context, idx int) error {
		res[idx] = idx + 3
		return ctx.Err()
	})
	assert.NoError(err)
	assert.Equal([]int{3, 4, 5}, res)
}

func Test_InvokeLimited_earlyExit(t *testing.T) {
	assert := assert.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := InvokeLimited(ctx, 10, 10, func(ctx context.Context, i int) error {
		if i == 0 {
			return errors.New("failure")
		}
		<-ctx.Done()
		return ctx.Err()
	})
	assert.EqualError(err, "failure")
	assert.NoError(ctx.Err())
}

func Test_InvokeLimited(t *testing.T) {
	for _, limit := range []int{-1, 0, 1, 2, 3, 10} {
		t.Run(fmt.Sprintf("limit_%d", limit), func(t *testing.T) {
			var running, maxRunning int32
			res := make([]int, 7)
			err := InvokeLimited(context.Background(), len(res), limit, func(ctx context.Context, i int) error {
				now := atomic.AddInt32(&running, 1)
				for {
					prev := atomic.LoadInt32(&maxRunning)
					if now <= prev || atomic.CompareAndSwapInt32(&maxRunning, prev, now) {
						break
					}
				}
				res[i] = i * i
				atomic.AddInt32(&running, -1)
				return nil
			})
			assert.NoError(t, err)
			assert.Equal(t, []int{0, 1, 4, 9, 16, 25, 36}, res)
			expMax := int32(limit)
			if expMax < 1 {
				expMax = 1
			}
			assert.True(t, maxRunning <= expMax, "ran %d at once with limit %d", maxRunning, limit)
		})
	}
}

func Test_InvokeLimited_sequentialStopsOnError(t *testing.T) {
	called := make([]bool, 4)
	err := InvokeLimited(context.Background(), len(called), 1, func(ctx context.Context, i int) error {
		called[i] = true
		if i == 1 {
			return errors.New("stop here")
		}
		return nil
	})
	assert.EqualError(t, err, "stop here")
	assert.Equal(t, []bool{true, true, false, false}, called)
}
