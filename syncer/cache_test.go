// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFetch(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	ctx := context.Background()

	v, err := Fetch(ctx, c, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, _ = Fetch(ctx, c, "k", fn)
	assert.Equal(t, 1, v, "served from cache")

	now = now.Add(2 * time.Minute)
	v, _ = Fetch(ctx, c, "k", fn)
	assert.Equal(t, 2, v, "expired entries are refetched")
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	c := NewCache(0)
	fail := true
	fn := func(context.Context) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return "ok", nil
	}
	_, err := Fetch(context.Background(), c, "k", fn)
	require.Error(t, err)
	fail = false
	v, err := Fetch(context.Background(), c, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCacheInvalidateByPrefix(t *testing.T) {
	c := NewCache(time.Minute)
	ctx := context.Background()
	n := 0
	fn := func(context.Context) (int, error) { n++; return n, nil }

	for _, k := range []string{"orders?page=1", "orders/o1", "cart"} {
		_, err := Fetch(ctx, c, k, fn)
		require.NoError(t, err)
	}
	c.Invalidate(keyOrders)

	v, _ := Fetch(ctx, c, "cart", fn)
	assert.Equal(t, 3, v)
	v, _ = Fetch(ctx, c, "orders/o1", fn)
	assert.Equal(t, 4, v)

	c.InvalidateAll()
	v, _ = Fetch(ctx, c, "cart", fn)
	assert.Equal(t, 5, v)
}

func TestCacheDropsResultReadAcrossInvalidate(t *testing.T) {
	c := NewCache(time.Minute)
	ctx := context.Background()
	started, release := make(chan struct{}), make(chan struct{})
	slow := func(context.Context) (string, error) {
		close(started)
		<-release
		return "old", nil
	}

	done := make(chan string)
	go func() {
		v, _ := Fetch(ctx, c, keyCart, slow)
		done <- v
	}()
	<-started
	c.Invalidate(keyCart)
	close(release)
	assert.Equal(t, "old", <-done, "the caller still gets what it read")

	calls := 0
	v, err := Fetch(ctx, c, keyCart, func(context.Context) (string, error) {
		calls++
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, calls)
}
