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

package logistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestInterpolate(t *testing.T) {
	from := Coord{Lat: 0, Lng: 0}
	to := Coord{Lat: 10, Lng: -20}

	assert.Equal(t, from, Interpolate(from, to, 0))
	assert.Equal(t, to, Interpolate(from, to, 1))
	assert.Equal(t, Coord{Lat: 5, Lng: -10}, Interpolate(from, to, 0.5))
	assert.Equal(t, from, Interpolate(from, to, -3))
	assert.Equal(t, to, Interpolate(from, to, 7))
}

func TestSimulateReachesDestination(t *testing.T) {
	from := Coord{Lat: 31.23, Lng: 121.47}
	to := Coord{Lat: 39.90, Lng: 116.40}

	var got []Position
	for p := range Simulate(context.Background(), from, to, 4, time.Millisecond) {
		got = append(got, p)
	}
	if assert.Len(t, got, 5) {
		assert.Equal(t, from, got[0].Coord)
		assert.Equal(t, to, got[4].Coord)
		assert.True(t, got[4].Arrived)
		assert.False(t, got[3].Arrived)
		assert.InDelta(t, 0.75, got[3].Progress, 1e-9)
	}
}

func TestSimulateStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := Simulate(ctx, Coord{}, Coord{Lat: 1}, 1000, time.Hour)

	first := <-ch
	assert.Equal(t, 0, first.Step)
	cancel()

	for range ch {
	}
}

func TestResume(t *testing.T) {
	var last Position
	n := 0
	for p := range Resume(context.Background(), Coord{}, Coord{Lat: 10}, 0.5, 2, time.Millisecond) {
		if n == 0 {
			assert.Equal(t, Coord{Lat: 5}, p.Coord)
		}
		last = p
		n++
	}
	assert.Equal(t, 3, n)
	assert.Equal(t, Coord{Lat: 10}, last.Coord)
}

func TestSimulateDefaultsNonPositiveInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := Simulate(ctx, Coord{}, Coord{Lat: 1}, 2, 0)

	first := <-ch
	assert.Equal(t, 0, first.Step)
	cancel()
	for range ch {
	}
}

func TestSimulateAlreadyArrived(t *testing.T) {
	dest := Coord{Lat: 22.54, Lng: 114.06}
	var got []Position
	for p := range Resume(context.Background(), Coord{}, dest, 1, 5, time.Millisecond) {
		got = append(got, p)
	}
	if assert.Len(t, got, 1) {
		assert.True(t, got[0].Arrived)
		assert.Equal(t, dest, got[0].Coord)
		assert.Equal(t, 1.0, got[0].Progress)
	}
}
