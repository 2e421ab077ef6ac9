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

// Package logistics simulates the movement of a shipment between its origin
// and destination for the tracking view. Positions are interpolated on a
// straight line; nothing here talks to a carrier.
package logistics

import (
	"context"
	"time"
)

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultInterval is the tick used when a simulation is given none.
const DefaultInterval = time.Second

type Position struct {
	Coord
	Progress float64 `json:"progress"`
	Step     int     `json:"step"`
	Arrived  bool    `json:"arrived"`
}

// Interpolate returns the point at progress along the segment from -> to.
// progress is clamped to [0, 1].
func Interpolate(from, to Coord, progress float64) Coord {
	switch {
	case progress <= 0:
		return from
	case progress >= 1:
		return to
	}
	return Coord{
		Lat: from.Lat + (to.Lat-from.Lat)*progress,
		Lng: from.Lng + (to.Lng-from.Lng)*progress,
	}
}

// Simulate emits steps+1 positions, from the origin to the destination, one
// per interval. A shipment already at its destination emits a single
// arrived position. The channel closes after arrival or when ctx is done.
func Simulate(ctx context.Context, from, to Coord, steps int, interval time.Duration) <-chan Position {
	if steps < 1 {
		steps = 1
	}
	if from == to {
		steps = 0
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	out := make(chan Position)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for i := 0; i <= steps; i++ {
			p := 1.0
			if steps > 0 {
				p = float64(i) / float64(steps)
			}
			pos := Position{Coord: Interpolate(from, to, p), Progress: p, Step: i, Arrived: i == steps}
			select {
			case out <- pos:
			case <-ctx.Done():
				return
			}
			if pos.Arrived {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Resume is Simulate starting from an already reported progress, as when
// the tracking page is opened mid-route.
func Resume(ctx context.Context, from, to Coord, progress float64, steps int, interval time.Duration) <-chan Position {
	start := Interpolate(from, to, progress)
	return Simulate(ctx, start, to, steps, interval)
}
