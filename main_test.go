// Copyright 2018 Google LLC
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

package main

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/profiler"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitProfilingStopsOnCancel(t *testing.T) {
	var attempts atomic.Int32
	orig := startProfiler
	startProfiler = func(profiler.Config) error {
		attempts.Add(1)
		return errors.New("no credentials")
	}
	t.Cleanup(func() { startProfiler = orig })

	log := logrus.New()
	log.Out = io.Discard
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		initProfiling(ctx, log, serviceName, serviceVersion)
		close(done)
	}()

	assert.Eventually(t, func() bool { return attempts.Load() == 1 }, 5*time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("profiler retries outlived the context")
	}
	assert.Equal(t, int32(1), attempts.Load())
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger(io.Discard, "loud")
	assert.Error(t, err)

	log, err := newLogger(io.Discard, "warn")
	assert.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.Level)
}
