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
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/sunmery/tiktok-ecommerce-storefront/alerts"
	"github.com/sunmery/tiktok-ecommerce-storefront/api"
	"github.com/sunmery/tiktok-ecommerce-storefront/config"
	"github.com/sunmery/tiktok-ecommerce-storefront/httpclient"
	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
	"github.com/sunmery/tiktok-ecommerce-storefront/syncer"
)

// newSyncer wires the stores of one visitor, keyed under prefix in the
// shared storage backend, to the backend services.
func newSyncer(ctx context.Context, cfg config.Config, base storage.Storage, prefix string, transport http.RoundTripper, log logrus.FieldLogger) (*syncer.Syncer, error) {
	st := store.NewState(ctx, storage.WithPrefix(base, prefix), log, cfg.Currency)
	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		Tokens:    st.Session,
		Transport: transport,
		Logger:    log,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create api client")
	}
	return syncer.New(api.New(hc), st, alerts.NewBus(cfg.AlertBuffer, log), log, syncer.Options{
		LoginPath:     cfg.LoginPath,
		ForbiddenPath: cfg.ForbiddenPath,
	}), nil
}

type session struct {
	syncer   *syncer.Syncer
	lastSeen time.Time
}

// sessions keeps one syncer per browser session in memory. The stores
// behind it live in the storage backend, so an evicted session is rebuilt
// from there on its next request.
type sessions struct {
	mu    sync.Mutex
	byID  map[string]*session
	idle  time.Duration
	max   int
	now   func() time.Time
	build func(ctx context.Context, id string) (*syncer.Syncer, error)

	// building collapses concurrent first requests of one session into a
	// single build. Builds hydrate from storage and run without mu held.
	building singleflight.Group
}

func newSessions(idle time.Duration, maxSessions int, build func(ctx context.Context, id string) (*syncer.Syncer, error)) *sessions {
	return &sessions{byID: make(map[string]*session), idle: idle, max: maxSessions, now: time.Now, build: build}
}

func (s *sessions) get(ctx context.Context, id string) (*syncer.Syncer, error) {
	if sy, ok := s.lookup(id); ok {
		return sy, nil
	}
	v, err, _ := s.building.Do(id, func() (any, error) {
		if sy, ok := s.lookup(id); ok {
			return sy, nil
		}
		sy, err := s.build(ctx, id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		now := s.now()
		s.byID[id] = &session{syncer: sy, lastSeen: now}
		s.evictLocked(now)
		return sy, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*syncer.Syncer), nil
}

func (s *sessions) lookup(id string) (*syncer.Syncer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.evictLocked(now)
	sess, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = now
	return sess.syncer, true
}

// evictLocked drops idle sessions, then the least recently seen ones while
// the map is over its cap.
func (s *sessions) evictLocked(now time.Time) {
	if s.idle > 0 {
		for id, sess := range s.byID {
			if now.Sub(sess.lastSeen) > s.idle {
				delete(s.byID, id)
			}
		}
	}
	for s.max > 0 && len(s.byID) > s.max {
		var (
			oldest string
			seen   time.Time
		)
		for id, sess := range s.byID {
			if oldest == "" || sess.lastSeen.Before(seen) {
				oldest, seen = id, sess.lastSeen
			}
		}
		delete(s.byID, oldest)
	}
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
