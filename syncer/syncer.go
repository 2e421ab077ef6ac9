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

// Package syncer keeps the local stores and the backend in step. Every
// write follows the same pattern: mutate the store, call the backend,
// invalidate the affected queries. A failed call is reported and the store
// is marked for refetch; the local change is not rolled back.
package syncer

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunmery/tiktok-ecommerce-storefront/alerts"
	"github.com/sunmery/tiktok-ecommerce-storefront/api"
	"github.com/sunmery/tiktok-ecommerce-storefront/httpclient"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
)

// Query keys.
const (
	keyCart        = "cart"
	keyAddresses   = "addresses"
	keyCreditCards = "credit-cards"
	keyOrders      = "orders"
	keyProducts    = "products"
	keyBalance     = "balance"
	keyTracking    = "tracking/"
)

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrForbidden      = errors.New("permission denied")
	ErrEmptySelection = errors.New("no cart items selected")
	ErrInvalid        = errors.New("invalid input")
)

type Options struct {
	LoginPath     string
	ForbiddenPath string
	CacheTTL      time.Duration
}

type Syncer struct {
	api    *api.Client
	state  *store.State
	cache  *Cache
	alerts *alerts.Bus
	log    logrus.FieldLogger

	loginPath     string
	forbiddenPath string
}

func New(c *api.Client, st *store.State, bus *alerts.Bus, log logrus.FieldLogger, opts Options) *Syncer {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.ForbiddenPath == "" {
		opts.ForbiddenPath = "/"
	}
	return &Syncer{
		api:           c,
		state:         st,
		cache:         NewCache(opts.CacheTTL),
		alerts:        bus,
		log:           log,
		loginPath:     opts.LoginPath,
		forbiddenPath: opts.ForbiddenPath,
	}
}

func (s *Syncer) State() *store.State { return s.state }
func (s *Syncer) Alerts() *alerts.Bus  { return s.alerts }

// fail classifies err by status, publishes the matching alert and returns
// err wrapped with op. A 401 on a call that carried a token drops the
// session: the token is no longer good for anything.
func (s *Syncer) fail(op string, err error) error {
	log := s.log.WithField("op", op).WithField("error", err)
	status := httpclient.StatusCode(err)
	switch {
	case status == http.StatusUnauthorized && s.state.Session.LoggedIn():
		log.Warn("session rejected by backend, logging out")
		s.state.Reset()
		s.cache.InvalidateAll()
		s.alerts.Errorf(s.loginPath, "your session has expired, please log in again")
	case status == http.StatusForbidden:
		log.Warn("operation forbidden")
		s.alerts.Errorf(s.forbiddenPath, httpclient.Message(err))
	default:
		log.Error("operation failed")
		s.alerts.Errorf("", httpclient.Message(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rejected reports a failed sign-in or registration. Bad credentials say
// nothing about the current session, which is left as it is.
func (s *Syncer) rejected(op string, err error) error {
	s.log.WithField("op", op).WithField("error", err).Warn("credentials rejected")
	s.alerts.Errorf("", httpclient.Message(err))
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Syncer) requireLogin(op string) error {
	if s.state.Session.LoggedIn() {
		return nil
	}
	s.alerts.Errorf(s.loginPath, "please log in first")
	return fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
}

func (s *Syncer) requireRole(op string, roles ...store.Role) error {
	if err := s.requireLogin(op); err != nil {
		return err
	}
	if s.state.Session.HasRole(roles...) {
		return nil
	}
	s.alerts.Errorf(s.forbiddenPath, "you do not have permission to do that")
	return fmt.Errorf("%s: %w", op, ErrForbidden)
}

func (s *Syncer) invalid(op string, err error) error {
	s.alerts.Publish(alerts.Alert{Level: alerts.Warning, Message: err.Error()})
	return fmt.Errorf("%s: %w: %w", op, ErrInvalid, err)
}
