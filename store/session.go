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

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
)

type Role string

const (
	RoleConsumer Role = "consumer"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

type Account struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session holds the signed-in account and its bearer token. Both are
// replaced wholesale on login and dropped on logout.
type Session struct {
	mu      sync.RWMutex
	account *Account
	token   string

	storage storage.Storage
	log     logrus.FieldLogger
	subs    observers[*Account]
}

func NewSession(s storage.Storage, log logrus.FieldLogger) *Session {
	return &Session{storage: s, log: log.WithField("store", KeyAccount)}
}

func (s *Session) Load(ctx context.Context) error {
	var acct *Account
	if err := hydrate(ctx, s.storage, KeyAccount, &acct); err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	var token string
	if err := hydrate(ctx, s.storage, KeyToken, &token); err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	s.mu.Lock()
	s.account, s.token = acct, token
	s.mu.Unlock()
	return nil
}

func (s *Session) Subscribe(fn func(*Account)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// Token implements httpclient.TokenSource.
func (s *Session) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	persist(s.storage, s.log, KeyToken, token)
	s.mu.Unlock()
}

func (s *Session) SetAccount(a Account) {
	s.mu.Lock()
	s.account = &a
	persist(s.storage, s.log, KeyAccount, a)
	s.mu.Unlock()
	s.subs.notify(&a)
}

// Clear logs the session out locally.
func (s *Session) Clear() {
	s.mu.Lock()
	s.account, s.token = nil, ""
	forget(s.storage, s.log, KeyAccount)
	forget(s.storage, s.log, KeyToken)
	s.mu.Unlock()
	s.subs.notify(nil)
}

// Current returns a copy of the signed-in account.
func (s *Session) Current() (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return Account{}, false
	}
	return *s.account, true
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Session) HasRole(roles ...Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return false
	}
	for _, r := range roles {
		if s.account.Role == r {
			return true
		}
	}
	return false
}
