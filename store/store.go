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

// Package store holds the client-side mirrors of server state: cart,
// session, addresses, credit cards and orders. Every store persists itself
// on change and notifies subscribers; none of them is authoritative, the
// server wins on every refetch.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
)

const persistTimeout = 5 * time.Second

// Storage keys, one per store.
const (
	KeyCart        = "cart"
	KeyAccount     = "user"
	KeyToken       = "token"
	KeyAddresses   = "addresses"
	KeyCreditCards = "credit-cards"
	KeyOrders      = "orders"
)

type observers[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

func (o *observers[T]) add(fn func(T)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.subs == nil {
		o.subs = make(map[int]func(T))
	}
	id := o.next
	o.next++
	o.subs[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

func (o *observers[T]) notify(v T) {
	o.mu.Lock()
	fns := make([]func(T), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// persist writes v under key. Failures are logged and swallowed: local
// state is a cache and the next refetch repairs it.
func persist(s storage.Storage, log logrus.FieldLogger, key string, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		log.WithField("key", key).WithField("error", err).Error("could not encode store state")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.Set(ctx, key, buf); err != nil {
		log.WithField("key", key).WithField("error", err).Warn("could not persist store state")
	}
}

func forget(s storage.Storage, log logrus.FieldLogger, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.Delete(ctx, key); err != nil {
		log.WithField("key", key).WithField("error", err).Warn("could not delete store state")
	}
}

// hydrate decodes key into v. A missing key leaves v untouched.
func hydrate(ctx context.Context, s storage.Storage, key string, v any) error {
	buf, err := s.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, v)
}
