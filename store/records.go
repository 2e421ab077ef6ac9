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
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
)

// Keyed is a server-identified record.
type Keyed[K cmp.Ordered] interface {
	RecordKey() K
}

// Records mirrors a server-side collection, deduplicated by record key.
type Records[K cmp.Ordered, T Keyed[K]] struct {
	mu   sync.RWMutex
	byID map[K]T
	key  string

	storage storage.Storage
	log     logrus.FieldLogger
	subs    observers[[]T]
}

func NewRecords[K cmp.Ordered, T Keyed[K]](key string, s storage.Storage, log logrus.FieldLogger) *Records[K, T] {
	return &Records[K, T]{
		byID:    make(map[K]T),
		key:     key,
		storage: s,
		log:     log.WithField("store", key),
	}
}

func (r *Records[K, T]) Load(ctx context.Context) error {
	var list []T
	if err := hydrate(ctx, r.storage, r.key, &list); err != nil {
		return fmt.Errorf("load %s: %w", r.key, err)
	}
	r.mu.Lock()
	r.byID = make(map[K]T, len(list))
	for _, rec := range list {
		r.byID[rec.RecordKey()] = rec
	}
	r.mu.Unlock()
	return nil
}

func (r *Records[K, T]) Subscribe(fn func([]T)) (unsubscribe func()) {
	return r.subs.add(fn)
}

func (r *Records[K, T]) mutate(fn func(map[K]T)) {
	r.mu.Lock()
	fn(r.byID)
	list := r.listLocked()
	persist(r.storage, r.log, r.key, list)
	r.mu.Unlock()
	r.subs.notify(list)
}

func (r *Records[K, T]) listLocked() []T {
	keys := make([]K, 0, len(r.byID))
	for k := range r.byID {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]T, len(keys))
	for i, k := range keys {
		out[i] = r.byID[k]
	}
	return out
}

// Merge folds records into the store. A record whose key is already known
// replaces the local copy: the server wins.
func (r *Records[K, T]) Merge(records []T) {
	r.mutate(func(m map[K]T) {
		for _, rec := range records {
			m[rec.RecordKey()] = rec
		}
	})
}

// Replace makes the store hold exactly records.
func (r *Records[K, T]) Replace(records []T) {
	r.mutate(func(m map[K]T) {
		clear(m)
		for _, rec := range records {
			m[rec.RecordKey()] = rec
		}
	})
}

func (r *Records[K, T]) Upsert(rec T) {
	r.mutate(func(m map[K]T) { m[rec.RecordKey()] = rec })
}

func (r *Records[K, T]) Remove(key K) {
	r.mutate(func(m map[K]T) { delete(m, key) })
}

func (r *Records[K, T]) Clear() {
	r.mutate(func(m map[K]T) { clear(m) })
}

func (r *Records[K, T]) Get(key K) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[key]
	return rec, ok
}

// List returns the records ordered by key.
func (r *Records[K, T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

func (r *Records[K, T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

type Address struct {
	ID            int64  `json:"id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	ZipCode       string `json:"zip_code"`
	IsDefault     bool   `json:"is_default"`
}

func (a Address) RecordKey() int64 { return a.ID }

// CreditCard is the masked card the server returns; the full number and
// CVV never reach local storage.
type CreditCard struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	Owner     string `json:"owner"`
	Brand     string `json:"brand"`
	LastFour  string `json:"last_four"`
	ExpMonth  int32  `json:"exp_month"`
	ExpYear   int32  `json:"exp_year"`
	IsDefault bool   `json:"is_default"`
}

func (c CreditCard) RecordKey() int64 { return c.ID }

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderReceived  OrderStatus = "RECEIVED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentNotPaid    PaymentStatus = "NOT_PAID"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentPaid       PaymentStatus = "PAID"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

type OrderItem struct {
	ProductID  string  `json:"productId"`
	MerchantID string  `json:"merchantId"`
	Name       string  `json:"name"`
	Picture    string  `json:"picture"`
	Quantity   int32   `json:"quantity"`
	Price      float64 `json:"price"`
}

// Order is a read-only projection of a server order. Status only changes
// through server round-trips.
type Order struct {
	ID            string        `json:"orderId"`
	UserID        string        `json:"userId"`
	Email         string        `json:"email"`
	Currency      string        `json:"currency"`
	Items         []OrderItem   `json:"items"`
	TotalAmount   float64       `json:"totalAmount"`
	AddressID     int64         `json:"addressId"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TrackingID    string        `json:"trackingId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (o Order) RecordKey() string { return o.ID }
