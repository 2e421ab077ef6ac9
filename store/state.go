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

	"github.com/sirupsen/logrus"

	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
)

// State is the application state of one session. It is owned by whoever
// created it and handed to the sync layer and the presentation layer by
// pointer.
type State struct {
	Session     *Session
	Cart        *Cart
	Addresses   *Records[int64, Address]
	CreditCards *Records[int64, CreditCard]
	Orders      *Records[string, Order]

	log logrus.FieldLogger
}

type loader interface {
	Load(ctx context.Context) error
}

// NewState builds every store on s and hydrates them. A store whose
// persisted data cannot be decoded starts empty: it is a cache and the next
// sync refills it.
func NewState(ctx context.Context, s storage.Storage, log logrus.FieldLogger, currency string) *State {
	st := &State{
		Session:     NewSession(s, log),
		Cart:        NewCart(s, log, currency),
		Addresses:   NewRecords[int64, Address](KeyAddresses, s, log),
		CreditCards: NewRecords[int64, CreditCard](KeyCreditCards, s, log),
		Orders:      NewRecords[string, Order](KeyOrders, s, log),
		log:         log,
	}
	for _, l := range []loader{st.Session, st.Cart, st.Addresses, st.CreditCards, st.Orders} {
		if err := l.Load(ctx); err != nil {
			log.WithField("error", err).Warn("discarding unreadable local state")
		}
	}
	return st
}

// Reset drops everything tied to the signed-in user.
func (s *State) Reset() {
	s.Session.Clear()
	s.Cart.Clear()
	s.Addresses.Clear()
	s.CreditCards.Clear()
	s.Orders.Clear()
	s.log.Info("local state reset")
}
