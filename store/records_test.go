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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
)

func TestRecordsMergeDedupesByID(t *testing.T) {
	r := NewRecords[int64, Address](KeyAddresses, storage.NewMemory(), quietLogger())
	r.Merge([]Address{{ID: 2, City: "Paris"}, {ID: 1, City: "Lyon"}})
	r.Merge([]Address{{ID: 2, City: "Nice"}, {ID: 3, City: "Lille"}})

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "Nice", list[1].City)
}

func TestRecordsReplaceRemoveClear(t *testing.T) {
	r := NewRecords[int64, CreditCard](KeyCreditCards, storage.NewMemory(), quietLogger())
	r.Replace([]CreditCard{{ID: 1}, {ID: 2}})
	r.Replace([]CreditCard{{ID: 5, LastFour: "4242"}})
	assert.Equal(t, 1, r.Len())

	c, ok := r.Get(5)
	require.True(t, ok)
	assert.Equal(t, "4242", c.LastFour)

	r.Upsert(CreditCard{ID: 6})
	r.Remove(5)
	_, ok = r.Get(5)
	assert.False(t, ok)

	r.Clear()
	assert.Zero(t, r.Len())
}

func TestRecordsPersistAndLoad(t *testing.T) {
	mem := storage.NewMemory()
	r := NewRecords[string, Order](KeyOrders, mem, quietLogger())
	r.Replace([]Order{{ID: "b", Status: OrderShipped}, {ID: "a", Status: OrderPaid}})

	again := NewRecords[string, Order](KeyOrders, mem, quietLogger())
	require.NoError(t, again.Load(context.Background()))
	list := again.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, OrderShipped, list[1].Status)
}

func TestSessionLifecycle(t *testing.T) {
	mem := storage.NewMemory()
	s := NewSession(mem, quietLogger())
	assert.False(t, s.LoggedIn())

	var events int
	s.Subscribe(func(*Account) { events++ })

	s.SetToken("tok")
	s.SetAccount(Account{ID: "u1", Name: "ann", Role: RoleMerchant})
	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	assert.True(t, s.HasRole(RoleMerchant, RoleAdmin))
	assert.False(t, s.HasRole(RoleAdmin))

	restored := NewSession(mem, quietLogger())
	require.NoError(t, restored.Load(context.Background()))
	acct, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, "u1", acct.ID)
	assert.True(t, restored.LoggedIn())

	s.Clear()
	assert.False(t, s.LoggedIn())
	_, ok = s.Current()
	assert.False(t, ok)
	_, err = mem.Get(context.Background(), KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 2, events)
}

func TestStateResetAndCorruptData(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, KeyAddresses, []byte("{not json")))

	st := NewState(ctx, mem, quietLogger(), "USD")
	assert.Zero(t, st.Addresses.Len())

	st.Session.SetToken("tok")
	st.Cart.AddItem(mug(1))
	st.Addresses.Upsert(Address{ID: 1})
	st.Reset()

	assert.False(t, st.Session.LoggedIn())
	assert.Zero(t, st.Cart.Count())
	assert.Zero(t, st.Addresses.Len())
}
