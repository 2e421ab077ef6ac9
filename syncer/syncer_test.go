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

package syncer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunmery/tiktok-ecommerce-storefront/alerts"
	"github.com/sunmery/tiktok-ecommerce-storefront/api"
	"github.com/sunmery/tiktok-ecommerce-storefront/httpclient"
	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
)

// backend is a scripted stand-in for the storefront services.
type backend struct {
	*httptest.Server
	router *mux.Router

	mu    sync.Mutex
	calls []string
	auth  []string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{router: mux.NewRouter()}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, r.Method+" "+r.URL.Path)
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		b.mu.Unlock()
		b.router.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) handle(method, path string, status int, body any) {
	b.router.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	}).Methods(method)
}

func (b *backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *backend) count(call string) int {
	n := 0
	for _, c := range b.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func newSyncer(t *testing.T, b *backend) *Syncer {
	t.Helper()
	log := quietLogger()
	st := store.NewState(context.Background(), storage.NewMemory(), log, "USD")
	hc, err := httpclient.New(httpclient.Options{BaseURL: b.URL, Tokens: st.Session, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return New(api.New(hc), st, alerts.NewBus(16, log), log, Options{LoginPath: "/login", ForbiddenPath: "/denied"})
}

func signIn(s *Syncer, role store.Role) {
	s.state.Session.SetToken("tok")
	s.state.Session.SetAccount(store.Account{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: role})
}

func mug(qty int32) store.CartItem {
	return store.CartItem{MerchantID: "m1", ProductID: "p1", Name: "Mug", Price: 9.5, Quantity: qty}
}

func TestGuestAddStaysLocal(t *testing.T) {
	b := newBackend(t)
	s := newSyncer(t, b)

	require.NoError(t, s.AddToCart(context.Background(), mug(2)))
	assert.Equal(t, 2, s.state.Cart.TotalQuantity())
	assert.Empty(t, b.Calls())
}

func TestAddToCartRemoteFailureKeepsLocalChange(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodPost, "/v1/carts/items", http.StatusInternalServerError, map[string]string{"message": "cart service down"})
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)

	err := s.AddToCart(context.Background(), mug(1))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httpclient.StatusCode(err))

	assert.Equal(t, 1, s.state.Cart.Count(), "optimistic change is not rolled back")
	assert.True(t, s.state.Cart.Stale())
	got := s.alerts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, alerts.Error, got[0].Level)
	assert.Equal(t, "cart service down", got[0].Message)
	assert.Empty(t, got[0].Redirect)
}

func TestAddToCartRejectsInvalidPayload(t *testing.T) {
	b := newBackend(t)
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)

	err := s.AddToCart(context.Background(), store.CartItem{ProductID: "p1", Quantity: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MerchantID")
	assert.Zero(t, s.state.Cart.Count())
	assert.Empty(t, b.Calls())
	got := s.alerts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, alerts.Warning, got[0].Level)
}

func TestUnauthorizedResetsSession(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodPut, "/v1/carts/items", http.StatusUnauthorized, map[string]string{"message": "token expired"})
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)
	s.state.Cart.AddItem(mug(1))

	err := s.UpdateCartQuantity(context.Background(), mug(1).Key(), 3)
	require.Error(t, err)
	assert.True(t, httpclient.IsUnauthorized(err))

	assert.False(t, s.state.Session.LoggedIn())
	assert.Zero(t, s.state.Cart.Count())
	got := s.alerts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "/login", got[0].Redirect)
}

func TestForbiddenRedirectsWithoutReset(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodPost, "/v1/orders/o1/ship", http.StatusForbidden, map[string]string{"message": "not your order"})
	s := newSyncer(t, b)
	signIn(s, store.RoleMerchant)

	_, err := s.ShipOrder(context.Background(), "o1", api.ShipOrderRequest{Carrier: "SF", TrackingID: "t1"})
	require.Error(t, err)
	assert.True(t, s.state.Session.LoggedIn())
	got := s.alerts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "/denied", got[0].Redirect)
	assert.Equal(t, "not your order", got[0].Message)
}

func TestShipOrderRequiresMerchant(t *testing.T) {
	b := newBackend(t)
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)

	_, err := s.ShipOrder(context.Background(), "o1", api.ShipOrderRequest{})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.True(t, IsAuthError(err))
	assert.Empty(t, b.Calls())
}

func TestSyncCartFailureKeepsLocalState(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodGet, "/v1/carts", http.StatusBadGateway, nil)
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)
	s.state.Cart.AddItem(mug(2))

	require.Error(t, s.SyncCart(context.Background()))
	assert.Equal(t, 2, s.state.Cart.TotalQuantity())
	assert.Empty(t, s.alerts.Drain(), "background sync does not alert")
}

func TestSyncCartReplacesAndCaches(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodGet, "/v1/carts", http.StatusOK, api.Cart{UserID: "u1", Items: []store.CartItem{mug(5)}})
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)
	ctx := context.Background()

	require.NoError(t, s.SyncCart(ctx))
	require.NoError(t, s.SyncCart(ctx))
	assert.Equal(t, 5, s.state.Cart.TotalQuantity())
	assert.Equal(t, 1, b.count("GET /v1/carts"))

	s.state.Cart.MarkStale()
	require.NoError(t, s.SyncCart(ctx))
	assert.Equal(t, 2, b.count("GET /v1/carts"))
	assert.False(t, s.state.Cart.Stale())
}

func TestLoginMigratesGuestCart(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodPost, "/v1/auth/login", http.StatusOK, api.LoginResponse{
		Token:   "tok",
		Account: store.Account{ID: "u1", Name: "Ann", Role: store.RoleConsumer},
	})
	b.handle(http.MethodPost, "/v1/carts/items", http.StatusOK, api.Cart{})
	b.handle(http.MethodGet, "/v1/carts", http.StatusOK, api.Cart{Items: []store.CartItem{mug(3)}})
	b.handle(http.MethodGet, "/v1/users/me/addresses", http.StatusOK, map[string]any{
		"addresses": []store.Address{{ID: 7, Name: "Home"}},
	})
	b.handle(http.MethodGet, "/v1/users/me/credit-cards", http.StatusOK, map[string]any{"credit_cards": []any{}})
	b.handle(http.MethodGet, "/v1/users/me", http.StatusOK, store.Account{ID: "u1", Name: "Ann B", Role: store.RoleConsumer})
	s := newSyncer(t, b)
	require.NoError(t, s.AddToCart(context.Background(), mug(3)))

	acct, err := s.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", acct.ID)

	assert.True(t, s.state.Session.LoggedIn())
	assert.Equal(t, 1, b.count("POST /v1/carts/items"))
	assert.Equal(t, 3, s.state.Cart.TotalQuantity())
	assert.Equal(t, 1, s.state.Addresses.Len())
	cur, ok := s.state.Session.Current()
	require.True(t, ok)
	assert.Equal(t, "Ann B", cur.Name)

	b.mu.Lock()
	last := b.auth[len(b.auth)-1]
	b.mu.Unlock()
	assert.Equal(t, "Bearer tok", last)
}

func TestLoginFailureAlerts(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodPost, "/v1/auth/login", http.StatusBadRequest, map[string]string{"message": "wrong password"})
	s := newSyncer(t, b)

	_, err := s.Login(context.Background(), "ann@example.com", "nope")
	require.Error(t, err)
	assert.False(t, s.state.Session.LoggedIn())
	got := s.alerts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "wrong password", got[0].Message)
}

func TestLoginWrongPasswordKeepsGuestState(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodPost, "/v1/auth/login", http.StatusUnauthorized, map[string]string{"message": "invalid email or password"})
	s := newSyncer(t, b)
	require.NoError(t, s.AddToCart(context.Background(), mug(3)))

	_, err := s.Login(context.Background(), "ann@example.com", "wrong-pw")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, httpclient.StatusCode(err))

	assert.Equal(t, 3, s.state.Cart.TotalQuantity())
	got := s.alerts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, alerts.Error, got[0].Level)
	assert.Equal(t, "invalid email or password", got[0].Message)
	assert.Empty(t, got[0].Redirect)
}

func TestLoginWrongPasswordKeepsCurrentSession(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodPost, "/v1/auth/login", http.StatusUnauthorized, map[string]string{"message": "invalid email or password"})
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)
	s.state.Cart.AddItem(mug(1))

	_, err := s.Login(context.Background(), "bob@example.com", "wrong-pw")
	require.Error(t, err)
	assert.True(t, s.state.Session.LoggedIn())
	assert.Equal(t, 1, s.state.Cart.Count())
}

func TestLoginAsAnotherAccountDoesNotCarryCart(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodPost, "/v1/auth/login", http.StatusOK, api.LoginResponse{
		Token:   "tok-bob",
		Account: store.Account{ID: "u2", Name: "Bob", Role: store.RoleConsumer},
	})
	b.handle(http.MethodPost, "/v1/carts/items", http.StatusOK, api.Cart{})
	b.handle(http.MethodGet, "/v1/carts", http.StatusOK, api.Cart{})
	b.handle(http.MethodGet, "/v1/users/me/addresses", http.StatusOK, map[string]any{"addresses": []any{}})
	b.handle(http.MethodGet, "/v1/users/me/credit-cards", http.StatusOK, map[string]any{"credit_cards": []any{}})
	b.handle(http.MethodGet, "/v1/users/me", http.StatusOK, store.Account{ID: "u2", Name: "Bob", Role: store.RoleConsumer})
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)
	s.state.Cart.AddItem(mug(4))
	s.state.Addresses.Upsert(store.Address{ID: 7, Name: "Ann's home"})

	acct, err := s.Login(context.Background(), "bob@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u2", acct.ID)

	assert.Zero(t, b.count("POST /v1/carts/items"))
	assert.Zero(t, s.state.Cart.Count())
	assert.Zero(t, s.state.Addresses.Len())
	cur, ok := s.state.Session.Current()
	require.True(t, ok)
	assert.Equal(t, "u2", cur.ID)
}

func TestCheckout(t *testing.T) {
	b := newBackend(t)
	var placed api.PlaceOrderRequest
	b.router.HandleFunc("/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&placed)
		writeJSON(w, http.StatusOK, store.Order{ID: "o1", Status: store.OrderPending, PaymentStatus: store.PaymentNotPaid, Currency: "USD", TotalAmount: 19})
	}).Methods(http.MethodPost)
	var paid api.CreatePaymentRequest
	b.router.HandleFunc("/v1/payments", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&paid)
		writeJSON(w, http.StatusOK, api.Payment{ID: "pay1", OrderID: "o1", Status: store.PaymentProcessing})
	}).Methods(http.MethodPost)
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)

	s.state.Cart.AddItem(mug(2))
	s.state.Cart.AddItem(store.CartItem{MerchantID: "m1", ProductID: "p2", Name: "Pen", Price: 1, Quantity: 1})
	s.state.Cart.ToggleSelected(store.ItemKey{ProductID: "p2", MerchantID: "m1"})

	res, err := s.Checkout(context.Background(), CheckoutRequest{Email: "ann@example.com", AddressID: 7, CreditCardID: 3})
	require.NoError(t, err)
	assert.Equal(t, "o1", res.Order.ID)
	require.NotNil(t, res.Payment)

	require.Len(t, placed.Items, 1)
	assert.Equal(t, "p1", placed.Items[0].ProductID)
	assert.Equal(t, "USD", placed.Currency)
	assert.InDelta(t, 19.0, paid.Amount, 1e-9)
	assert.Equal(t, int64(3), paid.CreditCardID)

	items := s.state.Cart.Items()
	require.Len(t, items, 1, "unselected lines stay in the cart")
	assert.Equal(t, "p2", items[0].ProductID)
	o, ok := s.state.Orders.Get("o1")
	require.True(t, ok)
	assert.Equal(t, store.PaymentProcessing, o.PaymentStatus)
}

func TestCheckoutEmptySelection(t *testing.T) {
	b := newBackend(t)
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)
	s.state.Cart.AddItem(mug(1))
	s.state.Cart.SelectAll(false)

	_, err := s.Checkout(context.Background(), CheckoutRequest{Email: "ann@example.com", AddressID: 1})
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Empty(t, b.Calls())
}

func TestCheckoutRequiresLogin(t *testing.T) {
	b := newBackend(t)
	s := newSyncer(t, b)
	s.state.Cart.AddItem(mug(1))

	_, err := s.Checkout(context.Background(), CheckoutRequest{Email: "ann@example.com", AddressID: 1})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	got := s.alerts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "/login", got[0].Redirect)
}

func TestOrderTransitionInvalidatesOrders(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodGet, "/v1/orders", http.StatusOK, api.OrderList{
		Orders: []store.Order{{ID: "o1", Status: store.OrderShipped}}, Total: 1,
	})
	b.handle(http.MethodPost, "/v1/orders/o1/receive", http.StatusOK, store.Order{ID: "o1", Status: store.OrderReceived})
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)
	ctx := context.Background()

	_, err := s.RefreshOrders(ctx, api.ListOrdersParams{})
	require.NoError(t, err)
	_, err = s.RefreshOrders(ctx, api.ListOrdersParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.count("GET /v1/orders"))

	o, err := s.ConfirmReceived(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, store.OrderReceived, o.Status)
	got, _ := s.state.Orders.Get("o1")
	assert.Equal(t, store.OrderReceived, got.Status)

	_, err = s.RefreshOrders(ctx, api.ListOrdersParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, b.count("GET /v1/orders"))
}

func TestDeleteAddressIsOptimistic(t *testing.T) {
	b := newBackend(t)
	b.handle(http.MethodDelete, "/v1/users/me/addresses/{id}", http.StatusServiceUnavailable, nil)
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)
	s.state.Addresses.Replace([]store.Address{{ID: 1, Name: "Home"}, {ID: 2, Name: "Work"}})

	require.Error(t, s.DeleteAddress(context.Background(), 1))
	assert.Equal(t, 1, s.state.Addresses.Len())
	_, ok := s.state.Addresses.Get(2)
	assert.True(t, ok)
}

func TestLogoutClearsEverything(t *testing.T) {
	b := newBackend(t)
	s := newSyncer(t, b)
	signIn(s, store.RoleConsumer)
	s.state.Cart.AddItem(mug(1))

	s.Logout()
	assert.False(t, s.state.Session.LoggedIn())
	assert.Zero(t, s.state.Cart.Count())
	got := s.alerts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, alerts.Info, got[0].Level)
}
