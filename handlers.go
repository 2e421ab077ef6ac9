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
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/sunmery/tiktok-ecommerce-storefront/alerts"
	"github.com/sunmery/tiktok-ecommerce-storefront/api"
	"github.com/sunmery/tiktok-ecommerce-storefront/httpclient"
	"github.com/sunmery/tiktok-ecommerce-storefront/logistics"
	"github.com/sunmery/tiktok-ecommerce-storefront/money"
	"github.com/sunmery/tiktok-ecommerce-storefront/present"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
	"github.com/sunmery/tiktok-ecommerce-storefront/syncer"
)

type productView struct {
	api.Product
	DisplayPrice string `json:"displayPrice"`
}

func (fe *frontendServer) productsHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, size := queryInt(r, "page", 1), queryInt(r, "pageSize", present.DefaultPageSize)
	categoryID, _ := strconv.ParseInt(q.Get("category"), 10, 64)
	list, err := sy.Products(r.Context(), api.ListProductsParams{
		Page:       api.Page{Page: page, PageSize: size},
		CategoryID: categoryID,
		MerchantID: q.Get("merchant"),
		Keyword:    q.Get("q"),
	})
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "could not retrieve products"), statusFor(err))
		return
	}
	products := make([]productView, len(list.Items))
	for i, p := range list.Items {
		products[i] = productView{Product: p, DisplayPrice: renderPrice(p.Currency, p.Price)}
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{
		"products": products,
		"page":     present.Paginate(list.Total, page, size),
	})
}

type commentView struct {
	api.Comment
	Stars string `json:"stars"`
}

func (fe *frontendServer) productHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if id == "" {
		renderHTTPError(log, r, w, sy, errors.New("product id not specified"), http.StatusBadRequest)
		return
	}
	log.WithField("id", id).WithField("currency", fe.cfg.Currency).Debug("serving product page")

	p, err := sy.Product(r.Context(), id, r.URL.Query().Get("merchant"))
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "could not retrieve product"), statusFor(err))
		return
	}
	comments, err := sy.Comments(r.Context(), id, api.Page{Page: queryInt(r, "page", 1), PageSize: 5})
	if err != nil {
		// Reviews are secondary; the page still renders without them.
		log.WithField("error", err).Warn("could not retrieve comments")
	}
	cv := make([]commentView, len(comments.Comments))
	for i, c := range comments.Comments {
		cv[i] = commentView{Comment: c, Stars: present.Stars(c.Score)}
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{
		"product":     productView{Product: p, DisplayPrice: renderPrice(p.Currency, p.Price)},
		"comments":    cv,
		"breadcrumbs": present.Breadcrumbs("products/"+id, map[string]string{"products": "Products", id: p.Name}),
	})
}

type cartLineView struct {
	store.CartItem
	Subtotal string `json:"subtotal"`
}

type cartView struct {
	Items         []cartLineView `json:"items"`
	Count         int            `json:"count"`
	TotalQuantity int            `json:"totalQuantity"`
	SelectedCount int            `json:"selectedCount"`
	AllSelected   bool           `json:"allSelected"`
	Total         string         `json:"total"`
	SelectedTotal string         `json:"selectedTotal"`
	Currency      string         `json:"currency"`
	LoggedIn      bool           `json:"loggedIn"`
}

func newCartView(st *store.State) cartView {
	c := st.Cart
	items := c.Items()
	lines := make([]cartLineView, len(items))
	for i, it := range items {
		sub := money.Multiply(money.FromFloat(c.Currency(), it.Price), int64(it.Quantity))
		lines[i] = cartLineView{CartItem: it, Subtotal: renderMoney(sub)}
	}
	return cartView{
		Items:         lines,
		Count:         c.Count(),
		TotalQuantity: c.TotalQuantity(),
		SelectedCount: c.SelectedCount(),
		AllSelected:   c.AllSelected(),
		Total:         renderMoney(c.TotalPrice()),
		SelectedTotal: renderMoney(c.SelectedTotal()),
		Currency:      c.Currency(),
		LoggedIn:      st.Session.LoggedIn(),
	}
}

func (fe *frontendServer) viewCartHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	if err := sy.SyncCart(r.Context()); err != nil {
		log.WithField("error", err).Debug("serving local cart")
	}
	renderJSON(w, r, sy, http.StatusOK, newCartView(sy.State()))
}

type cartItemRequest struct {
	MerchantID string  `json:"merchantId"`
	ProductID  string  `json:"productId"`
	Quantity   int32   `json:"quantity"`
	Name       string  `json:"name"`
	Picture    string  `json:"picture"`
	Price      float64 `json:"price"`
	All        *bool   `json:"all,omitempty"`
}

func (c cartItemRequest) key() store.ItemKey {
	return store.ItemKey{ProductID: c.ProductID, MerchantID: c.MerchantID}
}

func (fe *frontendServer) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	fe.cartMutation(w, r, "failed to add to cart", func(sy *syncer.Syncer, req cartItemRequest) error {
		return sy.AddToCart(r.Context(), store.CartItem{
			MerchantID: req.MerchantID,
			ProductID:  req.ProductID,
			Quantity:   req.Quantity,
			Name:       req.Name,
			Picture:    req.Picture,
			Price:      req.Price,
		})
	})
}

func (fe *frontendServer) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	fe.cartMutation(w, r, "failed to update cart item", func(sy *syncer.Syncer, req cartItemRequest) error {
		return sy.UpdateCartQuantity(r.Context(), req.key(), req.Quantity)
	})
}

func (fe *frontendServer) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	fe.cartMutation(w, r, "failed to remove cart item", func(sy *syncer.Syncer, req cartItemRequest) error {
		return sy.RemoveFromCart(r.Context(), req.key())
	})
}

func (fe *frontendServer) selectCartItemHandler(w http.ResponseWriter, r *http.Request) {
	fe.cartMutation(w, r, "failed to select cart item", func(sy *syncer.Syncer, req cartItemRequest) error {
		if req.All != nil {
			sy.SelectAll(*req.All)
			return nil
		}
		sy.ToggleSelected(req.key())
		return nil
	})
}

func (fe *frontendServer) emptyCartHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	log.Debug("emptying cart")
	if err := sy.ClearCart(r.Context()); err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "failed to empty cart"), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, newCartView(sy.State()))
}

func (fe *frontendServer) syncCartHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	if err := sy.SyncCart(r.Context()); err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "failed to sync cart"), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, newCartView(sy.State()))
}

// cartMutation decodes a cart line request, applies fn and answers with the
// cart as it stands afterwards. The local change stays even when the
// backend call failed.
func (fe *frontendServer) cartMutation(w http.ResponseWriter, r *http.Request, what string, fn func(*syncer.Syncer, cartItemRequest) error) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		renderHTTPError(log, r, w, sy, err, http.StatusBadRequest)
		return
	}
	log.WithField("product", req.ProductID).WithField("quantity", req.Quantity).Debug(what)
	if err := fn(sy, req); err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, what), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, newCartView(sy.State()))
}

type placeOrderRequest struct {
	Email        string `json:"email"`
	AddressID    int64  `json:"addressId"`
	CreditCardID int64  `json:"creditCardId"`
}

func (fe *frontendServer) placeOrderHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	log.Debug("placing order")
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		renderHTTPError(log, r, w, sy, err, http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		if acct, ok := sy.State().Session.Current(); ok {
			req.Email = acct.Email
		}
	}
	res, err := sy.Checkout(r.Context(), syncer.CheckoutRequest{
		Email:        req.Email,
		AddressID:    req.AddressID,
		CreditCardID: req.CreditCardID,
	})
	if err != nil && res.Order.ID == "" {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "failed to complete the order"), statusFor(err))
		return
	}
	if err != nil {
		log.WithField("order", res.Order.ID).WithField("error", err).Warn("order placed but payment failed")
	}
	log.WithField("order", res.Order.ID).Info("order placed")
	renderJSON(w, r, sy, http.StatusOK, map[string]any{
		"order":   newOrderView(res.Order, requestLanguage(r)),
		"payment": res.Payment,
		"cart":    newCartView(sy.State()),
	})
}

type credentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (fe *frontendServer) loginHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		renderHTTPError(log, r, w, sy, err, http.StatusBadRequest)
		return
	}
	acct, err := sy.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.WithField("error", err).Warn("login failed")
		renderHTTPError(log, r, w, sy, err, statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{
		"account": acct,
		"cart":    newCartView(sy.State()),
	})
}

func (fe *frontendServer) registerHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		renderHTTPError(log, r, w, sy, err, http.StatusBadRequest)
		return
	}
	acct, err := sy.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		renderHTTPError(log, r, w, sy, err, statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusCreated, map[string]any{"account": acct, "redirect": fe.cfg.LoginPath})
}

func (fe *frontendServer) logoutHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	log.Debug("logging out")
	sy.Logout()
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"redirect": fe.cfg.BaseURL + "/"})
}

func (fe *frontendServer) profileHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	acct, ok := sy.State().Session.Current()
	if !ok {
		renderHTTPError(log, r, w, sy, syncer.ErrNotLoggedIn, http.StatusUnauthorized)
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"account": acct})
}

func (fe *frontendServer) addressesHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.loggedIn(w, r)
	if !ok {
		return
	}
	if err := sy.RefreshAddresses(r.Context()); err != nil {
		log.WithField("error", err).Warn("serving local addresses")
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"addresses": sy.State().Addresses.List()})
}

func (fe *frontendServer) saveAddressHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	var a store.Address
	if err := decodeJSON(r, &a); err != nil {
		renderHTTPError(log, r, w, sy, err, http.StatusBadRequest)
		return
	}
	saved, err := sy.SaveAddress(r.Context(), a)
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "failed to save address"), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"address": saved})
}

func (fe *frontendServer) deleteAddressHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err := sy.DeleteAddress(r.Context(), id); err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "failed to delete address"), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"addresses": sy.State().Addresses.List()})
}

func (fe *frontendServer) creditCardsHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.loggedIn(w, r)
	if !ok {
		return
	}
	if err := sy.RefreshCreditCards(r.Context()); err != nil {
		log.WithField("error", err).Warn("serving local credit cards")
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"creditCards": sy.State().CreditCards.List()})
}

func (fe *frontendServer) saveCreditCardHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	var req api.CreateCreditCardRequest
	if err := decodeJSON(r, &req); err != nil {
		renderHTTPError(log, r, w, sy, err, http.StatusBadRequest)
		return
	}
	card, err := sy.SaveCreditCard(r.Context(), req)
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "failed to save credit card"), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"creditCard": card})
}

func (fe *frontendServer) deleteCreditCardHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err := sy.DeleteCreditCard(r.Context(), id); err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "failed to delete credit card"), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"creditCards": sy.State().CreditCards.List()})
}

func (fe *frontendServer) balanceHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	b, err := sy.Balance(r.Context())
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "could not retrieve balance"), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{
		"balance":   b,
		"available": renderPrice(b.Currency, b.Available),
	})
}

type orderView struct {
	store.Order
	StatusLabel        string `json:"statusLabel"`
	PaymentStatusLabel string `json:"paymentStatusLabel"`
	DisplayTotal       string `json:"displayTotal"`
}

func newOrderView(o store.Order, lang language.Tag) orderView {
	return orderView{
		Order:              o,
		StatusLabel:        present.OrderStatusLabel(o.Status, lang),
		PaymentStatusLabel: present.PaymentStatusLabel(o.PaymentStatus, lang),
		DisplayTotal:       renderPrice(o.Currency, o.TotalAmount),
	}
}

func (fe *frontendServer) orderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	page, size := queryInt(r, "page", 1), queryInt(r, "pageSize", present.DefaultPageSize)
	list, err := sy.RefreshOrders(r.Context(), api.ListOrdersParams{
		Page:   api.Page{Page: page, PageSize: size},
		Status: store.OrderStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "could not retrieve orders"), statusFor(err))
		return
	}
	lang := requestLanguage(r)
	orders := make([]orderView, len(list.Orders))
	for i, o := range list.Orders {
		orders[i] = newOrderView(o, lang)
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{
		"orders": orders,
		"page":   present.Paginate(list.Total, page, size),
	})
}

func (fe *frontendServer) orderHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.loggedIn(w, r)
	if !ok {
		return
	}
	o, err := sy.Order(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "could not retrieve order"), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"order": newOrderView(o, requestLanguage(r))})
}

func (fe *frontendServer) orderActionHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	id, action := vars["id"], vars["action"]
	var (
		o   store.Order
		err error
	)
	switch action {
	case "receive":
		o, err = sy.ConfirmReceived(r.Context(), id)
	case "cancel":
		o, err = sy.CancelOrder(r.Context(), id)
	case "ship":
		var req api.ShipOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			renderHTTPError(log, r, w, sy, err, http.StatusBadRequest)
			return
		}
		o, err = sy.ShipOrder(r.Context(), id, req)
	}
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrapf(err, "could not %s order", action), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{"order": newOrderView(o, requestLanguage(r))})
}

func (fe *frontendServer) trackingHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.loggedIn(w, r)
	if !ok {
		return
	}
	t, err := sy.Tracking(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "could not retrieve tracking"), statusFor(err))
		return
	}
	renderJSON(w, r, sy, http.StatusOK, map[string]any{
		"tracking": t,
		"position": logistics.Interpolate(t.Origin, t.Destination, t.Progress),
	})
}

// trackingStreamHandler plays the rest of a shipment's route as
// newline-delimited JSON positions, one per tick, until arrival or until the
// client goes away.
func (fe *frontendServer) trackingStreamHandler(w http.ResponseWriter, r *http.Request) {
	sy, log, ok := fe.loggedIn(w, r)
	if !ok {
		return
	}
	t, err := sy.Tracking(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		renderHTTPError(log, r, w, sy, errors.Wrap(err, "could not retrieve tracking"), statusFor(err))
		return
	}
	steps := queryInt(r, "steps", defaultTrackingSteps)
	interval := time.Duration(queryInt(r, "intervalMs", 0)) * time.Millisecond
	start := max(0, min(t.Progress, 1))

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for pos := range logistics.Resume(r.Context(), t.Origin, t.Destination, start, steps, interval) {
		pos.Progress = start + pos.Progress*(1-start)
		if err := enc.Encode(pos); err != nil {
			log.WithField("error", err).Debug("tracking stream closed by client")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (fe *frontendServer) alertsHandler(w http.ResponseWriter, r *http.Request) {
	sy, _, ok := fe.session(w, r)
	if !ok {
		return
	}
	renderJSON(w, r, sy, http.StatusOK, nil)
}

// session returns the syncer of the requesting browser session.
func (fe *frontendServer) session(w http.ResponseWriter, r *http.Request) (*syncer.Syncer, logrus.FieldLogger, bool) {
	log := requestLogger(r)
	sy, err := fe.sessions.get(r.Context(), sessionID(r))
	if err != nil {
		renderHTTPError(log, r, w, nil, errors.Wrap(err, "could not load session"), http.StatusInternalServerError)
		return nil, log, false
	}
	return sy, log, true
}

// loggedIn is session for pages that only make sense to a signed-in user.
func (fe *frontendServer) loggedIn(w http.ResponseWriter, r *http.Request) (*syncer.Syncer, logrus.FieldLogger, bool) {
	sy, log, ok := fe.session(w, r)
	if !ok {
		return nil, log, false
	}
	if !sy.State().Session.LoggedIn() {
		sy.Alerts().Errorf(fe.cfg.LoginPath, "please log in first")
		renderHTTPError(log, r, w, sy, syncer.ErrNotLoggedIn, http.StatusUnauthorized)
		return nil, log, false
	}
	return sy, log, true
}

type response struct {
	Data   any            `json:"data,omitempty"`
	Alerts []alerts.Alert `json:"alerts,omitempty"`
}

type errorResponse struct {
	Error      string         `json:"error"`
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	SessionID  string         `json:"session_id,omitempty"`
	RequestID  any            `json:"request_id,omitempty"`
	Alerts     []alerts.Alert `json:"alerts,omitempty"`
}

// renderJSON writes data with every alert the session queued meanwhile.
func renderJSON(w http.ResponseWriter, r *http.Request, sy *syncer.Syncer, code int, data any) {
	resp := response{Data: data}
	if sy != nil {
		resp.Alerts = sy.Alerts().Drain()
	}
	writeJSON(w, r, code, resp)
}

func renderHTTPError(log logrus.FieldLogger, r *http.Request, w http.ResponseWriter, sy *syncer.Syncer, err error, code int) {
	log.WithField("error", err).Error("request error")
	resp := errorResponse{
		Error:      err.Error(),
		StatusCode: code,
		Status:     http.StatusText(code),
		SessionID:  sessionID(r),
		RequestID:  r.Context().Value(ctxKeyRequestID{}),
	}
	if sy != nil {
		resp.Alerts = sy.Alerts().Drain()
	}
	writeJSON(w, r, code, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		requestLogger(r).WithField("error", err).Warn("could not write response")
	}
}

// statusFor maps a sync-layer error to the status the browser sees.
// Backend failures become 502; client errors from the backend pass
// through.
func statusFor(err error) int {
	switch {
	case errors.Is(err, syncer.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, syncer.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, syncer.ErrInvalid):
		return http.StatusUnprocessableEntity
	case httpclient.IsTimeout(err):
		return http.StatusGatewayTimeout
	}
	if code := httpclient.StatusCode(err); code >= 400 && code < 500 {
		return code
	}
	return http.StatusBadGateway
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}

const defaultTrackingSteps = 20

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func requestLanguage(r *http.Request) language.Tag {
	return present.Language(r.Header.Get("Accept-Language"))
}

func renderMoney(m money.Money) string {
	return fmt.Sprintf("%s %d.%02d", m.CurrencyCode, m.Units, m.Nanos/10000000)
}

func renderPrice(currency string, v float64) string {
	return renderMoney(money.FromFloat(currency, v))
}
