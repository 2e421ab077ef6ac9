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
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sunmery/tiktok-ecommerce-storefront/api"
	"github.com/sunmery/tiktok-ecommerce-storefront/money"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
	"github.com/sunmery/tiktok-ecommerce-storefront/validator"
)

type CheckoutRequest struct {
	Email     string
	AddressID int64
	// CreditCardID pays the order right away when set.
	CreditCardID int64
}

type CheckoutResult struct {
	Order   store.Order
	Payment *api.Payment
}

// Checkout places an order for the selected cart lines. The lines leave the
// local cart once the server has accepted the order. A payment failure does
// not undo the order: it stays unpaid and can be paid later.
func (s *Syncer) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	if err := s.requireLogin("checkout"); err != nil {
		return CheckoutResult{}, err
	}
	selected := s.state.Cart.SelectedItems()
	if len(selected) == 0 {
		return CheckoutResult{}, s.invalid("checkout", ErrEmptySelection)
	}
	currency := s.state.Cart.Currency()
	payload := validator.PlaceOrderPayload{
		Email:     req.Email,
		AddressID: req.AddressID,
		Currency:  currency,
		Items:     len(selected),
	}
	if err := payload.Validate(); err != nil {
		return CheckoutResult{}, s.invalid("checkout", validator.ValidationErrorResponse(err))
	}

	items := make([]store.OrderItem, len(selected))
	for i, it := range selected {
		items[i] = store.OrderItem{
			ProductID:  it.ProductID,
			MerchantID: it.MerchantID,
			Name:       it.Name,
			Picture:    it.Picture,
			Quantity:   it.Quantity,
			Price:      it.Price,
		}
	}
	order, err := s.api.PlaceOrder(ctx, api.PlaceOrderRequest{
		Email:     req.Email,
		Currency:  currency,
		AddressID: req.AddressID,
		Items:     items,
	})
	if err != nil {
		return CheckoutResult{}, s.fail("checkout", err)
	}
	total := s.state.Cart.SelectedTotal()
	s.state.Cart.RemoveSelected()
	s.state.Orders.Upsert(order)
	s.cache.Invalidate(keyCart, keyOrders, keyBalance)
	s.log.WithField("order", order.ID).Info("order placed")

	res := CheckoutResult{Order: order}
	if req.CreditCardID == 0 {
		return res, nil
	}
	payment, err := s.Pay(ctx, order, req.CreditCardID, total)
	if err != nil {
		return res, err
	}
	res.Payment = &payment
	return res, nil
}

// Pay charges a card for order. amount is the client-side total; a zero
// amount falls back to the order total the server reported.
func (s *Syncer) Pay(ctx context.Context, order store.Order, creditCardID int64, amount money.Money) (api.Payment, error) {
	value := amount.Float()
	if money.IsZero(amount) {
		value = order.TotalAmount
	}
	payment, err := s.api.CreatePayment(ctx, api.CreatePaymentRequest{
		OrderID:      order.ID,
		Amount:       value,
		Currency:     order.Currency,
		CreditCardID: creditCardID,
		Method:       "credit_card",
	})
	s.cache.Invalidate(keyOrders, keyBalance)
	if err != nil {
		return api.Payment{}, s.fail("pay order "+order.ID, err)
	}
	order.PaymentStatus = payment.Status
	s.state.Orders.Upsert(order)
	s.alerts.Success("payment submitted")
	return payment, nil
}

// RefreshOrders fetches one page of orders and merges it into the local
// projection.
func (s *Syncer) RefreshOrders(ctx context.Context, params api.ListOrdersParams) (api.OrderList, error) {
	if err := s.requireLogin("list orders"); err != nil {
		return api.OrderList{}, err
	}
	key := keyOrders + "?" + url.Values{
		"page":   {strconv.Itoa(params.Page.Page)},
		"size":   {strconv.Itoa(params.PageSize)},
		"status": {string(params.Status)},
	}.Encode()
	list, err := Fetch(ctx, s.cache, key, func(ctx context.Context) (api.OrderList, error) {
		return s.api.ListOrders(ctx, params)
	})
	if err != nil {
		return list, s.fail("list orders", err)
	}
	s.state.Orders.Merge(list.Orders)
	return list, nil
}

func (s *Syncer) Order(ctx context.Context, id string) (store.Order, error) {
	o, err := Fetch(ctx, s.cache, keyOrders+"/"+id, func(ctx context.Context) (store.Order, error) {
		return s.api.GetOrder(ctx, id)
	})
	if err != nil {
		return o, s.fail("get order", err)
	}
	s.state.Orders.Upsert(o)
	return o, nil
}

// ShipOrder is the merchant's status change. Like every order status change
// it is a server round-trip; the local copy is replaced by the server's.
func (s *Syncer) ShipOrder(ctx context.Context, id string, req api.ShipOrderRequest) (store.Order, error) {
	if err := s.requireRole("ship order", store.RoleMerchant, store.RoleAdmin); err != nil {
		return store.Order{}, err
	}
	return s.orderTransition(ctx, "ship order", id, func(ctx context.Context) (store.Order, error) {
		return s.api.ShipOrder(ctx, id, req)
	})
}

func (s *Syncer) ConfirmReceived(ctx context.Context, id string) (store.Order, error) {
	if err := s.requireLogin("confirm received"); err != nil {
		return store.Order{}, err
	}
	return s.orderTransition(ctx, "confirm received", id, func(ctx context.Context) (store.Order, error) {
		return s.api.ConfirmReceived(ctx, id)
	})
}

func (s *Syncer) CancelOrder(ctx context.Context, id string) (store.Order, error) {
	if err := s.requireLogin("cancel order"); err != nil {
		return store.Order{}, err
	}
	return s.orderTransition(ctx, "cancel order", id, func(ctx context.Context) (store.Order, error) {
		return s.api.CancelOrder(ctx, id)
	})
}

func (s *Syncer) orderTransition(ctx context.Context, op, id string, call func(context.Context) (store.Order, error)) (store.Order, error) {
	o, err := call(ctx)
	s.cache.Invalidate(keyOrders, keyTracking+id)
	if err != nil {
		return store.Order{}, s.fail(op, err)
	}
	s.state.Orders.Upsert(o)
	s.log.WithField("order", id).WithField("status", o.Status).Info(op)
	return o, nil
}

func (s *Syncer) Tracking(ctx context.Context, orderID string) (api.Tracking, error) {
	t, err := Fetch(ctx, s.cache, keyTracking+orderID, func(ctx context.Context) (api.Tracking, error) {
		return s.api.GetTracking(ctx, orderID)
	})
	if err != nil {
		return t, s.fail("tracking", err)
	}
	return t, nil
}

// Products lists the catalog through the query cache.
func (s *Syncer) Products(ctx context.Context, params api.ListProductsParams) (api.ProductList, error) {
	key := fmt.Sprintf("%s?page=%d&size=%d&category=%d&merchant=%s&q=%s", keyProducts,
		params.Page.Page, params.PageSize, params.CategoryID, params.MerchantID, url.QueryEscape(params.Keyword))
	list, err := Fetch(ctx, s.cache, key, func(ctx context.Context) (api.ProductList, error) {
		return s.api.ListProducts(ctx, params)
	})
	if err != nil {
		return list, s.fail("list products", err)
	}
	return list, nil
}

func (s *Syncer) Product(ctx context.Context, id, merchantID string) (api.Product, error) {
	p, err := Fetch(ctx, s.cache, keyProducts+"/"+id+"@"+merchantID, func(ctx context.Context) (api.Product, error) {
		return s.api.GetProduct(ctx, id, merchantID)
	})
	if err != nil {
		return p, s.fail("get product", err)
	}
	return p, nil
}

func (s *Syncer) Comments(ctx context.Context, productID string, page api.Page) (api.CommentList, error) {
	key := fmt.Sprintf("%s/%s/comments?page=%d&size=%d", keyProducts, productID, page.Page, page.PageSize)
	list, err := Fetch(ctx, s.cache, key, func(ctx context.Context) (api.CommentList, error) {
		return s.api.ListComments(ctx, productID, page)
	})
	if err != nil {
		return list, s.fail("list comments", err)
	}
	return list, nil
}

// AdjustStock changes a product's stock; merchants only.
func (s *Syncer) AdjustStock(ctx context.Context, productID string, req api.AdjustStockRequest) (api.Stock, error) {
	if err := s.requireRole("adjust stock", store.RoleMerchant, store.RoleAdmin); err != nil {
		return api.Stock{}, err
	}
	st, err := s.api.AdjustStock(ctx, productID, req)
	s.cache.Invalidate(keyProducts)
	if err != nil {
		return st, s.fail("adjust stock", err)
	}
	return st, nil
}

// IsAuthError reports whether err ended the session or was refused for
// lack of permission.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotLoggedIn) || errors.Is(err, ErrForbidden)
}
