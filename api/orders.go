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

package api

import (
	"context"
	"time"

	"github.com/sunmery/tiktok-ecommerce-storefront/httpclient"
	"github.com/sunmery/tiktok-ecommerce-storefront/logistics"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
)

type ListOrdersParams struct {
	Page
	Status store.OrderStatus
}

type OrderList struct {
	Orders []store.Order `json:"orders"`
	Total  int           `json:"total"`
}

type PlaceOrderRequest struct {
	Email     string            `json:"email"`
	Currency  string            `json:"currency"`
	AddressID int64             `json:"addressId"`
	Items     []store.OrderItem `json:"items"`
}

type ShipOrderRequest struct {
	Carrier    string `json:"carrier"`
	TrackingID string `json:"trackingId"`
}

func (c *Client) ListOrders(ctx context.Context, p ListOrdersParams) (OrderList, error) {
	q := p.Page.values("page", "pageSize")
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	return httpclient.Get[OrderList](ctx, c.http, "/v1/orders", httpclient.WithParams(q))
}

func (c *Client) GetOrder(ctx context.Context, id string) (store.Order, error) {
	return httpclient.Get[store.Order](ctx, c.http, "/v1/orders/"+esc(id))
}

// PlaceOrder calls POST /v1/orders.
func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (store.Order, error) {
	return httpclient.Post[store.Order](ctx, c.http, "/v1/orders", req)
}

// ShipOrder marks an order shipped; merchants only.
func (c *Client) ShipOrder(ctx context.Context, id string, req ShipOrderRequest) (store.Order, error) {
	return httpclient.Post[store.Order](ctx, c.http, "/v1/orders/"+esc(id)+"/ship", req)
}

// ConfirmReceived marks an order received by the consumer.
func (c *Client) ConfirmReceived(ctx context.Context, id string) (store.Order, error) {
	return httpclient.Post[store.Order](ctx, c.http, "/v1/orders/"+esc(id)+"/receive", nil)
}

func (c *Client) CancelOrder(ctx context.Context, id string) (store.Order, error) {
	return httpclient.Post[store.Order](ctx, c.http, "/v1/orders/"+esc(id)+"/cancel", nil)
}

type CreatePaymentRequest struct {
	OrderID      string  `json:"order_id"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	CreditCardID int64   `json:"credit_card_id,omitempty"`
	Method       string  `json:"method"`
}

type Payment struct {
	ID        string              `json:"payment_id"`
	OrderID   string              `json:"order_id"`
	Amount    float64             `json:"amount"`
	Currency  string              `json:"currency"`
	Status    store.PaymentStatus `json:"status"`
	PayURL    string              `json:"pay_url,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (Payment, error) {
	return httpclient.Post[Payment](ctx, c.http, "/v1/payments", req)
}

func (c *Client) GetPayment(ctx context.Context, id string) (Payment, error) {
	return httpclient.Get[Payment](ctx, c.http, "/v1/payments/"+esc(id))
}

type Tracking struct {
	TrackingID  string          `json:"tracking_id"`
	Carrier     string          `json:"carrier"`
	Status      string          `json:"status"`
	Origin      logistics.Coord `json:"origin"`
	Destination logistics.Coord `json:"destination"`
	Progress    float64         `json:"progress"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c *Client) GetTracking(ctx context.Context, orderID string) (Tracking, error) {
	return httpclient.Get[Tracking](ctx, c.http, "/v1/orders/"+esc(orderID)+"/tracking")
}
