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

	"github.com/sunmery/tiktok-ecommerce-storefront/httpclient"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
)

type Cart struct {
	UserID string           `json:"userId"`
	Items  []store.CartItem `json:"items"`
}

type CartItemRequest struct {
	MerchantID string `json:"merchantId"`
	ProductID  string `json:"productId"`
	Quantity   int32  `json:"quantity"`
}

// GetCart calls GET /v1/carts for the signed-in user.
func (c *Client) GetCart(ctx context.Context) (Cart, error) {
	return httpclient.Get[Cart](ctx, c.http, "/v1/carts")
}

// AddCartItem adds quantity to the server-side line, creating it if needed.
func (c *Client) AddCartItem(ctx context.Context, req CartItemRequest) (Cart, error) {
	return httpclient.Post[Cart](ctx, c.http, "/v1/carts/items", req)
}

// SetCartItemQuantity overwrites the quantity of a server-side line.
func (c *Client) SetCartItemQuantity(ctx context.Context, req CartItemRequest) (Cart, error) {
	return httpclient.Put[Cart](ctx, c.http, "/v1/carts/items", req)
}

func (c *Client) RemoveCartItem(ctx context.Context, key store.ItemKey) (Cart, error) {
	return httpclient.Delete[Cart](ctx, c.http, "/v1/carts/items",
		httpclient.WithParam("productId", key.ProductID),
		httpclient.WithParam("merchantId", key.MerchantID))
}

func (c *Client) EmptyCart(ctx context.Context) error {
	_, err := httpclient.Delete[struct{}](ctx, c.http, "/v1/carts")
	return err
}
