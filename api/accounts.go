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

type addressList struct {
	Addresses []store.Address `json:"addresses"`
}

func (c *Client) ListAddresses(ctx context.Context) ([]store.Address, error) {
	out, err := httpclient.Get[addressList](ctx, c.http, "/v1/users/me/addresses")
	return out.Addresses, err
}

func (c *Client) CreateAddress(ctx context.Context, a store.Address) (store.Address, error) {
	return httpclient.Post[store.Address](ctx, c.http, "/v1/users/me/addresses", a)
}

func (c *Client) UpdateAddress(ctx context.Context, a store.Address) (store.Address, error) {
	return httpclient.Put[store.Address](ctx, c.http, "/v1/users/me/addresses/"+id64(a.ID), a)
}

func (c *Client) DeleteAddress(ctx context.Context, id int64) error {
	_, err := httpclient.Delete[struct{}](ctx, c.http, "/v1/users/me/addresses/"+id64(id))
	return err
}

type CreateCreditCardRequest struct {
	Owner    string `json:"owner"`
	Number   string `json:"number"`
	CVV      int32  `json:"cvv"`
	ExpMonth int32  `json:"exp_month"`
	ExpYear  int32  `json:"exp_year"`
}

type creditCardList struct {
	CreditCards []store.CreditCard `json:"credit_cards"`
}

func (c *Client) ListCreditCards(ctx context.Context) ([]store.CreditCard, error) {
	out, err := httpclient.Get[creditCardList](ctx, c.http, "/v1/users/me/credit-cards")
	return out.CreditCards, err
}

func (c *Client) CreateCreditCard(ctx context.Context, req CreateCreditCardRequest) (store.CreditCard, error) {
	return httpclient.Post[store.CreditCard](ctx, c.http, "/v1/users/me/credit-cards", req)
}

func (c *Client) DeleteCreditCard(ctx context.Context, id int64) error {
	_, err := httpclient.Delete[struct{}](ctx, c.http, "/v1/users/me/credit-cards/"+id64(id))
	return err
}

type Balance struct {
	UserID    string  `json:"user_id"`
	Available float64 `json:"available"`
	Frozen    float64 `json:"frozen"`
	Currency  string  `json:"currency"`
	Version   int64   `json:"version"`
}

type RechargeRequest struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
}

func (c *Client) GetBalance(ctx context.Context) (Balance, error) {
	return httpclient.Get[Balance](ctx, c.http, "/v1/balances/me")
}

func (c *Client) Recharge(ctx context.Context, req RechargeRequest) (Balance, error) {
	return httpclient.Post[Balance](ctx, c.http, "/v1/balances/recharge", req)
}
