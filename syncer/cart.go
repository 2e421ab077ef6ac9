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

	"github.com/sunmery/tiktok-ecommerce-storefront/api"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
	"github.com/sunmery/tiktok-ecommerce-storefront/validator"
)

// AddToCart adds item locally and, for a signed-in user, on the server.
// Guest carts stay local until Login migrates them.
func (s *Syncer) AddToCart(ctx context.Context, item store.CartItem) error {
	payload := validator.AddToCartPayload{
		MerchantID: item.MerchantID,
		ProductID:  item.ProductID,
		Quantity:   uint64(max(item.Quantity, 0)),
		Price:      item.Price,
	}
	if err := payload.Validate(); err != nil {
		return s.invalid("add to cart", validator.ValidationErrorResponse(err))
	}

	s.state.Cart.AddItem(item)
	s.log.WithField("product", item.ProductID).WithField("quantity", item.Quantity).Debug("added to cart")
	if !s.state.Session.LoggedIn() {
		return nil
	}
	_, err := s.api.AddCartItem(ctx, api.CartItemRequest{
		MerchantID: item.MerchantID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
	})
	return s.cartSettled(ctx, "add to cart", err)
}

func (s *Syncer) RemoveFromCart(ctx context.Context, key store.ItemKey) error {
	s.state.Cart.RemoveItem(key)
	if !s.state.Session.LoggedIn() {
		return nil
	}
	_, err := s.api.RemoveCartItem(ctx, key)
	return s.cartSettled(ctx, "remove from cart", err)
}

// UpdateCartQuantity sets the quantity of a line; zero removes it.
func (s *Syncer) UpdateCartQuantity(ctx context.Context, key store.ItemKey, quantity int32) error {
	payload := validator.UpdateQuantityPayload{
		MerchantID: key.MerchantID,
		ProductID:  key.ProductID,
		Quantity:   int64(quantity),
	}
	if err := payload.Validate(); err != nil {
		return s.invalid("update quantity", validator.ValidationErrorResponse(err))
	}

	s.state.Cart.UpdateQuantity(key, quantity)
	if !s.state.Session.LoggedIn() {
		return nil
	}
	var err error
	if quantity == 0 {
		_, err = s.api.RemoveCartItem(ctx, key)
	} else {
		_, err = s.api.SetCartItemQuantity(ctx, api.CartItemRequest{
			MerchantID: key.MerchantID,
			ProductID:  key.ProductID,
			Quantity:   quantity,
		})
	}
	return s.cartSettled(ctx, "update quantity", err)
}

// ToggleSelected and SelectAll only touch local state; the server does not
// track selection.
func (s *Syncer) ToggleSelected(key store.ItemKey) { s.state.Cart.ToggleSelected(key) }
func (s *Syncer) SelectAll(selected bool)         { s.state.Cart.SelectAll(selected) }

func (s *Syncer) ClearCart(ctx context.Context) error {
	s.state.Cart.Clear()
	if !s.state.Session.LoggedIn() {
		return nil
	}
	return s.cartSettled(ctx, "clear cart", s.api.EmptyCart(ctx))
}

func (s *Syncer) cartSettled(_ context.Context, op string, err error) error {
	if err != nil {
		s.state.Cart.MarkStale()
		s.cache.Invalidate(keyCart)
		return s.fail(op, err)
	}
	s.cache.Invalidate(keyCart)
	return nil
}

// SyncCart pulls the server cart into the local store. It is best effort:
// on failure the error is logged and local state is left as it is.
func (s *Syncer) SyncCart(ctx context.Context) error {
	if !s.state.Session.LoggedIn() {
		return nil
	}
	if s.state.Cart.Stale() {
		s.cache.Invalidate(keyCart)
	}
	cart, err := Fetch(ctx, s.cache, keyCart, s.api.GetCart)
	if err != nil {
		s.log.WithField("error", err).Warn("could not sync cart, keeping local state")
		return err
	}
	s.state.Cart.Replace(cart.Items)
	return nil
}
