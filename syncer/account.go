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
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sunmery/tiktok-ecommerce-storefront/alerts"
	"github.com/sunmery/tiktok-ecommerce-storefront/api"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
	"github.com/sunmery/tiktok-ecommerce-storefront/validator"
)

// Login signs in, moves the guest cart onto the account and reconciles the
// account's stores with the server.
func (s *Syncer) Login(ctx context.Context, email, password string) (store.Account, error) {
	payload := validator.LoginPayload{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return store.Account{}, s.invalid("login", validator.ValidationErrorResponse(err))
	}

	wasGuest := !s.state.Session.LoggedIn()
	resp, err := s.api.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return store.Account{}, s.rejected("login", err)
	}
	log := s.log.WithField("user", resp.Account.ID)
	if !wasGuest {
		// The previous account's stores mirror its server state; none of it
		// belongs to the new account.
		log.Info("replacing signed-in account")
		s.state.Reset()
	}
	s.state.Session.SetToken(resp.Token)
	s.state.Session.SetAccount(resp.Account)
	s.cache.InvalidateAll()
	log.Info("user logged in successfully")

	// Lines added while signed out only exist locally.
	var guest []store.CartItem
	if wasGuest {
		guest = s.state.Cart.Items()
	}
	for _, item := range guest {
		if _, err := s.api.AddCartItem(ctx, api.CartItemRequest{
			MerchantID: item.MerchantID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
		}); err != nil {
			log.WithField("product", item.ProductID).WithField("error", err).Warn("failed to migrate cart item")
		}
	}
	if len(guest) > 0 {
		log.WithField("items", len(guest)).Info("migrated guest cart to user cart")
	}

	if err := s.Refresh(ctx); err != nil {
		log.WithField("error", err).Warn("could not reconcile local state after login")
	}
	s.alerts.Success("welcome back, " + resp.Account.Name)
	return resp.Account, nil
}

func (s *Syncer) Register(ctx context.Context, email, username, password string) (store.Account, error) {
	payload := validator.RegisterPayload{Email: email, Username: username, Password: password}
	if err := payload.Validate(); err != nil {
		return store.Account{}, s.invalid("register", validator.ValidationErrorResponse(err))
	}
	acct, err := s.api.Register(ctx, api.RegisterRequest{Email: email, Username: username, Password: password})
	if err != nil {
		return store.Account{}, s.rejected("register", err)
	}
	s.alerts.Success("registration successful, please log in")
	return acct, nil
}

// Logout forgets the session locally. There is no server-side session to
// end: the token simply stops being sent.
func (s *Syncer) Logout() {
	s.state.Reset()
	s.cache.InvalidateAll()
	s.alerts.Publish(alerts.Alert{Level: alerts.Info, Message: "you have been logged out"})
}

// Refresh reloads the cart, addresses, credit cards and profile
// concurrently. The first error is returned; stores whose fetch succeeded
// are updated regardless.
func (s *Syncer) Refresh(ctx context.Context) error {
	if !s.state.Session.LoggedIn() {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.SyncCart(gctx) })
	g.Go(func() error { return s.RefreshAddresses(gctx) })
	g.Go(func() error { return s.RefreshCreditCards(gctx) })
	g.Go(func() error {
		acct, err := s.api.Profile(gctx)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		s.state.Session.SetAccount(acct)
		return nil
	})
	return g.Wait()
}

func (s *Syncer) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (store.Account, error) {
	if err := s.requireLogin("update profile"); err != nil {
		return store.Account{}, err
	}
	acct, err := s.api.UpdateProfile(ctx, req)
	if err != nil {
		return store.Account{}, s.fail("update profile", err)
	}
	s.state.Session.SetAccount(acct)
	return acct, nil
}

func (s *Syncer) RefreshAddresses(ctx context.Context) error {
	list, err := Fetch(ctx, s.cache, keyAddresses, s.api.ListAddresses)
	if err != nil {
		return fmt.Errorf("addresses: %w", err)
	}
	s.state.Addresses.Replace(list)
	return nil
}

// SaveAddress creates an address (ID 0) or updates an existing one. Updates
// are applied locally first; creations wait for the server to assign an id.
func (s *Syncer) SaveAddress(ctx context.Context, a store.Address) (store.Address, error) {
	payload := validator.AddressPayload{
		Name: a.Name, Phone: a.Phone, StreetAddress: a.StreetAddress,
		City: a.City, State: a.State, Country: a.Country, ZipCode: a.ZipCode,
	}
	if err := payload.Validate(); err != nil {
		return a, s.invalid("save address", validator.ValidationErrorResponse(err))
	}
	if err := s.requireLogin("save address"); err != nil {
		return a, err
	}

	var (
		saved store.Address
		err   error
	)
	if a.ID == 0 {
		saved, err = s.api.CreateAddress(ctx, a)
	} else {
		s.state.Addresses.Upsert(a)
		saved, err = s.api.UpdateAddress(ctx, a)
	}
	s.cache.Invalidate(keyAddresses)
	if err != nil {
		return a, s.fail("save address", err)
	}
	s.state.Addresses.Merge([]store.Address{saved})
	return saved, nil
}

func (s *Syncer) DeleteAddress(ctx context.Context, id int64) error {
	if err := s.requireLogin("delete address"); err != nil {
		return err
	}
	s.state.Addresses.Remove(id)
	err := s.api.DeleteAddress(ctx, id)
	s.cache.Invalidate(keyAddresses)
	if err != nil {
		return s.fail("delete address", err)
	}
	return nil
}

func (s *Syncer) RefreshCreditCards(ctx context.Context) error {
	list, err := Fetch(ctx, s.cache, keyCreditCards, s.api.ListCreditCards)
	if err != nil {
		return fmt.Errorf("credit cards: %w", err)
	}
	s.state.CreditCards.Replace(list)
	return nil
}

// SaveCreditCard registers a card. Only the masked copy the server returns
// is kept locally.
func (s *Syncer) SaveCreditCard(ctx context.Context, req api.CreateCreditCardRequest) (store.CreditCard, error) {
	payload := validator.CreditCardPayload{
		Number: req.Number, CVV: int64(req.CVV), Month: int64(req.ExpMonth), Year: int64(req.ExpYear),
	}
	if err := payload.Validate(); err != nil {
		return store.CreditCard{}, s.invalid("save credit card", validator.ValidationErrorResponse(err))
	}
	if err := s.requireLogin("save credit card"); err != nil {
		return store.CreditCard{}, err
	}
	card, err := s.api.CreateCreditCard(ctx, req)
	s.cache.Invalidate(keyCreditCards)
	if err != nil {
		return store.CreditCard{}, s.fail("save credit card", err)
	}
	s.state.CreditCards.Merge([]store.CreditCard{card})
	return card, nil
}

func (s *Syncer) DeleteCreditCard(ctx context.Context, id int64) error {
	if err := s.requireLogin("delete credit card"); err != nil {
		return err
	}
	s.state.CreditCards.Remove(id)
	err := s.api.DeleteCreditCard(ctx, id)
	s.cache.Invalidate(keyCreditCards)
	if err != nil {
		return s.fail("delete credit card", err)
	}
	return nil
}

func (s *Syncer) Balance(ctx context.Context) (api.Balance, error) {
	if err := s.requireLogin("balance"); err != nil {
		return api.Balance{}, err
	}
	b, err := Fetch(ctx, s.cache, keyBalance, s.api.GetBalance)
	if err != nil {
		return b, s.fail("balance", err)
	}
	return b, nil
}

func (s *Syncer) Recharge(ctx context.Context, req api.RechargeRequest) (api.Balance, error) {
	if err := s.requireLogin("recharge"); err != nil {
		return api.Balance{}, err
	}
	b, err := s.api.Recharge(ctx, req)
	s.cache.Invalidate(keyBalance)
	if err != nil {
		return b, s.fail("recharge", err)
	}
	return b, nil
}
