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

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt int64         `json:"expires_at"`
	Account   store.Account `json:"account"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Login calls POST /v1/auth/login.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	return httpclient.Post[LoginResponse](ctx, c.http, "/v1/auth/login", req)
}

// Register calls POST /v1/users.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (store.Account, error) {
	return httpclient.Post[store.Account](ctx, c.http, "/v1/users", req)
}

// Profile calls GET /v1/users/me with the session's bearer token.
func (c *Client) Profile(ctx context.Context) (store.Account, error) {
	return httpclient.Get[store.Account](ctx, c.http, "/v1/users/me")
}

func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (store.Account, error) {
	return httpclient.Patch[store.Account](ctx, c.http, "/v1/users/me", req)
}
