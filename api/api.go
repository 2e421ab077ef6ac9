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

// Package api declares one typed call per backend endpoint. Request and
// response shapes follow each service: the user and account services speak
// snake_case, the catalog, cart and order services camelCase.
package api

import (
	"net/url"
	"strconv"

	"github.com/sunmery/tiktok-ecommerce-storefront/httpclient"
)

type Client struct {
	http *httpclient.Client
}

func New(c *httpclient.Client) *Client {
	return &Client{http: c}
}

// Page selects a window of a paginated listing. Zero values are left out of
// the query so the backend applies its defaults.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) values(pageKey, sizeKey string) url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set(pageKey, strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set(sizeKey, strconv.Itoa(p.PageSize))
	}
	return v
}

func esc(s string) string { return url.PathEscape(s) }

func id64(id int64) string { return strconv.FormatInt(id, 10) }
