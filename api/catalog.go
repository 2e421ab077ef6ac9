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
)

type Product struct {
	ID          string   `json:"id"`
	MerchantID  string   `json:"merchantId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Picture     string   `json:"picture"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	CategoryID  int64    `json:"categoryId"`
	Categories  []string `json:"categories,omitempty"`
	Status      string   `json:"status"`
	Stock       int32    `json:"stock"`
}

type ListProductsParams struct {
	Page
	CategoryID int64
	MerchantID string
	Keyword    string
}

type ProductList struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

// ListProducts calls GET /v1/products.
func (c *Client) ListProducts(ctx context.Context, p ListProductsParams) (ProductList, error) {
	q := p.Page.values("page", "pageSize")
	if p.CategoryID > 0 {
		q.Set("categoryId", id64(p.CategoryID))
	}
	if p.MerchantID != "" {
		q.Set("merchantId", p.MerchantID)
	}
	if p.Keyword != "" {
		q.Set("keyword", p.Keyword)
	}
	return httpclient.Get[ProductList](ctx, c.http, "/v1/products", httpclient.WithParams(q))
}

func (c *Client) GetProduct(ctx context.Context, id, merchantID string) (Product, error) {
	var opts []httpclient.RequestOption
	if merchantID != "" {
		opts = append(opts, httpclient.WithParam("merchantId", merchantID))
	}
	return httpclient.Get[Product](ctx, c.http, "/v1/products/"+esc(id), opts...)
}

// CreateProduct calls POST /v1/merchants/{merchantId}/products.
func (c *Client) CreateProduct(ctx context.Context, p Product) (Product, error) {
	return httpclient.Post[Product](ctx, c.http, "/v1/merchants/"+esc(p.MerchantID)+"/products", p)
}

func (c *Client) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	return httpclient.Put[Product](ctx, c.http, "/v1/merchants/"+esc(p.MerchantID)+"/products/"+esc(p.ID), p)
}

func (c *Client) DeleteProduct(ctx context.Context, merchantID, id string) error {
	_, err := httpclient.Delete[struct{}](ctx, c.http, "/v1/merchants/"+esc(merchantID)+"/products/"+esc(id))
	return err
}

type Category struct {
	ID       int64  `json:"id"`
	ParentID int64  `json:"parent_id"`
	Name     string `json:"name"`
	Level    int32  `json:"level"`
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	return httpclient.Get[[]Category](ctx, c.http, "/v1/categories")
}

// CategoryPath returns the ancestry of a category, root first.
func (c *Client) CategoryPath(ctx context.Context, id int64) ([]Category, error) {
	return httpclient.Get[[]Category](ctx, c.http, "/v1/categories/"+id64(id)+"/path")
}

type Stock struct {
	ProductID  string `json:"product_id"`
	MerchantID string `json:"merchant_id"`
	Stock      int32  `json:"stock"`
}

type AdjustStockRequest struct {
	MerchantID string `json:"merchant_id"`
	Delta      int32  `json:"delta"`
	Reason     string `json:"reason,omitempty"`
}

func (c *Client) GetStock(ctx context.Context, productID, merchantID string) (Stock, error) {
	return httpclient.Get[Stock](ctx, c.http, "/v1/inventory/"+esc(productID),
		httpclient.WithParam("merchant_id", merchantID))
}

// AdjustStock calls PATCH /v1/inventory/{productId}; merchants only.
func (c *Client) AdjustStock(ctx context.Context, productID string, req AdjustStockRequest) (Stock, error) {
	return httpclient.Patch[Stock](ctx, c.http, "/v1/inventory/"+esc(productID), req)
}

type Comment struct {
	ID         int64     `json:"id"`
	ProductID  string    `json:"product_id"`
	MerchantID string    `json:"merchant_id"`
	UserID     string    `json:"user_id"`
	Score      int32     `json:"score"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type CommentList struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
}

type CreateCommentRequest struct {
	MerchantID string `json:"merchant_id"`
	Score      int32  `json:"score"`
	Content    string `json:"content"`
}

func (c *Client) ListComments(ctx context.Context, productID string, p Page) (CommentList, error) {
	return httpclient.Get[CommentList](ctx, c.http, "/v1/products/"+esc(productID)+"/comments",
		httpclient.WithParams(p.values("page", "page_size")))
}

func (c *Client) CreateComment(ctx context.Context, productID string, req CreateCommentRequest) (Comment, error) {
	return httpclient.Post[Comment](ctx, c.http, "/v1/products/"+esc(productID)+"/comments", req)
}
