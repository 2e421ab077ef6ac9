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

// Package httpclient is the thin JSON client every backend call goes
// through. It resolves URLs against a base, attaches the bearer token,
// enforces a timeout and turns failures into typed errors.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultTimeout = 10 * time.Second

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Tokens    TokenSource
	Transport http.RoundTripper
	Logger    logrus.FieldLogger
}

type Client struct {
	baseURL string
	timeout time.Duration
	tokens  TokenSource
	hc      *http.Client
	log     logrus.FieldLogger
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("httpclient: invalid base url %q: %w", opts.BaseURL, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("httpclient: base url %q must be absolute", opts.BaseURL)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		opts.Logger = l
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		tokens:  opts.Tokens,
		// The timeout is enforced per request through the context so a
		// timeout can be told apart from a caller cancellation.
		hc:  &http.Client{Transport: otelhttp.NewTransport(opts.Transport)},
		log: opts.Logger,
	}, nil
}

type requestOptions struct {
	params  url.Values
	header  http.Header
	timeout time.Duration
}

type RequestOption func(*requestOptions)

// WithParams appends query parameters to the request URL.
func WithParams(v url.Values) RequestOption {
	return func(o *requestOptions) {
		for k, vs := range v {
			for _, s := range vs {
				o.params.Add(k, s)
			}
		}
	}
}

func WithParam(key, value string) RequestOption {
	return func(o *requestOptions) { o.params.Add(key, value) }
}

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) { o.header.Set(key, value) }
}

// WithTimeout overrides the client timeout for one request.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) { o.timeout = d }
}

func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodGet, path, nil, &out, opts...)
	return out, err
}

func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPost, path, body, &out, opts...)
	return out, err
}

func Put[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPut, path, body, &out, opts...)
	return out, err
}

func Patch[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPatch, path, body, &out, opts...)
	return out, err
}

func Delete[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodDelete, path, nil, &out, opts...)
	return out, err
}

// Do sends one request and decodes a JSON response into out. out may be nil
// when the caller does not care about the payload.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	o := requestOptions{params: url.Values{}, header: http.Header{}, timeout: c.timeout}
	for _, opt := range opts {
		opt(&o)
	}

	target, err := c.resolve(path, o.params)
	if err != nil {
		return err
	}
	reader, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("httpclient: encode %s %s: %w", method, target, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
	if err != nil {
		return fmt.Errorf("httpclient: build %s %s: %w", method, target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range o.header {
		req.Header[k] = vs
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.log.WithField("error", err).Warn("could not read auth token, sending request unauthenticated")
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.log.WithField("method", method).WithField("url", target)
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return c.classify(ctx, reqCtx, method, target, o.timeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.classify(ctx, reqCtx, method, target, o.timeout, err)
	}
	log.WithField("status", resp.StatusCode).
		WithField("elapsed", time.Since(start).Milliseconds()).
		Debug("request complete")

	jsonBody := isJSON(resp.Header.Get("Content-Type"))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		he := &HTTPError{Method: method, URL: target, Status: resp.StatusCode, Body: raw}
		if jsonBody && len(raw) > 0 {
			var data any
			if json.Unmarshal(raw, &data) == nil {
				he.Data = data
			}
		}
		return he
	}
	if len(bytes.TrimSpace(raw)) == 0 || out == nil {
		return nil
	}
	if !jsonBody {
		return &HTTPError{Method: method, URL: target, Status: resp.StatusCode, Body: raw, err: ErrNotJSON}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: decode %s %s: %w", method, target, err)
	}
	return nil
}

func (c *Client) classify(parent, reqCtx context.Context, method, target string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		c.log.WithField("method", method).WithField("url", target).Warn("request timed out")
		return &TimeoutError{Method: method, URL: target, Timeout: timeout}
	}
	return &NetworkError{Method: method, URL: target, Err: err}
}

func (c *Client) resolve(path string, params url.Values) (string, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if c.baseURL == "" {
			return "", fmt.Errorf("httpclient: relative url %q without a base url", path)
		}
		target = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("httpclient: invalid url %q: %w", target, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(buf), nil
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
