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

package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	opts.BaseURL = srv.URL + "/api"
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestGetDecodesJSONAndSendsHeaders(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(item{ID: "p1", Name: "Mug"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Tokens: staticToken("secret")})
	out, err := Get[item](context.Background(), c, "/v1/products/p1",
		WithParams(url.Values{"page": {"2"}}), WithParam("size", "20"))
	require.NoError(t, err)

	assert.Equal(t, item{ID: "p1", Name: "Mug"}, out)
	assert.Equal(t, "/api/v1/products/p1", got.URL.Path)
	assert.Equal(t, "2", got.URL.Query().Get("page"))
	assert.Equal(t, "20", got.URL.Query().Get("size"))
	assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	var auth string
	var seen bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, seen = r.Header.Get("Authorization"), true
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Tokens: staticToken("")})
	_, err := Delete[struct{}](context.Background(), c, "v1/carts/items/1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Empty(t, auth)
}

func TestPostEncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var in item
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "new"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	out, err := Post[item](context.Background(), c, "/v1/products", item{Name: "Cup"})
	require.NoError(t, err)
	assert.Equal(t, item{ID: "new", Name: "Cup"}, out)
}

func TestTimeoutFailsBeforeServerResponds(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv, Options{Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := Get[item](context.Background(), c, "/v1/slow")
	require.Error(t, err)

	assert.True(t, IsTimeout(err))
	assert.Equal(t, http.StatusRequestTimeout, StatusCode(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCallerCancellationIsNotATimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Timeout: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := Get[item](ctx, c, "/v1/slow")
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNotFoundCarriesStatusAndData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"product not found","code":404}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	_, err := Get[item](context.Background(), c, "/v1/products/missing")
	require.Error(t, err)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusNotFound, he.Status)
	assert.Equal(t, map[string]any{"message": "product not found", "code": float64(404)}, he.Data)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "product not found", Message(err))
}

func TestNonJSONErrorKeepsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "unauthorized")
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	_, err := Get[item](context.Background(), c, "/v1/users/me")
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Nil(t, he.Data)
	assert.Equal(t, []byte("unauthorized"), he.Body)
	assert.True(t, IsUnauthorized(err))
}

func TestSuccessWithNonJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html></html>")
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{})
	_, err := Get[item](context.Background(), c, "/")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotJSON)
	assert.Equal(t, http.StatusOK, StatusCode(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base})
	require.NoError(t, err)
	_, err = Get[item](context.Background(), c, "/v1/x")
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 0, StatusCode(err))
}

func TestNewRejectsRelativeBase(t *testing.T) {
	_, err := New(Options{BaseURL: "/api"})
	assert.Error(t, err)
}

func TestAbsoluteURLBypassesBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/elsewhere", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: "http://unused.invalid"})
	require.NoError(t, err)
	_, err = Get[item](context.Background(), c, srv.URL+"/elsewhere")
	assert.NoError(t, err)
}
