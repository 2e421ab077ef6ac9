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
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotJSON is in the chain of an *HTTPError raised for a successful
// response whose content type is not JSON.
var ErrNotJSON = errors.New("response is not JSON")

// HTTPError is returned for non-2xx responses and for non-JSON payloads.
// Data holds the decoded JSON body when there is one; Body is always the raw
// payload.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Data   any
	Body   []byte

	err error
}

func (e *HTTPError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.Status, e.err)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

func (e *HTTPError) Unwrap() error   { return e.err }
func (e *HTTPError) StatusCode() int { return e.Status }

// TimeoutError is returned when the configured timeout fires before the
// server answers. It reports 408 so it can be handled like any other status.
type TimeoutError struct {
	Method  string
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: request timed out after %s", e.Method, e.URL, e.Timeout)
}

func (e *TimeoutError) StatusCode() int { return http.StatusRequestTimeout }

// NetworkError wraps transport failures: refused connections, DNS errors,
// resets.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type statusCoder interface {
	StatusCode() int
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from a server answer or a timeout.
func StatusCode(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool    { return StatusCode(err) == http.StatusForbidden }
func IsNotFound(err error) bool     { return StatusCode(err) == http.StatusNotFound }

func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Message extracts the human readable message a backend put into an error
// body ({"message": ...} or {"error": ...}), falling back to err.Error().
func Message(err error) string {
	var he *HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Data.(map[string]any); ok {
			for _, k := range []string{"message", "error", "reason"} {
				if s, ok := m[k].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
