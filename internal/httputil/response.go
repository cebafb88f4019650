// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the remote API clients.
package httputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of a failed response body is kept in a StatusError.
const maxErrorBody = 64 << 10

// StatusError reports a response with a non-2xx status code. Body holds the
// (possibly truncated) response text for diagnostics.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error %d from %s %s: %s", e.StatusCode, e.Method, e.URL, e.Body)
}

// IsSuccess reports whether code is in the 2xx range.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// DecodeJSON consumes resp. A non-2xx status yields a *StatusError. A 2xx
// response with an empty or whitespace-only body leaves out untouched and
// returns nil; otherwise the body is decoded into out. out may be nil when
// the caller needs no fields.
func DecodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if !IsSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.Request != nil {
			serr.Method = resp.Request.Method
			serr.URL = resp.Request.URL.Redacted()
		}
		return serr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response body: %w", err)
	}
	return nil
}
