// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the OPS and embedding clients.
package httputil

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/patent-rank/pkg/types"
)

// maxBodyBytes caps how much of a response body ReadBody will buffer.
const maxBodyBytes = 8 << 20

// NewClient returns an http.Client honouring cfg.Timeout that stamps
// cfg.UserAgent on every request which does not already carry one.
func NewClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: cfg.UserAgent},
	}
}

// WithUserAgent wraps a caller-supplied client so its requests carry
// userAgent. The returned client shares the timeout and cookie jar.
func WithUserAgent(c *http.Client, userAgent string) *http.Client {
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout:       c.Timeout,
		Jar:           c.Jar,
		CheckRedirect: c.CheckRedirect,
		Transport:     &userAgentTransport{base: base, userAgent: userAgent},
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" || req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

// ReadBody reads at most 8 MiB of resp.Body and closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return data, nil
}

// Snippet returns body trimmed to at most n runes, for error messages.
func Snippet(body []byte, n int) string {
	s := strings.TrimSpace(string(body))
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
