// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ops is a minimal client for the EPO Open Patent Services REST API:
// client-credentials token exchange, published-data search, and per-document
// bibliographic lookup. Calls are sequential and never retried.
package ops

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/patent-rank/internal/httputil"
	"github.com/pdiddy/patent-rank/pkg/types"
)

// Errors returned by the OPS client.
var (
	ErrMissingCredentials = errors.New("client id and client secret are required")
	ErrNoAccessToken      = errors.New("token response lacks access_token")
)

// notFoundCode is the OPS fault code for a search with no hits.
const notFoundCode = "SERVER.EntityNotFound"

// maxRange is the widest Range window OPS accepts for a single search.
const maxRange = 100

// Client issues authenticated OPS requests.
type Client struct {
	HTTP *http.Client

	// BaseURL is the OPS REST root without trailing slash
	// (e.g. "https://ops.epo.org/3.2").
	BaseURL string
}

// NewClient returns a Client for cfg using hc, or a client built from
// cfg.HTTPConfig when hc is nil. Requests carry cfg.UserAgent either way.
func NewClient(cfg types.OPSConfig, hc *http.Client) *Client {
	if hc == nil {
		hc = httputil.NewClient(cfg.HTTPConfig)
	} else {
		hc = httputil.WithUserAgent(hc, cfg.UserAgent)
	}
	base := cfg.BaseURL
	if base == "" {
		base = types.DefaultOPSBaseURL
	}
	return &Client{HTTP: hc, BaseURL: strings.TrimRight(base, "/")}
}

// APIError is a non-success OPS response.
type APIError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "OPS %s returned HTTP %d", e.Op, e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// newAPIError builds an APIError from a response body. OPS reports faults
// either as {"error": {...}} or {"fault": {...}}, with plain strings or
// {"$": "..."} wrappers; anything else is quoted verbatim.
func newAPIError(op string, status int, body []byte) *APIError {
	e := &APIError{Op: op, StatusCode: status}
	if gjson.ValidBytes(body) {
		root := gjson.ParseBytes(body)
		fault := lookup(root, "error")
		if !fault.Exists() {
			fault = lookup(root, "fault")
		}
		e.Code = text(lookup(fault, "code"))
		e.Message = text(lookup(fault, "message"))
		if e.Message == "" {
			e.Message = text(lookup(fault, "description"))
		}
	}
	if e.Code == "" && e.Message == "" {
		e.Message = httputil.Snippet(body, 200)
	}
	return e
}

// lookup walks r one object key at a time. Keys are compared literally so
// OPS names such as "ops:world-patent-data", "@lang" and "$" need no
// path escaping.
func lookup(r gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if !r.IsObject() {
			return gjson.Result{}
		}
		var next gjson.Result
		r.ForEach(func(k, v gjson.Result) bool {
			if k.String() == key {
				next = v
				return false
			}
			return true
		})
		r = next
	}
	return r
}

// items returns r as a slice: arrays are expanded, single values wrapped.
func items(r gjson.Result) []gjson.Result {
	switch {
	case !r.Exists():
		return nil
	case r.IsArray():
		return r.Array()
	default:
		return []gjson.Result{r}
	}
}

// text returns the string content of a "$"-wrapped value or a bare string.
func text(r gjson.Result) string {
	if r.IsObject() {
		r = lookup(r, "$")
	}
	if r.Type != gjson.String && r.Type != gjson.Number {
		return ""
	}
	return strings.TrimSpace(r.String())
}
