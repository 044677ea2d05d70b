// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/patent-rank/pkg/types"
)

func userAgentEcho() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))
}

func TestNewClient_SetsUserAgentAndTimeout(t *testing.T) {
	ts := userAgentEcho()
	defer ts.Close()

	c := NewClient(types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "patent-rank/test"})
	assert.Equal(t, 5*time.Second, c.Timeout)

	resp, err := c.Get(ts.URL)
	require.NoError(t, err)
	body, err := ReadBody(resp)
	require.NoError(t, err)
	assert.Equal(t, "patent-rank/test", string(body))
}

func TestWithUserAgent_KeepsExplicitHeader(t *testing.T) {
	ts := userAgentEcho()
	defer ts.Close()

	c := WithUserAgent(ts.Client(), "default/1.0")

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "explicit/2.0")

	resp, err := c.Do(req)
	require.NoError(t, err)
	body, err := ReadBody(resp)
	require.NoError(t, err)
	assert.Equal(t, "explicit/2.0", string(body))
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		body string
		n    int
		want string
	}{
		{"short body unchanged", "  not found \n", 20, "not found"},
		{"long body truncated", strings.Repeat("x", 30), 10, strings.Repeat("x", 10) + "..."},
		{"multibyte safe", "similarità", 9, "similarit..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Snippet([]byte(tt.body), tt.n))
		})
	}
}
