// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/patent-rank/pkg/types"
)

// --- Mock OPS server ---

const testToken = "tok-123"

const sampleTokenJSON = `{
  "token_type": "BearerToken",
  "access_token": "tok-123",
  "expires_in": "1199",
  "status": "approved"
}`

const sampleSearchJSON = `{
  "ops:world-patent-data": {
    "ops:biblio-search": {
      "@total-result-count": "1234",
      "ops:search-result": {
        "ops:publication-reference": [
          {"@system": "ops.epo.org", "@family-id": "1", "document-id": {"@document-id-type": "docdb", "country": {"$": "EP"}, "doc-number": {"$": "1000000"}, "kind": {"$": "A1"}}},
          {"@system": "ops.epo.org", "@family-id": "2", "document-id": {"@document-id-type": "docdb", "country": {"$": "WO"}, "doc-number": {"$": "2020123456"}, "kind": {"$": "A1"}}},
          {"@system": "ops.epo.org", "@family-id": "3", "document-id": {"@document-id-type": "docdb", "country": {"$": "US"}, "doc-number": {"$": ""}, "kind": {"$": "B2"}}}
        ]
      }
    }
  }
}`

const singleSearchJSON = `{
  "ops:world-patent-data": {
    "ops:biblio-search": {
      "@total-result-count": "1",
      "ops:search-result": {
        "ops:publication-reference": {"document-id": {"country": {"$": "DE"}, "doc-number": {"$": "102019000001"}, "kind": {"$": "A1"}}}
      }
    }
  }
}`

const notFoundJSON = `{"error": {"code": {"$": "SERVER.EntityNotFound"}, "message": {"$": "No results found"}}}`

const sampleBiblioJSON = `{
  "ops:world-patent-data": {
    "exchange-documents": {
      "exchange-document": {
        "@country": "EP", "@doc-number": "1000000", "@kind": "A1",
        "bibliographic-data": {
          "invention-title": [
            {"@lang": "de", "$": "Energiesparende Vorrichtung"},
            {"@lang": "en", "$": "Energy saving device"}
          ]
        },
        "abstract": {"@lang": "en", "p": {"$": "A device that reduces energy consumption."}}
      }
    }
  }
}`

type fakeOPS struct {
	t           *testing.T
	searchBody  string
	searchCode  int
	biblio      map[string]string
	gotQuery    string
	gotRange    string
	biblioCalls []string
}

func (f *fakeOPS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/accesstoken":
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": "invalid_client", "error_description": "bad credentials"}`)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, sampleTokenJSON)

	case r.URL.Path == searchPath:
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		f.gotQuery = r.URL.Query().Get("q")
		f.gotRange = r.URL.Query().Get("Range")
		code := f.searchCode
		if code == 0 {
			code = http.StatusOK
		}
		w.WriteHeader(code)
		fmt.Fprint(w, f.searchBody)

	case strings.HasSuffix(r.URL.Path, "/biblio"):
		key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/rest-services/published-data/publication/epodoc/"), "/biblio")
		f.biblioCalls = append(f.biblioCalls, key)
		body, ok := f.biblio[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, notFoundJSON)
			return
		}
		fmt.Fprint(w, body)

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	}
}

func newTestServer(t *testing.T, f *fakeOPS) (*httptest.Server, types.OPSConfig) {
	t.Helper()
	f.t = t
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	return ts, types.OPSConfig{BaseURL: ts.URL}
}

// --- Token ---

func TestAuthenticatorToken(t *testing.T) {
	ts, cfg := newTestServer(t, &fakeOPS{})
	a := NewAuthenticator(cfg, ts.Client())

	tok, err := a.Token(context.Background(), types.Credentials{ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)
	assert.Equal(t, testToken, tok)
}

func TestAuthenticatorToken_BadCredentials(t *testing.T) {
	ts, cfg := newTestServer(t, &fakeOPS{})
	a := NewAuthenticator(cfg, ts.Client())

	_, err := a.Token(context.Background(), types.Credentials{ClientID: "id", ClientSecret: "wrong"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "want *APIError, got %T: %v", err, err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestAuthenticatorToken_MissingCredentials(t *testing.T) {
	a := &Authenticator{HTTP: http.DefaultClient, TokenURL: "http://127.0.0.1:0/unused"}

	_, err := a.Token(context.Background(), types.Credentials{ClientID: "id"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestAuthenticatorToken_NoAccessToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"token_type": "BearerToken", "status": "approved"}`)
	}))
	defer ts.Close()

	a := &Authenticator{HTTP: ts.Client(), TokenURL: ts.URL}
	_, err := a.Token(context.Background(), types.Credentials{ClientID: "id", ClientSecret: "secret"})
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

// --- Search ---

func TestClientSearch(t *testing.T) {
	f := &fakeOPS{searchBody: sampleSearchJSON}
	ts, cfg := newTestServer(t, f)
	c := NewClient(cfg, ts.Client())

	sr, err := c.Search(context.Background(), testToken, "energy saving technology", 0)
	require.NoError(t, err)

	assert.Equal(t, "energy saving technology", f.gotQuery)
	assert.Equal(t, "1-5", f.gotRange)
	assert.Equal(t, 1234, sr.TotalResults())

	refs := sr.References()
	require.Len(t, refs, 2, "reference without doc-number is skipped")
	assert.Equal(t, types.DocumentReference{Country: "EP", Number: "1000000", Kind: "A1"}, refs[0])
	assert.Equal(t, "WO2020123456A1", refs[1].String())
}

func TestClientSearch_RangeClamp(t *testing.T) {
	tests := []struct {
		name string
		max  int
		want string
	}{
		{"explicit", 10, "1-10"},
		{"default", -1, "1-5"},
		{"clamped", 500, "1-100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeOPS{searchBody: sampleSearchJSON}
			ts, cfg := newTestServer(t, f)
			_, err := NewClient(cfg, ts.Client()).Search(context.Background(), testToken, "q", tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.gotRange)
		})
	}
}

func TestClientSearch_SingleObjectReference(t *testing.T) {
	ts, cfg := newTestServer(t, &fakeOPS{searchBody: singleSearchJSON})

	sr, err := NewClient(cfg, ts.Client()).Search(context.Background(), testToken, "q", 5)
	require.NoError(t, err)
	refs := sr.References()
	require.Len(t, refs, 1)
	assert.Equal(t, "DE102019000001A1", refs[0].String())
}

func TestClientSearch_NoResults(t *testing.T) {
	ts, cfg := newTestServer(t, &fakeOPS{searchBody: notFoundJSON, searchCode: http.StatusNotFound})

	sr, err := NewClient(cfg, ts.Client()).Search(context.Background(), testToken, "q", 5)
	require.NoError(t, err)
	assert.Empty(t, sr.References())
	assert.Equal(t, 0, sr.TotalResults())
}

func TestClientSearch_RemoteError(t *testing.T) {
	body := `{"fault": {"code": "CLIENT.CQL", "message": "Invalid query syntax"}}`
	ts, cfg := newTestServer(t, &fakeOPS{searchBody: body, searchCode: http.StatusBadRequest})

	_, err := NewClient(cfg, ts.Client()).Search(context.Background(), testToken, "ti=(", 5)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "CLIENT.CQL", apiErr.Code)
	assert.Contains(t, err.Error(), "Invalid query syntax")
}

func TestClientSearch_NonJSONError(t *testing.T) {
	body := `<fault><code>SERVER.Internal</code></fault>`
	ts, cfg := newTestServer(t, &fakeOPS{searchBody: body, searchCode: http.StatusInternalServerError})

	_, err := NewClient(cfg, ts.Client()).Search(context.Background(), testToken, "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "SERVER.Internal")
}

// --- Biblio ---

func TestClientFetchRecord(t *testing.T) {
	f := &fakeOPS{biblio: map[string]string{"EP1000000A1": sampleBiblioJSON}}
	ts, cfg := newTestServer(t, f)
	c := NewClient(cfg, ts.Client())

	rec, err := c.FetchRecord(context.Background(), testToken, types.DocumentReference{Country: "EP", Number: "1000000", Kind: "A1"})
	require.NoError(t, err)
	assert.Equal(t, "Energy saving device", rec.Title)
	assert.Equal(t, "A device that reduces energy consumption.", rec.Abstract)
	assert.True(t, rec.HasTitle)
	assert.True(t, rec.HasAbstract)
	assert.Equal(t, []string{"EP1000000A1"}, f.biblioCalls)
}

func TestClientFetchRecord_NonSuccessIsEmpty(t *testing.T) {
	ts, cfg := newTestServer(t, &fakeOPS{biblio: map[string]string{}})
	c := NewClient(cfg, ts.Client())

	raw, err := c.Biblio(context.Background(), testToken, types.DocumentReference{Country: "EP", Number: "9", Kind: "A1"})
	require.NoError(t, err)
	assert.Nil(t, raw)

	rec, err := c.FetchRecord(context.Background(), testToken, types.DocumentReference{Country: "EP", Number: "9", Kind: "A1"})
	require.NoError(t, err)
	assert.Equal(t, types.TitleUnavailable, rec.Title)
	assert.Equal(t, types.AbstractUnavailable, rec.Abstract)
	assert.False(t, rec.HasAbstract)
}

func TestClientFetchRecord_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	c := NewClient(types.OPSConfig{BaseURL: ts.URL}, ts.Client())
	ts.Close()

	_, err := c.FetchRecord(context.Background(), testToken, types.DocumentReference{Country: "EP", Number: "1", Kind: "A1"})
	assert.Error(t, err)
}

func TestNewClient_InjectedClientCarriesUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		http.NotFound(w, r)
	}))
	defer ts.Close()

	cfg := types.OPSConfig{BaseURL: ts.URL, HTTPConfig: types.HTTPConfig{UserAgent: "patent-rank/test"}}
	c := NewClient(cfg, ts.Client())
	_, err := c.FetchRecord(context.Background(), testToken, types.DocumentReference{Country: "EP", Number: "1", Kind: "A1"})
	require.NoError(t, err)
	assert.Equal(t, "patent-rank/test", got)
}

func TestAPIErrorMessage(t *testing.T) {
	e := &APIError{Op: "search", StatusCode: 400, Code: "CLIENT.CQL", Message: "bad"}
	assert.Equal(t, "OPS search returned HTTP 400 (CLIENT.CQL): bad", e.Error())
}
