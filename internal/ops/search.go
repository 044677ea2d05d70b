// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/patent-rank/internal/httputil"
	"github.com/pdiddy/patent-rank/pkg/types"
)

const searchPath = "/rest-services/published-data/search"

// Search submits query verbatim (no CQL validation) and returns the raw
// response for the first maxResults hits. maxResults <= 0 means the
// default of 5; values above 100 are clamped to the OPS window limit.
// A "no results" fault yields an empty response, not an error.
func (c *Client) Search(ctx context.Context, token, query string, maxResults int) (*SearchResponse, error) {
	if maxResults <= 0 {
		maxResults = types.DefaultMaxResults
	}
	if maxResults > maxRange {
		maxResults = maxRange
	}

	params := url.Values{
		"q":     {query},
		"Range": {fmt.Sprintf("1-%d", maxResults)},
	}
	reqURL := c.BaseURL + searchPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setBearer(req, token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OPS search request: %w", err)
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := newAPIError("search", resp.StatusCode, body)
		if resp.StatusCode == http.StatusNotFound && apiErr.Code == notFoundCode {
			return &SearchResponse{}, nil
		}
		return nil, apiErr
	}

	var sr SearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parsing OPS search response: %w", err)
	}
	return &sr, nil
}

func setBearer(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
}

// SearchResponse mirrors the JSON shape of an OPS published-data search.
// The shape is owned by OPS; References navigates it.
type SearchResponse struct {
	WorldPatentData struct {
		BiblioSearch biblioSearch `json:"ops:biblio-search"`
	} `json:"ops:world-patent-data"`
}

// References returns the document references in response order, skipping
// entries without a document number.
func (r *SearchResponse) References() []types.DocumentReference {
	if r == nil {
		return nil
	}
	pubs := r.WorldPatentData.BiblioSearch.SearchResult.PublicationReferences
	refs := make([]types.DocumentReference, 0, len(pubs))
	for _, p := range pubs {
		ref := types.DocumentReference{
			Country: p.DocumentID.Country.Value,
			Number:  p.DocumentID.DocNumber.Value,
			Kind:    p.DocumentID.Kind.Value,
		}
		if ref.IsZero() {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// TotalResults returns the hit count OPS reports for the whole query,
// which may exceed the number of references returned.
func (r *SearchResponse) TotalResults() int {
	if r == nil {
		return 0
	}
	n, _ := strconv.Atoi(r.WorldPatentData.BiblioSearch.TotalResultCount)
	return n
}

// OPS search JSON structures.
type biblioSearch struct {
	TotalResultCount string       `json:"@total-result-count"`
	SearchResult     searchResult `json:"ops:search-result"`
}

type searchResult struct {
	PublicationReferences oneOrMany[publicationReference] `json:"ops:publication-reference"`
}

type publicationReference struct {
	System     string     `json:"@system"`
	FamilyID   string     `json:"@family-id"`
	DocumentID documentID `json:"document-id"`
}

type documentID struct {
	Type      string `json:"@document-id-type"`
	Country   dollar `json:"country"`
	DocNumber dollar `json:"doc-number"`
	Kind      dollar `json:"kind"`
}

// dollar is the {"$": "value"} wrapper OPS uses for text nodes.
type dollar struct {
	Value string `json:"$"`
}

// oneOrMany decodes a JSON array, or a single object as a one-element
// slice. OPS collapses one-element lists to bare objects.
type oneOrMany[T any] []T

func (m *oneOrMany[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = nil
		return nil
	}
	if b[0] == '[' {
		var list []T
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*m = list
		return nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*m = oneOrMany[T]{one}
	return nil
}
