// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/patent-rank/internal/httputil"
	"github.com/pdiddy/patent-rank/pkg/types"
)

const biblioPathFmt = "/rest-services/published-data/publication/epodoc/%s/biblio"

// Biblio fetches the bibliographic JSON for ref. Any non-200 status
// yields a nil body and no error: 404 and 500 both mean "no data".
// Transport failures are returned as errors.
func (c *Client) Biblio(ctx context.Context, token string, ref types.DocumentReference) ([]byte, error) {
	reqURL := c.BaseURL + fmt.Sprintf(biblioPathFmt, url.PathEscape(ref.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setBearer(req, token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OPS biblio request for %s: %w", ref, err)
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return body, nil
}

// FetchRecord fetches and parses the biblio record for ref.
func (c *Client) FetchRecord(ctx context.Context, token string, ref types.DocumentReference) (types.DocumentRecord, error) {
	raw, err := c.Biblio(ctx, token, ref)
	if err != nil {
		return types.DocumentRecord{}, err
	}
	return ParseBiblio(ref, raw), nil
}

// ParseBiblio extracts title and abstract from a biblio body. Each field
// is looked up independently and falls back to its placeholder when
// absent, empty, or of an unexpected shape; an empty or invalid body
// yields both placeholders. The English entry is preferred when several
// languages are present, otherwise the first. Abstract paragraphs are
// joined with a single space.
func ParseBiblio(ref types.DocumentReference, raw []byte) types.DocumentRecord {
	rec := types.DocumentRecord{
		Reference: ref,
		Title:     types.TitleUnavailable,
		Abstract:  types.AbstractUnavailable,
	}
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return rec
	}

	docs := items(lookup(gjson.ParseBytes(raw), "ops:world-patent-data", "exchange-documents", "exchange-document"))
	if len(docs) == 0 {
		return rec
	}
	doc := docs[0]

	if title := text(preferEnglish(lookup(doc, "bibliographic-data", "invention-title"))); title != "" {
		rec.Title = title
		rec.HasTitle = true
	}

	abstract := preferEnglish(lookup(doc, "abstract"))
	var paras []string
	for _, p := range items(lookup(abstract, "p")) {
		if s := text(p); s != "" {
			paras = append(paras, s)
		}
	}
	if len(paras) > 0 {
		rec.Abstract = strings.Join(paras, " ")
		rec.HasAbstract = true
	}

	return rec
}

// preferEnglish picks the element whose @lang is "en" from a value that
// may be a single object or a list; otherwise the first element.
func preferEnglish(r gjson.Result) gjson.Result {
	list := items(r)
	if len(list) == 0 {
		return gjson.Result{}
	}
	for _, v := range list {
		if strings.EqualFold(lookup(v, "@lang").String(), "en") {
			return v
		}
	}
	return list[0]
}
