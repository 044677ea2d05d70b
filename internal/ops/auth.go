// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/pdiddy/patent-rank/pkg/types"
)

// Authenticator exchanges OPS consumer credentials for a bearer token.
type Authenticator struct {
	HTTP     *http.Client
	TokenURL string
}

// NewAuthenticator returns an Authenticator posting to cfg.TokenURL, or to
// the default path under cfg.BaseURL.
func NewAuthenticator(cfg types.OPSConfig, hc *http.Client) *Authenticator {
	c := NewClient(cfg, hc)
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = c.BaseURL + "/auth/accesstoken"
	}
	return &Authenticator{HTTP: c.HTTP, TokenURL: tokenURL}
}

// Token runs the client-credentials grant: a form-encoded
// grant_type=client_credentials POST authenticated with HTTP Basic.
// The token is not cached; every call performs a fresh exchange.
func (a *Authenticator) Token(ctx context.Context, creds types.Credentials) (string, error) {
	if !creds.IsComplete() {
		return "", ErrMissingCredentials
	}

	cc := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     a.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.HTTP)
	tok, err := cc.Token(ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", fmt.Errorf("token exchange: %w", newAPIError("token", re.Response.StatusCode, re.Body))
		}
		// x/oauth2 (checked against v0.34.0) reports an absent access_token
		// as a plain error ending in "server response missing access_token".
		// The message is matched here and pinned by the NoAccessToken test.
		if strings.Contains(err.Error(), "missing access_token") {
			return "", ErrNoAccessToken
		}
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return tok.AccessToken, nil
}
