// Package auth obtains bearer tokens for the upstream service via the OAuth2
// client-credentials grant, caching them until shortly before expiry.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrAuth is returned for any failure of the token exchange, including a
// well-formed response that lacks a usable access_token.
var ErrAuth = errors.New("auth failed")

const (
	cacheKey = "client_credentials"

	// expiryMargin is how close to expiry a cached token may be before it is
	// refreshed instead of reused.
	expiryMargin = 60 * time.Second

	// defaultExpiresIn is assumed when the exchange response omits expires_in.
	defaultExpiresIn = 3600 * time.Second
)

// Token is a bearer token together with its recorded expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenCache stores tokens under string keys. Entries may be evicted at any
// time; a miss just forces a fresh exchange.
type TokenCache interface {
	Get(key string) (Token, bool)
	Put(key string, tok Token)
}

// lruCache backs TokenCache with an expiring LRU. The cache-level TTL is a
// garbage collector; staleness is decided against Token.ExpiresAt.
type lruCache struct {
	lru *expirable.LRU[string, Token]
}

// NewCache returns an in-memory TokenCache.
func NewCache() TokenCache {
	return &lruCache{lru: expirable.NewLRU[string, Token](8, nil, 24*time.Hour)}
}

func (c *lruCache) Get(key string) (Token, bool) { return c.lru.Get(key) }
func (c *lruCache) Put(key string, tok Token)    { c.lru.Add(key, tok) }

// Provider exchanges client credentials for bearer tokens.
type Provider struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Cache        TokenCache
	HTTP         *http.Client

	now func() time.Time
}

// NewProvider creates a Provider with a fresh cache and default HTTP client.
func NewProvider(tokenURL, clientID, clientSecret string) *Provider {
	return &Provider{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Cache:        NewCache(),
		HTTP:         &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}
}

// GetToken returns a valid access token, reusing the cached one unless it is
// within 60s of its recorded expiry.
func (p *Provider) GetToken(ctx context.Context) (string, error) {
	if p.now == nil {
		p.now = time.Now
	}

	if tok, ok := p.Cache.Get(cacheKey); ok {
		if tok.AccessToken != "" && p.now().Add(expiryMargin).Before(tok.ExpiresAt) {
			return tok.AccessToken, nil
		}
	}

	tok, err := p.exchange(ctx)
	if err != nil {
		return "", err
	}
	p.Cache.Put(cacheKey, tok)
	return tok.AccessToken, nil
}

// tokenResponse holds the fields of the exchange response we care about.
// Pointers distinguish "absent" from zero values: a missing access_token is
// an error, a missing expires_in falls back to the default.
type tokenResponse struct {
	AccessToken *string `json:"access_token"`
	ExpiresIn   *int64  `json:"expires_in"`
}

func (p *Provider) exchange(ctx context.Context) (Token, error) {
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("%w: create request: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.ClientID, p.ClientSecret)

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("%w: token exchange: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, fmt.Errorf("%w: read token response: %v", ErrAuth, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Token{}, fmt.Errorf("%w: token exchange returned %s", ErrAuth, resp.Status)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, fmt.Errorf("%w: decode token response: %v", ErrAuth, err)
	}
	if tr.AccessToken == nil || *tr.AccessToken == "" {
		return Token{}, fmt.Errorf("%w: token response has no access_token", ErrAuth)
	}

	ttl := defaultExpiresIn
	if tr.ExpiresIn != nil {
		ttl = time.Duration(*tr.ExpiresIn) * time.Second
	}

	slog.Debug("token exchanged", "expires_in", ttl)

	return Token{
		AccessToken: *tr.AccessToken,
		ExpiresAt:   p.now().Add(ttl),
	}, nil
}
