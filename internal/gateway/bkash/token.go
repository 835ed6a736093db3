package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dipanjanswapna/averzotech-sub001/internal/cache"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway"
)

// expiryMargin is how close to expiry a cached token may get before we stop
// handing it out and refresh instead.
const expiryMargin = 5 * time.Minute

type TokenCache struct {
	cfg   Config
	store cache.TokenStore
	http  *http.Client
}

func NewTokenCache(cfg Config, store cache.TokenStore, httpClient *http.Client) *TokenCache {
	return &TokenCache{cfg: cfg, store: store, http: httpClient}
}

type tokenResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	IDToken       string `json:"id_token"`
	RefreshToken  string `json:"refresh_token"`
	ExpiresIn     int64  `json:"expires_in"`
}

// GetToken returns a bearer token usable for at least expiryMargin. A cached
// token near expiry is refreshed; a failed refresh falls back to a full grant.
// Concurrent callers may each trigger a grant; the provider tolerates
// redundant grants and the last writer wins the slot.
func (t *TokenCache) GetToken(ctx context.Context) (string, error) {
	tok, err := t.store.Get(ctx)
	if err == nil && time.Until(tok.ExpiresAt) > expiryMargin {
		return tok.IDToken, nil
	}

	if err == nil && tok.RefreshToken != "" {
		refreshed, refreshErr := t.requestToken(ctx, "/tokenized/checkout/token/refresh", map[string]string{
			"app_key":       t.cfg.AppKey,
			"app_secret":    t.cfg.AppSecret,
			"refresh_token": tok.RefreshToken,
		})
		if refreshErr == nil {
			return t.storeAndReturn(ctx, refreshed)
		}
		// Refresh failed: discard the slot and fall through to a full grant.
	}

	granted, err := t.requestToken(ctx, "/tokenized/checkout/token/grant", map[string]string{
		"app_key":    t.cfg.AppKey,
		"app_secret": t.cfg.AppSecret,
	})
	if err != nil {
		return "", err
	}
	return t.storeAndReturn(ctx, granted)
}

func (t *TokenCache) storeAndReturn(ctx context.Context, tok *cache.GatewayToken) (string, error) {
	// A token we cannot cache is still a valid token.
	_ = t.store.Put(ctx, tok)
	return tok.IDToken, nil
}

func (t *TokenCache) requestToken(ctx context.Context, path string, body map[string]string) (*cache.GatewayToken, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("bkash: marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("bkash: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("username", t.cfg.Username)
	req.Header.Set("password", t.cfg.Password)

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, &gateway.Error{Provider: "bkash", Reason: "token request failed", Err: err}
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &gateway.Error{Provider: "bkash", Reason: "unreadable token response", Err: err}
	}

	if tr.IDToken == "" || (tr.StatusCode != "" && tr.StatusCode != statusCodeOK) {
		reason := tr.StatusMessage
		if reason == "" {
			reason = "provider returned no token"
		}
		return nil, &gateway.Error{Provider: "bkash", Reason: reason}
	}

	return &cache.GatewayToken{
		IDToken:      tr.IDToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
