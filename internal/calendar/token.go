package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// Credentials are the server-to-server app values exchanged for a bearer
// token.
type Credentials struct {
	GrantType    string
	AccountID    string
	ClientID     string
	ClientSecret string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Issuer fetches a fresh access token on every call. There is no cache.
type Issuer struct {
	hc    *http.Client
	url   string
	creds Credentials
}

func NewIssuer(hc *http.Client, tokenURL string, creds Credentials) *Issuer {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Issuer{hc: hc, url: tokenURL, creds: creds}
}

func (i *Issuer) Token(ctx context.Context) (*oauth2.Token, error) {
	u, err := url.Parse(i.url)
	if err != nil {
		return nil, fmt.Errorf("oauth token url: %w", err)
	}
	q := u.Query()
	q.Set("grant_type", i.creds.GrantType)
	q.Set("account_id", i.creds.AccountID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(i.creds.ClientID, i.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := i.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse("oauth token", resp); err != nil {
		return nil, err
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("oauth token: decode: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, errors.New("oauth token: empty access_token")
	}

	tok := &oauth2.Token{AccessToken: tr.AccessToken, TokenType: tr.TokenType}
	if tr.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return tok.WithExtra(map[string]any{"scope": tr.Scope}), nil
}

// Scope returns the scope the identity service granted with tok.
func Scope(tok *oauth2.Token) string {
	if tok == nil {
		return ""
	}
	s, _ := tok.Extra("scope").(string)
	return s
}
