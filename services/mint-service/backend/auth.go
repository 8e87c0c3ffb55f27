package backend

import (
	"context"
	"errors"
	"net/http"
)

// RequestNonce asks the backend for a sign-in challenge for wallet.
func (c *Client) RequestNonce(ctx context.Context, wallet string) (*NonceResponse, error) {
	r, err := c.jsonRequest("request_nonce", http.MethodPost, "/auth/request-nonce", map[string]string{"wallet_address": wallet})
	if err != nil {
		return nil, err
	}
	var out NonceResponse
	if err := c.call(ctx, nil, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySignature exchanges a signed challenge for an access token and
// stores it in sess.
func (c *Client) VerifySignature(ctx context.Context, sess *Session, req SignatureRequest) (*AuthResponse, error) {
	r, err := c.jsonRequest("verify_signature", http.MethodPost, "/auth/verify-signature", req)
	if err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := c.call(ctx, nil, r, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("backend verify_signature: empty access token")
	}
	if err := sess.Set(out.AccessToken); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, sess *Session) (*User, error) {
	var out User
	if err := c.call(ctx, sess, request{op: "me", method: http.MethodGet, base: c.baseURL, path: "/auth/me"}, &out); err != nil {
		return nil, err
	}
	if out.Name == "" {
		out.Name = out.WalletAddress
	}
	return &out, nil
}

// Logout ends the backend session. The local token is cleared even when
// the backend call fails.
func (c *Client) Logout(ctx context.Context, sess *Session) error {
	err := c.call(ctx, sess, request{op: "logout", method: http.MethodPost, base: c.baseURL, path: "/auth/logout"}, nil)
	if cerr := sess.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
