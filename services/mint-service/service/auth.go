package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/chain"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type AuthBackend interface {
	RequestNonce(ctx context.Context, wallet string) (*backend.NonceResponse, error)
	VerifySignature(ctx context.Context, sess *backend.Session, req backend.SignatureRequest) (*backend.AuthResponse, error)
}

var _ AuthBackend = (*backend.Client)(nil)

// Login signs the backend's challenge with signer and stores the resulting
// access token in sess.
func Login(ctx context.Context, auth AuthBackend, signer chain.MessageSigner, sess *backend.Session) (*backend.AuthResponse, error) {
	if sess == nil {
		return nil, errors.New("login needs a session")
	}
	wallet := signer.Address().Hex()
	nonce, err := auth.RequestNonce(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("request nonce for %s: %w", wallet, err)
	}
	if nonce.Message == "" {
		return nil, errors.New("backend returned an empty sign-in message")
	}
	sig, err := signer.SignMessage([]byte(nonce.Message))
	if err != nil {
		return nil, fmt.Errorf("sign login message: %w", err)
	}
	resp, err := auth.VerifySignature(ctx, sess, backend.SignatureRequest{
		WalletAddress: wallet,
		Signature:     hexutil.Encode(sig),
		Nonce:         nonce.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("verify signature for %s: %w", wallet, err)
	}
	return resp, nil
}
