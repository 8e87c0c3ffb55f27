package service

import (
	"context"
	"math/big"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/chain"
	"github.com/ethereum/go-ethereum/common"
)

// The workflows depend on these narrow views of backend.Client,
// chain.Minter and chain.Reader.

type DuplicateIndex interface {
	CheckContentHash(ctx context.Context, sess *backend.Session, contentHash string) (*backend.ContentHashCheck, error)
}

type SyncBackend interface {
	SyncBlockchain(ctx context.Context, sess *backend.Session, id string, refs backend.BlockchainRefs) (*backend.Material, error)
	CreateWithNFT(ctx context.Context, sess *backend.Session, m backend.NewMaterial, refs backend.BlockchainRefs) (*backend.Material, error)
	UpdateBlockchain(ctx context.Context, sess *backend.Session, id string, refs backend.ContentUpdateRefs) (*backend.Material, error)
}

type OwnershipBackend interface {
	Ownership(ctx context.Context, sess *backend.Session, id string) (*backend.Ownership, error)
	NFTStatus(ctx context.Context, sess *backend.Session, id string) (*backend.NFTStatus, error)
}

type MaterialSource interface {
	GetMaterial(ctx context.Context, sess *backend.Session, id string, includeContent bool) (*backend.Material, error)
}

// Backend is everything the mint workflows need from the artifacts backend.
type Backend interface {
	DuplicateIndex
	SyncBackend
	OwnershipBackend
	MaterialSource
}

type Minter interface {
	Caller() common.Address
	EnsureChain(ctx context.Context) error
	Mint(ctx context.Context, req chain.MintRequest, onStage chain.StageFunc) (*chain.MintResult, error)
	UpdateContent(ctx context.Context, tokenID *big.Int, cid, contentHash string) (common.Hash, error)
}

// ChainIndex is the contract's own content hash index.
type ChainIndex interface {
	TokenIDByContentHash(ctx context.Context, contentHash string) (*big.Int, error)
}

var (
	_ Backend    = (*backend.Client)(nil)
	_ Minter     = (*chain.Minter)(nil)
	_ ChainIndex = (*chain.Reader)(nil)
)
