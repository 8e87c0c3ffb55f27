package service

import (
	"context"
	"errors"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
)

var errIncompleteRefs = errors.New("blockchain refs need a token id, tx hash, cid and content hash")

// BackendSync records on-chain facts against the material in the backend.
// It does not deduplicate; the duplicate gate runs before any mint.
type BackendSync struct {
	backend SyncBackend
}

func NewBackendSync(b SyncBackend) *BackendSync {
	return &BackendSync{backend: b}
}

func complete(refs backend.BlockchainRefs) bool {
	return refs.TokenID != nil && refs.TxHash != "" && refs.IPFSCid != "" && refs.ContentHash != ""
}

// Sync links an existing material to its freshly minted token.
func (s *BackendSync) Sync(ctx context.Context, sess *backend.Session, materialID string, refs backend.BlockchainRefs) (*backend.Material, error) {
	if materialID == "" {
		return nil, ErrMissingMaterialID
	}
	if !complete(refs) {
		return nil, errIncompleteRefs
	}
	return s.backend.SyncBlockchain(ctx, sess, materialID, refs)
}

// Create stores a new material together with its token in one call.
func (s *BackendSync) Create(ctx context.Context, sess *backend.Session, m backend.NewMaterial, refs backend.BlockchainRefs) (*backend.Material, error) {
	if !complete(refs) {
		return nil, errIncompleteRefs
	}
	return s.backend.CreateWithNFT(ctx, sess, m, refs)
}

// Update records the new content version of an already minted material.
func (s *BackendSync) Update(ctx context.Context, sess *backend.Session, materialID string, refs backend.ContentUpdateRefs) (*backend.Material, error) {
	if materialID == "" {
		return nil, ErrMissingMaterialID
	}
	if refs.NewIPFSCid == "" || refs.NewContentHash == "" || refs.TxHash == "" {
		return nil, errIncompleteRefs
	}
	return s.backend.UpdateBlockchain(ctx, sess, materialID, refs)
}
