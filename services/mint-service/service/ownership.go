package service

import (
	"context"
	"fmt"
	"math/big"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// OwnershipCheck is recomputed on every request and never stored.
type OwnershipCheck struct {
	IsOwner   bool     `json:"is_owner"`
	NFTMinted bool     `json:"nft_minted"`
	TokenID   *big.Int `json:"token_id,omitempty"`
	CanMint   bool     `json:"can_mint"`
	// Degraded is set when the answer was computed from the local material
	// copy because a backend query failed.
	Degraded bool `json:"degraded"`
}

func (o *OwnershipCheck) settle() {
	o.CanMint = o.IsOwner && !o.NFTMinted
}

type OwnershipResolver struct {
	backend OwnershipBackend
	logger  *logrus.Logger
}

func NewOwnershipResolver(b OwnershipBackend, logger *logrus.Logger) *OwnershipResolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OwnershipResolver{backend: b, logger: logger}
}

// Resolve asks the backend for ownership and NFT status in parallel. If
// either query fails it answers from local instead, comparing the author
// wallet with wallet. An error is returned only when the backend failed and
// there is no local copy to fall back on.
func (r *OwnershipResolver) Resolve(ctx context.Context, sess *backend.Session, materialID string, local *backend.Material, wallet string) (*OwnershipCheck, error) {
	var (
		own    *backend.Ownership
		status *backend.NFTStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		own, err = r.backend.Ownership(gctx, sess, materialID)
		return err
	})
	g.Go(func() (err error) {
		status, err = r.backend.NFTStatus(gctx, sess, materialID)
		return err
	})
	err := g.Wait()
	if err == nil {
		check := &OwnershipCheck{
			IsOwner:   own.IsOwner,
			NFTMinted: own.NFTMinted || status.NFTMinted,
			TokenID:   status.TokenID,
		}
		if check.TokenID == nil {
			check.TokenID = own.TokenID
		}
		check.settle()
		return check, nil
	}

	if local == nil {
		return nil, fmt.Errorf("resolve ownership of %s: %w", materialID, err)
	}
	r.logger.Warnf("ownership backend unavailable for material %s, using local copy: %v", materialID, err)
	check := &OwnershipCheck{
		IsOwner:   wallet != "" && local.AuthoredBy(wallet),
		NFTMinted: local.NFTMinted,
		TokenID:   local.NFTTokenID,
		Degraded:  true,
	}
	check.settle()
	return check, nil
}
