package service

import (
	"context"
	"fmt"
	"math/big"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/contenthash"
	"github.com/sirupsen/logrus"
)

type DuplicateResult struct {
	ContentHash string   `json:"content_hash"`
	Exists      bool     `json:"exists"`
	TokenID     *big.Int `json:"token_id,omitempty"`
	MaterialID  string   `json:"material_id,omitempty"`
}

// DuplicateChecker gates every write on the backend content hash index.
// When a chain index is set it can also confirm, after a mint, which token
// the contract considers canonical for the content.
type DuplicateChecker struct {
	index  DuplicateIndex
	chain  ChainIndex
	logger *logrus.Logger
}

func NewDuplicateChecker(index DuplicateIndex, chainIndex ChainIndex, logger *logrus.Logger) *DuplicateChecker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DuplicateChecker{index: index, chain: chainIndex, logger: logger}
}

// Exists queries the backend index. A failed query is a network error: the
// gate never reports "no duplicate" when it could not ask.
func (d *DuplicateChecker) Exists(ctx context.Context, sess *backend.Session, contentHash string) (*DuplicateResult, error) {
	if !contenthash.Valid(contentHash) {
		return nil, validationError(fmt.Errorf("invalid content hash %q", contentHash))
	}
	check, err := d.index.CheckContentHash(ctx, sess, contentHash)
	if err != nil {
		return nil, networkError("duplicate_check", err)
	}
	res := &DuplicateResult{ContentHash: contentHash, Exists: check.Exists}
	if check.Exists {
		res.TokenID = check.TokenID
		res.MaterialID = check.MaterialID
		d.logger.Infof("content %s already registered: token=%v material=%s", contentHash, check.TokenID, check.MaterialID)
	}
	return res, nil
}

// ConfirmCanonical reports whether tokenID is the token the contract maps
// contentHash to. It returns true when no chain index is configured or the
// contract has no mapping for the hash.
func (d *DuplicateChecker) ConfirmCanonical(ctx context.Context, contentHash string, tokenID *big.Int) (bool, error) {
	if d.chain == nil || tokenID == nil {
		return true, nil
	}
	onChain, err := d.chain.TokenIDByContentHash(ctx, contentHash)
	if err != nil {
		return false, fmt.Errorf("read canonical token for %s: %w", contentHash, err)
	}
	if onChain == nil || onChain.Sign() == 0 {
		return true, nil
	}
	return onChain.Cmp(tokenID) == 0, nil
}
