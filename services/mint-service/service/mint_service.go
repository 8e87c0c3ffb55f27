package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/chain"
	"github.com/RigelNana/baselibrary/services/mint-service/contenthash"
	"github.com/RigelNana/baselibrary/services/mint-service/events"
	"github.com/RigelNana/baselibrary/services/mint-service/models"
	"github.com/RigelNana/baselibrary/services/mint-service/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

type MintService interface {
	MintMaterial(ctx context.Context, sess *backend.Session, materialID string) (*MintResult, error)
	CreateMaterial(ctx context.Context, sess *backend.Session, params CreateParams) (*MintResult, error)
	UpdateContent(ctx context.Context, sess *backend.Session, materialID, content string) (*MintResult, error)
	CheckDuplicate(ctx context.Context, sess *backend.Session, content string) (*DuplicateResult, error)
	Ownership(ctx context.Context, sess *backend.Session, materialID, wallet string) (*OwnershipCheck, error)
	Wallet() string

	// 对账
	ListAttempts(ctx context.Context, status string, limit int) ([]*models.MintAttempt, error)
	AttemptsForMaterial(ctx context.Context, materialID string) ([]*models.MintAttempt, error)
	Reconcile(ctx context.Context, sess *backend.Session, attemptID string) (*models.MintAttempt, error)
}

// MintResult is what a successful workflow produced. A reconciliation gap
// carries one as well, without Material and Ownership.
type MintResult struct {
	AttemptID   string            `json:"attempt_id"`
	MaterialID  string            `json:"material_id,omitempty"`
	TokenID     *big.Int          `json:"token_id"`
	TxHash      string            `json:"tx_hash"`
	IPFSCid     string            `json:"ipfs_cid"`
	ContentHash string            `json:"content_hash"`
	WordCount   int               `json:"word_count"`
	BlockNumber uint64            `json:"block_number,omitempty"`
	RaceAnomaly bool              `json:"race_anomaly"`
	Ownership   *OwnershipCheck   `json:"ownership,omitempty"`
	Material    *backend.Material `json:"material,omitempty"`
}

// CreateParams describe a material that is minted before it exists in the
// backend.
type CreateParams struct {
	Title   string `json:"title"`
	Subject string `json:"subject" binding:"required"`
	Grade   string `json:"grade"`
	Topic   string `json:"topic"`
	Content string `json:"content" binding:"required"`
}

type Deps struct {
	Backend    Backend
	Minter     Minter
	Uploader   chain.Uploader
	ChainIndex ChainIndex
	// Attempts may be nil, in which case nothing is recorded and
	// reconciliation is unavailable.
	Attempts repository.MintAttemptRepository
	Events   events.Publisher
	Logger   *logrus.Logger
}

type MintServiceImpl struct {
	backend  Backend
	minter   Minter
	uploader chain.Uploader
	dup      *DuplicateChecker
	sync     *BackendSync
	resolver *OwnershipResolver
	attempts repository.MintAttemptRepository
	events   events.Publisher
	logger   *logrus.Logger
}

func NewMintService(d Deps) MintService {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	return &MintServiceImpl{
		backend:  d.Backend,
		minter:   d.Minter,
		uploader: d.Uploader,
		dup:      NewDuplicateChecker(d.Backend, d.ChainIndex, d.Logger),
		sync:     NewBackendSync(d.Backend),
		resolver: NewOwnershipResolver(d.Backend, d.Logger),
		attempts: d.Attempts,
		events:   d.Events,
		logger:   d.Logger,
	}
}

func (s *MintServiceImpl) Wallet() string {
	return s.minter.Caller().Hex()
}

// precheck runs the validations that need no network call.
func (s *MintServiceImpl) precheck(sess *backend.Session) error {
	if !sess.Authenticated() {
		return validationError(ErrNotAuthenticated)
	}
	if s.minter.Caller() == (common.Address{}) {
		return validationError(ErrWalletNotConnected)
	}
	return nil
}

func (s *MintServiceImpl) loadMaterial(ctx context.Context, sess *backend.Session, id string, withContent bool) (*backend.Material, error) {
	m, err := s.backend.GetMaterial(ctx, sess, id, withContent)
	if err != nil {
		if backend.StatusCode(err) == http.StatusNotFound {
			return nil, validationError(fmt.Errorf("material %s not found", id))
		}
		return nil, networkError("load_material", err)
	}
	return m, nil
}

func wordCount(stored int, content string) int {
	if stored > 0 {
		return stored
	}
	return contenthash.WordCount(content)
}

// MintMaterial mints an NFT for a material that already exists in the
// backend and links the token to it.
func (s *MintServiceImpl) MintMaterial(ctx context.Context, sess *backend.Session, materialID string) (*MintResult, error) {
	if materialID == "" {
		return nil, validationError(ErrMissingMaterialID)
	}
	if err := s.precheck(sess); err != nil {
		return nil, err
	}
	m, err := s.loadMaterial(ctx, sess, materialID, true)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(m.Content) == "" {
		return nil, validationError(ErrEmptyContent)
	}
	caller := s.minter.Caller().Hex()
	if m.AuthorWallet != "" && !m.AuthoredBy(caller) {
		return nil, validationError(ErrNotAuthor)
	}
	if m.NFTMinted {
		return nil, &WorkflowError{
			Kind:    KindConflict,
			Stage:   "validate",
			TokenID: m.NFTTokenID,
			Err:     fmt.Errorf("material %s already minted", materialID),
		}
	}

	title := m.Title
	if title == "" {
		title = m.Topic
	}
	req := chain.MintRequest{
		Subject:     m.Subject,
		Grade:       m.Grade,
		Topic:       m.Topic,
		Title:       title,
		Content:     m.Content,
		ContentHash: contenthash.Hash(m.Content),
		WordCount:   wordCount(m.WordCount, m.Content),
	}
	a := s.begin(ctx, models.FlowMint, materialID, caller, req.ContentHash, nil)
	return s.mint(ctx, sess, a, req, func(ctx context.Context, refs backend.BlockchainRefs) (*backend.Material, error) {
		return s.sync.Sync(ctx, sess, materialID, refs)
	})
}

// CreateMaterial mints first and then creates the material in the backend
// with its token attached.
func (s *MintServiceImpl) CreateMaterial(ctx context.Context, sess *backend.Session, p CreateParams) (*MintResult, error) {
	if err := s.precheck(sess); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, validationError(ErrEmptyContent)
	}
	if p.Subject == "" {
		return nil, validationError(errors.New("subject is required"))
	}
	if p.Title == "" {
		p.Title = p.Topic
	}
	caller := s.minter.Caller().Hex()
	nm := backend.NewMaterial{
		Title:         p.Title,
		Subject:       p.Subject,
		Grade:         p.Grade,
		Topic:         p.Topic,
		Content:       p.Content,
		WalletAddress: caller,
	}
	req := chain.MintRequest{
		Subject:     p.Subject,
		Grade:       p.Grade,
		Topic:       p.Topic,
		Title:       p.Title,
		Content:     p.Content,
		ContentHash: contenthash.Hash(p.Content),
		WordCount:   contenthash.WordCount(p.Content),
	}
	a := s.begin(ctx, models.FlowCreate, "", caller, req.ContentHash, nm)
	return s.mint(ctx, sess, a, req, func(ctx context.Context, refs backend.BlockchainRefs) (*backend.Material, error) {
		return s.sync.Create(ctx, sess, nm, refs)
	})
}

type syncFunc func(ctx context.Context, refs backend.BlockchainRefs) (*backend.Material, error)

func (s *MintServiceImpl) mint(ctx context.Context, sess *backend.Session, a *attempt, req chain.MintRequest, sync syncFunc) (*MintResult, error) {
	a.enter(ctx, "duplicate_check")
	dup, err := s.dup.Exists(ctx, sess, req.ContentHash)
	if err != nil {
		return nil, a.fail(ctx, classifyMintError(err))
	}
	if dup.Exists {
		return nil, a.fail(ctx, conflictError(dup.TokenID, dup.MaterialID))
	}

	minted, err := s.minter.Mint(ctx, req, func(st chain.Stage) {
		if st != chain.StageDone && st != chain.StageFailed {
			a.enter(ctx, st.String())
		}
	})
	if err != nil {
		var me *chain.MintError
		if errors.As(err, &me) {
			a.recordRefs(ctx, repository.ChainRefs{IPFSCid: me.Partial.IPFSCid, TxHash: hashOrEmpty(me.Partial.TxHash)})
		}
		return nil, a.fail(ctx, classifyMintError(err))
	}

	res := &MintResult{
		AttemptID:   a.ID(),
		MaterialID:  a.rec.MaterialID,
		TokenID:     minted.TokenID,
		TxHash:      minted.TxHash.Hex(),
		IPFSCid:     minted.IPFSCid,
		ContentHash: minted.ContentHash,
		WordCount:   minted.WordCount,
		BlockNumber: minted.BlockNumber,
	}
	a.recordRefs(ctx, repository.ChainRefs{IPFSCid: res.IPFSCid, TxHash: res.TxHash, TokenID: res.TokenID.String()})

	a.enter(ctx, "race_check")
	canonical, err := s.dup.ConfirmCanonical(ctx, res.ContentHash, res.TokenID)
	switch {
	case err != nil:
		s.logger.Warnf("attempt %s: could not confirm canonical token: %v", a.ID(), err)
	case !canonical:
		res.RaceAnomaly = true
		a.flagRace(ctx)
		s.logger.Warnf("attempt %s: token %s lost the content race for %s", a.ID(), res.TokenID, res.ContentHash)
	}

	a.enter(ctx, "sync")
	m, err := sync(ctx, backend.BlockchainRefs{
		IPFSCid:     res.IPFSCid,
		ContentHash: res.ContentHash,
		TxHash:      res.TxHash,
		TokenID:     res.TokenID,
	})
	if err != nil {
		return nil, s.reconciliationGap(ctx, a, res, err)
	}
	if m != nil && m.ID != "" {
		res.MaterialID = m.ID
		a.setMaterialID(ctx, m.ID)
	}
	res.Material = m

	a.enter(ctx, "refresh")
	res.Ownership = s.refresh(ctx, sess, res.MaterialID, m, res.TokenID)
	a.finish(ctx, models.AttemptStatusSucceeded, nil, events.MaterialMinted)
	s.logger.WithFields(logrus.Fields{
		"attempt":  a.ID(),
		"material": res.MaterialID,
		"token":    res.TokenID.String(),
		"tx":       res.TxHash,
	}).Info("material minted and synced")
	return res, nil
}

func (s *MintServiceImpl) reconciliationGap(ctx context.Context, a *attempt, res *MintResult, cause error) error {
	gap := &WorkflowError{
		Kind:    KindReconciliationGap,
		Stage:   "sync",
		TokenID: res.TokenID,
		Result:  res,
		Err:     fmt.Errorf("%w: %v", ErrSyncFailed, cause),
	}
	s.logger.WithFields(logrus.Fields{
		"attempt": a.ID(),
		"token":   res.TokenID.String(),
		"tx":      res.TxHash,
		"cid":     res.IPFSCid,
	}).Errorf("on-chain write succeeded but backend sync failed: %v", cause)
	a.finish(ctx, models.AttemptStatusReconciliationGap, gap, events.ReconciliationGap)
	return gap
}

// refresh recomputes ownership after a sync. The backend can answer from a
// view that has not caught up with the sync it just acknowledged, so the
// minted token is applied on top.
func (s *MintServiceImpl) refresh(ctx context.Context, sess *backend.Session, materialID string, m *backend.Material, tokenID *big.Int) *OwnershipCheck {
	check := &OwnershipCheck{IsOwner: true}
	if materialID != "" {
		resolved, err := s.resolver.Resolve(ctx, sess, materialID, m, s.Wallet())
		if err != nil {
			s.logger.Warnf("ownership refresh for %s failed: %v", materialID, err)
			check.Degraded = true
		} else {
			check = resolved
		}
	}
	check.NFTMinted = true
	check.TokenID = tokenID
	check.settle()
	return check
}

// UpdateContent replaces the content of an already minted material: the
// new version is gated, pinned, registered on-chain and then synced.
func (s *MintServiceImpl) UpdateContent(ctx context.Context, sess *backend.Session, materialID, content string) (*MintResult, error) {
	if materialID == "" {
		return nil, validationError(ErrMissingMaterialID)
	}
	if strings.TrimSpace(content) == "" {
		return nil, validationError(ErrEmptyContent)
	}
	if err := s.precheck(sess); err != nil {
		return nil, err
	}
	m, err := s.loadMaterial(ctx, sess, materialID, false)
	if err != nil {
		return nil, err
	}
	if !m.NFTMinted || m.NFTTokenID == nil {
		return nil, validationError(ErrNotMinted)
	}
	caller := s.minter.Caller().Hex()
	if m.AuthorWallet != "" && !m.AuthoredBy(caller) {
		return nil, validationError(ErrNotAuthor)
	}
	hash := contenthash.Hash(content)
	if strings.EqualFold(hash, m.ContentHash) {
		return nil, validationError(ErrContentUnchanged)
	}

	a := s.begin(ctx, models.FlowUpdate, materialID, caller, hash, nil)
	a.enter(ctx, "duplicate_check")
	dup, err := s.dup.Exists(ctx, sess, hash)
	if err != nil {
		return nil, a.fail(ctx, classifyMintError(err))
	}
	if dup.Exists {
		return nil, a.fail(ctx, conflictError(dup.TokenID, dup.MaterialID))
	}

	res := &MintResult{
		AttemptID:   a.ID(),
		MaterialID:  materialID,
		TokenID:     m.NFTTokenID,
		ContentHash: hash,
		WordCount:   contenthash.WordCount(content),
	}
	a.recordRefs(ctx, repository.ChainRefs{TokenID: res.TokenID.String()})
	stageErr := func(stage chain.Stage, err error) error {
		a.recordRefs(ctx, repository.ChainRefs{IPFSCid: res.IPFSCid, TxHash: res.TxHash})
		return a.fail(ctx, classifyMintError(&chain.MintError{Stage: stage, Err: err}))
	}

	a.enter(ctx, chain.StageChainCheck.String())
	if err := s.minter.EnsureChain(ctx); err != nil {
		return nil, stageErr(chain.StageChainCheck, err)
	}
	a.enter(ctx, chain.StageUploading.String())
	cid, err := s.uploader.UploadText(ctx, content)
	if err != nil {
		return nil, stageErr(chain.StageUploading, err)
	}
	res.IPFSCid = cid

	a.enter(ctx, chain.StageSubmitting.String())
	tx, err := s.minter.UpdateContent(ctx, res.TokenID, cid, hash)
	if err != nil {
		stage := chain.StageSubmitting
		if tx != (common.Hash{}) {
			res.TxHash = tx.Hex()
			stage = chain.StageConfirming
		}
		return nil, stageErr(stage, err)
	}
	res.TxHash = tx.Hex()
	a.recordRefs(ctx, repository.ChainRefs{IPFSCid: res.IPFSCid, TxHash: res.TxHash})

	a.enter(ctx, "sync")
	updated, err := s.sync.Update(ctx, sess, materialID, backend.ContentUpdateRefs{
		NewIPFSCid:     res.IPFSCid,
		NewContentHash: res.ContentHash,
		TxHash:         res.TxHash,
	})
	if err != nil {
		return nil, s.reconciliationGap(ctx, a, res, err)
	}
	res.Material = updated
	a.finish(ctx, models.AttemptStatusSucceeded, nil, events.ContentUpdated)
	s.logger.Infof("material %s content updated: token=%s tx=%s cid=%s", materialID, res.TokenID, res.TxHash, res.IPFSCid)
	return res, nil
}

// CheckDuplicate hashes content and asks the index whether it is taken.
func (s *MintServiceImpl) CheckDuplicate(ctx context.Context, sess *backend.Session, content string) (*DuplicateResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, validationError(ErrEmptyContent)
	}
	return s.dup.Exists(ctx, sess, contenthash.Hash(content))
}

// Ownership resolves the ownership view of a material for wallet, or for
// the service wallet when wallet is empty.
func (s *MintServiceImpl) Ownership(ctx context.Context, sess *backend.Session, materialID, wallet string) (*OwnershipCheck, error) {
	if materialID == "" {
		return nil, validationError(ErrMissingMaterialID)
	}
	if wallet == "" {
		wallet = s.Wallet()
	}
	m, err := s.backend.GetMaterial(ctx, sess, materialID, false)
	if err != nil {
		s.logger.Debugf("material %s unavailable for ownership fallback: %v", materialID, err)
		m = nil
	}
	check, err := s.resolver.Resolve(ctx, sess, materialID, m, wallet)
	if err != nil {
		return nil, networkError("ownership", err)
	}
	return check, nil
}

func hashOrEmpty(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return h.Hex()
}
