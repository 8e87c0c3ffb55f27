package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

type Stage int

const (
	StageIdle Stage = iota
	StageChainCheck
	StageUploading
	StageSubmitting
	StageConfirming
	StageExtracting
	StageDone
	StageFailed
)

var stageNames = [...]string{"idle", "chain_check", "uploading", "submitting", "confirming", "extracting", "done", "failed"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageFunc observes stage transitions.
type StageFunc func(Stage)

var (
	ErrChainSwitchRejected = errors.New("chain: wallet refused to switch network")
	ErrWrongChain          = errors.New("chain: wallet is on the wrong network")
	ErrReceiptTimeout      = errors.New("chain: timed out waiting for receipt")
	ErrTransactionReverted = errors.New("chain: transaction reverted")
	ErrMintEventNotFound   = errors.New("chain: mint transfer event not found in receipt")
)

const (
	DefaultReceiptTimeout = 60 * time.Second
	DefaultSettleDelay    = time.Second
)

// Uploader stores the material text and returns its CID.
type Uploader interface {
	UploadText(ctx context.Context, content string) (string, error)
}

type MintRequest struct {
	Subject     string
	Grade       string
	Topic       string
	Title       string
	Content     string
	ContentHash string
	WordCount   int
}

type MintResult struct {
	TokenID     *big.Int
	TxHash      common.Hash
	IPFSCid     string
	ContentHash string
	WordCount   int
	BlockNumber uint64
}

// MintError reports the stage a mint failed in together with whatever it
// had produced by then (CID after upload, tx hash after submission).
type MintError struct {
	Stage   Stage
	Partial MintResult
	Err     error
}

func (e *MintError) Error() string {
	return fmt.Sprintf("mint failed at %s: %v", e.Stage, e.Err)
}

func (e *MintError) Unwrap() error { return e.Err }

type MinterConfig struct {
	ChainID        uint64
	Contract       common.Address
	ReceiptTimeout time.Duration
	SettleDelay    time.Duration
}

type Minter struct {
	wallet   Wallet
	uploader Uploader
	cfg      MinterConfig
	logger   *logrus.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewMinter(wallet Wallet, uploader Uploader, cfg MinterConfig, logger *logrus.Logger) *Minter {
	if cfg.ChainID == 0 {
		cfg.ChainID = BaseMainnetChainID
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = DefaultReceiptTimeout
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Minter{wallet: wallet, uploader: uploader, cfg: cfg, logger: logger, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Minter) Caller() common.Address   { return m.wallet.Address() }
func (m *Minter) Contract() common.Address { return m.cfg.Contract }

// EnsureChain switches the wallet to the required chain and waits the
// settle delay. It is a no-op when the wallet is already there.
func (m *Minter) EnsureChain(ctx context.Context) error {
	current, err := m.wallet.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain: read wallet chain id: %w", err)
	}
	if current == m.cfg.ChainID {
		return nil
	}
	m.logger.Infof("switching wallet from chain %d to %d", current, m.cfg.ChainID)
	if err := m.wallet.SwitchChain(ctx, m.cfg.ChainID); err != nil {
		return fmt.Errorf("%w: %v", ErrChainSwitchRejected, err)
	}
	if err := m.sleep(ctx, m.cfg.SettleDelay); err != nil {
		return err
	}
	if current, err = m.wallet.ChainID(ctx); err != nil {
		return fmt.Errorf("chain: read wallet chain id: %w", err)
	}
	if current != m.cfg.ChainID {
		return fmt.Errorf("%w: on %d, want %d", ErrWrongChain, current, m.cfg.ChainID)
	}
	return nil
}

// Mint runs chain check, upload, submission, confirmation and token id
// extraction in order. Stages already completed are not undone on failure.
func (m *Minter) Mint(ctx context.Context, req MintRequest, onStage StageFunc) (*MintResult, error) {
	if onStage == nil {
		onStage = func(Stage) {}
	}
	res := MintResult{ContentHash: req.ContentHash, WordCount: req.WordCount}
	fail := func(stage Stage, err error) (*MintResult, error) {
		onStage(StageFailed)
		return nil, &MintError{Stage: stage, Partial: res, Err: err}
	}

	onStage(StageChainCheck)
	if err := m.EnsureChain(ctx); err != nil {
		return fail(StageChainCheck, err)
	}

	onStage(StageUploading)
	cid, err := m.uploader.UploadText(ctx, req.Content)
	if err != nil {
		return fail(StageUploading, err)
	}
	res.IPFSCid = cid

	onStage(StageSubmitting)
	caller := m.wallet.Address()
	data, err := MaterialNFTABI.Pack("createMaterial",
		caller, req.Subject, req.Grade, req.Topic, req.ContentHash, cid, req.Title, big.NewInt(int64(req.WordCount)))
	if err != nil {
		return fail(StageSubmitting, fmt.Errorf("chain: pack createMaterial: %w", err))
	}
	txHash, err := m.wallet.SendTransaction(ctx, m.cfg.Contract, data)
	if err != nil {
		return fail(StageSubmitting, err)
	}
	res.TxHash = txHash
	m.logger.Infof("createMaterial submitted: tx=%s cid=%s", txHash.Hex(), cid)

	onStage(StageConfirming)
	receipt, err := m.waitSuccess(ctx, txHash)
	if err != nil {
		return fail(StageConfirming, err)
	}
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
	}

	onStage(StageExtracting)
	tokenID, err := ExtractMintedTokenID(receipt, m.cfg.Contract, caller)
	if err != nil {
		return fail(StageExtracting, err)
	}
	res.TokenID = tokenID

	onStage(StageDone)
	m.logger.Infof("material minted: token=%s tx=%s", tokenID, txHash.Hex())
	return &res, nil
}

// UpdateContent points an existing token at new content.
func (m *Minter) UpdateContent(ctx context.Context, tokenID *big.Int, cid, contentHash string) (common.Hash, error) {
	return m.transact(ctx, "updateMaterial", tokenID, cid, contentHash)
}

func (m *Minter) SetPublished(ctx context.Context, tokenID *big.Int, published bool) (common.Hash, error) {
	return m.transact(ctx, "setPublished", tokenID, published)
}

func (m *Minter) transact(ctx context.Context, method string, args ...interface{}) (common.Hash, error) {
	if err := m.EnsureChain(ctx); err != nil {
		return common.Hash{}, err
	}
	data, err := MaterialNFTABI.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	txHash, err := m.wallet.SendTransaction(ctx, m.cfg.Contract, data)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := m.waitSuccess(ctx, txHash); err != nil {
		return txHash, err
	}
	return txHash, nil
}

func (m *Minter) waitSuccess(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, m.cfg.ReceiptTimeout)
	defer cancel()
	receipt, err := m.wallet.WaitReceipt(waitCtx, txHash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: tx %s", ErrReceiptTimeout, m.cfg.ReceiptTimeout, txHash.Hex())
		}
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s", ErrTransactionReverted, txHash.Hex())
	}
	return receipt, nil
}

// ExtractMintedTokenID finds the Transfer(0x0 -> to, tokenId) log emitted
// by contract and returns tokenId.
func ExtractMintedTokenID(receipt *types.Receipt, contract, to common.Address) (*big.Int, error) {
	for _, lg := range receipt.Logs {
		if lg == nil || lg.Address != contract || len(lg.Topics) != 4 {
			continue
		}
		if lg.Topics[0] != TransferEventID || lg.Topics[1] != (common.Hash{}) {
			continue
		}
		if common.BytesToAddress(lg.Topics[2].Bytes()) != to {
			continue
		}
		return new(big.Int).SetBytes(lg.Topics[3].Bytes()), nil
	}
	return nil, ErrMintEventNotFound
}
