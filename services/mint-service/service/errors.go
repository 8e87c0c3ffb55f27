package service

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/RigelNana/baselibrary/services/mint-service/chain"
)

// ErrorKind classifies a workflow failure for the caller.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindConflict          ErrorKind = "conflict"
	KindNetwork           ErrorKind = "network"
	KindChain             ErrorKind = "chain"
	KindReconciliationGap ErrorKind = "reconciliation_gap"
)

var (
	ErrNotAuthenticated   = errors.New("session is not authenticated")
	ErrWalletNotConnected = errors.New("no wallet connected")
	ErrEmptyContent       = errors.New("material content is empty")
	ErrMissingMaterialID  = errors.New("material id is required")
	ErrNotAuthor          = errors.New("connected wallet is not the material author")
	ErrDuplicateContent   = errors.New("content already registered")
	ErrContentUnchanged   = errors.New("new content hashes to the current content hash")
	ErrNotMinted          = errors.New("material has no NFT")
	ErrSyncFailed         = errors.New("minted on-chain but backend sync failed")
)

// WorkflowError is the only error type the mint workflows return. Conflict
// errors carry the token that already holds the content; reconciliation
// gaps carry the full on-chain result so nothing is lost.
type WorkflowError struct {
	Kind    ErrorKind
	Stage   string
	TokenID *big.Int
	Result  *MintResult
	Err     error
}

func (e *WorkflowError) Error() string {
	msg := string(e.Kind)
	if e.Stage != "" {
		msg += " at " + e.Stage
	}
	if e.Kind == KindConflict && e.TokenID != nil {
		msg += fmt.Sprintf(" (token %s)", e.TokenID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// KindOf returns the kind of the first WorkflowError in err's chain, or ""
// when there is none.
func KindOf(err error) ErrorKind {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

func validationError(err error) *WorkflowError {
	return &WorkflowError{Kind: KindValidation, Stage: "validate", Err: err}
}

func networkError(stage string, err error) *WorkflowError {
	return &WorkflowError{Kind: KindNetwork, Stage: stage, Err: err}
}

func conflictError(tokenID *big.Int, materialID string) *WorkflowError {
	err := ErrDuplicateContent
	if materialID != "" {
		err = fmt.Errorf("%w by material %s", ErrDuplicateContent, materialID)
	}
	return &WorkflowError{Kind: KindConflict, Stage: "duplicate_check", TokenID: tokenID, Err: err}
}

// classifyMintError maps a minter failure onto the error taxonomy. Upload
// failures and RPC transport failures are network errors; everything the
// chain itself decided is a chain error.
func classifyMintError(err error) *WorkflowError {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we
	}
	stage := chain.StageFailed
	var me *chain.MintError
	if errors.As(err, &me) {
		stage = me.Stage
	}
	kind := KindChain
	switch stage {
	case chain.StageUploading:
		kind = KindNetwork
	case chain.StageChainCheck:
		if !errors.Is(err, chain.ErrChainSwitchRejected) && !errors.Is(err, chain.ErrWrongChain) {
			kind = KindNetwork
		}
	case chain.StageConfirming:
		if !errors.Is(err, chain.ErrReceiptTimeout) && !errors.Is(err, chain.ErrTransactionReverted) {
			kind = KindNetwork
		}
	}
	return &WorkflowError{Kind: kind, Stage: stage.String(), Err: err}
}
