package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/RigelNana/baselibrary/pkg/metrics"
	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/events"
	"github.com/RigelNana/baselibrary/services/mint-service/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrLedgerDisabled  = errors.New("mint attempt ledger is not configured")
	ErrNotReconcilable = errors.New("attempt is not waiting for reconciliation")
)

func (s *MintServiceImpl) ListAttempts(ctx context.Context, status string, limit int) ([]*models.MintAttempt, error) {
	if s.attempts == nil {
		return nil, ErrLedgerDisabled
	}
	if status == "" {
		return s.attempts.List(ctx, limit, 0)
	}
	return s.attempts.ListByStatus(ctx, status, limit)
}

func (s *MintServiceImpl) AttemptsForMaterial(ctx context.Context, materialID string) ([]*models.MintAttempt, error) {
	if s.attempts == nil {
		return nil, ErrLedgerDisabled
	}
	return s.attempts.ListByMaterialID(ctx, materialID)
}

// Reconcile re-submits the backend sync of an attempt whose on-chain write
// succeeded but whose sync failed. It is only ever run by an operator.
func (s *MintServiceImpl) Reconcile(ctx context.Context, sess *backend.Session, attemptID string) (*models.MintAttempt, error) {
	if s.attempts == nil {
		return nil, ErrLedgerDisabled
	}
	id, err := uuid.Parse(attemptID)
	if err != nil {
		return nil, validationError(fmt.Errorf("invalid attempt id %q", attemptID))
	}
	if !sess.Authenticated() {
		return nil, validationError(ErrNotAuthenticated)
	}
	rec, err := s.attempts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationError(fmt.Errorf("attempt %s not found", attemptID))
		}
		return nil, err
	}
	if rec.Status != models.AttemptStatusReconciliationGap {
		return nil, validationError(fmt.Errorf("%w: %s is %s", ErrNotReconcilable, attemptID, rec.Status))
	}

	materialID := rec.MaterialID
	switch rec.Flow {
	case models.FlowUpdate:
		_, err = s.sync.Update(ctx, sess, rec.MaterialID, backend.ContentUpdateRefs{
			NewIPFSCid:     rec.IPFSCid,
			NewContentHash: rec.ContentHash,
			TxHash:         rec.TxHash,
		})
	case models.FlowMint, models.FlowCreate:
		tokenID, ok := new(big.Int).SetString(rec.TokenID, 10)
		if !ok {
			return nil, validationError(fmt.Errorf("attempt %s has no valid token id %q", attemptID, rec.TokenID))
		}
		refs := backend.BlockchainRefs{
			IPFSCid:     rec.IPFSCid,
			ContentHash: rec.ContentHash,
			TxHash:      rec.TxHash,
			TokenID:     tokenID,
		}
		if rec.Flow == models.FlowMint {
			_, err = s.sync.Sync(ctx, sess, rec.MaterialID, refs)
			break
		}
		var nm backend.NewMaterial
		if uerr := json.Unmarshal(rec.Metadata, &nm); uerr != nil {
			return nil, validationError(fmt.Errorf("attempt %s has no stored material: %v", attemptID, uerr))
		}
		var created *backend.Material
		if created, err = s.sync.Create(ctx, sess, nm, refs); err == nil && created != nil {
			materialID = created.ID
		}
	default:
		return nil, validationError(fmt.Errorf("attempt %s has unknown flow %q", attemptID, rec.Flow))
	}
	if err != nil {
		metrics.MintAttemptsTotal.WithLabelValues(rec.Flow, "reconcile_failed").Inc()
		return nil, networkError("reconcile", err)
	}

	if materialID != "" && materialID != rec.MaterialID {
		if err := s.attempts.SetMaterialID(ctx, id, materialID); err != nil {
			s.logger.Warnf("attempt %s: failed to record material id: %v", attemptID, err)
		}
		rec.MaterialID = materialID
	}
	if err := s.attempts.MarkStatus(ctx, id, models.AttemptStatusReconciled, "", ""); err != nil {
		return nil, err
	}
	rec.Status = models.AttemptStatusReconciled
	rec.ErrorKind, rec.ErrorMessage = "", ""
	metrics.MintAttemptsTotal.WithLabelValues(rec.Flow, models.AttemptStatusReconciled).Inc()

	err = s.events.Publish(context.WithoutCancel(ctx), events.Event{
		Type:        events.Reconciled,
		AttemptID:   attemptID,
		MaterialID:  rec.MaterialID,
		Wallet:      rec.WalletAddress,
		ContentHash: rec.ContentHash,
		IPFSCid:     rec.IPFSCid,
		TxHash:      rec.TxHash,
		TokenID:     rec.TokenID,
	})
	if err != nil {
		s.logger.Warnf("attempt %s: failed to publish %s: %v", attemptID, events.Reconciled, err)
	}
	s.logger.Infof("attempt %s reconciled: material=%s token=%s", attemptID, rec.MaterialID, rec.TokenID)
	return rec, nil
}
