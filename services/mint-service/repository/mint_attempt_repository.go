package repository

import (
	"context"

	"github.com/RigelNana/baselibrary/services/mint-service/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChainRefs are the identifiers an attempt accumulates as it progresses.
type ChainRefs struct {
	IPFSCid string
	TxHash  string
	TokenID string
}

type MintAttemptRepository interface {
	BaseRepository[models.MintAttempt]
	UpdateStage(ctx context.Context, id uuid.UUID, stage string) error
	SetMaterialID(ctx context.Context, id uuid.UUID, materialID string) error
	RecordChainRefs(ctx context.Context, id uuid.UUID, refs ChainRefs) error
	MarkStatus(ctx context.Context, id uuid.UUID, status, errorKind, errorMessage string) error
	FlagRaceAnomaly(ctx context.Context, id uuid.UUID) error
	ListByStatus(ctx context.Context, status string, limit int) ([]*models.MintAttempt, error)
	ListByMaterialID(ctx context.Context, materialID string) ([]*models.MintAttempt, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type MintAttemptRepositoryImpl struct {
	*BaseRepositoryImpl[models.MintAttempt]
}

func NewMintAttemptRepository(db *gorm.DB) MintAttemptRepository {
	return &MintAttemptRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.MintAttempt](db),
	}
}

func (r *MintAttemptRepositoryImpl) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.conn(ctx).Model(&models.MintAttempt{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MintAttemptRepositoryImpl) UpdateStage(ctx context.Context, id uuid.UUID, stage string) error {
	return r.update(ctx, id, map[string]interface{}{"stage": stage})
}

func (r *MintAttemptRepositoryImpl) SetMaterialID(ctx context.Context, id uuid.UUID, materialID string) error {
	return r.update(ctx, id, map[string]interface{}{"material_id": materialID})
}

// RecordChainRefs stores the non-empty fields of refs.
func (r *MintAttemptRepositoryImpl) RecordChainRefs(ctx context.Context, id uuid.UUID, refs ChainRefs) error {
	fields := map[string]interface{}{}
	if refs.IPFSCid != "" {
		fields["ipfs_cid"] = refs.IPFSCid
	}
	if refs.TxHash != "" {
		fields["tx_hash"] = refs.TxHash
	}
	if refs.TokenID != "" {
		fields["token_id"] = refs.TokenID
	}
	if len(fields) == 0 {
		return nil
	}
	return r.update(ctx, id, fields)
}

func (r *MintAttemptRepositoryImpl) MarkStatus(ctx context.Context, id uuid.UUID, status, errorKind, errorMessage string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        status,
		"error_kind":    errorKind,
		"error_message": errorMessage,
	})
}

func (r *MintAttemptRepositoryImpl) FlagRaceAnomaly(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{"race_anomaly": true})
}

func (r *MintAttemptRepositoryImpl) ListByStatus(ctx context.Context, status string, limit int) ([]*models.MintAttempt, error) {
	var attempts []*models.MintAttempt
	q := r.conn(ctx).Where("status = ?", status).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *MintAttemptRepositoryImpl) ListByMaterialID(ctx context.Context, materialID string) ([]*models.MintAttempt, error) {
	var attempts []*models.MintAttempt
	err := r.conn(ctx).Where("material_id = ?", materialID).Order("created_at DESC").Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *MintAttemptRepositoryImpl) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.MintAttempt{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
