package models

import (
	"gorm.io/datatypes"
)

// MintAttempt is one run of the mint workflow as seen from this node. It
// outlives the request that started it so that a confirmed mint whose
// backend sync failed can be reconciled later.
type MintAttempt struct {
	Base
	Flow          string         `gorm:"type:varchar(32);not null;index" json:"flow"`
	MaterialID    string         `gorm:"type:varchar(255);index" json:"material_id"`
	WalletAddress string         `gorm:"type:varchar(42);not null;index" json:"wallet_address"`
	ContentHash   string         `gorm:"type:varchar(64);not null;index" json:"content_hash"`
	IPFSCid       string         `gorm:"column:ipfs_cid;type:varchar(255)" json:"ipfs_cid"`
	TxHash        string         `gorm:"type:varchar(66)" json:"tx_hash"`
	TokenID       string         `gorm:"type:varchar(78)" json:"token_id"`
	Stage         string         `gorm:"type:varchar(32);not null;default:'idle'" json:"stage"`
	Status        string         `gorm:"type:varchar(32);not null;index;default:'pending'" json:"status"`
	ErrorKind     string         `gorm:"type:varchar(32)" json:"error_kind,omitempty"`
	ErrorMessage  string         `gorm:"type:text" json:"error_message,omitempty"`
	RaceAnomaly   bool           `gorm:"not null;default:false" json:"race_anomaly"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
}

func (MintAttempt) TableName() string {
	return "mint_attempts"
}

// 流程类型
const (
	FlowMint   = "mint"
	FlowCreate = "create"
	FlowUpdate = "update"
)

// 状态常量
const (
	AttemptStatusPending           = "pending"
	AttemptStatusSucceeded         = "succeeded"
	AttemptStatusFailed            = "failed"
	AttemptStatusReconciliationGap = "reconciliation_gap"
	AttemptStatusReconciled        = "reconciled"
)
