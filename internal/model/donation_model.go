package model

import (
	"time"
)

// DonationModel 捐赠记录
// 只追加不修改，tx_hash 是幂等键，同一链上事件无论投递多少次只入账一次
type DonationModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId          int64   `json:"project_id" gorm:"index;not null"`
	DonorId            *int64  `json:"donor_id" gorm:"index"`
	DonorWalletAddress string  `json:"donor_wallet_address" gorm:"not null"`
	Amount             float64 `json:"amount" gorm:"not null"`
	TxHash             string  `json:"tx_hash" gorm:"uniqueIndex;not null"`
	BlockNum           uint64  `json:"block_num"`
}

// TableName 自定义表名
func (DonationModel) TableName() string {
	return "donation"
}
