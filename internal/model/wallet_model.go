package model

import (
	"time"
)

// WalletModel 用户钱包
// address 存小写归一化形式并全局唯一，一个地址只属于一个用户，
// 这是身份解析在并发下的最终裁决约束
type WalletModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 归属
	UserId int64 `json:"user_id" gorm:"index;not null"`

	// 地址信息
	Address   string `json:"address" gorm:"uniqueIndex;not null"`
	IsPrimary bool   `json:"is_primary" gorm:"default:false"`

	// 状态
	Status WalletStatus `json:"status" gorm:"default:'active'"`
}

// WalletStatus 钱包状态
type WalletStatus string

const (
	WalletStatusActive      WalletStatus = "active"      // 正常
	WalletStatusRevoked     WalletStatus = "revoked"     // 已撤销
	WalletStatusLost        WalletStatus = "lost"        // 已挂失
	WalletStatusCompromised WalletStatus = "compromised" // 已泄露
)

// TableName 自定义表名
func (WalletModel) TableName() string {
	return "wallet"
}
