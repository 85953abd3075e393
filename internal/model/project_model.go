package model

import (
	"time"
)

// ProjectModel 捐赠托管项目
// 每个已部署的托管合约对应一行，contract_address 是幂等更新的自然键
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	MetaCid     string `json:"meta_cid"`

	// 参与方
	CharityId     int64  `json:"charity_id" gorm:"index;not null"`
	BuilderId     *int64 `json:"builder_id" gorm:"index"`
	WalletAddress string `json:"wallet_address"`

	// 天课属性
	ZakatMode bool   `json:"zakat_mode" gorm:"default:false"`
	AsnafTag  string `json:"asnaf_tag"`

	// 资金信息，funded_balance 始终等于上次同步成功时合约的 totalDonated
	ContractTemplate string  `json:"contract_template"`
	TotalAmount      float64 `json:"total_amount" gorm:"not null"`
	FundedBalance    float64 `json:"funded_balance" gorm:"default:0"`

	// 状态由同步引擎派生，不随用户输入变化
	Status ProjectStatus `json:"status" gorm:"default:'active'"`

	// 区块链信息
	ContractAddress string     `json:"contract_address" gorm:"uniqueIndex;not null"`
	Deadline        *time.Time `json:"deadline"`
	DeadlineEnabled bool       `json:"deadline_enabled" gorm:"default:false"`

	// 关联
	Milestones []MilestoneModel `json:"milestones,omitempty" gorm:"foreignKey:ProjectId"`
	Donations  []DonationModel  `json:"donations,omitempty" gorm:"foreignKey:ProjectId"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"    // 进行中
	ProjectStatusCompleted ProjectStatus = "completed" // 已完成
	ProjectStatusExpired   ProjectStatus = "expired"   // 已过期
	ProjectStatusPaused    ProjectStatus = "paused"    // 已暂停
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
