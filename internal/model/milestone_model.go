package model

import (
	"time"
)

// MilestoneModel 项目里程碑
// 更新时的身份键是 (project_id, order_index)，链上里程碑数组只有位置没有稳定ID
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId  int64 `json:"project_id" gorm:"not null;uniqueIndex:idx_milestone_project_order"`
	OrderIndex int   `json:"order_index" gorm:"not null;uniqueIndex:idx_milestone_project_order"`

	Description        string  `json:"description" gorm:"type:text"`
	Amount             float64 `json:"amount" gorm:"not null"`
	BeneficiaryAddress string  `json:"beneficiary_address"`

	// 链下工作流状态只向前推进，链上 released 只能把它推到 paid
	Status      MilestoneStatus `json:"status" gorm:"default:'pending'"`
	EvidenceCid string          `json:"evidence_cid"`
	SubmittedAt *time.Time      `json:"submitted_at"`
	VerifiedAt  *time.Time      `json:"verified_at"`
	VerifierId  *int64          `json:"verifier_id"`
}

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneStatusPending   MilestoneStatus = "pending"   // 待提交
	MilestoneStatusSubmitted MilestoneStatus = "submitted" // 已提交证明
	MilestoneStatusVerified  MilestoneStatus = "verified"  // 已审核通过
	MilestoneStatusRejected  MilestoneStatus = "rejected"  // 已拒绝
	MilestoneStatusPaid      MilestoneStatus = "paid"      // 已放款
)

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "milestone"
}
